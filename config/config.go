package config

import "time"

type StorageType string

const STORAGE_TYPE_REDIS StorageType = "redis"
const STORAGE_TYPE_INMEM StorageType = "memory"

type Config struct {
	RedisConfig         RedisStorageConfig
	HttpPort            int
	StorageType         StorageType
	ProviderVerifyToken string
	ProviderAccessToken string
	ProviderApiUrl      string
	AiApiUrl            string
	AiApiKey            string
	HopLimit            int
	SessionTimeout      time.Duration
	AuditQueueCapacity  int
	AuditFileName       string
}

type RedisStorageConfig struct {
	Addrs     []string
	Namespace string
}
