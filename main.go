package main

import (
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/chatflowhq/chatflow/agent"
	"github.com/chatflowhq/chatflow/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type cfg struct {
	config.Config
}
type cli struct {
	cfg cfg
}

func setupFlags(cmd *cobra.Command) error {
	cmd.Flags().String("config-file", "", "Path to config file.")
	cmd.Flags().String("redis-addr", "localhost:6379", "comma separated list of redis host:port")
	cmd.Flags().String("namespace", "chatflow", "namespace used in storage")
	cmd.Flags().Int("http-port", 8080, "http port for webhook and metadata endpoints")
	cmd.Flags().String("storage-impl", "redis", "implementation of underline storage")
	cmd.Flags().String("verify-token", "", "token for the provider verification handshake")
	cmd.Flags().String("access-token", "", "token for outbound provider calls")
	cmd.Flags().String("provider-api-url", "", "base url of the chat provider api")
	cmd.Flags().String("ai-api-url", "https://api.openai.com/v1", "base url of the ai completion api")
	cmd.Flags().String("ai-api-key", "", "api key for the ai completion api")
	cmd.Flags().Int("hop-limit", 64, "max node transitions per inbound event")
	cmd.Flags().Duration("session-timeout", 24*time.Hour, "idle time after which a session times out")
	cmd.Flags().Int("audit-capacity", 1024, "audit writer queue capacity")
	cmd.Flags().String("audit-file", "", "file for the audit trail, empty disables the file collector")
	return viper.BindPFlags(cmd.Flags())
}

func (c *cli) setupConfig(cmd *cobra.Command, args []string) error {
	var err error

	configFile, err := cmd.Flags().GetString("config-file")
	if err != nil {
		return err
	}
	viper.SetConfigFile(configFile)

	if err = viper.ReadInConfig(); err != nil {
		// it's ok if config file doesn't exist
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}

	c.cfg.RedisConfig.Addrs = strings.Split(viper.GetString("redis-addr"), ",")
	c.cfg.RedisConfig.Namespace = viper.GetString("namespace")
	c.cfg.HttpPort = viper.GetInt("http-port")
	c.cfg.StorageType = config.StorageType(viper.GetString("storage-impl"))
	c.cfg.ProviderVerifyToken = viper.GetString("verify-token")
	c.cfg.ProviderAccessToken = viper.GetString("access-token")
	c.cfg.ProviderApiUrl = viper.GetString("provider-api-url")
	c.cfg.AiApiUrl = viper.GetString("ai-api-url")
	c.cfg.AiApiKey = viper.GetString("ai-api-key")
	c.cfg.HopLimit = viper.GetInt("hop-limit")
	c.cfg.SessionTimeout = viper.GetDuration("session-timeout")
	c.cfg.AuditQueueCapacity = viper.GetInt("audit-capacity")
	c.cfg.AuditFileName = viper.GetString("audit-file")
	return nil
}

func (c *cli) run(cmd *cobra.Command, args []string) error {
	var err error
	agent, err := agent.New(c.cfg.Config)
	if err != nil {
		panic(err)
	}
	err = agent.Start()
	if err != nil {
		panic(err)
	}
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	return agent.Shutdown()
}

func main() {
	cli := &cli{}

	cmd := &cobra.Command{
		Use:     "chatflow",
		PreRunE: cli.setupConfig,
		RunE:    cli.run,
	}

	if err := setupFlags(cmd); err != nil {
		log.Fatal(err)
	}

	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
