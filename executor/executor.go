package executor

// Executor is a background loop with a lifecycle.
type Executor interface {
	Name() string
	Start() error
	Stop() error
}
