package config

const (
	DefaultListen    = ":3000"
	DefaultAdminAddr = "127.0.0.1:9090"
	DefaultAPIPrefix = "/api/"

	// ModeEnv overrides the configured mode when set.
	ModeEnv = "NOISEGATE_MODE"
)

// DefaultLogDir returns the default audit log directory path.
func DefaultLogDir() string {
	return "~/.noisegate/logs"
}
