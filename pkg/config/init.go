package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// configTemplate is the commented YAML written by InitConfig/InitConfigToPath.
// It mirrors GetDefaultConfig's values so a freshly generated file loads
// back to the same configuration it documents.
const configTemplate = `# safesecd Configuration File
#
# See https://pkg.go.dev/github.com/safesecd/safesecd/pkg/config for the
# full set of fields. Any value omitted here falls back to its default.

# dbdir is the directory holding the keyfile store.
dbdir: %q

# bindaddr is the host:port the server listens on.
bindaddr: %q

logging:
  level: %q
  format: %q
  output: %q

server:
  control_channel_capacity: %d
  max_connections: %d
  shutdown_timeout: %s

metrics:
  enabled: %t
  port: %d
`

// InitConfig writes a default configuration file to the default location
// ($XDG_CONFIG_HOME/safesecd/config.yaml or ~/.config/safesecd/config.yaml).
// It refuses to overwrite an existing file unless force is true. Returns
// the path the file was written to.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes a default configuration file to the given path,
// creating parent directories as needed. It refuses to overwrite an
// existing file unless force is true.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	cfg := GetDefaultConfig()
	content := fmt.Sprintf(configTemplate,
		cfg.DBDir,
		cfg.BindAddr,
		cfg.Logging.Level,
		cfg.Logging.Format,
		cfg.Logging.Output,
		cfg.Server.ControlChannelCapacity,
		cfg.Server.MaxConnections,
		cfg.Server.ShutdownTimeout,
		cfg.Metrics.Enabled,
		cfg.Metrics.Port,
	)

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
