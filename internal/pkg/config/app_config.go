package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// AppConfig aggregates every settings section of the application
type AppConfig struct {
	Logger   LoggerSettings   `mapstructure:"logger"`
	Backend  BackendSettings  `mapstructure:"backend"`
	PKCS11   PKCS11Settings   `mapstructure:"pkcs11"`
	Database DatabaseSettings `mapstructure:"database"`
	KeyPair  KeyPairSettings  `mapstructure:"key_pair"`
	Metrics  MetricsSettings  `mapstructure:"metrics"`
}

// Validate validates every section, skipping the PKCS#11 section unless the PKCS#11 backend is selected
func (c *AppConfig) Validate() error {
	if err := c.Logger.Validate(); err != nil {
		return err
	}
	if err := c.Backend.Validate(); err != nil {
		return err
	}
	if c.Backend.Type == BackendTypePKCS11 {
		if err := c.PKCS11.Validate(); err != nil {
			return err
		}
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.KeyPair.Validate(); err != nil {
		return err
	}
	return c.Metrics.Validate()
}

// setDefaults registers the values used when neither the config file nor the environment provides one
func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.log_level", LogLevelInfo)
	v.SetDefault("logger.log_type", LogTypeConsole)
	v.SetDefault("logger.max_size", DefaultLogMaxSizeMB)
	v.SetDefault("logger.max_backups", DefaultLogMaxBackups)
	v.SetDefault("logger.max_age", DefaultLogMaxAgeDays)
	v.SetDefault("backend.type", BackendTypeSoftware)
	v.SetDefault("database.type", SqliteDbType)
	v.SetDefault("database.dsn", "crypto-rsa.db")
	v.SetDefault("database.name", "crypto_rsa")
	v.SetDefault("key_pair.default_key_size", DefaultRSAKeySize)
}

// InitializeConfig loads the application configuration from the YAML file at path.
// An empty path loads defaults only. Every key can be overridden by an environment
// variable prefixed with RSA_, e.g. RSA_BACKEND_TYPE=pkcs11.
func InitializeConfig(path string) (*AppConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("RSA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	// AutomaticEnv only applies to keys viper already knows about
	for _, key := range []string{"pkcs11.module_path", "pkcs11.slot_id", "pkcs11.user_pin", "pkcs11.token_label", "logger.file_path", "metrics.textfile_path"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
