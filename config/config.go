package config

import (
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Devices  DevicesConfig  `mapstructure:"devices"`
}

type ServerConfig struct {
	Address  string `mapstructure:"address"`
	HTTPPort string `mapstructure:"http_port"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // "postgres" | "mysql" | "sqlite" | "" (без БД)
	DSN    string `mapstructure:"dsn"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "text" | "json"
	File   string `mapstructure:"file"`
}

type DevicesConfig struct {
	// MaxPerGateway — предел устройств на один шлюз.
	MaxPerGateway int `mapstructure:"max_per_gateway"`
}

// Load читает config.yaml (если есть) и переменные окружения IOTGW_*.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.http_port", "3700")
	v.SetDefault("database.driver", "")
	v.SetDefault("database.dsn", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", "")
	v.SetDefault("devices.max_per_gateway", 10)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/iotgw")

	v.SetEnvPrefix("IOTGW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// файл не обязателен, окружения и дефолтов достаточно
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
