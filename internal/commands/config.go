package commands

import (
	"fmt"
	"os"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config is read from .workforce.yaml and WORKFORCE_* variables
type Config struct {
	Path     string
	Server   string
	Issuer   string
	ClientID string
}

func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetDefault("path", "~/.workforce")
	v.SetDefault("client_id", "workforce-cli")
	v.SetConfigName(".workforce") // .yaml is implicit
	v.SetEnvPrefix("WORKFORCE")
	v.AutomaticEnv()

	if override := os.Getenv("WORKFORCE_CONFIG_PATH"); override != "" {
		v.AddConfigPath(override)
	}
	v.AddConfigPath("./")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	path, err := homedir.Expand(v.GetString("path"))
	if err != nil {
		return nil, err
	}
	return &Config{
		Path:     path,
		Server:   v.GetString("server"),
		Issuer:   v.GetString("issuer"),
		ClientID: v.GetString("client_id"),
	}, nil
}
