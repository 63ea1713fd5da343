package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/deckwatch/deckwatch/internal/model"

	"github.com/spf13/viper"
)

// cliConfig holds only dashboard-relevant configuration.
type cliConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Skin     string `mapstructure:"skin"`
	LogFile  string `mapstructure:"log-file"`
}

func loadCLIConfig(configPath string) (cliConfig, error) {
	var cfg cliConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("DECKWATCH")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("endpoint", model.DefaultEndpoint)
	v.SetDefault("skin", model.DefaultSkin)
	v.SetDefault("log-file", "")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(home, ".config", "deckwatch", "config.yml"))
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// skinPath resolves a skin name to its file under the config directory.
// The built-in default has no file.
func skinPath(name string) string {
	if name == "" || name == model.DefaultSkin {
		return ""
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "deckwatch", "skins", name+".yml")
}
