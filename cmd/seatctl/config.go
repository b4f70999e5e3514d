package main

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// loadConfig reads SEATCTL_* environment variables and an optional
// seatctl.yaml from the working directory or ~/.config/seatctl.
func loadConfig() *viper.Viper {
	conf := viper.New()
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("server", "http://localhost:8080")
	conf.SetDefault("course", uint64(0))
	conf.SetDefault("token", "")
	conf.SetDefault("secret", "")
	conf.SetDefault("role", "issuer")
	conf.SetDefault("ttl", 60*time.Minute)
	conf.SetDefault("width", 900.0)
	conf.SetDefault("height", 600.0)

	conf.SetEnvPrefix("SEATCTL")
	conf.AutomaticEnv()

	conf.SetConfigName("seatctl")
	conf.SetConfigType("yaml")
	conf.AddConfigPath(".")
	conf.AddConfigPath("$HOME/.config/seatctl")
	if err := conf.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			panic(err)
		}
	}
	return conf
}
