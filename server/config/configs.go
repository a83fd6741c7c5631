package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/navid-fn/momentum/configs"
)

type Config struct {
	ServerPort string
	DebugMode  bool
	LogLevel   string
	LogFormat  string

	// Sources are the catalog documents served, keyed by source name.
	Sources map[string]configs.SourceConfig
}

func Load() (*Config, error) {
	_ = godotenv.Load() // .env is optional

	v := viper.New()
	v.SetDefault("server.port", "8080")
	v.SetDefault("debugmode", false)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	app, err := configs.AppLoad()
	if err != nil {
		return nil, fmt.Errorf("load source settings: %w", err)
	}

	return &Config{
		ServerPort: v.GetString("server.port"),
		DebugMode:  v.GetBool("debugmode"),
		LogLevel:   app.LogLevel,
		LogFormat:  app.LogFormat,
		Sources:    app.Sources,
	}, nil
}
