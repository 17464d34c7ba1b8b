package config

import (
	"github.com/caarlos0/env/v11"
)

// EnvPrefix prefixes every variable read by GetEnvironmentVariables.
const EnvPrefix = "ESP32_CONFIGURATOR_"

// EnvironmentVariables provide defaults for the CLI flags, so CI jobs can configure
// the tool without arguments.
type EnvironmentVariables struct {
	Model           string `env:"MODEL"`
	Source          string `env:"SOURCE"`
	Destination     string `env:"DESTINATION"`
	FileName        string `env:"FILE_NAME" envDefault:"secrets.h"`
	RequireMQTTPort bool   `env:"REQUIRE_MQTT_PORT" envDefault:"false"`
	// AWSRegion is used by ssm: and s3:// sources; empty falls back to the AWS default chain.
	AWSRegion   string `env:"AWS_REGION"`
	Manifest    string `env:"MANIFEST"`
	Concurrency int    `env:"CONCURRENCY" envDefault:"0"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"console"`
}

// GetEnvironmentVariables parses T from the process environment using EnvPrefix.
func GetEnvironmentVariables[T any]() (T, error) {
	var envObj T
	err := env.ParseWithOptions(&envObj, env.Options{Prefix: EnvPrefix})
	return envObj, err
}
