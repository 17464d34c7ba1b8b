package source

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"

	"github.com/ks89/esp32-configurator/internal/secrets"
)

// envRecord mirrors secrets.KnownFields as environment variables.
type envRecord struct {
	WifiSSID     string `env:"WIFI_SSID"`
	WifiPassword string `env:"WIFI_PASSWORD"`
	Manufacturer string `env:"MANUFACTURER"`
	APIToken     string `env:"API_TOKEN"`
	ServerDomain string `env:"SERVER_DOMAIN"`
	ServerPort   string `env:"SERVER_PORT"`
	ServerPath   string `env:"SERVER_PATH"`
	MQTTDomain   string `env:"MQTT_DOMAIN"`
	MQTTPort     string `env:"MQTT_PORT"`
}

// Env reads secrets from environment variables named Prefix + upper-case field name,
// e.g. ESP32_WIFI_SSID for Prefix "ESP32_". Unset and empty variables are left out.
type Env struct {
	Prefix string
	// Environ replaces the process environment when set.
	Environ map[string]string
}

func (e *Env) String() string { return PrefixEnv + e.Prefix }

func (e *Env) Load(_ context.Context) (secrets.Record, error) {
	var raw envRecord
	opts := env.Options{Prefix: e.Prefix}
	if e.Environ != nil {
		opts.Environment = e.Environ
	}
	if err := env.ParseWithOptions(&raw, opts); err != nil {
		return nil, errors.Wrapf(err, "failed to parse environment with prefix %q", e.Prefix)
	}

	rec := secrets.Record{}
	for field, value := range map[string]string{
		secrets.FieldWifiSSID:     raw.WifiSSID,
		secrets.FieldWifiPassword: raw.WifiPassword,
		secrets.FieldManufacturer: raw.Manufacturer,
		secrets.FieldAPIToken:     raw.APIToken,
		secrets.FieldServerDomain: raw.ServerDomain,
		secrets.FieldServerPort:   raw.ServerPort,
		secrets.FieldServerPath:   raw.ServerPath,
		secrets.FieldMQTTDomain:   raw.MQTTDomain,
		secrets.FieldMQTTPort:     raw.MQTTPort,
	} {
		if value != "" {
			rec[field] = value
		}
	}
	return rec, nil
}
