package secrets

import (
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// DefaultMQTTPort is emitted as MQTT_PORT when mqtt_port is absent (plain MQTT, SSL false).
const DefaultMQTTPort = 1883

// BuildContext carries values supplied by the build process rather than the secrets source.
type BuildContext struct {
	ModelName string
}

// Values is a validated secrets record: one field per header slot.
type Values struct {
	WifiSSID     string
	WifiPassword string
	Manufacturer string
	Model        string
	APIToken     string
	ServerDomain string
	ServerPort   string
	ServerPath   string
	MQTTDomain   string
	// MQTTPort is 0 when mqtt_port was absent or empty.
	MQTTPort int
}

// SSL reports whether MQTT over TLS is enabled, derived from the presence of mqtt_port.
func (v Values) SSL() bool {
	return v.MQTTPort != 0
}

// EffectiveMQTTPort is the port written to MQTT_PORT.
func (v Values) EffectiveMQTTPort() int {
	if v.MQTTPort == 0 {
		return DefaultMQTTPort
	}
	return v.MQTTPort
}

type options struct {
	requireMQTTPort bool
	logger          *zap.Logger
}

// Option configures Parse.
type Option func(*options)

// RequireMQTTPort makes an absent mqtt_port a missing field error instead of SSL=false.
func RequireMQTTPort() Option {
	return func(o *options) { o.requireMQTTPort = true }
}

// WithLogger sets the logger used for warnings such as unknown record keys.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Parse validates rec and ctx and returns the fixed set of header values.
// Every failing field is reported; the returned error aggregates *FieldError values
// so errors.Is works with ErrMissingField, ErrInvalidPort and ErrUnsafeInterpolation.
func Parse(rec Record, ctx BuildContext, opts ...Option) (Values, error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger.Named("secrets")

	if errs := scalarCheck(rec); len(errs) > 0 {
		return Values{}, multierr.Combine(errs...)
	}

	raw, unknown, err := decodeRaw(rec)
	if err != nil {
		return Values{}, err
	}
	if len(unknown) > 0 {
		logger.Warn("Ignoring unknown secrets fields", zap.Strings("fields", unknown))
	}
	raw.ModelName = ctx.ModelName
	raw.MQTTPort = strings.TrimSpace(raw.MQTTPort)

	var errs []error
	if err := getValidator().Struct(raw); err != nil {
		errs = toFieldErrors(err)
	}
	if o.requireMQTTPort && raw.MQTTPort == "" {
		errs = append(errs, missingField(FieldMQTTPort))
	}
	if len(errs) > 0 {
		return Values{}, multierr.Combine(errs...)
	}

	v := Values{
		WifiSSID:     raw.WifiSSID,
		WifiPassword: raw.WifiPassword,
		Manufacturer: raw.Manufacturer,
		Model:        raw.ModelName,
		APIToken:     raw.APIToken,
		ServerDomain: raw.ServerDomain,
		ServerPort:   raw.ServerPort,
		ServerPath:   raw.ServerPath,
		MQTTDomain:   raw.MQTTDomain,
	}
	if raw.MQTTPort != "" {
		// already checked by the cport validation
		v.MQTTPort, _ = ParsePort(raw.MQTTPort)
	} else {
		logger.Warn("Secrets field absent, SSL disabled and default MQTT port used",
			zap.String("field", FieldMQTTPort),
			zap.Int("mqttPort", DefaultMQTTPort),
		)
	}
	logger.Debug("Secrets validated",
		zap.String("model", v.Model),
		zap.Bool("ssl", v.SSL()),
		zap.Int("mqttPort", v.EffectiveMQTTPort()),
	)
	return v, nil
}
