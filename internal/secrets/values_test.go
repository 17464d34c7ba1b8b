package secrets

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func validRecord() Record {
	return Record{
		"wifi_ssid":     "home-net",
		"wifi_password": "s3cret",
		"manufacturer":  "ks89",
		"api_token":     "473a4861-632b-4915-b01e-cf1d418966c6",
		"server_domain": "api.example.com",
		"server_port":   "443",
		"server_path":   "/api/register",
		"mqtt_domain":   "mqtt.example.com",
		"mqtt_port":     8883,
	}
}

func TestParse_Valid(t *testing.T) {
	v, err := Parse(validRecord(), BuildContext{ModelName: "ESP32-Sensor"})
	require.NoError(t, err)

	assert.Equal(t, "home-net", v.WifiSSID)
	assert.Equal(t, "ESP32-Sensor", v.Model)
	assert.Equal(t, 8883, v.MQTTPort)
	assert.True(t, v.SSL())
	assert.Equal(t, 8883, v.EffectiveMQTTPort())
}

func TestParse_MQTTPortForms(t *testing.T) {
	tests := []struct {
		name    string
		port    any
		present bool
		want    int
		wantSSL bool
	}{
		{name: "int", port: 8883, present: true, want: 8883, wantSSL: true},
		{name: "int64 from toml", port: int64(8883), present: true, want: 8883, wantSSL: true},
		{name: "integral float", port: 8883.0, present: true, want: 8883, wantSSL: true},
		{name: "string", port: "8883", present: true, want: 8883, wantSSL: true},
		{name: "padded string", port: " 1884 ", present: true, want: 1884, wantSSL: true},
		{name: "empty string", port: "", present: true, want: 0, wantSSL: false},
		{name: "blank string", port: "   ", present: true, want: 0, wantSSL: false},
		{name: "nil", port: nil, present: true, want: 0, wantSSL: false},
		{name: "absent", present: false, want: 0, wantSSL: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := validRecord()
			delete(rec, FieldMQTTPort)
			if tt.present {
				rec[FieldMQTTPort] = tt.port
			}
			v, err := Parse(rec, BuildContext{ModelName: "m"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.MQTTPort)
			assert.Equal(t, tt.wantSSL, v.SSL())
			if !tt.wantSSL {
				assert.Equal(t, DefaultMQTTPort, v.EffectiveMQTTPort())
			}
		})
	}
}

func TestParse_InvalidPort(t *testing.T) {
	for _, port := range []any{0, -1, 65536, "abc", "+8883", "0x22B3", 8883.5, "88 83"} {
		rec := validRecord()
		rec[FieldMQTTPort] = port
		_, err := Parse(rec, BuildContext{ModelName: "m"})
		require.Error(t, err, "port %v", port)
		assert.ErrorIs(t, err, ErrInvalidPort, "port %v", port)

		var fe *FieldError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, FieldMQTTPort, fe.Field)
	}
}

func TestParse_MissingFields(t *testing.T) {
	for _, field := range RequiredFields {
		t.Run(field, func(t *testing.T) {
			rec := validRecord()
			delete(rec, field)
			_, err := Parse(rec, BuildContext{ModelName: "m"})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMissingField)

			var fe *FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, field, fe.Field)
		})
	}
}

func TestParse_BlankIsMissing(t *testing.T) {
	rec := validRecord()
	rec[FieldAPIToken] = "  \t"
	_, err := Parse(rec, BuildContext{ModelName: "m"})
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestParse_MissingModelName(t *testing.T) {
	_, err := Parse(validRecord(), BuildContext{})
	require.Error(t, err)
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, FieldModelName, fe.Field)
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestParse_ReportsEveryField(t *testing.T) {
	rec := validRecord()
	delete(rec, FieldAPIToken)
	delete(rec, FieldWifiSSID)
	rec[FieldMQTTPort] = "99999"

	_, err := Parse(rec, BuildContext{ModelName: "bad model"})
	require.Error(t, err)

	errs := multierr.Errors(err)
	require.Len(t, errs, 4)

	var fields []string
	for _, e := range errs {
		var fe *FieldError
		require.True(t, errors.As(e, &fe))
		fields = append(fields, fe.Field)
	}
	// struct order
	assert.Equal(t, []string{FieldWifiSSID, FieldModelName, FieldAPIToken, FieldMQTTPort}, fields)
	assert.ErrorIs(t, err, ErrUnsafeInterpolation)
	assert.ErrorIs(t, err, ErrInvalidPort)
}

func TestParse_UnsafeInterpolation(t *testing.T) {
	t.Run("newline in model name", func(t *testing.T) {
		_, err := Parse(validRecord(), BuildContext{ModelName: "ESP32\nSensor"})
		assert.ErrorIs(t, err, ErrUnsafeInterpolation)
	})
	t.Run("quote in model name", func(t *testing.T) {
		_, err := Parse(validRecord(), BuildContext{ModelName: `ESP32"`})
		assert.ErrorIs(t, err, ErrUnsafeInterpolation)
	})
	t.Run("newline in password", func(t *testing.T) {
		rec := validRecord()
		rec[FieldWifiPassword] = "line1\nline2"
		_, err := Parse(rec, BuildContext{ModelName: "m"})
		assert.ErrorIs(t, err, ErrUnsafeInterpolation)
	})
	t.Run("nested value", func(t *testing.T) {
		rec := validRecord()
		rec[FieldServerPath] = map[string]any{"a": "b"}
		_, err := Parse(rec, BuildContext{ModelName: "m"})
		assert.ErrorIs(t, err, ErrUnsafeInterpolation)
	})
	t.Run("quotes and backslashes are fine", func(t *testing.T) {
		rec := validRecord()
		rec[FieldWifiPassword] = `pa"ss\word`
		v, err := Parse(rec, BuildContext{ModelName: "m"})
		require.NoError(t, err)
		assert.Equal(t, `pa"ss\word`, v.WifiPassword)
	})
}

func TestParse_RequireMQTTPort(t *testing.T) {
	rec := validRecord()
	delete(rec, FieldMQTTPort)

	_, err := Parse(rec, BuildContext{ModelName: "m"}, RequireMQTTPort())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingField)
	assert.Contains(t, err.Error(), FieldMQTTPort)

	_, err = Parse(validRecord(), BuildContext{ModelName: "m"}, RequireMQTTPort())
	assert.NoError(t, err)
}

func TestParse_DefaultMQTTPortIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)

	rec := validRecord()
	delete(rec, FieldMQTTPort)
	v, err := Parse(rec, BuildContext{ModelName: "m"}, WithLogger(zap.New(core)))
	require.NoError(t, err)
	assert.Equal(t, DefaultMQTTPort, v.EffectiveMQTTPort())

	entries := logs.FilterField(zap.String("field", FieldMQTTPort)).All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.EqualValues(t, DefaultMQTTPort, entries[0].ContextMap()["mqttPort"])

	logs.TakeAll()
	_, err = Parse(validRecord(), BuildContext{ModelName: "m"}, WithLogger(zap.New(core)))
	require.NoError(t, err)
	assert.Zero(t, logs.Len())
}

func TestParse_ScalarConversions(t *testing.T) {
	rec := validRecord()
	rec[FieldServerPort] = 443
	rec[FieldManufacturer] = true

	v, err := Parse(rec, BuildContext{ModelName: "m"})
	require.NoError(t, err)
	assert.Equal(t, "443", v.ServerPort)
	assert.Equal(t, "true", v.Manufacturer)
}

func TestRecord_Unknown(t *testing.T) {
	rec := validRecord()
	rec["ssl"] = true
	rec["model_name"] = "x"
	assert.Equal(t, []string{"model_name", "ssl"}, rec.Unknown())

	_, err := Parse(rec, BuildContext{ModelName: "m"})
	assert.NoError(t, err)
}

func TestParsePort(t *testing.T) {
	p, err := ParsePort("1")
	require.NoError(t, err)
	assert.Equal(t, 1, p)

	p, err = ParsePort("65535")
	require.NoError(t, err)
	assert.Equal(t, 65535, p)

	_, err = ParsePort("")
	assert.Error(t, err)
}
