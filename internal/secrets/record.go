package secrets

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"

	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"
)

// Field names accepted in a Record.
const (
	FieldWifiSSID     = "wifi_ssid"
	FieldWifiPassword = "wifi_password"
	FieldManufacturer = "manufacturer"
	FieldAPIToken     = "api_token"
	FieldServerDomain = "server_domain"
	FieldServerPort   = "server_port"
	FieldServerPath   = "server_path"
	FieldMQTTDomain   = "mqtt_domain"
	FieldMQTTPort     = "mqtt_port"

	// FieldModelName is supplied by BuildContext, never by a Record.
	FieldModelName = "model_name"
)

// RequiredFields lists the string fields every Record must carry.
var RequiredFields = []string{
	FieldWifiSSID,
	FieldWifiPassword,
	FieldManufacturer,
	FieldAPIToken,
	FieldServerDomain,
	FieldServerPort,
	FieldServerPath,
	FieldMQTTDomain,
}

// KnownFields is RequiredFields plus the optional mqtt_port.
var KnownFields = append(append([]string{}, RequiredFields...), FieldMQTTPort)

// Record is an untyped secrets record as produced by a source: field name to value.
// Values may be strings or scalars (YAML/TOML integers, floats, booleans).
type Record map[string]any

// Keys returns the record keys in sorted order.
func (r Record) Keys() []string {
	keys := lo.Keys(r)
	sort.Strings(keys)
	return keys
}

// Unknown returns the sorted keys that are not KnownFields.
func (r Record) Unknown() []string {
	return lo.Without(r.Keys(), KnownFields...)
}

// rawValues is a Record after weak decoding: every slot is text, nothing is checked yet.
// The validate tags are evaluated by the package validator, see validate.go.
type rawValues struct {
	WifiSSID     string `mapstructure:"wifi_ssid" validate:"required,notblank,cstring"`
	WifiPassword string `mapstructure:"wifi_password" validate:"required,notblank,cstring"`
	Manufacturer string `mapstructure:"manufacturer" validate:"required,notblank,cstring"`
	ModelName    string `mapstructure:"model_name" validate:"required,notblank,cident"`
	APIToken     string `mapstructure:"api_token" validate:"required,notblank,cstring"`
	ServerDomain string `mapstructure:"server_domain" validate:"required,notblank,cstring"`
	ServerPort   string `mapstructure:"server_port" validate:"required,notblank,cstring"`
	ServerPath   string `mapstructure:"server_path" validate:"required,notblank,cstring"`
	MQTTDomain   string `mapstructure:"mqtt_domain" validate:"required,notblank,cstring"`
	MQTTPort     string `mapstructure:"mqtt_port" validate:"omitempty,cport"`
}

// scalarCheck rejects values that have no single text form (maps, lists, structs).
func scalarCheck(rec Record) []error {
	var errs []error
	for _, field := range KnownFields {
		v, ok := rec[field]
		if !ok || v == nil {
			continue
		}
		switch reflect.ValueOf(v).Kind() {
		case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct, reflect.Func, reflect.Chan:
			errs = append(errs, unsafeInterpolation(field, fmt.Sprintf("%T is not a scalar value", v)))
		}
	}
	return errs
}

// boolToStringHook renders booleans as true/false instead of mapstructure's weak 1/0.
func boolToStringHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() == reflect.Bool && to.Kind() == reflect.String {
		return strconv.FormatBool(reflect.ValueOf(data).Bool()), nil
	}
	return data, nil
}

// decodeRaw weakly decodes the known fields of rec into rawValues.
func decodeRaw(rec Record) (rawValues, []string, error) {
	var out rawValues
	known := lo.PickByKeys(map[string]any(rec), KnownFields)

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.DecodeHookFuncType(boolToStringHook),
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return out, nil, fmt.Errorf("creating record decoder: %w", err)
	}
	if err := dec.Decode(known); err != nil {
		return out, nil, fmt.Errorf("decoding record: %w", err)
	}
	return out, rec.Unknown(), nil
}
