package renderer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/ks89/esp32-configurator/internal/secrets"
)

// directiveLine matches the only non-comment line shape a header may contain.
var directiveLine = regexp.MustCompile(`^#define [A-Z][A-Z0-9_]* \S.*$`)

// Header is a rendered secrets.h. It is immutable once returned.
type Header struct {
	text string
}

// String returns the header text.
func (h Header) String() string { return h.text }

// Bytes returns a copy of the header text.
func (h Header) Bytes() []byte { return []byte(h.text) }

// Len returns the header size in bytes.
func (h Header) Len() int { return len(h.text) }

// Checksum returns the hex sha256 of the header text.
func (h Header) Checksum() string {
	sum := sha256.Sum256([]byte(h.text))
	return hex.EncodeToString(sum[:])
}

// NewHeaderData maps validated values onto the header slots.
func NewHeaderData(v secrets.Values) HeaderData {
	return HeaderData{
		SSID:         v.WifiSSID,
		Password:     v.WifiPassword,
		Manufacturer: v.Manufacturer,
		Model:        v.Model,
		APIToken:     v.APIToken,
		SSL:          v.SSL(),
		ServerDomain: v.ServerDomain,
		ServerPort:   v.ServerPort,
		ServerPath:   v.ServerPath,
		MQTTURL:      v.MQTTDomain,
		MQTTPort:     v.EffectiveMQTTPort(),
	}
}

// RenderHeader renders the secrets.h header for already validated values.
func RenderHeader(v secrets.Values) (Header, error) {
	text, err := Render(TplSecretsHeader, NewHeaderData(v))
	if err != nil {
		return Header{}, err
	}
	if err := checkDirectives(text); err != nil {
		return Header{}, err
	}
	return Header{text: text}, nil
}

// RenderRecord validates rec and ctx and renders the header. Either the full header is
// returned or an error, never a partial text.
func RenderRecord(rec secrets.Record, ctx secrets.BuildContext, opts ...secrets.Option) (Header, error) {
	v, err := secrets.Parse(rec, ctx, opts...)
	if err != nil {
		return Header{}, err
	}
	return RenderHeader(v)
}

// checkDirectives verifies the text is a sequence of #define directives, comments and
// blank lines. Values cannot contain newlines, so a line never spans two slots.
func checkDirectives(text string) error {
	if !strings.HasSuffix(text, "\n") {
		return fmt.Errorf("rendered header does not end with a newline")
	}
	for i, line := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
		if line == "" || strings.HasPrefix(line, "//") || directiveLine.MatchString(line) {
			continue
		}
		return fmt.Errorf("rendered header line %d is not a #define directive", i+1)
	}
	return nil
}
