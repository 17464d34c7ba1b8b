package renderer

// TemplateName represents a known template filename.
type TemplateName string

// Constants for known template filenames.
const (
	TplSecretsHeader TemplateName = "secrets.h.tmpl"
)

// HeaderFileName is the file name firmware sketches include.
const HeaderFileName = "secrets.h"

// HeaderData holds the data required by the TplSecretsHeader template.
// String slots are raw values; the template quotes and escapes them with cstring,
// except Model which is identifier-safe by validation and emitted verbatim.
type HeaderData struct {
	SSID         string
	Password     string
	Manufacturer string
	Model        string
	APIToken     string
	SSL          bool
	ServerDomain string
	ServerPort   string
	ServerPath   string
	MQTTURL      string
	MQTTPort     int
}
