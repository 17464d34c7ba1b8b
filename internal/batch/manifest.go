package batch

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/ks89/esp32-configurator/internal/renderer"
	"github.com/ks89/esp32-configurator/internal/secrets/source"
)

// Device is one header to render.
type Device struct {
	Model       string `yaml:"model" validate:"required"`
	Destination string `yaml:"destination" validate:"required"`
	// Source overrides Manifest.Source for this device.
	Source string `yaml:"source,omitempty"`
	// FileName defaults to secrets.h.
	FileName string `yaml:"file_name,omitempty" validate:"omitempty,excludesall=/\\"`
}

// Manifest lists the devices of a build.
type Manifest struct {
	Source          string   `yaml:"source,omitempty"`
	RequireMQTTPort bool     `yaml:"require_mqtt_port,omitempty"`
	Devices         []Device `yaml:"devices" validate:"required,min=1,dive"`
}

// SourceFor returns the source spec used by d.
func (m *Manifest) SourceFor(d Device) string {
	if d.Source != "" {
		return d.Source
	}
	return m.Source
}

// Validate checks required fields, that every device has a source and that no two
// devices write the same file.
func (m *Manifest) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(m); err != nil {
		return errors.Wrap(err, "invalid manifest")
	}
	for i, d := range m.Devices {
		if m.SourceFor(d) == "" {
			return errors.Errorf("invalid manifest: device %d (%s) has no source and no default source is set", i, d.Model)
		}
	}
	targets := lo.Map(m.Devices, func(d Device, _ int) string {
		return filepath.Join(filepath.Clean(d.Destination), lo.Ternary(d.FileName == "", renderer.HeaderFileName, d.FileName))
	})
	if dups := lo.FindDuplicates(targets); len(dups) > 0 {
		return errors.Errorf("invalid manifest: several devices write %s", strings.Join(dups, ", "))
	}
	return nil
}

// LoadManifest reads a YAML manifest. Relative destinations and file sources are
// resolved against the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading manifest %s", path)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, "error unmarshalling manifest %s", path)
	}

	base := filepath.Dir(path)
	m.Source = resolveSpec(base, m.Source)
	for i := range m.Devices {
		d := &m.Devices[i]
		d.Source = resolveSpec(base, d.Source)
		if d.Destination != "" && !filepath.IsAbs(d.Destination) {
			d.Destination = filepath.Join(base, d.Destination)
		}
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func resolveSpec(base, spec string) string {
	if spec == "" ||
		strings.HasPrefix(spec, source.PrefixEnv) ||
		strings.HasPrefix(spec, source.PrefixSSM) ||
		strings.HasPrefix(spec, source.PrefixS3) {
		return spec
	}
	p := strings.TrimPrefix(spec, source.PrefixFile)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
