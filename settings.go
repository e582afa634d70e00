package snsauth

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/thomasdesr/snsauth/internal/errorutil"
	"github.com/thomasdesr/snsauth/snssigner/certcache"
	"gopkg.in/yaml.v3"
)

// ErrInvalidSettings indicates a settings document or value that can't be used.
var ErrInvalidSettings = errors.New("invalid settings")

// Settings controls how an Authenticator treats deliveries.
type Settings struct {
	// AutoSubscribe confirms SubscriptionConfirmation messages.
	AutoSubscribe bool `yaml:"autoSubscribe"`

	// AutoResubscribe confirms UnsubscribeConfirmation messages, which
	// re-subscribes the endpoint after an unsubscribe.
	AutoResubscribe bool `yaml:"autoResubscribe"`

	// UseCache serves signing certificates from the cache when present.
	UseCache bool `yaml:"useCache"`

	// MaxCerts bounds the number of cached signing certificates.
	MaxCerts int `yaml:"maxCerts"`
}

func DefaultSettings() Settings {
	return Settings{
		AutoSubscribe:   true,
		AutoResubscribe: true,
		UseCache:        true,
		MaxCerts:        certcache.DefaultMaxEntries,
	}
}

func (s Settings) Validate() error {
	if s.MaxCerts < 1 {
		return fmt.Errorf("%w: \"maxCerts\" must be greater than or equal to 1", ErrInvalidSettings)
	}
	return nil
}

// UnmarshalYAML decodes a settings mapping on top of the current values.
// Only the four known keys are accepted, each with its exact type; null is not
// a valid value for any of them.
func (s *Settings) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: settings must be a mapping", ErrInvalidSettings)
	}

	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i], value.Content[i+1]

		switch key.Value {
		case "autoSubscribe":
			if err := decodeBool(key.Value, val, &s.AutoSubscribe); err != nil {
				return err
			}
		case "autoResubscribe":
			if err := decodeBool(key.Value, val, &s.AutoResubscribe); err != nil {
				return err
			}
		case "useCache":
			if err := decodeBool(key.Value, val, &s.UseCache); err != nil {
				return err
			}
		case "maxCerts":
			if val.Kind != yaml.ScalarNode || val.ShortTag() != "!!int" {
				return fmt.Errorf("%w: %q must be an integer", ErrInvalidSettings, key.Value)
			}
			if err := val.Decode(&s.MaxCerts); err != nil {
				return errorutil.Join(ErrInvalidSettings, err)
			}
		default:
			return fmt.Errorf("%w: %q is not allowed", ErrInvalidSettings, key.Value)
		}
	}

	return s.Validate()
}

func decodeBool(name string, val *yaml.Node, dst *bool) error {
	if val.Kind != yaml.ScalarNode || val.ShortTag() != "!!bool" {
		return fmt.Errorf("%w: %q must be a boolean", ErrInvalidSettings, name)
	}
	if err := val.Decode(dst); err != nil {
		return errorutil.Join(ErrInvalidSettings, err)
	}
	return nil
}

// DecodeSettings parses a YAML (or JSON) settings document. Keys that are
// absent keep their DefaultSettings value; an empty document yields the
// defaults.
func DecodeSettings(data []byte) (Settings, error) {
	settings := DefaultSettings()

	if len(bytes.TrimSpace(data)) == 0 {
		return settings, nil
	}

	if err := yaml.Unmarshal(data, &settings); err != nil {
		if errors.Is(err, ErrInvalidSettings) {
			return Settings{}, err
		}
		return Settings{}, errorutil.Join(ErrInvalidSettings, err)
	}

	return settings, nil
}

// LoadSettings reads and decodes a settings file.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, errorutil.Wrap(err, "failed to read settings file")
	}

	return DecodeSettings(data)
}
