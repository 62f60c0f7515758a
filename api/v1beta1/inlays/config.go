// Package inlays provides the InlayConfiguration type persisted by browserhost.
package inlays

import (
	"errors"
	"fmt"
	"sync"

	"github.com/invopop/jsonschema"

	"github.com/macropower/browserhost/api"
	"github.com/macropower/browserhost/api/v1beta1"
	"github.com/macropower/browserhost/pkg/yaml"
)

//go:generate go run ../../../internal/schemagen/main.go -o inlays.v1beta1.json

// Kind is the kind of inlay configuration documents.
const Kind = "InlayConfiguration"

var (
	// ValidKinds contains the valid kind values for inlay configurations.
	ValidKinds = []string{Kind}

	// ErrInvalidConfig is returned by [Config.Validate].
	ErrInvalidConfig = errors.New("invalid inlay configuration")

	schemaJSON = sync.OnceValues(func() ([]byte, error) {
		return yaml.NewSchemaGenerator(&Config{}).Generate()
	})

	validator = sync.OnceValue(func() *yaml.Validator {
		b, err := schemaJSON()
		if err != nil {
			panic(err)
		}

		return yaml.MustNewValidator("/inlays.v1beta1.json", b)
	})

	// Compile-time interface checks.
	_ v1beta1.Object = (*Config)(nil)
)

// Config is the persisted set of inlays, in display order.
//
//nolint:recvcheck // Must satisfy the jsonschema interface.
type Config struct {
	v1beta1.TypeMeta `json:",inline"`

	// Inlays is the ordered list of configured inlays.
	Inlays []*Inlay `json:"inlays" jsonschema:"title=Inlays"`
}

// NewConfig creates an empty [Config].
func NewConfig() *Config {
	c := &Config{
		TypeMeta: v1beta1.TypeMeta{
			APIVersion: v1beta1.APIVersion,
			Kind:       Kind,
		},
	}
	c.EnsureDefaults()

	return c
}

// EnsureDefaults initializes nil fields to their default values.
func (c *Config) EnsureDefaults() {
	if c.APIVersion == "" {
		c.APIVersion = v1beta1.APIVersion
	}
	if c.Kind == "" {
		c.Kind = Kind
	}
	if c.Inlays == nil {
		c.Inlays = []*Inlay{}
	}
}

// Validate checks invariants the schema cannot express.
func (c *Config) Validate() error {
	err := v1beta1.CheckTypeMeta(c, v1beta1.ValidAPIVersions, ValidKinds)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	seen := make(map[string]struct{}, len(c.Inlays))
	for i, inlay := range c.Inlays {
		if inlay == nil {
			return fmt.Errorf("%w: inlays[%d] is null", ErrInvalidConfig, i)
		}
		if inlay.ID == "" {
			return fmt.Errorf("%w: inlays[%d] has an empty id", ErrInvalidConfig, i)
		}
		if _, ok := seen[inlay.ID]; ok {
			return fmt.Errorf("%w: duplicate inlay id %q", ErrInvalidConfig, inlay.ID)
		}

		seen[inlay.ID] = struct{}{}
	}

	return nil
}

// Find returns the inlay with the given ID and its index, or -1.
func (c *Config) Find(id string) (*Inlay, int) {
	for i, inlay := range c.Inlays {
		if inlay.ID == id {
			return inlay, i
		}
	}

	return nil, -1
}

// Clone returns a deep copy of the config.
func (c *Config) Clone() *Config {
	out := &Config{
		TypeMeta: c.TypeMeta,
		Inlays:   make([]*Inlay, 0, len(c.Inlays)),
	}
	for _, inlay := range c.Inlays {
		out.Inlays = append(out.Inlays, inlay.Clone())
	}

	return out
}

func (c Config) JSONSchemaExtend(jss *jsonschema.Schema) {
	v1beta1.ExtendSchemaWithEnums(jss, v1beta1.ValidAPIVersions, ValidKinds)
}

// MarshalYAML serializes the config to YAML.
func (c Config) MarshalYAML() ([]byte, error) {
	type alias Config

	b, err := api.MarshalYAML(alias(c))
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}

	return b, nil
}

// Parse decodes and validates an inlay configuration document.
func Parse(data []byte) (*Config, error) {
	err := validator().ValidateBytes(data)
	if err != nil {
		return nil, fmt.Errorf("validate schema: %w", err)
	}

	c := &Config{}

	err = yaml.Unmarshal(data, c)
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	c.EnsureDefaults()

	err = c.Validate()
	if err != nil {
		return nil, err
	}

	return c, nil
}

// Schema returns the JSON schema for inlay configuration documents.
func Schema() ([]byte, error) {
	return schemaJSON()
}

// GetPath returns the default path of the inlay configuration file.
func GetPath() string {
	return api.GetConfigPath("inlays.yaml")
}
