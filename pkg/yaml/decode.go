package yaml

import (
	"bytes"
	"errors"
	"io"

	"github.com/goccy/go-yaml"
)

type Decoder struct {
	d *yaml.Decoder
}

// NewDecoder returns a [Decoder] reading from r. Unknown fields are rejected
// when strict is set.
func NewDecoder(r io.Reader, strict bool) *Decoder {
	opts := []yaml.DecodeOption{yaml.AllowDuplicateMapKey()}
	if strict {
		opts = append(opts, yaml.DisallowUnknownField())
	}

	return &Decoder{
		d: yaml.NewDecoder(r, opts...),
	}
}

func (d *Decoder) Decode(v any) error {
	err := d.d.Decode(v)
	if err == nil {
		return nil
	}

	var yamlErr yaml.Error
	if errors.As(err, &yamlErr) {
		return &Error{
			Err:   errors.New(yamlErr.GetMessage()),
			Token: yamlErr.GetToken(),
		}
	}

	//nolint:wrapcheck // Return the original error if it's not a [yaml.Error].
	return err
}

// Unmarshal decodes a single YAML document into v. Errors carry the source
// so they can be annotated.
func Unmarshal(data []byte, v any) error {
	err := NewDecoder(bytes.NewReader(data), false).Decode(v)
	if err != nil {
		var yamlErr *Error
		if errors.As(err, &yamlErr) {
			yamlErr.Source = data
		}

		return err
	}

	return nil
}
