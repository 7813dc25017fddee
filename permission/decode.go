package permission

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
)

// ErrInvalidAttributes is returned when an attribute payload fails
// validation or cannot be decoded.
var ErrInvalidAttributes = errors.New("permission: invalid attributes")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the construction-boundary rules for attrs: an action is
// required, a subject (when given) is non-empty and conditions are non-empty
// strings.
func Validate(attrs Attributes) error {
	if err := validate.Struct(attrs); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAttributes, err)
	}
	return nil
}

// ValidateMany validates each element and reports the first failing index.
func ValidateMany(attrs []Attributes) error {
	for i := range attrs {
		if err := Validate(attrs[i]); err != nil {
			return fmt.Errorf("attributes[%d]: %w", i, err)
		}
	}
	return nil
}

// AttributesFromMap decodes a loosely typed payload into Attributes. Keys
// outside Fields are discarded first. IDs are parsed from their string form.
func AttributesFromMap(raw map[string]any) (Attributes, error) {
	picked := make(map[string]any, len(Fields))
	for _, f := range Fields {
		if v, ok := raw[f]; ok {
			picked[f] = v
		}
	}

	var attrs Attributes
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "json",
		Result:     &attrs,
		DecodeHook: mapstructure.TextUnmarshallerHookFunc(),
	})
	if err != nil {
		return Attributes{}, fmt.Errorf("permission: build decoder: %w", err)
	}
	if err := dec.Decode(picked); err != nil {
		return Attributes{}, fmt.Errorf("%w: %w", ErrInvalidAttributes, err)
	}
	return attrs, nil
}

// AttributesFromMaps decodes each payload, preserving order.
func AttributesFromMaps(raw []map[string]any) ([]Attributes, error) {
	out := make([]Attributes, len(raw))
	for i := range raw {
		a, err := AttributesFromMap(raw[i])
		if err != nil {
			return nil, fmt.Errorf("attributes[%d]: %w", i, err)
		}
		out[i] = a
	}
	return out, nil
}
