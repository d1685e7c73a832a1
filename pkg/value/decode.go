package value

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Decode copies v into out, which must be a pointer to a struct, map, slice
// or scalar. Struct fields are matched by their `json` tag (or field name,
// case-insensitively) and scalar types are converted weakly, so an R
// length-one vector unboxed to 5 decodes into an int, float64 or string field.
func Decode(v Value, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := dec.Decode(v.Interface()); err != nil {
		return fmt.Errorf("failed to decode %s: %w", v.Describe(), err)
	}
	return nil
}
