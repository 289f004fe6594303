// The coerce package adapts a dynamically decoded value to a requested
// type when the decoded concrete type is not an exact match. Typical
// inputs are map[string]any records and widened numeric kinds produced
// by decoding into an any-typed target.
package coerce

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

var ErrTypeMismatch = errors.New("coerce: decoded value cannot be converted to requested type")

// As converts a decoded value to T. A value that already is a T is
// returned unchanged; otherwise a single conversion attempt is made and
// failure yields ErrTypeMismatch naming both types.
func As[T any](in any) (T, error) {
	if v, ok := in.(T); ok {
		return v, nil
	}
	var out T
	if err := decode(in, &out); err != nil {
		return out, fmt.Errorf("%w: have %T, want %T", ErrTypeMismatch, in, out)
	}
	return out, nil
}

// To converts a decoded value to a new value of type t.
// A pointer type yields a pointer to the converted value.
func To(t reflect.Type, in any) (any, error) {
	if in != nil && reflect.TypeOf(in).AssignableTo(t) {
		return in, nil
	}
	elem := t
	if elem.Kind() == reflect.Pointer {
		elem = elem.Elem()
	}
	target := reflect.New(elem)
	if err := decode(in, target.Interface()); err != nil {
		return nil, fmt.Errorf("%w: have %T, want %s", ErrTypeMismatch, in, t)
	}
	if t.Kind() == reflect.Pointer {
		return target.Interface(), nil
	}
	return target.Elem().Interface(), nil
}

// decode copies in onto out by matching field names and converting
// between compatible kinds. Field matching honors cbor struct tags so
// coercion agrees with what the structural codec wrote.
func decode(in, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "cbor",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		),
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}
