package response

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/gaborage/dataaccess/validation"
)

// Decoder turns a validated body into the caller's value.
type Decoder interface {
	Decode(body []byte) (any, error)
}

// DecoderFunc adapts a function to Decoder
type DecoderFunc func(body []byte) (any, error)

func (f DecoderFunc) Decode(body []byte) (any, error) {
	return f(body)
}

// Raw yields the response body exactly as received, skipping percent-decoding.
// Downloads use it so file contents are never rewritten.
var Raw Decoder = rawDecoder{}

type rawDecoder struct{}

func (rawDecoder) Decode(body []byte) (any, error) {
	return body, nil
}

var passthrough Decoder = DecoderFunc(func(body []byte) (any, error) {
	return body, nil
})

// JSONDecoder decodes into T and enforces its `validate` tags, so fields tagged
// `required` must be present. Unknown fields are ignored.
func JSONDecoder[T any]() Decoder {
	return DecoderFunc(func(body []byte) (any, error) {
		var v T
		if err := json.Unmarshal(body, &v); err != nil {
			return nil, fmt.Errorf("decode %T: %w", v, err)
		}
		if isStruct(reflect.TypeOf(v)) {
			if err := validation.Default().Struct(v); err != nil {
				return nil, fmt.Errorf("decode %T: %w", v, err)
			}
		}
		return v, nil
	})
}

func isStruct(t reflect.Type) bool {
	if t == nil {
		return false
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}
