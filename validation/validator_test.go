package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upload struct {
	Name  string `validate:"required,header_safe"`
	Kind  string `validate:"omitempty,oneof=json form-data"`
	Inner *inner
}

type inner struct {
	Value string `validate:"required"`
}

func TestValidatorStruct(t *testing.T) {
	v := New()

	require.NoError(t, v.Struct(upload{Name: "report.pdf", Kind: "json"}))

	err := v.Struct(upload{Name: "a\"b", Kind: "xml", Inner: &inner{}})
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Len(t, ve.Errors, 3)
	assert.True(t, ve.HasField("upload.Name"))
	assert.True(t, ve.HasField("upload.Kind"))
	assert.True(t, ve.HasField("upload.Inner.Value"))
	assert.Contains(t, err.Error(), "3 errors")
}

func TestValidatorSingleError(t *testing.T) {
	err := Default().Struct(upload{})
	require.Error(t, err)
	assert.Equal(t, "validation failed: Name is required", err.Error())
}

func TestValidatorNonStruct(t *testing.T) {
	err := New().Struct("not a struct")
	require.Error(t, err)
	var ve *ValidationError
	assert.False(t, errors.As(err, &ve))
}

func TestHeaderSafe(t *testing.T) {
	v := New()
	for _, name := range []string{"line\nbreak", "carriage\rreturn", `quo"te`} {
		assert.Error(t, v.Struct(upload{Name: name}), name)
	}
	assert.NoError(t, v.Struct(upload{Name: "plain name.txt"}))
}

func TestEmptyValidationError(t *testing.T) {
	assert.Equal(t, "validation failed", (&ValidationError{}).Error())
}
