package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatorCollectsAllViolations(t *testing.T) {
	v := New()
	v.NotBlank("  ", "fullName")
	v.NotBlank("0912", "phone")
	v.Check(false, "items", "should not be empty")

	err := v.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)

	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []Violation{
		{Field: "fullName", Message: "should not be empty"},
		{Field: "items", Message: "should not be empty"},
	}, verr.Violations)
	assert.Contains(t, err.Error(), "fullName should not be empty")
}

func TestValidatorNoViolations(t *testing.T) {
	v := New()
	v.NotBlank("x", "title")
	assert.NoError(t, v.Err())
}
