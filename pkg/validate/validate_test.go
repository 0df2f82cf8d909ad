package validate_test

import (
	"testing"

	"github.com/Astemirdum/library-catalog/pkg/validate"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

func TestIsDigits(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want bool
	}{
		{"", false},
		{"0", true},
		{"0042", true},
		{"12a", false},
		{"-1", false},
		{"1.5", false},
		{" 1", false},
		{"١٢", false},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, validate.IsDigits(tt.in), tt.in)
	}
}

func TestCustomValidator_Validate(t *testing.T) {
	t.Parallel()
	type req struct {
		Title string `json:"title" label:"Title" validate:"required"`
		Code  string `json:"code,omitempty" validate:"required,digits"`
	}
	v := validate.NewCustomValidator()

	require.NoError(t, v.Validate(req{Title: "A", Code: "17"}))

	err := v.Validate(req{Code: "x1"})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	require.Len(t, verrs, 2)
	require.Equal(t, "Title", verrs[0].Field())
	require.Equal(t, "required", verrs[0].Tag())
	require.Equal(t, "code", verrs[1].Field())
	require.Equal(t, validate.TagDigits, verrs[1].Tag())
}
