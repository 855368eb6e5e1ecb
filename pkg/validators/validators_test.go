package validators

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailValidator(t *testing.T) {
	assert.NoError(t, EmailValidator("alice@example.com"))
	assert.ErrorIs(t, EmailValidator(""), ErrEmailEmpty)
	assert.ErrorIs(t, EmailValidator("not-an-email"), ErrEmailInvalid)
	assert.ErrorIs(t, EmailValidator("Alice <alice@example.com>"), ErrEmailInvalid)
	assert.ErrorIs(t, EmailValidator(strings.Repeat("a", 250)+"@example.com"), ErrEmailTooLong)
}

func TestPasswordValidator(t *testing.T) {
	assert.NoError(t, PasswordValidator("correct horse"))
	assert.ErrorIs(t, PasswordValidator(""), ErrPasswordEmpty)
	assert.ErrorIs(t, PasswordValidator("short"), ErrPasswordTooShort)
	assert.ErrorIs(t, PasswordValidator(strings.Repeat("x", 256)), ErrPasswordTooLong)
}

func TestUsernameValidator(t *testing.T) {
	assert.NoError(t, UsernameValidator("alice_01"))
	assert.ErrorIs(t, UsernameValidator(""), ErrUsernameEmpty)
	assert.ErrorIs(t, UsernameValidator("al ice"), ErrUsernameInvalid)
	assert.ErrorIs(t, UsernameValidator(strings.Repeat("a", 65)), ErrUsernameTooLong)
}

func form(values map[string]string) func(string) string {
	return func(k string) string { return values[k] }
}

func validForm() map[string]string {
	return map[string]string{
		"pregs":   "2",
		"gluc":    "120",
		"bp":      "70",
		"skin":    "20",
		"insulin": "79",
		"bmi":     "25.0",
		"func":    "0.5",
		"age":     "30",
	}
}

func TestParseMeasurements(t *testing.T) {
	r, err := ParseMeasurements(form(validForm()))
	require.NoError(t, err)

	assert.Equal(t, 2, r.Pregnancies)
	assert.Equal(t, 120, r.Glucose)
	assert.Equal(t, 70, r.BloodPressure)
	assert.Equal(t, 20, r.SkinThickness)
	assert.Equal(t, 79.0, r.Insulin)
	assert.Equal(t, 25.0, r.BMI)
	assert.Equal(t, 0.5, r.PedigreeFunction)
	assert.Equal(t, 30, r.Age)
	assert.Equal(t, [8]float64{2, 120, 70, 20, 79, 25, 0.5, 30}, r.Features())
}

func TestParseMeasurementsRejects(t *testing.T) {
	tests := []struct {
		field string
		value string
		want  string
	}{
		{"pregs", "", "Pregnancies is required"},
		{"gluc", "abc", "Glucose must be a valid number"},
		{"bp", "70.5", "Blood Pressure must be a valid number"},
		{"insulin", "NaN", "Insulin must be a valid number"},
		{"func", "   ", "Diabetes Pedigree Function is required"},
		{"age", "thirty", "Age must be a valid number"},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			values := validForm()
			values[tt.field] = tt.value

			r, err := ParseMeasurements(form(values))
			assert.Nil(t, r)

			var merr *MeasurementError
			require.ErrorAs(t, err, &merr)
			assert.Equal(t, tt.field, merr.Field)
			assert.EqualError(t, err, tt.want)
		})
	}
}
