package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profileInput struct {
	FirstName string    `validate:"required,valid_name"`
	Phone     string    `validate:"valid_phone"`
	Text      string    `validate:"no_emoji"`
	StartDate time.Time `validate:"not_future"`
	Rating    int       `validate:"min=1,max=5"`
}

func validInput() profileInput {
	return profileInput{
		FirstName: "Anna-Lena O'Brien",
		Phone:     "+4915112345678",
		Text:      "Zuverlässig und pünktlich.",
		StartDate: time.Now().AddDate(-1, 0, 0),
		Rating:    4,
	}
}

func TestValidators(t *testing.T) {
	v := New()

	t.Run("valid input passes", func(t *testing.T) {
		assert.NoError(t, v.Struct(validInput()))
	})

	t.Run("empty optional fields pass", func(t *testing.T) {
		in := validInput()
		in.Phone, in.Text, in.StartDate = "", "", time.Time{}
		assert.NoError(t, v.Struct(in))
	})

	cases := []struct {
		name   string
		mutate func(*profileInput)
		want   string
	}{
		{"name with symbols", func(p *profileInput) { p.FirstName = "Anna<script>" }, "First name: only letters"},
		{"short phone", func(p *profileInput) { p.Phone = "12345" }, "Phone number: invalid phone number"},
		{"emoji in text", func(p *profileInput) { p.Text = "great 👍" }, "Review text: must not contain emoji"},
		{"future start date", func(p *profileInput) { p.StartDate = time.Now().AddDate(1, 0, 0) }, "Start date: must not be in the future"},
		{"rating above range", func(p *profileInput) { p.Rating = 6 }, "Rating: must be at most 5"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)

			err := v.Struct(in)
			require.Error(t, err)
			msgs := FormatValidationErrors(err)
			require.Len(t, msgs, 1)
			assert.Contains(t, msgs[0], tc.want)
		})
	}
}

func TestFormatCamelCase(t *testing.T) {
	assert.Equal(t, "Tax Number Extra", formatCamelCase("TaxNumberExtra"))
}
