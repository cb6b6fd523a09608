package ndc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"canonical passes through", "00187-5115-60", "00187-5115-60", false},
		{"4-4-2 pads labeler", "0187-5115-60", "00187-5115-60", false},
		{"5-3-2 pads product", "00187-115-60", "00187-0115-60", false},
		{"5-4-1 pads package", "00187-5115-6", "00187-5115-06", false},
		{"11 digits without dashes", "00187511560", "00187-5115-60", false},
		{"10 digits without dashes pads labeler", "0187511560", "00187-5115-60", false},
		{"whitespace trimmed", "  00187-5115-60 ", "00187-5115-60", false},
		{"empty", "", "", true},
		{"too short", "12345", "", true},
		{"too long", "123456789012", "", true},
		{"letters rejected", "0018A-5115-60", "", true},
		{"bad segment layout", "001-87511-60", "", true},
		{"two segments rejected", "00187-511560", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid("00187-5115-60"))
	assert.False(t, IsValid("not-an-ndc"))
}
