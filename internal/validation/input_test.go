package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email string
		ok    bool
	}{
		{"agent@example.com", true},
		{" Agent.Name+club@Example.COM ", true},
		{"", false},
		{"no-at-sign", false},
		{"a@b@c.com", false},
		{"bad char@example.com", false},
		{"agent@localhost", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidatePhone(t *testing.T) {
	assert.NoError(t, ValidatePhone(""))
	assert.NoError(t, ValidatePhone("+34 (91) 123-45-67"))
	assert.Error(t, ValidatePhone("call me"))
	assert.Error(t, ValidatePhone("+"+strings.Repeat("1", MaxPhoneLength)))
}

func TestValidateListingTitle(t *testing.T) {
	assert.NoError(t, ValidateListingTitle("Центральный защитник ищет клуб"))
	assert.Error(t, ValidateListingTitle("   "))
	assert.Error(t, ValidateListingTitle("ab"))
	assert.Error(t, ValidateListingTitle(strings.Repeat("я", MaxListingTitleLength+1)))
}

func TestValidatePromotionDays(t *testing.T) {
	assert.NoError(t, ValidatePromotionDays(MinPromotionDays))
	assert.NoError(t, ValidatePromotionDays(MaxPromotionDays))
	assert.Error(t, ValidatePromotionDays(0))
	assert.Error(t, ValidatePromotionDays(MaxPromotionDays+1))
}
