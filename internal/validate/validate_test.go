package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhone(t *testing.T) {
	cases := []struct {
		name  string
		input string
		ok    bool
	}{
		{"valid", "+380501234567", true},
		{"valid other operator", "+380991111111", true},
		{"too short", "+38050123456", false},
		{"too long", "+3805012345678", false},
		{"wrong prefix", "+381501234567", false},
		{"no plus", "380501234567", false},
		{"letter inside", "+38050123456a", false},
		{"space inside", "+380 50123456", false},
		{"empty", "", false},
		{"only prefix", "+380", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Phone(tc.input)
			assert.Equal(t, tc.ok, res.OK)
			if !tc.ok {
				assert.NotEmpty(t, res.Reason)
			}
		})
	}
}

func TestEmail(t *testing.T) {
	cases := []struct {
		name  string
		input string
		ok    bool
	}{
		{"valid", "a@b.com", true},
		{"subdomain", "user@mail.shop.ua", true},
		{"missing at", "ab.com", false},
		{"missing dot", "a@bcom", false},
		{"empty", "", false},
		// The check is intentionally shallow; these pass today.
		{"dot before at still passes", "a.b@com", true},
		{"bare punctuation passes", "@.", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.ok, Email(tc.input).OK)
		})
	}
}
