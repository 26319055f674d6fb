package slug

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"AK-47 | Redline", "ak-47-redline"},
		{"★ Karambit", "karambit"},
		{"StatTrak™ AWP", "stattrak-awp"},
		{"Field-Tested", "field-tested"},
		{"Chroma 3 Case", "chroma-3-case"},
		{"Team Dignitas (Holo) Pin", "team-dignitas-holo-pin"},
		{"Kitty & Dog", "kitty-and-dog"},
		{"  --Hello--World--  ", "hello-world"},
		{"Dreams & Nightmares Case", "dreams-and-nightmares-case"},
		{"Naïve Café", "nave-caf"},
		{"", ""},
		{"★", ""},
		{"---", ""},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, Sanitize(tc.input), "input %q", tc.input)
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{
		"StatTrak™ M4A1-S | Hyper Beast (Minimal Wear)",
		"★ Sport Gloves | Vice (Field-Tested)",
		"Sticker | Natus Vincere (Holo) | Katowice 2014",
		"Souvenir AWP | Dragon Lore (Factory New)",
		"  weird__chars!!@#  ",
		"a | b | c",
		"(((((",
		"-a-",
		"日本語 name",
	}

	for _, in := range inputs {
		once := Sanitize(in)
		assert.Equal(t, once, Sanitize(once), "input %q", in)
		assert.NotContains(t, once, "--")
		assert.False(t, strings.HasPrefix(once, "-"), "leading hyphen in %q", once)
		assert.False(t, strings.HasSuffix(once, "-"), "trailing hyphen in %q", once)
	}
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "ak-47-redline", Join("ak-47", "redline"))
	assert.Equal(t, "redline", Join("", "redline"))
	assert.Equal(t, "", Join("", ""))
}
