package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	cases := map[string]string{
		"Fight Club":                          "fight-club",
		"Amélie":                              "amelie",
		"Le Fabuleux Destin d'Amélie Poulain": "le-fabuleux-destin-d-amelie-poulain",
		"Spider-Man: No Way Home":             "spider-man-no-way-home",
		"  Science-Fiction  ":                 "science-fiction",
		"Ça -- va ?":                          "ca-va",
		"Crème brûlée":                        "creme-brulee",
		"2001: A Space Odyssey":               "2001-a-space-odyssey",
		"":                                    "",
		"!!!":                                 "",
		"千と千尋の神隠し":                            "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Make(in), in)
	}
}

func TestMakeIsIdempotent(t *testing.T) {
	for _, in := range []string{"Amélie", "Spider-Man: No Way Home", "--a--b--", "Ñandú Ötzi Łódź", "Drame"} {
		once := Make(in)
		assert.Equal(t, once, Make(once), in)
	}
}

func TestMakeIsASCIILowercase(t *testing.T) {
	s := Make("Amélie ÉTÉ Ñ")
	for _, r := range s {
		assert.True(t, (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-', "unexpected rune %q", r)
	}
}

func TestWithSuffix(t *testing.T) {
	assert.Equal(t, "dracula-6114", WithSuffix("Dracula", "6114"))
	assert.Equal(t, "42", WithSuffix("千と千尋", "42"))
	assert.Equal(t, "dracula", WithSuffix("Dracula", ""))
}
