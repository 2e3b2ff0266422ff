package slug

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"About Us", "about-us"},
		{"  Lorem   ipsum, dolor! ", "lorem-ipsum-dolor"},
		{"Crème brûlée", "creme-brulee"},
		{"already-a-slug", "already-a-slug"},
		{"snake_case_name", "snake-case-name"},
		{"Ünïcödé 2024", "unicode-2024"},
		{"---", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Make(tt.in))
		})
	}
}

func TestIdentifier(t *testing.T) {
	assert.Equal(t, "blog_posts", Identifier("Blog Posts"))
	assert.Equal(t, "entries", Identifier("Entries"))
	assert.Equal(t, "my_type", Identifier("my-type"))
}

func TestMakeCapsLength(t *testing.T) {
	got := Make(strings.Repeat("word ", 100))
	assert.LessOrEqual(t, len(got), MaxLength)
	assert.False(t, strings.HasSuffix(got, "-"))
}
