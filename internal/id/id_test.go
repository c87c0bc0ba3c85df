package id

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var suffixPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{21}$`)

func TestGenerate_Format(t *testing.T) {
	for _, prefix := range []string{"evt", "itm", "var", "quo", "cat", "usr", "ses", "tok", "crt"} {
		t.Run(prefix, func(t *testing.T) {
			id, err := Generate(prefix)
			require.NoError(t, err)

			rest, ok := strings.CutPrefix(id, prefix+"-")
			require.True(t, ok, "ID %q should start with %s-", id, prefix)
			assert.Regexp(t, suffixPattern, rest, "suffix should be 21 URL-safe characters")
		})
	}
}

func TestGenerate_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for range 1000 {
		id, err := Generate("evt")
		require.NoError(t, err)
		require.False(t, seen[id], "duplicate ID %s", id)
		seen[id] = true
	}
}

func TestMustGenerate(t *testing.T) {
	id := MustGenerate("usr")
	assert.True(t, strings.HasPrefix(id, "usr-"))
	assert.Len(t, id, len("usr")+1+21)
}

func BenchmarkGenerate(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = Generate("evt")
	}
}
