package knowledge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSearchConfigValidate(t *testing.T) {
	t.Run("disabled needs nothing", func(t *testing.T) {
		cfg := OpenSearchConfig{}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("enabled requires addresses", func(t *testing.T) {
		cfg := OpenSearchConfig{Enabled: true, IndexName: "kb"}
		require.Error(t, cfg.Validate())
	})

	t.Run("enabled requires index", func(t *testing.T) {
		cfg := OpenSearchConfig{Enabled: true, Addresses: []string{"https://localhost:9200"}}
		require.Error(t, cfg.Validate())
	})

	t.Run("valid enabled config", func(t *testing.T) {
		cfg := OpenSearchConfig{
			Enabled:   true,
			Addresses: []string{"https://localhost:9200"},
			IndexName: "kb",
		}
		assert.NoError(t, cfg.Validate())
	})
}

func TestSnippet(t *testing.T) {
	t.Run("short content unchanged", func(t *testing.T) {
		assert.Equal(t, "hello", snippet("  hello  ", 300))
	})

	t.Run("long content truncated with ellipsis", func(t *testing.T) {
		long := strings.Repeat("a", 400)
		got := snippet(long, 300)
		assert.Equal(t, 301, len([]rune(got)))
		assert.True(t, strings.HasSuffix(got, "…"))
	})

	t.Run("truncates at rune boundary", func(t *testing.T) {
		content := strings.Repeat("数", 10)
		got := snippet(content, 5)
		assert.Equal(t, strings.Repeat("数", 5)+"…", got)
	})
}
