package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfig = `
[server]
port = 8080

[log]
path = "logs"
rotation_time = "24h"
max_age = "168h"
level = "info"
format = "text"

[genkit]
prompt_dir = "configs/prompts"

[knowledge]
enabled = false

[kafka]
enabled = false

[redis]
enabled = false

[paging]
topic = "oncall.escalations"

[ticket]
endpoint = ""

[catalog]
file = "configs/workflows.toml"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(file, []byte(content), 0o644))
	return file
}

func TestLoadConfig(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		cfg, err := LoadConfig(writeConfig(t, validConfig))
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, "configs/workflows.toml", cfg.Catalog.File)
		assert.Equal(t, "10s", cfg.Ticket.Timeout) // default applied
		assert.Equal(t, "oncall.escalations", cfg.Paging.Topic)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig("does/not/exist.toml")
		require.Error(t, err)
	})

	t.Run("port required", func(t *testing.T) {
		content := `
[server]
port = 0

[log]
path = "logs"
rotation_time = "24h"
max_age = "168h"
level = "info"
format = "text"
`
		_, err := LoadConfig(writeConfig(t, content))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "port")
	})

	t.Run("enabled kafka requires brokers", func(t *testing.T) {
		content := `
[server]
port = 8080

[log]
path = "logs"
rotation_time = "24h"
max_age = "168h"
level = "info"
format = "text"

[kafka]
enabled = true
`
		_, err := LoadConfig(writeConfig(t, content))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "kafka")
	})

	t.Run("catalog path defaults", func(t *testing.T) {
		content := `
[server]
port = 8080

[log]
path = "logs"
rotation_time = "24h"
max_age = "168h"
level = "info"
format = "text"
`
		cfg, err := LoadConfig(writeConfig(t, content))
		require.NoError(t, err)
		assert.Equal(t, "configs/workflows.toml", cfg.Catalog.File)
	})
}
