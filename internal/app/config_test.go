package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/lussekatt/internal/retry"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("GRADER_DSN", "postgres://grader:secret@db/course")

	path := writeConfig(t, `
[course]
root = "./course"
drop_dir = "./downloaded"
outbox_dir = "./outbox"
poll_schedule = "*/5 * * * *"

[backend]
command = "nbgrader"
gradebook_dsn = "sqlite3://gradebook.db"

[database]
dsn = "${GRADER_DSN}"
migrations_dir = "./migrations"

[marker]
enabled = false

[retry]
delays_minutes = [1, 5, 10]
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "./course", config.Course.Root)
	assert.Equal(t, "*/5 * * * *", config.Course.PollSchedule)
	assert.Equal(t, "postgres://grader:secret@db/course", config.Database.DSN)
	assert.Equal(t, []time.Duration{
		1 * time.Minute,
		5 * time.Minute,
		10 * time.Minute,
	}, config.RetryDelays())
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `
[course]
root = "./course"

[database]
dsn = "sqlite3://grader.db"
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "@every 1m", config.Course.PollSchedule)

	// Without a [retry] section fetches still retry on the historical
	// schedule, they are not single-shot
	assert.Equal(t, retry.DefaultDelays, config.RetryDelays())
	assert.NotEmpty(t, config.RetryDelays())
}

func TestLoadConfig_Validation(t *testing.T) {
	t.Run("missing course root", func(t *testing.T) {
		path := writeConfig(t, `
[database]
dsn = "sqlite3://grader.db"
`)
		_, err := LoadConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "course root")
	})

	t.Run("missing dsn", func(t *testing.T) {
		path := writeConfig(t, `
[course]
root = "./course"
`)
		_, err := LoadConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DSN")
	})

	t.Run("unreadable file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
		require.Error(t, err)
	})
}
