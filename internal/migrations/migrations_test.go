package migrations

import (
	"io/fs"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsHaveMatchingUpAndDownFiles(t *testing.T) {
	entries, err := fs.ReadDir(files, "sql")
	require.NoError(t, err)

	pattern := regexp.MustCompile(`^(\d+)_.*\.(up|down)\.sql$`)
	byVersion := map[string]map[string]bool{}

	for _, entry := range entries {
		match := pattern.FindStringSubmatch(entry.Name())
		require.NotNil(t, match, "unexpected file %s", entry.Name())
		if byVersion[match[1]] == nil {
			byVersion[match[1]] = map[string]bool{}
		}
		byVersion[match[1]][match[2]] = true
	}

	require.NotEmpty(t, byVersion)
	for version, dirs := range byVersion {
		assert.True(t, dirs["up"] && dirs["down"], "version %s must include both up and down files", version)
	}
}

func TestTodosMigrationGuardsSelfParent(t *testing.T) {
	body, err := fs.ReadFile(files, "sql/000002_create_todos.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(body), "parent_id <> id")
	assert.Contains(t, string(body), "idx_todos_owner_parent")
}
