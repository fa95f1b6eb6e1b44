package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jenian/envsync/internal/store"
)

func seedStore(t *testing.T) *store.Memory {
	t.Helper()
	m := store.NewMemory()
	m.Seed("central", "my-repo_prod_API_KEY",
		map[string]string{store.LabelFolder: "my-repo", store.LabelEnvironment: "prod"}, []byte("k1"))
	m.Seed("central", "my-repo_prod_DB_URL",
		map[string]string{store.LabelFolder: "my-repo", store.LabelEnvironment: "prod"}, []byte("k2"))
	m.Seed("central", "my-repo_dev_API_KEY",
		map[string]string{store.LabelFolder: "my-repo", store.LabelEnvironment: "dev"}, []byte("k3"))
	m.Seed("central", "other_TOKEN",
		map[string]string{store.LabelFolder: "other"}, []byte("k4"))
	return m
}

func TestBuildGroups(t *testing.T) {
	ix, err := Build(context.Background(), seedStore(t), "central", zap.NewNop())
	require.NoError(t, err)

	assert.Len(t, ix.Group("my-repo", "prod"), 2)
	assert.Len(t, ix.Group("my-repo", "dev"), 1)
	assert.Len(t, ix.Group("other", ""), 1)
	assert.Empty(t, ix.Group("my-repo", "staging"))
	assert.Empty(t, ix.Group("unknown", ""))
}

func TestEnvironments(t *testing.T) {
	ix, err := Build(context.Background(), seedStore(t), "central", zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, []string{"dev", "prod"}, ix.Environments("my-repo"))
	assert.Empty(t, ix.Environments("other"))
}

func TestFolders(t *testing.T) {
	ix, err := Build(context.Background(), seedStore(t), "central", zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{"my-repo", "other"}, ix.Folders())
}

func TestValues(t *testing.T) {
	m := seedStore(t)
	// A secret with no versions must be skipped, not fail the fetch.
	require.NoError(t, m.Create(context.Background(), "central", "my-repo_prod_EMPTY",
		map[string]string{store.LabelFolder: "my-repo", store.LabelEnvironment: "prod"}))

	ix, err := Build(context.Background(), m, "central", zap.NewNop())
	require.NoError(t, err)

	records := ix.Group("my-repo", "prod")
	require.Len(t, records, 3)

	values, err := Values(context.Background(), m, "central", records)
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{
		"my-repo_prod_API_KEY": []byte("k1"),
		"my-repo_prod_DB_URL":  []byte("k2"),
	}, values)
}
