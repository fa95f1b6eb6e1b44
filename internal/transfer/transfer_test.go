package transfer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jenian/envsync/internal/envfile"
	"github.com/jenian/envsync/internal/store"
)

func newService(m *store.Memory) *Service {
	return &Service{Store: m, Logger: zap.NewNop(), Namespace: "central"}
}

func TestPushCreatesAndUpdates(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	m.Seed("central", "my-repo_prod_A",
		map[string]string{store.LabelFolder: "my-repo", store.LabelEnvironment: "prod"}, []byte("old"))

	stats, err := newService(m).Push(ctx, "my-repo", "prod", []envfile.Entry{
		{Key: "A", Value: "new"},
		{Key: "B", Value: "fresh"},
	}, false)
	require.NoError(t, err)
	assert.Equal(t, PushStats{Created: 1, Updated: 1}, stats)

	val, err := m.LatestValue(ctx, "central", "my-repo_prod_A")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), val)

	val, err = m.LatestValue(ctx, "central", "my-repo_prod_B")
	require.NoError(t, err)
	assert.Equal(t, []byte("fresh"), val)

	records, err := m.List(ctx, "central")
	require.NoError(t, err)
	for _, r := range records {
		assert.Equal(t, "my-repo", r.Folder())
		assert.Equal(t, "prod", r.Environment())
	}
}

func TestPushDryRun(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	stats, err := newService(m).Push(ctx, "my-repo", "", []envfile.Entry{{Key: "A", Value: "1"}}, true)
	require.NoError(t, err)
	assert.Equal(t, PushStats{Created: 1}, stats)

	records, err := m.List(ctx, "central")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestPushFirstMatchWins(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	stats, err := newService(m).Push(ctx, "my-repo", "", []envfile.Entry{
		{Key: "A", Value: "first"},
		{Key: "A", Value: "second"},
	}, false)
	require.NoError(t, err)
	assert.Equal(t, PushStats{Created: 1}, stats)

	val, err := m.LatestValue(ctx, "central", "my-repo_A")
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), val)
}

func TestPullRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	svc := newService(m)

	pushed := []envfile.Entry{
		{Key: "API_KEY", Value: "secret"},
		{Key: "CERT", Value: "line1\nline2", Multiline: true},
	}
	_, err := svc.Push(ctx, "my-repo", "dev", pushed, false)
	require.NoError(t, err)

	entries, err := svc.Pull(ctx, "my-repo", "dev")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, envfile.Entry{Key: "API_KEY", Value: "secret"}, entries[0])
	assert.Equal(t, envfile.Entry{Key: "CERT", Value: "line1\nline2", Multiline: true}, entries[1])

	// Rendering and reparsing the pulled entries preserves them.
	reparsed := envfile.Parse(envfile.Render(entries))
	assert.Len(t, reparsed, 2)
}

func TestPullEmptyGroup(t *testing.T) {
	_, err := newService(store.NewMemory()).Pull(context.Background(), "ghost", "prod")
	assert.Error(t, err)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	m.Seed("central", "my-repo_A", map[string]string{store.LabelFolder: "my-repo"}, []byte("v"))

	svc := newService(m)
	require.NoError(t, svc.Delete(ctx, "my-repo", "", "A"))
	assert.ErrorIs(t, svc.Delete(ctx, "my-repo", "", "A"), store.ErrNotFound)
}
