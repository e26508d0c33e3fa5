package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xtr/internal/config"
	"xtr/internal/domain"
	"xtr/internal/persist"
)

func TestJSONStorage_SaveLoad(t *testing.T) {
	cfg := config.New()
	cfg.ProjectPath = t.TempDir()
	st := NewJSONStorage(cfg)

	meta := domain.TestResultsMeta{
		RunID:      "run-1",
		TestCounts: domain.TestCounts{Total: 3, Passed: 1, Failed: 1, Skipped: 1},
		Workers:    2,
	}
	failures := []domain.TestFailure{{
		TestName:  "Foo.FailingFact.Fails",
		ClassName: "Foo.FailingFact",
		Outcome:   "failed",
		Message:   "Assert.Equal() Failure",
	}}
	require.NoError(t, st.Save(meta, failures))

	out, err := st.Load()
	require.NoError(t, err)
	assert.Equal(t, "run-1", out.Meta.RunID)
	assert.Equal(t, 1, out.Meta.Failed)
	assert.NotEmpty(t, out.Meta.Timestamp)
	require.Len(t, out.Details, 1)
	assert.False(t, out.Details[0].Resolved)

	out.Details[0].Resolved = true
	require.NoError(t, st.SaveOutput(out))

	again, err := st.Load()
	require.NoError(t, err)
	assert.True(t, again.Details[0].Resolved)
}

func TestJSONStorage_LoadMissing(t *testing.T) {
	cfg := config.New()
	cfg.ProjectPath = t.TempDir()
	_, err := NewJSONStorage(cfg).Load()
	assert.Error(t, err)
}

func sessionStores(t *testing.T) map[string]SessionStore {
	dir := t.TempDir()
	sqlite, err := OpenSQLSessionStore(config.StoreSQLite, filepath.Join(dir, "nested", "xtr.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]SessionStore{
		"json":   NewJSONSessionStore(filepath.Join(dir, "session.json")),
		"sqlite": sqlite,
	}
}

func TestSessionStore(t *testing.T) {
	refs := []persist.Reference{
		{ProjectID: "p1", TypeName: "Foo.Zeta"},
		{ProjectID: "p1", TypeName: "Foo.Alpha"},
		{ProjectID: "p2", TypeName: "Bar.Outer+Inner"},
	}

	for name, store := range sessionStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.LoadSession("default")
			assert.ErrorIs(t, err, ErrNoSession)

			require.NoError(t, store.SaveSession("default", refs))
			require.NoError(t, store.SaveSession("other", refs[:1]))

			got, err := store.LoadSession("default")
			require.NoError(t, err)
			assert.Equal(t, refs, got, "order is kept")

			require.NoError(t, store.SaveSession("default", refs[2:]))
			got, err = store.LoadSession("default")
			require.NoError(t, err)
			assert.Equal(t, refs[2:], got, "saving replaces the session")

			got, err = store.LoadSession("other")
			require.NoError(t, err)
			assert.Equal(t, refs[:1], got)
		})
	}
}

func TestNewSessionStore(t *testing.T) {
	cfg := config.New()
	cfg.ProjectPath = t.TempDir()

	store, err := NewSessionStore(cfg)
	require.NoError(t, err)
	assert.IsType(t, &JSONSessionStore{}, store)

	cfg.Store.Driver = config.StoreSQLite
	store, err = NewSessionStore(cfg)
	require.NoError(t, err)
	defer store.Close()
	assert.IsType(t, &SQLSessionStore{}, store)
	assert.FileExists(t, cfg.GetStoreDSN())
}
