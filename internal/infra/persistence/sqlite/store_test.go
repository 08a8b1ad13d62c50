package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"opscore/internal/infra/persistence/sqlite"
	"opscore/pkg/domain"
)

func openStore(t *testing.T, path string) *sqlite.Store {
	t.Helper()
	store, err := sqlite.NewStore(path, nil, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return store
}

func createTodo(t *testing.T, store *sqlite.Store, text string) string {
	t.Helper()
	var id string
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Tx) error {
		todo, cerr := tx.CreateTodo(domain.Todo{Text: text})
		id = todo.ID
		return cerr
	})
	if err != nil {
		t.Fatalf("create todo: %v", err)
	}
	return id
}

func TestStateSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	store := openStore(t, path)
	id := createTodo(t, store, "water plants")
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened := openStore(t, path)
	defer func() { _ = reopened.Close() }()
	todo, ok := reopened.GetTodo(id)
	if !ok {
		t.Fatalf("todo missing after reopen")
	}
	if todo.Text != "water plants" {
		t.Fatalf("unexpected todo %+v", todo)
	}
	if reopened.Degraded() {
		t.Fatalf("fresh store must not start degraded")
	}
}

func TestSnapshotReplacesPriorState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	store := openStore(t, path)
	id := createTodo(t, store, "ship parcels")
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Tx) error {
		return tx.DeleteTodo(id)
	}); err != nil {
		t.Fatalf("delete todo: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened := openStore(t, path)
	defer func() { _ = reopened.Close() }()
	if todos := reopened.ListTodos(); len(todos) != 0 {
		t.Fatalf("expected empty store after reopen, got %d todos", len(todos))
	}
}

func TestSnapshotFailureDegradesToMemory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store := openStore(t, path)

	// Pull the database out from under the store so the next snapshot fails.
	if err := store.DB().Close(); err != nil {
		t.Fatalf("close db: %v", err)
	}

	id := createTodo(t, store, "still works")
	if !store.Degraded() {
		t.Fatalf("expected degraded store after failed snapshot")
	}
	todo, ok := store.GetTodo(id)
	if !ok {
		t.Fatalf("todo missing after degrade")
	}
	if todo.Text != "still works" {
		t.Fatalf("in-memory mutation lost: %+v", todo)
	}

	// Further mutations keep succeeding in memory.
	createTodo(t, store, "another")
	if got := len(store.ListTodos()); got != 2 {
		t.Fatalf("expected two todos in memory, got %d", got)
	}
}

func TestUnreadableSnapshotStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	store := openStore(t, path)
	createTodo(t, store, "poisoned soon")
	if _, err := store.DB().Exec(`UPDATE state SET payload = ? WHERE bucket = 'todos'`, []byte("not json")); err != nil {
		t.Fatalf("corrupt snapshot: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := sqlite.NewStore(path, nil, nil)
	if err != nil {
		t.Fatalf("reopen over corrupt snapshot: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	if todos := reopened.ListTodos(); len(todos) != 0 {
		t.Fatalf("expected empty store over corrupt snapshot, got %d todos", len(todos))
	}
}

func TestPathAndDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "state.db")
	store := openStore(t, path)
	defer func() { _ = store.Close() }()
	if store.Path() != path {
		t.Fatalf("unexpected path %q", store.Path())
	}
}
