package store_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/boxofficeapp/boxoffice-server/internal/store"
)

type attendee struct {
	ID         string `json:"id"`
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
}

func setupTestStore(t *testing.T) (*store.Store, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "entity-test-*")
	require.NoError(t, err)

	s, err := store.New(filepath.Join(tmpDir, "test.db"), nil)
	require.NoError(t, err)

	return s, func() {
		_ = s.Close()
		_ = os.RemoveAll(tmpDir)
	}
}

func newAttendees(s *store.Store) *store.Entity[attendee] {
	return store.NewEntity[attendee](s, "attendee:").
		WithIndex("identifier", func(a *attendee) []string {
			return []string{a.Identifier}
		})
}

func TestEntity_CreateAndGet(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	attendees := newAttendees(s)
	in := &attendee{ID: "att-1", Identifier: "ada@example.event.boxoffice", Name: "Ada"}
	require.NoError(t, attendees.Create(ctx, "att-1", in))

	got, err := attendees.Get(ctx, "att-1")
	require.NoError(t, err)
	require.Equal(t, in, got)
}

func TestEntity_Create_DuplicateID(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	attendees := newAttendees(s)
	require.NoError(t, attendees.Create(ctx, "att-1", &attendee{ID: "att-1", Identifier: "a@x"}))

	err := attendees.Create(ctx, "att-1", &attendee{ID: "att-1", Identifier: "b@x"})
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestEntity_Get_NotFound(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	got, err := newAttendees(s).Get(context.Background(), "att-missing")
	require.ErrorIs(t, err, store.ErrNotFound)
	require.Nil(t, got)
}

func TestEntity_Update(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	attendees := newAttendees(s)
	a := &attendee{ID: "att-1", Identifier: "ada@x", Name: "Ada"}
	require.NoError(t, attendees.Create(ctx, "att-1", a))

	a.Name = "Ada L."
	require.NoError(t, attendees.Update(ctx, "att-1", a))

	got, err := attendees.Get(ctx, "att-1")
	require.NoError(t, err)
	require.Equal(t, "Ada L.", got.Name)

	err = attendees.Update(ctx, "att-ghost", &attendee{ID: "att-ghost"})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestEntity_Update_MovesIndex(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	attendees := newAttendees(s)
	a := &attendee{ID: "att-1", Identifier: "old@x"}
	require.NoError(t, attendees.Create(ctx, "att-1", a))

	a.Identifier = "new@x"
	require.NoError(t, attendees.Update(ctx, "att-1", a))

	got, err := attendees.GetByIndex(ctx, "identifier", "new@x")
	require.NoError(t, err)
	require.Equal(t, "att-1", got.ID)

	_, err = attendees.GetByIndex(ctx, "identifier", "old@x")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestEntity_Delete_Idempotent(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	attendees := newAttendees(s)
	require.NoError(t, attendees.Create(ctx, "att-1", &attendee{ID: "att-1", Identifier: "a@x"}))

	require.NoError(t, attendees.Delete(ctx, "att-1"))
	_, err := attendees.Get(ctx, "att-1")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, attendees.Delete(ctx, "att-1"))
}

func TestEntity_UniqueIndex_ConflictOnCreate(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	attendees := newAttendees(s)
	require.NoError(t, attendees.Create(ctx, "att-1", &attendee{ID: "att-1", Identifier: "shared@x"}))

	err := attendees.Create(ctx, "att-2", &attendee{ID: "att-2", Identifier: "shared@x"})
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestEntity_UniqueIndex_FreedOnDelete(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	attendees := newAttendees(s)
	require.NoError(t, attendees.Create(ctx, "att-1", &attendee{ID: "att-1", Identifier: "freed@x"}))
	require.NoError(t, attendees.Delete(ctx, "att-1"))

	require.NoError(t, attendees.Create(ctx, "att-2", &attendee{ID: "att-2", Identifier: "freed@x"}))
}

func TestEntity_GetByIndex(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	attendees := newAttendees(s)
	require.NoError(t, attendees.Create(ctx, "att-1", &attendee{ID: "att-1", Identifier: "ada@x"}))

	got, err := attendees.GetByIndex(ctx, "identifier", "ada@x")
	require.NoError(t, err)
	require.Equal(t, "att-1", got.ID)

	_, err = attendees.GetByIndex(ctx, "identifier", "nobody@x")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestEntity_List_SkipsIndexKeys(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	attendees := newAttendees(s)
	for i := range 5 {
		id := fmt.Sprintf("att-%d", i)
		a := &attendee{ID: id, Identifier: fmt.Sprintf("user%d@x", i)}
		require.NoError(t, attendees.Create(ctx, id, a))
	}

	var count int
	for a, err := range attendees.List(ctx) {
		require.NoError(t, err)
		require.NotNil(t, a)
		count++
	}
	require.Equal(t, 5, count)
}
