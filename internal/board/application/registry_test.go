package application

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/choreboard/internal/board/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storeFor(entryID, title string) *Store {
	return NewStore(StoreConfig{EntryID: entryID, Title: title, Location: time.UTC}, newMemoryRepo(), nil, nil)
}

func TestRegistry_Get(t *testing.T) {
	home := storeFor("home", "Home")
	registry := NewRegistry(home)

	got, err := registry.Get("home")
	require.NoError(t, err)
	assert.Same(t, home, got)

	_, err = registry.Get("cabin")
	assert.ErrorIs(t, err, domain.ErrEntryNotFound)
}

func TestRegistry_RegisterRejectsDuplicates(t *testing.T) {
	registry := NewRegistry(storeFor("home", "Home"))

	err := registry.Register(storeFor("home", "Other"))

	assert.Error(t, err)
	assert.Len(t, registry.Stores(), 1)
}

func TestNewRegistry_PanicsOnDuplicateEntry(t *testing.T) {
	assert.PanicsWithError(t, `entry "home" already registered`, func() {
		NewRegistry(storeFor("home", "Home"), storeFor("home", "Other"))
	})
}

func TestRegistry_EntriesSortedByTitle(t *testing.T) {
	registry := NewRegistry(
		storeFor("b", "Lake house"),
		storeFor("a", "Apartment"),
		storeFor("c", ""),
	)

	entries := registry.Entries()

	assert.Equal(t, []Entry{
		{EntryID: "a", Title: "Apartment"},
		{EntryID: "b", Title: "Lake house"},
		{EntryID: "c", Title: "c"},
	}, entries)

	stores := registry.Stores()
	require.Len(t, stores, 3)
	assert.Equal(t, "b", stores[0].EntryID())
}
