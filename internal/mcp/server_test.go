package mcp

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/mcp-go/middleware"
	"github.com/felixgeelhaar/mcp-go/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/choreboard/internal/board/application"
	"github.com/felixgeelhaar/choreboard/internal/board/domain"
)

type nopRepo struct{}

func (nopRepo) Load(context.Context, string) (*domain.Document, error) { return nil, nil }
func (nopRepo) Save(context.Context, string, domain.Board) error       { return nil }

func TestNewServer_RegistersBoardTools(t *testing.T) {
	registry := application.NewRegistry(application.NewStore(
		application.StoreConfig{EntryID: "home", Location: time.UTC}, nopRepo{}, nil, nil,
	))

	srv, err := NewServer(registry, "test", nil)
	require.NoError(t, err)

	tc := testutil.NewTestClient(t, srv)
	defer tc.Close()

	tools, err := tc.ListTools()
	require.NoError(t, err)
	assert.NotEmpty(t, tools)
}

func TestNewServer_RequiresRegistry(t *testing.T) {
	_, err := NewServer(nil, "test", nil)
	assert.Error(t, err)
}

func TestServe_RequiresConfig(t *testing.T) {
	err := Serve(context.Background(), nil, application.NewRegistry(), "test", nil)
	assert.Error(t, err)
}

func TestFieldsToArgs(t *testing.T) {
	args := fieldsToArgs([]middleware.Field{{Key: "tool", Value: "board.get"}, {Key: "ms", Value: 3}})

	assert.Equal(t, []any{"tool", "board.get", "ms", 3}, args)
}
