package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/choreboard/internal/board/domain"
)

type fakeTable struct {
	mu       sync.Mutex
	entities map[string][]byte
	err      error
}

func newFakeTable() *fakeTable {
	return &fakeTable{entities: make(map[string][]byte)}
}

func (f *fakeTable) GetEntity(_ context.Context, pk, rk string, _ *aztables.GetEntityOptions) (aztables.GetEntityResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return aztables.GetEntityResponse{}, f.err
	}
	value, ok := f.entities[pk+"/"+rk]
	if !ok {
		return aztables.GetEntityResponse{}, &azcore.ResponseError{StatusCode: http.StatusNotFound, ErrorCode: "ResourceNotFound"}
	}
	return aztables.GetEntityResponse{Value: value}, nil
}

func (f *fakeTable) UpsertEntity(_ context.Context, entity []byte, _ *aztables.UpsertEntityOptions) (aztables.UpsertEntityResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return aztables.UpsertEntityResponse{}, f.err
	}
	var keys struct {
		PartitionKey string
		RowKey       string
	}
	if err := json.Unmarshal(entity, &keys); err != nil {
		return aztables.UpsertEntityResponse{}, err
	}
	f.entities[keys.PartitionKey+"/"+keys.RowKey] = entity
	return aztables.UpsertEntityResponse{}, nil
}

func TestAzureTableBoardRepository_LoadMissing(t *testing.T) {
	repo := newAzureTableBoardRepository(newFakeTable())

	doc, err := repo.Load(context.Background(), "home")

	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestAzureTableBoardRepository_SaveAndLoad(t *testing.T) {
	table := newFakeTable()
	repo := newAzureTableBoardRepository(table)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "home", sampleBoard()))

	doc, err := repo.Load(ctx, "home")
	require.NoError(t, err)
	assert.Equal(t, domain.CurrentSchemaVersion, doc.Version)
	assert.Equal(t, sampleBoard(), domain.Normalize(doc.Board, testNow))

	var props map[string]any
	require.NoError(t, json.Unmarshal(table.entities["board/home"], &props))
	assert.Equal(t, float64(1), props["TaskCount"])
	assert.Equal(t, float64(1), props["Parts"])
}

func TestAzureTableBoardRepository_LargeBoardIsSplit(t *testing.T) {
	table := newFakeTable()
	repo := newAzureTableBoardRepository(table)
	ctx := context.Background()

	b := sampleBoard()
	for i := 0; i < 400; i++ {
		b.Tasks = append(b.Tasks, domain.Task{
			ID:     domain.NewTaskID(),
			Title:  strings.Repeat("Ä", 60),
			Column: domain.ColumnBacklog,
			Order:  i,
		})
	}
	require.NoError(t, repo.Save(ctx, "home", b))

	var props map[string]any
	require.NoError(t, json.Unmarshal(table.entities["board/home"], &props))
	assert.Greater(t, props["Parts"], float64(1))

	doc, err := repo.Load(ctx, "home")
	require.NoError(t, err)
	assert.Len(t, doc.Board.Tasks, 401)
}

func TestAzureTableBoardRepository_TooLarge(t *testing.T) {
	repo := newAzureTableBoardRepository(newFakeTable())
	b := sampleBoard()
	b.Tasks[0].Title = strings.Repeat("x", maxPartBytes*maxParts)

	err := repo.Save(context.Background(), "home", b)

	assert.ErrorIs(t, err, ErrDocumentTooLarge)
}

func TestAzureTableBoardRepository_Errors(t *testing.T) {
	table := newFakeTable()
	boom := errors.New("throttled")
	table.err = boom
	repo := newAzureTableBoardRepository(table)

	_, err := repo.Load(context.Background(), "home")
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, repo.Save(context.Background(), "home", sampleBoard()), boom)
}

func TestSplitDocument(t *testing.T) {
	parts := splitDocument("aäb", 2)

	assert.Equal(t, []string{"a", "ä", "b"}, parts)
	assert.Equal(t, []string{""}, splitDocument("", 4))
}
