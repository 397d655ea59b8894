package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"github.com/felixgeelhaar/choreboard/internal/board/domain"
)

const (
	boardPartition = "board"
	// A string property holds at most 64 KiB of UTF-16; 32000 UTF-8 bytes
	// never exceed that.
	maxPartBytes = 32000
	// Entities are capped at 1 MiB.
	maxParts = 15
)

// ErrDocumentTooLarge is returned when a board does not fit in one entity.
var ErrDocumentTooLarge = errors.New("board document too large for table entity")

type tableClient interface {
	GetEntity(ctx context.Context, partitionKey, rowKey string, options *aztables.GetEntityOptions) (aztables.GetEntityResponse, error)
	UpsertEntity(ctx context.Context, entity []byte, options *aztables.UpsertEntityOptions) (aztables.UpsertEntityResponse, error)
}

// AzureTableBoardRepository stores one entity per household in an Azure
// Storage table. The document is split across Document0..DocumentN string
// properties to stay under the per-property size limit.
type AzureTableBoardRepository struct {
	table tableClient
}

// NewAzureTableBoardRepository connects to tableName, creating the table if
// it does not exist yet.
func NewAzureTableBoardRepository(ctx context.Context, connStr, tableName string) (*AzureTableBoardRepository, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute,
				RetryDelay:    time.Second,
				MaxRetryDelay: 15 * time.Second,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &opts)
	if err != nil {
		return nil, fmt.Errorf("create table service client: %w", err)
	}
	client := svc.NewClient(tableName)
	if _, err := client.CreateTable(ctx, nil); err != nil {
		var respErr *azcore.ResponseError
		if !(errors.As(err, &respErr) && respErr.ErrorCode == string(aztables.TableAlreadyExists)) {
			return nil, fmt.Errorf("create table %s: %w", tableName, err)
		}
	}
	return newAzureTableBoardRepository(client), nil
}

func newAzureTableBoardRepository(table tableClient) *AzureTableBoardRepository {
	return &AzureTableBoardRepository{table: table}
}

// Load returns the stored document or nil when the entity does not exist.
func (r *AzureTableBoardRepository) Load(ctx context.Context, entryID string) (*domain.Document, error) {
	resp, err := r.table.GetEntity(ctx, boardPartition, entryID, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get board entity: %w", err)
	}

	var props map[string]any
	if err := json.Unmarshal(resp.Value, &props); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	parts, _ := props["Parts"].(float64)
	var document []byte
	for i := 0; i < int(parts); i++ {
		part, ok := props[partKey(i)].(string)
		if !ok {
			return nil, fmt.Errorf("%w: missing %s", domain.ErrInvalidPayload, partKey(i))
		}
		document = append(document, part...)
	}
	return DecodeDocument(document)
}

// Save replaces the household entity.
func (r *AzureTableBoardRepository) Save(ctx context.Context, entryID string, b domain.Board) error {
	data, err := EncodeDocument(b)
	if err != nil {
		return err
	}
	parts := splitDocument(string(data), maxPartBytes)
	if len(parts) > maxParts {
		return fmt.Errorf("%w: %d bytes", ErrDocumentTooLarge, len(data))
	}

	entity := map[string]any{
		"PartitionKey":         boardPartition,
		"RowKey":               entryID,
		"Version":              domain.CurrentSchemaVersion,
		"TaskCount":            len(b.Tasks),
		"UpdatedAt":            b.UpdatedAt.UTC().Format(time.RFC3339Nano),
		"UpdatedAt@odata.type": "Edm.DateTime",
		"Parts":                len(parts),
	}
	for i, part := range parts {
		entity[partKey(i)] = part
	}
	payload, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("encode board entity: %w", err)
	}

	_, err = r.table.UpsertEntity(ctx, payload, &aztables.UpsertEntityOptions{UpdateMode: aztables.UpdateModeReplace})
	if err != nil {
		return fmt.Errorf("upsert board entity: %w", err)
	}
	return nil
}

func partKey(i int) string {
	return "Document" + strconv.Itoa(i)
}

// splitDocument cuts s into pieces of at most size bytes without splitting
// a UTF-8 sequence.
func splitDocument(s string, size int) []string {
	var parts []string
	for len(s) > size {
		cut := size
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		if cut == 0 {
			cut = size
		}
		parts = append(parts, s[:cut])
		s = s[cut:]
	}
	return append(parts, s)
}
