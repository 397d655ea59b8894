// Package persistence stores board documents in SQL databases, Azure Table
// storage and a Redis read-through cache.
package persistence

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/felixgeelhaar/choreboard/internal/board/domain"
)

// legacyVersion is reported for documents written without a version.
const legacyVersion = 1

type storedDocument struct {
	Version int          `json:"version"`
	Data    domain.Board `json:"data"`
}

// EncodeDocument serializes a board as {"version": N, "data": {...}}.
func EncodeDocument(b domain.Board) ([]byte, error) {
	data, err := json.Marshal(storedDocument{Version: domain.CurrentSchemaVersion, Data: b})
	if err != nil {
		return nil, fmt.Errorf("encode board document: %w", err)
	}
	return data, nil
}

// DecodeDocument reads a stored document. Both the versioned envelope and a
// bare board object (version 1) are accepted; the board itself is left
// untyped so the normalizer can repair it.
func DecodeDocument(data []byte) (*domain.Document, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: document is null", domain.ErrInvalidPayload)
	}

	inner, ok := doc["data"].(map[string]any)
	if !ok {
		return &domain.Document{Version: legacyVersion, Board: domain.RawBoardFromMap(doc)}, nil
	}
	return &domain.Document{Version: versionOf(doc["version"]), Board: domain.RawBoardFromMap(inner)}, nil
}

func versionOf(value any) int {
	v, ok := value.(float64)
	if !ok || v < 1 || v > math.MaxInt32 || v != math.Trunc(v) {
		return legacyVersion
	}
	return int(v)
}
