package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
)

// RegisterResources exposes the entry list and one resource per board.
func RegisterResources(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}
	if deps.Registry == nil {
		return fmt.Errorf("registry is required")
	}

	srv.Resource("choreboard://entries").
		Name("Households").
		Description("Configured household boards").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			return jsonResource(uri, entriesResult{Entries: deps.Registry.Entries()})
		})

	for _, store := range deps.Registry.Stores() {
		srv.Resource("choreboard://boards/" + store.EntryID()).
			Name(store.Title()).
			Description("Chore board of " + store.Title()).
			MimeType("application/json").
			Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
				b, err := store.Load(ctx)
				if err != nil {
					return nil, err
				}
				return jsonResource(uri, b)
			})
	}
	return nil
}

func jsonResource(uri string, v any) (*mcp.ResourceContent, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.ResourceContent{
		URI:      uri,
		MimeType: "application/json",
		Text:     string(data),
	}, nil
}
