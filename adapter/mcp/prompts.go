package mcp

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
)

// RegisterPrompts registers the chore planning prompt.
func RegisterPrompts(srv *mcp.Server, _ ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}

	srv.Prompt("weekly_chores").
		Description("Review the household board and plan who does what this week.").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			entry := args["entry_id"]
			if entry == "" {
				entry = "the household"
			}
			return &mcp.PromptResult{
				Description: "Weekly chores review",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: fmt.Sprintf(`Help me plan the chores of %s for this week.

1. Load the board with board.get and list open chores per weekday.
2. For every person, call stats.person_week and compare how much each has left.
3. Suggest moves that even out the load, then apply them with board.save.

Finished chores are cleared nightly; call board.cleanup only if I ask for it.`, entry),
						},
					},
				},
			}, nil
		})

	return nil
}
