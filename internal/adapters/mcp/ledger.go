package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"vault2notion/internal/application/commands"
	"vault2notion/internal/domain"
	"vault2notion/internal/ports"
)

// RegisterLedgerTools adds tools reporting what earlier migrations recorded
func RegisterLedgerTools(s *server.MCPServer, ledger ports.Ledger) {
	s.AddTool(ledgerStatusTool(), ledgerStatusHandler(ledger))
}

// --- ledger_status ---

func ledgerStatusTool() mcp.Tool {
	return mcp.NewTool("ledger_status",
		mcp.WithDescription("Show the migration ledger: per-document status, Notion page and broken links recorded by earlier runs."),
		mcp.WithString("status",
			mcp.Description("Only show documents with this status"),
			mcp.Enum(
				string(domain.StatusMigrated),
				string(domain.StatusPartial),
				string(domain.StatusFailed),
			),
		),
	)
}

func ledgerStatusHandler(ledger ports.Ledger) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filter := domain.DocumentStatus(req.GetString("status", ""))

		result, err := commands.NewStatusCommand(ledger, filter).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		if len(result.Entries) == 0 {
			return mcp.NewToolResultText("No documents recorded."), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "%d migrated, %d partial, %d failed\n\n",
			result.Counts[domain.StatusMigrated],
			result.Counts[domain.StatusPartial],
			result.Counts[domain.StatusFailed])
		for _, e := range result.Entries {
			page := "-"
			if e.PageID != "" {
				page = commands.PageURL(e.PageID)
			}
			fmt.Fprintf(&sb, "%-8s  %s  %s\n", e.Status, e.RelPath, page)
			for _, l := range result.BrokenLinks[e.Slug] {
				fmt.Fprintf(&sb, "          broken: %s\n", l.LinkText)
			}
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}
