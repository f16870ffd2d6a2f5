package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"vault2notion/internal/application/commands"
	"vault2notion/internal/application/markdown"
	"vault2notion/internal/domain"
	"vault2notion/internal/ports"
)

// Deps are the services the tools run against. Ledger may be nil.
type Deps struct {
	Source   ports.VaultSource
	Resolver markdown.LinkResolver
	Parser   *markdown.Parser
	Ledger   ports.Ledger
}

// RegisterReadTools adds the vault inspection and dry-run conversion tools
// to the MCP server. None of them touch Notion.
func RegisterReadTools(s *server.MCPServer, deps Deps) {
	s.AddTool(listDocumentsTool(), listDocumentsHandler(deps.Source))
	s.AddTool(convertTool(), convertHandler(deps))
	s.AddTool(resolveLinkTool(), resolveLinkHandler(deps.Resolver))
}

// --- list_documents ---

func listDocumentsTool() mcp.Tool {
	return mcp.NewTool("list_documents",
		mcp.WithDescription("List the markdown documents of the vault with their slugs and titles."),
		mcp.WithString("folder",
			mcp.Description("Only list documents under this vault-relative folder (e.g. Projects/2024)."),
		),
	)
}

func listDocumentsHandler(source ports.VaultSource) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		folder := strings.Trim(req.GetString("folder", ""), "/")

		docs, err := source.Documents()
		if err != nil {
			return toolError(err)
		}

		var matched []domain.VaultDocument
		for _, d := range docs {
			if folder == "" || d.Folder == folder || strings.HasPrefix(d.Folder, folder+"/") {
				matched = append(matched, d)
			}
		}
		return formatEntities(matched, formatDocument)
	}
}

// --- convert_document ---

type conversion struct {
	Path    string                  `json:"path"`
	Title   string                  `json:"title"`
	Slug    string                  `json:"slug"`
	Report  domain.ConversionReport `json:"report"`
	Objects []ports.BlockObject     `json:"blocks"`
}

func convertTool() mcp.Tool {
	return mcp.NewTool("convert_document",
		mcp.WithDescription("Convert a vault document to Notion block objects without creating any page. Assets go to a dry-run host."),
		mcp.WithString("path",
			mcp.Description("Document path, absolute or relative to the vault root (e.g. Notes/Ideas.md)"),
			mcp.Required(),
		),
	)
}

func convertHandler(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path := req.GetString("path", "")
		if path == "" {
			return toolError(fmt.Errorf("path is required"))
		}

		cmd := commands.NewConvertCommand(deps.Source, deps.Parser, deps.Ledger, path)
		result, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}

		out, err := json.MarshalIndent(conversion{
			Path:    result.Document.RelPath,
			Title:   result.Document.Title,
			Slug:    result.Document.Slug,
			Report:  result.Report,
			Objects: result.Objects,
		}, "", "  ")
		if err != nil {
			return toolError(fmt.Errorf("encoding blocks: %w", err))
		}
		return mcp.NewToolResultText(string(out)), nil
	}
}

// --- resolve_link ---

func resolveLinkTool() mcp.Tool {
	return mcp.NewTool("resolve_link",
		mcp.WithDescription("Resolve a link or embed target as the migration would: external URL, uploaded asset, vault document or broken."),
		mcp.WithString("target",
			mcp.Description("Target as written in the note (e.g. [[Other note]], ../img/a b.png, https://example.com)"),
			mcp.Required(),
		),
		mcp.WithString("document",
			mcp.Description("Vault-relative path of the document containing the link. Relative targets resolve from its folder."),
		),
	)
}

func resolveLinkHandler(resolver markdown.LinkResolver) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		target := req.GetString("target", "")
		if target == "" {
			return toolError(fmt.Errorf("target is required"))
		}
		doc := req.GetString("document", "")

		link, err := resolver.Resolve(ctx, target, doc, nil)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(fmt.Sprintf("%s  %s", link.Kind, link.Target)), nil
	}
}

// --- helpers ---

func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}

func formatEntities[T any](entities []T, format func(T) string) (*mcp.CallToolResult, error) {
	if len(entities) == 0 {
		return mcp.NewToolResultText("No results."), nil
	}
	var sb strings.Builder
	for _, e := range entities {
		sb.WriteString(format(e))
		sb.WriteByte('\n')
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func formatDocument(d domain.VaultDocument) string {
	return fmt.Sprintf("%s  %s  %s", d.RelPath, d.Slug, d.Title)
}
