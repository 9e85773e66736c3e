// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes Dagaz note tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/dagaz/internal/models"
	"github.com/starford/dagaz/internal/noteservice"
)

// Server wraps the MCP server with Dagaz tools.
type Server struct {
	mcp    *server.MCPServer
	svc    *noteservice.Service
	userID string
}

// New creates a new MCP server with all Dagaz tools registered. userID is the
// note owner the tools act on behalf of.
func New(svc *noteservice.Service, userID string) *Server {
	s := &Server{svc: svc, userID: userID}

	s.mcp = server.NewMCPServer(
		"Dagaz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List the user's sticky notes, newest first."),
		mcp.WithBoolean("include_completed", mcp.Description("Include completed notes (default false)")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a sticky note. To attach the note to a record, "+
			"set both target_object_type and target_object_name; the dashboard "+
			"resolves the link to the record asynchronously."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Note text")),
		mcp.WithBoolean("public", mcp.Description("Make the note publicly visible (default false)")),
		mcp.WithString("target_object_type", mcp.Description("Object type of the referenced record (e.g. company)")),
		mcp.WithString("target_object_name", mcp.Description("Display name of the referenced record")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("complete_note",
		mcp.WithDescription("Mark a note completed or uncompleted."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithBoolean("completed", mcp.Description("Completion state to set (default true)")),
	), s.completeNote)

	s.mcp.AddTool(mcp.NewTool("delete_note",
		mcp.WithDescription("Delete a note and its reminder subscriptions."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.deleteNote)

	s.mcp.AddTool(mcp.NewTool("lookup_record",
		mcp.WithDescription("Resolve a record id from its object type and display name. "+
			"Name matching ignores case and surrounding whitespace."),
		mcp.WithString("object_type", mcp.Required(), mcp.Description("Record object type")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Record display name")),
	), s.lookupRecord)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	includeCompleted := req.GetBool("include_completed", false)
	notes, err := s.svc.ListNotes(ctx, s.userID, includeCompleted, 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(notes, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := s.svc.CreateNote(ctx, models.Note{
		OwnerID:          s.userID,
		Text:             text,
		Public:           req.GetBool("public", false),
		TargetObjectType: req.GetString("target_object_type", ""),
		TargetObjectName: req.GetString("target_object_name", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", id)), nil
}

func (s *Server) completeNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	completed := req.GetBool("completed", true)
	if err := s.svc.UpdateNoteStatus(ctx, id, completed); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	state := "uncompleted"
	if completed {
		state = "completed"
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s: %s", state, id)), nil
}

func (s *Server) deleteNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.DeleteNote(ctx, id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", id)), nil
}

func (s *Server) lookupRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	objectType, err := req.RequireString("object_type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.BatchRecordIDs(ctx, map[string][]string{objectType: {name}})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	for _, byName := range results {
		for _, id := range byName {
			return mcp.NewToolResultText(id), nil
		}
	}
	return mcp.NewToolResultError(fmt.Sprintf("no record found: %s / %s", objectType, name)), nil
}
