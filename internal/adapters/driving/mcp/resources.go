package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for ragify resources.
	uriScheme = "ragify://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "sources",
		Name:        "sources",
		Description: "Sources ingested into the active session",
		MIMEType:    "application/json",
	}, s.handleSourcesResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "history",
		Name:        "history",
		Description: "Conversation of the active session",
		MIMEType:    "application/json",
	}, s.handleHistoryResource)
}

// handleSourcesResource returns the processed sources of the active session.
func (s *Server) handleSourcesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	sess, err := s.rt.Session(ctx)
	if err != nil {
		return nil, err
	}

	status, err := s.rt.Sessions.Status(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}

	type sourceInfo struct {
		ID         string    `json:"id"`
		Kind       string    `json:"kind"`
		Segments   int       `json:"segments"`
		IngestedAt time.Time `json:"ingested_at"`
	}

	infos := make([]sourceInfo, len(status.Processed))
	for i, p := range status.Processed {
		infos[i] = sourceInfo{
			ID:         p.ID,
			Kind:       p.Kind.String(),
			Segments:   p.SegmentCount,
			IngestedAt: p.IngestedAt,
		}
	}

	return jsonResource(req.Params.URI, infos)
}

// handleHistoryResource returns the conversation turns of the active session.
func (s *Server) handleHistoryResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	sess, err := s.rt.Session(ctx)
	if err != nil {
		return nil, err
	}

	turns, err := s.rt.Chat.History(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}

	type turnInfo struct {
		Role      string    `json:"role"`
		Content   string    `json:"content"`
		CreatedAt time.Time `json:"created_at"`
	}

	infos := make([]turnInfo, len(turns))
	for i, t := range turns {
		infos[i] = turnInfo{Role: string(t.Role), Content: t.Content, CreatedAt: t.CreatedAt}
	}

	return jsonResource(req.Params.URI, infos)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
