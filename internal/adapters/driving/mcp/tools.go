package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ragify/ragify/internal/core/domain"
)

// IngestInput is the input schema for the ingest tool.
type IngestInput struct {
	Files     []string `json:"files,omitempty" jsonschema:"paths of local files to ingest (pdf, docx, pptx, txt, xlsx)"`
	VideoURLs []string `json:"video_urls,omitempty" jsonschema:"video URLs whose transcripts are ingested"`
	WebURLs   []string `json:"web_urls,omitempty" jsonschema:"web page URLs to ingest"`
}

// IngestOutput is the output schema for the ingest tool.
type IngestOutput struct {
	Ingested []SourceOutput  `json:"ingested"`
	Skipped  []string        `json:"skipped,omitempty"`
	Empty    []string        `json:"empty,omitempty"`
	Failures []FailureOutput `json:"failures,omitempty"`
	Records  int             `json:"records"`
}

// SourceOutput represents a processed source.
type SourceOutput struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	Segments int    `json:"segments"`
}

// FailureOutput represents a source that could not be ingested.
type FailureOutput struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the ingested sources"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer  string          `json:"answer"`
	Sources []SegmentOutput `json:"sources"`
}

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Query string `json:"query" jsonschema:"the text to find similar segments for"`
	K     int    `json:"k,omitempty" jsonschema:"maximum number of segments to return (default from settings)"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Results []SegmentOutput `json:"results"`
	Count   int             `json:"count"`
}

// SegmentOutput represents a retrieved segment.
type SegmentOutput struct {
	Source     string  `json:"source"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}

// StatusInput is the (empty) input schema for the status tool.
type StatusInput struct{}

// StatusOutput is the output schema for the status tool.
type StatusOutput struct {
	Session string         `json:"session"`
	State   string         `json:"state"`
	Records int            `json:"records"`
	Turns   int            `json:"turns"`
	Sources []SourceOutput `json:"sources"`
}

// ClearHistoryInput is the (empty) input schema for the clear_history tool.
type ClearHistoryInput struct{}

// ClearHistoryOutput is the output schema for the clear_history tool.
type ClearHistoryOutput struct {
	Cleared bool `json:"cleared"`
}

// ResetInput is the (empty) input schema for the reset tool.
type ResetInput struct{}

// ResetOutput is the output schema for the reset tool.
type ResetOutput struct {
	Session string `json:"session"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest",
		Description: "Ingest local files, video transcripts and web pages into the active session",
	}, s.handleIngest)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the ingested sources",
	}, s.handleAsk)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Return the ingested segments most similar to a query",
	}, s.handleRetrieve)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "status",
		Description: "Show the active session: state, sources and conversation length",
	}, s.handleStatus)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "clear_history",
		Description: "Forget the conversation and keep the ingested sources",
	}, s.handleClearHistory)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "reset",
		Description: "Start a fresh session with no sources and no conversation",
	}, s.handleReset)
}

// handleIngest handles the ingest tool invocation. Files that cannot be
// read are reported as failures alongside the batch's own.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	batch := domain.Batch{VideoURLs: input.VideoURLs, WebURLs: input.WebURLs}
	var readFailures []FailureOutput
	for _, path := range input.Files {
		data, err := os.ReadFile(path)
		if err != nil {
			readFailures = append(readFailures, FailureOutput{Source: filepath.Base(path), Error: err.Error()})
			continue
		}
		batch.Files = append(batch.Files, domain.FileInput{Name: path, Data: data})
	}

	sess, err := s.rt.Session(ctx)
	if err != nil {
		return nil, IngestOutput{}, err
	}

	report, err := s.rt.Ingest.Ingest(ctx, sess, batch)
	if err != nil {
		return nil, IngestOutput{}, fmt.Errorf("ingestion stopped: %w", err)
	}

	output := IngestOutput{
		Ingested: make([]SourceOutput, len(report.Ingested)),
		Skipped:  report.Skipped,
		Empty:    report.Empty,
		Failures: readFailures,
		Records:  report.Records,
	}
	for i, p := range report.Ingested {
		output.Ingested[i] = SourceOutput{ID: p.ID, Kind: p.Kind.String(), Segments: p.SegmentCount}
	}
	for _, f := range report.Failures {
		output.Failures = append(output.Failures, FailureOutput{Source: f.SourceID, Error: f.Err.Error()})
	}

	return nil, output, nil
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	sess, err := s.rt.Session(ctx)
	if err != nil {
		return nil, AskOutput{}, err
	}

	answer, err := s.rt.Chat.Answer(ctx, sess, input.Question)
	if err != nil {
		return nil, AskOutput{}, err
	}

	return nil, AskOutput{Answer: answer.Text, Sources: toSegments(answer.Sources)}, nil
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	sess, err := s.rt.Session(ctx)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	results, err := s.rt.Chat.Retrieve(ctx, sess, input.Query, input.K)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	segments := toSegments(results)
	return nil, RetrieveOutput{Results: segments, Count: len(segments)}, nil
}

// handleStatus handles the status tool invocation.
func (s *Server) handleStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	sess, err := s.rt.Session(ctx)
	if err != nil {
		return nil, StatusOutput{}, err
	}

	status, err := s.rt.Sessions.Status(ctx, sess)
	if err != nil {
		return nil, StatusOutput{}, err
	}

	output := StatusOutput{
		Session: status.Session.ID,
		State:   status.State.String(),
		Records: status.Records,
		Turns:   status.Turns,
		Sources: make([]SourceOutput, len(status.Processed)),
	}
	for i, p := range status.Processed {
		output.Sources[i] = SourceOutput{ID: p.ID, Kind: p.Kind.String(), Segments: p.SegmentCount}
	}
	return nil, output, nil
}

// handleClearHistory handles the clear_history tool invocation.
func (s *Server) handleClearHistory(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ClearHistoryInput,
) (*mcp.CallToolResult, ClearHistoryOutput, error) {
	sess, err := s.rt.Session(ctx)
	if err != nil {
		return nil, ClearHistoryOutput{}, err
	}
	if err := s.rt.Chat.ClearHistory(ctx, sess); err != nil {
		return nil, ClearHistoryOutput{}, err
	}
	return nil, ClearHistoryOutput{Cleared: true}, nil
}

// handleReset handles the reset tool invocation.
func (s *Server) handleReset(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ResetInput,
) (*mcp.CallToolResult, ResetOutput, error) {
	sess, err := s.rt.Reset(ctx)
	if err != nil {
		return nil, ResetOutput{}, err
	}
	return nil, ResetOutput{Session: sess.Info.ID}, nil
}

func toSegments(results []domain.RetrievedSegment) []SegmentOutput {
	out := make([]SegmentOutput, len(results))
	for i, r := range results {
		out[i] = SegmentOutput{
			Source:     r.Segment.SourceID,
			Content:    r.Segment.Content,
			Similarity: r.Similarity,
		}
	}
	return out
}
