package api

import (
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/ragify/ragify/internal/core/domain"
)

// sourcesRequest is the JSON form of an ingestion batch. Files are sent
// as multipart uploads instead.
type sourcesRequest struct {
	VideoURLs []string `json:"video_urls"`
	WebURLs   []string `json:"web_urls"`
}

type processedJSON struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	SegmentCount int       `json:"segment_count"`
	IngestedAt   time.Time `json:"ingested_at"`
}

type failureJSON struct {
	Source string `json:"source"`
	Kind   string `json:"kind"`
	Error  string `json:"error"`
}

type reportJSON struct {
	Ingested []processedJSON `json:"ingested"`
	Skipped  []string        `json:"skipped"`
	Empty    []string        `json:"empty"`
	Failures []failureJSON   `json:"failures"`
	Records  int             `json:"records"`
	Error    string          `json:"error,omitempty"`
}

type segmentJSON struct {
	Source     string         `json:"source"`
	Content    string         `json:"content"`
	Similarity float64        `json:"similarity"`
	Position   int            `json:"position"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type turnJSON struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func toProcessed(p domain.ProcessedSource) processedJSON {
	return processedJSON{
		ID:           p.ID,
		Kind:         p.Kind.String(),
		SegmentCount: p.SegmentCount,
		IngestedAt:   p.IngestedAt,
	}
}

func toReport(r *domain.IngestReport) reportJSON {
	out := reportJSON{
		Ingested: make([]processedJSON, 0, len(r.Ingested)),
		Skipped:  append([]string{}, r.Skipped...),
		Empty:    append([]string{}, r.Empty...),
		Failures: make([]failureJSON, 0, len(r.Failures)),
		Records:  r.Records,
	}
	for _, p := range r.Ingested {
		out.Ingested = append(out.Ingested, toProcessed(p))
	}
	for _, f := range r.Failures {
		out.Failures = append(out.Failures, failureJSON{Source: f.SourceID, Kind: f.Kind.String(), Error: f.Err.Error()})
	}
	return out
}

func toSegments(results []domain.RetrievedSegment) []segmentJSON {
	out := make([]segmentJSON, len(results))
	for i, r := range results {
		out[i] = segmentJSON{
			Source:     r.Segment.SourceID,
			Content:    r.Segment.Content,
			Similarity: r.Similarity,
			Position:   r.Segment.Position,
			Metadata:   r.Segment.Metadata,
		}
	}
	return out
}

// Health reports liveness.
func (s *Server) Health(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"version": s.version,
	})
}

// Status summarises the active session.
func (s *Server) Status(c fiber.Ctx) error {
	sess, err := s.rt.Session(c.Context())
	if err != nil {
		return fail(c, err)
	}
	status, err := s.rt.Sessions.Status(c.Context(), sess)
	if err != nil {
		return fail(c, err)
	}

	processed := make([]processedJSON, len(status.Processed))
	for i, p := range status.Processed {
		processed[i] = toProcessed(p)
	}
	return c.JSON(fiber.Map{
		"session":    status.Session.ID,
		"state":      status.State.String(),
		"records":    status.Records,
		"turns":      status.Turns,
		"processed":  processed,
		"created_at": status.Session.CreatedAt,
	})
}

// Ingest runs an ingestion batch. Multipart requests carry files in
// "files" and URLs in repeated "video_url" and "web_url" fields; JSON
// requests carry URLs only.
func (s *Server) Ingest(c fiber.Ctx) error {
	batch, err := parseBatch(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if batch.IsEmpty() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "no sources given"})
	}

	sess, err := s.rt.Session(c.Context())
	if err != nil {
		return fail(c, err)
	}

	report, err := s.rt.Ingest.Ingest(c.Context(), sess, batch)
	if err != nil {
		if report == nil {
			return fail(c, err)
		}
		body := toReport(report)
		body.Error = err.Error()
		return c.Status(statusFor(err)).JSON(body)
	}
	return c.JSON(toReport(report))
}

func parseBatch(c fiber.Ctx) (domain.Batch, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		var body sourcesRequest
		if err := c.Bind().JSON(&body); err != nil {
			return domain.Batch{}, err
		}
		return domain.Batch{VideoURLs: body.VideoURLs, WebURLs: body.WebURLs}, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return domain.Batch{}, err
	}

	batch := domain.Batch{
		VideoURLs: form.Value["video_url"],
		WebURLs:   form.Value["web_url"],
	}
	for _, fh := range form.File["files"] {
		data, err := readUpload(fh)
		if err != nil {
			return domain.Batch{}, err
		}
		batch.Files = append(batch.Files, domain.FileInput{Name: fh.Filename, Data: data})
	}
	return batch, nil
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// Ask answers a question from the active session.
func (s *Server) Ask(c fiber.Ctx) error {
	var body struct {
		Question string `json:"question"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	sess, err := s.rt.Session(c.Context())
	if err != nil {
		return fail(c, err)
	}
	answer, err := s.rt.Chat.Answer(c.Context(), sess, body.Question)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"question": answer.Question,
		"answer":   answer.Text,
		"sources":  toSegments(answer.Sources),
	})
}

// Retrieve returns the segments most similar to a query.
func (s *Server) Retrieve(c fiber.Ctx) error {
	var body struct {
		Query string `json:"query"`
		K     int    `json:"k"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	sess, err := s.rt.Session(c.Context())
	if err != nil {
		return fail(c, err)
	}
	results, err := s.rt.Chat.Retrieve(c.Context(), sess, body.Query, body.K)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"results": toSegments(results), "count": len(results)})
}

// History returns the conversation of the active session.
func (s *Server) History(c fiber.Ctx) error {
	sess, err := s.rt.Session(c.Context())
	if err != nil {
		return fail(c, err)
	}
	turns, err := s.rt.Chat.History(c.Context(), sess)
	if err != nil {
		return fail(c, err)
	}

	out := make([]turnJSON, len(turns))
	for i, t := range turns {
		out[i] = turnJSON{Role: string(t.Role), Content: t.Content, CreatedAt: t.CreatedAt}
	}
	return c.JSON(fiber.Map{"turns": out})
}

// ClearHistory empties the conversation and keeps the index.
func (s *Server) ClearHistory(c fiber.Ctx) error {
	sess, err := s.rt.Session(c.Context())
	if err != nil {
		return fail(c, err)
	}
	if err := s.rt.Chat.ClearHistory(c.Context(), sess); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Reset starts a fresh session.
func (s *Server) Reset(c fiber.Ctx) error {
	sess, err := s.rt.Reset(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"session": sess.Info.ID})
}
