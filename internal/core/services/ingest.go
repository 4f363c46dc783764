package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ragify/ragify/internal/core/domain"
	"github.com/ragify/ragify/internal/core/ports/driven"
	"github.com/ragify/ragify/internal/core/ports/driving"
	"github.com/ragify/ragify/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService runs ingestion batches: extract, segment, index, register.
type IngestService struct {
	registry  driven.ExtractorRegistry
	segmenter driven.PostProcessorPipeline
	indexer   *Indexer
	uploads   driven.UploadStore
	limits    domain.IngestSettings
	now       func() time.Time
}

// NewIngestService creates an ingest service.
func NewIngestService(
	registry driven.ExtractorRegistry,
	segmenter driven.PostProcessorPipeline,
	indexer *Indexer,
	uploads driven.UploadStore,
	limits domain.IngestSettings,
) *IngestService {
	return &IngestService{
		registry:  registry,
		segmenter: segmenter,
		indexer:   indexer,
		uploads:   uploads,
		limits:    limits,
		now:       time.Now,
	}
}

// pendingSource is a batch entry with its file content, if any.
type pendingSource struct {
	src  *domain.Source
	data []byte
}

// plan orders the batch (files, videos, web pages), drops blank
// identifiers and collapses duplicates, keeping the first occurrence.
func plan(batch domain.Batch) []pendingSource {
	seen := make(map[string]struct{})
	var out []pendingSource
	add := func(src *domain.Source, data []byte) {
		if _, dup := seen[src.ID]; dup {
			return
		}
		seen[src.ID] = struct{}{}
		out = append(out, pendingSource{src: src, data: data})
	}

	for _, f := range batch.Files {
		if strings.TrimSpace(f.Name) == "" {
			continue
		}
		add(domain.NewFileSource(f.Name), f.Data)
	}
	for _, u := range batch.VideoURLs {
		if u = strings.TrimSpace(u); u != "" {
			add(domain.NewVideoSource(u), nil)
		}
	}
	for _, u := range batch.WebURLs {
		if u = strings.TrimSpace(u); u != "" {
			add(domain.NewWebSource(u), nil)
		}
	}
	return out
}

// Ingest processes the batch sequentially. Sources already in the
// registry are skipped. Per-source failures are collected in the report
// and the batch continues; an indexing or storage failure stops it and
// is returned with the report so far.
func (s *IngestService) Ingest(ctx context.Context, sess *driving.Session, batch domain.Batch) (*domain.IngestReport, error) {
	sess.Lock()
	defer sess.Unlock()

	logger.Section("Ingest")
	report := &domain.IngestReport{}

	processed, err := sess.State.ListProcessed(ctx)
	if err != nil {
		return report, fmt.Errorf("list processed sources: %w", err)
	}
	registered := make(map[domain.SourceKind]int)
	for _, p := range processed {
		registered[p.Kind]++
	}

	for _, p := range plan(batch) {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		done, err := sess.State.IsProcessed(ctx, p.src.ID)
		if err != nil {
			return report, fmt.Errorf("check %s: %w", p.src.ID, err)
		}
		if done {
			logger.Debug("skipping %s: already processed", p.src.ID)
			report.Skipped = append(report.Skipped, p.src.ID)
			continue
		}

		if err := s.admit(p.src, registered[p.src.Kind]); err != nil {
			logger.Warn("rejected %s: %v", p.src.ID, err)
			report.Fail(p.src, err)
			continue
		}

		entry, err := s.ingestOne(ctx, sess, p, report)
		if err != nil {
			var srcErr *sourceFailure
			if errors.As(err, &srcErr) {
				logger.Warn("failed %s: %v", p.src.ID, srcErr.err)
				report.Fail(p.src, srcErr.err)
				continue
			}
			return report, err
		}

		registered[p.src.Kind]++
		if entry.SegmentCount == 0 {
			report.Empty = append(report.Empty, entry.ID)
		} else {
			report.Ingested = append(report.Ingested, entry)
		}
	}

	logger.Info("ingested %d sources, %d records", len(report.Ingested), report.Records)
	return report, nil
}

// HasPending returns true if the batch holds a source not yet ingested.
func (s *IngestService) HasPending(ctx context.Context, sess *driving.Session, batch domain.Batch) (bool, error) {
	for _, p := range plan(batch) {
		done, err := sess.State.IsProcessed(ctx, p.src.ID)
		if err != nil {
			return false, err
		}
		if !done {
			return true, nil
		}
	}
	return false, nil
}

// admit checks a source against the allowed types and the session limits.
// registered is the number of sources of the same kind already in the session.
func (s *IngestService) admit(src *domain.Source, registered int) error {
	switch src.Kind {
	case domain.SourceKindFile:
		if !s.limits.Allows(src.FileType) {
			return fmt.Errorf("%w: %s", domain.ErrUnsupportedType, src.ID)
		}
	case domain.SourceKindVideo:
		if !domain.IsHTTPURL(src.URL) {
			return fmt.Errorf("%w: %s", domain.ErrInvalidURL, src.URL)
		}
		if registered >= s.limits.MaxVideoURLs {
			return fmt.Errorf("%w: at most %d video URLs per session", domain.ErrLimitExceeded, s.limits.MaxVideoURLs)
		}
	case domain.SourceKindWeb:
		if !domain.IsHTTPURL(src.URL) {
			return fmt.Errorf("%w: %s", domain.ErrInvalidURL, src.URL)
		}
		if registered >= s.limits.MaxWebURLs {
			return fmt.Errorf("%w: at most %d web URLs per session", domain.ErrLimitExceeded, s.limits.MaxWebURLs)
		}
	}
	return nil
}

// sourceFailure marks an error confined to one source.
type sourceFailure struct {
	err error
}

func (f *sourceFailure) Error() string { return f.err.Error() }

func (f *sourceFailure) Unwrap() error { return f.err }

// ingestOne runs one source through the pipeline. The registry entry is
// written only after all of its segments are indexed.
func (s *IngestService) ingestOne(
	ctx context.Context, sess *driving.Session, p pendingSource, report *domain.IngestReport,
) (domain.ProcessedSource, error) {
	src := p.src
	log := logger.With("source", src.ID, "kind", src.Kind.String())
	log.Debug("processing")

	if src.Kind == domain.SourceKindFile {
		path, err := s.uploads.Save(ctx, src.ID, p.data)
		if err != nil {
			return domain.ProcessedSource{}, &sourceFailure{err: fmt.Errorf("save upload: %w", err)}
		}
		src.Path = path
	}

	extractor, err := s.registry.ForSource(src)
	if err != nil {
		return domain.ProcessedSource{}, &sourceFailure{err: err}
	}
	docs, err := extractor.Extract(ctx, src, p.data)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.ProcessedSource{}, ctxErr
		}
		return domain.ProcessedSource{}, &sourceFailure{err: err}
	}

	var segments []domain.Segment
	for i := range docs {
		segs, err := s.segmenter.Process(ctx, &docs[i])
		if err != nil {
			return domain.ProcessedSource{}, &sourceFailure{err: fmt.Errorf("segment %s: %w", docs[i].ID, err)}
		}
		segments = append(segments, segs...)
	}

	n, err := s.indexer.Index(ctx, sess.Index, segments)
	report.Records += n
	if err != nil {
		return domain.ProcessedSource{}, fmt.Errorf("index %s: %w", src.ID, err)
	}

	entry := domain.ProcessedSource{
		ID:           src.ID,
		Kind:         src.Kind,
		SegmentCount: len(segments),
		IngestedAt:   s.now(),
	}
	if err := sess.State.MarkProcessed(ctx, entry); err != nil {
		return domain.ProcessedSource{}, fmt.Errorf("register %s: %w", src.ID, err)
	}
	log.Debug("indexed", "documents", len(docs), "segments", len(segments))
	return entry, nil
}
