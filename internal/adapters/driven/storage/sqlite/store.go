package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/ragify/ragify/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/ragify/ragify/internal/adapters/driven/storage/vecmath"
	"github.com/ragify/ragify/internal/core/domain"
	"github.com/ragify/ragify/internal/core/ports/driven"
)

// DatabaseFile is the name of the database inside a session directory.
const DatabaseFile = "index.db"

// Ensure Store implements the interface.
var _ driven.SessionHandle = (*Store)(nil)

// Store is the SQLite storage of one session. It provides the vector
// store and the session store through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if absent) the session store in dir.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty store directory", domain.ErrInvalidInput)
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	dbPath := filepath.Join(dir, DatabaseFile)

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// VectorStore returns a VectorStore backed by this store.
func (s *Store) VectorStore() driven.VectorStore {
	return &vectorStore{store: s}
}

// SessionStore returns a SessionStore backed by this store.
func (s *Store) SessionStore() driven.SessionStore {
	return &sessionStore{store: s}
}

// migrate runs all pending migrations and records their versions.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}

		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Vector Store ====================

// vectorStore implements driven.VectorStore.
type vectorStore struct {
	store *Store
}

var _ driven.VectorStore = (*vectorStore)(nil)

// Append inserts records, ignoring segment IDs that are already stored.
func (s *vectorStore) Append(ctx context.Context, records []domain.EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO segments
			(id, source_id, document_id, position, char_offset, content, metadata, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if len(rec.Vector) == 0 {
			return fmt.Errorf("%w: segment %s has no vector", domain.ErrInvalidInput, rec.Segment.ID)
		}

		metadataJSON, err := json.Marshal(rec.Segment.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling segment metadata: %w", err)
		}

		seg := rec.Segment
		if _, err := stmt.ExecContext(ctx, seg.ID, seg.SourceID, seg.DocumentID, seg.Position,
			seg.Offset, seg.Content, string(metadataJSON), float32SliceToBytes(rec.Vector)); err != nil {
			return fmt.Errorf("saving segment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Query ranks every stored record against vector.
func (s *vectorStore) Query(ctx context.Context, vector []float32, k int) ([]domain.RetrievedSegment, error) {
	if k <= 0 {
		return nil, nil
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, source_id, document_id, position, char_offset, content, metadata, embedding
		FROM segments ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("querying segments: %w", err)
	}
	defer rows.Close()

	var segments []domain.Segment
	var vectors [][]float32
	for rows.Next() {
		seg, vec, err := scanSegment(rows)
		if err != nil {
			return nil, err
		}
		segments = append(segments, *seg)
		vectors = append(vectors, vec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating segments: %w", err)
	}

	ranked := vecmath.TopK(vector, vectors, k)
	results := make([]domain.RetrievedSegment, 0, len(ranked))
	for _, r := range ranked {
		results = append(results, domain.RetrievedSegment{
			Segment:    segments[r.Index],
			Similarity: r.Similarity,
		})
	}
	return results, nil
}

// Count returns the number of stored records.
func (s *vectorStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM segments").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting segments: %w", err)
	}
	return n, nil
}

// ==================== Session Store ====================

// sessionStore implements driven.SessionStore.
type sessionStore struct {
	store *Store
}

var _ driven.SessionStore = (*sessionStore)(nil)

// MarkProcessed adds a source to the registry. Marking a source twice
// keeps its first entry.
func (s *sessionStore) MarkProcessed(ctx context.Context, src domain.ProcessedSource) error {
	if src.IngestedAt.IsZero() {
		src.IngestedAt = time.Now()
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO processed_sources (id, kind, segment_count, ingested_at)
		VALUES (?, ?, ?, ?)
	`, src.ID, string(src.Kind), src.SegmentCount, src.IngestedAt)
	if err != nil {
		return fmt.Errorf("marking source processed: %w", err)
	}
	return nil
}

// IsProcessed returns true if the source is in the registry.
func (s *sessionStore) IsProcessed(ctx context.Context, id string) (bool, error) {
	var n int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM processed_sources WHERE id = ?", id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking processed source: %w", err)
	}
	return n > 0, nil
}

// ListProcessed returns the registry in ingestion order.
func (s *sessionStore) ListProcessed(ctx context.Context) ([]domain.ProcessedSource, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, kind, segment_count, ingested_at
		FROM processed_sources ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("querying processed sources: %w", err)
	}
	defer rows.Close()

	var sources []domain.ProcessedSource
	for rows.Next() {
		var src domain.ProcessedSource
		var kind string
		if err := rows.Scan(&src.ID, &kind, &src.SegmentCount, &src.IngestedAt); err != nil {
			return nil, fmt.Errorf("scanning processed source: %w", err)
		}
		src.Kind = domain.SourceKind(kind)
		sources = append(sources, src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating processed sources: %w", err)
	}
	return sources, nil
}

// AppendTurns appends turns in a single transaction.
func (s *sessionStore) AppendTurns(ctx context.Context, turns ...domain.Turn) error {
	if len(turns) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, turn := range turns {
		created := turn.CreatedAt
		if created.IsZero() {
			created = time.Now()
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO turns (role, content, created_at) VALUES (?, ?, ?)",
			string(turn.Role), turn.Content, created); err != nil {
			return fmt.Errorf("saving turn: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ListTurns returns the conversation in order.
func (s *sessionStore) ListTurns(ctx context.Context) ([]domain.Turn, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT role, content, created_at FROM turns ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	var turns []domain.Turn
	for rows.Next() {
		var turn domain.Turn
		var role string
		if err := rows.Scan(&role, &turn.Content, &turn.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		turn.Role = domain.Role(role)
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating turns: %w", err)
	}
	return turns, nil
}

// ClearTurns deletes the conversation.
func (s *sessionStore) ClearTurns(ctx context.Context) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM turns"); err != nil {
		return fmt.Errorf("clearing turns: %w", err)
	}
	return nil
}

// ==================== Opener ====================

// Opener opens session stores on disk.
type Opener struct{}

var _ driven.SessionOpener = Opener{}

// Open opens the store in the session's directory.
func (Opener) Open(_ context.Context, sess domain.Session) (driven.SessionHandle, error) {
	return NewStore(sess.Dir)
}

// ==================== Helper Functions ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// scanSegment scans a segment row and its embedding.
func scanSegment(rows *sql.Rows) (*domain.Segment, []float32, error) {
	var seg domain.Segment
	var metadataJSON sql.NullString
	var embeddingBlob []byte

	if err := rows.Scan(&seg.ID, &seg.SourceID, &seg.DocumentID, &seg.Position,
		&seg.Offset, &seg.Content, &metadataJSON, &embeddingBlob); err != nil {
		return nil, nil, fmt.Errorf("scanning segment: %w", err)
	}

	if metadataJSON.Valid && metadataJSON.String != "" && metadataJSON.String != "null" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &seg.Metadata); err != nil {
			return nil, nil, fmt.Errorf("unmarshaling metadata: %w", err)
		}
	}

	return &seg, bytesToFloat32Slice(embeddingBlob), nil
}
