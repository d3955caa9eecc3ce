// Package sqlite provides a persistent DocumentStore backed by SQLite.
// The database holds the extracted documents and their chunks so that
// queries can run without re-ingesting; the retrieval indexes are
// rebuilt from it at startup.
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

	"github.com/atheneahq/athenea-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/atheneahq/athenea-cli/internal/core/domain"
	"github.com/atheneahq/athenea-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.DocumentStore = (*Store)(nil)

// Store is a SQLite-backed implementation of driven.DocumentStore.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.athenea/data/corpus.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".athenea", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "corpus.db")

	// WAL mode for concurrent readers during ingestion
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{db: db, path: dbPath}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate runs all pending migrations in filename order.
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
		return fmt.Errorf("reading schema version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			return fmt.Errorf("migration %s: unparseable version prefix", name)
		}
		if version <= currentVersion {
			continue
		}

		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("starting migration %s: %w", name, err)
		}
		if _, err := tx.Exec(string(body)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", name, err)
		}
	}

	return nil
}

// SaveDocument stores or updates a document.
func (s *Store) SaveDocument(ctx context.Context, doc *domain.Document) error {
	parties, err := json.Marshal(doc.Parties)
	if err != nil {
		return fmt.Errorf("marshalling parties: %w", err)
	}
	metadata, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (id, source_path, title, contract_type, date, parties, content, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_path = excluded.source_path,
			title = excluded.title,
			contract_type = excluded.contract_type,
			date = excluded.date,
			parties = excluded.parties,
			content = excluded.content,
			metadata = excluded.metadata
	`, doc.ID, doc.SourcePath, doc.Title, doc.ContractType, doc.Date,
		string(parties), doc.Content, string(metadata), doc.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// SaveChunks stores chunks for a document, replacing any previous set.
func (s *Store) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	docID := chunks[0].DocumentID
	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", docID); err != nil {
		return fmt.Errorf("clearing previous chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, sequence, content, char_start, char_end, token_count, overlap_with_prev, forced_split)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing chunk insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		forced := 0
		if c.ForcedSplit {
			forced = 1
		}
		if _, err := stmt.ExecContext(ctx, c.ID, c.DocumentID, c.Sequence, c.Content,
			c.CharStart, c.CharEnd, c.TokenCount, c.OverlapWithPrev, forced); err != nil {
			return fmt.Errorf("inserting chunk %s: %w", c.ID, err)
		}
	}

	return tx.Commit()
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, source_path, title, contract_type, date, parties, content, metadata, created_at
		FROM documents WHERE id = ?
	`, id)
	return scanDocument(row)
}

// GetChunk retrieves a specific chunk by ID.
func (s *Store) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, document_id, sequence, content, char_start, char_end, token_count, overlap_with_prev, forced_split
		FROM chunks WHERE id = ?
	`, id)

	c, err := scanChunk(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading chunk: %w", err)
	}
	return c, nil
}

// GetChunks retrieves all chunks for a document, ordered by sequence.
func (s *Store) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, sequence, content, char_start, char_end, token_count, overlap_with_prev, forced_split
		FROM chunks WHERE document_id = ? ORDER BY sequence
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, fmt.Errorf("reading chunk: %w", err)
		}
		chunks = append(chunks, *c)
	}
	return chunks, rows.Err()
}

// ListDocuments returns all stored documents.
func (s *Store) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_path, title, contract_type, date, parties, content, metadata, created_at
		FROM documents ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// SaveEmbeddings stores chunk embeddings, upserting per chunk.
func (s *Store) SaveEmbeddings(ctx context.Context, recs []domain.EmbeddingRecord) error {
	if len(recs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO embeddings (chunk_id, model_id, dimension, vector)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			model_id = excluded.model_id,
			dimension = excluded.dimension,
			vector = excluded.vector
	`)
	if err != nil {
		return fmt.Errorf("preparing embedding insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		if _, err := stmt.ExecContext(ctx, rec.ChunkID, rec.ModelID, rec.Dimension,
			encodeVector(rec.Vector)); err != nil {
			return fmt.Errorf("inserting embedding %s: %w", rec.ChunkID, err)
		}
	}

	return tx.Commit()
}

// GetEmbeddings retrieves the stored embeddings for a document's chunks.
func (s *Store) GetEmbeddings(ctx context.Context, documentID string) ([]domain.EmbeddingRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.chunk_id, e.model_id, e.dimension, e.vector
		FROM embeddings e
		JOIN chunks c ON c.id = e.chunk_id
		WHERE c.document_id = ?
		ORDER BY c.sequence
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	var recs []domain.EmbeddingRecord
	for rows.Next() {
		var rec domain.EmbeddingRecord
		var blob []byte
		if err := rows.Scan(&rec.ChunkID, &rec.ModelID, &rec.Dimension, &blob); err != nil {
			return nil, fmt.Errorf("reading embedding: %w", err)
		}
		rec.Vector = decodeVector(blob)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// DeleteDocument removes a document and its chunks.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// encodeVector packs a float32 slice as little-endian bytes.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(x))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return v
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(sc scanner) (*domain.Document, error) {
	var doc domain.Document
	var parties, metadata string
	var createdAt time.Time

	err := sc.Scan(&doc.ID, &doc.SourcePath, &doc.Title, &doc.ContractType,
		&doc.Date, &parties, &doc.Content, &metadata, &createdAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}

	if err := json.Unmarshal([]byte(parties), &doc.Parties); err != nil {
		return nil, fmt.Errorf("unmarshalling parties: %w", err)
	}
	if err := json.Unmarshal([]byte(metadata), &doc.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshalling metadata: %w", err)
	}
	doc.CreatedAt = createdAt

	return &doc, nil
}

func scanChunk(sc scanner) (*domain.Chunk, error) {
	var c domain.Chunk
	var forced int
	err := sc.Scan(&c.ID, &c.DocumentID, &c.Sequence, &c.Content,
		&c.CharStart, &c.CharEnd, &c.TokenCount, &c.OverlapWithPrev, &forced)
	if err != nil {
		return nil, err
	}
	c.ForcedSplit = forced != 0
	return &c, nil
}
