package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/hupe1980/parlance/core"
)

// DefaultListLimit bounds ListRecords when the caller passes limit <= 0.
const DefaultListLimit = 50

// timeFormat sorts lexicographically in UTC.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements core.MemoryStore and core.RecordStore using SQLite.
type SQLiteStore struct {
	db *sql.DB

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
		now:     time.Now,
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) newID(t time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memories (
		id          TEXT PRIMARY KEY,
		persona     TEXT NOT NULL,
		text        TEXT NOT NULL,
		created_at  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_memories_persona ON memories(persona, created_at, id);

	CREATE TABLE IF NOT EXISTS sessions (
		id            TEXT PRIMARY KEY,
		persona       TEXT NOT NULL,
		language      TEXT NOT NULL,
		preferences   TEXT NOT NULL,
		transcript    TEXT NOT NULL,
		report        TEXT NOT NULL,
		new_memories  TEXT NOT NULL,
		created_at    TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_created ON sessions(created_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Memories returns the persona's facts, oldest first.
func (s *SQLiteStore) Memories(ctx context.Context, personaID string) ([]core.MemoryFact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, persona, text, created_at FROM memories WHERE persona = ? ORDER BY created_at, id`, personaID)
	if err != nil {
		return nil, fmt.Errorf("query memories: %w", err)
	}
	defer rows.Close()

	facts := make([]core.MemoryFact, 0)
	for rows.Next() {
		f, err := scanFact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

// AppendMemories inserts every non-empty text in one transaction.
func (s *SQLiteStore) AppendMemories(ctx context.Context, personaID string, texts []string) ([]core.MemoryFact, error) {
	if personaID == "" {
		return nil, errors.New("persona id is required")
	}
	now := s.now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	created := make([]core.MemoryFact, 0, len(texts))
	for _, text := range texts {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		f := core.MemoryFact{ID: s.newID(now), PersonaID: personaID, Text: text, CreatedAt: now}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO memories (id, persona, text, created_at) VALUES (?, ?, ?, ?)`,
			f.ID, f.PersonaID, f.Text, now.Format(timeFormat)); err != nil {
			return nil, fmt.Errorf("insert memory: %w", err)
		}
		created = append(created, f)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return created, nil
}

// Search returns the persona's facts containing query, ignoring ASCII case.
func (s *SQLiteStore) Search(ctx context.Context, personaID, query string, limit int) ([]core.MemoryFact, error) {
	if limit <= 0 {
		limit = -1
	}
	pattern := "%" + likeEscaper.Replace(query) + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, persona, text, created_at FROM memories
		WHERE persona = ? AND text LIKE ? ESCAPE '\'
		ORDER BY created_at, id LIMIT ?`, personaID, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search memories: %w", err)
	}
	defer rows.Close()

	facts := make([]core.MemoryFact, 0)
	for rows.Next() {
		f, err := scanFact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// ClearMemories removes every fact of the persona.
func (s *SQLiteStore) ClearMemories(ctx context.Context, personaID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM memories WHERE persona = ?`, personaID)
	return err
}

// SaveRecord inserts or replaces a session record.
func (s *SQLiteStore) SaveRecord(ctx context.Context, rec *core.SessionRecord) error {
	if rec == nil || rec.ID == "" {
		return errors.New("record id is required")
	}
	prefs, err := json.Marshal(rec.Preferences)
	if err != nil {
		return fmt.Errorf("marshal preferences: %w", err)
	}
	tr := rec.Transcript
	if tr == nil {
		tr = core.Transcript{}
	}
	transcript, err := json.Marshal(tr)
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}
	mems := rec.NewMemories
	if mems == nil {
		mems = []string{}
	}
	newMemories, err := json.Marshal(mems)
	if err != nil {
		return fmt.Errorf("marshal memories: %w", err)
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO sessions (id, persona, language, preferences, transcript, report, new_memories, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Preferences.Persona, rec.Preferences.Language,
		string(prefs), string(transcript), rec.ReportText, string(newMemories),
		createdAt.UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

const recordColumns = `id, preferences, transcript, report, new_memories, created_at`

// GetRecord returns the record with the given id or core.ErrRecordNotFound.
func (s *SQLiteStore) GetRecord(ctx context.Context, id string) (*core.SessionRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM sessions WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &rec, nil
}

// ListRecords returns records newest first.
func (s *SQLiteStore) ListRecords(ctx context.Context, limit int) ([]core.SessionRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM sessions ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	out := make([]core.SessionRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanFact(row scanner) (core.MemoryFact, error) {
	var f core.MemoryFact
	var createdAt string
	if err := row.Scan(&f.ID, &f.PersonaID, &f.Text, &createdAt); err != nil {
		return f, err
	}
	f.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	return f, nil
}

func scanRecord(row scanner) (core.SessionRecord, error) {
	var rec core.SessionRecord
	var prefs, transcript, newMemories, createdAt string
	if err := row.Scan(&rec.ID, &prefs, &transcript, &rec.ReportText, &newMemories, &createdAt); err != nil {
		return rec, err
	}
	if err := json.Unmarshal([]byte(prefs), &rec.Preferences); err != nil {
		return rec, fmt.Errorf("decode preferences: %w", err)
	}
	if err := json.Unmarshal([]byte(transcript), &rec.Transcript); err != nil {
		return rec, fmt.Errorf("decode transcript: %w", err)
	}
	if err := json.Unmarshal([]byte(newMemories), &rec.NewMemories); err != nil {
		return rec, fmt.Errorf("decode memories: %w", err)
	}
	rec.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	return rec, nil
}
