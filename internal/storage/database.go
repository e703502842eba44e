package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/capsched/capsched/internal/domain"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// DB represents a wrapper around the SQL database connection.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema is up to date.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Execute the schema to create tables if they don't exist.
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// capsuleContent is the JSON blob stored in the capsules.content column.
type capsuleContent struct {
	KeyConcepts   []string              `json:"keyConcepts"`
	Flashcards    []domain.Flashcard    `json:"flashcards"`
	QuizQuestions []domain.QuizQuestion `json:"quizQuestions"`
}

// InsertCapsule stores a new capsule with fresh scheduling state.
// The capsule's ID must already be assigned by the caller.
func (db *DB) InsertCapsule(c domain.Capsule, fp string, sourceID int64) error {
	content, err := json.Marshal(capsuleContent{
		KeyConcepts:   c.KeyConcepts,
		Flashcards:    c.Flashcards,
		QuizQuestions: c.QuizQuestions,
	})
	if err != nil {
		return fmt.Errorf("failed to encode content for capsule %s: %w", c.ID, err)
	}

	_, err = db.conn.Exec(`
		INSERT INTO capsules (id, fingerprint, title, content, review_stage, last_reviewed, source_id, created_at)
		VALUES (?, ?, ?, ?, 0, NULL, ?, ?)
	`,
		c.ID,
		fp,
		c.Title,
		string(content),
		sourceID,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert capsule %s: %w", c.ID, err)
	}
	return nil
}

// FindCapsuleIDByFingerprint returns the ID of the capsule with the given
// content fingerprint, or "" if no such capsule exists.
func (db *DB) FindCapsuleIDByFingerprint(fp string) (string, error) {
	var id string
	row := db.conn.QueryRow(`SELECT id FROM capsules WHERE fingerprint = ?`, fp)
	if err := row.Scan(&id); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("failed to look up fingerprint %s: %w", fp, err)
	}
	return id, nil
}

// GetCapsule loads a single capsule with its full review history.
// Returns nil if the capsule does not exist.
func (db *DB) GetCapsule(id string) (*domain.Capsule, error) {
	row := db.conn.QueryRow(`
		SELECT id, title, content, review_stage, last_reviewed
		FROM capsules WHERE id = ?
	`, id)

	c, err := scanCapsule(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load capsule %s: %w", id, err)
	}

	history, err := db.loadHistory(id)
	if err != nil {
		return nil, err
	}
	c.History = history
	return &c, nil
}

// ListCapsules loads all capsules with their review histories, ordered by
// creation time.
func (db *DB) ListCapsules() ([]domain.Capsule, error) {
	rows, err := db.conn.Query(`
		SELECT id, title, content, review_stage, last_reviewed
		FROM capsules ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list capsules: %w", err)
	}
	defer rows.Close()

	var capsules []domain.Capsule
	for rows.Next() {
		c, err := scanCapsule(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan capsule row: %w", err)
		}
		capsules = append(capsules, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate capsules: %w", err)
	}

	histories, err := db.loadAllHistories()
	if err != nil {
		return nil, err
	}
	for i := range capsules {
		capsules[i].History = histories[capsules[i].ID]
	}
	return capsules, nil
}

// ListCapsulesBySource returns the capsules imported from one source,
// without review histories. The sync layer only needs identity fields.
func (db *DB) ListCapsulesBySource(sourceID int64) ([]CapsuleRef, error) {
	rows, err := db.conn.Query(`
		SELECT id, fingerprint FROM capsules WHERE source_id = ?
	`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get capsules for source %d: %w", sourceID, err)
	}
	defer rows.Close()

	var refs []CapsuleRef
	for rows.Next() {
		var ref CapsuleRef
		if err := rows.Scan(&ref.ID, &ref.Fingerprint); err != nil {
			return nil, fmt.Errorf("failed to scan capsule ref: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// CapsuleRef identifies a stored capsule by ID and content fingerprint.
type CapsuleRef struct {
	ID          string
	Fingerprint string
}

// DeleteCapsule removes a capsule and its review history.
func (db *DB) DeleteCapsule(id string) error {
	if _, err := db.conn.Exec(`DELETE FROM reviews WHERE capsule_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete reviews for capsule %s: %w", id, err)
	}
	if _, err := db.conn.Exec(`DELETE FROM capsules WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete capsule %s: %w", id, err)
	}
	return nil
}

// RecordReview appends a review event and advances the capsule's
// scheduling state: the stage increments and last_reviewed moves to the
// event timestamp. Both writes happen in one transaction.
func (db *DB) RecordReview(capsuleID string, ev domain.ReviewEvent) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin review transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO reviews (capsule_id, reviewed_at, kind, score)
		VALUES (?, ?, ?, ?)
	`, capsuleID, ev.Timestamp, string(ev.Kind), ev.Score); err != nil {
		return fmt.Errorf("failed to insert review for capsule %s: %w", capsuleID, err)
	}

	res, err := tx.Exec(`
		UPDATE capsules SET review_stage = review_stage + 1, last_reviewed = ?
		WHERE id = ?
	`, ev.Timestamp, capsuleID)
	if err != nil {
		return fmt.Errorf("failed to advance capsule %s: %w", capsuleID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("no capsule with id %s", capsuleID)
	}

	return tx.Commit()
}

func scanCapsule(scan func(dest ...any) error) (domain.Capsule, error) {
	var c domain.Capsule
	var content string
	var lastReviewed sql.NullTime

	if err := scan(&c.ID, &c.Title, &content, &c.ReviewStage, &lastReviewed); err != nil {
		return domain.Capsule{}, err
	}

	var cc capsuleContent
	if err := json.Unmarshal([]byte(content), &cc); err != nil {
		return domain.Capsule{}, fmt.Errorf("corrupt content for capsule %s: %w", c.ID, err)
	}
	c.KeyConcepts = cc.KeyConcepts
	c.Flashcards = cc.Flashcards
	c.QuizQuestions = cc.QuizQuestions

	if lastReviewed.Valid {
		t := lastReviewed.Time
		c.LastReviewed = &t
	}
	return c, nil
}

func (db *DB) loadHistory(capsuleID string) ([]domain.ReviewEvent, error) {
	rows, err := db.conn.Query(`
		SELECT reviewed_at, kind, score FROM reviews
		WHERE capsule_id = ? ORDER BY id
	`, capsuleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for capsule %s: %w", capsuleID, err)
	}
	defer rows.Close()

	var history []domain.ReviewEvent
	for rows.Next() {
		var ev domain.ReviewEvent
		var kind string
		if err := rows.Scan(&ev.Timestamp, &kind, &ev.Score); err != nil {
			return nil, fmt.Errorf("failed to scan review row: %w", err)
		}
		ev.Kind = domain.ReviewKind(kind)
		history = append(history, ev)
	}
	return history, rows.Err()
}

func (db *DB) loadAllHistories() (map[string][]domain.ReviewEvent, error) {
	rows, err := db.conn.Query(`
		SELECT capsule_id, reviewed_at, kind, score FROM reviews ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load review histories: %w", err)
	}
	defer rows.Close()

	histories := make(map[string][]domain.ReviewEvent)
	for rows.Next() {
		var id, kind string
		var ev domain.ReviewEvent
		if err := rows.Scan(&id, &ev.Timestamp, &kind, &ev.Score); err != nil {
			return nil, fmt.Errorf("failed to scan review row: %w", err)
		}
		ev.Kind = domain.ReviewKind(kind)
		histories[id] = append(histories[id], ev)
	}
	return histories, rows.Err()
}

// Source represents a deck source, either a local path or a Git URL.
type Source struct {
	ID          int64
	Path        string
	Type        string
	LastScanned sql.NullTime
}

// InsertSource inserts a new source and returns its ID.
func (db *DB) InsertSource(path, sourceType string) (int64, error) {
	res, err := db.conn.Exec(`
		INSERT INTO sources (path, type) VALUES (?, ?)
	`, path, sourceType)
	if err != nil {
		return 0, fmt.Errorf("failed to insert source %s: %w", path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for source %s: %w", path, err)
	}
	return id, nil
}

// GetAllSources retrieves all stored sources.
func (db *DB) GetAllSources() ([]Source, error) {
	rows, err := db.conn.Query(`
		SELECT id, path, type, last_scanned FROM sources ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var s Source
		if err := rows.Scan(&s.ID, &s.Path, &s.Type, &s.LastScanned); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// DeleteSource removes a source. Capsules imported from it are kept; they
// become orphans on the next sync only if their content disappears too.
func (db *DB) DeleteSource(id int64) error {
	if _, err := db.conn.Exec(`DELETE FROM sources WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete source %d: %w", id, err)
	}
	return nil
}

// UpdateSourceLastScanned updates the last_scanned timestamp for a source.
func (db *DB) UpdateSourceLastScanned(sourceID int64) error {
	_, err := db.conn.Exec(`
		UPDATE sources SET last_scanned = ? WHERE id = ?
	`, time.Now(), sourceID)
	if err != nil {
		return fmt.Errorf("failed to update last scanned for source ID %d: %w", sourceID, err)
	}
	return nil
}

// SavePlan stores the plan as its JSON payload, replacing any previous
// version with the same ID. The payload is written verbatim so it
// round-trips exactly.
func (db *DB) SavePlan(plan domain.StudyPlan) error {
	payload, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to encode plan %s: %w", plan.ID, err)
	}
	_, err = db.conn.Exec(`
		INSERT OR REPLACE INTO plans (id, name, payload, created_at)
		VALUES (?, ?, ?, ?)
	`, plan.ID, plan.Name, string(payload), plan.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save plan %s: %w", plan.ID, err)
	}
	return nil
}

// GetPlan loads a stored plan by ID. Returns nil if no such plan exists.
func (db *DB) GetPlan(id string) (*domain.StudyPlan, error) {
	var payload string
	row := db.conn.QueryRow(`SELECT payload FROM plans WHERE id = ?`, id)
	if err := row.Scan(&payload); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load plan %s: %w", id, err)
	}

	var plan domain.StudyPlan
	if err := json.Unmarshal([]byte(payload), &plan); err != nil {
		return nil, fmt.Errorf("corrupt payload for plan %s: %w", id, err)
	}
	return &plan, nil
}

// ListPlans loads all stored plans ordered by creation time.
func (db *DB) ListPlans() ([]domain.StudyPlan, error) {
	rows, err := db.conn.Query(`SELECT payload FROM plans ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	var plans []domain.StudyPlan
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan plan row: %w", err)
		}
		var plan domain.StudyPlan
		if err := json.Unmarshal([]byte(payload), &plan); err != nil {
			return nil, fmt.Errorf("corrupt plan payload: %w", err)
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}
