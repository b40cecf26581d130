package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps analysis records in a routing_analysis table
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and creates if needed) the database at dbPath
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dbPath = expandPath(dbPath)

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS routing_analysis (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL UNIQUE,
		user_id TEXT NOT NULL,
		campaign_id TEXT NOT NULL,
		thread_id TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		message_count INTEGER NOT NULL,
		topic_stability REAL NOT NULL,
		dominant_topics TEXT NOT NULL,
		patterns TEXT NOT NULL,
		recommendations TEXT NOT NULL,
		payload TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_analysis_thread ON routing_analysis(thread_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_analysis_user ON routing_analysis(user_id, campaign_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Save inserts a record, replacing any earlier record with the same run id
func (s *SQLiteStore) Save(ctx context.Context, record Record) error {
	query := `
		INSERT OR REPLACE INTO routing_analysis (
			run_id, user_id, campaign_id, thread_id, created_at,
			message_count, topic_stability, dominant_topics, patterns, recommendations, payload
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	dominant, err := json.Marshal(record.DominantTopics)
	if err != nil {
		return fmt.Errorf("failed to marshal dominant topics: %w", err)
	}
	patterns, err := json.Marshal(record.Patterns)
	if err != nil {
		return fmt.Errorf("failed to marshal patterns: %w", err)
	}
	recs, err := json.Marshal(record.Recommendations)
	if err != nil {
		return fmt.Errorf("failed to marshal recommendations: %w", err)
	}

	_, err = s.db.ExecContext(ctx, query,
		record.Key.RunID,
		record.Key.UserID,
		record.Key.CampaignID,
		record.Key.ThreadID,
		record.CreatedAt.UTC(),
		record.MessageCount,
		record.TopicStability,
		string(dominant),
		string(patterns),
		string(recs),
		string(record.Payload),
	)
	if err != nil {
		return fmt.Errorf("failed to save analysis %s: %w", record.Key.RunID, err)
	}
	return nil
}

// Query retrieves records newest first
func (s *SQLiteStore) Query(ctx context.Context, filter Filter) ([]Record, error) {
	query := `SELECT run_id, user_id, campaign_id, thread_id, created_at, message_count,
		topic_stability, dominant_topics, patterns, recommendations, payload
		FROM routing_analysis WHERE 1=1`
	args := []interface{}{}

	if filter.UserID != "" {
		query += " AND user_id = ?"
		args = append(args, filter.UserID)
	}
	if filter.CampaignID != "" {
		query += " AND campaign_id = ?"
		args = append(args, filter.CampaignID)
	}
	if filter.ThreadID != "" {
		query += " AND thread_id = ?"
		args = append(args, filter.ThreadID)
	}
	if !filter.Since.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, filter.Since.UTC())
	}

	query += " ORDER BY created_at DESC, id DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var r Record
		var dominant, patterns, recs, payload string

		err := rows.Scan(
			&r.Key.RunID,
			&r.Key.UserID,
			&r.Key.CampaignID,
			&r.Key.ThreadID,
			&r.CreatedAt,
			&r.MessageCount,
			&r.TopicStability,
			&dominant,
			&patterns,
			&recs,
			&payload,
		)
		if err != nil {
			return nil, err
		}

		if err := json.Unmarshal([]byte(dominant), &r.DominantTopics); err != nil {
			return nil, fmt.Errorf("corrupt dominant topics for %s: %w", r.Key.RunID, err)
		}
		if err := json.Unmarshal([]byte(patterns), &r.Patterns); err != nil {
			return nil, fmt.Errorf("corrupt patterns for %s: %w", r.Key.RunID, err)
		}
		if err := json.Unmarshal([]byte(recs), &r.Recommendations); err != nil {
			return nil, fmt.Errorf("corrupt recommendations for %s: %w", r.Key.RunID, err)
		}
		r.Payload = json.RawMessage(payload)

		records = append(records, r)
	}

	return records, rows.Err()
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
