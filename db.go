package main

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the question log. It records what was asked and how it was
// routed, never dataset rows.
type Store struct {
	db *sql.DB
}

func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS question_log (
		id                  INTEGER PRIMARY KEY AUTOINCREMENT,
		question            TEXT NOT NULL,
		intent              TEXT NOT NULL,
		confidence          REAL NOT NULL,
		needs_clarification INTEGER NOT NULL DEFAULT 0,
		duration_ms         INTEGER NOT NULL DEFAULT 0,
		asked_at            DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_question_log_intent ON question_log(intent);
	CREATE INDEX IF NOT EXISTS idx_question_log_asked_at ON question_log(asked_at);
	`
	if _, err = db.Exec(schema); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) InsertQuestionLog(question, intent string, confidence float64, needsClarification bool, duration time.Duration) error {
	clarify := 0
	if needsClarification {
		clarify = 1
	}
	_, err := s.db.Exec(
		`INSERT INTO question_log (question, intent, confidence, needs_clarification, duration_ms)
		 VALUES (?, ?, ?, ?, ?)`,
		question, intent, confidence, clarify, duration.Milliseconds(),
	)
	return err
}

type IntentStat struct {
	Intent         string
	Questions      int
	Clarifications int
	AvgConfidence  float64
}

// IntentStats aggregates the log per intent, most-asked first.
func (s *Store) IntentStats() ([]IntentStat, error) {
	rows, err := s.db.Query(`
		SELECT intent, COUNT(*), SUM(needs_clarification), AVG(confidence)
		FROM question_log
		GROUP BY intent
		ORDER BY COUNT(*) DESC, intent ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []IntentStat
	for rows.Next() {
		var st IntentStat
		if err := rows.Scan(&st.Intent, &st.Questions, &st.Clarifications, &st.AvgConfidence); err != nil {
			return nil, err
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}
