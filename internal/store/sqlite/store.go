// internal/store/sqlite/store.go
package sqlite

import (
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/shrimpsizemoose/kardemumma/internal/models"
	"github.com/shrimpsizemoose/kardemumma/internal/store"
)

type SQLiteStore struct {
	store.BaseStore
}

func NewSQLiteStore(dsn, migrationsDir string) (*SQLiteStore, error) {
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &SQLiteStore{BaseStore: store.BaseStore{
		DB: db,
		Converter: func(query string) string {
			return query
		},
	}}

	if err := s.ApplyMigrations(migrationsDir); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) ApplyMigrations(dir string) error {
	return s.BaseStore.ApplyMigrations(dir, translateToSQLite)
}

// translateToSQLite converts Postgres SQL to SQLite dialect
func translateToSQLite(sql string) string {
	replacements := map[string]string{
		"BIGSERIAL PRIMARY KEY": "INTEGER PRIMARY KEY AUTOINCREMENT",
		"BIGINT":                "INTEGER",
		"VARCHAR(16)":           "TEXT",
		"VARCHAR(32)":           "TEXT",
		"now()":                 "CURRENT_TIMESTAMP",
	}
	result := sql
	for from, to := range replacements {
		result = strings.ReplaceAll(result, from, to)
	}
	return result
}

func (s *SQLiteStore) CreateStudent(student *models.Student) error {
	if err := student.Validate(); err != nil {
		return fmt.Errorf("invalid student: %w", err)
	}
	if student.CreatedAt == 0 {
		student.CreatedAt = time.Now().Unix()
	}

	res, err := s.DB.NamedExec(`
		INSERT INTO students (student_id, name, section, email, role, status, created_at)
		VALUES (:student_id, :name, :section, :email, :role, :status, :created_at)
	`, student)
	if err != nil {
		return fmt.Errorf("failed to create student: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get student id: %w", err)
	}
	student.ID = id
	return nil
}

// CreateEntry stores one award. The timestamp is assigned here, not by
// the client, so the daily cap cannot be gamed via clock skew.
func (s *SQLiteStore) CreateEntry(entry *models.PointEntry) error {
	entry.CreatedAt = time.Now().Unix()
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("invalid entry: %w", err)
	}

	res, err := s.DB.NamedExec(`
		INSERT INTO point_entries (student_id, points, reason, section, created_at)
		VALUES (:student_id, :points, :reason, :section, :created_at)
	`, entry)
	if err != nil {
		return fmt.Errorf("failed to create entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get entry id: %w", err)
	}
	entry.ID = id
	return nil
}

func (s *SQLiteStore) DailyTotals(studentID int64, from int64) ([]store.DailyTotal, error) {
	query := `
		SELECT
			strftime('%Y-%m-%d', created_at, 'unixepoch') AS day,
			SUM(points) AS points
		FROM point_entries
		WHERE student_id = ?
		AND created_at >= ?
		GROUP BY day
		ORDER BY day ASC
	`

	var totals []store.DailyTotal
	err := s.DB.Select(&totals, query, studentID, from)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily totals: %w", err)
	}
	return totals, nil
}
