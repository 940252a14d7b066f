package postgres

import (
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/shrimpsizemoose/kardemumma/internal/models"
	"github.com/shrimpsizemoose/kardemumma/internal/store"
)

type PostgresStore struct {
	store.BaseStore
}

func NewPostgresStore(dsn, migrationsDir string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &PostgresStore{BaseStore: store.BaseStore{
		DB: db,
		Converter: func(query string) string {
			out := query
			for i := 1; strings.Contains(out, "?"); i++ {
				out = strings.Replace(out, "?", fmt.Sprintf("$%d", i), 1)
			}
			return out
		},
	}}

	if err := s.ApplyMigrations(migrationsDir); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return s, nil
}

func (s *PostgresStore) ApplyMigrations(dir string) error {
	return s.BaseStore.ApplyMigrations(dir, nil)
}

func (s *PostgresStore) CreateStudent(student *models.Student) error {
	if err := student.Validate(); err != nil {
		return fmt.Errorf("invalid student: %w", err)
	}
	if student.CreatedAt == 0 {
		student.CreatedAt = time.Now().Unix()
	}

	err := s.DB.QueryRow(`
		INSERT INTO students (student_id, name, section, email, role, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, student.StudentID, student.Name, student.Section, student.Email,
		student.Role, student.Status, student.CreatedAt,
	).Scan(&student.ID)
	if err != nil {
		return fmt.Errorf("failed to create student: %w", err)
	}
	return nil
}

// CreateEntry stores one award. The timestamp is assigned here, not by
// the client, so the daily cap cannot be gamed via clock skew.
func (s *PostgresStore) CreateEntry(entry *models.PointEntry) error {
	entry.CreatedAt = time.Now().Unix()
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("invalid entry: %w", err)
	}

	err := s.DB.QueryRow(`
		INSERT INTO point_entries (student_id, points, reason, section, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, entry.StudentID, entry.Points, entry.Reason, entry.Section, entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("failed to create entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) DailyTotals(studentID int64, from int64) ([]store.DailyTotal, error) {
	query := `
		SELECT
			to_char(to_timestamp(created_at), 'YYYY-MM-DD') AS day,
			SUM(points) AS points
		FROM point_entries
		WHERE student_id = $1
		AND created_at >= $2
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
