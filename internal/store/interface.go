package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/shrimpsizemoose/kardemumma/internal/models"
)

// ErrNotFound is returned for lookups and mutations on ids that do not
// exist. Callers surface it as a generic failure.
var ErrNotFound = errors.New("not found")

type Store interface {
	Close() error
	ApplyMigrations(dir string) error

	CreateStudent(student *models.Student) error
	GetStudent(id int64) (*models.Student, error)
	GetStudentByEmail(email string) (*models.Student, error)
	GetStudentByStudentID(studentID string) (*models.Student, error)
	ListStudents() ([]models.Student, error)
	ListSections() ([]string, error)
	CountStudents() (int, error)
	UpdateStudentRole(id int64, role models.Role) error
	UpdateStudentStatus(id int64, status models.Status) error
	DeleteStudent(id int64) error

	CreateEntry(entry *models.PointEntry) error
	GetEntry(id int64) (*models.PointEntry, error)
	UpdateEntry(id int64, points int, reason string) error
	DeleteEntry(id int64) error
	ListEntriesForStudent(studentID int64) ([]models.PointEntry, error)
	ListAllEntries() ([]models.PointEntry, error)
	PointsUsedBetween(studentID int64, from, to int64) (int, error)
	DailyTotals(studentID int64, from int64) ([]DailyTotal, error)
}

// BaseStore provides common functionality for different DB implementations
type BaseStore struct {
	DB        *sqlx.DB
	Converter func(string) string
}

func (s *BaseStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// ApplyMigrations applies SQL migrations from a directory, translating dialect if needed
func (s *BaseStore) ApplyMigrations(dir string, translateSQL func(string) string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, file := range files {
		if !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		content, err := os.ReadFile(fmt.Sprintf("%s/%s", dir, file.Name()))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file.Name(), err)
		}

		sql := string(content)
		if translateSQL != nil {
			sql = translateSQL(sql)
		}

		if _, err := s.DB.Exec(sql); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file.Name(), err)
		}
	}

	return nil
}

func (s *BaseStore) GetStudent(id int64) (*models.Student, error) {
	var student models.Student
	query := s.Converter(`
		SELECT id, student_id, name, section, email, role, status, created_at
		FROM students
		WHERE id = ?
	`)

	err := s.DB.Get(&student, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	return &student, nil
}

func (s *BaseStore) GetStudentByEmail(email string) (*models.Student, error) {
	var student models.Student
	query := s.Converter(`
		SELECT id, student_id, name, section, email, role, status, created_at
		FROM students
		WHERE email = ?
	`)

	err := s.DB.Get(&student, query, email)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student by email: %w", err)
	}
	return &student, nil
}

func (s *BaseStore) GetStudentByStudentID(studentID string) (*models.Student, error) {
	var student models.Student
	query := s.Converter(`
		SELECT id, student_id, name, section, email, role, status, created_at
		FROM students
		WHERE student_id = ?
	`)

	err := s.DB.Get(&student, query, studentID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student by student id: %w", err)
	}
	return &student, nil
}

// ListStudents returns the roster in registration order. The ranker
// relies on this order being stable for tie-breaking.
func (s *BaseStore) ListStudents() ([]models.Student, error) {
	var students []models.Student
	err := s.DB.Select(&students, `
		SELECT id, student_id, name, section, email, role, status, created_at
		FROM students
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return students, nil
}

func (s *BaseStore) ListSections() ([]string, error) {
	var sections []string
	err := s.DB.Select(&sections, `
		SELECT DISTINCT section
		FROM students
		ORDER BY section ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sections: %w", err)
	}
	return sections, nil
}

func (s *BaseStore) CountStudents() (int, error) {
	var count int
	err := s.DB.Get(&count, `SELECT COUNT(*) FROM students`)
	if err != nil {
		return 0, fmt.Errorf("failed to count students: %w", err)
	}
	return count, nil
}

func (s *BaseStore) UpdateStudentRole(id int64, role models.Role) error {
	query := s.Converter(`UPDATE students SET role = ? WHERE id = ?`)
	res, err := s.DB.Exec(query, role, id)
	if err != nil {
		return fmt.Errorf("failed to update student role: %w", err)
	}
	return requireRowsAffected(res)
}

func (s *BaseStore) UpdateStudentStatus(id int64, status models.Status) error {
	query := s.Converter(`UPDATE students SET status = ? WHERE id = ?`)
	res, err := s.DB.Exec(query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update student status: %w", err)
	}
	return requireRowsAffected(res)
}

// DeleteStudent removes a student and all of their point entries in one
// transaction. No orphaned ledger rows survive a roster deletion.
func (s *BaseStore) DeleteStudent(id int64) error {
	tx, err := s.DB.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(s.Converter(`DELETE FROM point_entries WHERE student_id = ?`), id); err != nil {
		return fmt.Errorf("failed to delete student entries: %w", err)
	}

	res, err := tx.Exec(s.Converter(`DELETE FROM students WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete student: %w", err)
	}
	if err := requireRowsAffected(res); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *BaseStore) GetEntry(id int64) (*models.PointEntry, error) {
	var entry models.PointEntry
	query := s.Converter(`
		SELECT id, student_id, points, reason, section, created_at
		FROM point_entries
		WHERE id = ?
	`)

	err := s.DB.Get(&entry, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	return &entry, nil
}

// UpdateEntry changes magnitude and reason only. The award policy is not
// re-run on edits.
func (s *BaseStore) UpdateEntry(id int64, points int, reason string) error {
	query := s.Converter(`UPDATE point_entries SET points = ?, reason = ? WHERE id = ?`)
	res, err := s.DB.Exec(query, points, reason, id)
	if err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
	}
	return requireRowsAffected(res)
}

func (s *BaseStore) DeleteEntry(id int64) error {
	query := s.Converter(`DELETE FROM point_entries WHERE id = ?`)
	res, err := s.DB.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return requireRowsAffected(res)
}

func (s *BaseStore) ListEntriesForStudent(studentID int64) ([]models.PointEntry, error) {
	var entries []models.PointEntry
	query := s.Converter(`
		SELECT id, student_id, points, reason, section, created_at
		FROM point_entries
		WHERE student_id = ?
		ORDER BY created_at DESC, id DESC
	`)

	err := s.DB.Select(&entries, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return entries, nil
}

func (s *BaseStore) ListAllEntries() ([]models.PointEntry, error) {
	var entries []models.PointEntry
	err := s.DB.Select(&entries, `
		SELECT id, student_id, points, reason, section, created_at
		FROM point_entries
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list all entries: %w", err)
	}
	return entries, nil
}

// PointsUsedBetween sums a student's magnitudes with created_at in
// [from, to). The daily cap reads one local calendar day through this.
func (s *BaseStore) PointsUsedBetween(studentID int64, from, to int64) (int, error) {
	var total int
	query := s.Converter(`
		SELECT COALESCE(SUM(points), 0)
		FROM point_entries
		WHERE student_id = ?
		AND created_at >= ?
		AND created_at < ?
	`)

	err := s.DB.Get(&total, query, studentID, from, to)
	if err != nil {
		return 0, fmt.Errorf("failed to sum points: %w", err)
	}
	return total, nil
}

func requireRowsAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
