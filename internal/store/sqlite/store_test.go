// internal/store/sqlite/store_test.go
package sqlite

import (
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/kardemumma/internal/models"
	"github.com/shrimpsizemoose/kardemumma/internal/store"
)

// setupTestDB creates an in-memory SQLite database with the schema applied
func setupTestDB(t *testing.T) (*SQLiteStore, func()) {
	s, err := NewSQLiteStore(":memory:", "../../../migrations")
	require.NoError(t, err, "Failed to create store")

	cleanup := func() {
		err := s.Close()
		require.NoError(t, err, "Failed to close database")
	}

	return s, cleanup
}

type testData struct {
	store *SQLiteStore
	alice *models.Student
	bob   *models.Student
	now   time.Time
}

func setupTestData(t *testing.T) (*testData, func()) {
	s, cleanup := setupTestDB(t)

	alice := &models.Student{
		StudentID: "s-001",
		Name:      "Alice",
		Section:   "A",
		Email:     "alice@example.edu",
		Role:      models.RoleUser,
		Status:    models.StatusActive,
	}
	bob := &models.Student{
		StudentID: "s-002",
		Name:      "Bob",
		Section:   "B",
		Email:     "bob@example.edu",
		Role:      models.RoleUser,
		Status:    models.StatusActive,
	}

	require.NoError(t, s.CreateStudent(alice), "Failed to create alice")
	require.NoError(t, s.CreateStudent(bob), "Failed to create bob")

	return &testData{
		store: s,
		alice: alice,
		bob:   bob,
		now:   time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
	}, cleanup
}

// insertEntryAt bypasses CreateEntry so tests control the timestamp
func (td *testData) insertEntryAt(t *testing.T, studentID int64, points int, at time.Time) {
	_, err := td.store.DB.Exec(`
		INSERT INTO point_entries (student_id, points, reason, section, created_at)
		VALUES (?, ?, 'inserted by test setup', 'A', ?)`,
		studentID, points, at.Unix(),
	)
	require.NoError(t, err, "Failed to insert test entry")
}

func TestMain(m *testing.M) {
	log.Println("Starting SQLite store tests...")
	code := m.Run()
	log.Println("Finished SQLite store tests")
	os.Exit(code)
}

func TestStudentOperations(t *testing.T) {
	td, cleanup := setupTestData(t)
	defer cleanup()

	t.Run("create assigns id and created_at", func(t *testing.T) {
		assert.NotZero(t, td.alice.ID)
		assert.NotZero(t, td.alice.CreatedAt)
	})

	t.Run("get by id", func(t *testing.T) {
		got, err := td.store.GetStudent(td.alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "s-001", got.StudentID)
		assert.Equal(t, "Alice", got.Name)
		assert.Equal(t, models.RoleUser, got.Role)
	})

	t.Run("get by email", func(t *testing.T) {
		got, err := td.store.GetStudentByEmail("bob@example.edu")
		require.NoError(t, err)
		assert.Equal(t, td.bob.ID, got.ID)
	})

	t.Run("get by student id", func(t *testing.T) {
		got, err := td.store.GetStudentByStudentID("s-002")
		require.NoError(t, err)
		assert.Equal(t, td.bob.ID, got.ID)
	})

	t.Run("get missing student", func(t *testing.T) {
		_, err := td.store.GetStudent(9999)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("list keeps registration order", func(t *testing.T) {
		students, err := td.store.ListStudents()
		require.NoError(t, err)
		require.Len(t, students, 2)
		assert.Equal(t, "s-001", students[0].StudentID)
		assert.Equal(t, "s-002", students[1].StudentID)
	})

	t.Run("count", func(t *testing.T) {
		count, err := td.store.CountStudents()
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("sections are distinct and sorted", func(t *testing.T) {
		sections, err := td.store.ListSections()
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "B"}, sections)
	})

	t.Run("update role", func(t *testing.T) {
		require.NoError(t, td.store.UpdateStudentRole(td.alice.ID, models.RoleAdmin))
		got, err := td.store.GetStudent(td.alice.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, got.Role)
	})

	t.Run("update status", func(t *testing.T) {
		require.NoError(t, td.store.UpdateStudentStatus(td.bob.ID, models.StatusSuspended))
		got, err := td.store.GetStudent(td.bob.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusSuspended, got.Status)
	})

	t.Run("update missing student", func(t *testing.T) {
		err := td.store.UpdateStudentRole(9999, models.RoleAdmin)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("invalid student rejected", func(t *testing.T) {
		err := td.store.CreateStudent(&models.Student{
			StudentID: "s-003",
			Name:      "No Email",
			Section:   "A",
			Email:     "not-an-email",
			Role:      models.RoleUser,
			Status:    models.StatusActive,
		})
		assert.Error(t, err)
	})
}

func TestEntryOperations(t *testing.T) {
	td, cleanup := setupTestData(t)
	defer cleanup()

	entry := &models.PointEntry{
		StudentID: td.alice.ID,
		Points:    5,
		Reason:    "Helped a peer with the exercise",
		Section:   "A",
	}

	t.Run("create assigns id and timestamp", func(t *testing.T) {
		err := td.store.CreateEntry(entry)
		require.NoError(t, err)
		assert.NotZero(t, entry.ID)
		assert.NotZero(t, entry.CreatedAt)
	})

	t.Run("client timestamps are ignored", func(t *testing.T) {
		skewed := &models.PointEntry{
			StudentID: td.alice.ID,
			Points:    3,
			Reason:    "Answered a question in class",
			Section:   "A",
			CreatedAt: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).Unix(),
		}
		require.NoError(t, td.store.CreateEntry(skewed))
		assert.Greater(t, skewed.CreatedAt, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC).Unix())
	})

	t.Run("get entry", func(t *testing.T) {
		got, err := td.store.GetEntry(entry.ID)
		require.NoError(t, err)
		assert.Equal(t, entry.StudentID, got.StudentID)
		assert.Equal(t, 5, got.Points)
		assert.Equal(t, entry.Reason, got.Reason)
	})

	t.Run("update entry", func(t *testing.T) {
		require.NoError(t, td.store.UpdateEntry(entry.ID, 7, "Helped two peers with the exercise"))
		got, err := td.store.GetEntry(entry.ID)
		require.NoError(t, err)
		assert.Equal(t, 7, got.Points)
		assert.Equal(t, "Helped two peers with the exercise", got.Reason)
	})

	t.Run("update missing entry", func(t *testing.T) {
		err := td.store.UpdateEntry(9999, 5, "does not matter here")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("delete entry", func(t *testing.T) {
		require.NoError(t, td.store.DeleteEntry(entry.ID))
		_, err := td.store.GetEntry(entry.ID)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("delete missing entry", func(t *testing.T) {
		err := td.store.DeleteEntry(entry.ID)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestListEntriesForStudent(t *testing.T) {
	td, cleanup := setupTestData(t)
	defer cleanup()

	td.insertEntryAt(t, td.alice.ID, 2, td.now.Add(-3*time.Hour))
	td.insertEntryAt(t, td.alice.ID, 5, td.now.Add(-1*time.Hour))
	td.insertEntryAt(t, td.alice.ID, 3, td.now.Add(-2*time.Hour))
	td.insertEntryAt(t, td.bob.ID, 9, td.now)

	entries, err := td.store.ListEntriesForStudent(td.alice.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// newest first
	assert.Equal(t, 5, entries[0].Points)
	assert.Equal(t, 3, entries[1].Points)
	assert.Equal(t, 2, entries[2].Points)

	all, err := td.store.ListAllEntries()
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestPointsUsedBetween(t *testing.T) {
	td, cleanup := setupTestData(t)
	defer cleanup()

	dayStart := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	td.insertEntryAt(t, td.alice.ID, 5, dayStart.Add(9*time.Hour))
	td.insertEntryAt(t, td.alice.ID, 10, dayStart.Add(14*time.Hour))
	td.insertEntryAt(t, td.alice.ID, 7, dayStart.Add(-1*time.Minute))  // previous day
	td.insertEntryAt(t, td.alice.ID, 4, dayEnd)                        // next day, boundary excluded
	td.insertEntryAt(t, td.bob.ID, 8, dayStart.Add(10*time.Hour))      // other student

	used, err := td.store.PointsUsedBetween(td.alice.ID, dayStart.Unix(), dayEnd.Unix())
	require.NoError(t, err)
	assert.Equal(t, 15, used)

	t.Run("window start is inclusive", func(t *testing.T) {
		td.insertEntryAt(t, td.alice.ID, 1, dayStart)
		used, err := td.store.PointsUsedBetween(td.alice.ID, dayStart.Unix(), dayEnd.Unix())
		require.NoError(t, err)
		assert.Equal(t, 16, used)
	})

	t.Run("no entries means zero", func(t *testing.T) {
		used, err := td.store.PointsUsedBetween(9999, dayStart.Unix(), dayEnd.Unix())
		require.NoError(t, err)
		assert.Equal(t, 0, used)
	})
}

func TestDeleteStudentCascades(t *testing.T) {
	td, cleanup := setupTestData(t)
	defer cleanup()

	td.insertEntryAt(t, td.alice.ID, 5, td.now)
	td.insertEntryAt(t, td.alice.ID, 3, td.now.Add(time.Hour))
	td.insertEntryAt(t, td.bob.ID, 8, td.now)

	require.NoError(t, td.store.DeleteStudent(td.alice.ID))

	_, err := td.store.GetStudent(td.alice.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// exactly alice's entries are gone, bob's survive
	all, err := td.store.ListAllEntries()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, td.bob.ID, all[0].StudentID)

	t.Run("delete missing student", func(t *testing.T) {
		err := td.store.DeleteStudent(td.alice.ID)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestDailyTotals(t *testing.T) {
	td, cleanup := setupTestData(t)
	defer cleanup()

	day1 := time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 1, 12, 10, 0, 0, 0, time.UTC)

	td.insertEntryAt(t, td.alice.ID, 5, day1)
	td.insertEntryAt(t, td.alice.ID, 3, day1.Add(2*time.Hour))
	td.insertEntryAt(t, td.alice.ID, 10, day2)
	td.insertEntryAt(t, td.bob.ID, 6, day1)

	totals, err := td.store.DailyTotals(td.alice.ID, day1.AddDate(0, 0, -1).Unix())
	require.NoError(t, err)
	require.Len(t, totals, 2)

	assert.Equal(t, "2024-01-10", totals[0].Day)
	assert.Equal(t, 8, totals[0].Points)
	assert.Equal(t, "2024-01-12", totals[1].Day)
	assert.Equal(t, 10, totals[1].Points)
}
