package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/kardemumma/internal/models"
)

func roster() []models.Student {
	return []models.Student{
		{ID: 1, StudentID: "s-001", Name: "Alice", Section: "A"},
		{ID: 2, StudentID: "s-002", Name: "Bob", Section: "A"},
		{ID: 3, StudentID: "s-003", Name: "Carol", Section: "B"},
		{ID: 4, StudentID: "s-004", Name: "Dave", Section: "B"},
		{ID: 5, StudentID: "s-005", Name: "Erin", Section: "A"},
	}
}

func entriesWithTotals(totals map[int64]int) []models.PointEntry {
	var entries []models.PointEntry
	for studentID, total := range totals {
		// split each total into a few entries so aggregation is exercised
		for total > 0 {
			chunk := total
			if chunk > 7 {
				chunk = 7
			}
			entries = append(entries, models.PointEntry{StudentID: studentID, Points: chunk})
			total -= chunk
		}
	}
	return entries
}

func TestRank_CompetitionRanking(t *testing.T) {
	entries := entriesWithTotals(map[int64]int{
		1: 50,
		2: 50,
		3: 30,
		4: 10,
		5: 10,
	})

	board := Rank(roster(), entries, 0)
	require.Len(t, board, 5)

	totals := make([]int, 0, len(board))
	ranks := make([]int, 0, len(board))
	for _, e := range board {
		totals = append(totals, e.TotalPoints)
		ranks = append(ranks, e.Rank)
	}

	assert.Equal(t, []int{50, 50, 30, 10, 10}, totals)
	assert.Equal(t, []int{1, 1, 3, 4, 4}, ranks)
}

func TestRank_TiesKeepRosterOrder(t *testing.T) {
	entries := entriesWithTotals(map[int64]int{
		1: 20,
		2: 20,
		3: 20,
	})

	board := Rank(roster(), entries, 0)
	require.Len(t, board, 5)

	// tied students appear in roster order, not reshuffled
	assert.Equal(t, "s-001", board[0].StudentID)
	assert.Equal(t, "s-002", board[1].StudentID)
	assert.Equal(t, "s-003", board[2].StudentID)
}

func TestRank_StudentsWithoutEntriesGetZero(t *testing.T) {
	entries := entriesWithTotals(map[int64]int{1: 5})

	board := Rank(roster(), entries, 0)
	require.Len(t, board, 5)

	assert.Equal(t, 5, board[0].TotalPoints)
	for _, e := range board[1:] {
		assert.Equal(t, 0, e.TotalPoints)
		assert.Equal(t, 2, e.Rank)
	}
}

func TestRank_TotalsMatchLedgerSums(t *testing.T) {
	entries := []models.PointEntry{
		{StudentID: 1, Points: 3},
		{StudentID: 1, Points: 7},
		{StudentID: 1, Points: 2},
		{StudentID: 2, Points: 10},
	}

	board := Rank(roster(), entries, 0)

	byID := make(map[string]models.LeaderboardEntry)
	for _, e := range board {
		byID[e.StudentID] = e
	}

	assert.Equal(t, 12, byID["s-001"].TotalPoints)
	assert.Equal(t, 10, byID["s-002"].TotalPoints)
}

func TestRank_MarksViewer(t *testing.T) {
	entries := entriesWithTotals(map[int64]int{2: 15})

	board := Rank(roster(), entries, 2)

	var marked int
	for _, e := range board {
		if e.IsCurrentUser {
			marked++
			assert.Equal(t, "s-002", e.StudentID)
		}
	}
	assert.Equal(t, 1, marked)
}

func TestRank_Idempotent(t *testing.T) {
	entries := entriesWithTotals(map[int64]int{
		1: 42,
		2: 42,
		3: 17,
		4: 9,
	})

	first := Rank(roster(), entries, 3)
	second := Rank(roster(), entries, 3)

	assert.Equal(t, first, second)
}

func TestRank_DeletedStudentExcluded(t *testing.T) {
	entries := entriesWithTotals(map[int64]int{
		1: 30,
		2: 20,
		3: 10,
	})

	students := roster()

	// simulate admin deletion of Alice: roster row and her entries go away
	var remaining []models.Student
	for _, s := range students {
		if s.ID != 1 {
			remaining = append(remaining, s)
		}
	}
	var keptEntries []models.PointEntry
	for _, e := range entries {
		if e.StudentID != 1 {
			keptEntries = append(keptEntries, e)
		}
	}

	board := Rank(remaining, keptEntries, 0)
	require.Len(t, board, 4)
	for _, e := range board {
		assert.NotEqual(t, "s-001", e.StudentID)
	}
	assert.Equal(t, "s-002", board[0].StudentID)
	assert.Equal(t, 1, board[0].Rank)
}

func TestFilterSection(t *testing.T) {
	students := roster()

	t.Run("empty filter keeps everyone", func(t *testing.T) {
		assert.Len(t, FilterSection(students, ""), 5)
	})

	t.Run("All keeps everyone", func(t *testing.T) {
		assert.Len(t, FilterSection(students, "All"), 5)
	})

	t.Run("section filter", func(t *testing.T) {
		filtered := FilterSection(students, "B")
		require.Len(t, filtered, 2)
		assert.Equal(t, "s-003", filtered[0].StudentID)
		assert.Equal(t, "s-004", filtered[1].StudentID)
	})
}
