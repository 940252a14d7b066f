package ranking

import (
	"sort"

	"github.com/shrimpsizemoose/kardemumma/internal/models"
)

// Rank aggregates the full ledger over the roster and returns a ranked
// leaderboard. The sort is stable, so students with equal totals keep
// their roster order. Ranks use competition ranking: equal totals share
// a rank and the next distinct total gets its 1-based position, e.g.
// 1,1,3,4,4,6.
//
// Output is ephemeral. There is no incremental path: recompute from
// scratch whenever the ledger or roster changes.
func Rank(students []models.Student, entries []models.PointEntry, viewerID int64) []models.LeaderboardEntry {
	totals := make(map[int64]int, len(students))
	for _, e := range entries {
		totals[e.StudentID] += e.Points
	}

	board := make([]models.LeaderboardEntry, 0, len(students))
	for _, s := range students {
		board = append(board, models.LeaderboardEntry{
			StudentID:     s.StudentID,
			Name:          s.Name,
			Section:       s.Section,
			TotalPoints:   totals[s.ID],
			IsCurrentUser: s.ID == viewerID,
		})
	}

	sort.SliceStable(board, func(i, j int) bool {
		return board[i].TotalPoints > board[j].TotalPoints
	})

	for i := range board {
		if i > 0 && board[i].TotalPoints == board[i-1].TotalPoints {
			board[i].Rank = board[i-1].Rank
		} else {
			board[i].Rank = i + 1
		}
	}

	return board
}

// FilterSection keeps only students from one section. Empty filter or
// "All" keeps everyone.
func FilterSection(students []models.Student, section string) []models.Student {
	if section == "" || section == "All" {
		return students
	}
	filtered := make([]models.Student, 0, len(students))
	for _, s := range students {
		if s.Section == section {
			filtered = append(filtered, s)
		}
	}
	return filtered
}
