package app

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shrimpsizemoose/kardemumma/internal/models"
	"github.com/shrimpsizemoose/kardemumma/internal/policy"
	"github.com/shrimpsizemoose/kardemumma/internal/ranking"
	"github.com/shrimpsizemoose/kardemumma/internal/store"
)

// ErrForbidden is returned when the acting student may not touch the
// target. Handlers surface it as a generic failure without revealing
// which entries exist.
var ErrForbidden = errors.New("forbidden")

type Service struct {
	Config *Config
	Store  store.Store
	Auth   *Auth
	Rules  policy.Rules
}

func NewService(configPath string) (*Service, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	st, err := NewStore(config.Database.DSN, config.Database.MigrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}

	auth, err := NewAuth(config)
	if err != nil {
		return nil, fmt.Errorf("failed to init auth: %w", err)
	}

	return &Service{
		Config: config,
		Store:  st,
		Auth:   auth,
		Rules:  config.Awards,
	}, nil
}

func (s *Service) ValidateAuthAndStudent(r *http.Request, student string) error {
	if !s.Config.Server.EnableAuth {
		return nil
	}

	authHeader := r.Header.Get(s.Auth.tokenHeader)
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return fmt.Errorf("Invalid authorization header format")
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")

	return s.Auth.ValidateToken(r.Context(), student, token)
}

func (s *Service) ValidateHeaders(headers map[string][]string) bool {
	for _, required := range s.Config.API.RequiredHeaders {
		value := headers[http.CanonicalHeaderKey(required.Name)]
		if len(value) == 0 || !strings.EqualFold(value[0], required.Value) {
			return false
		}
	}
	return true
}

// Actor resolves the acting student from the request headers. Suspended
// students are rejected; every downstream call takes the returned
// identity explicitly, there is no ambient session.
func (s *Service) Actor(r *http.Request) (*models.Student, error) {
	studentID := r.Header.Get(s.Config.API.StudentIDHeader)
	if studentID == "" {
		return nil, fmt.Errorf("no student id specified")
	}

	if err := s.ValidateAuthAndStudent(r, studentID); err != nil {
		return nil, err
	}

	actor, err := s.Store.GetStudentByStudentID(studentID)
	if err != nil {
		return nil, fmt.Errorf("unknown student %s: %w", studentID, err)
	}
	if actor.Status == models.StatusSuspended {
		return nil, ErrForbidden
	}

	return actor, nil
}

// Register creates a roster record. The first registered student becomes
// admin; everyone after that starts as a regular user.
func (s *Service) Register(student *models.Student) error {
	count, err := s.Store.CountStudents()
	if err != nil {
		return err
	}

	student.Role = models.RoleUser
	if count == 0 {
		student.Role = models.RoleAdmin
	}
	student.Status = models.StatusActive

	return s.Store.CreateStudent(student)
}

// SubmitAward runs the award policy and, on accept, appends to the
// ledger. Non-admins may only award points to themselves; that check
// runs before the roster lookup so rejections do not reveal whether the
// target id is registered.
func (s *Service) SubmitAward(actor *models.Student, targetStudentID string, points int, reason, section string) (*models.PointEntry, error) {
	target := actor
	if targetStudentID != "" && targetStudentID != actor.StudentID {
		if !actor.IsAdmin() {
			return nil, ErrForbidden
		}
		var err error
		target, err = s.Store.GetStudentByStudentID(targetStudentID)
		if err != nil {
			return nil, err
		}
	}

	usedToday, err := s.UsedToday(target.ID)
	if err != nil {
		return nil, err
	}

	if err := s.Rules.Evaluate(actor, points, reason, usedToday); err != nil {
		return nil, err
	}

	if section == "" {
		section = target.Section
	}

	entry := &models.PointEntry{
		StudentID: target.ID,
		Points:    points,
		Reason:    reason,
		Section:   section,
	}
	if err := s.Store.CreateEntry(entry); err != nil {
		return nil, fmt.Errorf("failed to save entry: %w", err)
	}

	return entry, nil
}

// UsedToday sums the student's magnitudes for the current local calendar day.
func (s *Service) UsedToday(studentID int64) (int, error) {
	from, to := policy.DayWindow(time.Now())
	return s.Store.PointsUsedBetween(studentID, from, to)
}

// Leaderboard recomputes the ranking from scratch. No cache: the board
// is ephemeral and any ledger change invalidates it.
func (s *Service) Leaderboard(section string, viewerID int64) ([]models.LeaderboardEntry, error) {
	students, err := s.Store.ListStudents()
	if err != nil {
		return nil, err
	}

	entries, err := s.Store.ListAllEntries()
	if err != nil {
		return nil, err
	}

	return ranking.Rank(ranking.FilterSection(students, section), entries, viewerID), nil
}

// History returns a student's entries newest-first. Admins may read
// anyone's history, students only their own.
func (s *Service) History(actor *models.Student, targetID int64) ([]models.PointEntry, error) {
	if !actor.IsAdmin() && targetID != actor.ID {
		return nil, ErrForbidden
	}
	return s.Store.ListEntriesForStudent(targetID)
}

// EditEntry updates magnitude and reason. Owner or admin only. The award
// policy is not re-run on edits, matching the submission-time-only rule.
func (s *Service) EditEntry(actor *models.Student, entryID int64, points int, reason string) (*models.PointEntry, error) {
	entry, err := s.Store.GetEntry(entryID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && entry.StudentID != actor.ID {
		return nil, ErrForbidden
	}

	if err := s.Store.UpdateEntry(entryID, points, reason); err != nil {
		return nil, err
	}

	return s.Store.GetEntry(entryID)
}

// RemoveEntry deletes one award. Owner or admin only; removing a missing
// id fails with NotFound.
func (s *Service) RemoveEntry(actor *models.Student, entryID int64) error {
	entry, err := s.Store.GetEntry(entryID)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() && entry.StudentID != actor.ID {
		return ErrForbidden
	}

	return s.Store.DeleteEntry(entryID)
}

func (s *Service) SetStudentRole(actor *models.Student, studentID int64, role models.Role) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	return s.Store.UpdateStudentRole(studentID, role)
}

func (s *Service) SetStudentStatus(actor *models.Student, studentID int64, status models.Status) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	return s.Store.UpdateStudentStatus(studentID, status)
}

// DeleteStudent removes the roster record and every ledger entry the
// student owns.
func (s *Service) DeleteStudent(actor *models.Student, studentID int64) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	return s.Store.DeleteStudent(studentID)
}

type Statistics struct {
	Weekly   []store.DailyTotal `json:"weekly"`
	Monthly  []store.DailyTotal `json:"monthly"`
	Averages struct {
		Daily  float64 `json:"daily"`
		Weekly float64 `json:"weekly"`
	} `json:"averages"`
}

// GetStatistics shapes per-day totals for the last week and month plus
// simple averages for the dashboard charts.
func (s *Service) GetStatistics(studentID int64) (*Statistics, error) {
	now := time.Now()
	monthAgo, _ := policy.DayWindow(now.AddDate(0, 0, -29))
	weekAgo, _ := policy.DayWindow(now.AddDate(0, 0, -6))

	monthly, err := s.Store.DailyTotals(studentID, monthAgo)
	if err != nil {
		return nil, err
	}

	stats := &Statistics{
		Weekly:  []store.DailyTotal{},
		Monthly: monthly,
	}

	weekCutoff := time.Unix(weekAgo, 0).Format("2006-01-02")
	var monthTotal, weekTotal int
	for _, d := range monthly {
		monthTotal += d.Points
		if d.Day >= weekCutoff {
			stats.Weekly = append(stats.Weekly, d)
			weekTotal += d.Points
		}
	}

	// The daily average spans the days since the first entry in the
	// window, not a flat 30, so new students don't see diluted numbers.
	days := 30
	if len(monthly) > 0 {
		if first, err := time.Parse("2006-01-02", monthly[0].Day); err == nil {
			if span := int(now.Sub(first).Hours()/24) + 1; span < days {
				days = span
			}
		}
	}

	stats.Averages.Daily = float64(monthTotal) / float64(days)
	stats.Averages.Weekly = float64(weekTotal)

	return stats, nil
}

func (s *Service) Close() error {
	var errs []error

	if err := s.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	if err := s.Auth.Close(); err != nil {
		errs = append(errs, fmt.Errorf("auth: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors while closing: %v", errs)
	}
	return nil
}
