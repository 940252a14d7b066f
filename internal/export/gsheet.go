package export

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/kardemumma/internal/app"
	"github.com/shrimpsizemoose/kardemumma/internal/ranking"
	"github.com/shrimpsizemoose/kardemumma/internal/store"
)

// GSheetExporter pushes per-section leaderboards to Google Sheets on a
// schedule, so instructors can project standings without touching the API.
type GSheetExporter struct {
	config    *app.Config
	store     store.Store
	scheduler *gocron.Scheduler
}

func NewGSheetExporter(config *app.Config, store store.Store) (*GSheetExporter, error) {
	ctx := context.Background()
	scheduler := gocron.NewScheduler(time.UTC)

	exporter := &GSheetExporter{
		config:    config,
		store:     store,
		scheduler: scheduler,
	}

	for section, targets := range config.GSheet {
		for _, target := range targets {
			svc, err := sheets.NewService(ctx, option.WithCredentialsFile(target.CredentialsPath))
			if err != nil {
				return nil, fmt.Errorf("failed to create sheets service: %w", err)
			}

			every := target.EveryMinutes
			if every <= 0 {
				every = 60
			}

			section := section
			target := target
			_, err = scheduler.Every(every).Minutes().Do(func() {
				if err := exporter.exportLeaderboard(ctx, svc, section, target); err != nil {
					logger.Error.Printf("Export failed for section %s: %v", section, err)
				}
			})
			if err != nil {
				return nil, fmt.Errorf("failed to schedule export: %w", err)
			}

			logger.Info.Printf(
				"Scheduled leaderboard export for section %s every %d minutes",
				section,
				every,
			)
		}
	}

	scheduler.StartAsync()

	return exporter, nil
}

func (e *GSheetExporter) exportLeaderboard(ctx context.Context, svc *sheets.Service, section string, target app.GSheetConfig) error {
	students, err := e.store.ListStudents()
	if err != nil {
		return fmt.Errorf("failed to fetch roster: %w", err)
	}
	entries, err := e.store.ListAllEntries()
	if err != nil {
		return fmt.Errorf("failed to fetch ledger: %w", err)
	}

	board := ranking.Rank(ranking.FilterSection(students, section), entries, 0)

	values := [][]interface{}{
		{"Rank", "Student ID", "Name", "Section", "Total Points", "Exported At"},
	}
	exportedAt := time.Now().UTC().Format("2006-01-02 15:04:05")
	for _, entry := range board {
		values = append(values, []interface{}{
			entry.Rank,
			entry.StudentID,
			entry.Name,
			entry.Section,
			entry.TotalPoints,
			exportedAt,
		})
	}

	vr := &sheets.ValueRange{Values: values}
	_, err = svc.Spreadsheets.Values.
		Update(target.SpreadsheetID, fmt.Sprintf("%s!A1", target.SheetName), vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to update sheet: %w", err)
	}

	logger.Debug.Printf("Exported %d leaderboard rows for section %s", len(board), section)
	return nil
}

func (e *GSheetExporter) Stop() {
	e.scheduler.Stop()
}
