package reporting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mamadbah2/shiftboard/internal/domain/models"
	repo "github.com/mamadbah2/shiftboard/internal/repository/sheets"
	"github.com/mamadbah2/shiftboard/internal/service/analysis"
)

const (
	dateLayout        = "2006-01-02"
	defaultFanOut     = 4
	defaultSheetRange = "Relatorios!A:H"
)

// RecordSource loads record snapshots.
type RecordSource interface {
	Snapshot(ctx context.Context, filter models.RecordFilter) ([]models.HourlyRecord, error)
}

// SummaryService publishes one row per line and day to the reporting spreadsheet.
type SummaryService struct {
	records    RecordSource
	sheet      repo.Repository
	sheetRange string
	analyzer   *analysis.Analyzer
	lines      []models.LineCode
	fanOut     int
	logger     *zap.Logger
}

// NewSummaryService wires a new summary publisher.
func NewSummaryService(records RecordSource, sheet repo.Repository, sheetRange string, analyzer *analysis.Analyzer, lines []models.LineCode, logger *zap.Logger) *SummaryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sheetRange == "" {
		sheetRange = defaultSheetRange
	}
	if analyzer == nil {
		analyzer = analysis.NewAnalyzer(nil)
	}
	return &SummaryService{
		records:    records,
		sheet:      sheet,
		sheetRange: sheetRange,
		analyzer:   analyzer,
		lines:      lines,
		fanOut:     defaultFanOut,
		logger:     logger,
	}
}

// SummaryRow is one published line-day.
type SummaryRow struct {
	Day    models.CalendarDate
	Line   models.LineCode
	Result analysis.DayResult
}

// Values renders the row in sheet column order: date, line, target, actual, efficiency,
// scheduled minutes, unplanned minutes, stoppage count.
func (r SummaryRow) Values() []interface{} {
	values := []interface{}{r.Day.String(), string(r.Line), 0.0, 0.0, "", 0.0, 0.0, 0}
	if r.Result.Totals != nil {
		values[2] = r.Result.Totals.Target
		values[3] = r.Result.Totals.Actual
		values[7] = r.Result.Totals.StoppageCount
	}
	if pct, ok := r.Result.EfficiencyPercent(); ok {
		values[4] = pct
	}
	if r.Result.Efficiency != nil {
		values[5] = r.Result.Efficiency.ScheduledMinutes
		values[6] = r.Result.Efficiency.UnscheduledMinutes
	}
	return values
}

// PublishDay analyzes every known line for day and appends the rows that are not in the sheet
// yet. Lines without records on day are skipped. It returns the number of rows appended.
func (s *SummaryService) PublishDay(ctx context.Context, day models.CalendarDate) (int, error) {
	published, err := s.publishedLines(ctx, day)
	if err != nil {
		return 0, err
	}

	rows := make([]*SummaryRow, len(s.lines))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanOut)
	for i, line := range s.lines {
		if published[line] {
			continue
		}
		g.Go(func() error {
			records, err := s.records.Snapshot(gctx, models.RecordFilter{Line: line})
			if err != nil {
				return fmt.Errorf("load records for line %s: %w", line, err)
			}
			result := s.analyzer.AnalyzeDay(records, day, "")
			if result.Empty {
				return nil
			}
			rows[i] = &SummaryRow{Day: day, Line: line, Result: result}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	appended := 0
	for _, row := range rows {
		if row == nil {
			continue
		}
		if err := s.sheet.AppendRow(ctx, s.sheetRange, row.Values()); err != nil {
			return appended, fmt.Errorf("publish summary for line %s: %w", row.Line, err)
		}
		appended++
	}

	s.logger.Info("daily summary published",
		zap.String("day", day.String()),
		zap.Int("rows", appended),
		zap.Int("already_published", len(published)))
	return appended, nil
}

func (s *SummaryService) publishedLines(ctx context.Context, day models.CalendarDate) (map[models.LineCode]bool, error) {
	existing, err := s.sheet.ReadRange(ctx, s.sheetRange)
	if err != nil {
		return nil, fmt.Errorf("load summary range: %w", err)
	}

	published := make(map[models.LineCode]bool)
	for _, row := range existing {
		if len(row) < 2 {
			continue
		}
		rowDay, err := parseDate(row[0])
		if err != nil {
			s.logger.Debug("skip summary row with invalid date", zap.Any("value", row[0]), zap.Error(err))
			continue
		}
		if models.DateOf(rowDay).Equal(day) {
			published[models.LineCode(strings.TrimSpace(fmt.Sprint(row[1])))] = true
		}
	}
	return published, nil
}

func parseDate(value interface{}) (time.Time, error) {
	str := fmt.Sprint(value)
	if str == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if len(str) > 10 {
		str = str[:10]
	}
	return time.Parse(dateLayout, str)
}
