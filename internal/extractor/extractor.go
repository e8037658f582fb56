// Package extractor turns an HTML grade report into a grade dataset.
//
// The report contains any number of tables. Those exposing a professor column
// and at least one letter-grade column are concatenated, filtered to one
// subject, and aggregated per professor and course number.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/godilite/gradebot/internal/dataset"
	"go.uber.org/zap"
)

var ErrNoMatchingTables = errors.New("no tables with a professor column and grade breakdown")

// Report summarizes one extraction run.
type Report struct {
	TablesFound         int
	TablesMatched       int
	RowsRead            int
	RowsFilteredOut     int
	RowsMissingKey      int
	GradeCellsDefaulted int
	GPARowsSkipped      int
	Professors          int
	Courses             int
}

func (r Report) fields() []zap.Field {
	return []zap.Field{
		zap.Int("tables_found", r.TablesFound),
		zap.Int("tables_matched", r.TablesMatched),
		zap.Int("rows_read", r.RowsRead),
		zap.Int("rows_filtered_out", r.RowsFilteredOut),
		zap.Int("rows_missing_key", r.RowsMissingKey),
		zap.Int("grade_cells_defaulted", r.GradeCellsDefaulted),
		zap.Int("gpa_rows_skipped", r.GPARowsSkipped),
		zap.Int("professors", r.Professors),
		zap.Int("courses", r.Courses),
	}
}

type Extractor struct {
	profile Profile
	logger  *zap.Logger
}

// New creates an extractor for the given column profile.
func New(profile Profile, logger *zap.Logger) *Extractor {
	if len(profile.Professor) == 0 {
		panic("extractor profile must name a professor column")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		profile: profile,
		logger:  logger.Named("extractor"),
	}
}

// Extract parses the report read from r and aggregates it.
func (e *Extractor) Extract(ctx context.Context, r io.Reader) (*dataset.Dataset, Report, error) {
	var report Report

	tables, err := ParseTables(r)
	if err != nil {
		return nil, report, err
	}
	report.TablesFound = len(tables)
	e.logger.Debug("parsed report tables", zap.Int("tables", len(tables)))

	type matched struct {
		table  Table
		schema schema
	}
	var retained []matched
	filterBySubject := false
	for _, t := range tables {
		s := e.profile.resolve(t.Columns)
		if !s.qualifies() {
			continue
		}
		retained = append(retained, matched{table: t, schema: s})
		if s.subject >= 0 {
			filterBySubject = true
		}
	}
	report.TablesMatched = len(retained)
	if len(retained) == 0 {
		return nil, report, fmt.Errorf("%w (found %d tables)", ErrNoMatchingTables, len(tables))
	}
	filterBySubject = filterBySubject && e.profile.Subject != ""

	agg := newAggregator(&report)
	for _, m := range retained {
		if err := ctx.Err(); err != nil {
			return nil, report, err
		}
		for _, row := range m.table.Rows {
			report.RowsRead++
			if filterBySubject && !e.subjectMatches(m.table, m.schema, row) {
				report.RowsFilteredOut++
				continue
			}
			agg.add(m.table, m.schema, row)
		}
	}

	ds, err := agg.build()
	if err != nil {
		return nil, report, fmt.Errorf("build dataset: %w", err)
	}
	report.Professors = ds.Len()
	report.Courses = ds.NumCourses()

	if report.GradeCellsDefaulted > 0 || report.GPARowsSkipped > 0 {
		e.logger.Warn("skipped unparsable numeric cells",
			zap.Int("grade_cells_defaulted", report.GradeCellsDefaulted),
			zap.Int("gpa_rows_skipped", report.GPARowsSkipped))
	}
	e.logger.Info("extraction finished", report.fields()...)

	return ds, report, nil
}

// ExtractFile reads the report at path.
func (e *Extractor) ExtractFile(ctx context.Context, path string) (*dataset.Dataset, Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Report{}, fmt.Errorf("open report: %w", err)
	}
	defer f.Close()

	return e.Extract(ctx, f)
}

func (e *Extractor) subjectMatches(t Table, s schema, row []string) bool {
	if s.subject < 0 {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(t.Cell(row, s.subject)), e.profile.Subject)
}
