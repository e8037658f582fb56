package extractor

import (
	"math"
	"strconv"
	"strings"

	"github.com/godilite/gradebot/internal/dataset"
)

// maxGradeCount bounds a grade sum so it stays exact in a float64 and fits an
// int on every platform.
const maxGradeCount = math.MaxInt32

type groupKey struct {
	professor string
	number    string
}

type group struct {
	displayName string
	number      string
	courseName  string
	sums        [dataset.NumLabels]float64

	hasWeights     bool
	weightedGPASum float64
	students       float64
}

// aggregator groups report rows by (professor key, course number) in
// first-seen order.
type aggregator struct {
	report *Report
	groups map[groupKey]*group
	order  []groupKey
}

func newAggregator(report *Report) *aggregator {
	return &aggregator{
		report: report,
		groups: make(map[groupKey]*group),
	}
}

func (a *aggregator) add(t Table, s schema, row []string) {
	displayName := strings.TrimSpace(t.Cell(row, s.professor))
	profKey := dataset.NormalizeKey(displayName)
	number := normalizeCourseNumber(t.Cell(row, s.number))
	if profKey == "" || number == "" {
		a.report.RowsMissingKey++
		return
	}

	key := groupKey{professor: profKey, number: number}
	g, ok := a.groups[key]
	if !ok {
		g = &group{
			displayName: displayName,
			number:      number,
			courseName:  strings.TrimSpace(t.Cell(row, s.name)),
		}
		a.groups[key] = g
		a.order = append(a.order, key)
	}

	for label, idx := range s.grades {
		if idx < 0 {
			continue
		}
		n, ok := parseNumber(t.Cell(row, idx))
		if !ok || n < 0 || n != math.Trunc(n) || g.sums[label]+n > maxGradeCount {
			a.report.GradeCellsDefaulted++
			continue
		}
		g.sums[label] += n
	}

	if !s.hasWeights() {
		return
	}
	g.hasWeights = true

	gpaCell := t.Cell(row, s.gpa)
	totalCell := t.Cell(row, s.total)
	gpa, okGPA := parseNumber(gpaCell)
	total, okTotal := parseNumber(totalCell)
	if !okGPA || !okTotal || strings.TrimSpace(gpaCell) == "" || strings.TrimSpace(totalCell) == "" || total < 0 {
		a.report.GPARowsSkipped++
		return
	}
	total = math.Trunc(total)
	g.weightedGPASum += gpa * total
	g.students += total
}

// build inserts every group into a dataset builder.
func (a *aggregator) build() (*dataset.Dataset, error) {
	b := dataset.NewBuilder()
	for _, key := range a.order {
		g := a.groups[key]

		var counts dataset.GradeCounts
		for i, sum := range g.sums {
			counts[i] = int(sum)
		}

		rec := dataset.CourseRecord{
			CourseName: g.courseName,
			AvgGPA:     weightedAverage(g),
			Grades:     counts,
		}
		if err := b.AddCourse(g.displayName, g.number, rec); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

func weightedAverage(g *group) *float64 {
	if !g.hasWeights || g.students <= 0 {
		return nil
	}
	avg := math.Round(g.weightedGPASum/g.students*1000) / 1000
	return &avg
}

// parseNumber reads a numeric report cell. An empty cell is zero; thousands
// separators are ignored.
func parseNumber(cell string) (float64, bool) {
	cell = strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	if cell == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// normalizeCourseNumber trims a course number and drops the ".0" suffix a
// spreadsheet export leaves on integral values.
func normalizeCourseNumber(cell string) string {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return ""
	}
	if v, err := strconv.ParseFloat(cell, 64); err == nil && v == math.Trunc(v) && !math.IsInf(v, 0) && strings.Contains(cell, ".") {
		return strconv.FormatInt(int64(v), 10)
	}
	return cell
}
