// Package dataset defines the grade distribution dataset shared by the
// extractor and the query server, together with its on-disk JSON encoding.
//
// A Dataset is immutable once built. Accessors hand out copies so callers
// can never mutate the records another goroutine is reading.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrEmptyProfessor   = errors.New("professor name is empty")
	ErrEmptyCourse      = errors.New("course number is empty")
	ErrDuplicateCourse  = errors.New("course already recorded for professor")
	ErrInvalidGPA       = errors.New("average gpa is not a finite number")
	ErrNonNormalizedKey = errors.New("professor key is not normalized")
	ErrNegativeCount    = errors.New("grade count is negative")
)

// CourseRecord is the aggregated grade data for one professor/course pair.
type CourseRecord struct {
	CourseName string
	// AvgGPA is nil when no enrollment-weighted GPA could be computed.
	AvgGPA *float64
	Grades GradeCounts
}

// GPA reports the weighted average GPA and whether one is available.
func (c CourseRecord) GPA() (float64, bool) {
	if c.AvgGPA == nil {
		return 0, false
	}
	return *c.AvgGPA, true
}

func (c CourseRecord) clone() CourseRecord {
	if c.AvgGPA != nil {
		v := *c.AvgGPA
		c.AvgGPA = &v
	}
	return c
}

// ProfessorRecord groups a professor's courses under their display name.
type ProfessorRecord struct {
	Key         string
	DisplayName string
	courses     map[string]CourseRecord
}

// Course returns the record for a course number.
func (p ProfessorRecord) Course(number string) (CourseRecord, bool) {
	rec, ok := p.courses[number]
	if !ok {
		return CourseRecord{}, false
	}
	return rec.clone(), true
}

// CourseNumbers lists the professor's course numbers in ascending order.
func (p ProfessorRecord) CourseNumbers() []string {
	numbers := make([]string, 0, len(p.courses))
	for n := range p.courses {
		numbers = append(numbers, n)
	}
	SortCourseNumbers(numbers)
	return numbers
}

// NumCourses returns how many courses the professor has data for.
func (p ProfessorRecord) NumCourses() int {
	return len(p.courses)
}

// Dataset maps professor keys to their records.
type Dataset struct {
	professors map[string]ProfessorRecord
}

// Len returns the number of professors.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.professors)
}

// Keys returns every professor key in sorted order.
func (d *Dataset) Keys() []string {
	if d == nil {
		return nil
	}
	keys := make([]string, 0, len(d.professors))
	for k := range d.professors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Professor looks up a record by its exact key.
func (d *Dataset) Professor(key string) (ProfessorRecord, bool) {
	if d == nil {
		return ProfessorRecord{}, false
	}
	p, ok := d.professors[key]
	return p, ok
}

// NumCourses counts course records across all professors.
func (d *Dataset) NumCourses() int {
	if d == nil {
		return 0
	}
	total := 0
	for _, p := range d.professors {
		total += len(p.courses)
	}
	return total
}

// NormalizeKey lowercases a professor name, trims it and collapses runs of
// whitespace so the key can be matched against space-joined command tokens.
func NormalizeKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// SortCourseNumbers orders course numbers numerically when both sides are
// integers and lexically otherwise.
func SortCourseNumbers(numbers []string) {
	sort.SliceStable(numbers, func(i, j int) bool {
		a, errA := strconv.Atoi(numbers[i])
		b, errB := strconv.Atoi(numbers[j])
		switch {
		case errA == nil && errB == nil:
			if a != b {
				return a < b
			}
			return numbers[i] < numbers[j]
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return numbers[i] < numbers[j]
		}
	})
}

// Builder assembles a Dataset. It is not safe for concurrent use.
type Builder struct {
	professors map[string]*ProfessorRecord
}

func NewBuilder() *Builder {
	return &Builder{professors: make(map[string]*ProfessorRecord)}
}

// AddCourse records a course for the professor named displayName. The
// professor is created on first encounter and keeps that first display name.
func (b *Builder) AddCourse(displayName, courseNumber string, rec CourseRecord) error {
	key := NormalizeKey(displayName)
	if key == "" {
		return ErrEmptyProfessor
	}
	return b.add(key, strings.TrimSpace(displayName), courseNumber, rec)
}

// AddCourseWithKey records a course under an explicit key, which must already
// be normalized. Used when decoding stored datasets.
func (b *Builder) AddCourseWithKey(key, displayName, courseNumber string, rec CourseRecord) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyProfessor
	}
	if NormalizeKey(key) != key {
		return fmt.Errorf("%w: %q", ErrNonNormalizedKey, key)
	}
	return b.add(key, displayName, courseNumber, rec)
}

// EnsureProfessor registers a professor that may have no courses.
func (b *Builder) EnsureProfessor(key, displayName string) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyProfessor
	}
	if NormalizeKey(key) != key {
		return fmt.Errorf("%w: %q", ErrNonNormalizedKey, key)
	}
	b.professor(key, displayName)
	return nil
}

func (b *Builder) add(key, displayName, courseNumber string, rec CourseRecord) error {
	courseNumber = strings.TrimSpace(courseNumber)
	if courseNumber == "" {
		return fmt.Errorf("%w (professor %q)", ErrEmptyCourse, key)
	}
	if rec.AvgGPA != nil && (math.IsNaN(*rec.AvgGPA) || math.IsInf(*rec.AvgGPA, 0)) {
		return fmt.Errorf("%w (professor %q, course %s)", ErrInvalidGPA, key, courseNumber)
	}
	for _, label := range Labels() {
		if n := rec.Grades.Get(label); n < 0 {
			return fmt.Errorf("%w: %s=%d (professor %q, course %s)", ErrNegativeCount, label, n, key, courseNumber)
		}
	}

	prof := b.professor(key, displayName)
	if _, exists := prof.courses[courseNumber]; exists {
		return fmt.Errorf("%w: %s %s", ErrDuplicateCourse, key, courseNumber)
	}
	prof.courses[courseNumber] = rec.clone()
	return nil
}

func (b *Builder) professor(key, displayName string) *ProfessorRecord {
	prof, ok := b.professors[key]
	if !ok {
		prof = &ProfessorRecord{
			Key:         key,
			DisplayName: displayName,
			courses:     make(map[string]CourseRecord),
		}
		b.professors[key] = prof
	}
	return prof
}

// Build freezes the builder's contents into a Dataset. The builder may keep
// being used; later additions do not affect the returned value.
func (b *Builder) Build() *Dataset {
	out := make(map[string]ProfessorRecord, len(b.professors))
	for key, prof := range b.professors {
		courses := make(map[string]CourseRecord, len(prof.courses))
		for n, rec := range prof.courses {
			courses[n] = rec.clone()
		}
		out[key] = ProfessorRecord{
			Key:         prof.Key,
			DisplayName: prof.DisplayName,
			courses:     courses,
		}
	}
	return &Dataset{professors: out}
}
