package extractor

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/godilite/gradebot/internal/dataset"
	"gopkg.in/yaml.v3"
)

// Profile names the report columns the extractor reads. Every list holds
// aliases; the first alias present in a table wins.
type Profile struct {
	// Subject is the subject code rows are filtered to. Empty disables the filter.
	Subject       string   `yaml:"subject"`
	Professor     []string `yaml:"professor"`
	CourseNumber  []string `yaml:"course_number"`
	CourseName    []string `yaml:"course_name"`
	SubjectColumn []string `yaml:"subject_column"`
	Total         []string `yaml:"total"`
	// GPA lists exact GPA column names. When empty, the first column whose
	// name contains both "GPA" and "AVG" is used.
	GPA []string `yaml:"gpa"`
}

// DefaultProfile matches the column names of the registrar's grade report.
func DefaultProfile() Profile {
	return Profile{
		Subject:       "CSCI",
		Professor:     []string{"PROF", "PROFESSOR", "INSTRUCTOR"},
		CourseNumber:  []string{"NBR"},
		CourseName:    []string{"COURSE NAME"},
		SubjectColumn: []string{"SUBJECT"},
		Total:         []string{"TOTAL"},
	}
}

// LoadProfile reads a YAML column profile. Keys missing from the file keep
// their default values; unknown keys are rejected.
func LoadProfile(path string) (Profile, error) {
	profile := DefaultProfile()

	f, err := os.Open(path)
	if err != nil {
		return Profile{}, fmt.Errorf("open column profile: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&profile); err != nil && !errors.Is(err, io.EOF) {
		return Profile{}, fmt.Errorf("decode column profile %s: %w", path, err)
	}

	if len(profile.Professor) == 0 {
		return Profile{}, fmt.Errorf("column profile %s: professor aliases must not be empty", path)
	}
	return profile, nil
}

// normalizeColumn uppercases a header and collapses its whitespace.
func normalizeColumn(name string) string {
	return strings.ToUpper(strings.Join(strings.Fields(name), " "))
}

// schema maps the columns of one table to the fields the aggregator reads.
// Missing columns are -1.
type schema struct {
	professor int
	number    int
	name      int
	subject   int
	total     int
	gpa       int
	grades    [dataset.NumLabels]int
}

func (s schema) qualifies() bool {
	if s.professor < 0 {
		return false
	}
	for _, idx := range s.grades {
		if idx >= 0 {
			return true
		}
	}
	return false
}

func (s schema) hasWeights() bool {
	return s.gpa >= 0 && s.total >= 0
}

func (p Profile) resolve(columns []string) schema {
	index := make(map[string]int, len(columns))
	for i, col := range columns {
		key := normalizeColumn(col)
		if _, seen := index[key]; !seen {
			index[key] = i
		}
	}

	find := func(aliases []string) int {
		for _, alias := range aliases {
			if i, ok := index[normalizeColumn(alias)]; ok {
				return i
			}
		}
		return -1
	}

	s := schema{
		professor: find(p.Professor),
		number:    find(p.CourseNumber),
		name:      find(p.CourseName),
		subject:   find(p.SubjectColumn),
		total:     find(p.Total),
		gpa:       find(p.GPA),
	}
	if len(p.GPA) == 0 {
		s.gpa = -1
		for i, col := range columns {
			norm := normalizeColumn(col)
			if strings.Contains(norm, "GPA") && strings.Contains(norm, "AVG") {
				s.gpa = i
				break
			}
		}
	}

	for i := range s.grades {
		s.grades[i] = -1
	}
	for i, col := range columns {
		label, ok := dataset.ParseGradeLabel(col)
		if ok && s.grades[label] < 0 {
			s.grades[label] = i
		}
	}
	return s
}
