package service

import "github.com/godilite/gradebot/internal/dataset"

type ResultKind string

const (
	KindCourse  ResultKind = "course"
	KindListing ResultKind = "listing"
)

// Result is the answer to one grades query.
type Result struct {
	Kind         ResultKind
	Text         string
	ProfessorKey string
	Professor    string
	CourseNumber string
	// Course is set only for KindCourse.
	Course *dataset.CourseRecord
}
