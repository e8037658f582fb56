package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/godilite/gradebot/internal/dataset"
)

var (
	ErrEmptyQuery        = errors.New("empty query")
	ErrProfessorNotFound = errors.New("professor not found")
	ErrCourseNotFound    = errors.New("course not found")
)

// CourseNotFoundError reports a course number the resolved professor does not
// teach. It matches ErrCourseNotFound with errors.Is.
type CourseNotFoundError struct {
	Professor string
	Course    string
}

func (e *CourseNotFoundError) Error() string {
	return fmt.Sprintf("course %s not found for %s", e.Course, e.Professor)
}

func (e *CourseNotFoundError) Is(target error) bool {
	return target == ErrCourseNotFound
}

// Resolution is a query resolved against the dataset. Course is nil when the
// query named only a professor.
type Resolution struct {
	Professor    dataset.ProfessorRecord
	CourseNumber string
	Course       *dataset.CourseRecord
}

// Resolve matches the longest leading run of tokens in args against the
// professor keys. The token right after the match, if any, is the course
// number; anything after it is ignored.
func Resolve(data *dataset.Dataset, args string) (Resolution, error) {
	tokens := strings.Fields(args)
	if len(tokens) == 0 {
		return Resolution{}, ErrEmptyQuery
	}

	for i := len(tokens); i > 0; i-- {
		prof, ok := data.Professor(strings.ToLower(strings.Join(tokens[:i], " ")))
		if !ok {
			continue
		}

		res := Resolution{Professor: prof}
		if i == len(tokens) {
			return res, nil
		}

		number := tokens[i]
		course, ok := prof.Course(number)
		if !ok {
			return Resolution{}, &CourseNotFoundError{Professor: prof.DisplayName, Course: number}
		}
		res.CourseNumber = number
		res.Course = &course
		return res, nil
	}

	return Resolution{}, ErrProfessorNotFound
}
