package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/godilite/gradebot/internal/dataset"
)

// Formatter renders resolutions as chat text.
type Formatter struct {
	Subject string
	Prefix  string
}

func (f Formatter) Course(prof dataset.ProfessorRecord, number string, course dataset.CourseRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s - %s (%s %s)**\n", prof.DisplayName, course.CourseName, f.Subject, number)
	fmt.Fprintf(&b, "Average GPA: %s\n\n", formatGPA(course))
	b.WriteString("Grade Breakdown:")
	for _, label := range dataset.Labels() {
		fmt.Fprintf(&b, "\n%s: %d", label, course.Grades.Get(label))
	}
	return b.String()
}

func (f Formatter) Listing(prof dataset.ProfessorRecord) string {
	numbers := prof.CourseNumbers()
	if len(numbers) == 0 {
		return fmt.Sprintf("No course data found for %s.", prof.DisplayName)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s** teaches the following courses:", prof.DisplayName)
	for _, n := range numbers {
		course, _ := prof.Course(n)
		fmt.Fprintf(&b, "\n%s %s: %s", f.Subject, n, course.CourseName)
	}
	fmt.Fprintf(&b, "\n\nTo see grade breakdown for a course, use: %s [professor] [course number] (e.g., %s %s %s)",
		f.Prefix, f.Prefix, prof.Key, numbers[0])
	return b.String()
}

// formatGPA prints the GPA the way a float literal reads, keeping a trailing
// ".0" on whole values.
func formatGPA(course dataset.CourseRecord) string {
	gpa, ok := course.GPA()
	if !ok {
		return "unavailable"
	}
	s := strconv.FormatFloat(gpa, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
