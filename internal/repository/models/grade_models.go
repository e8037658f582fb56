package models

import "database/sql"

type ProfessorRow struct {
	Key         string
	DisplayName string
}

type CourseRow struct {
	ProfessorKey string
	CourseNumber string
	CourseName   string
	AvgGPA       sql.NullFloat64
}

type GradeCountRow struct {
	ProfessorKey string
	CourseNumber string
	Label        string
	Count        int
}

type StoreSummary struct {
	Professors int64
	Courses    int64
	Students   int64
}
