package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/godilite/gradebot/internal/dataset"
	"github.com/godilite/gradebot/internal/repository/models"
)

const schema = `
	CREATE TABLE IF NOT EXISTS professors (
		key TEXT PRIMARY KEY,
		display_name TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS courses (
		professor_key TEXT NOT NULL REFERENCES professors(key) ON DELETE CASCADE,
		course_number TEXT NOT NULL,
		course_name TEXT NOT NULL,
		avg_gpa REAL,
		PRIMARY KEY (professor_key, course_number)
	);
	CREATE TABLE IF NOT EXISTS grade_counts (
		professor_key TEXT NOT NULL,
		course_number TEXT NOT NULL,
		label TEXT NOT NULL,
		count INTEGER NOT NULL CHECK (count >= 0),
		PRIMARY KEY (professor_key, course_number, label),
		FOREIGN KEY (professor_key, course_number)
			REFERENCES courses(professor_key, course_number) ON DELETE CASCADE
	);
`

// GradeRepository persists a dataset in SQLite.
type GradeRepository struct {
	db *sql.DB
}

func NewGradeRepository(db *sql.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// Migrate creates the tables if they do not exist.
func (r *GradeRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate grade tables: %w", err)
	}
	return nil
}

// SaveDataset replaces the stored dataset with d in one transaction.
func (r *GradeRepository) SaveDataset(ctx context.Context, d *dataset.Dataset) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{"grade_counts", "courses", "professors"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	profStmt, err := tx.PrepareContext(ctx, `INSERT INTO professors (key, display_name) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare professors: %w", err)
	}
	defer profStmt.Close()

	courseStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO courses (professor_key, course_number, course_name, avg_gpa)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare courses: %w", err)
	}
	defer courseStmt.Close()

	gradeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO grade_counts (professor_key, course_number, label, count)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare grade_counts: %w", err)
	}
	defer gradeStmt.Close()

	for _, key := range d.Keys() {
		prof, _ := d.Professor(key)
		if _, err = profStmt.ExecContext(ctx, prof.Key, prof.DisplayName); err != nil {
			return fmt.Errorf("insert professor %q: %w", key, err)
		}

		for _, number := range prof.CourseNumbers() {
			course, _ := prof.Course(number)
			var gpa sql.NullFloat64
			if v, ok := course.GPA(); ok {
				gpa = sql.NullFloat64{Float64: v, Valid: true}
			}
			if _, err = courseStmt.ExecContext(ctx, key, number, course.CourseName, gpa); err != nil {
				return fmt.Errorf("insert course %q/%q: %w", key, number, err)
			}

			for _, label := range dataset.Labels() {
				if _, err = gradeStmt.ExecContext(ctx, key, number, label.String(), course.Grades.Get(label)); err != nil {
					return fmt.Errorf("insert grades %q/%q: %w", key, number, err)
				}
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// LoadDataset reads the stored dataset.
func (r *GradeRepository) LoadDataset(ctx context.Context) (*dataset.Dataset, error) {
	b := dataset.NewBuilder()

	professors, err := r.professors(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range professors {
		if err := b.EnsureProfessor(p.Key, p.DisplayName); err != nil {
			return nil, fmt.Errorf("load professor %q: %w", p.Key, err)
		}
	}

	courses, err := r.courses(ctx)
	if err != nil {
		return nil, err
	}

	counts, err := r.gradeCounts(ctx)
	if err != nil {
		return nil, err
	}

	for _, c := range courses {
		rec := dataset.CourseRecord{
			CourseName: c.CourseName,
			Grades:     counts[[2]string{c.ProfessorKey, c.CourseNumber}],
		}
		if c.AvgGPA.Valid {
			v := c.AvgGPA.Float64
			rec.AvgGPA = &v
		}
		if err := b.AddCourseWithKey(c.ProfessorKey, "", c.CourseNumber, rec); err != nil {
			return nil, fmt.Errorf("load course %q/%q: %w", c.ProfessorKey, c.CourseNumber, err)
		}
	}

	return b.Build(), nil
}

// Summary counts stored professors, courses and graded students.
func (r *GradeRepository) Summary(ctx context.Context) (models.StoreSummary, error) {
	const query = `
		SELECT
			(SELECT COUNT(*) FROM professors),
			(SELECT COUNT(*) FROM courses),
			(SELECT COALESCE(SUM(count), 0) FROM grade_counts)
	`
	var s models.StoreSummary
	if err := r.db.QueryRowContext(ctx, query).Scan(&s.Professors, &s.Courses, &s.Students); err != nil {
		return models.StoreSummary{}, fmt.Errorf("query Summary: %w", err)
	}
	return s, nil
}

func (r *GradeRepository) professors(ctx context.Context) ([]models.ProfessorRow, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, display_name FROM professors ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("query professors: %w", err)
	}
	defer rows.Close()

	var out []models.ProfessorRow
	for rows.Next() {
		var p models.ProfessorRow
		if err := rows.Scan(&p.Key, &p.DisplayName); err != nil {
			return nil, fmt.Errorf("scan professor: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *GradeRepository) courses(ctx context.Context) ([]models.CourseRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT professor_key, course_number, course_name, avg_gpa
		FROM courses
		ORDER BY professor_key, course_number`)
	if err != nil {
		return nil, fmt.Errorf("query courses: %w", err)
	}
	defer rows.Close()

	var out []models.CourseRow
	for rows.Next() {
		var c models.CourseRow
		if err := rows.Scan(&c.ProfessorKey, &c.CourseNumber, &c.CourseName, &c.AvgGPA); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *GradeRepository) gradeCounts(ctx context.Context) (map[[2]string]dataset.GradeCounts, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT professor_key, course_number, label, count FROM grade_counts`)
	if err != nil {
		return nil, fmt.Errorf("query grade_counts: %w", err)
	}
	defer rows.Close()

	out := make(map[[2]string]dataset.GradeCounts)
	for rows.Next() {
		var g models.GradeCountRow
		if err := rows.Scan(&g.ProfessorKey, &g.CourseNumber, &g.Label, &g.Count); err != nil {
			return nil, fmt.Errorf("scan grade count: %w", err)
		}
		label, ok := dataset.ParseGradeLabel(g.Label)
		if !ok {
			return nil, fmt.Errorf("unknown grade label %q for %q/%q", g.Label, g.ProfessorKey, g.CourseNumber)
		}
		key := [2]string{g.ProfessorKey, g.CourseNumber}
		counts := out[key]
		counts[label] = g.Count
		out[key] = counts
	}
	return out, rows.Err()
}
