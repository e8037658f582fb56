package dataset

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

type courseJSON struct {
	CourseName string      `json:"course_name"`
	AvgGPA     *float64    `json:"avg_gpa"`
	Grades     GradeCounts `json:"grades"`
}

type professorJSON struct {
	Name    string                `json:"name"`
	Courses map[string]courseJSON `json:"courses"`
}

// Decode reads a dataset in its JSON form and validates every record.
func Decode(r io.Reader) (*Dataset, error) {
	var raw map[string]professorJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b := NewBuilder()
	for _, key := range keys {
		prof := raw[key]
		if err := b.EnsureProfessor(key, prof.Name); err != nil {
			return nil, fmt.Errorf("decode dataset: professor %q: %w", key, err)
		}
		for number, course := range prof.Courses {
			rec := CourseRecord{
				CourseName: course.CourseName,
				AvgGPA:     course.AvgGPA,
				Grades:     course.Grades,
			}
			if err := b.AddCourseWithKey(key, prof.Name, number, rec); err != nil {
				return nil, fmt.Errorf("decode dataset: professor %q course %q: %w", key, number, err)
			}
		}
	}
	return b.Build(), nil
}

// Encode writes the dataset as indented JSON.
func Encode(w io.Writer, d *Dataset) error {
	out := make(map[string]professorJSON, d.Len())
	for _, key := range d.Keys() {
		prof, _ := d.Professor(key)
		courses := make(map[string]courseJSON, prof.NumCourses())
		for _, number := range prof.CourseNumbers() {
			rec, _ := prof.Course(number)
			courses[number] = courseJSON{
				CourseName: rec.CourseName,
				AvgGPA:     rec.AvgGPA,
				Grades:     rec.Grades,
			}
		}
		out[key] = professorJSON{Name: prof.DisplayName, Courses: courses}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	return nil
}

// LoadFile reads a JSON dataset from path.
func LoadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	d, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// SaveFile replaces the file at path with the encoded dataset. The data is
// written to a temporary file in the same directory and renamed into place,
// so readers never observe a partially written file.
func SaveFile(path string, d *Dataset) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dataset directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp dataset: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("chmod temp dataset: %w", err)
	}
	if err = Encode(tmp, d); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync dataset: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close dataset: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace dataset: %w", err)
	}
	return nil
}
