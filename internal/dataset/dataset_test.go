package dataset

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gpa(v float64) *float64 { return &v }

func sampleDataset(t *testing.T) *Dataset {
	t.Helper()

	b := NewBuilder()
	var counts GradeCounts
	counts[A] = 10
	counts[BPlus] = 3
	counts[W] = 2
	require.NoError(t, b.AddCourse("Waxman, J", "211", CourseRecord{CourseName: "Data Structures", AvgGPA: gpa(3.245), Grades: counts}))
	require.NoError(t, b.AddCourse("Waxman, J", "32", CourseRecord{CourseName: "Intro", Grades: GradeCounts{}}))
	require.NoError(t, b.AddCourse("  Lee,   K ", "101", CourseRecord{CourseName: "Programming I", AvgGPA: gpa(2.9)}))
	return b.Build()
}

func TestLabels_Order(t *testing.T) {
	var names []string
	for _, l := range Labels() {
		names = append(names, l.String())
	}
	assert.Equal(t, []string{"A+", "A", "A-", "B+", "B", "B-", "C+", "C", "C-", "D", "F", "W"}, names)
}

func TestParseGradeLabel(t *testing.T) {
	l, ok := ParseGradeLabel(" a+ ")
	assert.True(t, ok)
	assert.Equal(t, APlus, l)

	_, ok = ParseGradeLabel("D+")
	assert.False(t, ok)
}

func TestGradeCounts_MarshalKeepsLabelOrder(t *testing.T) {
	var c GradeCounts
	c[F] = 4
	c[APlus] = 1

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Equal(t, `{"A+":1,"A":0,"A-":0,"B+":0,"B":0,"B-":0,"C+":0,"C":0,"C-":0,"D":0,"F":4,"W":0}`, string(data))
	assert.Equal(t, 5, c.Total())
}

func TestGradeCounts_UnmarshalValidates(t *testing.T) {
	var c GradeCounts
	require.NoError(t, json.Unmarshal([]byte(`{"A":3,"W":1}`), &c))
	assert.Equal(t, 3, c.Get(A))
	assert.Equal(t, 1, c.Get(W))
	assert.Equal(t, 0, c.Get(B), "missing labels decode as zero")

	err := json.Unmarshal([]byte(`{"A":3,"P":1}`), &c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown grade label "P"`)

	err = json.Unmarshal([]byte(`{"A":-1}`), &c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "negative")

	err = json.Unmarshal([]byte(`{"A":1.5}`), &c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not an integer")
}

func TestBuilder_NormalizesKeysAndKeepsFirstDisplayName(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.AddCourse("Smith, J", "100", CourseRecord{CourseName: "A"}))
	require.NoError(t, b.AddCourse("SMITH,  J", "200", CourseRecord{CourseName: "B"}))

	d := b.Build()
	assert.Equal(t, []string{"smith, j"}, d.Keys())

	p, ok := d.Professor("smith, j")
	require.True(t, ok)
	assert.Equal(t, "Smith, J", p.DisplayName)
	assert.Equal(t, []string{"100", "200"}, p.CourseNumbers())
}

func TestBuilder_Errors(t *testing.T) {
	b := NewBuilder()

	assert.ErrorIs(t, b.AddCourse("   ", "100", CourseRecord{}), ErrEmptyProfessor)
	assert.ErrorIs(t, b.AddCourse("Smith", " ", CourseRecord{}), ErrEmptyCourse)

	require.NoError(t, b.AddCourse("Smith", "100", CourseRecord{}))
	assert.ErrorIs(t, b.AddCourse("smith", "100", CourseRecord{}), ErrDuplicateCourse)

	assert.ErrorIs(t, b.AddCourseWithKey("Smith", "Smith", "300", CourseRecord{}), ErrNonNormalizedKey)

	var counts GradeCounts
	counts[F] = -1
	assert.ErrorIs(t, b.AddCourse("Smith", "400", CourseRecord{Grades: counts}), ErrNegativeCount)
}

func TestBuilder_BuildIsDetached(t *testing.T) {
	b := NewBuilder()
	g := gpa(3.0)
	require.NoError(t, b.AddCourse("Smith", "100", CourseRecord{AvgGPA: g}))
	d := b.Build()

	*g = 1.0
	require.NoError(t, b.AddCourse("Smith", "200", CourseRecord{}))

	p, _ := d.Professor("smith")
	assert.Equal(t, 1, p.NumCourses())
	rec, _ := p.Course("100")
	v, ok := rec.GPA()
	assert.True(t, ok)
	assert.Equal(t, 3.0, v)

	*rec.AvgGPA = 0
	again, _ := p.Course("100")
	assert.Equal(t, 3.0, *again.AvgGPA)
}

func TestSortCourseNumbers(t *testing.T) {
	numbers := []string{"211", "32", "4A", "1010", "3B"}
	SortCourseNumbers(numbers)
	assert.Equal(t, []string{"32", "211", "1010", "3B", "4A"}, numbers)
}

func TestEncodeDecode_PreservesDataset(t *testing.T) {
	d := sampleDataset(t)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, d))
	assert.Contains(t, buf.String(), `"avg_gpa": null`)
	assert.Contains(t, buf.String(), `"name": "Lee,   K"`)

	got, err := Decode(&buf)
	require.NoError(t, err)

	if diff := cmp.Diff(d, got, cmp.AllowUnexported(Dataset{}, ProfessorRecord{})); diff != "" {
		t.Errorf("dataset mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_RejectsMalformedData(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"not an object", `[1,2]`, "decode dataset"},
		{"key not normalized", `{"Smith": {"name": "Smith", "courses": {}}}`, "not normalized"},
		{"unknown label", `{"smith": {"name": "Smith", "courses": {"1": {"course_name": "x", "avg_gpa": null, "grades": {"Z": 1}}}}}`, "unknown grade label"},
		{"empty course", `{"smith": {"name": "Smith", "courses": {" ": {"course_name": "x", "avg_gpa": null, "grades": {}}}}}`, "course number is empty"},
		{"empty key", `{"": {"name": "", "courses": {}}}`, "professor name is empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDecode_ProfessorWithoutCourses(t *testing.T) {
	d, err := Decode(strings.NewReader(`{"smith": {"name": "Smith", "courses": {}}}`))
	require.NoError(t, err)

	p, ok := d.Professor("smith")
	require.True(t, ok)
	assert.Equal(t, 0, p.NumCourses())
}

func TestSaveFile_ReplacesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "grade_data.json")
	require.NoError(t, SaveFile(path, sampleDataset(t)))

	b := NewBuilder()
	require.NoError(t, b.AddCourse("Only One", "1", CourseRecord{CourseName: "Solo"}))
	require.NoError(t, SaveFile(path, b.Build()))

	got, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"only one"}, got.Keys())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "open dataset")
}
