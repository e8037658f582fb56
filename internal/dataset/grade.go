package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// GradeLabel is one of the fixed letter-grade categories reported per course.
type GradeLabel int

const (
	APlus GradeLabel = iota
	A
	AMinus
	BPlus
	B
	BMinus
	CPlus
	C
	CMinus
	D
	F
	W

	numLabels
)

// NumLabels is the size of the grade label set.
const NumLabels = int(numLabels)

var labelNames = [numLabels]string{"A+", "A", "A-", "B+", "B", "B-", "C+", "C", "C-", "D", "F", "W"}

// Labels returns every grade label in display order.
func Labels() []GradeLabel {
	out := make([]GradeLabel, numLabels)
	for i := range out {
		out[i] = GradeLabel(i)
	}
	return out
}

func (g GradeLabel) String() string {
	if g < 0 || g >= numLabels {
		return fmt.Sprintf("GradeLabel(%d)", int(g))
	}
	return labelNames[g]
}

// ParseGradeLabel matches a column header or JSON key against the label set.
// Surrounding whitespace and letter case are ignored.
func ParseGradeLabel(s string) (GradeLabel, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, name := range labelNames {
		if s == name {
			return GradeLabel(i), true
		}
	}
	return 0, false
}

// GradeCounts holds one non-negative count per grade label.
type GradeCounts [numLabels]int

// Get returns the count recorded for label.
func (c GradeCounts) Get(label GradeLabel) int {
	if label < 0 || label >= numLabels {
		return 0
	}
	return c[label]
}

// Total sums the counts across all labels.
func (c GradeCounts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// MarshalJSON writes the counts as an object whose keys follow label order.
func (c GradeCounts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range labelNames {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(name)
		buf.Write(key)
		buf.WriteByte(':')
		fmt.Fprintf(&buf, "%d", c[i])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON rejects unknown labels and negative counts. Labels that are
// absent from the object decode as zero.
func (c *GradeCounts) UnmarshalJSON(data []byte) error {
	var raw map[string]json.Number
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("grades: %w", err)
	}

	var out GradeCounts
	for key, value := range raw {
		label, ok := ParseGradeLabel(key)
		if !ok {
			return fmt.Errorf("grades: unknown grade label %q", key)
		}
		n, err := value.Int64()
		if err != nil {
			return fmt.Errorf("grades[%s]: count %q is not an integer", key, value.String())
		}
		if n < 0 {
			return fmt.Errorf("grades[%s]: count %d is negative", key, n)
		}
		out[label] = int(n)
	}
	*c = out
	return nil
}
