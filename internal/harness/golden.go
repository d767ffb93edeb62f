package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden runs m and compares the report summary against
// testdata/golden/{m.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, h *Harness, m *Manifest) (*Report, error) {
	t.Helper()

	report, err := h.Run(context.Background(), m)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, m.Name, report)
	return report, nil
}

// AssertGolden compares an existing report's summary against the golden
// file called name.
func AssertGolden(t *testing.T, name string, report *Report) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(report.Summary()))
}
