package store

import (
	"path/filepath"
	"testing"
	"time"
)

// createTestStore opens a fresh ledger with a fixed clock.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	s.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func createTestArtifact(year, file string) Artifact {
	return Artifact{
		Year:      year,
		File:      file,
		Path:      filepath.Join("downloaded", year, file+".csv"),
		SourceURL: "https://wwwn.cdc.gov/Nchs/Nhanes/" + year + "/" + file,
		Rows:      10,
		Columns:   3,
		SHA256:    "abc123",
		RunID:     "run-1",
	}
}
