package database

import (
	"path/filepath"
	"testing"
)

func TestCopyRuns(t *testing.T) {
	src, err := Open(filepath.Join(t.TempDir(), "source.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer src.Close()

	first := sampleRun()
	second := sampleRun()
	second.Seed = 7
	for _, r := range []*Run{first, second} {
		if _, err := src.SaveRun(r); err != nil {
			t.Fatalf("SaveRun() failed: %v", err)
		}
	}

	for name, dst := range getTestDatabases(t) {
		t.Run(name, func(t *testing.T) {
			result, err := CopyRuns(src, dst, true)
			if err != nil {
				t.Fatalf("dry run failed: %v", err)
			}
			if result.Copied != 2 || result.Skipped != 0 {
				t.Errorf("dry run result = %+v", result)
			}
			if runs, _ := dst.ListRuns(10); len(runs) != 0 {
				t.Fatalf("dry run wrote %d runs", len(runs))
			}

			result, err = CopyRuns(src, dst, false)
			if err != nil {
				t.Fatalf("CopyRuns() failed: %v", err)
			}
			if result.Copied != 2 {
				t.Errorf("result = %+v, want 2 copied", result)
			}

			runs, err := dst.ListRuns(10)
			if err != nil {
				t.Fatal(err)
			}
			if len(runs) != 2 || runs[0].Seed != 7 || runs[1].Seed != 42 {
				t.Fatalf("copied runs = %+v", runs)
			}
			copied, err := dst.GetRunWithPlacements(runs[1].ID)
			if err != nil {
				t.Fatal(err)
			}
			if len(copied.Placements) != 4 || !copied.Placements[3].Contradiction {
				t.Errorf("copied placements = %+v", copied.Placements)
			}
			if _, err := copied.Map(); err != nil {
				t.Errorf("copied run does not verify: %v", err)
			}

			result, err = CopyRuns(src, dst, false)
			if err != nil {
				t.Fatalf("second CopyRuns() failed: %v", err)
			}
			if result.Copied != 0 || result.Skipped != 2 {
				t.Errorf("second copy = %+v, want all skipped", result)
			}
		})
	}
}
