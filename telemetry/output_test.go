package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/strider/config"
)

func TestNewOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, %v; want nil, nil", om, err)
	}
	// Nil manager methods are no-ops.
	if err := om.WriteGeneration(GenerationStats{}); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}

func TestOutputManagerWritesCSVWithSingleHeader(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	for g := 1; g <= 3; g++ {
		if err := om.WriteGeneration(GenerationStats{RunID: "abc", Generation: g, BestFitness: float64(g * 10)}); err != nil {
			t.Fatal(err)
		}
	}
	if err := om.WriteBookmark(Bookmark{RunID: "abc", Type: BookmarkNewRecord, Generation: 2, Description: "x"}); err != nil {
		t.Fatal(err)
	}
	if err := om.WritePerf(PerfStatsCSV{RunID: "abc", Generation: 1, Tick: 60}); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	if err := om.WriteConfig(&cfg); err != nil {
		t.Fatal(err)
	}
	if err := om.WriteHallOfFame(NewHallOfFame(2)); err != nil {
		t.Fatal(err)
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "generations.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("generations.csv has %d lines, want 4 (header + 3):\n%s", len(lines), data)
	}
	if !strings.HasPrefix(lines[0], "run_id,generation,") {
		t.Errorf("header = %q", lines[0])
	}
	if strings.Count(string(data), "run_id") != 1 {
		t.Error("header written more than once")
	}

	for _, name := range []string{"perf.csv", "bookmarks.csv", "config.yaml", "hall_of_fame.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s missing: %v", name, err)
		}
	}
}
