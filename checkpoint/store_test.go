package checkpoint

import (
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/strider/neural"
)

func testWeights(t *testing.T, seed int64) neural.Weights {
	t.Helper()
	c, err := neural.New(rand.New(rand.NewSource(seed)), 30, 8, 4)
	if err != nil {
		t.Fatal(err)
	}
	return c.MarshalWeights()
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "models")
	s := NewStore(dir)
	w := testWeights(t, 1)

	path, err := s.Save(3, w)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if path != filepath.Join(dir, "generation_3.json") {
		t.Errorf("path = %q", path)
	}

	gen, loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if gen != 3 {
		t.Errorf("generation = %d, want 3", gen)
	}
	if loaded.Arch != w.Arch || len(loaded.W1) != len(w.W1) {
		t.Fatalf("loaded arch %+v, want %+v", loaded.Arch, w.Arch)
	}
	for i := range w.W1 {
		if loaded.W1[i] != w.W1[i] {
			t.Fatalf("W1[%d] = %v, want %v", i, loaded.W1[i], w.W1[i])
		}
	}
}

func TestSaveRefusesOverwrite(t *testing.T) {
	s := NewStore(t.TempDir())
	first := testWeights(t, 1)

	if _, err := s.Save(1, first); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Save(1, testWeights(t, 2)); !errors.Is(err, ErrExists) {
		t.Fatalf("second Save error = %v, want ErrExists", err)
	}

	_, got, err := Load(s.Path(1))
	if err != nil {
		t.Fatal(err)
	}
	if got.W1[0] != first.W1[0] {
		t.Error("existing checkpoint was modified")
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	if _, err := s.Save(1, testWeights(t, 1)); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "generation_1.json" {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Errorf("dir contents = %v, want [generation_1.json]", names)
	}
}

func TestParseGeneration(t *testing.T) {
	tests := []struct {
		path    string
		want    int
		wantErr bool
	}{
		{"generation_1.json", 1, false},
		{"models/generation_42.json", 42, false},
		{"best_7.pth", 7, false},
		{"generation_0.json", 0, true},
		{"generation_-3.json", 0, true},
		{"generation_x.json", 0, true},
		{"generation.json", 0, true},
		{"generation_5", 0, true},
		{"generation_5_final.json", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := ParseGeneration(tt.path)
			if tt.wantErr {
				var fe *FormatError
				if !errors.As(err, &fe) {
					t.Errorf("ParseGeneration(%q) error = %v, want *FormatError", tt.path, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseGeneration(%q) = %d, %v; want %d", tt.path, got, err, tt.want)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	corrupt := filepath.Join(dir, "generation_2.json")
	if err := os.WriteFile(corrupt, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	mismatched := filepath.Join(dir, "generation_4.json")
	if err := os.WriteFile(mismatched, []byte(`{"inputs":30,"hidden":8,"outputs":4,"w1":[1]}`), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		path     string
		wantRead bool
	}{
		{"bad name", filepath.Join(dir, "weights.json"), false},
		{"missing file", filepath.Join(dir, "generation_9.json"), true},
		{"corrupt json", corrupt, true},
		{"shape mismatch", mismatched, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Load(tt.path)
			var re *ReadError
			var fe *FormatError
			switch {
			case tt.wantRead && !errors.As(err, &re):
				t.Errorf("Load error = %v, want *ReadError", err)
			case !tt.wantRead && !errors.As(err, &fe):
				t.Errorf("Load error = %v, want *FormatError", err)
			}
		})
	}
}

func TestLatest(t *testing.T) {
	s := NewStore(t.TempDir())

	if _, err := s.Latest(); !errors.Is(err, ErrNoCheckpoints) {
		t.Errorf("Latest() on empty store error = %v, want ErrNoCheckpoints", err)
	}

	for _, g := range []int{2, 10, 9} {
		if _, err := s.Save(g, testWeights(t, int64(g))); err != nil {
			t.Fatal(err)
		}
	}
	// Unparseable names are ignored.
	if err := os.WriteFile(filepath.Join(s.Dir(), "generation_best.json"), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	latest, err := s.Latest()
	if err != nil {
		t.Fatal(err)
	}
	if latest.Generation != 10 || latest.Path != s.Path(10) {
		t.Errorf("Latest() = %+v, want generation 10", latest)
	}

	entries, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 || entries[0].Generation != 2 || entries[1].Generation != 9 {
		t.Errorf("List() = %+v", entries)
	}
}
