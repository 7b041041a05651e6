package storage

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/masahif/wordcrawler/internal/crawler"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	storage, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	t.Cleanup(func() { _ = storage.Close() })
	return storage
}

func TestSQLiteStorage(t *testing.T) {
	storage := newTestStorage(t)

	started := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	run := &Run{
		StartedAt:      started,
		Duration:       1500 * time.Millisecond,
		URLsVisited:    2,
		MaxDepth:       10,
		Parallelism:    4,
		Implementation: "parallel",
		SeedURLs:       []string{"https://example.com"},
		Words:          []crawler.WordCount{{Word: "dog", Count: 4}, {Word: "cat", Count: 3}},
	}

	t.Run("SaveRun", func(t *testing.T) {
		id, err := storage.SaveRun(run)
		if err != nil {
			t.Fatalf("Failed to save run: %v", err)
		}
		if id <= 0 || run.ID != id {
			t.Errorf("Expected positive id assigned to run, got %d (run.ID=%d)", id, run.ID)
		}
	})

	t.Run("GetRun", func(t *testing.T) {
		got, err := storage.GetRun(run.ID)
		if err != nil {
			t.Fatalf("Failed to get run: %v", err)
		}
		if !got.StartedAt.Equal(started) {
			t.Errorf("StartedAt = %v, want %v", got.StartedAt, started)
		}
		if got.Duration != run.Duration {
			t.Errorf("Duration = %v, want %v", got.Duration, run.Duration)
		}
		if got.URLsVisited != 2 || got.MaxDepth != 10 || got.Parallelism != 4 {
			t.Errorf("Unexpected run fields: %+v", got)
		}
		if got.Implementation != "parallel" {
			t.Errorf("Implementation = %q, want parallel", got.Implementation)
		}
		if !reflect.DeepEqual(got.SeedURLs, run.SeedURLs) {
			t.Errorf("SeedURLs = %v, want %v", got.SeedURLs, run.SeedURLs)
		}
		if !reflect.DeepEqual(got.Words, run.Words) {
			t.Errorf("Words = %v, want %v", got.Words, run.Words)
		}
	})

	t.Run("GetRunNotFound", func(t *testing.T) {
		_, err := storage.GetRun(9999)
		if !errors.Is(err, ErrRunNotFound) {
			t.Errorf("Expected ErrRunNotFound, got %v", err)
		}
	})

	t.Run("MetaOperations", func(t *testing.T) {
		value, err := storage.GetMeta("missing")
		if err != nil || value != "" {
			t.Errorf("GetMeta(missing) = %q, %v", value, err)
		}
		if err := storage.SetMeta("last_seed", "https://example.com"); err != nil {
			t.Fatalf("SetMeta() error = %v", err)
		}
		if err := storage.SetMeta("last_seed", "https://other.example"); err != nil {
			t.Fatalf("SetMeta() overwrite error = %v", err)
		}
		value, err = storage.GetMeta("last_seed")
		if err != nil || value != "https://other.example" {
			t.Errorf("GetMeta(last_seed) = %q, %v", value, err)
		}
	})
}

func TestListRuns(t *testing.T) {
	storage := newTestStorage(t)

	for i := 1; i <= 3; i++ {
		_, err := storage.SaveRun(&Run{
			StartedAt:      time.Now(),
			URLsVisited:    i,
			MaxDepth:       1,
			Parallelism:    1,
			Implementation: "sequential",
			Words:          []crawler.WordCount{{Word: "w", Count: i}},
		})
		if err != nil {
			t.Fatalf("SaveRun(%d) error = %v", i, err)
		}
	}

	tests := []struct {
		name    string
		limit   int
		visited []int
	}{
		{"all", 0, []int{3, 2, 1}},
		{"limited", 2, []int{3, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, err := storage.ListRuns(tt.limit)
			if err != nil {
				t.Fatalf("ListRuns() error = %v", err)
			}
			var visited []int
			for _, r := range runs {
				visited = append(visited, r.URLsVisited)
				if r.Words != nil {
					t.Errorf("ListRuns() should not load words, got %v", r.Words)
				}
			}
			if !reflect.DeepEqual(visited, tt.visited) {
				t.Errorf("ListRuns() visited = %v, want %v", visited, tt.visited)
			}
		})
	}
}

func TestSaveRunWithoutWords(t *testing.T) {
	storage := newTestStorage(t)

	id, err := storage.SaveRun(&Run{StartedAt: time.Now(), Implementation: "parallel"})
	if err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	words, err := storage.GetRunWords(id)
	if err != nil {
		t.Fatalf("GetRunWords() error = %v", err)
	}
	if len(words) != 0 {
		t.Errorf("Expected no words, got %v", words)
	}
}

func TestSaveRunRejectsUnknownImplementation(t *testing.T) {
	storage := newTestStorage(t)

	_, err := storage.SaveRun(&Run{StartedAt: time.Now(), Implementation: "quantum"})
	if err == nil {
		t.Fatal("Expected constraint error for unknown implementation")
	}

	runs, err := storage.ListRuns(0)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("Failed insert left %d runs behind", len(runs))
	}
}

func TestDeleteRun(t *testing.T) {
	storage := newTestStorage(t)

	id, err := storage.SaveRun(&Run{
		StartedAt:      time.Now(),
		Implementation: "parallel",
		Words:          []crawler.WordCount{{Word: "a", Count: 1}},
	})
	if err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	if err := storage.DeleteRun(id); err != nil {
		t.Fatalf("DeleteRun() error = %v", err)
	}
	words, err := storage.GetRunWords(id)
	if err != nil {
		t.Fatalf("GetRunWords() error = %v", err)
	}
	if len(words) != 0 {
		t.Errorf("Words survived run deletion: %v", words)
	}
	if err := storage.DeleteRun(id); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Second DeleteRun() error = %v, want ErrRunNotFound", err)
	}
}
