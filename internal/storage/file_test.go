package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/xaenox/assistant-relay/internal/models"
	"go.uber.org/zap"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	dir := t.TempDir()
	store, err := NewFileStore(
		filepath.Join(dir, "message_count.json"),
		filepath.Join(dir, "questions_answers.json"),
		filepath.Join(dir, "file.lock"),
		zap.NewNop(),
	)
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	return store
}

func TestCounterRoundTrip(t *testing.T) {
	store := newTestFileStore(t)

	want := models.UsageCounter{Date: "2024-11-05", Count: 42}
	if err := store.SetCounter(want); err != nil {
		t.Fatalf("SetCounter() error: %v", err)
	}

	got, err := store.GetCounter()
	if err != nil {
		t.Fatalf("GetCounter() error: %v", err)
	}
	if got != want {
		t.Fatalf("GetCounter() = %+v, want %+v", got, want)
	}

	// The on-disk shape is the fixed {"date","count"} object.
	data, err := os.ReadFile(store.counterPath)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("counter file is not valid JSON: %v", err)
	}
	if raw["date"] != "2024-11-05" || raw["count"] != float64(42) {
		t.Fatalf("unexpected counter file contents: %v", raw)
	}
}

func TestMissingCounterIsFresh(t *testing.T) {
	store := newTestFileStore(t)

	got, err := store.GetCounter()
	if err != nil {
		t.Fatalf("GetCounter() error: %v", err)
	}
	if got != (models.UsageCounter{}) {
		t.Fatalf("expected zero counter, got %+v", got)
	}
}

func TestCorruptCounterIsFresh(t *testing.T) {
	store := newTestFileStore(t)
	if err := os.WriteFile(store.counterPath, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetCounter()
	if err != nil {
		t.Fatalf("GetCounter() error: %v", err)
	}
	if got != (models.UsageCounter{}) {
		t.Fatalf("expected zero counter for corrupt file, got %+v", got)
	}
}

func TestAppendQARoundTrip(t *testing.T) {
	store := newTestFileStore(t)

	first := models.NewQARecord(7, "alice", "q1", "a1", time.Date(2024, 11, 5, 9, 30, 0, 0, time.UTC))
	want := models.NewQARecord(8, "bob", "q2", "a2", time.Date(2024, 11, 5, 10, 0, 0, 0, time.UTC))

	if err := store.AppendQA(first); err != nil {
		t.Fatalf("AppendQA() error: %v", err)
	}
	if err := store.AppendQA(want); err != nil {
		t.Fatalf("AppendQA() error: %v", err)
	}

	records, err := store.ListQA()
	if err != nil {
		t.Fatalf("ListQA() error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[len(records)-1] != want {
		t.Fatalf("last record = %+v, want %+v", records[len(records)-1], want)
	}
	if records[1].Timestamp != "2024-11-05T10:00:00Z" {
		t.Fatalf("unexpected timestamp format: %q", records[1].Timestamp)
	}
}

func TestAppendQAInitializesMissingFile(t *testing.T) {
	store := newTestFileStore(t)

	records, err := store.ListQA()
	if err != nil {
		t.Fatalf("ListQA() on missing file error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty log, got %d records", len(records))
	}

	record := models.NewQARecord(1, "u", "q", "a", time.Now())
	if err := store.AppendQA(record); err != nil {
		t.Fatalf("AppendQA() error: %v", err)
	}

	data, err := os.ReadFile(store.qaPath)
	if err != nil {
		t.Fatal(err)
	}
	var arr []models.QARecord
	if err := json.Unmarshal(data, &arr); err != nil {
		t.Fatalf("QA file is not a JSON array: %v", err)
	}
	if len(arr) != 1 {
		t.Fatalf("expected 1 record on disk, got %d", len(arr))
	}
}

func TestConcurrentAppendsKeepEveryRecord(t *testing.T) {
	store := newTestFileStore(t)

	const n = 20
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			record := models.NewQARecord(int64(i), "user", "q", "a", time.Now())
			if err := store.AppendQA(record); err != nil {
				t.Errorf("AppendQA() error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	records, err := store.ListQA()
	if err != nil {
		t.Fatalf("ListQA() error: %v", err)
	}
	if len(records) != n {
		t.Fatalf("expected %d records, got %d", n, len(records))
	}
}
