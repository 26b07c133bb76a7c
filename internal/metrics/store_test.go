package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"ai-fitness-planner/internal/database"
	"ai-fitness-planner/internal/shared"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "metrics.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	store := NewStore(db.SQL)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreRecordAndDailyUsage(t *testing.T) {
	store := newTestStore(t)

	if err := store.RecordMeta(shared.AgentMeta{
		AgentName: "Coach",
		Usage:     shared.TokenUsage{PromptTokens: 300, CompletionTokens: 900, Model: "gemini-2.5-flash"},
		Latency:   2 * time.Second,
	}); err != nil {
		t.Fatalf("RecordMeta failed: %v", err)
	}
	if err := store.RecordMeta(shared.AgentMeta{AgentName: "Coach", Failed: true}); err != nil {
		t.Fatalf("RecordMeta failed: %v", err)
	}
	// No usage and no failure: skipped
	if err := store.RecordMeta(shared.AgentMeta{AgentName: "Coach"}); err != nil {
		t.Fatalf("RecordMeta failed: %v", err)
	}

	usage, err := store.GetDailyUsage(7)
	if err != nil {
		t.Fatalf("GetDailyUsage failed: %v", err)
	}
	if len(usage) != 1 {
		t.Fatalf("Expected 1 day of usage, got %d", len(usage))
	}
	day := usage[0]
	if day.Date != time.Now().UTC().Format("2006-01-02") {
		t.Errorf("Expected today's date, got '%s'", day.Date)
	}
	if day.TotalPrompt != 300 || day.TotalCompletion != 900 {
		t.Errorf("Unexpected token totals: %+v", day)
	}
	if day.TotalExecution != 2 || day.TotalFailed != 1 {
		t.Errorf("Expected 2 executions with 1 failure, got %+v", day)
	}
}

func TestStoreCleanup(t *testing.T) {
	store := newTestStore(t)

	old := ExecutionMetric{AgentName: "Coach", PromptTokens: 1, Timestamp: time.Now().AddDate(0, 0, -40)}
	recent := ExecutionMetric{AgentName: "Coach", PromptTokens: 1}
	if err := store.Record(old); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := store.Record(recent); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	affected, err := store.Cleanup(30)
	if err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if affected != 1 {
		t.Errorf("Expected 1 removed record, got %d", affected)
	}

	usage, err := store.GetDailyUsage(365)
	if err != nil {
		t.Fatalf("GetDailyUsage failed: %v", err)
	}
	if len(usage) != 1 || usage[0].TotalExecution != 1 {
		t.Errorf("Expected only the recent record to remain, got %+v", usage)
	}
}

func TestGetSysHealth(t *testing.T) {
	h := GetSysHealth("")
	if h.Goroutines < 1 {
		t.Errorf("Expected at least one goroutine, got %d", h.Goroutines)
	}
	if h.DataDiskSize != "" {
		t.Errorf("Expected no disk size without a data path, got '%s'", h.DataDiskSize)
	}
	if got := formatBytes(1536); got != "1.5 KB" {
		t.Errorf("Expected '1.5 KB', got '%s'", got)
	}
}

func TestGetSysHealthCountsOnlyDatabaseFiles(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "metrics.db")
	if err := os.WriteFile(dbPath, make([]byte, 1000), 0o644); err != nil {
		t.Fatalf("Failed to write db file: %v", err)
	}
	if err := os.WriteFile(dbPath+"-wal", make([]byte, 500), 0o644); err != nil {
		t.Fatalf("Failed to write wal file: %v", err)
	}

	unrelated := filepath.Join(dir, "unrelated", "deep")
	if err := os.MkdirAll(unrelated, 0o755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(unrelated, "big.bin"), make([]byte, 5<<20), 0o644); err != nil {
		t.Fatalf("Failed to write unrelated file: %v", err)
	}

	if got := GetSysHealth(dbPath).DataDiskSize; got != "1.5 KB" {
		t.Errorf("Expected '1.5 KB' for the db and wal files only, got '%s'", got)
	}
	if got := GetSysHealth(filepath.Join(dir, "missing.db")).DataDiskSize; got != "0 B" {
		t.Errorf("Expected '0 B' for a missing db, got '%s'", got)
	}
}
