package services

import (
	"path/filepath"
	"testing"
	"time"

	"inkwell/internal/database"
	"inkwell/internal/models"
)

func testRunLog(t *testing.T) *RunLogService {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "inkwell.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Initialize(); err != nil {
		t.Fatalf("failed to initialize schema: %v", err)
	}
	return NewRunLogService(db)
}

func sampleResult(runID string, status models.RunStatus) *models.RunResult {
	content := "output"
	return &models.RunResult{
		Content:  &content,
		Status:   status,
		Warnings: []string{"a warning"},
		Debug: &models.RunDebugContext{
			RunID:          runID,
			Provider:       models.ProviderAnthropic,
			ModelAlias:     "claude-sonnet-4.5",
			ModelID:        "claude-sonnet-4-5",
			EstimatedInput: 1200,
			StartedAt:      time.Now(),
			DurationMs:     840,
		},
	}
}

func TestRunLogRecordAndQuery(t *testing.T) {
	log := testRunLog(t)

	log.Record("draft", "continue", sampleResult("run-1", models.RunSuccess))
	log.Record("draft", "rewrite", sampleResult("run-2", models.RunRejected))
	log.Record("synopsis", "condense", sampleResult("run-3", models.RunSuccess))

	records, err := log.RecentByFeature("draft", 10)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 draft runs, got %d", len(records))
	}
	for _, rec := range records {
		if rec.Feature != "draft" {
			t.Errorf("leaked feature %s", rec.Feature)
		}
		if rec.Debug == nil || rec.Debug.ModelAlias != "claude-sonnet-4.5" {
			t.Error("debug context must round-trip")
		}
		if len(rec.Warnings) != 1 {
			t.Errorf("warnings must round-trip, got %v", rec.Warnings)
		}
	}
}

func TestRunLogRecordsFailuresWithoutDebug(t *testing.T) {
	log := testRunLog(t)

	// A run rejected before model selection carries no debug context but
	// must still leave a history row.
	log.Record("draft", "continue", &models.RunResult{
		Status:   models.RunUnavailable,
		Warnings: []string{"AI is disabled in settings"},
	})

	records, err := log.RecentByFeature("draft", 10)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.ID == "" {
		t.Error("record must carry a generated id")
	}
	if rec.Feature != "draft" || rec.Status != models.RunUnavailable {
		t.Errorf("record content wrong: %+v", rec)
	}
	if rec.ModelAlias != "" || rec.Debug != nil {
		t.Errorf("pre-selection failure must not carry model data: %+v", rec)
	}
	if len(rec.Warnings) != 1 {
		t.Errorf("warnings must round-trip, got %v", rec.Warnings)
	}
}

func TestRunLogCleanup(t *testing.T) {
	log := testRunLog(t)
	log.Record("draft", "continue", sampleResult("run-1", models.RunSuccess))

	deleted, err := log.Cleanup(24 * time.Hour)
	if err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if deleted != 0 {
		t.Errorf("fresh runs must survive cleanup, deleted %d", deleted)
	}

	deleted, err = log.Cleanup(-time.Hour)
	if err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected the run to be deleted, got %d", deleted)
	}
}
