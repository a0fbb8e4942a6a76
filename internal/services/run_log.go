package services

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"inkwell/internal/database"
	"inkwell/internal/models"
)

// RunRecord is one persisted run history row.
type RunRecord struct {
	ID             string                  `json:"id"`
	Feature        string                  `json:"feature"`
	Task           string                  `json:"task"`
	Provider       models.Provider         `json:"provider"`
	ModelAlias     string                  `json:"model_alias"`
	Status         models.RunStatus        `json:"status"`
	Reason         models.RejectReason     `json:"reason,omitempty"`
	FromCache      bool                    `json:"from_cache"`
	RetryCount     int                     `json:"retry_count"`
	EstimatedInput int                     `json:"estimated_input_tokens"`
	DurationMs     int64                   `json:"duration_ms"`
	Warnings       []string                `json:"warnings,omitempty"`
	Debug          *models.RunDebugContext `json:"debug,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
}

// RunLogService persists run history and the per-feature debug trail.
type RunLogService struct {
	db *database.DB
}

// NewRunLogService creates the run log over an initialized database.
func NewRunLogService(db *database.DB) *RunLogService {
	return &RunLogService{db: db}
}

// Record stores one run. Runs that fail before a model is selected carry no
// debug context and get a minimal row with a generated id, so every attempt
// leaves a trace. Logging failures never fail the run itself.
func (s *RunLogService) Record(feature, task string, result *models.RunResult) {
	if result == nil {
		return
	}

	id := uuid.New().String()
	var provider, alias string
	var estimatedInput int
	var durationMs int64
	var debugJSON []byte

	if debug := result.Debug; debug != nil {
		id = debug.RunID
		provider = string(debug.Provider)
		alias = debug.ModelAlias
		estimatedInput = debug.EstimatedInput
		durationMs = debug.DurationMs
		if data, err := json.Marshal(debug); err == nil {
			debugJSON = data
		}
	}

	warnings, err := json.Marshal(result.Warnings)
	if err != nil {
		warnings = []byte("[]")
	}

	_, err = s.db.Exec(`
		INSERT INTO runs (id, feature, task, provider, model_alias, status, reason,
			from_cache, retry_count, estimated_input_tokens, duration_ms, warnings, debug_context, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, feature, task, provider, alias,
		string(result.Status), string(result.Reason),
		boolToInt(result.FromCache), result.RetryCount, estimatedInput,
		durationMs, string(warnings), nullableString(debugJSON), time.Now().UTC(),
	)
	if err != nil {
		log.Printf("⚠️ [RUNLOG] Failed to record run %s: %v", id, err)
	}
}

// RecentByFeature returns the most recent runs for a feature, newest first.
func (s *RunLogService) RecentByFeature(feature string, limit int) ([]RunRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	rows, err := s.db.Query(`
		SELECT id, feature, task, provider, model_alias, status, reason,
			from_cache, retry_count, estimated_input_tokens, duration_ms, warnings, debug_context, created_at
		FROM runs WHERE feature = ? ORDER BY created_at DESC LIMIT ?`, feature, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var rec RunRecord
		var provider, status, reason, warningsJSON string
		var debugJSON *string
		var fromCache int

		if err := rows.Scan(&rec.ID, &rec.Feature, &rec.Task, &provider, &rec.ModelAlias,
			&status, &reason, &fromCache, &rec.RetryCount, &rec.EstimatedInput,
			&rec.DurationMs, &warningsJSON, &debugJSON, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		rec.Provider = models.Provider(provider)
		rec.Status = models.RunStatus(status)
		rec.Reason = models.RejectReason(reason)
		rec.FromCache = fromCache != 0
		_ = json.Unmarshal([]byte(warningsJSON), &rec.Warnings)
		if debugJSON != nil && *debugJSON != "" {
			var debug models.RunDebugContext
			if json.Unmarshal([]byte(*debugJSON), &debug) == nil {
				rec.Debug = &debug
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Cleanup removes runs older than the retention window and returns the
// number deleted.
func (s *RunLogService) Cleanup(retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	result, err := s.db.Exec(`DELETE FROM runs WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up runs: %w", err)
	}
	deleted, _ := result.RowsAffected()
	if deleted > 0 {
		log.Printf("🧹 [RUNLOG] Deleted %d runs older than %s", deleted, retention)
	}
	return deleted, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableString(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
