// Package observability provides structured logging, metrics and tracing
// for behavior tree runs.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
// Every Log* helper accepts a nil logger and does nothing with it.
package observability

import (
	"fmt"
	"log/slog"
)

// EnrichLogger adds tree context to a logger.
// Returns a new logger with run_id, node_id and label fields.
//
// Example:
//
//	enriched := EnrichLogger(logger, "run-123", "root.0", "CheckHour")
//	enriched.Info("hour checked") // includes run_id, node_id, label
func EnrichLogger(logger *slog.Logger, runID, nodeID, label string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("run_id", runID),
		slog.String("node_id", nodeID),
		slog.String("label", label),
	)
}

// LogRunStart logs the start of a tree run.
func LogRunStart(logger *slog.Logger, runID, tree string) {
	if logger == nil {
		return
	}
	logger.Info("tree run starting",
		slog.String("run_id", runID),
		slog.String("tree", tree),
	)
}

// LogRunComplete logs a run that ended in success or failure.
func LogRunComplete(logger *slog.Logger, runID, outcome string, durationMs float64, nodeCount int) {
	if logger == nil {
		return
	}
	logger.Info("tree run completed",
		slog.String("run_id", runID),
		slog.String("outcome", outcome),
		slog.Float64("duration_ms", durationMs),
		slog.Int("nodes_executed", nodeCount),
	)
}

// LogRunPanic logs a run that ended in a panic result.
func LogRunPanic(logger *slog.Logger, runID string, err error, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Error("tree run panicked",
		slog.String("run_id", runID),
		slog.String("error", errString(err)),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogRunRejected logs a run that could not start.
func LogRunRejected(logger *slog.Logger, runID string, err error) {
	if logger == nil {
		return
	}
	logger.Error("tree run rejected",
		slog.String("run_id", runID),
		slog.String("error", errString(err)),
	)
}

// LogNodeStart logs node execution start.
func LogNodeStart(logger *slog.Logger, nodeID, label string) {
	if logger == nil {
		return
	}
	logger.Debug("node starting",
		slog.String("node_id", nodeID),
		slog.String("label", label),
	)
}

// LogNodeComplete logs a node's result.
func LogNodeComplete(logger *slog.Logger, nodeID, label, outcome string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("node completed",
		slog.String("node_id", nodeID),
		slog.String("label", label),
		slog.String("outcome", outcome),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogNodeCanceled logs a node canceled before it ran.
func LogNodeCanceled(logger *slog.Logger, label string) {
	if logger == nil {
		return
	}
	logger.Debug("node canceled",
		slog.String("label", label),
	)
}

// LogBranchAborted logs a combinator that stopped before its next child.
func LogBranchAborted(logger *slog.Logger, nodeID, label, reason string) {
	if logger == nil {
		return
	}
	logger.Info("branch aborted",
		slog.String("node_id", nodeID),
		slog.String("label", label),
		slog.String("reason", reason),
	)
}

// LogDuplicateCallback logs a completion callback invoked more than once.
// The extra call is dropped; the node has a bug.
func LogDuplicateCallback(logger *slog.Logger, nodeID, label, outcome string) {
	if logger == nil {
		return
	}
	logger.Warn("duplicate completion callback dropped",
		slog.String("node_id", nodeID),
		slog.String("label", label),
		slog.String("outcome", outcome),
	)
}

// LogRecoveredPanic logs a Go panic recovered from a node's Execute.
func LogRecoveredPanic(logger *slog.Logger, nodeID, label string, value any) {
	if logger == nil {
		return
	}
	logger.Error("node panicked",
		slog.String("node_id", nodeID),
		slog.String("label", label),
		slog.String("panic", fmt.Sprint(value)),
	)
}

// LogSnapshot logs a saved tree snapshot.
func LogSnapshot(logger *slog.Logger, nodeID string, sizeBytes int) {
	if logger == nil {
		return
	}
	logger.Debug("snapshot saved",
		slog.String("node_id", nodeID),
		slog.Int("size_bytes", sizeBytes),
	)
}

// LogSnapshotError logs snapshot failure (non-fatal).
func LogSnapshotError(logger *slog.Logger, nodeID string, op string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("snapshot failed",
		slog.String("node_id", nodeID),
		slog.String("operation", op),
		slog.String("error", errString(err)),
	)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
