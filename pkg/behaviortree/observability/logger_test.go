package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testHandler captures log records for testing.
type testHandler struct {
	buf   *bytes.Buffer
	level slog.Level
	attrs []slog.Attr
}

func newTestHandler() *testHandler {
	return &testHandler{
		buf:   &bytes.Buffer{},
		level: slog.LevelDebug,
	}
}

func (h *testHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *testHandler) Handle(_ context.Context, r slog.Record) error {
	data := map[string]any{
		"level": r.Level.String(),
		"msg":   r.Message,
	}
	for _, attr := range h.attrs {
		data[attr.Key] = attr.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		data[a.Key] = a.Value.Any()
		return true
	})
	return json.NewEncoder(h.buf).Encode(data)
}

func (h *testHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newH := &testHandler{
		buf:   h.buf,
		level: h.level,
		attrs: make([]slog.Attr, 0, len(h.attrs)+len(attrs)),
	}
	newH.attrs = append(newH.attrs, h.attrs...)
	newH.attrs = append(newH.attrs, attrs...)
	return newH
}

func (h *testHandler) WithGroup(string) slog.Handler {
	return h
}

func (h *testHandler) getLastRecord() map[string]any {
	records := h.getAllRecords()
	if len(records) == 0 {
		return nil
	}
	return records[len(records)-1]
}

func (h *testHandler) getAllRecords() []map[string]any {
	var records []map[string]any
	for _, line := range bytes.Split(h.buf.Bytes(), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal(line, &m); err == nil {
			records = append(records, m)
		}
	}
	return records
}

func TestEnrichLogger(t *testing.T) {
	t.Run("adds run_id, node_id and label", func(t *testing.T) {
		h := newTestHandler()

		enriched := EnrichLogger(slog.New(h), "run-123", "root.1", "CheckHour")
		enriched.Info("hour checked")

		record := h.getLastRecord()
		require.NotNil(t, record)
		assert.Equal(t, "run-123", record["run_id"])
		assert.Equal(t, "root.1", record["node_id"])
		assert.Equal(t, "CheckHour", record["label"])
		assert.Equal(t, "hour checked", record["msg"])
	})

	t.Run("nil logger returns nil", func(t *testing.T) {
		assert.Nil(t, EnrichLogger(nil, "run-123", "root", "Sequence"))
	})
}

func TestLogHelpers(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name  string
		log   func(*slog.Logger)
		level string
		msg   string
		attrs map[string]any
	}{
		{
			name:  "run start",
			log:   func(l *slog.Logger) { LogRunStart(l, "run-1", "greeter") },
			level: "INFO",
			msg:   "tree run starting",
			attrs: map[string]any{"run_id": "run-1", "tree": "greeter"},
		},
		{
			name:  "run complete",
			log:   func(l *slog.Logger) { LogRunComplete(l, "run-1", "success", 12.5, 4) },
			level: "INFO",
			msg:   "tree run completed",
			attrs: map[string]any{"outcome": "success", "duration_ms": 12.5, "nodes_executed": float64(4)},
		},
		{
			name:  "run panic",
			log:   func(l *slog.Logger) { LogRunPanic(l, "run-1", boom, 3) },
			level: "ERROR",
			msg:   "tree run panicked",
			attrs: map[string]any{"error": "boom"},
		},
		{
			name:  "run rejected",
			log:   func(l *slog.Logger) { LogRunRejected(l, "run-1", boom) },
			level: "ERROR",
			msg:   "tree run rejected",
			attrs: map[string]any{"error": "boom"},
		},
		{
			name:  "node start",
			log:   func(l *slog.Logger) { LogNodeStart(l, "root.0", "ComputeHour") },
			level: "DEBUG",
			msg:   "node starting",
			attrs: map[string]any{"node_id": "root.0", "label": "ComputeHour"},
		},
		{
			name:  "node complete",
			log:   func(l *slog.Logger) { LogNodeComplete(l, "root.0", "ComputeHour", "failure", 1) },
			level: "DEBUG",
			msg:   "node completed",
			attrs: map[string]any{"outcome": "failure"},
		},
		{
			name:  "node canceled",
			log:   func(l *slog.Logger) { LogNodeCanceled(l, "Say: Good Night") },
			level: "DEBUG",
			msg:   "node canceled",
			attrs: map[string]any{"label": "Say: Good Night"},
		},
		{
			name:  "branch aborted",
			log:   func(l *slog.Logger) { LogBranchAborted(l, "root.2", "Greetings", "cancel requested") },
			level: "INFO",
			msg:   "branch aborted",
			attrs: map[string]any{"reason": "cancel requested"},
		},
		{
			name:  "duplicate callback",
			log:   func(l *slog.Logger) { LogDuplicateCallback(l, "root.0", "Flaky", "success") },
			level: "WARN",
			msg:   "duplicate completion callback dropped",
			attrs: map[string]any{"node_id": "root.0", "outcome": "success"},
		},
		{
			name:  "recovered panic",
			log:   func(l *slog.Logger) { LogRecoveredPanic(l, "root.0", "Flaky", "index out of range") },
			level: "ERROR",
			msg:   "node panicked",
			attrs: map[string]any{"panic": "index out of range"},
		},
		{
			name:  "snapshot saved",
			log:   func(l *slog.Logger) { LogSnapshot(l, "root", 512) },
			level: "DEBUG",
			msg:   "snapshot saved",
			attrs: map[string]any{"size_bytes": float64(512)},
		},
		{
			name:  "snapshot failed",
			log:   func(l *slog.Logger) { LogSnapshotError(l, "root", "save", boom) },
			level: "WARN",
			msg:   "snapshot failed",
			attrs: map[string]any{"operation": "save", "error": "boom"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler()
			tt.log(slog.New(h))

			record := h.getLastRecord()
			require.NotNil(t, record)
			assert.Equal(t, tt.level, record["level"])
			assert.Equal(t, tt.msg, record["msg"])
			for k, v := range tt.attrs {
				assert.Equal(t, v, record[k], k)
			}
		})

		t.Run(tt.name+" nil logger", func(t *testing.T) {
			assert.NotPanics(t, func() { tt.log(nil) })
		})
	}
}

func TestLogRunPanic_NilError(t *testing.T) {
	h := newTestHandler()
	LogRunPanic(slog.New(h), "run-1", nil, 0)

	record := h.getLastRecord()
	require.NotNil(t, record)
	assert.Equal(t, "", record["error"])
}

func TestLogLevelFiltering(t *testing.T) {
	h := newTestHandler()
	h.level = slog.LevelInfo
	logger := slog.New(h)

	LogNodeStart(logger, "root", "Sequence")
	LogNodeComplete(logger, "root", "Sequence", "success", 1)
	LogRunComplete(logger, "run-1", "success", 1, 1)

	records := h.getAllRecords()
	require.Len(t, records, 1, "node events are debug level")
	assert.Equal(t, "tree run completed", records[0]["msg"])
}
