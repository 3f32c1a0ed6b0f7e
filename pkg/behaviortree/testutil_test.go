package behaviortree

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// testFrame is the shared frame used across tests. Leaves append to trace
// so tests can assert execution order.
type testFrame struct {
	mu     sync.Mutex
	trace  []string
	output []string
}

func (f *testFrame) record(label string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, label)
}

func (f *testFrame) emit(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.output = append(f.output, msg)
}

func (f *testFrame) executed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.trace...)
}

func (f *testFrame) emitted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.output...)
}

// Helper leaves

// leaf creates a synchronous leaf that records its label and reports r.
func leaf(label string, r Result) *Action[*testFrame] {
	return NewTask(label, func(_ Context, f *testFrame) Result {
		f.record(label)
		return r
	})
}

func succeed(label string) *Action[*testFrame] { return leaf(label, Success()) }

func fail(label string) *Action[*testFrame] { return leaf(label, Failure()) }

// say emits msg into the frame's output.
func say(msg string) *Action[*testFrame] {
	return NewTask("Say: "+msg, func(_ Context, f *testFrame) Result {
		f.record("Say: " + msg)
		f.emit(msg)
		return Success()
	})
}

// asyncLeaf reports r from another goroutine.
func asyncLeaf(label string, r Result) *Action[*testFrame] {
	return NewAction(label, func(_ Context, f *testFrame, done func(Result)) {
		go func() {
			f.record(label)
			done(r)
		}()
	})
}

// gatedLeaf reports r only once the returned release function is called.
// started is closed when the leaf begins executing.
func gatedLeaf(label string, r Result) (leaf *Action[*testFrame], started <-chan struct{}, release func()) {
	start := make(chan struct{})
	gate := make(chan struct{})
	var once sync.Once
	leaf = NewAction(label, func(_ Context, f *testFrame, done func(Result)) {
		close(start)
		go func() {
			<-gate
			f.record(label)
			done(r)
		}()
	})
	return leaf, start, func() { once.Do(func() { close(gate) }) }
}

// states returns the state of each node, in order.
func states(nodes ...Node[*testFrame]) []State {
	out := make([]State, len(nodes))
	for i, n := range nodes {
		out[i] = n.State()
	}
	return out
}

// runAndWait runs root to completion and returns its result.
func runAndWait(t *testing.T, root Node[*testFrame], f *testFrame, opts ...RunOption) Result {
	t.Helper()
	r, err := RunSync(testCtx(), root, f, opts...)
	require.NoError(t, err)
	return r
}

// testCtx creates a simple test context.
func testCtx() Context {
	return NewContext(context.Background())
}

// testLogHandler captures log records for testing.
type testLogHandler struct {
	mu    *sync.Mutex
	buf   *bytes.Buffer
	level slog.Level
	attrs []slog.Attr
}

func newTestLogHandler() *testLogHandler {
	return &testLogHandler{
		mu:    &sync.Mutex{},
		buf:   &bytes.Buffer{},
		level: slog.LevelDebug,
	}
}

func (h *testLogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *testLogHandler) Handle(_ context.Context, r slog.Record) error {
	data := map[string]any{
		"level": r.Level.String(),
		"msg":   r.Message,
	}
	for _, a := range h.attrs {
		data[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		data[a.Key] = a.Value.Any()
		return true
	})
	h.mu.Lock()
	defer h.mu.Unlock()
	return json.NewEncoder(h.buf).Encode(data)
}

func (h *testLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	cp := *h
	cp.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &cp
}

func (h *testLogHandler) WithGroup(string) slog.Handler {
	return h
}

func (h *testLogHandler) getRecords() []map[string]any {
	h.mu.Lock()
	defer h.mu.Unlock()
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

// recordsWithMsg filters captured records by message.
func (h *testLogHandler) recordsWithMsg(msg string) []map[string]any {
	var out []map[string]any
	for _, r := range h.getRecords() {
		if r["msg"] == msg {
			out = append(out, r)
		}
	}
	return out
}
