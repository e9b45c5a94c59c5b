package stack

import (
	"context"
	"io"
	"strings"
	"sync"
)

// MockRunner implements Runner with function fields and records every call.
type MockRunner struct {
	RunFunc    func(ctx context.Context, name string, args ...string) ([]byte, error)
	StreamFunc func(ctx context.Context, name string, args ...string) (io.ReadCloser, error)

	mu    sync.Mutex
	calls []string
}

// Run records the call and delegates to RunFunc.
func (m *MockRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	m.record(name, args)
	if m.RunFunc != nil {
		return m.RunFunc(ctx, name, args...)
	}
	return nil, nil
}

// Stream records the call and delegates to StreamFunc.
func (m *MockRunner) Stream(ctx context.Context, name string, args ...string) (io.ReadCloser, error) {
	m.record(name, args)
	if m.StreamFunc != nil {
		return m.StreamFunc(ctx, name, args...)
	}
	return io.NopCloser(strings.NewReader("")), nil
}

func (m *MockRunner) record(name string, args []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, strings.TrimSpace(name+" "+strings.Join(args, " ")))
}

// Calls returns the recorded command lines.
func (m *MockRunner) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// CountPrefix returns how many recorded calls start with prefix.
func (m *MockRunner) CountPrefix(prefix string) int {
	n := 0
	for _, c := range m.Calls() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}
