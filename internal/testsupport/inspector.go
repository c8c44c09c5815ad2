package testsupport

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"pdftriage/internal/inspect"
)

// FakeInspector returns canned results keyed by path.
type FakeInspector struct {
	mu      sync.Mutex
	results map[string]inspect.Result
	errs    map[string]error
	panics  map[string]bool
	calls   map[string]int

	// Delay is applied to every call before answering.
	Delay time.Duration
	// Default answers paths without a canned result.
	Default inspect.Result

	total atomic.Int64
}

// NewFakeInspector returns an empty fake.
func NewFakeInspector() *FakeInspector {
	return &FakeInspector{
		results: make(map[string]inspect.Result),
		errs:    make(map[string]error),
		panics:  make(map[string]bool),
		calls:   make(map[string]int),
	}
}

// SetPages makes path report the given page count.
func (f *FakeInspector) SetPages(path string, pages uint64) *FakeInspector {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[path] = inspect.Result{PageCount: pages}
	return f
}

// SetEncrypted makes path report as encrypted.
func (f *FakeInspector) SetEncrypted(path string) *FakeInspector {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[path] = inspect.Result{Encrypted: true}
	return f
}

// SetError makes path fail with err.
func (f *FakeInspector) SetError(path string, err error) *FakeInspector {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[path] = err
	return f
}

// SetPanic makes inspecting path panic.
func (f *FakeInspector) SetPanic(path string) *FakeInspector {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.panics[path] = true
	return f
}

// Inspect implements inspect.Inspector.
func (f *FakeInspector) Inspect(ctx context.Context, path string) (inspect.Result, error) {
	f.total.Add(1)
	f.mu.Lock()
	f.calls[path]++
	res, hasResult := f.results[path]
	err := f.errs[path]
	shouldPanic := f.panics[path]
	f.mu.Unlock()

	if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return inspect.Result{}, ctx.Err()
		}
	}
	if shouldPanic {
		panic("fake inspector panic for " + path)
	}
	if err != nil {
		return inspect.Result{}, err
	}
	if !hasResult {
		return f.Default, nil
	}
	return res, nil
}

// Calls returns how often path was inspected.
func (f *FakeInspector) Calls(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

// TotalCalls returns the number of inspections across all paths.
func (f *FakeInspector) TotalCalls() int64 {
	return f.total.Load()
}
