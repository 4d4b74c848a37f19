package services

import (
	"context"
	"fmt"
	"sync"
)

// fakeBucket records removal calls. onRemove, when set, runs before a key is
// considered removed so tests can observe the state of the world at call time.
type fakeBucket struct {
	mu              sync.Mutex
	removedOne      []string
	removeManyCalls [][]string
	failKeys        map[string]bool
	failAll         bool
	onRemove        func(key string)
}

func (f *fakeBucket) RemoveOne(ctx context.Context, key string) error {
	f.mu.Lock()
	hook := f.onRemove
	f.mu.Unlock()
	if hook != nil {
		hook(key)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.removedOne = append(f.removedOne, key)
	if f.failAll || f.failKeys[key] {
		return fmt.Errorf("simulated storage failure for %q", key)
	}
	return nil
}

func (f *fakeBucket) RemoveMany(ctx context.Context, keys []string) ([]string, error) {
	f.mu.Lock()
	f.removeManyCalls = append(f.removeManyCalls, append([]string(nil), keys...))
	failAll := f.failAll
	f.mu.Unlock()

	var failed []string
	for _, key := range keys {
		f.mu.Lock()
		bad := failAll || f.failKeys[key]
		f.mu.Unlock()
		if bad {
			failed = append(failed, key)
		}
	}
	return failed, nil
}

func (f *fakeBucket) manyCalls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.removeManyCalls...)
}

func (f *fakeBucket) oneCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.removedOne...)
}

type fakeOrphanQueue struct {
	mu       sync.Mutex
	enqueued []string
	pending  []string
	failNext bool
}

func (f *fakeOrphanQueue) Enqueue(ctx context.Context, keys []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return fmt.Errorf("simulated queue failure")
	}
	f.enqueued = append(f.enqueued, keys...)
	f.pending = append(f.pending, keys...)
	return nil
}

func (f *fakeOrphanQueue) Drain(ctx context.Context, max int64) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := int64(len(f.pending))
	if n > max {
		n = max
	}
	out := append([]string(nil), f.pending[:n]...)
	f.pending = f.pending[n:]
	return out, nil
}

func (f *fakeOrphanQueue) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.enqueued...)
}
