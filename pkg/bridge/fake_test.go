package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/leapstack-labs/rbridge/pkg/value"
)

// recordingRunner returns canned output and records every script it is
// asked to run.
type recordingRunner struct {
	mu      sync.Mutex
	scripts []Script
	out     *Output
	err     error
	delay   time.Duration
}

func (r *recordingRunner) Run(ctx context.Context, script Script, _ time.Duration) (*Output, error) {
	r.mu.Lock()
	r.scripts = append(r.scripts, script)
	r.mu.Unlock()

	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	out := *r.out
	return &out, nil
}

func (r *recordingRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.scripts)
}

func (r *recordingRunner) last() Script {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scripts[len(r.scripts)-1]
}

func stdout(s string) *recordingRunner {
	return &recordingRunner{out: &Output{Stdout: s}}
}

// mapCache is an unbounded in-memory Cache.
type mapCache struct {
	mu   sync.Mutex
	data map[string]value.Value
	gets int
}

func newMapCache() *mapCache {
	return &mapCache{data: make(map[string]value.Value)}
}

func (c *mapCache) Get(_ context.Context, key string) (value.Value, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *mapCache) Put(_ context.Context, key string, v value.Value) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = v
	return nil
}
