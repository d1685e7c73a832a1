package cache

import (
	"context"
	"errors"

	"github.com/leapstack-labs/rbridge/pkg/value"
)

// Cache is the memo interface shared by every tier; it matches bridge.Cache.
type Cache interface {
	Get(ctx context.Context, key string) (value.Value, bool, error)
	Put(ctx context.Context, key string, v value.Value) error
}

// Chain looks entries up in each tier in order. A hit in a later tier is
// copied into the earlier ones; Put writes every tier.
type Chain struct {
	tiers []Cache
}

// NewChain creates a Chain over tiers, fastest first. Nil tiers are
// skipped.
func NewChain(tiers ...Cache) *Chain {
	c := &Chain{}
	for _, t := range tiers {
		if t != nil {
			c.tiers = append(c.tiers, t)
		}
	}
	return c
}

// Len returns the number of tiers.
func (c *Chain) Len() int {
	return len(c.tiers)
}

func (c *Chain) Get(ctx context.Context, key string) (value.Value, bool, error) {
	var errs []error
	for i, t := range c.tiers {
		v, ok, err := t.Get(ctx, key)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !ok {
			continue
		}
		for _, earlier := range c.tiers[:i] {
			if err := earlier.Put(ctx, key, v); err != nil {
				errs = append(errs, err)
			}
		}
		return v, true, errors.Join(errs...)
	}
	return value.Value{}, false, errors.Join(errs...)
}

func (c *Chain) Put(ctx context.Context, key string, v value.Value) error {
	var errs []error
	for _, t := range c.tiers {
		if err := t.Put(ctx, key, v); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
