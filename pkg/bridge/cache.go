package bridge

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/leapstack-labs/rbridge/pkg/value"
)

// Cache memoizes decoded call results. Results are stored before shape
// coercion; DefaultKey still includes the shape, so each shape of a call has
// its own entry. Callers receive deep copies of cached values.
//
// A cache has no way to know whether the R code is deterministic. Code that
// draws random numbers without a fixed seed must not be cached.
type Cache interface {
	Get(ctx context.Context, key string) (value.Value, bool, error)
	Put(ctx context.Context, key string, v value.Value) error
}

// KeyFunc derives a cache key from a request. The bridge passes requests
// with Mode and Shape already resolved.
type KeyFunc func(req Request) (string, error)

// DefaultKey hashes the mode, source, function, shape and canonically
// encoded arguments of req with SHA-256.
func DefaultKey(req Request) (string, error) {
	keys, vals, err := normalize(req.Args)
	if err != nil {
		return "", err
	}
	m := value.NewMap()
	for _, k := range keys {
		m.Set(k, vals[k])
	}

	data, err := json.Marshal(struct {
		Mode     Mode        `json:"mode"`
		Source   string      `json:"source"`
		Function string      `json:"function"`
		Shape    value.Shape `json:"shape"`
		Args     value.Value `json:"args"`
	}{req.Mode, req.Source, req.Function, req.Shape, value.FromMap(m)})
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
