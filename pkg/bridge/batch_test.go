package bridge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/rbridge/pkg/value"
)

func TestCallMany(t *testing.T) {
	runner := stdout("8\n")
	b := New(WithRunner(runner))

	reqs := make([]Request, 5)
	for i := range reqs {
		reqs[i] = addRequest()
		reqs[i].Args = Args{"x": i, "y": 1}
	}

	got, err := b.CallMany(context.Background(), reqs, 2)
	require.NoError(t, err)
	require.Len(t, got, 5)
	for _, v := range got {
		assert.Equal(t, 8.0, v)
	}
	assert.Equal(t, 5, runner.count(), "each request runs its own process")
}

func TestCallMany_FirstError(t *testing.T) {
	b := New(WithRunner(stdout("8\n")))

	reqs := []Request{addRequest(), {Source: addSource, Function: "missing"}}
	_, err := b.CallMany(context.Background(), reqs, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFunctionNotFound)
	assert.Contains(t, err.Error(), "request 1 (missing)")
}

func TestCallEach(t *testing.T) {
	b := New(WithRunner(stdout("[1,2]\n")))

	reqs := []Request{
		{Source: addSource, Function: "add", Shape: value.ShapeList},
		{Source: addSource, Function: "add", Shape: value.ShapeFloat},
		{Source: addSource, Function: "nope"},
	}
	results := b.CallEach(context.Background(), reqs, 1)
	require.Len(t, results, 3)

	require.NoError(t, results[0].Err)
	assert.Len(t, results[0].Value, 2)

	var sm *value.ShapeMismatchError
	assert.True(t, errors.As(results[1].Err, &sm))
	assert.ErrorIs(t, results[2].Err, ErrFunctionNotFound)
}
