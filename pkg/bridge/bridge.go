// Package bridge calls functions defined in R source code.
//
// A call serializes its arguments, composes an R script around the user's
// source, runs it in a fresh Rscript process and decodes what R printed:
//
//	b := bridge.New(bridge.WithTimeout(30 * time.Second))
//	v, err := b.Call(ctx, bridge.Request{
//		Source:   "add <- function(x, y) x + y",
//		Function: "add",
//		Shape:    value.ShapeFloat,
//		Args:     bridge.Args{"x": 5, "y": 3},
//	})
//
// In ModeJSON (the default) the result is encoded by jsonlite and decoded as
// JSON. In ModeText the call is evaluated with Rscript -e and the
// auto-printed console output is parsed by package rtext.
package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/leapstack-labs/rbridge/pkg/rtext"
	"github.com/leapstack-labs/rbridge/pkg/value"
)

// DefaultTimeout is the per-call process timeout.
const DefaultTimeout = 300 * time.Second

// Mode selects how results travel back from R.
type Mode string

// Modes.
const (
	ModeJSON Mode = "json"
	ModeText Mode = "text"
)

// ParseMode parses a mode name. An empty name yields ModeJSON.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeJSON:
		return ModeJSON, nil
	case ModeText:
		return ModeText, nil
	default:
		return "", &ValidationError{Field: "mode", Msg: fmt.Sprintf("unknown mode %q (want json or text)", s)}
	}
}

// Request describes one R function call.
type Request struct {
	// Source is R code that defines Function.
	Source string
	// Function is the name of the function to call.
	Function string
	// Shape is the requested result shape. Empty means auto in ModeJSON and
	// float in ModeText.
	Shape value.Shape
	// Args are passed to Function by name.
	Args Args
	// Mode overrides the bridge's default mode when set.
	Mode Mode
}

// Demo function run by Bridge.Demo.
const (
	DemoFunction = "my_func"
	DemoSource   = "my_func <- function() {\n  set.seed(1)\n  rnorm(1)\n}\n"
)

// Bridge runs R calls. It is safe for concurrent use.
type Bridge struct {
	runner  Runner
	timeout time.Duration
	mode    Mode
	cache   Cache
	keyFunc KeyFunc
	logger  *slog.Logger
	verbose bool

	group   singleflight.Group
	mu      sync.Mutex
	flights map[string]*flight
}

// flight is the run shared by every caller waiting on one cache key. Its
// context is cancelled once no caller is waiting any more.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithRunner sets the process runner (default an ExecRunner for Rscript).
func WithRunner(r Runner) Option {
	return func(b *Bridge) { b.runner = r }
}

// WithTimeout sets the per-call process timeout.
func WithTimeout(d time.Duration) Option {
	return func(b *Bridge) { b.timeout = d }
}

// WithMode sets the default mode.
func WithMode(m Mode) Option {
	return func(b *Bridge) { b.mode = m }
}

// WithCache enables memoization through c. Concurrent identical calls are
// collapsed into one process while a cache is set.
func WithCache(c Cache) Option {
	return func(b *Bridge) { b.cache = c }
}

// WithKeyFunc replaces DefaultKey.
func WithKeyFunc(f KeyFunc) Option {
	return func(b *Bridge) { b.keyFunc = f }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bridge) { b.logger = l }
}

// WithVerbose logs R's stderr at info level for successful calls.
func WithVerbose(v bool) Option {
	return func(b *Bridge) { b.verbose = v }
}

// New creates a Bridge.
func New(opts ...Option) *Bridge {
	b := &Bridge{
		timeout: DefaultTimeout,
		mode:    ModeJSON,
		keyFunc: DefaultKey,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.New(slog.DiscardHandler)
	}
	if b.runner == nil {
		b.runner = &ExecRunner{Logger: b.logger}
	}
	return b
}

// call is a validated request ready to run.
type call struct {
	req     Request
	payload string
	logger  *slog.Logger
}

// prepare resolves defaults and performs every check that must pass before a
// process is started.
func (b *Bridge) prepare(req Request) (*call, error) {
	if req.Mode == "" {
		req.Mode = b.mode
	}
	mode, err := ParseMode(string(req.Mode))
	if err != nil {
		return nil, err
	}
	req.Mode = mode

	shape, err := value.ParseShape(string(req.Shape))
	if err != nil {
		return nil, &ValidationError{Field: "shape", Msg: err.Error(), Err: ErrInvalidShape}
	}
	if mode == ModeText {
		if req.Shape == "" {
			shape = value.ShapeFloat
		}
		if !shape.In(value.TextShapes) {
			return nil, &ValidationError{
				Field: "shape",
				Msg:   fmt.Sprintf("shape %q is not available in text mode (want one of %s)", shape, value.JoinShapes(value.TextShapes)),
				Err:   ErrInvalidShape,
			}
		}
	}
	req.Shape = shape

	if err := CheckFunction(req.Source, req.Function); err != nil {
		return nil, err
	}

	var payload string
	if mode == ModeText {
		payload, err = SerializeLiteral(req.Args)
	} else {
		payload, err = SerializeJSON(req.Args)
	}
	if err != nil {
		return nil, err
	}

	return &call{
		req:     req,
		payload: payload,
		logger: b.logger.With(
			slog.String("call_id", uuid.NewString()),
			slog.String("function", req.Function),
			slog.String("mode", string(mode)),
		),
	}, nil
}

// Call runs req and coerces the result to req.Shape. The concrete result
// types per shape are documented on value.Coerce.
func (b *Bridge) Call(ctx context.Context, req Request) (any, error) {
	c, err := b.prepare(req)
	if err != nil {
		return nil, err
	}
	v, err := b.fetch(ctx, c)
	if err != nil {
		return nil, err
	}
	return value.Coerce(v, c.req.Shape)
}

// CallValue runs req and returns the decoded result without coercion.
func (b *Bridge) CallValue(ctx context.Context, req Request) (value.Value, error) {
	c, err := b.prepare(req)
	if err != nil {
		return value.Value{}, err
	}
	return b.fetch(ctx, c)
}

// CallInto runs req and decodes the result into out, which must be a pointer
// to a struct, map, slice or scalar.
func (b *Bridge) CallInto(ctx context.Context, req Request, out any) error {
	v, err := b.CallValue(ctx, req)
	if err != nil {
		return err
	}
	if err := value.Decode(v, out); err != nil {
		return &DecodeError{Snippet: snippet(v.String()), Err: err}
	}
	return nil
}

// Demo runs a seeded rnorm(1) and returns it as a float.
func (b *Bridge) Demo(ctx context.Context) (float64, error) {
	v, err := b.Call(ctx, Request{Source: DemoSource, Function: DemoFunction, Shape: value.ShapeFloat})
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

// CallR calls fn from source with a default Bridge and auto shape.
func CallR(ctx context.Context, source, fn string, args Args) (any, error) {
	return New().Call(ctx, Request{Source: source, Function: fn, Args: args})
}

func (b *Bridge) fetch(ctx context.Context, c *call) (value.Value, error) {
	if b.cache == nil {
		return b.run(ctx, c)
	}

	key, err := b.keyFunc(c.req)
	if err != nil {
		return value.Value{}, fmt.Errorf("cache key: %w", err)
	}

	v, ok, err := b.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache lookup failed", slog.String("error", err.Error()))
	}
	if ok {
		c.logger.Debug("cache hit", slog.String("key", key))
		return v.Clone(), nil
	}

	f, ch := b.join(ctx, key, c)
	defer b.leave(key, f)

	select {
	case res := <-ch:
		if res.Err != nil {
			return value.Value{}, res.Err
		}
		if res.Shared {
			c.logger.Debug("joined in-flight call", slog.String("key", key))
		}
		return res.Val.(value.Value).Clone(), nil
	case <-ctx.Done():
		return value.Value{}, ctx.Err()
	}
}

// join registers the caller as a waiter on key and returns the channel that
// delivers the shared result. The run does not inherit the cancellation of
// whichever caller started it.
func (b *Bridge) join(ctx context.Context, key string, c *call) (*flight, <-chan singleflight.Result) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.flights == nil {
		b.flights = make(map[string]*flight)
	}
	f := b.flights[key]
	if f == nil {
		runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: runCtx, cancel: cancel}
		b.flights[key] = f
	}
	f.waiters++

	ch := b.group.DoChan(key, func() (any, error) {
		defer b.finish(key, f)
		v, err := b.run(f.ctx, c)
		if err != nil {
			return nil, err
		}
		if err := b.cache.Put(f.ctx, key, v); err != nil {
			c.logger.Warn("cache store failed", slog.String("error", err.Error()))
		}
		return v, nil
	})
	return f, ch
}

// leave drops one waiter and stops the run when it was the last.
func (b *Bridge) leave(key string, f *flight) {
	b.mu.Lock()
	defer b.mu.Unlock()

	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	if b.flights[key] == f {
		delete(b.flights, key)
	}
}

func (b *Bridge) finish(key string, f *flight) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.flights[key] == f {
		delete(b.flights, key)
	}
}

func (b *Bridge) run(ctx context.Context, c *call) (value.Value, error) {
	req := c.req

	var script Script
	if req.Mode == ModeText {
		script = Script{Source: ComposeInline(req.Source, req.Function, c.payload), Inline: true}
	} else {
		script = Script{Source: ComposeStructured(req.Source, req.Function, c.payload)}
	}

	out, err := b.runner.Run(ctx, script, b.timeout)
	if err != nil {
		return value.Value{}, err
	}
	c.logger.Debug("R call finished", slog.Duration("duration", out.Duration), slog.Int("exit_code", out.ExitCode))

	if out.ExitCode != 0 {
		msg := rErrorMessage(out.Stderr)
		if msg == "" {
			msg = strings.TrimSpace(out.Stdout)
		}
		return value.Value{}, &ExecutionError{Function: req.Function, ExitCode: out.ExitCode, Message: msg}
	}
	if strings.TrimSpace(out.Stdout) == "" {
		return value.Value{}, &ExecutionError{Function: req.Function, Message: "R produced no output"}
	}
	if b.verbose && strings.TrimSpace(out.Stderr) != "" {
		c.logger.Info("R stderr", slog.String("stderr", strings.TrimSpace(out.Stderr)))
	}

	if req.Mode == ModeText {
		return b.decodeText(c, out.Stdout)
	}
	return b.decodeJSON(c, out.Stdout)
}

func (b *Bridge) decodeJSON(c *call, stdout string) (value.Value, error) {
	lines := strings.Split(strings.TrimRight(stdout, " \r\n"), "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	if len(lines) > 1 {
		c.logger.Debug("R printed before the result", slog.String("output", strings.Join(lines[:len(lines)-1], "\n")))
	}

	v, err := value.DecodeJSON([]byte(last))
	if err != nil {
		return value.Value{}, &DecodeError{Snippet: snippet(last), Err: err}
	}
	return v, nil
}

func (b *Bridge) decodeText(c *call, stdout string) (value.Value, error) {
	v, report, err := rtext.Decode(stdout)
	if err != nil {
		return value.Value{}, &DecodeError{Snippet: snippet(strings.TrimSpace(stdout)), Err: err}
	}
	for _, s := range report.Skipped {
		c.logger.Warn("dropped list entry from R output", slog.String("key", s.Key), slog.String("reason", s.Reason))
	}
	return v, nil
}

// rErrorMessage extracts the message of an R error from stderr, dropping
// the "Error: " prefix and the trailing "Execution halted".
func rErrorMessage(stderr string) string {
	msg := strings.TrimSpace(stderr)
	msg = strings.TrimSpace(strings.TrimSuffix(msg, "Execution halted"))
	if i := strings.LastIndex(msg, "Error: "); i >= 0 {
		msg = msg[i+len("Error: "):]
	}
	return strings.TrimSpace(msg)
}
