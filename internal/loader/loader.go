// Package loader implements the loading policy on top of a resolver: probe
// each candidate path in order, load the first one that exists and decline
// quietly when none do, so another autoloader can try.
package loader

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/13rac1/nsload/internal/resolver"
	"github.com/13rac1/nsload/internal/source"
	"github.com/13rac1/nsload/internal/types"
)

var (
	// ErrNotHandled is returned when a name is already defined or lies
	// outside the resolver's namespace prefix.
	ErrNotHandled = errors.New("name not handled by this loader")
	// ErrResolutionExhausted is returned when no candidate path exists.
	ErrResolutionExhausted = errors.New("no candidate file exists")
)

// ExhaustedError carries the candidates tried for a failed lookup.
// It matches ErrResolutionExhausted with errors.Is.
type ExhaustedError struct {
	Name       string
	Candidates []string
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("could not load %s: none of %d candidate files exist", e.Name, len(e.Candidates))
}

func (e *ExhaustedError) Is(target error) bool {
	return target == ErrResolutionExhausted
}

// Sink receives the contents of a loaded file.
type Sink func(ctx context.Context, name, path string, data []byte) error

// Loader probes resolver candidates against a Source.
type Loader struct {
	res    *resolver.Resolver
	src    source.Source
	sink   Sink
	logger *zap.Logger
	debug  bool
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithDebug enables logging of the candidate list when a lookup fails.
func WithDebug(debug bool) Option {
	return func(l *Loader) {
		l.debug = debug
	}
}

// WithSink sets the function that receives loaded file contents.
func WithSink(sink Sink) Option {
	return func(l *Loader) {
		l.sink = sink
	}
}

// New creates a Loader for res reading from src.
func New(res *resolver.Resolver, src source.Source, opts ...Option) *Loader {
	l := &Loader{
		res:    res,
		src:    src,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Autoload loads name if the resolver owns it and it is not yet defined.
//
// Returns ErrNotHandled when the name is skipped, an *ExhaustedError when no
// candidate exists, or a wrapped error when the source or sink fails.
func (l *Loader) Autoload(ctx context.Context, name string, isDefined func(string) bool) (*types.LoadResult, error) {
	if !l.res.NeedsLoad(name, isDefined) {
		return nil, ErrNotHandled
	}

	paths := l.res.Resolve(name)
	for i, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("autoload cancelled: %w", err)
		}

		exists, err := l.src.Exists(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("probing %s: %w", p, err)
		}
		if !exists {
			continue
		}

		data, err := l.src.Read(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", p, err)
		}

		if l.sink != nil {
			if err := l.sink(ctx, name, p, data); err != nil {
				return nil, fmt.Errorf("evaluating %s: %w", p, err)
			}
		}

		l.logger.Debug("loaded file",
			zap.String("name", name),
			zap.String("path", p),
			zap.Int("attempt", i+1))

		return &types.LoadResult{
			Name:  name,
			Path:  p,
			Size:  len(data),
			Tried: i + 1,
		}, nil
	}

	if l.debug {
		l.logger.Debug("could not load file",
			zap.String("name", name),
			zap.Strings("candidates", paths))
	}

	return nil, &ExhaustedError{Name: name, Candidates: paths}
}
