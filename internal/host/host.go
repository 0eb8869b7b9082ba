// Package host models the runtime an autoloader registers with: an ordered
// chain of autoloaders consulted when a name is not yet defined, and the
// table of names that are.
package host

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/13rac1/nsload/internal/loader"
	"github.com/13rac1/nsload/internal/types"
)

// ErrUndefined is returned by Require when no autoloader could load a name.
var ErrUndefined = errors.New("undefined name")

// Autoloader is anything the host can ask to load a name.
type Autoloader interface {
	Autoload(ctx context.Context, name string, isDefined func(string) bool) (*types.LoadResult, error)
}

// AutoloaderFunc adapts a function to the Autoloader interface.
type AutoloaderFunc func(ctx context.Context, name string, isDefined func(string) bool) (*types.LoadResult, error)

// Autoload calls f.
func (f AutoloaderFunc) Autoload(ctx context.Context, name string, isDefined func(string) bool) (*types.LoadResult, error) {
	return f(ctx, name, isDefined)
}

// Host holds registered autoloaders and defined names. It is safe for
// concurrent use: concurrent Require calls for the same name share a single
// walk of the chain, so a file is loaded at most once per name.
type Host struct {
	mu      sync.RWMutex
	chain   []Autoloader
	symbols map[string]string
	loads   singleflight.Group
	logger  *zap.Logger
}

// New creates an empty Host. A nil logger disables logging.
func New(logger *zap.Logger) *Host {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Host{
		symbols: make(map[string]string),
		logger:  logger,
	}
}

// Register appends a to the autoloader chain. Nil autoloaders are ignored.
func (h *Host) Register(a Autoloader) {
	if a == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.chain = append(h.chain, a)
}

// Defined reports whether name has been defined. It is the predicate
// handed to autoloaders.
func (h *Host) Defined(name string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.symbols[name]
	return ok
}

// Define records name as defined by the file at path.
func (h *Host) Define(name, path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.symbols[name] = path
}

// Symbols returns the defined names in sorted order.
func (h *Host) Symbols() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.symbols))
	for name := range h.symbols {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Require makes sure name is defined, asking each autoloader in
// registration order. An autoloader that declines, finds no file, or returns
// no result passes the name on to the next one. Any other error stops the
// chain. Callers joining an in-flight load for the same name share its
// outcome, including the first caller's context.
func (h *Host) Require(ctx context.Context, name string) (*types.LoadResult, error) {
	if res, ok := h.lookup(name); ok {
		return res, nil
	}

	v, err, _ := h.loads.Do(name, func() (any, error) {
		// Another caller may have finished loading name since the check above.
		if res, ok := h.lookup(name); ok {
			return res, nil
		}
		return h.load(ctx, name)
	})
	if err != nil {
		return nil, err
	}
	return v.(*types.LoadResult), nil
}

func (h *Host) lookup(name string) (*types.LoadResult, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	path, ok := h.symbols[name]
	if !ok {
		return nil, false
	}
	return &types.LoadResult{Name: name, Path: path}, true
}

func (h *Host) load(ctx context.Context, name string) (*types.LoadResult, error) {
	h.mu.RLock()
	chain := append([]Autoloader(nil), h.chain...)
	h.mu.RUnlock()

	for i, a := range chain {
		res, err := a.Autoload(ctx, name, h.Defined)
		if err != nil {
			if errors.Is(err, loader.ErrNotHandled) || errors.Is(err, loader.ErrResolutionExhausted) {
				h.logger.Debug("autoloader declined",
					zap.String("name", name),
					zap.Int("autoloader", i),
					zap.Error(err))
				continue
			}
			return nil, fmt.Errorf("autoloading %s: %w", name, err)
		}

		if res == nil {
			h.logger.Debug("autoloader returned no result",
				zap.String("name", name),
				zap.Int("autoloader", i))
			continue
		}

		h.Define(name, res.Path)
		return res, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUndefined, name)
}
