package scene

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"moto-viewer/internal/loader"
	"moto-viewer/internal/model"

	"go.uber.org/zap"
)

// ErrDisposed is returned by LoadModel after Dispose.
var ErrDisposed = errors.New("scene: manager disposed")

// Loader resolves model identifiers and decodes files. *loader.Registry implements it.
type Loader interface {
	Resolve(identifier string) (string, loader.Format, error)
	Load(ctx context.Context, path string) (*model.Node, error)
}

// Result is the completion of one load request.
type Result struct {
	Generation uint64
	Identifier string
	Path       string
	Root       *model.Node
	Err        error
}

// Manager owns the single displayed model. Loads run on worker goroutines; their results
// are applied on the goroutine that calls Poll or Await, which must be the one that owns
// the graph. Every request bumps a generation and results from older generations are
// dropped, so only the most recently requested model is ever attached.
type Manager struct {
	graph  *model.Graph
	loader Loader
	log    *zap.Logger

	results chan Result
	base    context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup

	generation uint64
	cancel     context.CancelFunc
	pending    bool
	current    *model.Node
	identifier string
	lastErr    error
	discarded  int
	disposed   bool

	onDetach []func(old *model.Node)
	onAttach []func(root *model.Node)
	onError  []func(identifier string, err error)
}

// NewManager returns a manager that attaches models to graph.
func NewManager(graph *model.Graph, l Loader, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	base, stop := context.WithCancel(context.Background())
	return &Manager{
		graph:   graph,
		loader:  l,
		log:     log,
		results: make(chan Result, 4),
		base:    base,
		stop:    stop,
	}
}

// OnDetach registers fn to run whenever the current model is detached, including when a
// new load starts with no model attached. old may be nil.
func (m *Manager) OnDetach(fn func(old *model.Node)) {
	m.onDetach = append(m.onDetach, fn)
}

// OnAttach registers fn to run after a model is centered and attached.
func (m *Manager) OnAttach(fn func(root *model.Node)) {
	m.onAttach = append(m.onAttach, fn)
}

// OnError registers fn to run when the current request fails.
func (m *Manager) OnError(fn func(identifier string, err error)) {
	m.onError = append(m.onError, fn)
}

// LoadModel requests identifier. Unsupported formats fail here and leave the current
// model untouched. Otherwise the current model is detached right away, any older
// request is cancelled, and the load continues in the background.
func (m *Manager) LoadModel(identifier string) (uint64, error) {
	if m.disposed {
		return 0, ErrDisposed
	}
	path, format, err := m.loader.Resolve(identifier)
	if err != nil {
		m.log.Warn("model rejected", zap.String("model", identifier), zap.Error(err))
		return 0, err
	}

	m.detach()
	if m.cancel != nil {
		m.cancel()
	}
	m.generation++
	gen := m.generation
	ctx, cancel := context.WithCancel(m.base)
	m.cancel = cancel
	m.pending = true
	m.identifier = identifier
	m.lastErr = nil

	m.log.Info("loading model",
		zap.String("model", identifier),
		zap.String("path", path),
		zap.Stringer("format", format),
		zap.Uint64("generation", gen))

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		root, err := m.load(ctx, path)
		select {
		case m.results <- Result{Generation: gen, Identifier: identifier, Path: path, Root: root, Err: err}:
		case <-m.base.Done():
		}
	}()
	return gen, nil
}

// load runs the loader on a worker goroutine. A panicking decoder fails the load with an
// AssetLoadError instead of taking the process down.
func (m *Manager) load(ctx context.Context, path string) (root *model.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("loader panicked", zap.String("path", path), zap.Any("panic", r), zap.Stack("stack"))
			root, err = nil, &loader.AssetLoadError{Path: path, Cause: fmt.Errorf("panic: %v", r)}
		}
	}()
	return m.loader.Load(ctx, path)
}

// Poll applies every completion that has arrived without blocking. It reports whether a
// model was attached.
func (m *Manager) Poll() bool {
	attached := false
	for {
		select {
		case r := <-m.results:
			if m.apply(r) {
				attached = true
			}
		default:
			return attached
		}
	}
}

// Await blocks until the latest request completes and returns its error.
func (m *Manager) Await(ctx context.Context) error {
	for m.pending {
		select {
		case r := <-m.results:
			m.apply(r)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return m.lastErr
}

func (m *Manager) apply(r Result) bool {
	if r.Generation != m.generation {
		m.discarded++
		m.log.Debug("discarding stale load",
			zap.String("model", r.Identifier),
			zap.Uint64("generation", r.Generation),
			zap.Uint64("current", m.generation))
		return false
	}
	m.pending = false
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}

	if r.Err != nil {
		m.lastErr = r.Err
		m.log.Error("model load failed", zap.String("model", r.Identifier), zap.Error(r.Err))
		for _, fn := range m.onError {
			fn(r.Identifier, r.Err)
		}
		return false
	}

	Center(r.Root)
	m.graph.Add(r.Root)
	m.current = r.Root
	m.log.Info("model attached",
		zap.String("model", r.Identifier),
		zap.Int("parts", len(r.Root.Parts())),
		zap.Uint64("generation", r.Generation))
	for _, fn := range m.onAttach {
		fn(r.Root)
	}
	return true
}

func (m *Manager) detach() {
	old := m.current
	if old != nil {
		m.graph.Remove(old)
		m.current = nil
	}
	for _, fn := range m.onDetach {
		fn(old)
	}
}

// Center moves root so the center of its world bounding box sits at the origin.
func Center(root *model.Node) {
	b := root.WorldBounds()
	if b.IsEmpty() {
		return
	}
	root.Translation = root.Translation.Sub(b.Center())
}

// Current returns the attached model, or nil.
func (m *Manager) Current() *model.Node {
	return m.current
}

// Identifier returns the most recently requested model identifier.
func (m *Manager) Identifier() string {
	return m.identifier
}

// Generation returns the tag of the most recent request.
func (m *Manager) Generation() uint64 {
	return m.generation
}

// Pending reports whether the latest request is still in flight.
func (m *Manager) Pending() bool {
	return m.pending
}

// Discarded returns how many stale completions were dropped.
func (m *Manager) Discarded() int {
	return m.discarded
}

// Dispose cancels in-flight loads, waits for their goroutines and detaches the model.
func (m *Manager) Dispose() {
	if m.disposed {
		return
	}
	m.disposed = true
	m.stop()
	m.wg.Wait()
	m.pending = false
	m.cancel = nil
	if m.current != nil {
		m.graph.Remove(m.current)
		m.current = nil
	}
}
