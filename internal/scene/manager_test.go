package scene

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"moto-viewer/internal/loader"
	"moto-viewer/internal/model"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// gatedLoader blocks each path until the test releases it.
type gatedLoader struct {
	mu    sync.Mutex
	gates map[string]chan result
}

type result struct {
	root *model.Node
	err  error
}

func newGatedLoader() *gatedLoader {
	return &gatedLoader{gates: make(map[string]chan result)}
}

func (g *gatedLoader) gate(path string) chan result {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[path]
	if !ok {
		ch = make(chan result, 1)
		g.gates[path] = ch
	}
	return ch
}

func (g *gatedLoader) Load(ctx context.Context, path string) (*model.Node, error) {
	select {
	case r := <-g.gate(path):
		return r.root, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *gatedLoader) release(name string, root *model.Node, err error) {
	g.gate(filepath.Join("assets", name)) <- result{root: root, err: err}
}

func box(name string, lo, hi mgl32.Vec3) *model.Node {
	root := model.NewNode(name)
	root.AddChild(model.NewMeshNode(name+"-body", &model.Mesh{
		Positions: []mgl32.Vec3{lo, {hi[0], lo[1], lo[2]}, hi},
		Material:  &model.Material{Name: name},
	}))
	return root
}

func newTestManager(t *testing.T) (*Manager, *model.Graph, *gatedLoader) {
	t.Helper()
	g := newGatedLoader()
	reg := loader.NewRegistry("assets", loader.WithLoader(loader.FormatGLTF, g), loader.WithLoader(loader.FormatOBJ, g))
	graph := model.NewGraph()
	m := NewManager(graph, reg, nil)
	t.Cleanup(m.Dispose)
	return m, graph, g
}

func await(t *testing.T, m *Manager) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.Await(ctx)
}

func TestManager_LoadAttachesCenteredModel(t *testing.T) {
	m, graph, g := newTestManager(t)
	var attached *model.Node
	m.OnAttach(func(root *model.Node) { attached = root })

	gen, err := m.LoadModel("moto1")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), gen)
	assert.True(t, m.Pending())

	bike := box("moto1", mgl32.Vec3{10, 10, 10}, mgl32.Vec3{12, 14, 16})
	g.release("moto1.glb", bike, nil)
	require.NoError(t, await(t, m))

	assert.False(t, m.Pending())
	assert.Same(t, bike, m.Current())
	assert.Same(t, bike, attached)
	assert.Equal(t, []*model.Node{bike}, graph.Roots())
	assert.True(t, bike.WorldBounds().Center().ApproxEqualThreshold(mgl32.Vec3{}, 1e-5))
}

func TestManager_UnsupportedFormatKeepsModel(t *testing.T) {
	m, graph, g := newTestManager(t)
	_, err := m.LoadModel("moto1")
	require.NoError(t, err)
	bike := box("moto1", mgl32.Vec3{}, mgl32.Vec3{1, 1, 1})
	g.release("moto1.glb", bike, nil)
	require.NoError(t, await(t, m))

	detached := false
	m.OnDetach(func(*model.Node) { detached = true })
	_, err = m.LoadModel("moto1.stl")
	require.ErrorIs(t, err, loader.ErrUnsupportedFormat)

	assert.False(t, detached)
	assert.Same(t, bike, m.Current())
	assert.True(t, graph.Contains(bike))
	assert.Equal(t, uint64(1), m.Generation())
	assert.False(t, m.Pending())
}

func TestManager_DetachIsSynchronous(t *testing.T) {
	m, graph, g := newTestManager(t)
	_, _ = m.LoadModel("a")
	a := box("a", mgl32.Vec3{}, mgl32.Vec3{1, 1, 1})
	g.release("a.glb", a, nil)
	require.NoError(t, await(t, m))

	var old *model.Node
	m.OnDetach(func(n *model.Node) { old = n })
	_, err := m.LoadModel("b.obj")
	require.NoError(t, err)

	assert.Same(t, a, old)
	assert.Nil(t, m.Current())
	assert.Zero(t, graph.Len())
}

func TestManager_FailureLeavesNoModel(t *testing.T) {
	m, graph, g := newTestManager(t)
	var failed string
	m.OnError(func(id string, err error) {
		failed = id
		assert.ErrorIs(t, err, loader.ErrAssetLoad)
	})

	_, _ = m.LoadModel("broken")
	g.release("broken.glb", nil, errors.New("truncated"))
	err := await(t, m)
	require.ErrorIs(t, err, loader.ErrAssetLoad)
	assert.Equal(t, "broken", failed)
	assert.Nil(t, m.Current())
	assert.Zero(t, graph.Len())

	// The viewer keeps working after a failure.
	_, err = m.LoadModel("moto2")
	require.NoError(t, err)
	g.release("moto2.glb", box("moto2", mgl32.Vec3{}, mgl32.Vec3{1, 1, 1}), nil)
	require.NoError(t, await(t, m))
	assert.NotNil(t, m.Current())
}

func TestManager_PanickingLoaderFailsTheLoad(t *testing.T) {
	reg := loader.NewRegistry("assets",
		loader.WithLoader(loader.FormatGLTF, loader.AssetLoaderFunc(func(context.Context, string) (*model.Node, error) {
			var idx []uint32
			_ = idx[3]
			return nil, nil
		})),
		loader.WithLoader(loader.FormatOBJ, loader.AssetLoaderFunc(func(context.Context, string) (*model.Node, error) {
			return box("moto2", mgl32.Vec3{}, mgl32.Vec3{1, 1, 1}), nil
		})))
	graph := model.NewGraph()
	m := NewManager(graph, reg, nil)
	t.Cleanup(m.Dispose)

	_, err := m.LoadModel("moto1")
	require.NoError(t, err)
	err = await(t, m)
	require.ErrorIs(t, err, loader.ErrAssetLoad)
	assert.ErrorContains(t, err, "panic")
	assert.Nil(t, m.Current())
	assert.Zero(t, graph.Len())

	_, err = m.LoadModel("moto2.obj")
	require.NoError(t, err)
	require.NoError(t, await(t, m))
	assert.NotNil(t, m.Current())
}

func TestManager_StaleCompletionIsDiscarded(t *testing.T) {
	m, graph, g := newTestManager(t)
	_, err := m.LoadModel("first")
	require.NoError(t, err)
	_, err = m.LoadModel("second")
	require.NoError(t, err)

	second := box("second", mgl32.Vec3{}, mgl32.Vec3{1, 1, 1})
	g.release("second.glb", second, nil)
	require.NoError(t, await(t, m))
	assert.Same(t, second, m.Current())

	// The first request was cancelled, so its gate only fires if the loader ignored ctx.
	// Either way nothing it produces may replace the newer model.
	g.release("first.glb", box("first", mgl32.Vec3{}, mgl32.Vec3{1, 1, 1}), nil)
	require.Eventually(t, func() bool {
		m.Poll()
		return m.Discarded() == 1
	}, 5*time.Second, time.Millisecond)

	assert.Same(t, second, m.Current())
	assert.Equal(t, []*model.Node{second}, graph.Roots())
}

// ignoringLoader never looks at ctx, like a decoder that cannot be interrupted.
type ignoringLoader struct {
	gates map[string]chan *model.Node
}

func (l *ignoringLoader) Load(_ context.Context, path string) (*model.Node, error) {
	return <-l.gates[filepath.Base(path)], nil
}

func TestManager_LastRequestWinsRegardlessOfArrivalOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(2, 5).Draw(t, "requests")
		names := []string{"a.glb", "b.glb", "c.glb", "d.glb", "e.glb"}[:n]
		l := &ignoringLoader{gates: make(map[string]chan *model.Node)}
		for _, name := range names {
			l.gates[name] = make(chan *model.Node, 1)
		}
		graph := model.NewGraph()
		m := NewManager(graph, loader.NewRegistry("assets", loader.WithLoader(loader.FormatGLTF, l)), nil)
		defer m.Dispose()

		for _, name := range names {
			if _, err := m.LoadModel(name); err != nil {
				t.Fatalf("load %s: %v", name, err)
			}
		}
		nodes := make(map[string]*model.Node)
		for _, i := range rapid.Permutation(rangeInts(n)).Draw(t, "arrival") {
			nodes[names[i]] = box(names[i], mgl32.Vec3{}, mgl32.Vec3{1, 1, 1})
			l.gates[names[i]] <- nodes[names[i]]
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.Await(ctx); err != nil {
			t.Fatalf("await: %v", err)
		}
		deadline := time.Now().Add(5 * time.Second)
		for m.Discarded() < n-1 && time.Now().Before(deadline) {
			m.Poll()
			time.Sleep(time.Millisecond)
		}
		last := nodes[names[n-1]]
		if m.Current() != last || graph.Len() != 1 || !graph.Contains(last) {
			t.Fatalf("expected only %s attached, have %v", names[n-1], graph.Roots())
		}
	})
}

func rangeInts(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestCenter_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		coord := rapid.Float32Range(-500, 500)
		root := model.NewNode("bike")
		parts := rapid.IntRange(1, 4).Draw(t, "parts")
		for i := 0; i < parts; i++ {
			child := box("p", mgl32.Vec3{coord.Draw(t, "x0"), coord.Draw(t, "y0"), coord.Draw(t, "z0")},
				mgl32.Vec3{coord.Draw(t, "x1"), coord.Draw(t, "y1"), coord.Draw(t, "z1")})
			child.Translation = mgl32.Vec3{coord.Draw(t, "tx"), coord.Draw(t, "ty"), coord.Draw(t, "tz")}
			root.AddChild(child)
		}
		Center(root)
		if c := root.WorldBounds().Center(); !c.ApproxEqualThreshold(mgl32.Vec3{}, 1e-2) {
			t.Fatalf("center after recentering = %v", c)
		}
	})
}

func TestManager_DisposeCancelsInFlight(t *testing.T) {
	m, _, _ := newTestManager(t)
	_, err := m.LoadModel("slow")
	require.NoError(t, err)
	m.Dispose()
	assert.False(t, m.Pending())
	_, err = m.LoadModel("other")
	assert.ErrorIs(t, err, ErrDisposed)
}
