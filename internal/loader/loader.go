package loader

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"moto-viewer/internal/model"

	"go.uber.org/zap"
)

// DefaultExtension is appended to identifiers that carry no extension.
const DefaultExtension = ".glb"

// AssetLoader turns a file into a model tree. Implementations run on worker goroutines
// and must not touch the scene graph.
type AssetLoader interface {
	Load(ctx context.Context, path string) (*model.Node, error)
}

// AssetLoaderFunc adapts a function to AssetLoader.
type AssetLoaderFunc func(ctx context.Context, path string) (*model.Node, error)

func (f AssetLoaderFunc) Load(ctx context.Context, path string) (*model.Node, error) {
	return f(ctx, path)
}

// Registry maps each Format to its backend and resolves model identifiers under a fixed
// assets directory.
type Registry struct {
	assetsDir  string
	defaultExt string
	loaders    map[Format]AssetLoader
	log        *zap.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLoader replaces the backend used for f.
func WithLoader(f Format, l AssetLoader) Option {
	return func(r *Registry) {
		r.loaders[f] = l
	}
}

// WithDefaultExtension sets the extension appended to bare identifiers (e.g. ".glb").
func WithDefaultExtension(ext string) Option {
	return func(r *Registry) {
		if ext == "" {
			return
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		r.defaultExt = ext
	}
}

// WithLogger sets the logger used by the registry and its default backends.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// NewRegistry returns a registry rooted at assetsDir with glTF, OBJ and FBX backends.
func NewRegistry(assetsDir string, opts ...Option) *Registry {
	r := &Registry{
		assetsDir:  assetsDir,
		defaultExt: DefaultExtension,
		loaders:    make(map[Format]AssetLoader, 3),
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if _, ok := r.loaders[FormatGLTF]; !ok {
		r.loaders[FormatGLTF] = NewGLTFLoader()
	}
	if _, ok := r.loaders[FormatOBJ]; !ok {
		r.loaders[FormatOBJ] = NewOBJLoader(r.log)
	}
	if _, ok := r.loaders[FormatFBX]; !ok {
		r.loaders[FormatFBX] = NewFBXLoader()
	}
	return r
}

// AssetsDir returns the directory identifiers are resolved against.
func (r *Registry) AssetsDir() string {
	return r.assetsDir
}

// Resolve maps a model identifier to a file path under the assets directory and checks
// its format. Identifiers cannot climb out of the assets directory.
func (r *Registry) Resolve(identifier string) (string, Format, error) {
	id := strings.TrimSpace(identifier)
	if filepath.Ext(id) == "" {
		id += r.defaultExt
	}
	p := filepath.Join(r.assetsDir, filepath.FromSlash(path.Clean("/"+filepath.ToSlash(id))))
	f, err := ParseFormat(p)
	if err != nil {
		return "", 0, err
	}
	return p, f, nil
}

// Load reads the file at p with the backend for its format. Read and parse failures come
// back as *AssetLoadError; every mesh of the result owns its material.
func (r *Registry) Load(ctx context.Context, p string) (*model.Node, error) {
	f, err := ParseFormat(p)
	if err != nil {
		return nil, err
	}
	l, ok := r.loaders[f]
	if !ok {
		return nil, &UnsupportedFormatError{Path: p, Ext: filepath.Ext(p)}
	}
	if err := ctx.Err(); err != nil {
		return nil, &AssetLoadError{Path: p, Cause: err}
	}
	root, err := l.Load(ctx, p)
	if err != nil {
		var ae *AssetLoadError
		if errors.As(err, &ae) {
			return nil, err
		}
		return nil, &AssetLoadError{Path: p, Cause: err}
	}
	if root == nil || len(root.Parts()) == 0 {
		return nil, &AssetLoadError{Path: p, Cause: errors.New("model has no meshes")}
	}
	if err := validateMeshes(root); err != nil {
		return nil, &AssetLoadError{Path: p, Cause: err}
	}
	isolateMaterials(root)
	r.log.Debug("model decoded",
		zap.String("path", p),
		zap.Stringer("format", f),
		zap.Int("parts", len(root.Parts())))
	return root, nil
}

// validateMeshes checks every mesh in the tree, so a bad index buffer from any backend
// fails the load instead of reaching the renderer or the picker.
func validateMeshes(root *model.Node) error {
	var err error
	root.Walk(func(n *model.Node) bool {
		if err != nil {
			return false
		}
		if n.Mesh != nil {
			if verr := n.Mesh.Validate(); verr != nil {
				err = fmt.Errorf("part %q: %w", n.Label(), verr)
			}
		}
		return true
	})
	return err
}

// isolateMaterials clones any material shared by more than one mesh so that tinting one
// part never tints another.
func isolateMaterials(root *model.Node) {
	seen := make(map[*model.Material]bool)
	root.Walk(func(n *model.Node) bool {
		if !n.IsPart() {
			return true
		}
		if seen[n.Mesh.Material] {
			n.Mesh.Material = n.Mesh.Material.Clone()
		}
		seen[n.Mesh.Material] = true
		return true
	})
}
