package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"github.com/goliatone/go-configform/pkg/events"
	"github.com/goliatone/go-configform/pkg/metadata"
	"github.com/goliatone/go-configform/pkg/session"
)

var (
	// ErrNotExist is returned when the settings file is missing and no
	// defaults were configured.
	ErrNotExist = errors.New("store: settings file does not exist")
	// ErrInvalidPath is returned for empty or malformed dotted paths.
	ErrInvalidPath = errors.New("store: invalid path")
)

// Option configures a File.
type Option func(*File)

// WithCatalog sets the form metadata used to build schemas.
func WithCatalog(catalog *metadata.Catalog) Option {
	return func(f *File) {
		f.catalog = catalog
	}
}

// WithRoots restricts the schema to the given top-level keys, in order.
func WithRoots(roots ...string) Option {
	return func(f *File) {
		f.roots = append([]string(nil), roots...)
	}
}

// WithDefaults seeds the file with data the first time it is read and found
// missing.
func WithDefaults(data []byte) Option {
	return func(f *File) {
		f.defaults = append([]byte(nil), data...)
	}
}

// WithBus makes Import emit events.ConfigChanged after replacing the file.
func WithBus(bus *events.Bus) Option {
	return func(f *File) {
		f.bus = bus
	}
}

// WithFileMode sets the permissions used for new settings files.
func WithFileMode(mode fs.FileMode) Option {
	return func(f *File) {
		f.mode = mode
	}
}

// File is a JSON settings document acting as both session.Source and
// session.Sink. It is safe for concurrent use, including across processes
// that share the same settings path.
type File struct {
	path     string
	catalog  *metadata.Catalog
	roots    []string
	defaults []byte
	bus      *events.Bus
	mode     fs.FileMode

	mu   sync.Mutex
	lock *flock.Flock
	// seen holds the bytes last read or written by this process.
	seen []byte
}

var (
	_ session.Source = (*File)(nil)
	_ session.Sink   = (*File)(nil)
)

// NewFile returns a store for the settings document at path.
func NewFile(path string, options ...Option) *File {
	f := &File{path: path, mode: 0o644, lock: flock.New(path + ".lock")}
	for _, opt := range options {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Path returns the settings file location.
func (f *File) Path() string {
	return f.path
}

// Read returns the decoded settings document.
func (f *File) Read() (map[string]any, error) {
	return f.read(context.Background())
}

func (f *File) read(ctx context.Context) (map[string]any, error) {
	unlock, err := f.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return f.readLocked()
}

// Value returns the value stored at the dotted path.
func (f *File) Value(path string) (any, bool) {
	doc, err := f.Read()
	if err != nil {
		return nil, false
	}
	return getPath(doc, path)
}

// FetchSchema builds the settings schema from the current file contents.
func (f *File) FetchSchema(ctx context.Context) (session.Response, error) {
	if err := ctx.Err(); err != nil {
		return session.Response{}, err
	}
	doc, err := f.read(ctx)
	if err != nil {
		return session.Response{}, err
	}
	built, err := metadata.Build(doc, f.catalog, f.roots...)
	if err != nil {
		return session.Response{}, fmt.Errorf("store: build schema: %w", err)
	}
	return session.Response{Success: true, Schema: built}, nil
}

// WriteValue stores value at the dotted path and rewrites the file.
// Intermediate objects are created as needed.
func (f *File) WriteValue(ctx context.Context, path string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	unlock, err := f.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	doc, err := f.readLocked()
	if err != nil {
		return err
	}
	if err := setPath(doc, path, value); err != nil {
		return err
	}
	return f.writeLocked(doc)
}

// Export returns the settings document as indented JSON.
func (f *File) Export() ([]byte, error) {
	doc, err := f.Read()
	if err != nil {
		return nil, err
	}
	return encode(doc)
}

// Import replaces the whole settings document with data and notifies the bus
// so open sessions reload.
func (f *File) Import(data []byte) error {
	doc, err := decode(data, "import")
	if err != nil {
		return err
	}

	unlock, err := f.acquire(context.Background())
	if err != nil {
		return err
	}
	err = f.writeLocked(doc)
	unlock()
	if err != nil {
		return err
	}

	f.bus.Emit(events.ConfigChanged, f.path)
	return nil
}

func (f *File) readLocked() (map[string]any, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		if f.defaults == nil {
			return nil, fmt.Errorf("%w: %s", ErrNotExist, f.path)
		}
		doc, err := decode(f.defaults, "defaults")
		if err != nil {
			return nil, err
		}
		if err := f.writeLocked(doc); err != nil {
			return nil, err
		}
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", f.path, err)
	}
	doc, err := decode(data, f.path)
	if err != nil {
		return nil, err
	}
	f.seen = data
	return doc, nil
}

func (f *File) writeLocked(doc map[string]any) error {
	data, err := encode(doc)
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: create %s: %w", dir, err)
	}
	if err := writeAtomic(f.path, data, f.mode); err != nil {
		return fmt.Errorf("store: write %s: %w", f.path, err)
	}
	f.seen = data
	return nil
}

func decode(data []byte, source string) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("store: decode %s: %w", source, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("store: decode %s: document is not an object", source)
	}
	return doc, nil
}

func encode(doc map[string]any) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("store: encode settings: %w", err)
	}
	return append(data, '\n'), nil
}

func getPath(root map[string]any, path string) (any, bool) {
	segments, err := splitPath(path)
	if err != nil {
		return nil, false
	}
	var current any = root
	for _, segment := range segments {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		next, ok := node[segment]
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

func setPath(root map[string]any, path string, value any) error {
	segments, err := splitPath(path)
	if err != nil {
		return err
	}

	node := root
	for i, segment := range segments {
		if i == len(segments)-1 {
			node[segment] = value
			return nil
		}
		switch child := node[segment].(type) {
		case map[string]any:
			node = child
		case nil:
			next := make(map[string]any)
			node[segment] = next
			node = next
		default:
			return fmt.Errorf("store: %q is not an object in path %q", segment, path)
		}
	}
	return nil
}

func splitPath(path string) ([]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrInvalidPath
	}
	segments := strings.Split(path, ".")
	for _, segment := range segments {
		if segment == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}
	return segments, nil
}
