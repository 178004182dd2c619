package metadata

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-configform/pkg/schema"
)

// Catalog maps dotted paths to explicit form metadata.
type Catalog struct {
	entries map[string]schema.FieldMetadata
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[string]schema.FieldMetadata)}
}

// Lookup returns the metadata registered for path.
func (c *Catalog) Lookup(path string) (schema.FieldMetadata, bool) {
	if c == nil {
		return schema.FieldMetadata{}, false
	}
	meta, ok := c.entries[path]
	return meta, ok
}

// Set registers meta for path, replacing any existing entry.
func (c *Catalog) Set(path string, meta schema.FieldMetadata) {
	if c.entries == nil {
		c.entries = make(map[string]schema.FieldMetadata)
	}
	c.entries[path] = sanitizeMetadata(meta)
}

// Overlay merges every entry of other into c, attribute by attribute.
func (c *Catalog) Overlay(other *Catalog) {
	for _, path := range other.Paths() {
		meta, _ := other.Lookup(path)
		c.merge(path, meta)
	}
}

// Paths returns the registered paths in lexical order.
func (c *Catalog) Paths() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.entries))
	for path := range c.entries {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// Len reports the number of entries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// nestedMetadata mirrors FieldMetadata with nested children keyed by the
// next path segment.
type nestedMetadata struct {
	schema.FieldMetadata `yaml:",inline"`
	Children             map[string]nestedMetadata `json:"children,omitempty" yaml:"children,omitempty"`
}

// LoadFS walks fsys and loads every JSON/YAML metadata document in lexical
// path order. Later documents override earlier entries attribute by
// attribute. A nil fsys yields an empty catalog.
func LoadFS(fsys fs.FS) (*Catalog, error) {
	catalog := NewCatalog()
	if fsys == nil {
		return catalog, nil
	}

	var names []string
	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isMetadataFile(path) {
			return nil
		}
		names = append(names, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	if err := catalog.Load(fsys, names...); err != nil {
		return nil, err
	}
	return catalog, nil
}

// LoadFiles loads the named documents from fsys in the order given, so
// platform overlays can be listed after the base document.
func LoadFiles(fsys fs.FS, names ...string) (*Catalog, error) {
	catalog := NewCatalog()
	if err := catalog.Load(fsys, names...); err != nil {
		return nil, err
	}
	return catalog, nil
}

// Load reads the named documents from fsys into c, overlaying existing
// entries.
func (c *Catalog) Load(fsys fs.FS, names ...string) error {
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("metadata: read %s: %w", name, err)
		}

		doc, err := parseDocument(data, name)
		if err != nil {
			return err
		}

		roots := make([]string, 0, len(doc))
		for key := range doc {
			roots = append(roots, key)
		}
		sort.Strings(roots)

		for _, key := range roots {
			root := strings.TrimSpace(key)
			if root == "" {
				return fmt.Errorf("metadata: file %s defines an empty root key", name)
			}
			if err := c.flatten(root, doc[key], name); err != nil {
				return err
			}
		}
	}
	return nil
}

// merge overlays meta on any existing entry for path.
func (c *Catalog) merge(path string, meta schema.FieldMetadata) {
	if existing, ok := c.Lookup(path); ok {
		meta = Merge(existing, meta)
	}
	c.Set(path, meta)
}

func (c *Catalog) flatten(path string, nested nestedMetadata, source string) error {
	c.merge(path, nested.FieldMetadata)

	for childKey, child := range nested.Children {
		key := strings.TrimSpace(childKey)
		if key == "" {
			return fmt.Errorf("metadata: file %s defines an empty child key under %q", source, path)
		}
		if err := c.flatten(path+"."+key, child, source); err != nil {
			return err
		}
	}
	return nil
}

func parseDocument(data []byte, source string) (map[string]nestedMetadata, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("metadata: file %s is empty", source)
	}

	var doc map[string]nestedMetadata
	jsonErr := json.Unmarshal(data, &doc)
	if jsonErr == nil {
		return doc, nil
	}

	doc = nil
	if err := yaml.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}

	if isJSONFile(source) {
		return nil, fmt.Errorf("metadata: parse %s: %w", source, jsonErr)
	}
	return nil, fmt.Errorf("metadata: parse %s: invalid JSON or YAML", source)
}

func isMetadataFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

func isJSONFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
