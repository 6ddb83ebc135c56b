package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Cache is the content-addressed compiled-artifact cache of spec.md §6
// ("Persisted state"): a directory holding compiled objects/executables
// keyed by a hash of (source text, toolchain identity, relevant flags),
// plus a single JSON manifest file mapping hash -> {object, binary}
// paths. The manifest is read/patched with gjson/sjson rather than
// unmarshaled into a fixed struct, since its only two fields per entry
// don't warrant a schema type and ad hoc path-based get/set keeps the
// cache format easy to extend without a migration.
type Cache struct {
	dir     string
	disable bool
}

// Entry is one cache hit's resolved artifact paths.
type Entry struct {
	Object string
	Binary string
}

// NewCache creates a Cache rooted at dir. disable makes every Lookup
// miss and every Store a no-op, implementing spec.md §6's `--no-cache`.
func NewCache(dir string, disable bool) *Cache {
	return &Cache{dir: dir, disable: disable}
}

// Key computes the cache key for one compilation: a sha256 of the
// generated C (or Lua) text, the toolchain's identity string, and the
// cflags/ldflags that would affect its output.
func (c *Cache) Key(code, toolchainIdentity string, cflags, ldflags []string) string {
	h := sha256.New()
	h.Write([]byte(code))
	h.Write([]byte("\x00"))
	h.Write([]byte(toolchainIdentity))
	h.Write([]byte("\x00"))
	h.Write([]byte(strings.Join(cflags, " ")))
	h.Write([]byte("\x00"))
	h.Write([]byte(strings.Join(ldflags, " ")))
	return hex.EncodeToString(h.Sum(nil))
}

func (c *Cache) manifestPath() string {
	return filepath.Join(c.dir, "manifest.json")
}

func (c *Cache) readManifest() string {
	data, err := os.ReadFile(c.manifestPath())
	if err != nil {
		return "{}"
	}
	return string(data)
}

// Lookup returns the cached artifact paths for key, if both the
// manifest entry and the files it points at still exist on disk.
func (c *Cache) Lookup(key string) (Entry, bool) {
	if c.disable {
		return Entry{}, false
	}
	result := gjson.Get(c.readManifest(), gjsonKey(key))
	if !result.Exists() {
		return Entry{}, false
	}
	entry := Entry{
		Object: result.Get("object").String(),
		Binary: result.Get("binary").String(),
	}
	if _, err := os.Stat(entry.Object); err != nil {
		return Entry{}, false
	}
	if _, err := os.Stat(entry.Binary); err != nil {
		return Entry{}, false
	}
	return entry, true
}

// Store records key -> {object, binary} in the manifest, creating the
// cache directory if needed.
func (c *Cache) Store(key, object, binary string) error {
	if c.disable {
		return nil
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	manifest := c.readManifest()
	manifest, err := sjson.Set(manifest, gjsonKey(key)+".object", object)
	if err != nil {
		return err
	}
	manifest, err = sjson.Set(manifest, gjsonKey(key)+".binary", binary)
	if err != nil {
		return err
	}
	return os.WriteFile(c.manifestPath(), []byte(manifest), 0o644)
}

// gjsonKey escapes a hex digest for use as a gjson/sjson path segment.
// Hex digests never contain gjson's path metacharacters (`.`, `*`,
// `?`), so this is an identity function kept as a named seam in case
// the key format ever changes.
func gjsonKey(key string) string { return key }
