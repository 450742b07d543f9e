// Package toolcache remembers where linter executables live, so repeated
// checks and the linter listing do not re-probe $PATH and re-run version
// commands. Entries are keyed by a digest of the tool name and the current
// $PATH, so a changed environment simply misses the cache. Diagnostics
// themselves are never persisted.
package toolcache

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Current schema version - increment when Entry format changes
const schemaVersion uint16 = 1

// versionProbeTimeout bounds the `tool --version` probe.
const versionProbeTimeout = 2 * time.Second

// Entry describes one resolved tool.
type Entry struct {
	Schema  uint16
	Tool    string
	Path    string
	Version string
}

// Cache is a small msgpack-on-disk map. Thread-safe for concurrent access.
type Cache struct {
	mu  sync.Mutex
	dir string
}

// Open initializes and returns a cache at the standard location
// ($XDG_CACHE_HOME/<app>, falling back to ~/.cache/<app>).
func Open(app string) (*Cache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) pathFor(tool string) string {
	sum := sha256.Sum256([]byte(tool + "\x00" + os.Getenv("PATH")))
	return filepath.Join(c.dir, "tools", hex.EncodeToString(sum[:])+".mp")
}

// Resolve returns the entry for tool, from disk if possible, probing the
// system otherwise. A tool that cannot be found on $PATH is an error; the
// version probe failing is not (Version is just left empty).
func (c *Cache) Resolve(ctx context.Context, tool string) (Entry, error) {
	if entry, ok := c.get(tool); ok {
		return entry, nil
	}

	resolved, err := exec.LookPath(tool)
	if err != nil {
		return Entry{}, fmt.Errorf("tool %q not found: %w", tool, err)
	}
	entry := Entry{
		Schema:  schemaVersion,
		Tool:    tool,
		Path:    resolved,
		Version: probeVersion(ctx, resolved),
	}
	if err := c.put(tool, entry); err != nil {
		// Cache misses are acceptable; cache write failures are too.
		return entry, nil
	}
	return entry, nil
}

func (c *Cache) get(tool string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := os.Open(c.pathFor(tool))
	if err != nil {
		return Entry{}, false
	}
	defer f.Close()

	var entry Entry
	if err := msgpack.NewDecoder(f).Decode(&entry); err != nil {
		return Entry{}, false
	}
	if entry.Schema != schemaVersion || entry.Tool != tool {
		return Entry{}, false
	}
	// The binary may have been removed since it was cached.
	if _, err := os.Stat(entry.Path); err != nil {
		return Entry{}, false
	}
	return entry, true
}

func (c *Cache) put(tool string, entry Entry) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(tool)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if err := msgpack.NewEncoder(f).Encode(&entry); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// DropAll invalidates the cache, useful after format changes.
func (c *Cache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return os.RemoveAll(old)
}

// probeVersion asks the tool for its version and keeps the first output
// line. Tools without a --version flag just yield an empty string.
func probeVersion(ctx context.Context, path string) string {
	ctx, cancel := context.WithTimeout(ctx, versionProbeTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, path, "--version").Output()
	if err != nil {
		return ""
	}
	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text())
	}
	return ""
}

// CommandTool extracts the executable name from a command template,
// skipping environment assignments.
func CommandTool(command string) string {
	for _, field := range strings.Fields(command) {
		if strings.Contains(field, "=") {
			continue
		}
		return field
	}
	return ""
}
