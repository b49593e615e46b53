// Package indexcache implements the per-repo and global on-disk caches
// the rest of the pipeline uses to avoid re-scanning, re-embedding, and
// re-generating wiki content on every run.
package indexcache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ziadkadry99/repowiki/internal/logging"
)

// SchemaVersion is embedded in every per-repo cache artifact. A version
// mismatch on load is treated as a cache-miss, never an error.
const SchemaVersion = "1.0.0"

// MaxAge is how long a cached artifact remains valid regardless of
// schema version.
const MaxAge = 7 * 24 * time.Hour

// DirName is the default per-repo cache directory name.
const DirName = ".deepwiki"

var log = logging.New("indexcache")

// Cache is a handle onto one repository's on-disk cache directory.
type Cache struct {
	dir string
}

// Open returns a Cache rooted at <repoRoot>/.deepwiki. It does not touch
// the filesystem; a missing directory is not an error anywhere in this
// package — writers create it lazily, readers treat it as a cache-miss.
func Open(repoRoot string) *Cache {
	return &Cache{dir: filepath.Join(repoRoot, DirName)}
}

// Dir returns the cache root directory.
func (c *Cache) Dir() string { return c.dir }

// VectorsDir returns the directory a VectorStore should Persist/Load its
// snapshot in (cache/vectors.json lives under here).
func (c *Cache) VectorsDir() string {
	return filepath.Join(c.dir, "cache")
}

// versionedEnvelope is the common shape of the wiki-cache and
// analysis-cache JSON files: a schema version, a created/last-modified
// timestamp pair, and an opaque payload.
type versionedEnvelope struct {
	Version      string          `json:"version"`
	Payload      json.RawMessage `json:"payload"`
	CreatedAt    time.Time       `json:"createdAt"`
	LastModified time.Time       `json:"lastModified"`
}

func (c *Cache) saveEnvelope(filename, payloadKey string, data interface{}) error {
	path := filepath.Join(c.dir, filename)

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("indexcache: marshal %s: %w", filename, err)
	}

	env := versionedEnvelope{
		Version:      SchemaVersion,
		Payload:      payload,
		CreatedAt:    time.Now(),
		LastModified: time.Now(),
	}
	if existing, ok := c.readEnvelope(filename, false); ok {
		env.CreatedAt = existing.CreatedAt
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		log.Warnf("create cache dir %s: %v", c.dir, err)
		return nil
	}

	raw, err := json.MarshalIndent(rawEnvelope{payloadKey, env}, "", "  ")
	if err != nil {
		return fmt.Errorf("indexcache: marshal envelope: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		log.Warnf("write %s: %v", path, err)
	}
	return nil
}

// rawEnvelope renders the payload under its spec-named key
// ("wikiData"/"analysisResult") instead of the generic "payload" field,
// matching spec.md §4.5's literal JSON shape.
type rawEnvelope struct {
	key string
	env versionedEnvelope
}

func (r rawEnvelope) MarshalJSON() ([]byte, error) {
	m := map[string]interface{}{
		"version":      r.env.Version,
		r.key:          r.env.Payload,
		"createdAt":    r.env.CreatedAt,
		"lastModified": r.env.LastModified,
	}
	return json.Marshal(m)
}

// readEnvelope reads and decodes an envelope file without applying the
// invalidation rules; checkAge controls whether a stale-by-age file is
// still reported as present (used internally to preserve createdAt
// across a save even when the existing file has expired).
func (c *Cache) readEnvelope(filename string, checkAge bool) (versionedEnvelope, bool) {
	path := filepath.Join(c.dir, filename)
	data, err := os.ReadFile(path)
	if err != nil {
		return versionedEnvelope{}, false
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Debugf("parse %s: %v", path, err)
		return versionedEnvelope{}, false
	}

	var env versionedEnvelope
	if v, ok := raw["version"]; ok {
		_ = json.Unmarshal(v, &env.Version)
	}
	if v, ok := raw["createdAt"]; ok {
		_ = json.Unmarshal(v, &env.CreatedAt)
	}
	if v, ok := raw["lastModified"]; ok {
		_ = json.Unmarshal(v, &env.LastModified)
	}
	for _, key := range []string{"wikiData", "analysisResult"} {
		if v, ok := raw[key]; ok {
			env.Payload = v
		}
	}

	if checkAge && time.Since(env.LastModified) > MaxAge {
		return versionedEnvelope{}, false
	}
	return env, true
}

func (c *Cache) loadEnvelope(filename string, out interface{}) bool {
	env, ok := c.readEnvelope(filename, true)
	if !ok {
		return false
	}
	if env.Version != SchemaVersion {
		log.Debugf("%s: schema version mismatch, cache-miss", filename)
		return false
	}
	if len(env.Payload) == 0 {
		return false
	}
	if err := json.Unmarshal(env.Payload, out); err != nil {
		log.Debugf("%s: unmarshal payload: %v", filename, err)
		return false
	}
	return true
}

// SaveWiki persists data as the repo's wiki cache. Write failures are
// logged and do not propagate — the pipeline continues uncached.
func (c *Cache) SaveWiki(data interface{}) error {
	return c.saveEnvelope("wiki-cache.json", "wikiData", data)
}

// LoadWiki populates out from the wiki cache. It returns false (and no
// error) on any miss: missing file, parse failure, version mismatch, or
// staleness beyond MaxAge.
func (c *Cache) LoadWiki(out interface{}) bool {
	return c.loadEnvelope("wiki-cache.json", out)
}

// SaveAnalysis persists data as the repo's project-analysis cache.
func (c *Cache) SaveAnalysis(data interface{}) error {
	return c.saveEnvelope("analysis-cache.json", "analysisResult", data)
}

// LoadAnalysis populates out from the analysis cache, subject to the
// same invalidation rules as LoadWiki.
func (c *Cache) LoadAnalysis(out interface{}) bool {
	return c.loadEnvelope("analysis-cache.json", out)
}

// conversationsDir is the per-session JSON file directory.
func (c *Cache) conversationsDir() string {
	return filepath.Join(c.dir, "conversations")
}

// SaveSession writes one session's JSON representation to
// conversations/<sessionID>.json, creating the directory if needed.
func (c *Cache) SaveSession(sessionID string, data interface{}) error {
	dir := c.conversationsDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Warnf("create conversations dir: %v", err)
		return nil
	}

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("indexcache: marshal session %s: %w", sessionID, err)
	}

	path := filepath.Join(dir, sessionID+".json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		log.Warnf("write session %s: %v", sessionID, err)
	}
	return nil
}

// LoadSession populates out from conversations/<sessionID>.json. It
// returns false on any miss (missing file or parse failure).
func (c *Cache) LoadSession(sessionID string, out interface{}) bool {
	path := filepath.Join(c.conversationsDir(), sessionID+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		log.Debugf("parse session %s: %v", sessionID, err)
		return false
	}
	return true
}

// DeleteSession removes one session's on-disk file. A missing file is
// not an error.
func (c *Cache) DeleteSession(sessionID string) error {
	path := filepath.Join(c.conversationsDir(), sessionID+".json")
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("indexcache: delete session %s: %w", sessionID, err)
	}
	return nil
}

// ListSessionIDs enumerates the session ids with a persisted file,
// for populating an in-memory map on startup.
func (c *Cache) ListSessionIDs() []string {
	entries, err := os.ReadDir(c.conversationsDir())
	if err != nil {
		return nil
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		const ext = ".json"
		if len(name) > len(ext) && name[len(name)-len(ext):] == ext {
			ids = append(ids, name[:len(name)-len(ext)])
		}
	}
	return ids
}

// Clear removes the entire per-repo cache directory. A missing
// directory is not an error.
func (c *Cache) Clear() error {
	if err := os.RemoveAll(c.dir); err != nil {
		return fmt.Errorf("indexcache: clear %s: %w", c.dir, err)
	}
	return nil
}
