package indexcache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type sampleWiki struct {
	ProjectName string
	Overview    string
}

type sampleAnalysis struct {
	ProjectType string
}

func TestSaveAndLoadWiki(t *testing.T) {
	c := Open(t.TempDir())

	in := sampleWiki{ProjectName: "demo", Overview: "a demo project"}
	if err := c.SaveWiki(in); err != nil {
		t.Fatalf("SaveWiki: %v", err)
	}

	var out sampleWiki
	if !c.LoadWiki(&out) {
		t.Fatal("expected LoadWiki to hit")
	}
	if out != in {
		t.Errorf("got %+v, want %+v", out, in)
	}
}

func TestLoadWikiMissingIsCacheMiss(t *testing.T) {
	c := Open(t.TempDir())
	var out sampleWiki
	if c.LoadWiki(&out) {
		t.Fatal("expected cache-miss for missing wiki cache")
	}
}

func TestLoadWikiStaleByAgeIsCacheMiss(t *testing.T) {
	root := t.TempDir()
	c := Open(root)

	if err := c.SaveWiki(sampleWiki{ProjectName: "demo"}); err != nil {
		t.Fatalf("SaveWiki: %v", err)
	}

	path := filepath.Join(c.Dir(), "wiki-cache.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read cache file: %v", err)
	}
	old := time.Now().Add(-8 * 24 * time.Hour).Format(time.RFC3339Nano)
	rewritten := rewriteLastModified(t, string(data), old)
	if err := os.WriteFile(path, []byte(rewritten), 0o644); err != nil {
		t.Fatalf("rewrite cache file: %v", err)
	}

	var out sampleWiki
	if c.LoadWiki(&out) {
		t.Fatal("expected cache-miss for stale wiki cache")
	}
}

func TestLoadAnalysisVersionMismatchIsCacheMiss(t *testing.T) {
	root := t.TempDir()
	c := Open(root)

	if err := c.SaveAnalysis(sampleAnalysis{ProjectType: "Go"}); err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}

	path := filepath.Join(c.Dir(), "analysis-cache.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read cache file: %v", err)
	}
	rewritten := rewriteVersion(t, string(data), "0.0.1")
	if err := os.WriteFile(path, []byte(rewritten), 0o644); err != nil {
		t.Fatalf("rewrite cache file: %v", err)
	}

	var out sampleAnalysis
	if c.LoadAnalysis(&out) {
		t.Fatal("expected cache-miss for version mismatch")
	}
}

func TestConversationSessionRoundTrip(t *testing.T) {
	c := Open(t.TempDir())

	type session struct {
		ID      string
		Title   string
		History []string
	}
	in := session{ID: "s1", Title: "first chat", History: []string{"hello"}}

	if err := c.SaveSession("s1", in); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	var out session
	if !c.LoadSession("s1", &out) {
		t.Fatal("expected LoadSession to hit")
	}
	if out.Title != in.Title {
		t.Errorf("Title = %q, want %q", out.Title, in.Title)
	}

	ids := c.ListSessionIDs()
	if len(ids) != 1 || ids[0] != "s1" {
		t.Errorf("ListSessionIDs = %v, want [s1]", ids)
	}

	if err := c.DeleteSession("s1"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if c.LoadSession("s1", &out) {
		t.Fatal("expected cache-miss after delete")
	}
}

func TestClearRemovesDirectory(t *testing.T) {
	c := Open(t.TempDir())
	if err := c.SaveWiki(sampleWiki{ProjectName: "demo"}); err != nil {
		t.Fatalf("SaveWiki: %v", err)
	}
	if err := c.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := os.Stat(c.Dir()); !os.IsNotExist(err) {
		t.Error("expected cache dir to be removed")
	}
}

func TestGlobalIndex_TouchAndEvictOldest(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "global-index.db")
	g, err := OpenGlobalIndex(dbPath)
	if err != nil {
		t.Fatalf("OpenGlobalIndex: %v", err)
	}
	defer g.Close()

	for i := 0; i < GlobalCap+3; i++ {
		path := filepath.Join("/repos", string(rune('a'+i)))
		if _, err := g.Touch(path, "project-"+string(rune('a'+i))); err != nil {
			t.Fatalf("Touch(%d): %v", i, err)
		}
	}

	entries, err := g.Entries()
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != GlobalCap {
		t.Errorf("Entries len = %d, want %d", len(entries), GlobalCap)
	}
}

func TestGlobalIndex_CleanupDue(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "global-index.db")
	g, err := OpenGlobalIndex(dbPath)
	if err != nil {
		t.Fatalf("OpenGlobalIndex: %v", err)
	}
	defer g.Close()

	if !g.CleanupDue() {
		t.Error("expected cleanup due on fresh index")
	}
	if err := g.MarkCleanupDone(); err != nil {
		t.Fatalf("MarkCleanupDone: %v", err)
	}
	if g.CleanupDue() {
		t.Error("expected cleanup not due immediately after marking done")
	}
}

func rewriteLastModified(t *testing.T, jsonStr, newValue string) string {
	t.Helper()
	return replaceJSONStringField(t, jsonStr, "lastModified", newValue)
}

func rewriteVersion(t *testing.T, jsonStr, newValue string) string {
	t.Helper()
	return replaceJSONStringField(t, jsonStr, "version", newValue)
}

// replaceJSONStringField decodes the envelope, overwrites a top-level
// string field, and re-encodes it, avoiding any assumption about the
// exact formatting SaveWiki/SaveAnalysis produced.
func replaceJSONStringField(t *testing.T, jsonStr, field, newValue string) string {
	t.Helper()
	var m map[string]json.RawMessage
	if err := json.Unmarshal([]byte(jsonStr), &m); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if _, ok := m[field]; !ok {
		t.Fatalf("field %q not found in envelope", field)
	}
	encoded, err := json.Marshal(newValue)
	if err != nil {
		t.Fatalf("marshal field value: %v", err)
	}
	m[field] = encoded

	out, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal rewritten envelope: %v", err)
	}
	return string(out)
}
