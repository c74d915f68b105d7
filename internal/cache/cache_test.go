package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauern/skilltrigger/internal/model"
	"github.com/klauern/skilltrigger/internal/util"
)

func testDoc(path, text string) model.SkillDocument {
	return model.SkillDocument{
		Path:    path,
		RawText: text,
		Origin:  model.Origin{Scope: model.ScopeRepository},
	}
}

func testSkill(name, path string) model.Skill {
	pattern := name + ":run"
	return model.Skill{
		Metadata: model.Metadata{
			Name:        name,
			Description: "A test skill",
			Trigger:     &pattern,
			Scope:       model.ScopeRepository,
		},
		Body: "Run $ARGUMENTS",
		Path: path,
	}
}

func TestNew(t *testing.T) {
	cache, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if cache.Version != cacheVersion {
		t.Errorf("cache.Version = %q, want %q", cache.Version, cacheVersion)
	}
	if cache.Entries == nil {
		t.Error("cache.Entries should not be nil")
	}
	if cache.Size() != 0 {
		t.Errorf("cache.Size() = %d, want 0", cache.Size())
	}
}

func TestNewWithEmptyCacheDirUsesDefault(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv(util.HomeEnv, tmpDir)

	cache, err := New("")
	if err != nil {
		t.Fatalf("New() with empty cache dir error = %v", err)
	}

	expectedPath := filepath.Join(tmpDir, "cache", "skills.json")
	if cache.Path() != expectedPath {
		t.Errorf("cache.Path() = %q, want %q", cache.Path(), expectedPath)
	}
}

func TestCacheSetAndGet(t *testing.T) {
	cache, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	doc := testDoc("/skills/a.md", "---\nname: a\n---\nRun $ARGUMENTS")
	skill := testSkill("a", doc.Path)
	cache.Set(doc, skill)

	if cache.Size() != 1 {
		t.Errorf("cache.Size() = %d, want 1", cache.Size())
	}

	retrieved, ok := cache.Get(doc)
	if !ok {
		t.Fatal("cache.Get() should hit for unchanged document")
	}
	if retrieved.Name() != "a" || retrieved.Rule() != model.KeywordTrigger("a:run") {
		t.Errorf("retrieved = %+v", retrieved)
	}

	if _, ok := cache.Get(testDoc("/skills/other.md", "x")); ok {
		t.Error("cache.Get() should miss for unknown path")
	}
}

func TestCacheInvalidatesOnChange(t *testing.T) {
	tests := map[string]func(model.SkillDocument) model.SkillDocument{
		"content changed": func(d model.SkillDocument) model.SkillDocument {
			d.RawText += "\nmore"
			return d
		},
		"scope changed": func(d model.SkillDocument) model.SkillDocument {
			d.Origin.Scope = model.ScopeAgent
			return d
		},
		"plugin command changed": func(d model.SkillDocument) model.SkillDocument {
			d.Origin.Plugin = "p"
			d.Origin.Command = "c"
			return d
		},
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cache, err := New(t.TempDir())
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			doc := testDoc("/skills/a.md", "body")
			cache.Set(doc, testSkill("a", doc.Path))

			if _, ok := cache.Get(mutate(doc)); ok {
				t.Error("cache.Get() should miss after the document changed")
			}
			if cache.Size() != 0 {
				t.Errorf("stale entry should be dropped, size = %d", cache.Size())
			}
		})
	}
}

func TestCacheGetRefreshesModTime(t *testing.T) {
	cache, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	doc := testDoc("/skills/a.md", "body")
	cache.Set(doc, testSkill("a", doc.Path))

	doc.ModifiedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	got, ok := cache.Get(doc)
	if !ok {
		t.Fatal("cache.Get() should hit: touching a file does not change its content")
	}
	if !got.ModifiedAt.Equal(doc.ModifiedAt) {
		t.Errorf("ModifiedAt = %v, want %v", got.ModifiedAt, doc.ModifiedAt)
	}
}

func TestCacheSaveAndLoad(t *testing.T) {
	dir := t.TempDir()

	cache1, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	doc := testDoc("/skills/persisted.md", "Run $ARGUMENTS")
	cache1.Set(doc, testSkill("persisted", doc.Path))

	if err := cache1.Save(); err != nil {
		t.Fatalf("cache.Save() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "skills.json")); err != nil {
		t.Fatalf("cache file not written: %v", err)
	}

	cache2, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if cache2.Size() != 1 {
		t.Errorf("loaded cache.Size() = %d, want 1", cache2.Size())
	}

	retrieved, ok := cache2.Get(doc)
	if !ok {
		t.Fatal("loaded cache should contain persisted skill")
	}
	if retrieved.Name() != "persisted" || retrieved.Body != "Run $ARGUMENTS" {
		t.Errorf("retrieved = %+v", retrieved)
	}
	if retrieved.Rule() != model.KeywordTrigger("persisted:run") {
		t.Errorf("retrieved rule = %v", retrieved.Rule())
	}
}

func TestCacheSaveSkipsWhenClean(t *testing.T) {
	dir := t.TempDir()
	cache, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := cache.Save(); err != nil {
		t.Fatalf("cache.Save() error = %v", err)
	}
	if _, err := os.Stat(cache.Path()); !os.IsNotExist(err) {
		t.Error("Save() of an untouched cache should not write a file")
	}
}

func TestCacheCorruptedFile(t *testing.T) {
	dir := t.TempDir()
	util.WriteFile(t, filepath.Join(dir, "skills.json"), "{not json")

	cache, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if cache.Size() != 0 {
		t.Errorf("corrupted cache should start empty, size = %d", cache.Size())
	}
}

func TestCacheVersionMismatch(t *testing.T) {
	dir := t.TempDir()
	util.WriteFile(t, filepath.Join(dir, "skills.json"),
		`{"version": "1.0", "entries": {"/a.md": {"hash": "x"}}}`)

	cache, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if cache.Size() != 0 || cache.Version != cacheVersion {
		t.Errorf("old cache version should be discarded: %+v", cache)
	}
}

func TestCachePrune(t *testing.T) {
	cache, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for _, p := range []string{"/a.md", "/b.md", "/c.md"} {
		doc := testDoc(p, p)
		cache.Set(doc, testSkill("s", p))
	}

	pruned := cache.Prune(map[string]bool{"/b.md": true})
	if pruned != 2 {
		t.Errorf("Prune() = %d, want 2", pruned)
	}
	if _, ok := cache.Entries["/b.md"]; !ok || cache.Size() != 1 {
		t.Errorf("Prune() kept %v", cache.Entries)
	}
}

func TestCacheExpire(t *testing.T) {
	cache, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	cache.Set(testDoc("/fresh.md", "f"), testSkill("fresh", "/fresh.md"))
	cache.Set(testDoc("/old.md", "o"), testSkill("old", "/old.md"))
	old := cache.Entries["/old.md"]
	old.CachedAt = time.Now().Add(-2 * time.Hour)
	cache.Entries["/old.md"] = old

	if got := cache.Expire(time.Hour); got != 1 {
		t.Errorf("Expire() = %d, want 1", got)
	}
	if _, ok := cache.Entries["/fresh.md"]; !ok {
		t.Error("fresh entry should survive")
	}
	if got := cache.Expire(0); got != 0 {
		t.Errorf("Expire(0) = %d, want 0", got)
	}
}

func TestCacheClear(t *testing.T) {
	cache, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	cache.Set(testDoc("/a.md", "a"), testSkill("a", "/a.md"))
	if err := cache.Save(); err != nil {
		t.Fatalf("cache.Save() error = %v", err)
	}

	if err := cache.Clear(); err != nil {
		t.Fatalf("cache.Clear() error = %v", err)
	}
	if cache.Size() != 0 {
		t.Errorf("cache.Size() after Clear() = %d, want 0", cache.Size())
	}
	if _, err := os.Stat(cache.Path()); !os.IsNotExist(err) {
		t.Error("cache file should be removed after Clear()")
	}

	// Clearing again without a file is not an error.
	if err := cache.Clear(); err != nil {
		t.Errorf("second Clear() error = %v", err)
	}
}
