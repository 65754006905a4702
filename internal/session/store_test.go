package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestStoreCreateGetRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())
	sess := New("abc-123", "widget-app", testPhases(), map[string]string{"framework": "react"})

	if err := store.Create(sess); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := store.Get("abc-123")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Pipeline != "widget-app" || got.Status != StatusInitializing {
		t.Errorf("got %+v", got)
	}
	if len(got.Phases) != 3 || got.Phases[2].Name != "tests" {
		t.Errorf("phases = %+v", got.Phases)
	}
	if got.Context["framework"] != "react" {
		t.Errorf("context = %v", got.Context)
	}
}

func TestStoreCreateRejectsDuplicate(t *testing.T) {
	store := NewStore(t.TempDir())
	sess := New("abc-123", "widget-app", testPhases(), nil)

	if err := store.Create(sess); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Create(sess); err == nil {
		t.Fatal("expected error on duplicate create")
	}
}

func TestStoreGetUnknownSession(t *testing.T) {
	store := NewStore(t.TempDir())
	if _, err := store.Get("nope"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestStoreSavePersistsProgress(t *testing.T) {
	store := NewStore(t.TempDir())
	sess := New("abc-123", "widget-app", testPhases(), nil)
	if err := store.Create(sess); err != nil {
		t.Fatalf("Create: %v", err)
	}

	sess.Status = StatusRunning
	sess.Append(PhaseResult{Phase: "scaffold", Index: 0, Status: PhaseCompleted})
	if err := store.Save(sess); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Get("abc-123")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != StatusRunning || got.CurrentIndex != 1 || len(got.Results) != 1 {
		t.Errorf("got %+v", got)
	}
}

func TestStoreListFiltersByStatus(t *testing.T) {
	store := NewStore(t.TempDir())

	for i, status := range []string{StatusCompleted, StatusFailed, StatusCompleted} {
		sess := New(string(rune('a'+i)), "widget-app", testPhases(), nil)
		sess.Status = status
		sess.StartedAt = time.Date(2026, 8, 1+i, 0, 0, 0, 0, time.UTC)
		if err := store.Create(sess); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	all, err := store.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len(all) = %d, want 3", len(all))
	}
	// Newest first.
	if all[0].ID != "c" || all[2].ID != "a" {
		t.Errorf("order = %s, %s, %s", all[0].ID, all[1].ID, all[2].ID)
	}

	completed, err := store.List(StatusCompleted)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(completed) != 2 {
		t.Errorf("len(completed) = %d, want 2", len(completed))
	}
}

func TestStoreListEmptyBase(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing"))
	sessions, err := store.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if sessions != nil {
		t.Errorf("sessions = %v, want nil", sessions)
	}
}

func TestStoreDelete(t *testing.T) {
	store := NewStore(t.TempDir())
	sess := New("abc-123", "widget-app", testPhases(), nil)
	if err := store.Create(sess); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := store.Delete("abc-123"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get("abc-123"); err == nil {
		t.Fatal("session still readable after delete")
	}
	if err := store.Delete("abc-123"); err == nil {
		t.Fatal("expected error deleting missing session")
	}
}

func TestStorePhaseAttemptLayout(t *testing.T) {
	store := NewStore(t.TempDir())
	sess := New("abc-123", "widget-app", testPhases(), nil)
	if err := store.Create(sess); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := store.SavePrompt("abc-123", "scaffold", 1, "build the skeleton"); err != nil {
		t.Fatalf("SavePrompt: %v", err)
	}
	if err := store.SaveRaw("abc-123", "scaffold", 1, "```ts\nraw\n```"); err != nil {
		t.Fatalf("SaveRaw: %v", err)
	}
	path, err := store.SaveArtifact("abc-123", "scaffold", 1, "scaffold.ts", "export const a = 1;\n")
	if err != nil {
		t.Fatalf("SaveArtifact: %v", err)
	}

	attemptDir := filepath.Join(store.BaseDir(), "abc-123", "phases", "scaffold", "attempt-1")
	for _, name := range []string{"prompt.md", "raw.txt"} {
		if _, err := os.Stat(filepath.Join(attemptDir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	if want := filepath.Join(attemptDir, "artifacts", "scaffold.ts"); path != want {
		t.Errorf("artifact path = %s, want %s", path, want)
	}
	if got := store.ArtifactDir("abc-123", "scaffold", 1); got != filepath.Join(attemptDir, "artifacts") {
		t.Errorf("ArtifactDir = %s", got)
	}

	content, err := store.GetArtifact("abc-123", "scaffold", 1, "scaffold.ts")
	if err != nil {
		t.Fatalf("GetArtifact: %v", err)
	}
	if content != "export const a = 1;\n" {
		t.Errorf("content = %q", content)
	}

	// A retry writes under its own attempt directory.
	if _, err := store.SaveArtifact("abc-123", "scaffold", 2, "scaffold.ts", "retry\n"); err != nil {
		t.Fatalf("SaveArtifact attempt 2: %v", err)
	}
	first, _ := store.GetArtifact("abc-123", "scaffold", 1, "scaffold.ts")
	second, _ := store.GetArtifact("abc-123", "scaffold", 2, "scaffold.ts")
	if first == second {
		t.Error("attempts share artifact storage")
	}
}

func TestStoreSaveCorrection(t *testing.T) {
	store := NewStore(t.TempDir())
	sess := New("abc-123", "widget-app", testPhases(), nil)
	if err := store.Create(sess); err != nil {
		t.Fatalf("Create: %v", err)
	}

	diag := map[string]interface{}{"iterations": 2, "success": true}
	if err := store.SaveCorrection("abc-123", "scaffold", 1, diag); err != nil {
		t.Fatalf("SaveCorrection: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(store.BaseDir(), "abc-123", "phases", "scaffold", "attempt-1", "correction.json"))
	if err != nil {
		t.Fatalf("read correction.json: %v", err)
	}
	if !strings.Contains(string(data), "\"iterations\": 2") {
		t.Errorf("correction.json = %s", data)
	}
}

func TestWriteAtomicLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	if err := writeAtomic(path, []byte("hello")); err != nil {
		t.Fatalf("writeAtomic: %v", err)
	}
	if err := writeAtomic(path, []byte("world")); err != nil {
		t.Fatalf("writeAtomic overwrite: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "world" {
		t.Errorf("content = %q", data)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".genforge-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}
