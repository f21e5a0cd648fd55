package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/thebenlamm/LLM-Conclave-sub004/internal/core"
)

func newTestStore(t *testing.T) *GlobalStore {
	t.Helper()
	s, err := NewGlobalStore(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("NewGlobalStore: %v", err)
	}
	return s
}

func TestGlobalStore_DefaultWhenMissing(t *testing.T) {
	s := newTestStore(t)
	if got := s.AlwaysAllowUnder(); got != defaultAlwaysAllowUnder {
		t.Errorf("AlwaysAllowUnder = %v, want %v", got, defaultAlwaysAllowUnder)
	}
}

func TestGlobalStore_SaveAndReload(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveAlwaysAllowUnder(1.25); err != nil {
		t.Fatalf("SaveAlwaysAllowUnder: %v", err)
	}
	if got := s.AlwaysAllowUnder(); got != 1.25 {
		t.Errorf("AlwaysAllowUnder = %v, want 1.25", got)
	}

	// A fresh store over the same path sees the persisted value.
	reopened, err := NewGlobalStore(s.Path())
	if err != nil {
		t.Fatalf("NewGlobalStore: %v", err)
	}
	if got := reopened.AlwaysAllowUnder(); got != 1.25 {
		t.Errorf("reloaded AlwaysAllowUnder = %v, want 1.25", got)
	}
}

func TestGlobalStore_PreservesOtherKeys(t *testing.T) {
	s := newTestStore(t)
	existing := map[string]interface{}{
		"log": map[string]interface{}{"level": "debug"},
		"consult": map[string]interface{}{
			"maxRounds":        3,
			"alwaysAllowUnder": 0.10,
		},
	}
	data, _ := json.Marshal(existing)
	if err := os.WriteFile(s.Path(), data, 0o600); err != nil {
		t.Fatal(err)
	}

	if err := s.SaveAlwaysAllowUnder(2.00); err != nil {
		t.Fatalf("SaveAlwaysAllowUnder: %v", err)
	}

	raw, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("config not valid JSON after save: %v", err)
	}
	log, _ := doc["log"].(map[string]interface{})
	if log["level"] != "debug" {
		t.Errorf("log.level not preserved: %v", doc)
	}
	consult, _ := doc["consult"].(map[string]interface{})
	if consult["maxRounds"] != float64(3) {
		t.Errorf("consult.maxRounds not preserved: %v", consult)
	}
	if consult["alwaysAllowUnder"] != float64(2.00) {
		t.Errorf("consult.alwaysAllowUnder = %v, want 2", consult["alwaysAllowUnder"])
	}
}

func TestGlobalStore_CorruptedFileTreatedAsEmpty(t *testing.T) {
	s := newTestStore(t)
	if err := os.WriteFile(s.Path(), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	if got := s.AlwaysAllowUnder(); got != defaultAlwaysAllowUnder {
		t.Errorf("AlwaysAllowUnder on corrupted file = %v, want default", got)
	}
	if err := s.SaveAlwaysAllowUnder(0.75); err != nil {
		t.Fatalf("SaveAlwaysAllowUnder over corrupted file: %v", err)
	}
	if got := s.AlwaysAllowUnder(); got != 0.75 {
		t.Errorf("AlwaysAllowUnder = %v, want 0.75", got)
	}
}

func TestGlobalStore_RejectsNonPositiveThreshold(t *testing.T) {
	s := newTestStore(t)
	for _, bad := range []float64{0, -0.50} {
		err := s.SaveAlwaysAllowUnder(bad)
		if !core.IsCategory(err, core.ErrCatValidation) {
			t.Errorf("SaveAlwaysAllowUnder(%v) = %v, want validation error", bad, err)
		}
	}
	if _, err := os.Stat(s.Path()); !os.IsNotExist(err) {
		t.Errorf("rejected save should not create the config file")
	}
}

func TestGlobalStore_NoTempFileLeftBehind(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveAlwaysAllowUnder(0.60); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp.") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestAtomicWrite_CreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "config.json")
	if err := AtomicWrite(path, []byte("{}\n")); err != nil {
		t.Fatalf("AtomicWrite: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "{}\n" {
		t.Fatalf("read back: %q %v", data, err)
	}
}

func TestAtomicWrite_PreservesExistingPerm(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{}"), 0o640); err != nil {
		t.Fatal(err)
	}
	if err := AtomicWrite(path, []byte(`{"a":1}`)); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o640 {
		t.Errorf("perm = %v, want 0640", info.Mode().Perm())
	}
}
