package tcforge

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

const testRevision = "0123456789abcdef0123456789abcdef01234567"

func testConfig(t *testing.T, version int) *Config {
	t.Helper()
	root := t.TempDir()
	return &Config{
		Arch:       "arm64",
		Targets:    archTargets["arm64"],
		Version:    version,
		Branch:     branchForVersion(version),
		RootDir:    root,
		InstallDir: defaultInstallDir(root, version, false),
		CC:         "/usr/bin/clang",
		CXX:        "/usr/bin/clang++",
	}
}

func TestSyncClonesMissingRepos(t *testing.T) {
	cfg := testConfig(t, 9)
	fr := &fakeRunner{outputs: map[string]string{"rev-parse": testRevision + "\n"}}

	rev, err := SyncSources(cfg, fr)
	if err != nil {
		t.Fatalf("SyncSources: %v", err)
	}
	if rev != testRevision {
		t.Errorf("revision = %q, want %q", rev, testRevision)
	}

	wantClone := []string{
		"git", "clone", "--depth=1", "-b", "main", "--single-branch",
		"https://github.com/llvm/llvm-project", cfg.LLVMDir(),
	}
	if !reflect.DeepEqual(fr.cmds[0], wantClone) {
		t.Errorf("first command = %v, want %v", fr.cmds[0], wantClone)
	}
	if !fr.ran("binutils-gdb.git") {
		t.Error("binutils clone never ran")
	}
	if !fr.ran("rev-parse HEAD") {
		t.Error("revision was never captured")
	}
}

func TestSyncUpdatesExistingRepo(t *testing.T) {
	cfg := testConfig(t, 8)
	if err := os.MkdirAll(cfg.LLVMDir(), 0o755); err != nil {
		t.Fatal(err)
	}
	fr := &fakeRunner{outputs: map[string]string{"rev-parse": testRevision}}

	if _, err := SyncSources(cfg, fr); err != nil {
		t.Fatalf("SyncSources: %v", err)
	}

	for _, sub := range []string{
		"reset --hard",
		"checkout release/8.x",
		"fetch --depth=1 origin release/8.x",
		"rebase origin/release/8.x",
	} {
		if !fr.ran(sub) {
			t.Errorf("expected update step %q to run", sub)
		}
	}
	// The binutils checkout does not exist, so it is cloned.
	if !fr.ran("clone --depth=1 -b master") {
		t.Error("binutils was not cloned")
	}
}

func TestSyncPatchCondition(t *testing.T) {
	tests := []struct {
		name      string
		version   int
		stock     bool
		wantPatch bool
	}{
		{"version 7", 7, false, true},
		{"version 7 stock", 7, true, false},
		{"version 8", 8, false, false},
		{"version 9", 9, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t, tt.version)
			cfg.Stock = tt.stock
			if err := os.MkdirAll(filepath.Dir(cfg.PatchFile()), 0o755); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(cfg.PatchFile(), []byte("--- a\n+++ b\n"), 0o644); err != nil {
				t.Fatal(err)
			}
			fr := &fakeRunner{outputs: map[string]string{"rev-parse": testRevision}}

			if _, err := SyncSources(cfg, fr); err != nil {
				t.Fatalf("SyncSources: %v", err)
			}
			if got := fr.ran("apply -3"); got != tt.wantPatch {
				t.Errorf("patch applied = %v, want %v", got, tt.wantPatch)
			}
		})
	}
}

func TestSyncMissingPatchIsFatal(t *testing.T) {
	cfg := testConfig(t, 7)
	fr := &fakeRunner{outputs: map[string]string{"rev-parse": testRevision}}

	if _, err := SyncSources(cfg, fr); err == nil {
		t.Fatal("expected error when the mandatory patch file is missing")
	}
}

func TestSyncFailureAborts(t *testing.T) {
	cfg := testConfig(t, 9)
	fr := &fakeRunner{failOn: "clone"}

	if _, err := SyncSources(cfg, fr); err == nil {
		t.Fatal("expected clone failure to abort the sync")
	}
	if len(fr.cmds) != 1 {
		t.Errorf("ran %d commands after a fatal clone failure, want 1", len(fr.cmds))
	}
}
