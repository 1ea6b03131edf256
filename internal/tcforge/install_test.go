package tcforge

import (
	"os"
	"path/filepath"
	"testing"
)

func writeMarker(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "marker"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readMarker(t *testing.T, dir string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "marker"))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestInstallRotation(t *testing.T) {
	cfg := testConfig(t, 9)
	writeMarker(t, cfg.InstallDir, "previous")

	fr := &fakeRunner{}
	if err := Install(cfg, fr); err != nil {
		t.Fatalf("Install: %v", err)
	}

	if got := readMarker(t, cfg.OldInstallDir()); got != "previous" {
		t.Errorf("-old marker = %q, want the prior install's contents", got)
	}
	if pathExists(cfg.InstallDir) {
		t.Error("install dir still present after rotation; the install target owns recreating it")
	}
	if !fr.ran("ninja install") {
		t.Error("ninja install never ran")
	}
}

func TestInstallRemovesStaleOldSlot(t *testing.T) {
	cfg := testConfig(t, 9)
	writeMarker(t, cfg.InstallDir, "previous")
	writeMarker(t, cfg.OldInstallDir(), "ancient")

	if err := Install(cfg, &fakeRunner{}); err != nil {
		t.Fatalf("Install: %v", err)
	}

	// The stale slot is discarded before rotation, so the rename can
	// never collide with it.
	if got := readMarker(t, cfg.OldInstallDir()); got != "previous" {
		t.Errorf("-old marker = %q, want %q", got, "previous")
	}
}

func TestInstallTestModeSkipsRotation(t *testing.T) {
	cfg := testConfig(t, 9)
	cfg.TestMode = true
	writeMarker(t, cfg.InstallDir, "previous")

	fr := &fakeRunner{}
	if err := Install(cfg, fr); err != nil {
		t.Fatalf("Install: %v", err)
	}

	if pathExists(cfg.OldInstallDir()) {
		t.Error("test mode created a -old slot")
	}
	if got := readMarker(t, cfg.InstallDir); got != "previous" {
		t.Error("test mode moved the existing install")
	}
	if !fr.ran("ninja install") {
		t.Error("ninja install never ran")
	}
}

func TestInstallFailureIsFatal(t *testing.T) {
	cfg := testConfig(t, 9)
	fr := &fakeRunner{failOn: "ninja install"}

	if err := Install(cfg, fr); err == nil {
		t.Fatal("expected install failure to be fatal")
	}
}
