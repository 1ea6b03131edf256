package tcforge

import (
	"fmt"
	"os"
	"os/exec"
)

// Install publishes the build output to the configured install
// location. Outside test mode the previous installation is rotated to
// a "-old" sibling first, giving exactly one generation of rollback.
// There is no rollback of the rotation on failure; the prior install
// stays at the "-old" path for manual recovery.
func Install(cfg *Config, r Runner) error {
	if !cfg.TestMode {
		if err := rotateInstall(cfg.InstallDir); err != nil {
			return fmt.Errorf("install: %w", err)
		}
	}

	colArrow.Print("-> ")
	colSuccess.Printf("Installing to %s\n", cfg.InstallDir)
	install := exec.Command("ninja", "install")
	install.Dir = cfg.BuildDir()
	if err := r.Run(install); err != nil {
		return fmt.Errorf("install failed: %w", err)
	}

	colArrow.Print("-> ")
	colSuccess.Printf("Toolchain installed at %s\n", cfg.InstallDir)
	return nil
}

// rotateInstall moves the current install out of the way. A stale
// "-old" slot is removed unconditionally first so the rename can never
// collide with it.
func rotateInstall(installDir string) error {
	old := installDir + "-old"
	if err := os.RemoveAll(old); err != nil {
		return fmt.Errorf("failed to remove stale %s: %w", old, err)
	}
	if !pathExists(installDir) {
		return nil
	}
	debugf("rotating %s -> %s\n", installDir, old)
	if err := os.Rename(installDir, old); err != nil {
		return fmt.Errorf("failed to rotate previous install: %w", err)
	}
	return nil
}
