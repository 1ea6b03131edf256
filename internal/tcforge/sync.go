package tcforge

import (
	"fmt"
	"os/exec"
	"strings"
)

// RepoSpec describes one upstream source tree the pipeline keeps in
// sync locally.
type RepoSpec struct {
	Name   string
	URL    string
	Dir    string
	Branch string
}

// Repos returns the two source trees a run operates on. The compiler
// tree's branch follows the selected version; binutils tracks its
// upstream default branch.
func (c *Config) Repos() []RepoSpec {
	return []RepoSpec{
		{
			Name:   "llvm-project",
			URL:    "https://github.com/llvm/llvm-project",
			Dir:    c.LLVMDir(),
			Branch: c.Branch,
		},
		{
			Name:   "binutils-gdb",
			URL:    "https://sourceware.org/git/binutils-gdb.git",
			Dir:    c.BinutilsDir(),
			Branch: "master",
		},
	}
}

// SyncSources brings both repositories to the required state, applies
// the local patch when the configuration calls for it, and returns the
// compiler tree's revision. Any failure aborts the run; repository
// state is left for the operator to resolve.
func SyncSources(cfg *Config, r Runner) (string, error) {
	for _, repo := range cfg.Repos() {
		if err := syncRepo(repo, r); err != nil {
			return "", fmt.Errorf("sync %s: %w", repo.Name, err)
		}
	}

	revision, err := readRevision(cfg.LLVMDir(), r)
	if err != nil {
		return "", fmt.Errorf("sync llvm-project: %w", err)
	}
	debugf("llvm-project at %s\n", revision)

	if cfg.WantsPatch() {
		if err := applyPatch(cfg, r); err != nil {
			return "", fmt.Errorf("sync llvm-project: %w", err)
		}
	}

	return revision, nil
}

// syncRepo updates an existing checkout in place, or creates a shallow
// single-branch clone when none exists yet.
func syncRepo(repo RepoSpec, r Runner) error {
	if pathExists(repo.Dir) {
		colArrow.Print("-> ")
		colSuccess.Printf("Updating %s (%s)\n", repo.Name, repo.Branch)

		// Discard local modifications first; a previous patched run
		// leaves the tree dirty.
		steps := [][]string{
			{"git", "-C", repo.Dir, "reset", "--hard"},
			{"git", "-C", repo.Dir, "checkout", repo.Branch},
			{"git", "-C", repo.Dir, "fetch", "--depth=1", "origin", repo.Branch},
			{"git", "-C", repo.Dir, "rebase", "origin/" + repo.Branch},
		}
		for _, step := range steps {
			if err := r.Run(exec.Command(step[0], step[1:]...)); err != nil {
				return fmt.Errorf("%s failed: %w", strings.Join(step[:4], " "), err)
			}
		}
		return nil
	}

	colArrow.Print("-> ")
	colSuccess.Printf("Cloning %s (%s)\n", repo.Name, repo.Branch)
	clone := exec.Command("git", "clone", "--depth=1", "-b", repo.Branch, "--single-branch", repo.URL, repo.Dir)
	if err := r.Run(clone); err != nil {
		return fmt.Errorf("clone failed: %w", err)
	}
	return nil
}

// readRevision captures the current commit of a checkout.
func readRevision(dir string, r Runner) (string, error) {
	out, err := r.Output(exec.Command("git", "-C", dir, "rev-parse", "HEAD"))
	if err != nil {
		return "", fmt.Errorf("rev-parse failed: %w", err)
	}
	rev := strings.TrimSpace(out)
	if rev == "" {
		return "", fmt.Errorf("rev-parse returned no revision")
	}
	return rev, nil
}

// applyPatch applies the local sanitizer patch to the compiler tree as
// a three-way merge. The patch is mandatory for the version/mode
// combinations that select it.
func applyPatch(cfg *Config, r Runner) error {
	patch := cfg.PatchFile()
	if !pathExists(patch) {
		return fmt.Errorf("patch file %s not found", patch)
	}

	colArrow.Print("-> ")
	colSuccess.Printf("Applying %s\n", patch)
	cmd := exec.Command("git", "-C", cfg.LLVMDir(), "apply", "-3", patch)
	if err := r.Run(cmd); err != nil {
		return fmt.Errorf("patch failed to apply: %w", err)
	}
	return nil
}
