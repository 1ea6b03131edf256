package tcforge

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// BuildOutcome records how a build stage went.
type BuildOutcome struct {
	Success bool
	Elapsed time.Duration
}

// RunBuild wipes any stale build output, configures and compiles the
// toolchain, and reports the elapsed wall time. Configure and compile
// failures are both fatal; the returned outcome always carries the
// elapsed time for reporting.
func RunBuild(cfg *Config, r Runner) (BuildOutcome, error) {
	startTime := time.Now()

	if err := cleanBuildDir(cfg.BuildDir()); err != nil {
		return BuildOutcome{Elapsed: time.Since(startTime)}, err
	}

	colArrow.Print("-> ")
	colSuccess.Printf("Configuring LLVM (targets: %s)\n", cfg.TargetList())
	configure := exec.Command("cmake", cmakeArgs(cfg)...)
	configure.Dir = cfg.BuildDir()
	if err := r.Run(configure); err != nil {
		return BuildOutcome{Elapsed: time.Since(startTime)},
			fmt.Errorf("cmake configuration failed: %w", err)
	}

	colArrow.Print("-> ")
	colSuccess.Println("Building the toolchain, this can take a while")
	compile := exec.Command("ninja")
	compile.Dir = cfg.BuildDir()
	err := r.Run(compile)

	elapsed := time.Since(startTime).Truncate(time.Second)
	outcome := BuildOutcome{Success: err == nil, Elapsed: elapsed}
	if err != nil {
		return outcome, fmt.Errorf("build failed after %s: %w", elapsed, err)
	}

	colArrow.Print("-> ")
	colSuccess.Printf("Build completed in %s\n", elapsed)
	reportBuiltVersion(cfg, r)
	return outcome, nil
}

// cleanBuildDir removes the build output directory in full and
// recreates it empty, so every run starts from a clean configuration.
func cleanBuildDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to clean build directory %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create build directory %s: %w", dir, err)
	}
	return nil
}

// cmakeArgs assembles the single configure invocation. Documentation,
// examples, tests and bindings are switched off to keep the build
// surface minimal.
func cmakeArgs(cfg *Config) []string {
	return []string{
		"-G", "Ninja",
		"-Wno-dev",
		"-DCMAKE_BUILD_TYPE=Release",
		"-DCMAKE_C_COMPILER=" + cfg.CC,
		"-DCMAKE_CXX_COMPILER=" + cfg.CXX,
		"-DCMAKE_C_FLAGS=-O2",
		"-DCMAKE_CXX_FLAGS=-O2",
		"-DCMAKE_INSTALL_PREFIX=" + cfg.InstallDir,
		"-DLLVM_ENABLE_PROJECTS=clang",
		"-DLLVM_TARGETS_TO_BUILD=" + cfg.TargetList(),
		"-DLLVM_BINUTILS_INCDIR=" + filepath.Join(cfg.BinutilsDir(), "include"),
		"-DLLVM_INCLUDE_DOCS=OFF",
		"-DLLVM_INCLUDE_EXAMPLES=OFF",
		"-DLLVM_INCLUDE_TESTS=OFF",
		"-DLLVM_INCLUDE_BENCHMARKS=OFF",
		"-DLLVM_ENABLE_BINDINGS=OFF",
		"-DLLVM_ENABLE_OCAMLDOC=OFF",
		filepath.Join(cfg.LLVMDir(), "llvm"),
	}
}

// reportBuiltVersion probes the freshly built clang for its version
// string. Probe failures only cost the report line, not the build.
func reportBuiltVersion(cfg *Config, r Runner) {
	clang := filepath.Join(cfg.BuildDir(), "bin", "clang")
	out, err := r.Output(exec.Command(clang, "--version"))
	if err != nil {
		colWarn.Printf("Warning: could not probe built clang: %v\n", err)
		return
	}
	colArrow.Print("-> ")
	colSuccess.Println(sanitizeVersion(out))
}

var urlFragment = regexp.MustCompile(`\(\s*https?://[^)]*\)`)

// sanitizeVersion reduces clang's --version output to its first line,
// with embedded URL fragments removed and whitespace collapsed.
func sanitizeVersion(out string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	line = urlFragment.ReplaceAllString(line, "")
	return strings.Join(strings.Fields(line), " ")
}
