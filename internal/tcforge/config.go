package tcforge

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// Supported toolchain major versions. The highest one tracks the
// rolling upstream branch instead of a release branch.
const (
	earliestVersion = 7
	latestVersion   = 9
)

// archTargets maps the -a token to the LLVM backend list handed to
// cmake. Order matters for the "all" entry; it is preserved verbatim
// in LLVM_TARGETS_TO_BUILD.
var archTargets = map[string][]string{
	"arm":     {"ARM"},
	"arm64":   {"AArch64"},
	"i686":    {"X86"},
	"powerpc": {"PowerPC"},
	"ARM":     {"ARM", "AArch64"},
	"all":     {"PowerPC", "X86", "ARM", "AArch64"},
}

// hostCompilers lists the compiler families probed for, in order of
// preference. The first pair found on PATH wins.
var hostCompilers = [][2]string{
	{"clang", "clang++"},
	{"gcc", "g++"},
}

// Config holds everything resolved from the command line. It is built
// once and treated as read-only by every stage.
type Config struct {
	Arch    string
	Targets []string
	Version int
	Branch  string

	RootDir    string
	InstallDir string
	CC         string
	CXX        string

	PackageKind  string
	UploadBucket string

	BuildOnly   bool
	InstallOnly bool
	UpdateOnly  bool
	Stock       bool
	TestMode    bool
}

// rawFlags carries the unvalidated flag values out of the CLI layer.
type rawFlags struct {
	arch          string
	version       string
	installFolder string
	packageKind   string
	uploadBucket  string
	buildOnly     bool
	installOnly   bool
	updateOnly    bool
	stock         bool
	testMode      bool
}

// resolveConfig validates the raw flag values and derives everything
// the pipeline needs. It performs no I/O beyond PATH probes.
func resolveConfig(root string, f rawFlags) (*Config, error) {
	targets, ok := archTargets[f.arch]
	if !ok {
		return nil, fmt.Errorf("invalid architecture %q (supported: arm, arm64, i686, powerpc, ARM, all)", f.arch)
	}

	ver, err := strconv.Atoi(f.version)
	if err != nil || ver < earliestVersion || ver > latestVersion {
		return nil, fmt.Errorf("invalid version %q (supported: 7, 8, 9)", f.version)
	}

	cc, cxx, err := findHostCompilers()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Arch:         f.arch,
		Targets:      targets,
		Version:      ver,
		Branch:       branchForVersion(ver),
		RootDir:      root,
		CC:           cc,
		CXX:          cxx,
		PackageKind:  f.packageKind,
		UploadBucket: f.uploadBucket,
		BuildOnly:    f.buildOnly,
		InstallOnly:  f.installOnly,
		UpdateOnly:   f.updateOnly,
		Stock:        f.stock,
		TestMode:     f.testMode,
	}

	cfg.InstallDir = f.installFolder
	if cfg.InstallDir == "" {
		cfg.InstallDir = defaultInstallDir(root, ver, f.testMode)
	}

	return cfg, nil
}

// branchForVersion maps a major version to the upstream branch tracked
// for it. The latest version rides the rolling development branch.
func branchForVersion(ver int) string {
	if ver == latestVersion {
		return "main"
	}
	return fmt.Sprintf("release/%d.x", ver)
}

func defaultInstallDir(root string, ver int, testMode bool) string {
	name := fmt.Sprintf("clang-%d.x", ver)
	if testMode {
		name += "-test"
	}
	return filepath.Join(root, "toolchains", name)
}

// findHostCompilers probes PATH for a usable host compiler pair.
func findHostCompilers() (cc, cxx string, err error) {
	for _, pair := range hostCompilers {
		ccPath, err1 := lookExecutable(pair[0])
		cxxPath, err2 := lookExecutable(pair[1])
		if err1 == nil && err2 == nil {
			debugf("host compilers: %s, %s\n", ccPath, cxxPath)
			return ccPath, cxxPath, nil
		}
	}
	return "", "", fmt.Errorf("no host compiler found (tried clang/clang++ and gcc/g++)")
}

// lookExecutable resolves name on PATH and verifies execute permission.
func lookExecutable(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", err
	}
	if err := unix.Access(path, unix.X_OK); err != nil {
		return "", fmt.Errorf("%s is not executable: %w", path, err)
	}
	return path, nil
}

// TargetList renders the backend list the way cmake expects it.
func (c *Config) TargetList() string {
	return strings.Join(c.Targets, ";")
}

// WantsPatch reports whether the local compiler-rt patch applies to
// this run. Only the earliest supported version carries the patch, and
// stock mode suppresses it.
func (c *Config) WantsPatch() bool {
	return c.Version == earliestVersion && !c.Stock
}

func (c *Config) LLVMDir() string     { return filepath.Join(c.RootDir, "llvm-project") }
func (c *Config) BinutilsDir() string { return filepath.Join(c.RootDir, "binutils-gdb") }
func (c *Config) BuildDir() string    { return filepath.Join(c.RootDir, "build", "llvm") }
func (c *Config) ArtifactsDir() string {
	return filepath.Join(c.RootDir, "build")
}

func (c *Config) PatchFile() string {
	return filepath.Join(c.RootDir, "patches", "compiler-rt-sanitizer.patch")
}

// OldInstallDir is the rotation slot the previous install is moved to.
func (c *Config) OldInstallDir() string { return c.InstallDir + "-old" }

func pathExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
