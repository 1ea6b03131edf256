package tcforge

import (
	"archive/tar"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/klauspost/pgzip"
	"github.com/schollz/progressbar/v3"
	"github.com/ulikunitz/xz"
	"lukechampine.com/blake3"
)

// compressors maps the package kind to the external compressor handed
// to tar.
var compressors = map[string]string{
	"gz": "gzip",
	"xz": "xz",
}

// packageName derives the archive filename from the toolchain version
// and the revision captured at sync time.
func packageName(version int, revision, kind string) string {
	if len(revision) > 12 {
		revision = revision[:12]
	}
	return fmt.Sprintf("clang-%d.0-%s.tar.%s", version, revision, kind)
}

// Package archives the installed toolchain into a compressed tarball
// next to the other build artifacts and writes a BLAKE3 sidecar for
// it. It returns the final archive path. Errors here never fail the
// run; the caller reports them and moves on.
func Package(cfg *Config, revision string, r Runner) (string, error) {
	prog, ok := compressors[cfg.PackageKind]
	if !ok {
		return "", fmt.Errorf("unsupported compression kind %q (supported: gz, xz)", cfg.PackageKind)
	}

	// Under install-only the sync stage never ran, so the revision is
	// recaptured from whatever the checkout is sitting at.
	if revision == "" {
		rev, err := readRevision(cfg.LLVMDir(), r)
		if err != nil {
			return "", fmt.Errorf("no revision for package name: %w", err)
		}
		revision = rev
	}

	name := packageName(cfg.Version, revision, cfg.PackageKind)
	parent := filepath.Dir(cfg.InstallDir)
	base := filepath.Base(cfg.InstallDir)
	archive := filepath.Join(parent, name)

	colArrow.Print("-> ")
	colSuccess.Printf("Packaging %s\n", name)

	created := false
	if _, err := exec.LookPath("tar"); err == nil {
		tarCmd := exec.Command("tar", "-I", prog, "-cf", archive, "-C", parent, base)
		if err := r.Run(tarCmd); err == nil {
			created = true
		}
		// fall through to internal tar if the system one fails
	}
	if !created {
		debugf("falling back to internal tar for %s\n", archive)
		if err := createArchive(cfg.PackageKind, archive, parent, base); err != nil {
			return "", fmt.Errorf("failed to create %s: %w", name, err)
		}
	}

	if err := writeChecksum(archive); err != nil {
		return "", err
	}

	dest := filepath.Join(cfg.ArtifactsDir(), name)
	if err := relocate(archive, dest); err != nil {
		return "", err
	}
	if err := relocate(archive+".b3sum", dest+".b3sum"); err != nil {
		return "", err
	}

	colArrow.Print("-> ")
	colSuccess.Printf("Package created: %s\n", dest)
	return dest, nil
}

func relocate(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}
	if err := os.Rename(src, dest); err != nil {
		return fmt.Errorf("failed to move %s: %w", src, err)
	}
	return nil
}

// createArchive is the pure-Go packaging path used when system tar is
// missing or fails. Entries keep the install directory's base name as
// their top-level prefix, matching what system tar produces.
func createArchive(kind, dest, parent, base string) error {
	root := filepath.Join(parent, base)

	var total int64
	_ = filepath.WalkDir(root, func(string, fs.DirEntry, error) error {
		total++
		return nil
	})
	bar := progressbar.Default(total, "archiving")

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	var cw io.WriteCloser
	switch kind {
	case "gz":
		cw = pgzip.NewWriter(out)
	case "xz":
		xw, err := xz.NewWriter(out)
		if err != nil {
			return err
		}
		cw = xw
	default:
		return fmt.Errorf("unsupported compression kind %q", kind)
	}

	tw := tar.NewWriter(cw)
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		var linkTarget string
		if info.Mode()&os.ModeSymlink != 0 {
			linkTarget, err = os.Readlink(path)
			if err != nil {
				return fmt.Errorf("readlink %s: %w", path, err)
			}
		}

		hdr, err := tar.FileInfoHeader(info, linkTarget)
		if err != nil {
			return err
		}
		if rel == "." {
			hdr.Name = base + "/"
		} else {
			hdr.Name = filepath.ToSlash(filepath.Join(base, rel))
		}

		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			if _, err := io.Copy(tw, f); err != nil {
				f.Close()
				return err
			}
			f.Close()
		}
		_ = bar.Add(1)
		return nil
	})
	if err != nil {
		return err
	}

	if err := tw.Close(); err != nil {
		return err
	}
	return cw.Close()
}

// writeChecksum writes a b3sum-style sidecar next to the archive.
func writeChecksum(archive string) error {
	f, err := os.Open(archive)
	if err != nil {
		return fmt.Errorf("failed to checksum %s: %w", archive, err)
	}
	defer f.Close()

	h := blake3.New(32, nil)
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("failed to checksum %s: %w", archive, err)
	}

	line := fmt.Sprintf("%s  %s\n", hex.EncodeToString(h.Sum(nil)), filepath.Base(archive))
	if err := os.WriteFile(archive+".b3sum", []byte(line), 0o644); err != nil {
		return fmt.Errorf("failed to write checksum sidecar: %w", err)
	}
	return nil
}
