package tcforge

import (
	"context"
)

// Pipeline sequences the build stages for one run. Every stage either
// completes or aborts the run; packaging is the only stage whose
// errors are reported without failing the pipeline.
type Pipeline struct {
	Config *Config
	Runner Runner
}

func NewPipeline(ctx context.Context, cfg *Config) *Pipeline {
	return &Pipeline{
		Config: cfg,
		Runner: NewExecutor(ctx),
	}
}

// Run executes sync, build, install and package in order, honouring
// the short-circuit flags.
func (p *Pipeline) Run(ctx context.Context) error {
	cfg := p.Config

	var revision string
	if !cfg.InstallOnly {
		rev, err := SyncSources(cfg, p.Runner)
		if err != nil {
			return err
		}
		revision = rev

		if cfg.UpdateOnly {
			colArrow.Print("-> ")
			colSuccess.Println("Sources are up to date")
			return nil
		}

		if _, err := RunBuild(cfg, p.Runner); err != nil {
			return err
		}

		if cfg.BuildOnly {
			return nil
		}
	}

	if err := Install(cfg, p.Runner); err != nil {
		return err
	}

	if cfg.PackageKind != "" {
		p.packageAndUpload(ctx, revision)
	}

	return nil
}

// packageAndUpload runs the optional packaging tail. Failures here are
// reported and skipped; the toolchain is already installed.
func (p *Pipeline) packageAndUpload(ctx context.Context, revision string) {
	archive, err := Package(p.Config, revision, p.Runner)
	if err != nil {
		colWarn.Printf("Warning: skipping packaging: %v\n", err)
		return
	}

	if p.Config.UploadBucket == "" {
		return
	}
	if err := UploadArtifacts(ctx, p.Config.UploadBucket, archive, archive+".b3sum"); err != nil {
		colWarn.Printf("Warning: upload failed: %v\n", err)
	}
}
