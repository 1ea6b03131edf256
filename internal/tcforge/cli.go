package tcforge

import (
	"context"
	"fmt"
	"os"

	"github.com/gookit/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Execute parses the command line and runs the pipeline. It is the
// only entry point the main package calls; process termination and
// error formatting stay in main.
func Execute(ctx context.Context) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		color.Disable()
	}
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	var f rawFlags

	cmd := &cobra.Command{
		Use:   "tcforge",
		Short: "Build Clang/LLVM toolchains from source",
		Long: `tcforge syncs the LLVM and binutils source trees at a
version-selected branch, runs a clean cmake+ninja build, installs the
result with one-generation rotation, and optionally packages the
installed toolchain.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("cannot determine working directory: %w", err)
			}
			cfg, err := resolveConfig(root, f)
			if err != nil {
				return err
			}
			return NewPipeline(cmd.Context(), cfg).Run(cmd.Context())
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.arch, "arch", "a", "", "target architecture (arm, arm64, i686, powerpc, ARM, all)")
	flags.StringVarP(&f.version, "version", "v", "", "toolchain major version (7, 8, 9)")
	flags.StringVarP(&f.installFolder, "install-folder", "i", "", "override the install directory")
	flags.StringVarP(&f.packageKind, "package", "p", "", "package the installed toolchain (gz, xz)")
	flags.StringVarP(&f.uploadBucket, "upload", "U", "", "upload the package to this bucket")
	flags.BoolVarP(&f.buildOnly, "build-only", "b", false, "stop after the build stage")
	flags.BoolVarP(&f.installOnly, "install-only", "I", false, "skip sync and build, install the last build output")
	flags.BoolVarP(&f.stock, "stock", "S", false, "build without the local patch")
	flags.BoolVarP(&f.testMode, "test", "T", false, "use a test install path and skip rotation")
	flags.BoolVarP(&f.updateOnly, "update-only", "u", false, "stop after syncing sources")
	flags.BoolVar(&Debug, "debug", false, "print debug output")
	_ = flags.MarkHidden("debug")

	_ = cmd.MarkFlagRequired("arch")
	_ = cmd.MarkFlagRequired("version")

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		c.Println(c.UsageString())
		return err
	})

	cmd.AddCommand(newVersionCmd())
	return cmd
}
