package cmd

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/questexport/internal/plugin"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display detailed version information including build details and the
host runtimes the exporter accepts.`,
	Run: runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) {
	cmd.Printf("questexport version %s\n", Version)
	cmd.Printf("  Commit: %s\n", Commit)
	cmd.Printf("  Go version: %s\n", runtime.Version())
	cmd.Printf("  OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)

	cfg, err := loadConfig()
	if err != nil {
		return
	}
	desc, err := plugin.NewDescriptor(cfg.Host)
	if err != nil {
		return
	}
	cmd.Printf("  Plugin: %s by %s\n", desc.Name, desc.Author)
	cmd.Printf("  Runtime: %s - %s (strict: %v)\n", desc.MinimumRuntime, desc.SupportedRuntime, desc.Strict)
}
