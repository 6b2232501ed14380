package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/gitlanes/gitlanes/internal/buildinfo"
	"github.com/gitlanes/gitlanes/internal/config"
	"github.com/gitlanes/gitlanes/internal/git"
	"github.com/gitlanes/gitlanes/internal/tui"
)

var (
	noWatch     bool
	allRefs     bool
	dateOrder   bool
	noGraph     bool
	compact     bool
	verbose     bool
	showVersion bool
)

var rootCmd = &cobra.Command{
	Use:   "gitlanes [repository]",
	Short: "Commit graph viewer for the terminal",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRoot,

	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.Flags()
	flags.BoolVar(&noWatch, "no-watch", false, "disable automatic reload when the repository changes")
	flags.BoolVarP(&allRefs, "all", "a", false, "seed the walk from all refs, not just HEAD")
	flags.BoolVar(&dateOrder, "date-order", false, "prefer committer date order within the topological walk")
	flags.BoolVar(&noGraph, "no-graph", false, "hide the lane graph")
	flags.BoolVar(&compact, "compact", false, "drop the spacer column between lanes")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	flags.BoolVar(&showVersion, "version", false, "print version information and exit")
}

func Run() error {
	return rootCmd.Execute()
}

func runRoot(cmd *cobra.Command, args []string) error {
	if showVersion {
		fmt.Println(buildinfo.VersionWithRevision())
		return nil
	}
	if verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	settings := cfg.Settings()
	if cmd.Flags().Changed("all") {
		settings.RefsAll = allRefs
	}
	if cmd.Flags().Changed("date-order") {
		settings.SortDate = dateOrder
	}
	if noGraph {
		settings.GraphVisible = false
	}
	if compact {
		settings.Compact = true
	}
	watch := cfg.Watch && !noWatch

	repoPath := "."
	if len(args) > 0 {
		repoPath = args[0]
	}
	backend, err := git.Open(repoPath)
	if err != nil {
		return err
	}

	return tui.Run(tui.Options{
		Backend:  backend,
		Settings: settings,
		Watch:    watch,
	})
}
