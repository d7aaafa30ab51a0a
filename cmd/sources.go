package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/brogergvhs/novelscraper/internal/config"
	"github.com/brogergvhs/novelscraper/internal/sources"
	"github.com/brogergvhs/novelscraper/internal/ui"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the known novel sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := registryFromConfig()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 4, ' ', 0)
		_, _ = fmt.Fprintln(w, "NAME\tDOMAIN\tTOC")
		for _, d := range registry.List() {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", d.Name, d.Domain, d.TOC.Mode)
		}

		return w.Flush()
	},
}

var sourcesShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a source descriptor as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := registryFromConfig()
		if err != nil {
			return err
		}

		d, err := registry.Lookup(args[0])
		if err != nil {
			return err
		}

		out, err := sources.MarshalYAML(d)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func registryFromConfig() (*sources.Registry, error) {
	cfg, _, err := config.LoadMerged(config.Options{
		IgnoreConfig: flagIgnoreConfig,
		Debug:        flagDebug,
		Verbosity:    flagVerbose,
	})
	if err != nil {
		return nil, err
	}

	return loadRegistry(cfg, "", ui.NewLoggerTo(os.Stderr, cfg.Debug, cfg.Verbosity))
}

func init() {
	sourcesCmd.AddCommand(sourcesShowCmd)
	rootCmd.AddCommand(sourcesCmd)
}
