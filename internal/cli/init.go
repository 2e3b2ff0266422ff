package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/folio/internal/config"
	"github.com/mesh-intelligence/folio/internal/paths"
	"github.com/mesh-intelligence/folio/pkg/folio"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a folio site",
		Long: "Write a starter configuration into the config directory when it is\n" +
			"missing, then create the tables and columns it declares.",
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, err := paths.ResolveConfigDir(a.flags.configDir)
			if err != nil {
				return fmt.Errorf("resolving config directory: %w", err)
			}
			created, err := config.EnsureDefaults(configDir)
			if err != nil {
				return err
			}
			for _, path := range created {
				a.log.Infow("wrote default configuration", "path", path)
			}

			return a.withSite(func(site *folio.Site) error {
				report, err := site.Reconciler.Repair(ctxOf(cmd))
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if a.flags.jsonMode {
					return writeReport(out, true, report, "")
				}
				writeLines(out, report.Lines())
				fmt.Fprintf(out, "Folio initialized in %s\n", configDir)
				return nil
			})
		},
	}
}

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report schema changes without applying them",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSite(func(site *folio.Site) error {
				report, err := site.Reconciler.Check(ctxOf(cmd))
				if err != nil {
					return err
				}
				return writeReport(cmd.OutOrStdout(), a.flags.jsonMode, report, "The database schema is up to date.")
			})
		},
	}
}

func newRepairCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "repair",
		Short: "Create missing tables and columns",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSite(func(site *folio.Site) error {
				report, err := site.Reconciler.Repair(ctxOf(cmd))
				if err != nil {
					return err
				}
				return writeReport(cmd.OutOrStdout(), a.flags.jsonMode, report, "The database schema is up to date.")
			})
		},
	}
}

// ctxOf returns the command's context, which is nil when the command is
// run without ExecuteContext.
func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
