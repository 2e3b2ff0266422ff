// Package cli implements the folio command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/folio/internal/logging"
	"github.com/mesh-intelligence/folio/internal/paths"
	"github.com/mesh-intelligence/folio/pkg/folio"
	"github.com/mesh-intelligence/folio/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	verbose   bool
}

// app is the state shared by one command tree.
type app struct {
	flags rootFlags
	log   *zap.SugaredLogger
}

// NewRootCmd creates the top-level "folio" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{log: zap.NewNop().Sugar()}

	root := &cobra.Command{
		Use:   "folio",
		Short: "Schema-aware content storage",
		Long: "Folio stores content records for the content types declared in\n" +
			"contenttypes.yml and taxonomy.yml, and keeps the database schema in\n" +
			"step with those declarations.",
		Version: folio.Version,
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log, err := logging.New(a.flags.verbose)
			if err != nil {
				return err
			}
			a.log = log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.log.Sync()
		},
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (env "+paths.EnvConfigDir+")")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "SQLite data directory (env "+paths.EnvDataDir+")")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVarP(&a.flags.verbose, "verbose", "v", false, "log debug output and statement counts")

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err: err}
	})

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newCheckCmd(a),
		newRepairCmd(a),
		newGetCmd(a),
		newNewCmd(a),
		newSaveCmd(a),
		newPatchCmd(a),
		newDeleteCmd(a),
	)
	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "folio:", err)
		os.Exit(exitCode(err))
	}
	os.Exit(exitSuccess)
}

// usageError marks errors caused by the caller's input.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// usageArgs marks argument validation failures as usage errors.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return usageError{err: err}
		}
		return nil
	}
}

func userErrorf(format string, args ...any) error {
	return usageError{err: fmt.Errorf(format, args...)}
}

// exitCode maps an error to the process exit code: input and lookup
// failures are user errors, everything else a system error.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ue usageError
	if errors.As(err, &ue) {
		return exitUserError
	}
	for _, target := range []error{
		types.ErrNotFound,
		types.ErrNoContentType,
		types.ErrInvalidStatus,
		types.ErrInvalidField,
		types.ErrInvalidID,
		types.ErrReconcileLocked,
	} {
		if errors.Is(err, target) {
			return exitUserError
		}
	}
	return exitSysError
}

// open resolves the configuration directory and opens the site.
func (a *app) open() (*folio.Site, error) {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config directory: %w", err)
	}
	return folio.Open(folio.Options{
		ConfigDir: configDir,
		DataDir:   a.flags.dataDir,
		Log:       a.log,
		Record:    a.flags.verbose,
	})
}

// withSite opens the site, runs fn and closes the site.
func (a *app) withSite(fn func(site *folio.Site) error) error {
	site, err := a.open()
	if err != nil {
		return err
	}
	defer func() {
		if err := site.Close(); err != nil {
			a.log.Warnw("closing database", "error", err)
		}
	}()
	return fn(site)
}

func writeLines(w io.Writer, lines []string) {
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
}
