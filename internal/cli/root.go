// Package cli provides the command-line interface for commitwise.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/mwistrand/commitwise/internal/config"
	"github.com/mwistrand/commitwise/internal/provider"
	"github.com/mwistrand/commitwise/internal/provider/claude"
	"github.com/mwistrand/commitwise/internal/provider/openai"
	"github.com/mwistrand/commitwise/internal/render"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	// Version is set at build time.
	Version = "dev"

	// Commit is set at build time.
	Commit = "none"

	// Date is set at build time.
	Date = "unknown"
)

var (
	cfgFile string
	verbose bool

	store  *config.Store
	out    *render.Renderer
	logger = slog.New(slog.DiscardHandler)

	// registry maps providers to generators. Tests swap in a mock.
	registry = defaultRegistry()
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "commitwise",
	Short: "AI-written commit messages for your staged changes",
	Long: `Commitwise writes commit messages for your staged changes with OpenAI,
Gemini or Anthropic models.

Settings come from four layers, each overriding the one before it:
the global config file, a named preset, the repository's local override
file, and command-line flags.

Example:
  commitwise commit                     Suggest a message for the staged changes
  commitwise commit -p "PROJ-123 " -y   Prefix the message and commit
  commitwise config set-key gemini      Store your Gemini API key`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		out = newRenderer(cmd)
		logger = newLogger(cmd.ErrOrStderr())

		// Skip config loading for help and version commands
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}

		path := cfgFile
		if path == "" {
			var err error
			path, err = config.DefaultPath()
			if err != nil {
				return err
			}
		}
		Verbose("Using config file %s", path)
		store = config.NewStore(path)
		_, err := store.Load()
		return err
	},
}

// Execute runs the root command and reports any error. A prompt the user
// aborted is not an error.
func Execute() error {
	err := rootCmd.Execute()
	if err == nil || errors.Is(err, huh.ErrUserAborted) {
		return nil
	}

	r := out
	if r == nil {
		r = render.New(render.DefaultOptions())
	}
	var syntaxErr *config.SyntaxError
	if errors.As(err, &syntaxErr) {
		r.Diagnostic(syntaxErr.Diagnostic())
	} else {
		r.Error(err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/commitwise/config.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

// SetVersionInfo sets the version information for the CLI.
// This is called from main() with values set at build time.
func SetVersionInfo(version, commit, date string) {
	Version = version
	Commit = commit
	Date = date
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}

// Verbose logs a debug message if verbose mode is enabled.
func Verbose(format string, args ...any) {
	logger.Debug(fmt.Sprintf(format, args...))
}

func newLogger(w io.Writer) *slog.Logger {
	if !verbose {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// newRenderer writes to the command's streams and styles output only when
// stdout is a terminal.
func newRenderer(cmd *cobra.Command) *render.Renderer {
	w := cmd.OutOrStdout()
	color := false
	if f, ok := w.(*os.File); ok {
		color = term.IsTerminal(int(f.Fd()))
	}
	return render.New(render.Options{
		Output:       w,
		Errors:       cmd.ErrOrStderr(),
		ColorEnabled: color,
	})
}

func defaultRegistry() *provider.Registry {
	r := provider.NewRegistry()
	r.Register(config.ProviderOpenAI, openai.OpenAIFactory)
	r.Register(config.ProviderGemini, openai.GeminiFactory)
	r.Register(config.ProviderAnthropic, claude.Factory)
	return r
}
