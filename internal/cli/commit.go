package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/huh/spinner"
	"github.com/mwistrand/commitwise/internal/config"
	"github.com/mwistrand/commitwise/internal/git"
	"github.com/mwistrand/commitwise/internal/prompt"
	"github.com/mwistrand/commitwise/internal/provider"
	"github.com/spf13/cobra"
)

var (
	prependText  string
	forcePrepend bool
	presetName   string
	styleName    string
	languageCode string
	providerName string
	modelName    string
	temperature  float64
	maxTokens    int
	copyMessage  bool
	autoCommit   bool
	reuseMessage bool
)

// interactive reports whether prompts and spinners can be shown.
var interactive = prompt.IsInteractive

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Write a commit message for the staged changes",
	Long: `Write a commit message for the staged changes.

The prefix from --prepend is appended to any prefix configured in the
global config, the preset or the local override file. Use --force to
replace the configured prefix instead.

Without --yes the message is printed; in a terminal you are then asked
whether to commit with it.

Example:
  commitwise commit                       Print a suggested message
  commitwise commit -P work -p "123 "     Use the "work" preset, append to its prefix
  commitwise commit -f -p "HOTFIX " -y    Replace the prefix and commit right away
  commitwise commit --provider anthropic  Use Anthropic for this run only`,
	Args: cobra.NoArgs,
	RunE: runCommit,
}

func init() {
	addResolveFlags(commitCmd)
	commitCmd.Flags().StringVarP(&prependText, "prepend", "p", "", "Text to put before the message, appended to the configured prefix")
	commitCmd.Flags().BoolVarP(&forcePrepend, "force", "f", false, "Replace the configured prefix with --prepend instead of appending")
	commitCmd.Flags().StringVarP(&styleName, "style", "s", "", "Message style: concise, detailed or funny")
	commitCmd.Flags().StringVarP(&languageCode, "language", "l", "", "Two-letter language code for the message")
	commitCmd.Flags().StringVarP(&modelName, "model", "m", "", "Model to use (default from config)")
	commitCmd.Flags().Float64VarP(&temperature, "temperature", "t", 0, "Sampling temperature between 0 and 2")
	commitCmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "Maximum tokens in the reply")
	commitCmd.Flags().BoolVar(&copyMessage, "copy", false, "Copy the message to the clipboard")
	commitCmd.Flags().BoolVarP(&autoCommit, "yes", "y", false, "Commit without asking")
	commitCmd.Flags().BoolVar(&reuseMessage, "reuse", false, "Reuse the last message generated for the same staged changes")

	rootCmd.AddCommand(commitCmd)
}

// addResolveFlags registers the flags that pick a provider and preset.
func addResolveFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&presetName, "preset", "P", "", "Preset to apply (default from the local override file)")
	cmd.Flags().StringVar(&providerName, "provider", "", "AI provider to use: openai, gemini or anthropic")
}

// optionsFromFlags converts the flags that were given into resolver options.
// Flags left at their defaults stay absent.
func optionsFromFlags(cmd *cobra.Command) (config.Options, error) {
	var opts config.Options
	flags := cmd.Flags()

	if providerName != "" {
		id, err := config.ParseProvider(providerName)
		if err != nil {
			return opts, err
		}
		opts.Provider = id
	}
	opts.Preset = presetName

	if flags.Lookup("prepend") == nil {
		return opts, nil
	}

	if flags.Changed("prepend") {
		opts.Prepend = &prependText
	}
	opts.ForcePrepend = forcePrepend
	if flags.Changed("style") {
		style := config.Style(styleName)
		if !style.Valid() {
			return opts, fmt.Errorf("invalid --style %q; use concise, detailed or funny", styleName)
		}
		opts.Style = &style
	}
	if flags.Changed("language") {
		if !config.ValidLanguage(languageCode) {
			return opts, fmt.Errorf("invalid --language %q; use a two-letter code such as en", languageCode)
		}
		opts.Language = &languageCode
	}
	if flags.Changed("model") {
		opts.Model = &modelName
	}
	if flags.Changed("temperature") {
		if !config.ValidTemperature(temperature) {
			return opts, fmt.Errorf("invalid --temperature %v; use a value between 0 and 2", temperature)
		}
		opts.Temperature = &temperature
	}
	if flags.Changed("max-tokens") {
		if maxTokens <= 0 {
			return opts, fmt.Errorf("invalid --max-tokens %d; must be positive", maxTokens)
		}
		opts.MaxTokens = &maxTokens
	}
	return opts, nil
}

// openRepository opens the repository around the working directory and
// returns it with its metadata directory.
func openRepository(ctx context.Context) (*git.Repository, string, error) {
	repo, err := git.NewRepository("")
	if err != nil {
		if errors.Is(err, git.ErrNotARepository) {
			return nil, "", fmt.Errorf("not in a git repository")
		}
		return nil, "", fmt.Errorf("opening repository: %w", err)
	}
	gitDir, err := repo.GitDir(ctx)
	if err != nil {
		return nil, "", err
	}
	return repo, gitDir, nil
}

// newResolver wires the resolver to the terminal.
func newResolver(local *config.LocalStore) *config.Resolver {
	opts := []config.ResolverOption{
		config.WithNotifier(out),
		config.WithLogger(logger),
	}
	if interactive() {
		opts = append(opts, config.WithChooser(prompt.Chooser{}))
	}
	return config.NewResolver(store, local, opts...)
}

func runCommit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	opts, err := optionsFromFlags(cmd)
	if err != nil {
		return err
	}

	Verbose("Opening git repository...")
	repo, gitDir, err := openRepository(ctx)
	if err != nil {
		return err
	}

	local := config.NewLocalStore(gitDir, out)
	cfg, err := newResolver(local).Resolve(ctx, opts)
	if err != nil {
		return err
	}
	Verbose("Resolved provider=%s model=%s style=%s language=%s", cfg.Provider, cfg.Model, cfg.Style, cfg.Language)

	changes, err := repo.StagedChanges(ctx)
	if err != nil {
		return err
	}
	if changes.Empty() {
		return git.ErrNothingStaged
	}
	Verbose("Found %d staged files (+%d/-%d)", changes.Stats.FilesChanged, changes.Stats.Additions, changes.Stats.Deletions)

	branch, err := repo.CurrentBranch(ctx)
	if err != nil {
		Verbose("Could not read branch name: %v", err)
	}

	gen, err := registry.New(cfg)
	if err != nil {
		return err
	}

	req := provider.NewMessageRequest(cfg, changes, branch)
	resp, err := generate(ctx, gen, req, provider.NewMessageCache(gitDir))
	if err != nil {
		return err
	}

	message := resp.WithPrefix(cfg.Prepend)
	out.Message(message)

	if copyMessage {
		if err := clipboard.WriteAll(message); err != nil {
			out.Warn(fmt.Sprintf("could not copy to clipboard: %v", err), "")
		} else {
			out.Info("Copied to clipboard.")
		}
	}

	commit := autoCommit
	if !commit && interactive() {
		commit, err = prompt.Confirm("Commit with this message?", "Commit", "Cancel")
		if err != nil {
			return err
		}
	}
	if !commit {
		return nil
	}

	if _, err := repo.Commit(ctx, message); err != nil {
		return err
	}
	out.Success("Committed.")
	return nil
}

// generate produces a message, reusing the cached one when asked to. Fresh
// messages are cached so a failed commit can be retried with --reuse.
func generate(ctx context.Context, gen provider.Generator, req *provider.MessageRequest, cache *provider.MessageCache) (*provider.MessageResponse, error) {
	key := provider.CacheKey(gen.Name(), req)

	if reuseMessage {
		cached, err := cache.Load(key)
		if err != nil {
			return nil, err
		}
		if cached != nil {
			Verbose("Reusing message cached at %s", cached.CachedAt.Format(time.RFC3339))
			return cached.Response(), nil
		}
		out.Info("No cached message for these changes; generating a new one.")
	}

	var resp *provider.MessageResponse
	action := func(ctx context.Context) error {
		var err error
		resp, err = gen.GenerateMessage(ctx, req)
		return err
	}

	var err error
	if interactive() {
		err = spinner.New().
			Title(fmt.Sprintf("Writing commit message with %s...", gen.Name())).
			Context(ctx).
			ActionWithErr(action).
			Run()
	} else {
		err = action(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("generating message: %w", err)
	}

	if err := cache.Save(&provider.CachedMessage{
		Key:      key,
		Provider: gen.Name(),
		Model:    req.Options.Model,
		Subject:  resp.Subject,
		Body:     resp.Body,
		CachedAt: time.Now(),
	}); err != nil {
		Verbose("Could not cache message: %v", err)
	}
	return resp, nil
}
