package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mwistrand/commitwise/internal/config"
	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
)

var (
	presetPrepend     string
	presetStyle       string
	presetLanguage    string
	presetProvider    string
	presetModel       string
	presetTemperature float64
	presetMaxTokens   int
)

var presetCmd = &cobra.Command{
	Use:   "preset",
	Short: "Manage named presets",
	Long: `Presets are named bundles of settings stored in the global config.
Apply one with 'commitwise commit --preset <name>' or link it to a
repository with 'commitwise preset link <name>'.`,
}

var presetSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Create or replace a preset",
	Long: `Create or replace a preset. Only the flags you pass are stored.

Example:
  commitwise preset save work --prepend "PROJ-" --style detailed
  commitwise preset save fast --provider gemini --model gemini-2.0-flash-lite`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		preset, err := presetFromFlags(cmd)
		if err != nil {
			return err
		}
		if err := store.SavePreset(args[0], preset); err != nil {
			return err
		}
		out.Success(fmt.Sprintf("Saved preset %q", args[0]))
		return nil
	},
}

var presetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List presets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := store.Load()
		if err != nil {
			return err
		}
		if len(cfg.Presets) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No presets defined.")
			return nil
		}

		names := make([]string, 0, len(cfg.Presets))
		for name := range cfg.Presets {
			names = append(names, name)
		}
		sort.Strings(names)

		width := 0
		for _, name := range names {
			width = max(width, len(name)+1)
		}
		for _, name := range names {
			out.KeyValue(name, summarizePreset(cfg.Presets[name]), width)
		}
		return nil
	},
}

var presetShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a preset as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := store.Load()
		if err != nil {
			return err
		}
		preset, ok := config.LookupPreset(args[0], cfg)
		if !ok {
			return fmt.Errorf("preset %q not found", args[0])
		}
		if !revealKeys {
			preset = maskPreset(preset)
		}

		data, err := json.Marshal(preset)
		if err != nil {
			return fmt.Errorf("marshaling preset: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(pretty.Pretty(data)))
		return nil
	},
}

var presetDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a preset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := store.DeletePreset(args[0]); err != nil {
			return err
		}
		out.Success(fmt.Sprintf("Deleted preset %q", args[0]))
		return nil
	},
}

var presetLinkCmd = &cobra.Command{
	Use:   "link <name>",
	Short: "Use a preset by default in the current repository",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := store.Load()
		if err != nil {
			return err
		}
		if _, ok := config.LookupPreset(args[0], cfg); !ok {
			return fmt.Errorf("preset %q not found; create it with 'commitwise preset save %s'", args[0], args[0])
		}

		_, gitDir, err := openRepository(cmd.Context())
		if err != nil {
			return err
		}
		local := config.NewLocalStore(gitDir, out)
		if err := local.LinkPreset(args[0]); err != nil {
			return err
		}
		out.Success(fmt.Sprintf("Linked preset %q to this repository", args[0]))
		return nil
	},
}

var presetUnlinkCmd = &cobra.Command{
	Use:   "unlink",
	Short: "Stop using a preset by default in the current repository",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, gitDir, err := openRepository(cmd.Context())
		if err != nil {
			return err
		}
		if err := config.NewLocalStore(gitDir, out).Unlink(); err != nil {
			return err
		}
		out.Success("Unlinked preset from this repository")
		return nil
	},
}

func init() {
	f := presetSaveCmd.Flags()
	f.StringVarP(&presetPrepend, "prepend", "p", "", "Prefix for every message")
	f.StringVarP(&presetStyle, "style", "s", "", "Message style: concise, detailed or funny")
	f.StringVarP(&presetLanguage, "language", "l", "", "Two-letter language code")
	f.StringVar(&presetProvider, "provider", "", "Provider the preset switches to")
	f.StringVarP(&presetModel, "model", "m", "", "Model override for the preset's provider")
	f.Float64VarP(&presetTemperature, "temperature", "t", 0, "Temperature override for the preset's provider")
	f.IntVar(&presetMaxTokens, "max-tokens", 0, "Max tokens override for the preset's provider")
	presetShowCmd.Flags().BoolVar(&revealKeys, "reveal", false, "Show API keys in full")

	presetCmd.AddCommand(presetSaveCmd)
	presetCmd.AddCommand(presetListCmd)
	presetCmd.AddCommand(presetShowCmd)
	presetCmd.AddCommand(presetDeleteCmd)
	presetCmd.AddCommand(presetLinkCmd)
	presetCmd.AddCommand(presetUnlinkCmd)
	rootCmd.AddCommand(presetCmd)
}

// presetFromFlags builds a preset from the flags that were given. Model
// settings apply to the preset's provider, so they need --provider.
func presetFromFlags(cmd *cobra.Command) (config.Preset, error) {
	var p config.Preset
	flags := cmd.Flags()

	if flags.Changed("prepend") {
		p.Prepend = ptr(presetPrepend)
	}
	if flags.Changed("style") {
		style := config.Style(presetStyle)
		p.Style = &style
	}
	if flags.Changed("language") {
		p.Language = ptr(presetLanguage)
	}

	var o config.ProviderOverrides
	if flags.Changed("model") {
		o.Model = ptr(presetModel)
	}
	if flags.Changed("temperature") {
		o.Temperature = ptr(presetTemperature)
	}
	if flags.Changed("max-tokens") {
		o.MaxTokens = ptr(presetMaxTokens)
	}
	hasOverrides := o.Model != nil || o.Temperature != nil || o.MaxTokens != nil

	if presetProvider != "" {
		id, err := config.ParseProvider(presetProvider)
		if err != nil {
			return p, err
		}
		p.DefaultProvider = id
		if hasOverrides {
			p.Providers = map[config.ProviderID]config.ProviderOverrides{id: o}
		}
	} else if hasOverrides {
		return p, fmt.Errorf("--model, --temperature and --max-tokens need --provider")
	}
	return p, nil
}

// summarizePreset describes a preset in one line.
func summarizePreset(p config.Preset) string {
	var parts []string
	if p.DefaultProvider != "" {
		parts = append(parts, "provider="+string(p.DefaultProvider))
	}
	if p.Prepend != nil {
		parts = append(parts, fmt.Sprintf("prepend=%q", *p.Prepend))
	}
	if p.Style != nil {
		parts = append(parts, "style="+string(*p.Style))
	}
	if p.Language != nil {
		parts = append(parts, "language="+*p.Language)
	}
	ids := make([]string, 0, len(p.Providers))
	for id := range p.Providers {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)
	for _, id := range ids {
		o := p.Providers[config.ProviderID(id)]
		if o.Model != nil {
			parts = append(parts, id+".model="+*o.Model)
		}
	}
	if len(parts) == 0 {
		return "(empty)"
	}
	return strings.Join(parts, " ")
}

func ptr[T any](v T) *T { return &v }

func maskPreset(p config.Preset) config.Preset {
	if len(p.Providers) == 0 {
		return p
	}
	masked := make(map[config.ProviderID]config.ProviderOverrides, len(p.Providers))
	for id, o := range p.Providers {
		if o.APIKey != nil {
			key := config.MaskAPIKey(*o.APIKey)
			o.APIKey = &key
		}
		masked[id] = o
	}
	p.Providers = masked
	return p
}
