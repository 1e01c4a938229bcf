package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mwistrand/commitwise/internal/config"
	"github.com/mwistrand/commitwise/internal/prompt"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

var (
	revealKeys  bool
	setLocal    bool
	defPrepend  string
	defStyle    string
	defLanguage string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage commitwise configuration",
	Long: `View and modify commitwise configuration.

The global file lives in ~/.config/commitwise/config.json unless
COMMITWISE_CONFIG or --config points elsewhere. A repository can override
it with commitwise.json inside its git directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Show current config when run without subcommands
		return showConfig(cmd)
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the global configuration with API keys masked",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return showConfig(cmd)
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <path>",
	Short: "Get a value from the global configuration",
	Long: `Get a value from the global configuration by JSON path.

Example:
  commitwise config get defaultProvider
  commitwise config get providers.gemini.model
  commitwise config get presets.work`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := maskedConfig()
		if err != nil {
			return err
		}

		result := gjson.GetBytes(data, args[0])
		if !result.Exists() {
			return fmt.Errorf("no value at %q", args[0])
		}
		if result.IsObject() || result.IsArray() {
			fmt.Fprint(cmd.OutOrStdout(), string(pretty.Pretty([]byte(result.Raw))))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), result.String())
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the configuration file paths",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "global: %s%s\n", store.Path(), describeFile(store.Path()))

		if _, gitDir, err := openRepository(cmd.Context()); err == nil {
			local := config.NewLocalStore(gitDir, nil).Path()
			fmt.Fprintf(cmd.OutOrStdout(), "local:  %s%s\n", local, describeFile(local))
		}
		return nil
	},
}

var configSetKeyCmd = &cobra.Command{
	Use:   "set-key <provider> [key]",
	Short: "Store an API key in the global configuration",
	Long: `Store an API key in the global configuration.

When the key is omitted you are prompted for it without echo.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := config.ParseProvider(args[0])
		if err != nil {
			return err
		}

		var key string
		if len(args) == 2 {
			key = strings.TrimSpace(args[1])
		} else {
			key, err = prompt.Secret(fmt.Sprintf("%s API key", id))
			if err != nil {
				return err
			}
		}
		if key == "" {
			return fmt.Errorf("API key cannot be empty")
		}

		if err := store.SetAPIKey(id, key); err != nil {
			return err
		}
		out.Success(fmt.Sprintf("Saved %s API key %s", id, config.MaskAPIKey(key)))
		return nil
	},
}

var configSetProviderCmd = &cobra.Command{
	Use:   "set-provider <provider>",
	Short: "Set the default provider",
	Long: `Set the default provider globally, or for the current repository
with --local.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := config.ParseProvider(args[0])
		if err != nil {
			return err
		}

		if setLocal {
			_, gitDir, err := openRepository(cmd.Context())
			if err != nil {
				return err
			}
			local := config.NewLocalStore(gitDir, out)
			if err := local.SetDefaultProvider(id); err != nil {
				return err
			}
			out.Success(fmt.Sprintf("This repository now uses %s (%s)", id, local.Path()))
			return nil
		}

		if err := store.SetDefaultProvider(id); err != nil {
			return err
		}
		out.Success(fmt.Sprintf("Default provider set to %s", id))
		return nil
	},
}

var configSetDefaultsCmd = &cobra.Command{
	Use:   "set-defaults",
	Short: "Set the global prepend, style or language",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var patch config.DefaultsPatch
		flags := cmd.Flags()
		if flags.Changed("prepend") {
			patch.Prepend = &defPrepend
		}
		if flags.Changed("style") {
			style := config.Style(defStyle)
			patch.Style = &style
		}
		if flags.Changed("language") {
			patch.Language = &defLanguage
		}
		if patch.Prepend == nil && patch.Style == nil && patch.Language == nil {
			return fmt.Errorf("nothing to set; pass --prepend, --style or --language")
		}

		if err := store.SetDefaults(patch); err != nil {
			return err
		}
		out.Success("Defaults updated")
		return nil
	},
}

var configResolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Show the settings the commit command would use here",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := optionsFromFlags(cmd)
		if err != nil {
			return err
		}

		var local *config.LocalStore
		if _, gitDir, err := openRepository(cmd.Context()); err == nil {
			local = config.NewLocalStore(gitDir, out)
		} else {
			Verbose("No repository: %v", err)
		}

		cfg, err := newResolver(local).Resolve(cmd.Context(), opts)
		if err != nil {
			return err
		}

		const width = 13
		out.Heading("Resolved configuration")
		out.KeyValue("provider", cfg.Provider.String(), width)
		out.KeyValue("model", cfg.Model, width)
		out.KeyValue("temperature", fmt.Sprint(cfg.Temperature), width)
		out.KeyValue("max tokens", fmt.Sprint(cfg.MaxTokens), width)
		out.KeyValue("style", string(cfg.Style), width)
		out.KeyValue("language", cfg.Language, width)
		out.KeyValue("prepend", fmt.Sprintf("%q", cfg.Prepend), width)
		out.KeyValue("api key", config.MaskAPIKey(cfg.APIKey), width)
		return nil
	},
}

func init() {
	configSetProviderCmd.Flags().BoolVar(&setLocal, "local", false, "Set the provider for the current repository only")
	configShowCmd.Flags().BoolVar(&revealKeys, "reveal", false, "Show API keys in full")
	configGetCmd.Flags().BoolVar(&revealKeys, "reveal", false, "Show API keys in full")
	configSetDefaultsCmd.Flags().StringVar(&defPrepend, "prepend", "", "Prefix for every message")
	configSetDefaultsCmd.Flags().StringVar(&defStyle, "style", "", "Message style: concise, detailed or funny")
	configSetDefaultsCmd.Flags().StringVar(&defLanguage, "language", "", "Two-letter language code")
	addResolveFlags(configResolveCmd)

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configSetKeyCmd)
	configCmd.AddCommand(configSetProviderCmd)
	configCmd.AddCommand(configSetDefaultsCmd)
	configCmd.AddCommand(configResolveCmd)
}

func showConfig(cmd *cobra.Command) error {
	data, err := maskedConfig()
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), string(pretty.Pretty(data)))
	return nil
}

// maskedConfig returns the loaded global configuration as JSON with API
// keys masked unless --reveal was given.
func maskedConfig() ([]byte, error) {
	cfg, err := store.Load()
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	if revealKeys {
		return data, nil
	}

	for id, s := range cfg.Providers {
		if s.APIKey == "" {
			continue
		}
		data, err = sjson.SetBytes(data, "providers."+string(id)+".apiKey", config.MaskAPIKey(s.APIKey))
		if err != nil {
			return nil, fmt.Errorf("masking %s key: %w", id, err)
		}
	}
	for name, p := range cfg.Presets {
		for id, o := range p.Providers {
			if o.APIKey == nil || *o.APIKey == "" {
				continue
			}
			path := "presets." + escapePath(name) + ".providers." + string(id) + ".apiKey"
			data, err = sjson.SetBytes(data, path, config.MaskAPIKey(*o.APIKey))
			if err != nil {
				return nil, fmt.Errorf("masking preset %s key: %w", name, err)
			}
		}
	}
	return data, nil
}

// escapePath escapes the characters gjson and sjson treat as path syntax.
func escapePath(s string) string {
	r := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`)
	return r.Replace(s)
}

// describeFile returns " (size, modified when)" or " (not created yet)".
func describeFile(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return " (not created yet)"
	}
	return fmt.Sprintf(" (%s, modified %s)", humanize.Bytes(uint64(info.Size())), humanize.Time(info.ModTime()))
}
