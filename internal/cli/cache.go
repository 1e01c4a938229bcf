package cli

import (
	"fmt"
	"time"

	"github.com/mwistrand/commitwise/internal/prompt"
	"github.com/mwistrand/commitwise/internal/provider"
	"github.com/spf13/cobra"
)

const staleAge = 7 * 24 * time.Hour

var (
	staleOnly  bool
	forceClear bool
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the message cache",
	Long: `Manage generated messages cached for 'commitwise commit --reuse'.
The cache lives inside the repository's git directory.`,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear cached messages",
	Long: `Clear cached messages for the current repository.

By default, clears all cached messages after confirmation.
Use --stale to only remove entries older than one week.`,
	Args: cobra.NoArgs,
	RunE: runCacheClear,
}

func init() {
	cacheClearCmd.Flags().BoolVar(&staleOnly, "stale", false, "Only remove cache entries older than one week")
	cacheClearCmd.Flags().BoolVar(&forceClear, "force", false, "Do not ask for confirmation")

	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	_, gitDir, err := openRepository(cmd.Context())
	if err != nil {
		return err
	}
	cache := provider.NewMessageCache(gitDir)

	messages, err := cache.List()
	if err != nil {
		return fmt.Errorf("listing cache: %w", err)
	}
	if len(messages) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No cached messages found.")
		return nil
	}

	count := len(messages)
	question := fmt.Sprintf("Remove %d cached message(s)?", count)
	if staleOnly {
		cutoff := time.Now().Add(-staleAge)
		count = 0
		for _, m := range messages {
			if m.CachedAt.Before(cutoff) {
				count++
			}
		}
		if count == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No stale cache entries found (all %d entries are less than one week old).\n", len(messages))
			return nil
		}
		question = fmt.Sprintf("Remove %d of %d cached message(s) older than one week?", count, len(messages))
	}

	if !forceClear {
		ok, err := prompt.Confirm(question, "Remove", "Cancel")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled. Pass --force to clear without a terminal.")
			return nil
		}
	}

	if staleOnly {
		cleared, err := cache.ClearStale(staleAge)
		if err != nil {
			return fmt.Errorf("clearing stale cache: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d stale cached message(s).\n", cleared)
		return nil
	}

	if err := cache.ClearAll(); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d cached message(s).\n", count)
	return nil
}
