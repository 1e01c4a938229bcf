// Package prompt provides interactive terminal prompts for user input.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mwistrand/commitwise/internal/config"
	"golang.org/x/term"
)

// ErrNotInteractive is returned when a prompt is needed but stdin is not a
// terminal.
var ErrNotInteractive = errors.New("not running in an interactive terminal")

// IsInteractive returns true if stdin is connected to a terminal.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Chooser asks which provider to use when a repository configures several.
// It satisfies config.ProviderChooser.
type Chooser struct{}

// ChooseProvider implements config.ProviderChooser.
func (Chooser) ChooseProvider(ctx context.Context, candidates []config.ProviderID) (config.ProviderID, error) {
	return SelectProvider(ctx, candidates)
}

// SelectProvider displays the candidate providers and returns the one picked.
// A user abort surfaces as huh.ErrUserAborted.
func SelectProvider(ctx context.Context, candidates []config.ProviderID) (config.ProviderID, error) {
	if len(candidates) == 0 {
		return "", fmt.Errorf("no providers available")
	}
	if !IsInteractive() {
		return "", fmt.Errorf("cannot prompt for provider: %w", ErrNotInteractive)
	}

	options := make([]huh.Option[config.ProviderID], len(candidates))
	for i, id := range candidates {
		options[i] = huh.NewOption(id.String(), id)
	}

	selected := candidates[0]
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[config.ProviderID]().
				Title("Several providers are configured for this repository").
				Description("Pick one; the choice is saved for next time").
				Options(options...).
				Value(&selected),
		),
	).WithAccessible(false)

	if err := form.RunWithContext(ctx); err != nil {
		return "", err
	}
	return selected, nil
}

// Confirm asks a yes/no question. Without a terminal it returns false so
// nothing happens silently.
func Confirm(title, affirmative, negative string) (bool, error) {
	if !IsInteractive() {
		return false, nil
	}

	confirmed := true
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative(affirmative).
				Negative(negative).
				Value(&confirmed),
		),
	).WithAccessible(false)

	if err := form.Run(); err != nil {
		return false, err
	}
	return confirmed, nil
}

// Secret reads a value without echoing it, for API keys.
func Secret(title string) (string, error) {
	if !IsInteractive() {
		return "", fmt.Errorf("cannot prompt for %s: %w", title, ErrNotInteractive)
	}

	var value string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				EchoMode(huh.EchoModePassword).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("value cannot be empty")
					}
					return nil
				}).
				Value(&value),
		),
	).WithAccessible(false)

	if err := form.Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}
