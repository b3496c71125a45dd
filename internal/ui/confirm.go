package ui

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// ErrAborted is returned when the operator declines a confirmation that
// gates the rest of the operation.
var ErrAborted = errors.New("aborted by user")

// Confirm asks a yes/no question. On a terminal it renders an interactive
// prompt; otherwise it falls back to reading a y/N answer from stdin.
func Confirm(title string) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Printf("%s [y/N]: ", title)
		var response string
		_, _ = fmt.Scanln(&response)
		response = strings.ToLower(strings.TrimSpace(response))
		return response == "y" || response == "yes", nil
	}

	var confirmed bool
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Affirmative("Yes").
			Negative("No").
			Value(&confirmed),
	))
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, ErrAborted
		}
		return false, fmt.Errorf("prompt error: %w", err)
	}
	return confirmed, nil
}

// ConfirmAbort asks a yes/no question and returns ErrAborted on a
// negative answer.
func ConfirmAbort(title string) error {
	confirmed, err := Confirm(title)
	if err != nil {
		return err
	}
	if !confirmed {
		return ErrAborted
	}
	return nil
}
