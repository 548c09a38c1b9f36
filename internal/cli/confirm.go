package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/alexanderramin/retention/internal/domain"
	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
)

// ConfirmFunc asks the user to approve an irreversible step.
type ConfirmFunc func(title, description string) (bool, error)

// errDeclined is returned when the user answers no.
var errDeclined = errors.New("cancelled")

// confirmer returns the prompt to use, or nil when nobody can answer one.
func (a *App) confirmer() ConfirmFunc {
	if a.Confirm != nil {
		return a.Confirm
	}
	fd := os.Stdin.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return nil
	}
	return huhConfirm
}

func huhConfirm(title, description string) (bool, error) {
	var ok bool
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Description(description).
			Affirmative("Destroy").
			Negative("Keep").
			Value(&ok),
	)).WithShowHelp(false)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}

// confirmDestroy prompts before content is ghosted. Skipped with --yes or
// when stdin is not a terminal.
func confirmDestroy(app *App, n *domain.Node, yes bool) error {
	if yes {
		return nil
	}
	ask := app.confirmer()
	if ask == nil {
		return nil
	}
	what := "its content"
	if n.IsContainer() {
		what = "the content of every record in it"
	}
	ok, err := ask(
		fmt.Sprintf("Destroy %s (%s)?", n.Name, n.Identifier),
		fmt.Sprintf("This removes %s. Metadata is kept.", what),
	)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("destroy %s: %w", n.Name, errDeclined)
	}
	return nil
}
