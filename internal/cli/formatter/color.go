package formatter

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alexanderramin/retention/internal/domain"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

// Predefined lipgloss styles.
var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// ConfigureColor disables styling when w is not a terminal.
func ConfigureColor(w io.Writer) {
	f, ok := w.(*os.File)
	if ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return
	}
	lipgloss.SetColorProfile(termenv.Ascii)
}

// KindBadge returns a colored label for a node kind.
func KindBadge(kind domain.NodeKind) string {
	switch kind {
	case domain.KindFilePlan:
		return StyleHeader.Render("file plan")
	case domain.KindCategory:
		return StylePurple.Render("category")
	case domain.KindFolder:
		return StyleBlue.Render("folder")
	case domain.KindRecord:
		return StyleFg.Render("record")
	default:
		return StyleDim.Render(string(kind))
	}
}

// StateLabels lists the lifecycle markers set on n, most final first.
func StateLabels(n *domain.Node) []string {
	var labels []string
	switch {
	case n.Ghosted:
		labels = append(labels, "destroyed")
	case n.Accessioned:
		labels = append(labels, "accessioned")
	case n.Transferred:
		labels = append(labels, "transferred")
	}
	if n.CutOff {
		labels = append(labels, "cut off")
	}
	if n.Closed && !n.CutOff {
		labels = append(labels, "closed")
	}
	if n.Kind == domain.KindRecord {
		if n.Declared {
			labels = append(labels, "declared")
		} else {
			labels = append(labels, "undeclared")
		}
	}
	if n.Vital {
		labels = append(labels, "vital")
	}
	return labels
}

// StatePill renders the node's state labels, colored by the most final one.
func StatePill(n *domain.Node) string {
	labels := StateLabels(n)
	if len(labels) == 0 {
		return StyleGreen.Render("● open")
	}
	text := strings.Join(labels, ", ")
	switch {
	case n.Ghosted:
		return StyleRed.Render("✖ " + text)
	case n.Transferred || n.Accessioned:
		return StyleDim.Render("➜ " + text)
	case n.CutOff || n.Closed:
		return StyleYellow.Render("○ " + text)
	default:
		return StyleGreen.Render("● " + text)
	}
}

// EligibilityBadge renders a YES/NO indicator.
func EligibilityBadge(ok bool) string {
	if ok {
		return StyleGreen.Render("● ELIGIBLE")
	}
	return StyleYellow.Render("○ NOT ELIGIBLE")
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", len(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

// Dim renders text in the muted/dim color.
func Dim(text string) string {
	return StyleDim.Render(text)
}

// Bold renders text in bold with the foreground color.
func Bold(text string) string {
	return StyleBold.Render(text)
}
