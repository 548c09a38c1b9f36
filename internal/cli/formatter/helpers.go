package formatter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const placeholder = "--"

// RenderBox wraps content in a rounded-border box with an optional title.
func RenderBox(title string, content string) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		PaddingLeft(2).
		PaddingRight(2)

	if title != "" {
		return boxStyle.Render(StyleHeader.Render(strings.ToUpper(title)) + "\n\n" + content)
	}
	return boxStyle.Render(content)
}

// Date formats an optional date as YYYY-MM-DD.
func Date(t *time.Time) string {
	if t == nil {
		return placeholder
	}
	return t.UTC().Format("2006-01-02")
}

// Timestamp formats an optional instant in minutes precision.
func Timestamp(t *time.Time) string {
	if t == nil {
		return placeholder
	}
	return t.UTC().Format("2006-01-02 15:04")
}

// DueDate renders an as-of date relative to now: red when reached.
func DueDate(asOf *time.Time, now time.Time) string {
	if asOf == nil {
		return Dim(placeholder)
	}
	if !now.Before(*asOf) {
		return StyleRed.Render(Date(asOf))
	}
	return StyleFg.Render(Date(asOf))
}

// Str dereferences an optional string.
func Str(s *string) string {
	if s == nil || *s == "" {
		return placeholder
	}
	return *s
}

// OrDash returns s, or the placeholder when s is empty.
func OrDash(s string) string {
	if s == "" {
		return placeholder
	}
	return s
}

// TruncID returns the first 8 characters of an ID, dimmed.
func TruncID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return StyleDim.Render(id)
}

// Field renders one "  LABEL  value" line with the label padded to width.
func Field(label string, width int, value string) string {
	return fmt.Sprintf("  %s  %s\n", Dim(fmt.Sprintf("%-*s", width, strings.ToUpper(label))), value)
}

// Properties renders a sorted key/value listing.
func Properties(props map[string]string) string {
	if len(props) == 0 {
		return Dim("No properties.") + "\n"
	}
	keys := make([]string, 0, len(props))
	width := 0
	for k := range props {
		keys = append(keys, k)
		width = max(width, len(k))
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(fmt.Sprintf("  %s  %s\n", Dim(fmt.Sprintf("%-*s", width, k)), props[k]))
	}
	return b.String()
}
