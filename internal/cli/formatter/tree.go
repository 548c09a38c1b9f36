package formatter

import (
	"strings"

	"github.com/alexanderramin/retention/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// TreeNode is one node of a file plan tree display.
type TreeNode struct {
	Node     *domain.Node
	Detail   string // next action summary, shown as a right-aligned badge
	Children []*TreeNode
}

const (
	treeBranch = "├─ "
	treeCorner = "└─ "
	treePipe   = "│  "
	treeBlank  = "   "
)

// RenderTree renders the hierarchy with box-drawing connectors. Destroyed
// and transferred nodes are dimmed and detail badges are right-aligned.
func RenderTree(root *TreeNode) string {
	if root == nil {
		return ""
	}

	type lineInfo struct {
		content string
		badge   string
	}
	var lines []lineInfo
	maxContentWidth := 0

	var walk func(t *TreeNode, prefix string, last, top bool)
	walk = func(t *TreeNode, prefix string, last, top bool) {
		connector, childPrefix := "", ""
		if !top {
			connector = treeBranch
			childPrefix = prefix + treePipe
			if last {
				connector = treeCorner
				childPrefix = prefix + treeBlank
			}
		}

		n := t.Node
		title := n.Name
		if n.Ghosted || n.Transferred {
			title = Dim(title)
		} else if n.Kind != domain.KindRecord {
			title = Bold(title)
		}
		content := prefix + connector + title + " " + Dim("("+n.Identifier+")")
		if labels := StateLabels(n); len(labels) > 0 {
			content += " " + StyleYellow.Render("["+strings.Join(labels, ", ")+"]")
		}

		li := lineInfo{content: content}
		if t.Detail != "" {
			li.badge = StyleBlue.Render("[ " + t.Detail + " ]")
		}
		lines = append(lines, li)
		if w := lipgloss.Width(content); w > maxContentWidth {
			maxContentWidth = w
		}

		for i, c := range t.Children {
			walk(c, childPrefix, i == len(t.Children)-1, false)
		}
	}
	walk(root, "", true, true)

	var b strings.Builder
	for _, li := range lines {
		if li.badge == "" {
			b.WriteString(li.content + "\n")
			continue
		}
		pad := max(maxContentWidth-lipgloss.Width(li.content), 0)
		b.WriteString(li.content + strings.Repeat(" ", pad) + "  " + li.badge + "\n")
	}
	return b.String()
}
