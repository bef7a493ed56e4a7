package tlv

import (
	"fmt"
	"io"
	"strings"
)

const (
	emptyValue = "(empty)"
	border     = "│  "
)

// Render returns the text display of a forest: one line per node with its
// tag, length and value. Children are indented under a left border and their
// parent carries a child-count annotation.
func Render(nodes []Node) string {
	var sb strings.Builder
	_ = Write(&sb, nodes)
	return sb.String()
}

// Write renders nodes to w.
func Write(w io.Writer, nodes []Node) error {
	return writeNodes(w, nodes, "")
}

func writeNodes(w io.Writer, nodes []Node, indent string) error {
	for _, n := range nodes {
		if _, err := fmt.Fprintf(w, "%s%s\n", indent, nodeLine(n)); err != nil {
			return err
		}
		if len(n.Children) > 0 {
			if err := writeNodes(w, n.Children, indent+border); err != nil {
				return err
			}
		}
	}
	return nil
}

func nodeLine(n Node) string {
	line := fmt.Sprintf("%s  len=%d", n.Tag, n.Length)
	switch {
	case len(n.Children) > 0:
		noun := "children"
		if len(n.Children) == 1 {
			noun = "child"
		}
		if n.Value != "" {
			line += "  " + n.Value
		}
		return fmt.Sprintf("%s  [%d %s]", line, len(n.Children), noun)
	case strings.TrimSpace(n.Value) == "":
		return line + "  " + emptyValue
	default:
		return line + "  " + n.Value
	}
}
