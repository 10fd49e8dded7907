package confslicer

import "strings"

// Render serializes a ConfigTree back to text. For Cisco/Arista trees this
// is the parse→render round trip described in the parser's testable
// properties: one space of indentation per depth, with a `!` sentinel
// after each top-level section. For Junos trees it reproduces the
// brace-structured form.
func Render(tree *ConfigTree) string {
	var b strings.Builder

	if tree.Vendor == VendorJunos {
		renderJunosChildren(&b, tree.Root.Children, 0)
		return b.String()
	}

	for _, node := range tree.Root.Children {
		renderIndentNode(&b, node, 0)
		b.WriteString("!\n")
	}
	return b.String()
}

func renderIndentNode(b *strings.Builder, node *ConfigNode, depth int) {
	b.WriteString(strings.Repeat(" ", depth))
	b.WriteString(node.Command)
	b.WriteString("\n")
	for _, child := range node.Children {
		renderIndentNode(b, child, depth+1)
	}
}

func renderJunosChildren(b *strings.Builder, children []*ConfigNode, depth int) {
	indent := strings.Repeat("    ", depth)
	for _, node := range children {
		b.WriteString(indent)
		b.WriteString(node.Command)
		if len(node.Children) == 0 {
			b.WriteString(";\n")
			continue
		}
		b.WriteString(" {\n")
		renderJunosChildren(b, node.Children, depth+1)
		b.WriteString(indent)
		b.WriteString("}\n")
	}
}
