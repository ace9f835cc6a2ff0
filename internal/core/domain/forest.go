package domain

import (
	"fmt"
	"strings"
)

// SubsetPage is a pruned, ordered copy of one stored page tree, containing
// only the items a query needs rendered. It lives for one query and is
// discarded after rendering.
type SubsetPage struct {
	Title       string
	MinDistance Distance
	Children    []SubsetItem
}

// SubsetItem mirrors one stored item inside a SubsetPage. Distance is set
// only when the item was itself a search hit; ancestors pulled in for
// context carry none.
type SubsetItem struct {
	ID       string
	Distance *Distance
	Children []SubsetItem
}

// RoamText renders the page as a Roam-style outline: the title wrapped in a
// page reference, each item as an indented bullet wrapped in a block
// reference, distances formatted to three decimal places.
func (p *SubsetPage) RoamText(indent int) string {
	var b strings.Builder

	b.WriteString(strings.Repeat("\t", indent))
	fmt.Fprintf(&b, "`%.3f` **[[%s]]**\n", float64(p.MinDistance), p.Title)

	for i := range p.Children {
		b.WriteString("\n")
		p.Children[i].writeRoamText(&b, indent+1)
	}

	return b.String()
}

// RoamText renders the item subtree as indented bullets.
func (it *SubsetItem) RoamText(indent int) string {
	var b strings.Builder
	it.writeRoamText(&b, indent)
	return b.String()
}

func (it *SubsetItem) writeRoamText(b *strings.Builder, indent int) {
	b.WriteString(strings.Repeat("\t", indent))
	b.WriteString("- ")

	if it.Distance != nil {
		fmt.Fprintf(b, "`%.3f` ((%s))", float64(*it.Distance), it.ID)
	} else {
		fmt.Fprintf(b, "((%s))", it.ID)
	}

	for i := range it.Children {
		b.WriteString("\n")
		it.Children[i].writeRoamText(b, indent+1)
	}
}
