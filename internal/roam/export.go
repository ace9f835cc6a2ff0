// Package roam parses Roam Research JSON exports: a top-level array of
// pages, each holding a tree of nested items with kebab-case keys and
// epoch-millisecond timestamps.
package roam

import (
	"encoding/json"
	"fmt"
	"io"
)

// Page is one exported page.
type Page struct {
	Title      string `json:"title"`
	EditTime   int64  `json:"edit-time"`
	CreateTime *int64 `json:"create-time"`
	Children   []Item `json:"children"`
}

// Item is one exported bullet, possibly with nested children.
type Item struct {
	UID        string `json:"uid"`
	String     string `json:"string"`
	CreateTime *int64 `json:"create-time"`
	EditTime   *int64 `json:"edit-time"`
	Children   []Item `json:"children"`
}

// Parse decodes an export stream.
func Parse(r io.Reader) ([]Page, error) {
	var pages []Page
	if err := json.NewDecoder(r).Decode(&pages); err != nil {
		return nil, fmt.Errorf("parsing export: %w", err)
	}
	return pages, nil
}

// CountItems returns the total number of items across the export,
// nested children included.
func CountItems(pages []Page) int {
	count := 0
	for i := range pages {
		stack := make([]*Item, 0, len(pages[i].Children))
		for j := range pages[i].Children {
			stack = append(stack, &pages[i].Children[j])
		}
		for len(stack) > 0 {
			item := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			count++
			for j := range item.Children {
				stack = append(stack, &item.Children[j])
			}
		}
	}
	return count
}
