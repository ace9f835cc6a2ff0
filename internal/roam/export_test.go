package roam

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	export := `[
	  {
	    "title": "Projects",
	    "create-time": 1690000000000,
	    "edit-time": 1690000001000,
	    "children": [
	      {
	        "uid": "abc123DEF",
	        "string": "Build a shed",
	        "create-time": 1690000000500,
	        "edit-time": 1690000001000,
	        "children": [
	          {"uid": "nested01", "string": "Buy lumber"}
	        ]
	      }
	    ]
	  }
	]`

	pages, err := Parse(strings.NewReader(export))

	require.NoError(t, err)
	require.Len(t, pages, 1)

	page := pages[0]
	assert.Equal(t, "Projects", page.Title)
	require.NotNil(t, page.CreateTime)
	assert.Equal(t, int64(1690000000000), *page.CreateTime)
	assert.Equal(t, int64(1690000001000), page.EditTime)

	require.Len(t, page.Children, 1)
	item := page.Children[0]
	assert.Equal(t, "abc123DEF", item.UID)
	assert.Equal(t, "Build a shed", item.String)
	require.Len(t, item.Children, 1)
	assert.Equal(t, "Buy lumber", item.Children[0].String)
	assert.Nil(t, item.Children[0].CreateTime)
}

func TestParse_OptionalFieldsAbsent(t *testing.T) {
	pages, err := Parse(strings.NewReader(`[{"title": "Bare", "edit-time": 1}]`))

	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Nil(t, pages[0].CreateTime)
	assert.Empty(t, pages[0].Children)
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse(strings.NewReader(`{"title": "not an array"}`))

	require.Error(t, err)
}

func TestCountItems(t *testing.T) {
	pages := []Page{
		{
			Title: "A",
			Children: []Item{
				{UID: "1", Children: []Item{
					{UID: "2", Children: []Item{{UID: "3"}}},
				}},
				{UID: "4"},
			},
		},
		{Title: "B", Children: []Item{{UID: "5"}}},
		{Title: "C"},
	}

	assert.Equal(t, 5, CountItems(pages))
}
