package themes

import (
	"html/template"

	"github.com/goliatone/go-site/menus"
	"github.com/goliatone/go-site/themes"
)

// PageView is the data handed to built-in page templates.
type PageView struct {
	Site       string
	Theme      themes.Name
	Variant    string
	PageType   themes.PageType
	Title      string
	Heading    string
	ShowTitle  bool
	NotFound   bool
	Body       template.HTML
	Listing    []Entry
	Slots      map[string]template.HTML
	Menus      map[string][]menus.Node
	Comments   []CommentView
	CSSVars    map[string]string
	ThemeClass string
}

// Entry is one row of a listing page.
type Entry struct {
	Title   string
	URL     string
	Excerpt string
}

// CommentView is a rendered comment with its replies.
type CommentView struct {
	Author  string
	Date    string
	Content string
	Replies []CommentView
}
