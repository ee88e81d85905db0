// Package menus defines navigation menu items and resolved navigation trees.
package menus

// Collection holding menu items.
const Collection = "menuItems"

// Item types.
const (
	TypeCustom   = "custom"
	TypePage     = "page"
	TypePost     = "post"
	TypeCategory = "category"
	TypeTag      = "tag"
)

// Item is a single entry of a menu. Items of one menu form a forest through
// ParentID; a parent outside the same menu makes the item a root.
type Item struct {
	ID       string `json:"id"`
	MenuID   string `json:"menuId"`
	Label    string `json:"label"`
	URL      string `json:"url,omitempty"`
	Order    int    `json:"order"`
	ParentID string `json:"parentId,omitempty"`
	Type     string `json:"type,omitempty"`
	ObjectID string `json:"objectId,omitempty"`
	Target   string `json:"target,omitempty"`
}

// Node is a resolved navigation entry.
type Node struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	URL      string `json:"url"`
	Target   string `json:"target,omitempty"`
	Children []Node `json:"children,omitempty"`
}

// Navigation is the resolved menu for one theme location.
type Navigation struct {
	Location string `json:"location"`
	MenuID   string `json:"menuId,omitempty"`
	Nodes    []Node `json:"nodes"`
}

// Empty reports whether the navigation has no entries.
func (n Navigation) Empty() bool { return len(n.Nodes) == 0 }
