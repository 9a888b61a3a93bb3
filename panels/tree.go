package panels

import (
	"io"

	"github.com/charmbracelet/log"
)

// Node is one panel and its visibility. Children is an in-memory
// convenience view and is never persisted.
type Node struct {
	Panel    PanelID `json:"panel"`
	Name     string  `json:"name"`
	Visible  bool    `json:"visible"`
	Children []Node  `json:"-"`
}

// Tree holds one node per known panel. Every operation returns a new Tree
// and leaves the receiver untouched.
type Tree []Node

var logger = log.New(io.Discard)

// SetLogger routes panel diagnostics to l.
func SetLogger(l *log.Logger) {
	if l == nil {
		l = log.New(io.Discard)
	}
	logger = l
}

// Defaults seeds a tree from the registry.
func Defaults() Tree {
	t := make(Tree, 0, len(order))
	for _, id := range order {
		e := registry[id]
		t = append(t, Node{Panel: id, Name: e.name, Visible: e.visible})
	}
	return t
}

// Reconcile merges a restored flat list with the registry. Unknown ids are
// dropped, missing ids get their defaults, names are refilled. Each radio
// group keeps at most one visible member: the first one stored visible, else
// the first default.
func Reconcile(stored []Node) Tree {
	byID := make(map[PanelID]Node, len(stored))
	for _, n := range stored {
		if !IsKnown(n.Panel) {
			logger.Warn("dropping unknown stored panel", "panel", int(n.Panel))
			continue
		}
		byID[n.Panel] = n
	}

	t := Defaults()
	keep := map[RadioGroup]PanelID{}
	for i := range t {
		if n, ok := byID[t[i].Panel]; ok {
			t[i].Visible = n.Visible
			if g, inGroup := RadioGroupOf(t[i].Panel); inGroup && n.Visible {
				if _, taken := keep[g]; !taken {
					keep[g] = t[i].Panel
				}
			}
		}
	}
	for i := range t {
		g, inGroup := RadioGroupOf(t[i].Panel)
		if !inGroup || !t[i].Visible {
			continue
		}
		if winner, taken := keep[g]; taken && winner != t[i].Panel {
			t[i].Visible = false
			continue
		}
		keep[g] = t[i].Panel
	}
	return t
}

// Clone deep copies the tree, children included.
func (t Tree) Clone() Tree {
	if t == nil {
		return nil
	}
	out := make(Tree, len(t))
	for i, n := range t {
		out[i] = n.clone()
	}
	return out
}

func (n Node) clone() Node {
	c := n
	if n.Children != nil {
		c.Children = make([]Node, len(n.Children))
		for i, ch := range n.Children {
			c.Children[i] = ch.clone()
		}
	}
	return c
}

func (t Tree) index(id PanelID) int {
	for i, n := range t {
		if n.Panel == id {
			return i
		}
	}
	return -1
}

// Node returns the node for id.
func (t Tree) Node(id PanelID) (Node, bool) {
	i := t.index(id)
	if i < 0 {
		return Node{}, false
	}
	return t[i], true
}

// IsVisible reports whether the node for id is visible.
func (t Tree) IsVisible(id PanelID) bool {
	i := t.index(id)
	return i >= 0 && t[i].Visible
}

// Open makes id visible. Members of the same radio group are closed first.
// parent is informational and only shows up in the log.
func (t Tree) Open(id PanelID, reason string, parent ...PanelID) Tree {
	i := t.index(id)
	if i < 0 {
		logger.Warn("open on unknown panel", "panel", int(id), "reason", reason)
		return t
	}

	out := t.Clone()
	if g, ok := RadioGroupOf(id); ok {
		for j := range out {
			if j == i {
				continue
			}
			if og, inGroup := RadioGroupOf(out[j].Panel); inGroup && og == g {
				out[j].Visible = false
			}
		}
	}
	out[i].Visible = true

	if len(parent) > 0 {
		logger.Debug("open panel", "panel", id, "parent", parent[0], "reason", reason)
	} else {
		logger.Debug("open panel", "panel", id, "reason", reason)
	}
	return out
}

// Close hides id. Children are left alone and an emptied radio group stays
// empty.
func (t Tree) Close(id PanelID, reason string) Tree {
	i := t.index(id)
	if i < 0 {
		logger.Warn("close on unknown panel", "panel", int(id), "reason", reason)
		return t
	}
	out := t.Clone()
	out[i].Visible = false
	logger.Debug("close panel", "panel", id, "reason", reason)
	return out
}

// OpenOverlay closes whatever member of id's radio group is showing and
// opens id in its place.
func (t Tree) OpenOverlay(id PanelID, reason string) Tree {
	if !IsKnown(id) || t.index(id) < 0 {
		logger.Warn("overlay on unknown panel", "panel", int(id), "reason", reason)
		return t
	}
	out := t
	if g, ok := RadioGroupOf(id); ok {
		if cur, ok := out.VisibleIn(g); ok && cur != id {
			out = out.Close(cur, reason)
		}
	}
	return out.Open(id, reason)
}

// Toggle flips id.
func (t Tree) Toggle(id PanelID, reason string) Tree {
	if t.IsVisible(id) {
		return t.Close(id, reason)
	}
	return t.Open(id, reason)
}

// VisibleIn returns the visible member of group.
func (t Tree) VisibleIn(group RadioGroup) (PanelID, bool) {
	for _, n := range t {
		if g, ok := RadioGroupOf(n.Panel); ok && g == group && n.Visible {
			return n.Panel, true
		}
	}
	return 0, false
}

// Flatten returns the storage form: no children, names filled from the
// registry.
func (t Tree) Flatten() Tree {
	out := make(Tree, 0, len(t))
	for _, n := range t {
		name := n.Name
		if name == "" {
			name = Name(n.Panel)
		}
		out = append(out, Node{Panel: n.Panel, Name: name, Visible: n.Visible})
	}
	return out
}

// Nest returns a copy of t whose nodes carry copies of their registry
// children. The copies are snapshots: only the top level flags are
// authoritative.
func (t Tree) Nest() Tree {
	flat := t.Flatten()
	kids := map[PanelID][]PanelID{}
	for _, id := range order {
		if p, ok := Parent(id); ok {
			kids[p] = append(kids[p], id)
		}
	}

	var build func(id PanelID, depth int) []Node
	build = func(id PanelID, depth int) []Node {
		if depth > len(order) {
			return nil
		}
		var out []Node
		for _, c := range kids[id] {
			n, ok := flat.Node(c)
			if !ok {
				continue
			}
			n.Children = build(c, depth+1)
			out = append(out, n)
		}
		return out
	}

	out := flat.Clone()
	for i := range out {
		out[i].Children = build(out[i].Panel, 0)
	}
	return out
}

// Equal compares panel ids and flags, ignoring children.
func (t Tree) Equal(o Tree) bool {
	if len(t) != len(o) {
		return false
	}
	for i := range t {
		if t[i].Panel != o[i].Panel || t[i].Visible != o[i].Visible || t[i].Name != o[i].Name {
			return false
		}
	}
	return true
}
