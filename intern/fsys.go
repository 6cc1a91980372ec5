package intern

import "strings"

// NodeID identifies a Node within an Arena. The zero value is reserved
// as "no entry".
type NodeID int32

// Node is a canonicalized filesystem path shared by every package that
// owns it: one entry of the fsys_namenode table (fsys-hash.c). Diversion
// and statoverride back-pointers are deliberately not modeled here;
// they are maintained by the diversion and override packages, keyed by
// NodeID, to avoid tying this interning table to
// higher-layer record formats.
type Node struct {
	ID   NodeID
	Path string // always begins with exactly one "/"; leading "/" and "./" runs removed

	// Owners lists every package instance that currently claims this
	// path, mirroring fsys_namenode.packages.
	Owners []PkgID

	// OldHash/NewHash are the recorded MD5 digests from the currently
	// installed package and from an in-progress unpack, respectively.
	OldHash string
	NewHash string

	Flags NodeFlags
}

// NodeFlags records transient per-unpack state on a Node.
type NodeFlags uint32

const (
	NodeNewConffile NodeFlags = 1 << iota
	NodeObsoleteConffile
	NodeElideOtherLists
)

// canonicalizePath strips leading "/" and "./" segments and restores a
// single leading "/", matching path_skip_slash_dotslash's normalization
// in fsys-hash.c.
func canonicalizePath(name string) string {
	for {
		switch {
		case strings.HasPrefix(name, "/"):
			name = name[1:]
		case strings.HasPrefix(name, "./"):
			name = name[2:]
		default:
			return "/" + name
		}
	}
}

// Node returns the node with the given id.
func (a *Arena) Node(id NodeID) *Node {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.nodes[id]
}

// FindNode returns the Node for path, creating it if it does not yet
// exist (fsys_hash_find_node without FHFF_NONE).
func (a *Arena) FindNode(path string) *Node {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := canonicalizePath(path)
	if id, ok := a.byPath[key]; ok {
		return a.nodes[id]
	}

	id := NodeID(len(a.nodes))
	node := &Node{ID: id, Path: key}
	a.nodes = append(a.nodes, node)
	a.byPath[key] = id
	return node
}

// LookupNode returns the Node for path without creating it
// (fsys_hash_find_node with FHFF_NONE), or nil if path is unknown.
func (a *Arena) LookupNode(path string) *Node {
	a.mu.Lock()
	defer a.mu.Unlock()
	if id, ok := a.byPath[canonicalizePath(path)]; ok {
		return a.nodes[id]
	}
	return nil
}

// CountNodes returns the number of interned filesystem nodes
// (fsys_hash_entries).
func (a *Arena) CountNodes() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.nodes) - 1
}

// Nodes returns every interned filesystem node, in interning order.
func (a *Arena) Nodes() []*Node {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*Node, 0, len(a.nodes)-1)
	for _, n := range a.nodes[1:] {
		out = append(out, n)
	}
	return out
}

// ClaimOwner records pkg as an owner of node and node as one of pkg's
// files, keeping the two sides of the ownership relation consistent
// with each other. Idempotent.
func (a *Arena) ClaimOwner(node *Node, pkg PkgID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	owned := false
	for _, p := range node.Owners {
		if p == pkg {
			owned = true
			break
		}
	}
	if !owned {
		node.Owners = append(node.Owners, pkg)
	}
	p := a.pkgs[pkg]
	for _, n := range p.Files {
		if n == node.ID {
			return
		}
	}
	p.Files = append(p.Files, node.ID)
}

// DisownOwner removes pkg from node's owner list and node from pkg's
// file list, if present.
func (a *Arena) DisownOwner(node *Node, pkg PkgID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, p := range node.Owners {
		if p == pkg {
			node.Owners = append(node.Owners[:i], node.Owners[i+1:]...)
			break
		}
	}
	p := a.pkgs[pkg]
	for i, n := range p.Files {
		if n == node.ID {
			p.Files = append(p.Files[:i], p.Files[i+1:]...)
			return
		}
	}
}
