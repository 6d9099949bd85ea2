package facet

import (
	"slices"
	"strings"

	"github.com/siftkit/sift/params"
)

// Node is one category of a derived hierarchical facet tree.
type Node struct {
	Name      string  `json:"name"`
	Path      string  `json:"path"`
	Count     int     `json:"count"`
	IsRefined bool    `json:"isRefined"`
	Data      []*Node `json:"data"`
}

// Tree is the envelope around one hierarchical facet's node forest.
// Count and Path stay null and IsRefined true whatever the refinement
// state; consumers rely on the fixed sentinel shape to tell the summary
// level from count-bearing nodes.
type Tree struct {
	Name      string  `json:"name"`
	Count     *int    `json:"count"`
	Path      *string `json:"path"`
	IsRefined bool    `json:"isRefined"`
	Data      []*Node `json:"data"`
}

// Build derives the category tree of one hierarchical facet from flat
// per-level facet-count maps, ordered root level first. The refinement
// state is read from st; the maps are borrowed, never mutated.
//
// Counts come from a path → count index built root first, first level
// wins when several levels report the same path. Children are the indexed
// paths exactly one segment deeper, ordered by count descending then name
// ascending. A node is refined when its path is the selected path of this
// facet or an ancestor of it. Malformed paths are skipped.
func Build(f params.HierarchicalFacet, st *params.State, levels []map[string]int) Tree {
	sep := f.Separator()
	rootPath := f.RootPath()

	counts := make(map[string]int)
	for _, level := range levels {
		for path, count := range level {
			if !wellFormed(path, sep) {
				continue
			}
			if rootPath != "" && path != rootPath && !strings.HasPrefix(path, rootPath+sep) {
				continue
			}
			if _, seen := counts[path]; seen {
				continue
			}
			counts[path] = count
		}
	}

	children := make(map[string][]string)
	for path := range counts {
		segs := strings.Split(path, sep)
		parent := ""
		if len(segs) > 1 {
			parent = f.JoinPath(segs[:len(segs)-1]...)
		}
		children[parent] = append(children[parent], path)
	}

	refinement, _ := st.HierarchicalFacetRefinement(f.Name())
	refSegs := f.SplitPath(refinement)

	var build func(path string) *Node
	build = func(path string) *Node {
		segs := strings.Split(path, sep)
		node := &Node{
			Name:      segs[len(segs)-1],
			Path:      path,
			Count:     counts[path],
			IsRefined: isAncestorOrSelf(segs, refSegs),
		}
		kids := children[path]
		if len(kids) == 0 {
			return node
		}
		sortByCount(kids, counts)
		node.Data = make([]*Node, 0, len(kids))
		for _, kid := range kids {
			node.Data = append(node.Data, build(kid))
		}
		return node
	}

	var roots []*Node
	if rootPath != "" {
		_, reported := counts[rootPath]
		if reported || len(children[rootPath]) > 0 {
			top := build(rootPath)
			if !reported {
				// the backend never counted the prefix itself
				sum := 0
				for _, kid := range children[rootPath] {
					sum += counts[kid]
				}
				top.Count = sum
			}
			roots = []*Node{top}
		}
	} else {
		tops := children[""]
		sortByCount(tops, counts)
		for _, top := range tops {
			roots = append(roots, build(top))
		}
	}

	if !f.ShowParentLevel() && len(refSegs) > 0 {
		start := 0
		if rootPath != "" {
			start = f.PathDepth(rootPath) - 1
		}
		roots = pruneToRefinement(f, roots, refSegs, start)
	}

	return Tree{
		Name:      f.Name(),
		IsRefined: true,
		Data:      roots,
	}
}

// pruneToRefinement keeps the refined path and the refined node's direct
// children, dropping the siblings of every ancestor.
func pruneToRefinement(f params.HierarchicalFacet, nodes []*Node, refSegs []string, depth int) []*Node {
	if depth >= len(refSegs) {
		return nodes
	}
	want := f.JoinPath(refSegs[:depth+1]...)
	for _, n := range nodes {
		if n.Path == want {
			n.Data = pruneToRefinement(f, n.Data, refSegs, depth+1)
			return []*Node{n}
		}
	}
	return nil
}

func wellFormed(path, sep string) bool {
	if path == "" {
		return false
	}
	for _, seg := range strings.Split(path, sep) {
		if seg == "" {
			return false
		}
	}
	return true
}

func isAncestorOrSelf(pathSegs, refSegs []string) bool {
	if len(refSegs) == 0 || len(pathSegs) > len(refSegs) {
		return false
	}
	for i, seg := range pathSegs {
		if refSegs[i] != seg {
			return false
		}
	}
	return true
}

func sortByCount(paths []string, counts map[string]int) {
	slices.SortFunc(paths, func(a, b string) int {
		if d := counts[b] - counts[a]; d != 0 {
			return d
		}
		return strings.Compare(a, b)
	})
}
