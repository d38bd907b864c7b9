package comments

import "sort"

type ThreadNode struct {
	Comment *Comment
	Replies []*ThreadNode
}

// BuildThread materializes a flat comment list into a forest. Roots are the
// top-level comments; every node's replies are ordered by creation time, ties
// by id. A comment whose parent is missing from the list is treated as
// top-level rather than dropped, so a corrupt parent link cannot hide a
// subtree or loop the walk.
func BuildThread(list []*Comment) []*ThreadNode {
	nodes := make(map[int64]*ThreadNode, len(list))
	for _, c := range list {
		nodes[c.ID] = &ThreadNode{Comment: c}
	}

	roots := make([]*ThreadNode, 0, len(list))
	for _, c := range list {
		node := nodes[c.ID]
		if c.ParentID == nil {
			roots = append(roots, node)
			continue
		}

		parent, ok := nodes[*c.ParentID]
		if !ok || *c.ParentID == c.ID {
			roots = append(roots, node)
			continue
		}

		parent.Replies = append(parent.Replies, node)
	}

	sortSiblings(roots)
	for _, node := range nodes {
		sortSiblings(node.Replies)
	}

	return roots
}

func sortSiblings(siblings []*ThreadNode) {
	sort.SliceStable(siblings, func(i, j int) bool {
		a, b := siblings[i].Comment, siblings[j].Comment
		if !a.Created.Equal(b.Created) {
			return a.Created.Before(b.Created)
		}
		return a.ID < b.ID
	})
}
