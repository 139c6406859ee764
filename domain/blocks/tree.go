package blocks

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/inkwell-app/inkwell/pkg/logger"
)

// BuildTree reconstructs the ordered tree of a document from its flat node
// and edge sets. The result is deterministic for a given input: sibling
// groups are ordered by following the sibling-edge linked list, and any
// damage to that list (missing head, fan-in, cycles) degrades to the nodes'
// original input order rather than failing.
func BuildTree(nodes []BlockNode, edges []BlockEdge, log *slog.Logger) []*TreeNode {
	if len(nodes) == 0 {
		return []*TreeNode{}
	}
	log = log.With(logger.Scope("blocks.tree"))

	byID := make(map[uuid.UUID]*BlockNode, len(nodes))
	for i := range nodes {
		byID[nodes[i].ID] = &nodes[i]
	}

	// Group children by parent, preserving input order within each group.
	// A node whose declared parent is missing from the set is unreachable
	// and dropped.
	var roots []uuid.UUID
	children := make(map[uuid.UUID][]uuid.UUID)
	for i := range nodes {
		n := &nodes[i]
		if n.ParentID == nil {
			roots = append(roots, n.ID)
			continue
		}
		if _, ok := byID[*n.ParentID]; !ok {
			log.Warn("block references missing parent, dropping from tree",
				slog.String("block_id", n.ID.String()),
				slog.String("parent_id", n.ParentID.String()))
			continue
		}
		children[*n.ParentID] = append(children[*n.ParentID], n.ID)
	}

	// next[from] = to for every sibling edge; first edge wins on fan-out so
	// the walk stays deterministic.
	next := make(map[uuid.UUID]uuid.UUID, len(edges))
	for _, e := range edges {
		if _, dup := next[e.FromID]; dup {
			log.Warn("duplicate outgoing sibling edge, keeping first",
				slog.String("from_id", e.FromID.String()))
			continue
		}
		next[e.FromID] = e.ToID
	}

	var build func(ids []uuid.UUID) []*TreeNode
	build = func(ids []uuid.UUID) []*TreeNode {
		ordered := orderSiblings(ids, next, log)
		out := make([]*TreeNode, 0, len(ordered))
		for _, id := range ordered {
			n := byID[id]
			out = append(out, &TreeNode{
				ID:       n.ID,
				ParentID: n.ParentID,
				Data:     n.Data,
				Children: build(children[id]),
			})
		}
		return out
	}

	return build(roots)
}

// orderSiblings orders one sibling group by its edge linked list. Groups
// with no ordering information keep their input order; corrupt lists fall
// back to a deterministic walk from the first member plus the leftovers in
// input order.
func orderSiblings(members []uuid.UUID, next map[uuid.UUID]uuid.UUID, log *slog.Logger) []uuid.UUID {
	if len(members) <= 1 {
		return members
	}

	inGroup := make(map[uuid.UUID]bool, len(members))
	for _, id := range members {
		inGroup[id] = true
	}

	// Restrict the edge map to edges whose both ends are in this group.
	targets := make(map[uuid.UUID]bool)
	hasEdges := false
	for _, id := range members {
		if to, ok := next[id]; ok && inGroup[to] {
			targets[to] = true
			hasEdges = true
		}
	}
	if !hasEdges {
		return members
	}

	// The head is the unique member no edge points at. Zero heads means a
	// cycle, multiple heads means a broken chain; either way pick the first
	// member and keep going.
	var head uuid.UUID
	headCount := 0
	for _, id := range members {
		if !targets[id] {
			if headCount == 0 {
				head = id
			}
			headCount++
		}
	}
	if headCount != 1 {
		log.Warn("corrupt sibling list, falling back to input order",
			slog.Int("head_count", headCount),
			slog.Int("group_size", len(members)))
		head = members[0]
	}

	visited := make(map[uuid.UUID]bool, len(members))
	ordered := make([]uuid.UUID, 0, len(members))
	for cur := head; inGroup[cur] && !visited[cur]; {
		visited[cur] = true
		ordered = append(ordered, cur)
		nxt, ok := next[cur]
		if !ok {
			break
		}
		cur = nxt
	}

	// Anything the walk did not reach is appended in input order so no
	// block silently disappears from the document.
	for _, id := range members {
		if !visited[id] {
			ordered = append(ordered, id)
		}
	}
	return ordered
}
