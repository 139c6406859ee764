package blocks

import (
	"encoding/json"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var treeLog = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

func node(id uuid.UUID, parent *uuid.UUID) BlockNode {
	return BlockNode{
		ID:       id,
		ParentID: parent,
		Data:     json.RawMessage(`{"type":"paragraph"}`),
	}
}

func edge(from, to uuid.UUID) BlockEdge {
	return BlockEdge{FromID: from, ToID: to, Type: EdgeTypeSibling}
}

func ids(nodes []*TreeNode) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func TestBuildTree_Empty(t *testing.T) {
	roots := BuildTree(nil, nil, treeLog)
	require.NotNil(t, roots)
	assert.Empty(t, roots)
}

func TestBuildTree_LinkedListRoundTrip(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	// Input order deliberately scrambled; edges carry the real order.
	nodes := []BlockNode{node(c, nil), node(a, nil), node(b, nil)}
	edges := []BlockEdge{edge(a, b), edge(b, c)}

	roots := BuildTree(nodes, edges, treeLog)
	assert.Equal(t, []uuid.UUID{a, b, c}, ids(roots))
}

func TestBuildTree_NoEdges_KeepsInputOrder(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	nodes := []BlockNode{node(b, nil), node(c, nil), node(a, nil)}

	roots := BuildTree(nodes, nil, treeLog)
	assert.Equal(t, []uuid.UUID{b, c, a}, ids(roots))
}

func TestBuildTree_CorruptList_TwoHeads(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	nodes := []BlockNode{node(a, nil), node(b, nil), node(c, nil)}
	// Both A and C point at B: two heads, fan-in on B.
	edges := []BlockEdge{edge(a, b), edge(c, b)}

	first := BuildTree(nodes, edges, treeLog)
	require.Len(t, first, 3)

	seen := map[uuid.UUID]int{}
	for _, n := range first {
		seen[n.ID]++
	}
	assert.Equal(t, map[uuid.UUID]int{a: 1, b: 1, c: 1}, seen, "every node exactly once")

	second := BuildTree(nodes, edges, treeLog)
	assert.Equal(t, ids(first), ids(second), "corrupt recovery must be deterministic")
}

func TestBuildTree_Cycle(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	nodes := []BlockNode{node(a, nil), node(b, nil)}
	edges := []BlockEdge{edge(a, b), edge(b, a)}

	roots := BuildTree(nodes, edges, treeLog)
	// No head exists; the walk starts at the first member and the cycle
	// guard stops it after one lap.
	assert.Equal(t, []uuid.UUID{a, b}, ids(roots))
}

func TestBuildTree_NestedChildren(t *testing.T) {
	root := uuid.New()
	c1, c2, c3 := uuid.New(), uuid.New(), uuid.New()

	nodes := []BlockNode{
		node(root, nil),
		node(c3, &root),
		node(c1, &root),
		node(c2, &root),
	}
	edges := []BlockEdge{edge(c1, c2), edge(c2, c3)}

	roots := BuildTree(nodes, edges, treeLog)
	require.Len(t, roots, 1)
	assert.Equal(t, root, roots[0].ID)
	assert.Equal(t, []uuid.UUID{c1, c2, c3}, ids(roots[0].Children))
}

func TestBuildTree_MissingParentDropped(t *testing.T) {
	a := uuid.New()
	ghost := uuid.New()
	orphan := uuid.New()

	nodes := []BlockNode{node(a, nil), node(orphan, &ghost)}

	roots := BuildTree(nodes, nil, treeLog)
	assert.Equal(t, []uuid.UUID{a}, ids(roots))
}

func TestBuildTree_Deterministic(t *testing.T) {
	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	nodes := []BlockNode{node(d, nil), node(b, nil), node(a, nil), node(c, nil)}
	edges := []BlockEdge{edge(a, b), edge(b, c), edge(c, d)}

	want := ids(BuildTree(nodes, edges, treeLog))
	for i := 0; i < 20; i++ {
		assert.Equal(t, want, ids(BuildTree(nodes, edges, treeLog)))
	}
	assert.Equal(t, []uuid.UUID{a, b, c, d}, want)
}

func TestBuildTree_PartialChain_AppendsLeftovers(t *testing.T) {
	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	// Only A->B is linked; C and D have no ordering information.
	nodes := []BlockNode{node(c, nil), node(d, nil), node(b, nil), node(a, nil)}
	edges := []BlockEdge{edge(a, b)}

	roots := BuildTree(nodes, edges, treeLog)
	// Three heads means the chain is treated as damaged: the walk starts at
	// the first input member and everything unreached follows in input order.
	assert.Equal(t, []uuid.UUID{c, d, b, a}, ids(roots))
}

func opEdge(typ string, from, to uuid.UUID) Operation {
	return Operation{Type: typ, FromID: &from, ToID: &to}
}

func TestCancelRedundantEdgePairs(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	t.Run("remove then reinsert cancels both", func(t *testing.T) {
		blockID := uuid.New()
		ops := []Operation{
			opEdge(OpEdgeRemove, a, b),
			{Type: OpBlockUpsert, BlockID: &blockID},
			opEdge(OpEdgeInsert, a, b),
		}
		assert.Equal(t, []bool{true, false, true}, cancelRedundantEdgePairs(ops))
	})

	t.Run("different edges untouched", func(t *testing.T) {
		ops := []Operation{
			opEdge(OpEdgeRemove, a, b),
			opEdge(OpEdgeInsert, a, c),
		}
		assert.Equal(t, []bool{false, false}, cancelRedundantEdgePairs(ops))
	})

	t.Run("insert before remove is not a pair", func(t *testing.T) {
		ops := []Operation{
			opEdge(OpEdgeInsert, a, b),
			opEdge(OpEdgeRemove, a, b),
		}
		assert.Equal(t, []bool{false, false}, cancelRedundantEdgePairs(ops))
	})

	t.Run("double remove disables cancellation", func(t *testing.T) {
		ops := []Operation{
			opEdge(OpEdgeRemove, a, b),
			opEdge(OpEdgeRemove, a, b),
			opEdge(OpEdgeInsert, a, b),
		}
		// Applied in order the edge ends up present; cancelling any
		// subset of these could flip that, so all three are applied.
		assert.Equal(t, []bool{false, false, false}, cancelRedundantEdgePairs(ops))
	})

	t.Run("remove insert remove applies everything", func(t *testing.T) {
		ops := []Operation{
			opEdge(OpEdgeRemove, a, b),
			opEdge(OpEdgeInsert, a, b),
			opEdge(OpEdgeRemove, a, b),
		}
		assert.Equal(t, []bool{false, false, false}, cancelRedundantEdgePairs(ops))
	})
}

func TestOperation_UnmarshalJSON_ParentPresence(t *testing.T) {
	blockID := uuid.New()
	parentID := uuid.New()

	var withParent Operation
	require.NoError(t, json.Unmarshal([]byte(
		`{"type":"block_upsert","blockId":"`+blockID.String()+`","parentId":"`+parentID.String()+`"}`), &withParent))
	assert.True(t, withParent.HasParent)
	require.NotNil(t, withParent.ParentID)
	assert.Equal(t, parentID, *withParent.ParentID)

	var nullParent Operation
	require.NoError(t, json.Unmarshal([]byte(
		`{"type":"block_upsert","blockId":"`+blockID.String()+`","parentId":null}`), &nullParent))
	assert.True(t, nullParent.HasParent, "explicit null parent means move to root")
	assert.Nil(t, nullParent.ParentID)

	var noParent Operation
	require.NoError(t, json.Unmarshal([]byte(
		`{"type":"block_upsert","blockId":"`+blockID.String()+`"}`), &noParent))
	assert.False(t, noParent.HasParent)
}
