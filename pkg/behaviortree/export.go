package behaviortree

import (
	"strings"

	"github.com/randalmurphal/behaviortree/pkg/behaviortree/snapshot"
)

// stateIcons has one icon per State, indexed by the state's value.
var stateIcons = [...]string{
	StateIdle:      "⚫️",
	StateRunning:   "🔵",
	StateSucceeded: "✅",
	StateFailed:    "🔴",
	StatePanicked:  "💩",
	StateCanceled:  "🔶",
}

// Icon returns the glyph Render uses for s.
func (s State) Icon() string {
	if s < 0 || int(s) >= len(stateIcons) {
		return "?"
	}
	return stateIcons[s]
}

// Walk visits root and its descendants in pre-order. fn receives each node
// with its depth (root is 0); returning false skips that node's children.
//
// Walk reads the tree as it is; it takes no locks, so a tree in flight may
// change between visits.
func Walk[F any](root Node[F], fn func(node Node[F], depth int) bool) {
	walk(root, 0, fn)
}

func walk[F any](n Node[F], depth int, fn func(Node[F], int) bool) {
	if !fn(n, depth) {
		return
	}
	for _, child := range n.Children() {
		walk(child, depth+1, fn)
	}
}

// Render draws the tree as indented text, one "label icon" line per node.
// Nested lines are indented two spaces per level and marked with "➥".
//
// With runningPathOnly set, a node's children are drawn only while that
// node is Running, which leaves just the active execution path expanded:
//
//	Sequence 🔵
//	  ➥ComputeHour ✅
//	  ➥CheckHour 🔵
//	  ➥Greetings ⚫️
func Render[F any](root Node[F], runningPathOnly bool) string {
	var lines []string
	Walk(root, func(n Node[F], depth int) bool {
		// One read per node so the icon and the pruning decision agree.
		state := n.State()
		lines = append(lines, indent(depth)+n.Label()+" "+state.Icon())
		return !runningPathOnly || state == StateRunning
	})
	return strings.Join(lines, "\n")
}

func indent(depth int) string {
	if depth == 0 {
		return ""
	}
	return strings.Repeat("  ", depth) + "➥"
}

// Records flattens the tree into snapshot records with dotted index paths.
func Records[F any](root Node[F]) []snapshot.NodeRecord {
	var out []snapshot.NodeRecord
	var visit func(n Node[F], path string, depth int)
	visit = func(n Node[F], path string, depth int) {
		out = append(out, snapshot.NodeRecord{
			Path:  path,
			Label: n.Label(),
			State: n.State().String(),
			Depth: depth,
		})
		for i, child := range n.Children() {
			visit(child, childID(path, i), depth+1)
		}
	}
	visit(root, rootID, 0)
	return out
}

// Reset returns every node of the tree that is not running to Idle so the
// tree can be evaluated again from a clean slate. It reports whether every
// node was reset; running nodes are left untouched.
func Reset[F any](root Node[F]) bool {
	all := true
	Walk(root, func(n Node[F], _ int) bool {
		if !n.base().reset() {
			all = false
		}
		return true
	})
	return all
}
