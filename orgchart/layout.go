// ABOUTME: Tidy-tree layout for scoped org charts
// ABOUTME: Measures subtree widths bottom-up, then places nodes top-down in stored child order
package orgchart

// Layout geometry, in canvas units.
const (
	NodeWidth  = 220.0
	NodeHeight = 80.0
	HGap       = 32.0
	VGap       = 64.0
	Padding    = 40.0
)

// MaxLayoutDepth stops placement below this depth.
const MaxLayoutDepth = 1000

// PlacedNode is one positioned person. X and Y are the top-left corner of the
// node box; BandX and SubtreeWidth describe the horizontal band its subtree owns.
type PlacedNode struct {
	Node         *TreeNode `json:"-"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	X            float64   `json:"x"`
	Y            float64   `json:"y"`
	BandX        float64   `json:"bandX"`
	SubtreeWidth float64   `json:"subtreeWidth"`
	Depth        int       `json:"depth"`
}

// Edge connects a manager's bottom-center to a report's top-center.
type Edge struct {
	From string  `json:"from"`
	To   string  `json:"to"`
	X1   float64 `json:"x1"`
	Y1   float64 `json:"y1"`
	X2   float64 `json:"x2"`
	Y2   float64 `json:"y2"`
}

// Layout is the positioned chart.
type Layout struct {
	Nodes  []PlacedNode `json:"nodes"`
	Edges  []Edge       `json:"edges"`
	Width  float64      `json:"width"`
	Height float64      `json:"height"`
	RootX  float64      `json:"rootX"`
	RootY  float64      `json:"rootY"`
}

type layoutItem struct {
	node  *TreeNode
	depth int
}

// ComputeLayout positions every node of the tree rooted at root.
func ComputeLayout(root *TreeNode) Layout {
	out := Layout{Nodes: []PlacedNode{}, Edges: []Edge{}}
	if root == nil {
		return out
	}

	order, kids := preorder(root)
	widths := measure(order, kids)

	bands := map[*TreeNode]float64{root: Padding}
	index := make(map[*TreeNode]int, len(order))
	maxRight, maxBottom := 0.0, 0.0

	for _, item := range order {
		n := item.node
		w := widths[n]
		bx := bands[n]
		x := bx + (w-NodeWidth)/2
		y := Padding + float64(item.depth)*(NodeHeight+VGap)

		index[n] = len(out.Nodes)
		out.Nodes = append(out.Nodes, PlacedNode{
			Node:         n,
			Email:        n.Email,
			Name:         n.Name,
			X:            x,
			Y:            y,
			BandX:        bx,
			SubtreeWidth: w,
			Depth:        item.depth,
		})
		if x+NodeWidth > maxRight {
			maxRight = x + NodeWidth
		}
		if y+NodeHeight > maxBottom {
			maxBottom = y + NodeHeight
		}

		children := kids[n]
		cursor := bx + (w-blockWidth(children, widths))/2
		for _, c := range children {
			bands[c] = cursor
			cursor += widths[c] + HGap
		}
	}

	for _, item := range order {
		parent := out.Nodes[index[item.node]]
		for _, c := range kids[item.node] {
			child := out.Nodes[index[c]]
			out.Edges = append(out.Edges, Edge{
				From: parent.Email,
				To:   child.Email,
				X1:   parent.X + NodeWidth/2,
				Y1:   parent.Y + NodeHeight,
				X2:   child.X + NodeWidth/2,
				Y2:   child.Y,
			})
		}
	}

	first := out.Nodes[0]
	out.RootX = first.X + NodeWidth/2
	out.RootY = first.Y
	out.Width = maxRight + Padding
	out.Height = maxBottom + Padding
	return out
}

// preorder lists the nodes parent-first in stored child order. A node reached
// twice or deeper than MaxLayoutDepth is skipped, so kids only holds the
// children that will actually be placed.
func preorder(root *TreeNode) ([]layoutItem, map[*TreeNode][]*TreeNode) {
	seen := map[*TreeNode]bool{root: true}
	kids := make(map[*TreeNode][]*TreeNode)
	var order []layoutItem

	stack := []layoutItem{{node: root}}
	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		order = append(order, item)

		if item.depth >= MaxLayoutDepth {
			continue
		}
		var accepted []*TreeNode
		for _, c := range item.node.Children {
			if c == nil || seen[c] {
				continue
			}
			seen[c] = true
			accepted = append(accepted, c)
		}
		kids[item.node] = accepted
		for i := len(accepted) - 1; i >= 0; i-- {
			stack = append(stack, layoutItem{node: accepted[i], depth: item.depth + 1})
		}
	}
	return order, kids
}

// measure walks the preorder list backwards so children are sized before parents.
func measure(order []layoutItem, kids map[*TreeNode][]*TreeNode) map[*TreeNode]float64 {
	widths := make(map[*TreeNode]float64, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		n := order[i].node
		w := blockWidth(kids[n], widths)
		if w < NodeWidth {
			w = NodeWidth
		}
		widths[n] = w
	}
	return widths
}

func blockWidth(children []*TreeNode, widths map[*TreeNode]float64) float64 {
	if len(children) == 0 {
		return 0
	}
	total := HGap * float64(len(children)-1)
	for _, c := range children {
		total += widths[c]
	}
	return total
}
