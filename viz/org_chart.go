// ABOUTME: Graphviz rendering of org charts
// ABOUTME: Produces DOT source for a focused subtree or a whole account
package viz

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/harperreed/orgmap/models"
	"github.com/harperreed/orgmap/orgchart"
)

// GraphGenerator renders charts to DOT.
type GraphGenerator struct{}

func NewGraphGenerator() *GraphGenerator {
	return &GraphGenerator{}
}

var sentimentColors = map[string]string{
	models.SentimentHigh:    "palegreen",
	models.SentimentMedium:  "lightyellow",
	models.SentimentLow:     "lightpink",
	models.SentimentUnknown: "lightgrey",
}

func sentimentColor(s string) string {
	if c, ok := sentimentColors[s]; ok {
		return c
	}
	return sentimentColors[models.SentimentUnknown]
}

func label(p *models.Person) string {
	name := p.Name
	if name == "" {
		name = p.Email
	}
	if p.Designation == "" {
		return name
	}
	return fmt.Sprintf("%s\n%s", name, p.Designation)
}

type renderer struct {
	graph *cgraph.Graph
	nodes map[string]*cgraph.Node
}

func (r *renderer) node(p *models.Person) (*cgraph.Node, error) {
	if n, ok := r.nodes[p.Key()]; ok {
		return n, nil
	}
	n, err := r.graph.CreateNodeByName(p.Key())
	if err != nil {
		return nil, fmt.Errorf("failed to create node for %s: %w", p.Email, err)
	}
	n.SetLabel(label(p))
	n.SetShape("box")
	n.SetStyle("filled")
	n.SetFillColor(sentimentColor(p.Sentiment))
	r.nodes[p.Key()] = n
	return n, nil
}

func (r *renderer) edge(from, to *cgraph.Node) (*cgraph.Edge, error) {
	e, err := r.graph.CreateEdgeByName("", from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to create edge: %w", err)
	}
	return e, nil
}

func render(title string, draw func(r *renderer) error) (string, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz: %w", err)
	}
	defer gv.Close()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer graph.Close()

	graph.SetRankDir(cgraph.TBRank)
	if title != "" {
		graph.SetLabel(title)
	}

	if err := draw(&renderer{graph: graph, nodes: map[string]*cgraph.Node{}}); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.XDOT, &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}
	return buf.String(), nil
}

// GenerateOrgChart renders the manager chain as a dashed line above the
// focus, then the focus and everyone below it.
func (g *GraphGenerator) GenerateOrgChart(tree orgchart.ScopedTree) (string, error) {
	if tree.Root == nil {
		return "", fmt.Errorf("org chart has no focus person")
	}
	title := fmt.Sprintf("Org chart: %s", tree.Root.Name)
	if tree.Root.Name == "" {
		title = fmt.Sprintf("Org chart: %s", tree.Root.Email)
	}

	return render(title, func(r *renderer) error {
		var above *cgraph.Node
		for i := range tree.Ancestors {
			n, err := r.node(&tree.Ancestors[i])
			if err != nil {
				return err
			}
			n.SetStyle("dashed,filled")
			if above != nil {
				e, err := r.edge(above, n)
				if err != nil {
					return err
				}
				e.SetStyle("dashed")
			}
			above = n
		}

		focus, err := r.node(&tree.Root.Person)
		if err != nil {
			return err
		}
		focus.SetPenWidth(3)
		focus.SetColor("navy")
		if above != nil {
			e, err := r.edge(above, focus)
			if err != nil {
				return err
			}
			e.SetStyle("dashed")
		}

		stack := []*orgchart.TreeNode{tree.Root}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			parent := r.nodes[cur.Key()]
			for i := len(cur.Children) - 1; i >= 0; i-- {
				child := cur.Children[i]
				n, err := r.node(&child.Person)
				if err != nil {
					return err
				}
				if _, err := r.edge(parent, n); err != nil {
					return err
				}
				stack = append(stack, child)
			}
		}
		return nil
	})
}

// GenerateAccountGraph renders every person and every resolvable reporting
// line of an account.
func (g *GraphGenerator) GenerateAccountGraph(title string, persons []models.Person) (string, error) {
	return render(title, func(r *renderer) error {
		for i := range persons {
			if _, err := r.node(&persons[i]); err != nil {
				return err
			}
		}
		for i := range persons {
			p := &persons[i]
			mgr, ok := r.nodes[models.EmailKey(p.Manager())]
			if !ok || models.SameEmail(p.Manager(), p.Email) {
				continue
			}
			if _, err := r.edge(mgr, r.nodes[p.Key()]); err != nil {
				return err
			}
		}
		return nil
	})
}
