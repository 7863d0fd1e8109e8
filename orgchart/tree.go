// ABOUTME: Projects the flat person list into the visible chart around a focus person
// ABOUTME: Produces the ancestor chain and the resolved descendant tree
package orgchart

import "github.com/harperreed/orgmap/models"

// MaxAncestorSteps bounds the manager walk so corrupted data cannot loop forever.
const MaxAncestorSteps = 1000

// TreeNode is a person plus their resolved reports. ReportingTo and Reportees
// keep the raw stored references.
type TreeNode struct {
	models.Person
	Children []*TreeNode `json:"children"`
}

// ScopedTree is the chart rendered for one focus person.
type ScopedTree struct {
	Root      *TreeNode       `json:"root"`
	Ancestors []models.Person `json:"ancestors"`
}

// BuildScopedTree resolves the focus person's ancestors and descendants.
func BuildScopedTree(persons []models.Person, focus string) ScopedTree {
	return NewRoster(persons).ScopedTree(focus)
}

// ScopedTree resolves the chart around focus. Unknown focus yields an empty tree.
func (r *Roster) ScopedTree(focus string) ScopedTree {
	start := r.lookup(focus)
	if start == nil {
		return ScopedTree{Ancestors: []models.Person{}}
	}

	visited := map[string]bool{start.Key(): true}
	ancestors := r.ancestorsOf(start, visited)

	root := &TreeNode{Person: start.Clone(), Children: []*TreeNode{}}
	r.expand(root, visited)

	return ScopedTree{Root: root, Ancestors: ancestors}
}

// Ancestors returns the manager chain of email, top-most first.
func (r *Roster) Ancestors(email string) []models.Person {
	p := r.lookup(email)
	if p == nil {
		return []models.Person{}
	}
	return r.ancestorsOf(p, map[string]bool{p.Key(): true})
}

func (r *Roster) ancestorsOf(p *models.Person, visited map[string]bool) []models.Person {
	var chain []models.Person
	cur := p
	for step := 0; step < MaxAncestorSteps; step++ {
		mgr := r.lookup(cur.Manager())
		if mgr == nil || visited[mgr.Key()] {
			break
		}
		visited[mgr.Key()] = true
		chain = append(chain, mgr.Clone())
		cur = mgr
	}

	// walked bottom-up; callers want the top of the chart first
	out := make([]models.Person, len(chain))
	for i, a := range chain {
		out[len(chain)-1-i] = a
	}
	return out
}

type expandFrame struct {
	node *TreeNode
	next int
}

// expand attaches children depth-first in stored reportee order, without recursion.
func (r *Roster) expand(root *TreeNode, visited map[string]bool) {
	stack := []*expandFrame{{node: root}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next >= len(top.node.Reportees) {
			stack = stack[:len(stack)-1]
			continue
		}
		email := top.node.Reportees[top.next]
		top.next++

		child := r.lookup(email)
		if child == nil || visited[child.Key()] {
			continue
		}
		visited[child.Key()] = true

		node := &TreeNode{Person: child.Clone(), Children: []*TreeNode{}}
		top.node.Children = append(top.node.Children, node)
		stack = append(stack, &expandFrame{node: node})
	}
}

// Size counts the nodes of the tree.
func (n *TreeNode) Size() int {
	if n == nil {
		return 0
	}
	count := 0
	stack := []*TreeNode{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		count++
		stack = append(stack, cur.Children...)
	}
	return count
}
