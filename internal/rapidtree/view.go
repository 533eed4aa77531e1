package rapidtree

type NodeView struct {
	Node
	CanReset bool      `json:"canReset"`
	State    NodeState `json:"state"`
}

type CategoryView struct {
	Name  string     `json:"name"`
	Nodes []NodeView `json:"nodes"`
}

// TreeView is the document as shown to clients, with the derived per node flags.
type TreeView struct {
	Categories []CategoryView `json:"categories"`
	Progress   int            `json:"progress"`
}

func (d Document) View() TreeView {
	categories := make([]CategoryView, len(d.Categories))
	for i, category := range d.Categories {
		nodes := make([]NodeView, len(category.Nodes))
		for j, node := range category.Nodes {
			nodes[j] = NodeView{
				Node:     node,
				CanReset: d.CanReset(category.Name, node.ID),
				State:    node.State(),
			}
		}
		categories[i] = CategoryView{Name: category.Name, Nodes: nodes}
	}
	return TreeView{
		Categories: categories,
		Progress:   d.Progress(),
	}
}
