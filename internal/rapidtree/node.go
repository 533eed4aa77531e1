package rapidtree

// NodeState is the state of a single node in its category.
type NodeState string

const (
	StateLocked             NodeState = "LOCKED"
	StateUnlockedIncomplete NodeState = "UNLOCKED_INCOMPLETE"
	StateCompleted          NodeState = "COMPLETED"
)

type Node struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Level       string `json:"level"`
	Icon        string `json:"icon"`
	IsCompleted bool   `json:"isCompleted"`
	IsLocked    bool   `json:"isLocked"`
}

func (n Node) State() NodeState {
	switch {
	case n.IsCompleted:
		return StateCompleted
	case n.IsLocked:
		return StateLocked
	default:
		return StateUnlockedIncomplete
	}
}

// Category is an ordered list of nodes; a node unlocks its successor when completed.
type Category struct {
	Name  string `json:"name"`
	Nodes []Node `json:"nodes"`
}

func (c Category) indexOf(nodeID string) int {
	for i, node := range c.Nodes {
		if node.ID == nodeID {
			return i
		}
	}
	return -1
}

type Document struct {
	Categories []Category `json:"categories"`
}

func (d Document) clone() Document {
	categories := make([]Category, len(d.Categories))
	for i, category := range d.Categories {
		nodes := make([]Node, len(category.Nodes))
		copy(nodes, category.Nodes)
		categories[i] = Category{Name: category.Name, Nodes: nodes}
	}
	return Document{Categories: categories}
}

func (d Document) categoryIndex(name string) int {
	for i, category := range d.Categories {
		if category.Name == name {
			return i
		}
	}
	return -1
}

// Category returns the category with the given name.
func (d Document) Category(name string) (Category, bool) {
	i := d.categoryIndex(name)
	if i < 0 {
		return Category{}, false
	}
	return d.Categories[i], true
}

// Node returns the node identified by (category, id).
func (d Document) Node(category, nodeID string) (Node, bool) {
	c, ok := d.Category(category)
	if !ok {
		return Node{}, false
	}
	i := c.indexOf(nodeID)
	if i < 0 {
		return Node{}, false
	}
	return c.Nodes[i], true
}

// locate returns category and node indexes, or -1s.
func (d Document) locate(category, nodeID string) (int, int) {
	ci := d.categoryIndex(category)
	if ci < 0 {
		return -1, -1
	}
	ni := d.Categories[ci].indexOf(nodeID)
	if ni < 0 {
		return -1, -1
	}
	return ci, ni
}
