package rapidtree

// Initialize builds the default document: nothing completed, only the first node of each category unlocked.
func Initialize(catalog *Catalog) Document {
	categories := make([]Category, 0, len(catalog.Categories))
	for _, cc := range catalog.Categories {
		nodes := make([]Node, len(cc.Nodes))
		for i, cn := range cc.Nodes {
			nodes[i] = Node{
				ID:       cn.ID,
				Title:    cn.Title,
				Level:    cn.Level,
				Icon:     cn.Icon,
				IsLocked: i > 0,
			}
		}
		categories = append(categories, Category{Name: cc.Name, Nodes: nodes})
	}
	return Document{Categories: categories}
}

// ResetAll drops all progress.
func ResetAll(catalog *Catalog) Document {
	return Initialize(catalog)
}

// Complete marks the node completed and unlocks its successor. Unknown, locked or
// already completed nodes leave the document unchanged, and false is returned.
func (d Document) Complete(category, nodeID string) (Document, bool) {
	ci, ni := d.locate(category, nodeID)
	if ci < 0 {
		return d, false
	}
	node := d.Categories[ci].Nodes[ni]
	if node.IsLocked || node.IsCompleted {
		return d, false
	}

	updated := d.clone()
	nodes := updated.Categories[ci].Nodes
	nodes[ni].IsCompleted = true
	if ni+1 < len(nodes) {
		nodes[ni+1].IsLocked = false
	}
	return updated, true
}

// CanReset reports whether Reset would be accepted: the node exists, and it either
// has no successor, or its successor is unlocked and not completed.
func (d Document) CanReset(category, nodeID string) bool {
	ci, ni := d.locate(category, nodeID)
	if ci < 0 {
		return false
	}
	nodes := d.Categories[ci].Nodes
	if ni+1 >= len(nodes) {
		return true
	}
	successor := nodes[ni+1]
	return !successor.IsLocked && !successor.IsCompleted
}

// Reset clears the completion of the node and re-locks the run of not completed
// successors after it, up to the first completed node. Returns false, with the
// document unchanged, when CanReset is false.
func (d Document) Reset(category, nodeID string) (Document, bool) {
	if !d.CanReset(category, nodeID) {
		return d, false
	}
	ci, ni := d.locate(category, nodeID)

	updated := d.clone()
	nodes := updated.Categories[ci].Nodes
	nodes[ni].IsCompleted = false
	for j := ni + 1; j < len(nodes) && !nodes[j].IsCompleted; j++ {
		nodes[j].IsLocked = true
	}
	return updated, true
}

// Progress is the floored percentage of completed nodes, 0 for an empty document.
func (d Document) Progress() int {
	total, completed := 0, 0
	for _, category := range d.Categories {
		for _, node := range category.Nodes {
			total++
			if node.IsCompleted {
				completed++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return 100 * completed / total
}

// NodeState returns the state of the node, and false for unknown nodes.
func (d Document) NodeState(category, nodeID string) (NodeState, bool) {
	node, ok := d.Node(category, nodeID)
	if !ok {
		return "", false
	}
	return node.State(), true
}

// relock recomputes every lock flag from the completion flags: a node is
// unlocked if it is first, completed, or its predecessor is completed.
func (d Document) relock() {
	for _, category := range d.Categories {
		nodes := category.Nodes
		for i := range nodes {
			nodes[i].IsLocked = !(i == 0 || nodes[i].IsCompleted || nodes[i-1].IsCompleted)
		}
	}
}
