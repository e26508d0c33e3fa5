package tasks

import "sort"

// Table maps tasks to their nodes for a single run. It is owned by one
// translator and is not safe for concurrent use.
type Table struct {
	nodes map[Task]*Node
	order []*Node
}

// NewTable creates an empty Table
func NewTable() *Table {
	return &Table{nodes: make(map[Task]*Node)}
}

// Seed registers a task known before the run started. Seeding an existing
// task returns the existing node.
func (t *Table) Seed(task Task) *Node {
	node, _ := t.GetOrCreate(task)
	if !node.dynamic {
		node.seeded = true
	}
	return node
}

// Get returns the node for task, if one exists
func (t *Table) Get(task Task) (*Node, bool) {
	node, ok := t.nodes[task.Key()]
	return node, ok
}

// GetOrCreate returns the node for task, creating it on first reference.
// created is true when the node did not exist yet.
func (t *Table) GetOrCreate(task Task) (node *Node, created bool) {
	key := task.Key()
	if node, ok := t.nodes[key]; ok {
		return node, false
	}
	node = &Node{task: task}
	t.nodes[key] = node
	t.order = append(t.order, node)
	return node, true
}

// MarkDynamic flags a node as created from the event stream rather than seeded
func (t *Table) MarkDynamic(node *Node) {
	if !node.seeded {
		node.dynamic = true
	}
}

// Len returns the number of tracked nodes
func (t *Table) Len() int {
	return len(t.nodes)
}

// Nodes returns every node in creation order
func (t *Table) Nodes() []*Node {
	out := make([]*Node, len(t.order))
	copy(out, t.order)
	return out
}

// OpenDescendants returns every tracked node below task that has not
// finished, deepest first and in creation order within a level, so a child is
// always closed before its parent.
func (t *Table) OpenDescendants(task Task) []*Node {
	var out []*Node
	for _, node := range t.order {
		if node.Finished() || !task.Key().Contains(node.task) {
			continue
		}
		out = append(out, node)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].task.Kind > out[j].task.Kind
	})
	return out
}
