package engine

import (
	"fmt"
	"strings"
)

// CycleError reports a dependency cycle found while ordering nodes.
type CycleError struct {
	Nodes []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Nodes, " -> "))
}

type visitMark int

const (
	markUnvisited visitMark = iota
	markInProgress
	markDone
)

// TopoSort orders a node subset so every node follows all of its local
// dependencies within the subset. DFS postorder; revisiting an in-progress
// node raises a CycleError naming the offending path.
func TopoSort(g *Graph, subset []string) ([]string, error) {
	inSubset := make(map[string]bool, len(subset))
	for _, id := range subset {
		inSubset[id] = true
	}

	marks := make(map[string]visitMark, len(subset))
	order := make([]string, 0, len(subset))
	var stack []string

	var visit func(id string) error
	visit = func(id string) error {
		switch marks[id] {
		case markDone:
			return nil
		case markInProgress:
			// Trim the stack to the cycle itself.
			for i, onStack := range stack {
				if onStack == id {
					cycle := append([]string{}, stack[i:]...)
					return &CycleError{Nodes: append(cycle, id)}
				}
			}
			return &CycleError{Nodes: []string{id}}
		}

		marks[id] = markInProgress
		stack = append(stack, id)

		for _, ref := range g.DependenciesOf(id) {
			if !ref.Local() || !inSubset[ref.NodeID] {
				continue
			}
			if err := visit(ref.NodeID); err != nil {
				return err
			}
		}

		stack = stack[:len(stack)-1]
		marks[id] = markDone
		order = append(order, id)
		return nil
	}

	for _, id := range subset {
		if err := visit(id); err != nil {
			return nil, err
		}
	}

	return order, nil
}
