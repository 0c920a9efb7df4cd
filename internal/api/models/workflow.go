package models

type Workflow struct {
	ID        string `gorm:"primaryKey" json:"id"`
	CompanyID string `gorm:"index" json:"companyId"`
	Name      string `json:"name"`
	Active    bool   `json:"active"`
	Nodes     []Node `gorm:"foreignKey:WorkflowID" json:"nodes"`
	Edges     []Edge `gorm:"foreignKey:WorkflowID" json:"edges"`
}

// Edge is the second, redundant dependency source used by non-prompt node
// types. A node's full dependency set is the union of its PromptPart
// dependencies and its incoming edges.
type Edge struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	WorkflowID string `gorm:"index" json:"workflowId"`
	FromNode   string `json:"fromNode"`
	FromPort   string `json:"fromPort"`
	ToNode     string `json:"toNode"`
	ToPort     string `json:"toPort"`
}

// NodeByID returns the node with the given id, or nil.
func (slf Workflow) NodeByID(id string) *Node {
	for i := range slf.Nodes {
		if slf.Nodes[i].ID == id {
			return &slf.Nodes[i]
		}
	}
	return nil
}

// PausedNodeIDs returns the ids of all explicitly paused nodes.
func (slf Workflow) PausedNodeIDs() []string {
	var ids []string
	for _, node := range slf.Nodes {
		if node.Paused {
			ids = append(ids, node.ID)
		}
	}
	return ids
}
