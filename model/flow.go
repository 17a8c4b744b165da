package model

import "time"

type FlowStatus string

const FLOW_STATUS_DRAFT FlowStatus = "draft"
const FLOW_STATUS_ACTIVE FlowStatus = "active"
const FLOW_STATUS_PAUSED FlowStatus = "paused"
const FLOW_STATUS_ARCHIVED FlowStatus = "archived"

// Flow is the stored definition of a conversational automation. The node
// graph is immutable for the lifetime of one execution step; edits take
// effect on the next inbound event.
type Flow struct {
	Id        string     `json:"id"`
	Name      string     `json:"name"`
	Owner     string     `json:"owner"`
	Status    FlowStatus `json:"status"`
	Triggers  []string   `json:"triggers"`
	StartNode string     `json:"startNode"`
	Nodes     []NodeDef  `json:"nodes"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// NodeDef is one node of the stored graph. Next maps an edge name to the
// id of the following node. Linear nodes use the "default" edge, condition
// nodes use "true"/"false", button nodes use the reply id.
type NodeDef struct {
	Id     string            `json:"id"`
	Type   string            `json:"type"`
	Config map[string]any    `json:"config"`
	Next   map[string]string `json:"next"`
}

func (f *Flow) Node(id string) (NodeDef, bool) {
	for _, n := range f.Nodes {
		if n.Id == id {
			return n, true
		}
	}
	return NodeDef{}, false
}
