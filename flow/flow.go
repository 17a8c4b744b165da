package flow

import (
	"fmt"

	"github.com/chatflowhq/chatflow/container"
	"github.com/chatflowhq/chatflow/model"
	"github.com/chatflowhq/chatflow/node"
	"github.com/chatflowhq/chatflow/util"
)

// Flow is the runtime form of a stored definition: every node resolved
// to its handler.
type Flow struct {
	Id        string
	Name      string
	Status    model.FlowStatus
	Triggers  []string
	StartNode string
	Nodes     map[string]node.Node
}

func (f *Flow) Slug() string {
	return util.Slugify(f.Name)
}

// Convert resolves a stored definition into a runtime flow. An unknown
// node type tag is a fatal definition error.
func Convert(def *model.Flow, container *container.Container) (*Flow, error) {
	nodes := make(map[string]node.Node, len(def.Nodes))
	for _, nodeDef := range def.Nodes {
		n, err := node.Build(nodeDef, container)
		if err != nil {
			return nil, err
		}
		nodes[nodeDef.Id] = n
	}
	return &Flow{
		Id:        def.Id,
		Name:      def.Name,
		Status:    def.Status,
		Triggers:  def.Triggers,
		StartNode: def.StartNode,
		Nodes:     nodes,
	}, nil
}

// Validate checks a definition before it is saved: unique node ids, a
// resolvable start node, every edge pointing at an existing node, and
// per-node configuration rules.
func Validate(def model.Flow, container *container.Container) error {
	validNodeIds := make(map[string]any)
	for _, nodeDef := range def.Nodes {
		if _, ok := validNodeIds[nodeDef.Id]; ok {
			return fmt.Errorf("node id %s is duplicate", nodeDef.Id)
		}
		validNodeIds[nodeDef.Id] = ""
	}
	if _, ok := validNodeIds[def.StartNode]; !ok {
		return fmt.Errorf("no node with start node id %s in flow", def.StartNode)
	}
	for _, nodeDef := range def.Nodes {
		for edge, target := range nodeDef.Next {
			if _, ok := validNodeIds[target]; !ok {
				return fmt.Errorf("node %s edge %q points at unknown node %s", nodeDef.Id, edge, target)
			}
		}
	}
	fl, err := Convert(&def, container)
	if err != nil {
		return err
	}
	for _, n := range fl.Nodes {
		if err := n.Validate(); err != nil {
			return err
		}
	}
	return nil
}
