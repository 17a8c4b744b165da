package node

import (
	"context"
	"fmt"

	"github.com/chatflowhq/chatflow/integration"
	"github.com/chatflowhq/chatflow/model"
	"github.com/spf13/cast"
)

// sheetsNode reads or updates rows through the structured-data
// collaborator. A row not being found is recorded as a variable, not a
// failure.
type sheetsNode struct {
	*baseNode
}

var _ Node = new(sheetsNode)

func (s *sheetsNode) Validate() error {
	if s.configString("sheet") == "" {
		return fmt.Errorf("nodeId=%s, sheet name is required", s.id)
	}
	return nil
}

func (s *sheetsNode) Execute(ctx context.Context, session *model.Session, event *model.InboundEvent) (*Result, error) {
	config := s.resolveConfig(session)
	sheet := cast.ToString(config["sheet"])
	filter := integration.RowFilter{}
	if fm, ok := config["filter"].(map[string]any); ok {
		for k, v := range fm {
			filter[k] = v
		}
	}

	if s.nodeType == NODE_TYPE_UPDATE_COLUMNS {
		updates, _ := config["columns"].(map[string]any)
		count, err := s.container.GetSheetStore().UpdateRows(ctx, sheet, filter, updates)
		if err != nil {
			return nil, err
		}
		return &Result{
			NextNodeId: s.defaultNext(),
			Variables: map[string]any{
				"sheets.updated": count,
				"sheets.found":   count > 0,
			},
		}, nil
	}

	rows, err := s.container.GetSheetStore().ReadRows(ctx, sheet, filter)
	if err != nil {
		return nil, err
	}
	variable := s.configString("variable")
	if variable == "" {
		variable = "sheets.row"
	}
	updates := map[string]any{"sheets.found": len(rows) > 0}
	if len(rows) > 0 {
		updates[variable] = rows[0]
	}
	return &Result{NextNodeId: s.defaultNext(), Variables: updates}, nil
}
