package node

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/chatflowhq/chatflow/logger"
	"github.com/chatflowhq/chatflow/model"
	"github.com/chatflowhq/chatflow/util"
	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// conditionNode branches on a boolean check against the variable bag:
// either a built-in comparison (left/operator/right) or a javascript
// expression evaluated with the bag bound to $. Any evaluation failure
// deterministically follows the false edge.
type conditionNode struct {
	*baseNode
	vm *goja.Runtime
}

var _ Node = new(conditionNode)

func newConditionNode(base *baseNode) *conditionNode {
	return &conditionNode{
		baseNode: base,
		vm:       goja.New(),
	}
}

func (c *conditionNode) Validate() error {
	if c.configString("expression") == "" && c.configString("operator") == "" {
		return fmt.Errorf("nodeId=%s, condition needs an expression or a comparison", c.id)
	}
	if _, ok := c.next[TRUE_EDGE]; !ok {
		return fmt.Errorf("nodeId=%s, condition should have a true edge", c.id)
	}
	return nil
}

func (c *conditionNode) Execute(ctx context.Context, session *model.Session, event *model.InboundEvent) (*Result, error) {
	outcome, err := c.evaluate(session)
	if err != nil {
		logger.Warn("condition evaluation failed, taking false edge",
			zap.String("node", c.id), zap.Error(err))
		outcome = false
	}
	if outcome {
		return &Result{NextNodeId: c.edge(TRUE_EDGE)}, nil
	}
	return &Result{NextNodeId: c.edge(FALSE_EDGE)}, nil
}

func (c *conditionNode) evaluate(session *model.Session) (bool, error) {
	if expression := c.configString("expression"); expression != "" {
		return c.evaluateScript(session, expression)
	}
	return c.evaluateComparison(session)
}

func (c *conditionNode) evaluateScript(session *model.Session, expression string) (bool, error) {
	data, err := json.Marshal(session.Variables)
	if err != nil {
		return false, err
	}
	script := fmt.Sprintf("var $ = %s;\n(%s)", data, expression)
	value, err := c.vm.RunString(script)
	if err != nil {
		return false, fmt.Errorf("error evaluating expression: %w", err)
	}
	return value.ToBoolean(), nil
}

func (c *conditionNode) evaluateComparison(session *model.Session) (bool, error) {
	left := util.LookupVariable(session.Variables, c.configString("left"))
	if left == nil {
		return false, fmt.Errorf("variable %s not set", c.configString("left"))
	}
	right := c.config["right"]
	operator := c.configString("operator")

	switch operator {
	case "contains":
		return strings.Contains(
			strings.ToLower(fmt.Sprintf("%v", left)),
			strings.ToLower(fmt.Sprintf("%v", right))), nil
	case "==":
		return fmt.Sprintf("%v", left) == fmt.Sprintf("%v", right), nil
	case "!=":
		return fmt.Sprintf("%v", left) != fmt.Sprintf("%v", right), nil
	}

	leftNum, err := toNumber(left)
	if err != nil {
		return false, err
	}
	rightNum, err := toNumber(right)
	if err != nil {
		return false, err
	}
	switch operator {
	case ">":
		return leftNum > rightNum, nil
	case ">=":
		return leftNum >= rightNum, nil
	case "<":
		return leftNum < rightNum, nil
	case "<=":
		return leftNum <= rightNum, nil
	}
	return false, fmt.Errorf("unknown operator %q", operator)
}

func toNumber(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		return strconv.ParseFloat(n, 64)
	}
	return 0, fmt.Errorf("value %v is not a number", v)
}
