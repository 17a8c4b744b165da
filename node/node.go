package node

import (
	"context"
	"fmt"
	"strings"

	"github.com/chatflowhq/chatflow/container"
	"github.com/chatflowhq/chatflow/model"
	"github.com/chatflowhq/chatflow/util"
)

type NodeType string

const NODE_TYPE_TRIGGER NodeType = "trigger"
const NODE_TYPE_SEND_MESSAGE NodeType = "send_message"
const NODE_TYPE_SEND_TEMPLATE NodeType = "send_template"
const NODE_TYPE_SEND_BUTTON NodeType = "send_button"
const NODE_TYPE_SEND_LIST NodeType = "send_list"
const NODE_TYPE_SEND_MEDIA NodeType = "send_media"
const NODE_TYPE_SEND_CTA NodeType = "send_cta"
const NODE_TYPE_SEND_PRODUCT NodeType = "send_product"
const NODE_TYPE_ASK_QUESTION NodeType = "ask_question"
const NODE_TYPE_WAIT_FOR_REPLY NodeType = "wait_for_reply"
const NODE_TYPE_CONDITION NodeType = "condition"
const NODE_TYPE_AI_AGENT NodeType = "ai_agent"
const NODE_TYPE_HTTP NodeType = "http"
const NODE_TYPE_DELAY NodeType = "delay"
const NODE_TYPE_GOOGLE_SHEETS NodeType = "google_sheets"
const NODE_TYPE_UPDATE_COLUMNS NodeType = "update_columns"
const NODE_TYPE_STOP_CHATBOT NodeType = "stop_chatbot"
const NODE_TYPE_WEBHOOK NodeType = "webhook"
const NODE_TYPE_CATCH_WEBHOOK NodeType = "catch_webhook"

const DEFAULT_EDGE string = "default"
const TRUE_EDGE string = "true"
const FALSE_EDGE string = "false"

// Result is the outcome of one node execution step. An empty NextNodeId
// with a Wait state pauses the session at the current node; Terminal
// completes it.
type Result struct {
	NextNodeId string
	Variables  map[string]any
	Wait       model.SessionState
	Terminal   bool
}

type Node interface {
	GetId() string
	GetType() NodeType
	GetConfig() map[string]any
	GetNext() map[string]string
	Validate() error
	Execute(ctx context.Context, session *model.Session, event *model.InboundEvent) (*Result, error)
}

type baseNode struct {
	id        string
	nodeType  NodeType
	config    map[string]any
	next      map[string]string
	container *container.Container
}

func newBaseNode(def model.NodeDef, nodeType NodeType, container *container.Container) *baseNode {
	config := def.Config
	if config == nil {
		config = map[string]any{}
	}
	return &baseNode{
		id:        def.Id,
		nodeType:  nodeType,
		config:    config,
		next:      def.Next,
		container: container,
	}
}

func (bn *baseNode) GetId() string {
	return bn.id
}

func (bn *baseNode) GetType() NodeType {
	return bn.nodeType
}

func (bn *baseNode) GetConfig() map[string]any {
	return bn.config
}

func (bn *baseNode) GetNext() map[string]string {
	return bn.next
}

func (bn *baseNode) Validate() error {
	return nil
}

func (bn *baseNode) defaultNext() string {
	return bn.next[DEFAULT_EDGE]
}

func (bn *baseNode) edge(name string) string {
	return bn.next[name]
}

// resolveConfig substitutes session variables into the config bag.
func (bn *baseNode) resolveConfig(session *model.Session) map[string]any {
	return util.ResolveParams(session.Variables, bn.config)
}

func (bn *baseNode) configString(key string) string {
	if v, ok := bn.config[key]; ok {
		return fmt.Sprintf("%v", v)
	}
	return ""
}

// UnknownNodeTypeError is a fatal flow-definition error, never retried.
type UnknownNodeTypeError struct {
	NodeId string
	Type   string
}

func (e UnknownNodeTypeError) Error() string {
	return fmt.Sprintf("node %s has unknown type %q", e.NodeId, e.Type)
}

// Build resolves a stored node definition to its handler.
func Build(def model.NodeDef, container *container.Container) (Node, error) {
	nodeType := NodeType(strings.ToLower(def.Type))
	base := newBaseNode(def, nodeType, container)
	switch nodeType {
	case NODE_TYPE_TRIGGER:
		return &triggerNode{baseNode: base}, nil
	case NODE_TYPE_SEND_MESSAGE, NODE_TYPE_SEND_TEMPLATE, NODE_TYPE_SEND_BUTTON,
		NODE_TYPE_SEND_LIST, NODE_TYPE_SEND_MEDIA, NODE_TYPE_SEND_CTA,
		NODE_TYPE_SEND_PRODUCT:
		return &sendNode{baseNode: base}, nil
	case NODE_TYPE_ASK_QUESTION, NODE_TYPE_WAIT_FOR_REPLY:
		return &questionNode{baseNode: base}, nil
	case NODE_TYPE_CONDITION:
		return newConditionNode(base), nil
	case NODE_TYPE_AI_AGENT:
		return &aiNode{baseNode: base}, nil
	case NODE_TYPE_HTTP:
		return &httpNode{baseNode: base}, nil
	case NODE_TYPE_DELAY:
		return &delayNode{baseNode: base}, nil
	case NODE_TYPE_GOOGLE_SHEETS, NODE_TYPE_UPDATE_COLUMNS:
		return &sheetsNode{baseNode: base}, nil
	case NODE_TYPE_STOP_CHATBOT:
		return &stopNode{baseNode: base}, nil
	case NODE_TYPE_WEBHOOK, NODE_TYPE_CATCH_WEBHOOK:
		return &webhookNode{baseNode: base}, nil
	}
	return nil, UnknownNodeTypeError{NodeId: def.Id, Type: def.Type}
}
