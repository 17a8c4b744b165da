package metadata

import (
	"fmt"
	"time"

	"github.com/chatflowhq/chatflow/container"
	"github.com/chatflowhq/chatflow/flow"
	"github.com/chatflowhq/chatflow/logger"
	"github.com/chatflowhq/chatflow/model"
	"github.com/chatflowhq/chatflow/node"
	"github.com/chatflowhq/chatflow/persistence"
	"github.com/chatflowhq/chatflow/util"
	c "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// NodeNotFoundError is a lookup failure, never retried.
type NodeNotFoundError struct {
	FlowId string
	NodeId string
}

func (e NodeNotFoundError) Error() string {
	return fmt.Sprintf("node %s not found in flow %s", e.NodeId, e.FlowId)
}

// WebhookNotFoundError means no active flow carries the webhook id.
type WebhookNotFoundError struct {
	WebhookId string
}

func (e WebhookNotFoundError) Error() string {
	return fmt.Sprintf("no active flow with webhook id %s", e.WebhookId)
}

type MetadataService interface {
	GetFlow(id string) (*flow.Flow, error)
	GetFlowDefinition(id string) (*model.Flow, error)
	ResolveFlow(ref string) (*flow.Flow, error)
	FindWebhookNode(webhookId string) (*flow.Flow, node.Node, error)
	ListFlowDefinitions() ([]model.Flow, error)
	SaveFlow(def model.Flow) error
	DeleteFlow(id string) error
}

type metadataService struct {
	container *container.Container
	cache     *c.Cache
}

// NewMetadataService builds the flow catalog service. Runtime flows are
// cached briefly so node handlers are not rebuilt per inbound event;
// edits take effect on the next cache miss.
func NewMetadataService(container *container.Container) MetadataService {
	return &metadataService{
		container: container,
		cache:     c.New(30*time.Second, 5*time.Minute),
	}
}

func (s *metadataService) GetFlow(id string) (*flow.Flow, error) {
	if cached, found := s.cache.Get(id); found {
		return cached.(*flow.Flow), nil
	}
	def, err := s.container.GetStorage().GetFlow(id)
	if err != nil {
		return nil, err
	}
	fl, err := flow.Convert(def, s.container)
	if err != nil {
		return nil, err
	}
	s.cache.Set(id, fl, c.DefaultExpiration)
	return fl, nil
}

func (s *metadataService) GetFlowDefinition(id string) (*model.Flow, error) {
	return s.container.GetStorage().GetFlow(id)
}

// ResolveFlow accepts either a flow id or the slug of the flow name.
// Exact id match wins over slug match. Duplicate slugs are a data
// integrity condition: the first match is used and the clash is logged.
func (s *metadataService) ResolveFlow(ref string) (*flow.Flow, error) {
	fl, err := s.GetFlow(ref)
	if err == nil {
		return fl, nil
	}
	if _, ok := err.(persistence.FlowNotFoundError); !ok {
		return nil, err
	}
	defs, err := s.container.GetStorage().ListFlows()
	if err != nil {
		return nil, err
	}
	var matched *model.Flow
	for i := range defs {
		if util.Slugify(defs[i].Name) != ref {
			continue
		}
		if matched != nil {
			logger.Warn("duplicate flow slug, keeping first match",
				zap.String("slug", ref),
				zap.String("kept", matched.Id),
				zap.String("ignored", defs[i].Id))
			continue
		}
		matched = &defs[i]
	}
	if matched == nil {
		return nil, persistence.FlowNotFoundError{Ref: ref}
	}
	return s.GetFlow(matched.Id)
}

// FindWebhookNode scans all active flows for a webhook node carrying the
// id. Linear in flows times nodes; first match wins, duplicates are
// logged as an integrity condition.
func (s *metadataService) FindWebhookNode(webhookId string) (*flow.Flow, node.Node, error) {
	defs, err := s.container.GetStorage().ListFlows()
	if err != nil {
		return nil, nil, err
	}
	var matchedFlow *flow.Flow
	var matchedNode node.Node
	for i := range defs {
		if defs[i].Status != model.FLOW_STATUS_ACTIVE {
			continue
		}
		fl, err := s.GetFlow(defs[i].Id)
		if err != nil {
			return nil, nil, err
		}
		for _, n := range fl.Nodes {
			wh, ok := n.(node.WebhookConfig)
			if !ok || wh.WebhookId() != webhookId {
				continue
			}
			if matchedNode != nil {
				logger.Warn("duplicate webhook id, keeping first match",
					zap.String("webhookId", webhookId),
					zap.String("kept", matchedFlow.Id),
					zap.String("ignored", fl.Id))
				continue
			}
			matchedFlow = fl
			matchedNode = n
		}
	}
	if matchedNode == nil {
		return nil, nil, WebhookNotFoundError{WebhookId: webhookId}
	}
	return matchedFlow, matchedNode, nil
}

func (s *metadataService) ListFlowDefinitions() ([]model.Flow, error) {
	return s.container.GetStorage().ListFlows()
}

func (s *metadataService) SaveFlow(def model.Flow) error {
	if err := flow.Validate(def, s.container); err != nil {
		return err
	}
	if err := s.container.GetStorage().SaveFlow(def); err != nil {
		return err
	}
	s.cache.Delete(def.Id)
	return nil
}

func (s *metadataService) DeleteFlow(id string) error {
	if err := s.container.GetStorage().DeleteFlow(id); err != nil {
		return err
	}
	s.cache.Delete(id)
	return nil
}
