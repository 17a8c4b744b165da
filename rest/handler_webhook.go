package rest

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chatflowhq/chatflow/flow"
	"github.com/chatflowhq/chatflow/logger"
	"github.com/chatflowhq/chatflow/metadata"
	"github.com/chatflowhq/chatflow/model"
	"github.com/chatflowhq/chatflow/node"
	"github.com/chatflowhq/chatflow/persistence"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// HandleFlowWebhook serves the per-flow webhook node entry. The path
// carries the flow (id first, slug second) and the node id; resolution
// failure is a diagnostic 404, never a silent fallback.
func (s *Server) HandleFlowWebhook(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	flowRef := vars["flow"]
	nodeId := vars["node"]
	start := time.Now()

	fl, err := s.metadata.ResolveFlow(flowRef)
	if err != nil {
		if _, ok := err.(persistence.FlowNotFoundError); ok {
			respondWithError(w, http.StatusNotFound, "flow not found: "+flowRef)
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	target, ok := fl.Nodes[nodeId]
	if !ok {
		nodeIds := make([]string, 0, len(fl.Nodes))
		for id := range fl.Nodes {
			nodeIds = append(nodeIds, id)
		}
		respondWithJSON(w, http.StatusNotFound, map[string]any{
			"error":          "node not found",
			"path":           r.URL.Path,
			"availableNodes": nodeIds,
		})
		return
	}
	s.acceptWebhook(w, r, model.SOURCE_FLOW_WEBHOOK, fl, target, start)
}

// HandleGlobalWebhook serves the webhook-by-id entry: a linear scan of
// all active flows' node graphs, first match wins.
func (s *Server) HandleGlobalWebhook(w http.ResponseWriter, r *http.Request) {
	webhookId := mux.Vars(r)["webhookId"]
	start := time.Now()

	fl, target, err := s.metadata.FindWebhookNode(webhookId)
	if err != nil {
		if _, ok := err.(metadata.WebhookNotFoundError); ok {
			respondWithError(w, http.StatusNotFound, err.Error())
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.acceptWebhook(w, r, model.SOURCE_GLOBAL_WEBHOOK, fl, target, start)
}

// acceptWebhook runs the shared gate sequence (active, method, secret),
// captures the request as a pending execution record, and audits the
// call. Only an accepted call produces a record.
func (s *Server) acceptWebhook(w http.ResponseWriter, r *http.Request,
	source model.SourceKind, fl *flow.Flow, target node.Node, start time.Time) {

	webhookConfig, ok := target.(node.WebhookConfig)
	if !ok {
		respondWithError(w, http.StatusNotFound, "node is not a webhook node")
		return
	}
	if !webhookConfig.Active() {
		s.auditWebhook(source, r, fl.Id, target.GetId(), start, "webhook inactive")
		respondWithError(w, http.StatusForbidden, "webhook is inactive")
		return
	}
	allowed := webhookConfig.Methods()
	if len(allowed) == 0 {
		allowed = defaultMethods(source)
	}
	if !methodAllowed(allowed, r.Method) {
		s.auditWebhook(source, r, fl.Id, target.GetId(), start, "method not allowed")
		respondWithError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if secret := webhookConfig.Secret(); secret != "" {
		if bearerToken(r) != secret {
			s.auditWebhook(source, r, fl.Id, target.GetId(), start, "invalid secret")
			respondWithError(w, http.StatusUnauthorized, "invalid or missing secret")
			return
		}
	}

	rawBody, _ := io.ReadAll(r.Body)
	defer r.Body.Close()
	body, malformed := parseBody(r, rawBody)
	if malformed {
		s.auditWebhook(source, r, fl.Id, target.GetId(), start, "malformed json body")
		respondWithError(w, http.StatusBadRequest, "malformed json body")
		return
	}

	exec := &model.WebhookExecution{
		Id:        uuid.New().String(),
		FlowId:    fl.Id,
		NodeId:    target.GetId(),
		Method:    r.Method,
		Headers:   flattenHeader(r.Header),
		Query:     flattenQuery(r),
		Body:      body,
		RawBody:   string(rawBody),
		Status:    model.WEBHOOK_EXECUTION_PENDING,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := s.storage.SaveWebhookExecution(exec); err != nil {
		logger.Error("error queueing webhook execution", zap.String("flowId", fl.Id), zap.Error(err))
		s.auditWebhook(source, r, fl.Id, target.GetId(), start, err.Error())
		respondWithError(w, http.StatusInternalServerError, "error queueing webhook")
		return
	}
	s.auditWebhook(source, r, fl.Id, target.GetId(), start, "")
	respondOK(w, map[string]any{
		"status":      "queued",
		"executionId": exec.Id,
	})
}

func (s *Server) auditWebhook(source model.SourceKind, r *http.Request,
	flowId string, nodeId string, start time.Time, errMsg string) {
	s.audit.Record(model.AuditLogEntry{
		Source:     source,
		Method:     r.Method,
		FlowId:     flowId,
		NodeId:     nodeId,
		DurationMs: time.Since(start).Milliseconds(),
		Error:      errMsg,
	})
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	return strings.TrimPrefix(auth, "Bearer ")
}

// defaultMethods is the per-entry-kind allow-list applied when a node
// configures none: the webhook-by-id entry accepts GET/POST only, the
// per-flow entry the full set.
func defaultMethods(source model.SourceKind) []string {
	if source == model.SOURCE_GLOBAL_WEBHOOK {
		return []string{http.MethodGet, http.MethodPost}
	}
	return []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}
}

func methodAllowed(allowed []string, method string) bool {
	method = strings.ToUpper(method)
	for _, m := range allowed {
		if m == method {
			return true
		}
	}
	return false
}

// parseBody decodes the captured body bytes by content type: json, form
// and multipart become maps, anything else is captured as opaque text. A
// declared-json body that does not parse is the only hard failure. The
// request body is already drained, so everything parses from rawBody.
func parseBody(r *http.Request, rawBody []byte) (map[string]any, bool) {
	if len(rawBody) == 0 {
		return nil, false
	}
	contentType, params, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch {
	case contentType == "application/json":
		var body map[string]any
		if err := json.Unmarshal(rawBody, &body); err != nil {
			return nil, true
		}
		return body, false
	case contentType == "application/x-www-form-urlencoded":
		values, err := url.ParseQuery(string(rawBody))
		if err != nil {
			return map[string]any{"raw": string(rawBody)}, false
		}
		return valuesToMap(values), false
	case strings.HasPrefix(contentType, "multipart/"):
		boundary := params["boundary"]
		if boundary == "" {
			return map[string]any{"raw": string(rawBody)}, false
		}
		form, err := multipart.NewReader(bytes.NewReader(rawBody), boundary).ReadForm(1 << 20)
		if err != nil {
			return map[string]any{"raw": string(rawBody)}, false
		}
		return valuesToMap(form.Value), false
	}
	return map[string]any{"raw": string(rawBody)}, false
}

func valuesToMap(values map[string][]string) map[string]any {
	body := make(map[string]any, len(values))
	for k, v := range values {
		if len(v) == 1 {
			body[k] = v[0]
		} else {
			body[k] = v
		}
	}
	return body
}

func flattenHeader(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k := range h {
		out[k] = h.Get(k)
	}
	return out
}

func flattenQuery(r *http.Request) map[string]string {
	out := make(map[string]string)
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}
