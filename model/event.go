package model

type SourceKind string

const SOURCE_PROVIDER SourceKind = "provider"
const SOURCE_FLOW_WEBHOOK SourceKind = "flow_webhook"
const SOURCE_GLOBAL_WEBHOOK SourceKind = "global_webhook"

// InboundMessage is the normalized content of one provider message.
// Unknown provider message types degrade to an empty Text with the raw
// payload preserved.
type InboundMessage struct {
	Type string         `json:"type"`
	Text string         `json:"text"`
	Raw  map[string]any `json:"raw,omitempty"`
}

// InboundEvent is the canonical shape every ingress entry point produces
// before the engine sees it.
type InboundEvent struct {
	Source  SourceKind        `json:"source"`
	Address string            `json:"address,omitempty"`
	Message *InboundMessage   `json:"message,omitempty"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers,omitempty"`
	Query   map[string]string `json:"query,omitempty"`
	Body    map[string]any    `json:"body,omitempty"`
	RawBody string            `json:"rawBody,omitempty"`
}
