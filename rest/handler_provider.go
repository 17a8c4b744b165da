package rest

import (
	"context"
	"io"
	"net/http"

	"github.com/chatflowhq/chatflow/logger"
	"github.com/chatflowhq/chatflow/model"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// HandleProviderVerify answers the chat provider's subscription
// handshake: echo the challenge when mode and token check out, 403
// otherwise. The challenge goes back as plain text, not JSON.
func (s *Server) HandleProviderVerify(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode == "subscribe" && token == s.verifyToken {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(challenge))
		return
	}
	logger.Warn("provider verification rejected", zap.String("mode", mode))
	w.WriteHeader(http.StatusForbidden)
}

// HandleProviderDelivery accepts a provider message envelope. The
// response is always 200 so the provider does not storm us with
// retries; failures are internal session state, not transport errors.
func (s *Server) HandleProviderDelivery(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	defer r.Body.Close()
	if err != nil {
		respondOK(w, map[string]any{"status": "ok"})
		return
	}
	if !gjson.ValidBytes(body) {
		logger.Warn("unparseable provider payload, ignoring")
		respondOK(w, map[string]any{"status": "ok"})
		return
	}

	message := gjson.GetBytes(body, "entry.0.changes.0.value.messages.0")
	if !message.Exists() {
		// delivery receipts, status updates etc. are benign no-ops
		respondOK(w, map[string]any{"status": "ok"})
		return
	}
	address := message.Get("from").String()
	event := &model.InboundEvent{
		Source:  model.SOURCE_PROVIDER,
		Address: address,
		Message: extractMessage(message),
		Method:  r.Method,
		RawBody: string(body),
	}
	if _, err := s.engine.HandleMessage(context.Background(), event); err != nil {
		logger.Error("error handling provider message", zap.String("address", address), zap.Error(err))
	}
	respondOK(w, map[string]any{"status": "ok"})
}

// extractMessage normalizes the provider's typed message content.
// Unknown types degrade to an empty text rather than failing.
func extractMessage(message gjson.Result) *model.InboundMessage {
	msgType := message.Get("type").String()
	text := ""
	switch msgType {
	case "text":
		text = message.Get("text.body").String()
	case "button":
		text = message.Get("button.text").String()
	case "interactive":
		if reply := message.Get("interactive.button_reply"); reply.Exists() {
			text = reply.Get("title").String()
		} else if reply := message.Get("interactive.list_reply"); reply.Exists() {
			text = reply.Get("title").String()
		}
	case "image", "video", "audio", "document", "sticker":
		text = message.Get(msgType + ".caption").String()
	case "location":
		text = message.Get("location.name").String()
	}
	raw, _ := message.Value().(map[string]any)
	return &model.InboundMessage{
		Type: msgType,
		Text: text,
		Raw:  raw,
	}
}
