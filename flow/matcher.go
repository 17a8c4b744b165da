package flow

import (
	"strings"

	"github.com/chatflowhq/chatflow/model"
	"github.com/chatflowhq/chatflow/util"
)

// Match selects the flow a new session should start on: the first
// candidate, in caller-supplied order, with status active and at least
// one trigger keyword contained in the normalized message text. Returns
// nil when nothing matches; that is not an error.
func Match(candidates []model.Flow, messageText string) *model.Flow {
	normalized := util.NormalizeText(messageText)
	if normalized == "" {
		return nil
	}
	for i := range candidates {
		candidate := &candidates[i]
		if candidate.Status != model.FLOW_STATUS_ACTIVE {
			continue
		}
		for _, trigger := range candidate.Triggers {
			keyword := util.NormalizeText(trigger)
			if keyword == "" {
				continue
			}
			if strings.Contains(normalized, keyword) {
				return candidate
			}
		}
	}
	return nil
}
