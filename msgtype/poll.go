package msgtype

import (
	"encoding/json"

	"github.com/poiesic/chatvault/core"
)

// PollHandler handles poll messages. Poll content is a JSON document
// with a question and voted options; anything unparseable yields an
// empty payload.
type PollHandler struct{}

var _ Handler = (*PollHandler)(nil)

type pollContent struct {
	Question string `json:"question"`
	Options  []struct {
		Text  string `json:"text"`
		Votes int    `json:"votes"`
	} `json:"options"`
}

func (h *PollHandler) Type() core.MessageType {
	return core.MessageTypePoll
}

func (h *PollHandler) CanHandle(rawType string) bool {
	return rawType == "poll"
}

func (h *PollHandler) Extract(msg *core.RawMessage) map[string]any {
	var poll pollContent
	if err := json.Unmarshal([]byte(msg.Content), &poll); err != nil {
		return map[string]any{}
	}

	options := make([]map[string]any, len(poll.Options))
	totalVotes := 0
	for i, opt := range poll.Options {
		options[i] = map[string]any{
			"text":  opt.Text,
			"votes": opt.Votes,
		}
		totalVotes += opt.Votes
	}

	payload := map[string]any{}
	if poll.Question != "" {
		payload["question"] = poll.Question
	}
	if len(options) > 0 {
		payload["options"] = options
		payload["total_votes"] = totalVotes
	}
	return payload
}
