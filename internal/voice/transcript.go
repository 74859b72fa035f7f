package voice

import (
	"strings"

	"github.com/google/uuid"

	"github.com/civicai/portal/domain/entities"
)

// liveIDPrefix marks messages assembled from streaming transcript fragments
const liveIDPrefix = "live-"

// TranscriptAssembler coalesces the incremental transcript fragments of one
// assistant utterance into a single growing message.
type TranscriptAssembler struct {
	current *entities.Message
}

// Append merges a fragment into the current live message, or starts a new
// one when the previous message does not carry the live id prefix.
func (t *TranscriptAssembler) Append(fragment string) entities.Message {
	if t.current == nil || !strings.HasPrefix(t.current.ID, liveIDPrefix) {
		msg := entities.NewMessage(entities.MessageRoleAssistant, fragment)
		msg.ID = liveIDPrefix + uuid.New().String()
		t.current = &msg
	} else {
		t.current.Content += fragment
	}
	return *t.current
}

// Break ends the current utterance; the next fragment starts a new message
func (t *TranscriptAssembler) Break() {
	t.current = nil
}
