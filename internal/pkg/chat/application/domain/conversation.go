package chat

import "time"

// Conversation is a persistent thread between a fixed set of participants,
// optionally started from an item listing. The item reference is weak: the
// wider application nulls it when the item is removed, the thread survives.
type Conversation struct {
	ID            string
	ItemID        *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	LastMessageAt *time.Time

	// ParticipantIDs is hydrated by the repository; membership rows live in
	// the participant table, not on this row.
	ParticipantIDs []string
}

// HasParticipant tells whether userID belongs to this conversation.
func (c *Conversation) HasParticipant(userID string) bool {
	if c == nil {
		return false
	}
	for _, id := range c.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// GroupName is the broadcast group address for this conversation.
func (c *Conversation) GroupName() string {
	return GroupName(c.ID)
}

// GroupName derives the broadcast group address from a conversation id.
func GroupName(conversationID string) string {
	return "conversation:" + conversationID
}
