package workers

import (
	"crypto/sha256"
	"encoding/hex"
)

const (
	roomCreatedTopic = "room.created"
	roomUpdatedTopic = "room.updated"
	participantTopic = "room.participant_changed"
	defaultRoomCG    = "round-engine-room-cg"
)

func hashPayload(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
