package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"
)

// GenesisHash is the previous-hash value of the first record in a
// chain scope.
var GenesisHash = strings.Repeat("0", 64)

// hashPayload is the canonical form hashed into CurrentHash. Fields
// are declared in alphabetical tag order so encoding/json emits a
// key-sorted document; changing this layout invalidates every stored
// chain.
type hashPayload struct {
	ActorID        string `json:"actor_id"`
	Description    string `json:"description"`
	EventType      string `json:"event_type"`
	OrganizationID string `json:"organization_id"`
	Outcome        string `json:"outcome"`
	TargetID       string `json:"target_id"`
	Timestamp      string `json:"timestamp"`
}

// ComputeHash returns the hex SHA-256 of the record's canonical
// payload. PreviousHash is deliberately excluded: the link is verified
// structurally, which lets the hash be computed before the chain tail
// is known.
func ComputeHash(r Record) string {
	payload := hashPayload{
		ActorID:        r.ActorID,
		Description:    r.Description,
		EventType:      r.EventType,
		OrganizationID: r.OrganizationID,
		Outcome:        r.Outcome.String(),
		TargetID:       r.TargetID,
		Timestamp:      r.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	b, err := json.Marshal(payload)
	if err != nil {
		// A struct of strings cannot fail to marshal.
		panic(err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
