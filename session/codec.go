package session

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// sessionPayload is the stored form of a session. The id travels in its own
// database column, so the payload carries only the rest.
type sessionPayload struct {
	Subject string
	Trials  []Trial
}

// Encode serializes a session body for storage.
func Encode(s Session) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(sessionPayload{Subject: s.Subject, Trials: s.Trials}); err != nil {
		return nil, fmt.Errorf("encode session %v: %w", s.ID, err)
	}
	return buf.Bytes(), nil
}

// Decode deserializes a session body stored under id.
func Decode(id string, payload []byte) (Session, error) {
	var p sessionPayload
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&p); err != nil {
		return Session{}, fmt.Errorf("decode session %v: %w", id, err)
	}
	return Session{ID: id, Subject: p.Subject, Trials: p.Trials}, nil
}
