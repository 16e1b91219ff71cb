package session

import (
	"encoding/json"
	"fmt"
)

const sessionFormatVersionCurrent = 1

// Encode serializes s as a format byte followed by its JSON form.
func Encode(s *Session) ([]byte, error) {
	if s == nil {
		return nil, ErrInvalidSession
	}
	body, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(body)+1)
	out = append(out, sessionFormatVersionCurrent)
	return append(out, body...), nil
}

// Decode parses a record produced by [Encode]. The session ID is not part of
// the encoding and must be set by the caller.
func Decode(data []byte) (*Session, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("%w: short record", ErrCorrupt)
	}
	if data[0] != sessionFormatVersionCurrent {
		return nil, fmt.Errorf("%w: unknown format version %d", ErrCorrupt, data[0])
	}

	var s Session
	if err := json.Unmarshal(data[1:], &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return &s, nil
}
