package domain

import "encoding/json"

// MarshalJSON encodes the message in its stored form (epoch-ms timestamp).
func (m Message) MarshalJSON() ([]byte, error) {
	rec := messageRecord{
		ID:          string(m.ID),
		Role:        string(m.Role),
		Content:     m.Content,
		Translation: m.Translation,
		Timestamp:   Millis(m.Timestamp),
	}
	if m.Style != nil {
		s := string(*m.Style)
		rec.Style = &s
	}
	return json.Marshal(rec)
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var rec messageRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}

	*m = Message{
		ID:          MessageID(rec.ID),
		Role:        Role(rec.Role),
		Content:     rec.Content,
		Translation: rec.Translation,
		Timestamp:   FromMillis(rec.Timestamp),
	}
	if rec.Style != nil {
		s := Style(*rec.Style)
		m.Style = &s
	}
	return nil
}

// MarshalJSON encodes the session in its stored form.
func (s Session) MarshalJSON() ([]byte, error) {
	return json.Marshal(sessionRecord{
		ID:            string(s.ID),
		Title:         s.Title,
		LastTimestamp: Millis(s.LastActivity),
	})
}

func (s *Session) UnmarshalJSON(data []byte) error {
	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}

	*s = Session{
		ID:           SessionID(rec.ID),
		Title:        rec.Title,
		LastActivity: FromMillis(rec.LastTimestamp),
	}
	return nil
}
