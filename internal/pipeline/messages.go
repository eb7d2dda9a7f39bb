package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

type messageFile struct {
	Messages []messageRecord `json:"messages"`
}

type messageRecord struct {
	ID         json.Number `json:"id"`
	SMS        string      `json:"sms"`
	ReceivedAt *time.Time  `json:"received_at"`
}

// LoadMessages reads a batch file of the form
//
//	{"messages": [{"id": 1, "sms": "...", "received_at": "2025-03-01T12:00:00Z"}]}
//
// received_at is optional transport metadata. Messages without an id get
// their position in the file as one.
func LoadMessages(path string) ([]RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadMessages: %w", err)
	}

	var file messageFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("LoadMessages: decoding %s: %w", path, err)
	}

	msgs := make([]RawMessage, 0, len(file.Messages))
	for i, rec := range file.Messages {
		id := rec.ID.String()
		if id == "" {
			id = strconv.Itoa(i)
		}
		msgs = append(msgs, RawMessage{
			ID:         id,
			Text:       rec.SMS,
			ReceivedAt: rec.ReceivedAt,
		})
	}
	return msgs, nil
}
