package cache

import (
	"encoding/json"
	"fmt"
)

// Entry represents a cached response payload.
type Entry struct {
	// Data is the response body
	Data []byte `json:"data"`

	// ETag is the validator used for conditional requests (If-None-Match).
	// An empty ETag means the entry cannot be revalidated.
	ETag string `json:"etag,omitempty"`
}

// NewEntry creates an entry holding a private copy of data.
func NewEntry(data []byte, etag string) *Entry {
	return (&Entry{Data: data, ETag: etag}).Clone()
}

// HasValidator reports whether the entry carries an ETag.
func (e *Entry) HasValidator() bool {
	return e != nil && e.ETag != ""
}

// Clone returns a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	data := make([]byte, len(e.Data))
	copy(data, e.Data)
	return &Entry{Data: data, ETag: e.ETag}
}

// Size returns the payload size in bytes.
func (e *Entry) Size() int {
	if e == nil {
		return 0
	}
	return len(e.Data)
}

func encodeEntry(entry *Entry) ([]byte, error) {
	if entry == nil {
		return nil, fmt.Errorf("%w: entry cannot be nil", ErrEncode)
	}
	b, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return b, nil
}

func decodeEntry(b []byte) (*Entry, error) {
	var entry Entry
	if err := json.Unmarshal(b, &entry); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return &entry, nil
}
