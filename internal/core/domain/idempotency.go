package domain

import (
	"time"
)

// IdempotencyRecord stores the response of a completed mutating request so
// that a retry carrying the same Idempotency-Key can be answered without
// executing the handler again. Keys are matched exactly and are
// case-sensitive.
type IdempotencyRecord struct {
	Key           string    `json:"key"`
	RequestMethod string    `json:"request_method"`
	RequestPath   string    `json:"request_path"`
	StatusCode    int       `json:"status_code"`
	ContentType   string    `json:"content_type"`
	ResponseBody  []byte    `json:"response_body"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// IsExpired returns true once the record has passed its retention window.
// An expired record is treated as a miss on read.
func (r *IdempotencyRecord) IsExpired() bool {
	return time.Now().After(r.ExpiresAt)
}
