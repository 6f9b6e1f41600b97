package domain

import "time"

// Value is a record served through the cache
type Value struct {
	Key       string
	Data      string
	UpdatedAt time.Time
}
