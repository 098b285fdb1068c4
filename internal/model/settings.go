package model

import "time"

// Setting is one calendar option override, stored as its JSON encoding.
type Setting struct {
	Calendar  string    `json:"calendar"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
