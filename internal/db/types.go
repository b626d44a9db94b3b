package db

import "time"

// Personality kinds
const (
	PersonalityAuthor = "author"
	PersonalityBrand  = "brand"
)

// Personality is an author or brand voice profile.
type Personality struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Enabled     bool      `json:"enabled"`
	CreatedAt   time.Time `json:"created_at"`
}

// Setting is one key/value row of the settings table.
type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
