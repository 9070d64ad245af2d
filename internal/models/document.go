// Package models defines the domain types for Liva.
package models

import "time"

// Document represents a parsed Markdown file in the vault.
type Document struct {
	Path        string         `json:"path"`
	Content     []byte         `json:"-"`
	Body        string         `json:"body"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	Title       string         `json:"title,omitempty"`
	Markers     int            `json:"markers"`
	Checksum    string         `json:"checksum"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// DocumentMetadata is a lightweight representation returned by list operations.
type DocumentMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CustomFunction is a named, persisted lambda source usable from jsFunc
// queries once saved.
type CustomFunction struct {
	Name string `json:"name" yaml:"name"`
	Code string `json:"code" yaml:"code"`
}
