// Package models defines the core data structures for shepherd.
//
// It includes the assessment catalog types (questions, answer options,
// profiles) and the prayer/analytics records shared across modules.
package models

import "time"

// Mode selects which question sequence an assessment session runs through.
type Mode string

const (
	// ModeFull runs the complete question catalog.
	ModeFull Mode = "full"
	// ModeQuick runs the short curated subset.
	ModeQuick Mode = "quick"
)

// IsValidMode checks if the given assessment mode is supported.
func IsValidMode(m Mode) bool {
	return m == ModeFull || m == ModeQuick
}

// Option is one selectable answer for a question. Weights maps a trait pole
// (e.g. "E", "N") to the score the answer contributes toward that pole.
type Option struct {
	Text    string         `json:"text"`
	Weights map[string]int `json:"weights"`
}

// Question is a single assessment question with its ordered answer options.
// Questions are loaded once at startup and never mutated.
type Question struct {
	Text    string   `json:"text"`
	Options []Option `json:"options"`
}

// Profile describes one personality type from the catalog.
type Profile struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// TraitPairs lists the opposing trait poles per dimension, in code order.
// The first pole of each pair wins ties.
var TraitPairs = [4][2]string{
	{"E", "I"},
	{"S", "N"},
	{"T", "F"},
	{"J", "P"},
}

// PrayerRecord is the immutable result of a successful prayer extraction,
// handed to the store for persistence.
type PrayerRecord struct {
	ID         string    `json:"id"`
	MessageID  string    `json:"message_id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	ChannelID  string    `json:"channel_id"`
	RawMessage string    `json:"raw_message"`
	Extracted  string    `json:"extracted"`
	PostedAt   time.Time `json:"posted_at"`
	RecordedAt time.Time `json:"recorded_at"`
}

// MessageEvent is a lightweight analytics record of an inbound chat message.
type MessageEvent struct {
	MessageID  string    `json:"message_id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	ChannelID  string    `json:"channel_id"`
	Content    string    `json:"content"`
	PostedAt   time.Time `json:"posted_at"`
}
