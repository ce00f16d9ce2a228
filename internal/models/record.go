package models

import "time"

// Sender identifies who produced a conversation record.
type Sender string

const (
	SenderUser Sender = "USER"
	SenderAI   Sender = "AI"
)

// Level is the scam verdict reported by the classifier.
type Level string

const (
	LevelSafe             Level = "SAFE"
	LevelPotentialScam    Level = "POTENTIAL_SCAM"
	LevelHighlyLikelyScam Level = "HIGHLY_LIKELY_SCAM"
	LevelUnknown          Level = "UNKNOWN"
	LevelError            Level = "ERROR"
)

// ValidModelLevels are the only levels the model itself is allowed to report.
// UNKNOWN and ERROR are synthesized locally.
var ValidModelLevels = map[Level]bool{
	LevelSafe:             true,
	LevelPotentialScam:    true,
	LevelHighlyLikelyScam: true,
}

// Classification is the structured verdict attached to the final AI record of a turn.
type Classification struct {
	Level             Level  `json:"level"`
	ConfidencePercent int    `json:"confidence_percent"`
	IsScam            bool   `json:"is_scam"`
	Explanation       string `json:"explanation"`
}

// Identity is the opaque per-user key scoping one conversation log.
type Identity struct {
	ID string `json:"id"`
}

// Record is one persisted conversational entry. Records are immutable once
// appended; the placeholder AI record and the final AI record of a turn are
// two distinct records, never one mutated record.
//
// CreatedAt is assigned by the log on append and may be nil for a record whose
// server timestamp has not resolved yet ("pending").
type Record struct {
	ID             string          `json:"id"`
	IdentityID     string          `json:"identity_id"`
	Text           string          `json:"text"`
	Sender         Sender          `json:"sender"`
	CreatedAt      *time.Time      `json:"created_at,omitempty"`
	Classification *Classification `json:"classification,omitempty"`
}

// RecordDraft is what callers hand to the log: everything except the fields
// the log assigns (id, timestamp).
type RecordDraft struct {
	Text           string
	Sender         Sender
	Classification *Classification
}

// SubmitRequest is the body of a turn submission.
type SubmitRequest struct {
	Text string `json:"text" binding:"required"`
}
