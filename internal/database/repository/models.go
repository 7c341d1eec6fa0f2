package repository

import "time"

// TapeEntry represents a tape_entries row. Result is nil for failed
// evaluations.
type TapeEntry struct {
	ID           string
	SessionID    string
	LeftOperand  string
	Operation    string
	RightOperand string
	Result       *string
	Failed       bool
	Expression   string
	CreatedAt    time.Time
}

// TapeFilter narrows List. A zero Limit means no limit.
type TapeFilter struct {
	SessionID string
	Limit     int
}
