package calculator

import (
	"time"

	"calcpad/internal/database/repository"
	"calcpad/internal/engine"
)

// CalcRequest is the JSON body for binary operations (add, subtract, multiply, divide).
// Operands are decimal strings so that values survive JSON exactly.
type CalcRequest struct {
	A string `json:"a"`
	B string `json:"b"`
}

// CalcResponse is the JSON response for binary operations.
type CalcResponse struct {
	Operation  string `json:"operation"`
	A          string `json:"a"`
	B          string `json:"b"`
	Result     string `json:"result"`
	Expression string `json:"expression"`
}

// ActionsRequest is the JSON body for POST /calculator/evaluate and
// POST /calculator/sessions/{id}/actions.
type ActionsRequest struct {
	Actions []string `json:"actions"` // e.g. ["6", "×", "7", "="]
}

// StateResponse mirrors what a keypad would render.
type StateResponse struct {
	ID           string   `json:"id,omitempty"`
	Display      string   `json:"display"`
	History      []string `json:"history"`
	ShowAllClear bool     `json:"show_all_clear"`
	ClearLabel   string   `json:"clear_label"`
	Highlighted  string   `json:"highlighted,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// StepResult records the display after one applied action.
type StepResult struct {
	Action     string `json:"action"`
	Display    string `json:"display"`
	Expression string `json:"expression,omitempty"` // set when the action evaluated
}

// EvaluateResponse is the JSON response for POST /calculator/evaluate.
type EvaluateResponse struct {
	Steps []StepResult  `json:"steps"`
	State StateResponse `json:"state"`
}

// TapeEntryResponse is one persisted evaluation.
type TapeEntryResponse struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Operation  string    `json:"operation"`
	Left       string    `json:"left"`
	Right      string    `json:"right"`
	Result     *string   `json:"result"`
	Failed     bool      `json:"failed"`
	Expression string    `json:"expression"`
	CreatedAt  time.Time `json:"created_at"`
}

// TapeResponse is the JSON response for GET /calculator/tape.
type TapeResponse struct {
	Total   int                 `json:"total"`
	Entries []TapeEntryResponse `json:"entries"`
}

func stateFrom(id string, snap engine.Snapshot) StateResponse {
	st := StateResponse{
		ID:           id,
		Display:      snap.Display,
		History:      snap.History,
		ShowAllClear: snap.ShowAllClear,
		ClearLabel:   snap.ClearLabel(),
	}
	if st.History == nil {
		st.History = []string{}
	}
	if snap.Highlighted.Valid() {
		st.Highlighted = snap.Highlighted.Name()
	}
	if snap.Err != nil {
		st.Error = snap.Err.Error()
	}
	return st
}

func tapeEntryFrom(e repository.TapeEntry) TapeEntryResponse {
	return TapeEntryResponse{
		ID:         e.ID,
		SessionID:  e.SessionID,
		Operation:  e.Operation,
		Left:       e.LeftOperand,
		Right:      e.RightOperand,
		Result:     e.Result,
		Failed:     e.Failed,
		Expression: e.Expression,
		CreatedAt:  e.CreatedAt,
	}
}
