package domain

import "time"

type CaseStatus string

const (
	CaseOpen     CaseStatus = "open"
	CaseReported CaseStatus = "reported"
)

// Case is one technician diagnostic/repair conversation.
type Case struct {
	ID        string
	Title     string
	Unit      string // vehicle / coach description
	Status    CaseStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

type MessageRole string

const (
	RoleTechnician MessageRole = "technician"
	RoleAssistant  MessageRole = "assistant"
	RoleSystem     MessageRole = "system"
)

type Message struct {
	ID        string
	CaseID    string
	Role      MessageRole
	Content   string
	Source    TurnSource // empty for technician messages
	CreatedAt time.Time
}
