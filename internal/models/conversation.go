package models

// Role identifies who produced a message.
type Role string

const (
	RoleUser   Role = "user"
	RoleAI     Role = "ai"
	RoleSystem Role = "system"
)

type Message struct {
	Role    Role   `json:"role"` // user, ai, or system
	Content string `json:"content"`
}

type Session struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}
