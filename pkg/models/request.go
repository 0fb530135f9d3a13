package models

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is an inbound query from the app layer. Immutable once constructed.
type Request struct {
	UserID            string        `json:"user_id"`
	ConversationID    string        `json:"conversation_id"`
	Message           string        `json:"message"`
	ChatType          string        `json:"chat_type,omitempty"`
	IncludeContext    bool          `json:"include_context,omitempty"`
	PreferredProvider string        `json:"preferred_provider,omitempty"`
	PreferredModel    string        `json:"preferred_model,omitempty"`
	History           []ChatMessage `json:"history,omitempty"`
}
