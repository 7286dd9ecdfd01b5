package domain

import "time"

// Role identifies which side of the conversation a message belongs to.
// Immutable after creation.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// MessageStatus tracks a message through its lifecycle.
// User messages are ready immediately; assistant messages start pending
// and end ready or failed.
type MessageStatus string

const (
	StatusPending MessageStatus = "pending"
	StatusReady   MessageStatus = "ready"
	StatusFailed  MessageStatus = "failed"
)

// Action is a tag for an affordance the client can offer on a completed message.
type Action string

const (
	ActionRegenerate Action = "regenerate"
	ActionDownload   Action = "download"
	ActionSavePrompt Action = "save_prompt"
	ActionRemix      Action = "remix"
	ActionRetry      Action = "retry"
)

// DefaultRating is the neutral rating assigned to every new message.
const DefaultRating = 3

// Artifact is one generated image plus the seed that produced it.
type Artifact struct {
	// Locator is a URL the client can render directly: either a data URI or
	// a public URL after upload to the object store.
	Locator string `json:"image"`
	Seed    int64  `json:"seed"`
	// ID is assigned by the upstream API and is only present when the
	// rating/feedback endpoint is in use.
	ID string `json:"id,omitempty"`
}

// Message is a single conversational turn.
//
// A message is created once and mutated at most a few times
// (pending -> ready|failed). Retry and regenerate never mutate history;
// they append new messages with fresh ids.
type Message struct {
	ID        string        `json:"id"`
	Role      Role          `json:"role"`
	Prompt    string        `json:"prompt"`
	Modifiers string        `json:"modifiers,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	Status    MessageStatus `json:"status"`
	Images    []Artifact    `json:"images"`
	Error     string        `json:"error,omitempty"`
	// Settings is the by-value snapshot taken at creation time; later settings
	// changes do not affect in-flight messages.
	Settings GenerationSettings `json:"settings"`
	Actions  []Action           `json:"actions"`
	Rating   int                `json:"rating"`
}
