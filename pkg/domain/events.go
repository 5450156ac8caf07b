package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeEnter EventType = "node_enter"
	EventNodeLeave EventType = "node_leave"
	EventLLMCall   EventType = "llm_call"
	EventLLMReturn EventType = "llm_return"
)

// NodeEvent represents entry to or exit from a node during traversal.
type NodeEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
	NodeID    string    `json:"node_id"`
	NodeKind  string    `json:"node_kind"`
	Step      int       `json:"step"`
}

// LLMEvent represents a model invocation made by an agent or judge node.
type LLMEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
	NodeID    string    `json:"node_id"`
	Model     string    `json:"model,omitempty"`
	IsError   bool      `json:"is_error,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
// All hooks are optional; nil entries are skipped.
type LifecycleHooks struct {
	OnNodeEnter func(context.Context, *NodeEvent)
	OnNodeLeave func(context.Context, *NodeEvent)
	OnLLMCall   func(context.Context, *LLMEvent)
	OnLLMReturn func(context.Context, *LLMEvent)
}
