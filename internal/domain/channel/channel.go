// Package channel defines the outbound delivery boundary. Concrete adapters
// (Telegram, WhatsApp, Max) live behind these interfaces.
package channel

import (
	"context"
	"errors"
)

// ErrChannelUnavailable is returned when the tenant's channel connection is
// not in a state that can deliver messages.
var ErrChannelUnavailable = errors.New("channel unavailable")

// SendResult is the adapter's delivery outcome.
type SendResult struct {
	Success           bool   `json:"success"`
	ExternalMessageID string `json:"external_message_id,omitempty"`
	Error             string `json:"error,omitempty"`
}

// Adapter physically delivers one message on one channel.
type Adapter interface {
	// Send delivers text to the recipient. A non-nil error means the
	// delivery attempt itself failed; Result.Success false with Error set
	// means the channel rejected it.
	Send(ctx context.Context, recipientID, text string) (*SendResult, error)

	// Typing shows a typing indicator to the recipient. Best effort.
	Typing(ctx context.Context, recipientID string) error
}

// ConnectionState describes a tenant's channel connection. State is owned per
// tenant and handed out explicitly instead of living in a process-global map.
type ConnectionState struct {
	TenantID  string `json:"tenant_id"`
	Channel   string `json:"channel"`
	Connected bool   `json:"connected"`
	Detail    string `json:"detail,omitempty"`
}

// Registry resolves the adapter for a tenant's channel.
type Registry interface {
	// Adapter returns the adapter for the tenant/channel pair, or
	// ErrChannelUnavailable when it is not connected.
	Adapter(ctx context.Context, tenantID, channelName string) (Adapter, error)

	// State reports the tenant's connection state for the channel.
	State(ctx context.Context, tenantID, channelName string) ConnectionState
}
