// Package channel holds the HTTP gateway adapter for outbound delivery.
// Messenger connections (Telegram, WhatsApp, Max) terminate in a separate
// gateway service; this client speaks to it per tenant.
package channel

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"replygate/internal/domain/channel"
	"replygate/internal/domain/retry"
)

// GatewayRegistry implements channel.Registry against the channel gateway
// service. Connection state lives in the gateway; the registry asks for it
// instead of caching, so a reconnect is visible on the next send.
type GatewayRegistry struct {
	httpClient *resty.Client
	log        zerolog.Logger
}

// NewGatewayRegistry constructs the registry client.
func NewGatewayRegistry(baseURL string, timeout time.Duration, log zerolog.Logger) *GatewayRegistry {
	return &GatewayRegistry{
		httpClient: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Content-Type", "application/json").
			SetTimeout(timeout),
		log: log.With().Str("component", "channel-gateway").Logger(),
	}
}

type connectionResponse struct {
	Connected bool   `json:"connected"`
	Detail    string `json:"detail,omitempty"`
}

// State reports the tenant's connection state for the channel. Gateway errors
// read as disconnected.
func (r *GatewayRegistry) State(ctx context.Context, tenantID, channelName string) channel.ConnectionState {
	state := channel.ConnectionState{TenantID: tenantID, Channel: channelName}

	var conn connectionResponse
	resp, err := r.httpClient.R().
		SetContext(ctx).
		SetResult(&conn).
		Get(fmt.Sprintf("/v1/tenants/%s/channels/%s/connection", tenantID, channelName))
	if err != nil {
		state.Detail = err.Error()
		return state
	}
	if resp.IsError() {
		state.Detail = fmt.Sprintf("gateway error: %s", resp.Status())
		return state
	}

	state.Connected = conn.Connected
	state.Detail = conn.Detail
	return state
}

// Adapter returns a send adapter bound to the tenant/channel pair, or
// channel.ErrChannelUnavailable when the gateway reports it disconnected.
func (r *GatewayRegistry) Adapter(ctx context.Context, tenantID, channelName string) (channel.Adapter, error) {
	state := r.State(ctx, tenantID, channelName)
	if !state.Connected {
		r.log.Warn().
			Str("tenant_id", tenantID).
			Str("channel", channelName).
			Str("detail", state.Detail).
			Msg("channel not connected")
		return nil, channel.ErrChannelUnavailable
	}

	return &gatewayAdapter{
		httpClient: r.httpClient,
		tenantID:   tenantID,
		channel:    channelName,
		retries:    retry.NewExecutor(retry.GatewayPolicy()),
	}, nil
}

// gatewayAdapter delivers one tenant's messages through the gateway.
type gatewayAdapter struct {
	httpClient *resty.Client
	tenantID   string
	channel    string
	retries    *retry.Executor
}

type sendRequest struct {
	RecipientID string `json:"recipient_id"`
	Text        string `json:"text"`
}

// Send posts the message to the gateway and returns the delivery outcome.
// Transport errors are retried with backoff; a gateway rejection is final.
func (a *gatewayAdapter) Send(ctx context.Context, recipientID, text string) (*channel.SendResult, error) {
	var result channel.SendResult
	var rejected *channel.SendResult

	err := a.retries.Execute(ctx, func(ctx context.Context, attempt int) error {
		resp, err := a.httpClient.R().
			SetContext(ctx).
			SetBody(sendRequest{RecipientID: recipientID, Text: text}).
			SetResult(&result).
			Post(fmt.Sprintf("/v1/tenants/%s/channels/%s/messages", a.tenantID, a.channel))
		if err != nil {
			return fmt.Errorf("gateway send: %w", err)
		}
		if resp.IsError() {
			rejected = &channel.SendResult{Success: false, Error: resp.String()}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if rejected != nil {
		return rejected, nil
	}
	return &result, nil
}

// Typing shows a typing indicator. Failures are the caller's to ignore.
func (a *gatewayAdapter) Typing(ctx context.Context, recipientID string) error {
	resp, err := a.httpClient.R().
		SetContext(ctx).
		SetBody(sendRequest{RecipientID: recipientID}).
		Post(fmt.Sprintf("/v1/tenants/%s/channels/%s/typing", a.tenantID, a.channel))
	if err != nil {
		return fmt.Errorf("gateway typing: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("gateway typing: %s", resp.Status())
	}
	return nil
}

var _ channel.Registry = (*GatewayRegistry)(nil)
var _ channel.Adapter = (*gatewayAdapter)(nil)
