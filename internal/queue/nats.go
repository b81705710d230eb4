// ABOUTME: NATS client wrapper for queue subscriptions
// ABOUTME: Handles connection, queue-group subscriptions, replies and graceful shutdown

package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/hikmaai-io/hikmaai-censor/internal/observability"
)

// NATSConfig holds NATS connection configuration.
type NATSConfig struct {
	// NATS server URL.
	URL string `yaml:"url"`

	// Subject to subscribe to for single censor requests.
	Subject string `yaml:"subject"`

	// BatchSubject receives BatchCensorRequest messages. Empty disables it.
	BatchSubject string `yaml:"batch_subject"`

	// Queue group name for load balancing.
	QueueGroup string `yaml:"queue_group"`

	// Connection name for identification.
	Name string `yaml:"name"`

	// Reconnect settings.
	MaxReconnects int           `yaml:"max_reconnects"`
	ReconnectWait time.Duration `yaml:"reconnect_wait"`

	// Request timeout.
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultNATSConfig returns a configuration with sensible defaults.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           "nats://localhost:4222",
		Subject:       "hikmaai.censor.request",
		BatchSubject:  "hikmaai.censor.batch",
		QueueGroup:    "censor-workers",
		Name:          "hikmaai-censor",
		MaxReconnects: -1, // Unlimited.
		ReconnectWait: 2 * time.Second,
		Timeout:       5 * time.Second,
	}
}

// Client wraps the NATS connection and subscriptions.
type Client struct {
	conn    *nats.Conn
	subs    []*nats.Subscription
	handler *Handler
	config  NATSConfig
	logger  *slog.Logger
}

// NewClient creates a new NATS client with the given configuration.
func NewClient(cfg NATSConfig, handler *Handler, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		handler: handler,
		config:  cfg,
		logger:  logger.With(slog.String("component", "nats")),
	}
}

// Connect establishes the NATS connection.
func (c *Client) Connect(ctx context.Context) error {
	opts := []nats.Option{
		nats.Name(c.config.Name),
		nats.MaxReconnects(c.config.MaxReconnects),
		nats.ReconnectWait(c.config.ReconnectWait),
		nats.Timeout(c.config.Timeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			c.logger.Warn("NATS disconnected", slog.Any("error", err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			c.logger.Info("NATS reconnected", slog.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			c.logger.Info("NATS connection closed")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			subject := ""
			if sub != nil {
				subject = sub.Subject
			}
			c.logger.Error("NATS error",
				slog.Any("error", err),
				slog.String("subject", subject),
			)
		}),
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	conn, err := nats.Connect(c.config.URL, opts...)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	c.conn = conn
	c.logger.Info("connected to NATS",
		slog.String("url", conn.ConnectedUrl()),
		slog.String("server_id", conn.ConnectedServerId()),
	)

	return nil
}

// Subscribe starts listening for censor requests.
func (c *Client) Subscribe(ctx context.Context) error {
	if c.conn == nil {
		return fmt.Errorf("not connected to NATS")
	}

	if err := c.subscribe(c.config.Subject, func(msg *nats.Msg) {
		c.reply(msg, c.handleRequest(ctx, msg.Data))
	}); err != nil {
		return err
	}

	if c.config.BatchSubject != "" {
		if err := c.subscribe(c.config.BatchSubject, func(msg *nats.Msg) {
			c.reply(msg, c.handleBatch(ctx, msg.Data))
		}); err != nil {
			return err
		}
	}

	return nil
}

func (c *Client) subscribe(subject string, cb nats.MsgHandler) error {
	sub, err := c.conn.QueueSubscribe(subject, c.config.QueueGroup, cb)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	c.subs = append(c.subs, sub)
	c.logger.Info("subscribed to NATS",
		slog.String("subject", subject),
		slog.String("queue", c.config.QueueGroup),
	)
	return nil
}

// handleRequest decodes a single request and returns the encoded reply.
// Message payloads are never logged because they carry unmasked values.
func (c *Client) handleRequest(ctx context.Context, data []byte) []byte {
	ctx, span := observability.StartSpan(ctx, "nats.handle_request")
	defer span.End()

	var req CensorRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.logger.Error("failed to parse censor request",
			slog.Any("error", err),
			slog.Int("size", len(data)),
		)
		observability.RecordSpanError(span, err)
		return c.encode(errorResponse("", "invalid request format: "+err.Error()))
	}

	resp := c.handler.ProcessRequest(ctx, req)

	c.logger.Info("processed censor request",
		slog.String("request_id", resp.RequestID),
		slog.String("status", resp.Status),
		slog.Int("masked", resp.Masked),
		slog.Int("failed", resp.Failed),
		slog.Float64("duration_ms", resp.DurationMs),
	)

	return c.encode(resp)
}

// handleBatch decodes a batch request and returns the encoded reply.
func (c *Client) handleBatch(ctx context.Context, data []byte) []byte {
	ctx, span := observability.StartSpan(ctx, "nats.handle_batch")
	defer span.End()

	start := time.Now()

	var req BatchCensorRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.logger.Error("failed to parse batch request",
			slog.Any("error", err),
			slog.Int("size", len(data)),
		)
		observability.RecordSpanError(span, err)
		return c.encode(errorResponse("", "invalid request format: "+err.Error()))
	}

	resp := BatchCensorResponse{
		RequestID: req.RequestID,
		Results:   c.handler.ProcessBatch(ctx, req.Requests),
	}
	resp.TotalTimeMs = float64(time.Since(start).Microseconds()) / 1000

	c.logger.Info("processed batch request",
		slog.String("request_id", req.RequestID),
		slog.Int("requests", len(req.Requests)),
		slog.Int("results", len(resp.Results)),
		slog.Float64("duration_ms", resp.TotalTimeMs),
	)

	return c.encode(resp)
}

func errorResponse(requestID, errMsg string) CensorResponse {
	return CensorResponse{
		RequestID:  requestID,
		Status:     StatusError,
		Error:      errMsg,
		CensoredAt: time.Now().UTC(),
	}
}

func (c *Client) encode(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("failed to marshal response", slog.Any("error", err))
		return nil
	}
	return data
}

// reply sends data if the message expects a reply.
func (c *Client) reply(msg *nats.Msg, data []byte) {
	if msg.Reply == "" || data == nil {
		return
	}
	if err := msg.Respond(data); err != nil {
		c.logger.Error("failed to send reply", slog.Any("error", err))
	}
}

// Request sends req to the configured subject and waits for the reply.
func (c *Client) Request(ctx context.Context, req CensorRequest) (*CensorResponse, error) {
	if c.conn == nil {
		return nil, fmt.Errorf("not connected to NATS")
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	if _, ok := ctx.Deadline(); !ok && c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	msg, err := c.conn.RequestWithContext(ctx, c.config.Subject, data)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	var resp CensorResponse
	if err := json.Unmarshal(msg.Data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &resp, nil
}

// Close unsubscribes and closes the NATS connection.
func (c *Client) Close() error {
	for _, sub := range c.subs {
		if err := sub.Unsubscribe(); err != nil {
			c.logger.Warn("failed to unsubscribe", slog.Any("error", err))
		}
	}
	c.subs = nil

	if c.conn != nil {
		c.conn.Close()
	}

	return nil
}

// IsConnected returns true if connected to NATS.
func (c *Client) IsConnected() bool {
	return c.conn != nil && c.conn.IsConnected()
}
