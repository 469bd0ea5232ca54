package devicews

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"PulseTrace/internal/domain/models"
	drepo "PulseTrace/internal/domain/repository"

	"github.com/gorilla/websocket"
)

// Client implements a SignalStream backed by an ECG gateway WebSocket.
// The gateway pushes sample frames for a subscribed device.
type Client struct {
	token          string
	websocketURL   string
	deviceID       string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	conn      *websocket.Conn
	connected bool
}

// New creates a new ECG gateway SignalStream.
func New(token, websocketURL, deviceID string, reconnectDelay, pingInterval time.Duration) drepo.SignalStream {
	if reconnectDelay <= 0 {
		reconnectDelay = 5 * time.Second
	}
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &Client{
		token:          token,
		websocketURL:   websocketURL,
		deviceID:       deviceID,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", c.websocketURL, c.token)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("gateway connect: %w", err)
	}
	c.conn = conn
	c.connected = true
	log.Printf("devicews: connected")
	return nil
}

// Subscribe subscribes to the configured device.
func (c *Client) Subscribe(ctx context.Context) error {
	if c.conn == nil || !c.connected {
		return fmt.Errorf("gateway not connected")
	}
	msg := map[string]string{"type": "subscribe", "device": c.deviceID}
	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("subscribe %s: %w", c.deviceID, err)
	}
	log.Printf("devicews: subscribed %s", c.deviceID)
	return nil
}

type wsSample struct {
	T float64 `json:"t"` // seconds since strip start
	V float64 `json:"v"` // millivolts
}

type wsFrame struct {
	Type string     `json:"type"`
	Data []wsSample `json:"data"`
}

// Read streams ECG samples and errors.
func (c *Client) Read(ctx context.Context) (<-chan models.Sample, <-chan error) {
	samples := make(chan models.Sample, 4096)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if c.conn != nil {
					_ = c.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(samples)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if c.conn == nil {
					errs <- fmt.Errorf("gateway conn nil")
					return
				}
				_, b, err := c.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("gateway read: %w", err)
					return
				}
				var f wsFrame
				if err := json.Unmarshal(b, &f); err != nil {
					// ignore non-sample frames
					continue
				}
				if f.Type != "ecg" {
					continue
				}
				for _, d := range f.Data {
					select {
					case samples <- models.Sample{T: d.T, V: d.V}:
					default:
						// drop on backpressure
					}
				}
			}
		}
	}()

	return samples, errs
}

// Reconnect closes and reconnects.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	time.Sleep(c.reconnectDelay)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool { return c.connected }
