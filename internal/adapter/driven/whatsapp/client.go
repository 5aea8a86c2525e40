// Package whatsapp implements the MessagingClient port on top of whatsmeow.
package whatsapp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waCompanionReg"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"

	"github.com/ericfisherdev/viewkeeper/internal/domain/model"
	"github.com/ericfisherdev/viewkeeper/internal/domain/port/driven"
)

// eventBuffer absorbs bursts (offline message catch-up) while the consumer
// is busy relaying.
const eventBuffer = 256

// Compile-time interface satisfaction check.
var _ driven.MessagingClient = (*Client)(nil)

// Client wraps a whatsmeow client. Library auto-reconnect is disabled,
// including the restart after pairing; the caller decides when to connect
// again after a Closed event.
type Client struct {
	cli    *whatsmeow.Client
	events chan model.Event
	logger *slog.Logger

	mu       sync.Mutex
	qrCancel context.CancelFunc
}

// SetDeviceName sets the name and platform shown in the phone's Linked
// Devices list. It must be called before the first pairing.
func SetDeviceName(name string) {
	store.DeviceProps.Os = proto.String(name)
	store.DeviceProps.PlatformType = platformFor(name).Enum()
}

// platformFor maps a device name such as "Firefox" or "Safari" onto the
// matching companion platform. Unknown names are shown as Chrome.
func platformFor(name string) waCompanionReg.DeviceProps_PlatformType {
	v, ok := waCompanionReg.DeviceProps_PlatformType_value[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return waCompanionReg.DeviceProps_CHROME
	}
	return waCompanionReg.DeviceProps_PlatformType(v)
}

// NewClient creates a Client for device.
func NewClient(device *store.Device, log waLog.Logger, logger *slog.Logger) *Client {
	cli := whatsmeow.NewClient(device, log)
	cli.EnableAutoReconnect = false
	cli.DisableLoginAutoReconnect = true

	c := &Client{
		cli:    cli,
		events: make(chan model.Event, eventBuffer),
		logger: logger,
	}
	cli.AddEventHandler(c.handle)
	return c
}

// Connect starts one connection attempt. An unpaired device gets a fresh
// pairing code stream for this attempt.
func (c *Client) Connect(ctx context.Context) error {
	c.stopQR()

	if c.cli.Store.ID == nil {
		qrCtx, cancel := context.WithCancel(ctx)
		qrChan, err := c.cli.GetQRChannel(qrCtx)
		if err != nil {
			cancel()
			return fmt.Errorf("get pairing channel: %w", err)
		}

		c.mu.Lock()
		c.qrCancel = cancel
		c.mu.Unlock()

		go c.forwardQR(qrChan)
	}

	if err := c.cli.Connect(); err != nil {
		c.stopQR()
		return fmt.Errorf("connect: %w", err)
	}
	return nil
}

// Disconnect closes the socket and stops any pairing code stream.
func (c *Client) Disconnect() {
	c.stopQR()
	c.cli.Disconnect()
}

// Events returns the translated event stream.
func (c *Client) Events() <-chan model.Event {
	return c.events
}

// NewMessageID returns a message id in the format the network expects.
func (c *Client) NewMessageID() string {
	return c.cli.GenerateMessageID()
}

// Relay sends content to target under messageID.
func (c *Client) Relay(ctx context.Context, target, messageID string, content proto.Message) error {
	msg, ok := content.(*waE2E.Message)
	if !ok {
		return fmt.Errorf("unsupported content type %T", content)
	}

	to, err := types.ParseJID(target)
	if err != nil {
		return fmt.Errorf("parse target %q: %w", target, err)
	}

	resp, err := c.cli.SendMessage(ctx, to, msg, whatsmeow.SendRequestExtra{ID: messageID})
	if err != nil {
		return fmt.Errorf("send to %s: %w", to, err)
	}

	c.logger.Debug("message sent", "id", resp.ID, "to", to, "server_time", resp.Timestamp)
	return nil
}

func (c *Client) stopQR() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.qrCancel != nil {
		c.qrCancel()
		c.qrCancel = nil
	}
}

func (c *Client) forwardQR(qrChan <-chan whatsmeow.QRChannelItem) {
	defer func() {
		if v := recover(); v != nil {
			c.logger.Error("panic forwarding pairing codes", "panic", v)
		}
	}()

	for item := range qrChan {
		switch item.Event {
		case whatsmeow.QRChannelEventCode:
			c.emit(model.PairingChallenge{Code: item.Code})
		case whatsmeow.QRChannelSuccess.Event:
			// Connected follows from the main event stream.
		case whatsmeow.QRChannelTimeout.Event:
			c.emit(model.Closed{Reason: "pairing code expired"})
		case whatsmeow.QRChannelEventError:
			c.emit(model.Closed{Reason: fmt.Sprintf("pairing failed: %v", item.Error)})
		default:
			c.emit(model.Closed{Reason: "pairing failed: " + item.Event})
		}
	}
}

func (c *Client) handle(evt any) {
	if hs, ok := evt.(*events.HistorySync); ok {
		c.emit(c.historyBatch(hs))
		return
	}

	now := time.Now()
	if ka, ok := evt.(*events.KeepAliveTimeout); ok && keepAliveExpired(ka, now) {
		// The library only drops a dead socket itself when auto-reconnect
		// is on.
		c.cli.Disconnect()
	}

	if ev, ok := translate(evt, c.selfID, now); ok {
		c.emit(ev)
	}
}

func (c *Client) selfID() string {
	if id := c.cli.Store.ID; id != nil {
		return id.ToNonAD().String()
	}
	return ""
}

// emit blocks until the consumer has room. Lifecycle events must never be
// dropped.
func (c *Client) emit(ev model.Event) {
	c.events <- ev
}
