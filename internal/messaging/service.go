// Package messaging defines the chat transport abstraction the bot consumes.
//
// The concrete gateway client lives in internal/discord; the bot and its
// tests only depend on the Service interface and event types here.
package messaging

import (
	"context"
	"errors"
	"time"
)

// ErrDeliveryForbidden indicates the recipient cannot receive direct
// messages (closed DMs or missing permissions). Session state is unaffected;
// callers surface a friendly hint.
var ErrDeliveryForbidden = errors.New("direct message delivery forbidden")

// Button is one selectable component attached to an outbound message.
type Button struct {
	Label    string
	CustomID string
}

// Message is platform-neutral outbound content. Formatting (option labels,
// chunking) happens before a Message is built.
type Message struct {
	Content string
	Buttons []Button
}

// EventType tags inbound events.
type EventType string

const (
	// EventCommand is a slash-command invocation.
	EventCommand EventType = "command"
	// EventComponent is a button click.
	EventComponent EventType = "component"
	// EventMessage is a plain chat message.
	EventMessage EventType = "message"
)

// InteractionRef identifies an interaction for acknowledgement/response.
type InteractionRef struct {
	ID    string
	Token string
}

// InboundMessage carries a plain chat message.
type InboundMessage struct {
	MessageID  string
	AuthorID   string
	AuthorName string
	AuthorBot  bool
	ChannelID  string
	Content    string
	PostedAt   time.Time
}

// Event is one inbound chat event.
type Event struct {
	Type EventType

	// Command/component fields.
	Command     string
	CustomID    string
	Interaction InteractionRef
	GuildID     string
	ChannelID   string
	UserID      string
	Username    string
	RoleIDs     []string

	// Message field, set for EventMessage.
	Message *InboundMessage
}

// Service is the pluggable chat transport.
type Service interface {
	// Start connects the transport and begins delivering events.
	Start(ctx context.Context) error

	// Stop disconnects and releases resources.
	Stop() error

	// Events returns the inbound event stream.
	Events() <-chan Event

	// SendDirectMessage delivers a message to the user's DM channel,
	// returning ErrDeliveryForbidden when DMs are closed.
	SendDirectMessage(ctx context.Context, userID string, msg Message) error

	// SendChannelMessage delivers a message to a channel.
	SendChannelMessage(ctx context.Context, channelID string, msg Message) error

	// RespondEphemeral answers an interaction with a message only the
	// invoking user sees.
	RespondEphemeral(ctx context.Context, ref InteractionRef, content string) error

	// AckComponent acknowledges a component click without visible output.
	AckComponent(ctx context.Context, ref InteractionRef) error

	// ResolveRoleByName finds a guild role by case-insensitive name.
	ResolveRoleByName(ctx context.Context, guildID, name string) (roleID string, found bool, err error)
}
