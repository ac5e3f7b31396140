package discord

import (
	"encoding/json"
	"time"

	"github.com/harborlight-labs/shepherd/internal/messaging"
)

// Gateway opcodes used by the client.
const (
	opDispatch     = 0
	opHeartbeat    = 1
	opIdentify     = 2
	opHello        = 10
	opHeartbeatACK = 11
)

// Gateway intents requested on identify.
const (
	intentGuilds         = 1 << 0
	intentGuildMessages  = 1 << 9
	intentDirectMessages = 1 << 12
	intentMessageContent = 1 << 15
)

// Interaction types we route.
const (
	interactionApplicationCommand = 2
	interactionMessageComponent   = 3
)

// Interaction callback types.
const (
	callbackChannelMessage = 4
	callbackDeferredUpdate = 6
)

const flagEphemeral = 1 << 6

// gatewayPayload is the envelope for every gateway frame.
type gatewayPayload struct {
	Op int             `json:"op"`
	T  string          `json:"t,omitempty"`
	S  *int64          `json:"s,omitempty"`
	D  json.RawMessage `json:"d,omitempty"`
}

type helloData struct {
	HeartbeatInterval int64 `json:"heartbeat_interval"`
}

type identifyData struct {
	Token      string             `json:"token"`
	Intents    int                `json:"intents"`
	Properties identifyProperties `json:"properties"`
}

type identifyProperties struct {
	OS      string `json:"os"`
	Browser string `json:"browser"`
	Device  string `json:"device"`
}

type wireUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Bot      bool   `json:"bot"`
}

type wireMember struct {
	User  *wireUser `json:"user"`
	Roles []string  `json:"roles"`
}

type messageCreateData struct {
	ID        string   `json:"id"`
	ChannelID string   `json:"channel_id"`
	GuildID   string   `json:"guild_id"`
	Content   string   `json:"content"`
	Author    wireUser `json:"author"`
	Timestamp string   `json:"timestamp"`
}

type interactionCreateData struct {
	ID        string          `json:"id"`
	Token     string          `json:"token"`
	Type      int             `json:"type"`
	GuildID   string          `json:"guild_id"`
	ChannelID string          `json:"channel_id"`
	Member    *wireMember     `json:"member"`
	User      *wireUser       `json:"user"`
	Data      interactionData `json:"data"`
}

type interactionData struct {
	Name     string `json:"name"`
	CustomID string `json:"custom_id"`
}

type wireRole struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Outbound REST bodies.

type createDMBody struct {
	RecipientID string `json:"recipient_id"`
}

type dmChannel struct {
	ID string `json:"id"`
}

type messageBody struct {
	Content    string         `json:"content"`
	Components []componentRow `json:"components,omitempty"`
}

type componentRow struct {
	Type       int               `json:"type"` // 1 = action row
	Components []buttonComponent `json:"components"`
}

type buttonComponent struct {
	Type     int    `json:"type"`  // 2 = button
	Style    int    `json:"style"` // 1 = primary
	Label    string `json:"label"`
	CustomID string `json:"custom_id"`
}

type interactionResponse struct {
	Type int                      `json:"type"`
	Data *interactionResponseData `json:"data,omitempty"`
}

type interactionResponseData struct {
	Content string `json:"content,omitempty"`
	Flags   int    `json:"flags,omitempty"`
}

// mapMessageCreate converts a MESSAGE_CREATE dispatch into a transport event.
func mapMessageCreate(raw json.RawMessage) (messaging.Event, error) {
	var d messageCreateData
	if err := json.Unmarshal(raw, &d); err != nil {
		return messaging.Event{}, err
	}

	postedAt, err := time.Parse(time.RFC3339, d.Timestamp)
	if err != nil {
		postedAt = time.Now().UTC()
	}

	return messaging.Event{
		Type:      messaging.EventMessage,
		GuildID:   d.GuildID,
		ChannelID: d.ChannelID,
		UserID:    d.Author.ID,
		Username:  d.Author.Username,
		Message: &messaging.InboundMessage{
			MessageID:  d.ID,
			AuthorID:   d.Author.ID,
			AuthorName: d.Author.Username,
			AuthorBot:  d.Author.Bot,
			ChannelID:  d.ChannelID,
			Content:    d.Content,
			PostedAt:   postedAt,
		},
	}, nil
}

// mapInteractionCreate converts an INTERACTION_CREATE dispatch into a
// transport event. Interaction types outside commands/components map to a
// zero event with ok=false.
func mapInteractionCreate(raw json.RawMessage) (messaging.Event, bool, error) {
	var d interactionCreateData
	if err := json.Unmarshal(raw, &d); err != nil {
		return messaging.Event{}, false, err
	}

	// In guilds the invoking user arrives inside member; in DMs at top level.
	user := d.User
	var roles []string
	if d.Member != nil {
		if d.Member.User != nil {
			user = d.Member.User
		}
		roles = d.Member.Roles
	}
	if user == nil {
		user = &wireUser{}
	}

	ev := messaging.Event{
		Interaction: messaging.InteractionRef{ID: d.ID, Token: d.Token},
		GuildID:     d.GuildID,
		ChannelID:   d.ChannelID,
		UserID:      user.ID,
		Username:    user.Username,
		RoleIDs:     roles,
	}

	switch d.Type {
	case interactionApplicationCommand:
		ev.Type = messaging.EventCommand
		ev.Command = d.Data.Name
	case interactionMessageComponent:
		ev.Type = messaging.EventComponent
		ev.CustomID = d.Data.CustomID
	default:
		return messaging.Event{}, false, nil
	}
	return ev, true, nil
}

// buildComponents splits buttons into action rows of at most five.
func buildComponents(buttons []messaging.Button) []componentRow {
	if len(buttons) == 0 {
		return nil
	}
	var rows []componentRow
	for start := 0; start < len(buttons); start += 5 {
		end := start + 5
		if end > len(buttons) {
			end = len(buttons)
		}
		row := componentRow{Type: 1}
		for _, b := range buttons[start:end] {
			row.Components = append(row.Components, buttonComponent{
				Type:     2,
				Style:    1,
				Label:    b.Label,
				CustomID: b.CustomID,
			})
		}
		rows = append(rows, row)
	}
	return rows
}
