// Package bot wires inbound chat events to the assessment engine, the
// generation pipelines, and the store. All platform-facing formatting
// (option labels, numbering, chunking) lives here; the core packages return
// plain structured values.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/harborlight-labs/shepherd/internal/assessment"
	"github.com/harborlight-labs/shepherd/internal/engagement"
	"github.com/harborlight-labs/shepherd/internal/messaging"
	"github.com/harborlight-labs/shepherd/internal/models"
	"github.com/harborlight-labs/shepherd/internal/prayer"
	"github.com/harborlight-labs/shepherd/internal/store"
	"github.com/harborlight-labs/shepherd/internal/util"
)

// Slash command names.
const (
	CommandPersonality      = "personality"
	CommandPersonalityQuick = "personality-quick"
	CommandPrayer           = "prayer"
)

// Config holds the channel and role wiring for one deployment.
type Config struct {
	GuildID         string
	PrayerChannelID string
	MentorChannelID string
	MentorRoleName  string
}

// Bot routes chat events to the core components.
type Bot struct {
	svc       messaging.Service
	engine    *assessment.Engine
	extractor *prayer.Extractor
	engage    *engagement.Generator
	st        store.Store
	cfg       Config
	now       func() time.Time
}

// New creates the orchestrator. MentorRoleName defaults to "mentor".
func New(svc messaging.Service, engine *assessment.Engine, extractor *prayer.Extractor, engage *engagement.Generator, st store.Store, cfg Config) *Bot {
	if cfg.MentorRoleName == "" {
		cfg.MentorRoleName = "mentor"
	}
	return &Bot{
		svc:       svc,
		engine:    engine,
		extractor: extractor,
		engage:    engage,
		st:        st,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Run consumes events until the stream closes or ctx is canceled.
func (b *Bot) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-b.svc.Events():
			if !ok {
				return nil
			}
			b.handleEvent(ctx, ev)
		}
	}
}

func (b *Bot) handleEvent(ctx context.Context, ev messaging.Event) {
	switch ev.Type {
	case messaging.EventCommand:
		b.handleCommand(ctx, ev)
	case messaging.EventComponent:
		b.handleComponent(ctx, ev)
	case messaging.EventMessage:
		b.handleMessage(ctx, ev)
	}
}

func (b *Bot) handleCommand(ctx context.Context, ev messaging.Event) {
	slog.Info("command received", "command", ev.Command, "user_id", ev.UserID)
	switch ev.Command {
	case CommandPersonality:
		b.startAssessment(ctx, ev, models.ModeFull)
	case CommandPersonalityQuick:
		b.startAssessment(ctx, ev, models.ModeQuick)
	case CommandPrayer:
		b.sendWeeklyPrayers(ctx, ev)
	default:
		slog.Warn("unknown command", "command", ev.Command)
	}
}

// startAssessment creates a session and delivers the first question over DM.
// When the DM cannot be delivered the session is abandoned so the user can
// retry after opening their DMs.
func (b *Bot) startAssessment(ctx context.Context, ev messaging.Event, mode models.Mode) {
	sess, first, err := b.engine.Start(ev.UserID, mode)
	if errors.Is(err, assessment.ErrAlreadyActive) {
		b.respond(ctx, ev.Interaction, "⚠️ You already have an active test! Please complete it first.")
		return
	}
	if err != nil {
		slog.Error("failed to start assessment", "error", err, "user_id", ev.UserID)
		b.respond(ctx, ev.Interaction, "❌ An error occurred while starting the test. Please try again.")
		return
	}

	msg := formatQuestion(first, 0, len(sess.Questions), mode, true)
	if err := b.svc.SendDirectMessage(ctx, ev.UserID, msg); err != nil {
		b.engine.Abandon(ev.UserID)
		if errors.Is(err, messaging.ErrDeliveryForbidden) {
			b.respond(ctx, ev.Interaction, "❌ I couldn't send you a DM. Please enable DMs from server members in your privacy settings.")
			return
		}
		slog.Error("failed to deliver first question", "error", err, "user_id", ev.UserID)
		b.respond(ctx, ev.Interaction, "❌ An error occurred while starting the test. Please try again.")
		return
	}

	b.respond(ctx, ev.Interaction, "✅ Check your DMs! I've started the test there.")
}

// handleComponent drives one answer click through the session engine. Clicks
// on an already-answered question are stale interactions and are rejected
// without touching the session.
func (b *Bot) handleComponent(ctx context.Context, ev messaging.Event) {
	qIdx, optIdx, ok := parseAnswerID(ev.CustomID)
	if !ok {
		slog.Warn("unrecognized component", "custom_id", ev.CustomID, "user_id", ev.UserID)
		return
	}

	current, currentIdx, err := b.engine.Current(ev.UserID)
	if errors.Is(err, assessment.ErrNoActiveSession) {
		b.respond(ctx, ev.Interaction, "⚠️ You don't have an active test. Use /personality to start one.")
		return
	}
	if err != nil {
		slog.Error("failed to read session", "error", err, "user_id", ev.UserID)
		return
	}
	if qIdx != currentIdx {
		b.respond(ctx, ev.Interaction, "⚠️ That question was already answered.")
		return
	}
	if optIdx < 0 || optIdx >= len(current.Options) {
		b.respond(ctx, ev.Interaction, "⚠️ That choice isn't available.")
		return
	}

	if err := b.svc.AckComponent(ctx, ev.Interaction); err != nil {
		slog.Warn("failed to ack component", "error", err, "user_id", ev.UserID)
	}

	prog, err := b.engine.SubmitAnswer(ev.UserID, optIdx)
	if err != nil {
		if errors.Is(err, assessment.ErrProfileNotFound) {
			slog.Error("profile catalog inconsistency", "error", err, "user_id", ev.UserID)
			b.dm(ctx, ev.UserID, messaging.Message{Content: "❌ Your result couldn't be matched to a profile. Please let a mentor know."})
			return
		}
		slog.Error("failed to submit answer", "error", err, "user_id", ev.UserID)
		return
	}

	if prog.Final != nil {
		b.dm(ctx, ev.UserID, formatFinal(*prog.Final))
		return
	}
	b.dm(ctx, ev.UserID, formatQuestion(*prog.Next, prog.NextIndex, prog.Total, "", false))
}

// sendWeeklyPrayers DMs the current Monday-to-Sunday prayer list to a mentor.
func (b *Bot) sendWeeklyPrayers(ctx context.Context, ev messaging.Event) {
	isMentor, err := b.memberIsMentor(ctx, ev)
	if err != nil {
		slog.Error("failed to check mentor role", "error", err, "user_id", ev.UserID)
		b.respond(ctx, ev.Interaction, "❌ An error occurred. Please try again.")
		return
	}
	if !isMentor {
		b.respond(ctx, ev.Interaction, "❌ This command is only available to mentors.")
		return
	}

	start, end := util.WeekBounds(b.now())
	prayers, err := b.st.PrayersBetween(start, end)
	if err != nil {
		slog.Error("failed to query prayers", "error", err)
		b.respond(ctx, ev.Interaction, "❌ An error occurred while fetching prayers. Please try again.")
		return
	}

	weekRange := formatWeekRange(start, end)
	if len(prayers) == 0 {
		b.respond(ctx, ev.Interaction, fmt.Sprintf("No prayers posted this week (%s).", weekRange))
		return
	}

	for _, chunk := range formatPrayerList(weekRange, prayers) {
		if err := b.svc.SendDirectMessage(ctx, ev.UserID, messaging.Message{Content: chunk}); err != nil {
			if errors.Is(err, messaging.ErrDeliveryForbidden) {
				b.respond(ctx, ev.Interaction, "❌ I couldn't send you a DM. Please enable DMs from server members in your privacy settings.")
				return
			}
			slog.Error("failed to deliver prayer list", "error", err, "user_id", ev.UserID)
			b.respond(ctx, ev.Interaction, "❌ An error occurred while sending prayers. Please try again.")
			return
		}
	}
	b.respond(ctx, ev.Interaction, "✅ Sent this week's prayers to your DM!")
}

func (b *Bot) memberIsMentor(ctx context.Context, ev messaging.Event) (bool, error) {
	guildID := ev.GuildID
	if guildID == "" {
		guildID = b.cfg.GuildID
	}
	if guildID == "" {
		return false, nil
	}

	roleID, found, err := b.svc.ResolveRoleByName(ctx, guildID, b.cfg.MentorRoleName)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	for _, id := range ev.RoleIDs {
		if id == roleID {
			return true, nil
		}
	}
	return false, nil
}

// handleMessage records analytics for every human message and runs prayer
// extraction for the prayer channel.
func (b *Bot) handleMessage(ctx context.Context, ev messaging.Event) {
	msg := ev.Message
	if msg == nil || msg.AuthorBot {
		return
	}

	event := models.MessageEvent{
		MessageID:  msg.MessageID,
		AuthorID:   msg.AuthorID,
		AuthorName: msg.AuthorName,
		ChannelID:  msg.ChannelID,
		Content:    msg.Content,
		PostedAt:   msg.PostedAt,
	}
	if err := b.st.SaveMessageEvent(event); err != nil {
		slog.Error("failed to store message event", "error", err, "message_id", msg.MessageID)
	}

	if b.cfg.PrayerChannelID == "" || msg.ChannelID != b.cfg.PrayerChannelID {
		return
	}

	slog.Info("processing potential prayer", "author", msg.AuthorName, "message_id", msg.MessageID)
	result := b.extractor.Extract(ctx, msg.Content)
	switch result.Status {
	case prayer.StatusNoContent:
		slog.Debug("no prayer extracted", "message_id", msg.MessageID)
	case prayer.StatusFailed:
		slog.Error("prayer extraction failed, nothing persisted", "error", result.Err, "message_id", msg.MessageID)
	case prayer.StatusExtracted:
		rec := b.extractor.BuildRecord(event, result.Sentence)
		if err := b.st.SavePrayer(rec); err != nil {
			slog.Error("failed to store prayer", "error", err, "id", rec.ID)
		}
	}
}

// PostEngagement generates one engagement pair and posts it to the mentor
// channel: the nudge first, then the shareable prompt. Never fails to
// produce content; delivery errors are returned.
func (b *Bot) PostEngagement(ctx context.Context) error {
	if b.cfg.MentorChannelID == "" {
		return fmt.Errorf("mentor channel not configured")
	}

	pair := b.engage.Generate(ctx)
	if err := b.svc.SendChannelMessage(ctx, b.cfg.MentorChannelID, messaging.Message{Content: pair.Nudge}); err != nil {
		return fmt.Errorf("post nudge: %w", err)
	}
	prompt := "📋 Copy-paste for your groups:\n>>> " + pair.Prompt
	if err := b.svc.SendChannelMessage(ctx, b.cfg.MentorChannelID, messaging.Message{Content: prompt}); err != nil {
		return fmt.Errorf("post prompt: %w", err)
	}
	slog.Info("engagement message posted", "channel_id", b.cfg.MentorChannelID)
	return nil
}

// respond answers an interaction ephemerally, logging delivery problems.
func (b *Bot) respond(ctx context.Context, ref messaging.InteractionRef, content string) {
	if err := b.svc.RespondEphemeral(ctx, ref, content); err != nil {
		slog.Warn("failed to respond to interaction", "error", err)
	}
}

// dm sends a direct message, logging delivery problems.
func (b *Bot) dm(ctx context.Context, userID string, msg messaging.Message) {
	if err := b.svc.SendDirectMessage(ctx, userID, msg); err != nil {
		slog.Warn("failed to deliver DM", "error", err, "user_id", userID)
	}
}
