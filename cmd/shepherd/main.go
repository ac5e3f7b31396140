package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/harborlight-labs/shepherd/internal/api"
	"github.com/harborlight-labs/shepherd/internal/assessment"
	"github.com/harborlight-labs/shepherd/internal/bot"
	"github.com/harborlight-labs/shepherd/internal/catalog"
	"github.com/harborlight-labs/shepherd/internal/discord"
	"github.com/harborlight-labs/shepherd/internal/engagement"
	"github.com/harborlight-labs/shepherd/internal/genai"
	"github.com/harborlight-labs/shepherd/internal/models"
	"github.com/harborlight-labs/shepherd/internal/prayer"
	"github.com/harborlight-labs/shepherd/internal/scheduler"
	"github.com/harborlight-labs/shepherd/internal/store"
	"github.com/harborlight-labs/shepherd/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for shepherd state data
	DefaultStateDir = "/var/lib/shepherd"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "shepherd.db"
	// DefaultAPIAddr is the default admin API listen address
	DefaultAPIAddr = ":8080"
	// DefaultGenAIBaseURL points at the xAI OpenAI-compatible endpoint
	DefaultGenAIBaseURL = "https://api.x.ai/v1"
	// DefaultEngagementCron posts the weekly engagement message Sunday 17:00 UTC
	DefaultEngagementCron = "0 17 * * 0"
	// sweepCron runs the idle-session sweep every 15 minutes
	sweepCron = "*/15 * * * *"
	// sessionIdleTTL is how long an unanswered session survives before sweeping
	sessionIdleTTL = time.Hour
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	slog.Info("Bootstrapping shepherd with configured modules")
	if err := run(flags); err != nil {
		slog.Error("shepherd failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("shepherd exited successfully")
}

// Config holds environment configuration
type Config struct {
	BotToken        string
	GenAIKey        string
	GenAIBaseURL    string
	GenAIModel      string
	DatabaseURL     string
	StateDir        string
	APIAddr         string
	GuildID         string
	PrayerChannelID string
	MentorChannelID string
	MentorRole      string
	EngagementCron  string
}

// Flags holds command line flag values
type Flags struct {
	botToken        *string
	genaiKey        *string
	genaiBaseURL    *string
	genaiModel      *string
	dbDSN           *string
	stateDir        *string
	apiAddr         *string
	guildID         *string
	prayerChannelID *string
	mentorChannelID *string
	mentorRole      *string
	engagementCron  *string
}

// initializeLogger sets up structured logging. Debug narration is on by
// default and can be silenced with SHEPHERD_DEBUG=false.
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("SHEPHERD_DEBUG", true) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		BotToken:        os.Getenv("DISCORD_BOT_TOKEN"),
		GenAIKey:        os.Getenv("GENAI_API_KEY"),
		GenAIBaseURL:    util.EnvOrDefault("GENAI_BASE_URL", DefaultGenAIBaseURL),
		GenAIModel:      os.Getenv("GENAI_MODEL"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		StateDir:        util.EnvOrDefault("SHEPHERD_STATE_DIR", DefaultStateDir),
		APIAddr:         util.EnvOrDefault("API_ADDR", DefaultAPIAddr),
		GuildID:         os.Getenv("GUILD_ID"),
		PrayerChannelID: os.Getenv("PRAYER_CHANNEL_ID"),
		MentorChannelID: os.Getenv("MENTOR_CHANNEL_ID"),
		MentorRole:      os.Getenv("MENTOR_ROLE"),
		EngagementCron:  util.EnvOrDefault("ENGAGEMENT_CRON", DefaultEngagementCron),
	}

	// Without a database URL, default to SQLite in the state directory.
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}

	slog.Debug("environment variables loaded",
		"DISCORD_BOT_TOKEN_SET", config.BotToken != "",
		"GENAI_API_KEY_SET", config.GenAIKey != "",
		"GENAI_BASE_URL", config.GenAIBaseURL,
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"SHEPHERD_STATE_DIR", config.StateDir,
		"API_ADDR", config.APIAddr,
		"GUILD_ID_SET", config.GuildID != "",
		"PRAYER_CHANNEL_ID_SET", config.PrayerChannelID != "",
		"MENTOR_CHANNEL_ID_SET", config.MentorChannelID != "",
		"ENGAGEMENT_CRON", config.EngagementCron)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		botToken:        flag.String("bot-token", config.BotToken, "Discord bot token (overrides $DISCORD_BOT_TOKEN)"),
		genaiKey:        flag.String("genai-api-key", config.GenAIKey, "GenAI API key (overrides $GENAI_API_KEY)"),
		genaiBaseURL:    flag.String("genai-base-url", config.GenAIBaseURL, "GenAI base URL (overrides $GENAI_BASE_URL)"),
		genaiModel:      flag.String("genai-model", config.GenAIModel, "GenAI model name (overrides $GENAI_MODEL)"),
		dbDSN:           flag.String("db-dsn", config.DatabaseURL, "database DSN (overrides $DATABASE_URL)"),
		stateDir:        flag.String("state-dir", config.StateDir, "state directory for shepherd data (overrides $SHEPHERD_STATE_DIR)"),
		apiAddr:         flag.String("api-addr", config.APIAddr, "admin API server address (overrides $API_ADDR)"),
		guildID:         flag.String("guild-id", config.GuildID, "Discord guild ID (overrides $GUILD_ID)"),
		prayerChannelID: flag.String("prayer-channel-id", config.PrayerChannelID, "prayer channel ID (overrides $PRAYER_CHANNEL_ID)"),
		mentorChannelID: flag.String("mentor-channel-id", config.MentorChannelID, "mentor channel ID (overrides $MENTOR_CHANNEL_ID)"),
		mentorRole:      flag.String("mentor-role", config.MentorRole, "mentor role name (overrides $MENTOR_ROLE)"),
		engagementCron:  flag.String("engagement-cron", config.EngagementCron, "cron schedule for engagement posts (overrides $ENGAGEMENT_CRON)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"botTokenSet", *flags.botToken != "",
		"genaiKeySet", *flags.genaiKey != "",
		"dbDSN_set", *flags.dbDSN != "",
		"stateDir", *flags.stateDir,
		"apiAddr", *flags.apiAddr,
		"engagementCron", *flags.engagementCron)

	return flags
}

// ensureDirectoriesExist creates necessary directories for file-based storage
func ensureDirectoriesExist(flags Flags) error {
	if store.DetectDSNType(*flags.dbDSN) == "postgres" {
		return nil
	}
	stateDir := filepath.Dir(*flags.dbDSN)
	slog.Debug("Creating state directory for file-based database", "state_dir", stateDir)
	return os.MkdirAll(stateDir, 0755)
}

// run wires the modules together and blocks until shutdown.
func run(flags Flags) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.NewStore(store.WithDSN(*flags.dbDSN))
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("Failed to close store", "error", closeErr)
		}
	}()

	genaiOpts := []genai.Option{genai.WithAPIKey(*flags.genaiKey)}
	if *flags.genaiBaseURL != "" {
		genaiOpts = append(genaiOpts, genai.WithBaseURL(*flags.genaiBaseURL))
	}
	if *flags.genaiModel != "" {
		genaiOpts = append(genaiOpts, genai.WithModel(*flags.genaiModel))
	}
	genaiClient, err := genai.NewClient(genaiOpts...)
	if err != nil {
		return err
	}

	cat, err := catalog.Load()
	if err != nil {
		return err
	}
	slog.Info("Catalog loaded", "questions", len(cat.Questions(models.ModeFull)), "profiles", cat.ProfileCount())

	sessions := assessment.NewStore()
	engine := assessment.NewEngine(sessions, cat)
	extractor := prayer.NewExtractor(genaiClient)
	generator := engagement.NewGenerator(genaiClient)

	svc, err := discord.NewClient(discord.WithToken(*flags.botToken))
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if stopErr := svc.Stop(); stopErr != nil {
			slog.Error("Failed to stop messaging service", "error", stopErr)
		}
	}()

	b := bot.New(svc, engine, extractor, generator, st, bot.Config{
		GuildID:         *flags.guildID,
		PrayerChannelID: *flags.prayerChannelID,
		MentorChannelID: *flags.mentorChannelID,
		MentorRoleName:  *flags.mentorRole,
	})

	sched := scheduler.NewScheduler()
	defer sched.Stop()

	if *flags.mentorChannelID != "" {
		err := sched.AddJob("engagement-post", *flags.engagementCron, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if err := b.PostEngagement(jobCtx); err != nil {
				slog.Error("Scheduled engagement post failed", "error", err)
			}
		})
		if err != nil {
			return err
		}
	} else {
		slog.Warn("No mentor channel configured, engagement posts disabled")
	}

	if err := sched.AddJob("session-sweep", sweepCron, func() {
		if removed := sessions.SweepIdle(sessionIdleTTL); removed > 0 {
			slog.Info("Idle sessions swept", "removed", removed)
		}
	}); err != nil {
		return err
	}

	apiServer := api.NewServer(st, engine, b, *flags.apiAddr)
	apiServer.Start()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("Admin API forced to shutdown", "error", err)
		}
	}()

	slog.Info("shepherd running", "guild_id_set", *flags.guildID != "")
	if err := b.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}

	slog.Info("Shutting down gracefully")
	return nil
}
