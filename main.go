package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/handler"

	"github.com/hodlgate/hodlgate/hodlgate"
	"github.com/hodlgate/hodlgate/hodlgate/commands"
	"github.com/hodlgate/hodlgate/hodlgate/logger"
	"github.com/hodlgate/hodlgate/hodlgate/relay"
	"github.com/hodlgate/hodlgate/hodlgate/roles"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	// Initialize custom logger
	customHandler := logger.NewHandler("HodlGate")
	slog.SetDefault(slog.New(customHandler))

	slog.Info("Starting HodlGate Discord Bot",
		slog.String("version", version),
		slog.String("commit", commit))

	shouldSyncCommands := flag.Bool("sync-commands", false, "Whether to sync commands to discord")
	path := flag.String("config", "config.toml", "path to config")
	flag.Parse()

	cfg, err := hodlgate.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}
	slog.Info("Configuration loaded successfully")

	b := hodlgate.New(*cfg, version, commit)

	h := handler.New()
	h.Command("/verify", commands.VerifyHandler(b))

	if err = b.SetupBot(h, bot.NewListenerFunc(b.OnReady)); err != nil {
		slog.Error("Failed to setup bot",
			slog.String("type", "sys"),
			slog.Any("error", err),
			slog.String("error_details", fmt.Sprintf("%+v", err)),
		)
		os.Exit(-1)
	}

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		b.Client.Close(ctx)
	}()

	if *shouldSyncCommands {
		slog.Info("Syncing commands",
			slog.String("type", "sys"),
			slog.Any("guild_ids", cfg.Bot.DevGuilds),
		)
		if err = handler.SyncCommands(b.Client, commands.Commands, cfg.Bot.DevGuilds); err != nil {
			slog.Error("Failed to sync commands",
				slog.String("type", "sys"),
				slog.Any("error", err),
			)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = b.Client.OpenGateway(ctx); err != nil {
		slog.Error("Failed to open gateway",
			slog.String("type", "sys"),
			slog.Any("error", err),
		)
		os.Exit(-1)
	}

	// The relay poller drains the backend's role-update mailbox and applies
	// role changes; it is the only writer of Discord role state.
	syncer := roles.NewSyncer(b.Client, cfg.Bot.GuildID, cfg.Bot.VerifiedRoleID, cfg.Bot.EliteRoleID)
	poller := relay.NewPoller(cfg.Bot.BackendURL, cfg.Bot.APIKey, cfg.Bot.PollInterval.Std(), syncer)

	pollCtx, pollCancel := context.WithCancel(context.Background())
	defer pollCancel()
	poller.Start(pollCtx)

	slog.Info("Bot is running. Press CTRL-C to exit.")
	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM)
	<-s
	slog.Info("Shutting down bot...")
}
