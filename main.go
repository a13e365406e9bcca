package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"xhsfeed/pkg/archive"
	"xhsfeed/pkg/bot"
	"xhsfeed/pkg/config"
	"xhsfeed/pkg/device"
	"xhsfeed/pkg/feed"
	"xhsfeed/pkg/health"
	"xhsfeed/pkg/httpclient"
	"xhsfeed/pkg/relay"
	"xhsfeed/pkg/resolve"
	"xhsfeed/pkg/telegraph"
	"xhsfeed/pkg/voice"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	relayClient := relay.NewClient(cfg.RelayBaseURL)
	replayClient := httpclient.NewClient(httpclient.ReplayClient)
	browserClient := httpclient.NewClient(httpclient.BrowserClient)

	resolver := resolve.NewResolver(resolve.NewHTTPFollower(browserClient))
	controller := newController(cfg)
	saver := newArchive(ctx, cfg)

	service := feed.NewService(resolver, relayClient, controller, replayClient, saver, feed.Config{
		GateSize:        cfg.GateSize,
		SettleDelay:     cfg.SettleDelay,
		ConsumeAttempts: cfg.ConsumeAttempts,
		ConsumeDelay:    cfg.ConsumeDelay,
	})

	publisher := telegraph.NewClient(telegraph.Config{
		ShortName:  cfg.TelegraphShortName,
		AuthorName: cfg.TelegraphAuthorName,
		AuthorURL:  cfg.TelegraphAuthorURL,
	})

	b, err := bot.New(bot.Config{
		Token:   cfg.BotToken,
		AdminID: cfg.AdminID,
		Debug:   cfg.BotDebug,
	}, service, publisher, browserClient, &voice.FFmpegTranscoder{})
	if err != nil {
		log.Fatalf("Failed to start bot: %v", err)
	}
	b.SetHealthMonitor(health.NewMonitor(health.Config{
		Threshold: cfg.HealthThreshold,
		Window:    cfg.HealthWindow,
		ProbeURL:  cfg.HealthProbeURL,
	}, nil, nil))

	log.Printf("Bot running (device mode %s, archive %s)", cfg.DeviceMode, cfg.ArchiveBackend)
	if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Bot stopped: %v", err)
	}
}

func newController(cfg config.Config) device.Controller {
	switch cfg.DeviceMode {
	case "ssh":
		return device.NewADBController(device.SSHRunner{Target: cfg.DeviceSSHTarget}, cfg.DeviceSerial)
	case "none":
		return device.NopController{}
	default:
		return device.NewADBController(device.ExecRunner{}, cfg.DeviceSerial)
	}
}

func newArchive(ctx context.Context, cfg config.Config) archive.Saver {
	switch cfg.ArchiveBackend {
	case "mongo":
		a := archive.NewMongoArchive(cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
		if err := a.Connect(ctx); err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		return a
	case "postgres":
		client := archive.NewPostgresClient(archive.PostgresConfig{DSN: cfg.PostgresDSN})
		if err := client.Connect(ctx); err != nil {
			log.Fatalf("Failed to connect to Postgres: %v", err)
		}
		return archive.NewSQLArchive(client, "")
	case "supabase":
		client := archive.NewSupabaseClient(archive.SupabaseConfig{
			SupabaseURL: cfg.SupabaseURL,
			SupabaseKey: cfg.SupabaseKey,
			Password:    cfg.SupabasePassword,
		})
		if err := client.Connect(ctx); err != nil {
			log.Fatalf("Failed to connect to Supabase: %v", err)
		}
		return archive.NewSQLArchive(client, "")
	case "none":
		return archive.NopArchive{}
	default:
		a, err := archive.NewFileArchive(cfg.ArchiveDir)
		if err != nil {
			log.Fatalf("Failed to create archive dir: %v", err)
		}
		return a
	}
}
