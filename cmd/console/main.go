package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"liquid-home-console/internal/adapters/input/http"
	"liquid-home-console/internal/adapters/output/backend"
	"liquid-home-console/internal/adapters/output/frames"
	"liquid-home-console/internal/adapters/output/hue"
	"liquid-home-console/internal/adapters/output/mqtt"
	"liquid-home-console/internal/adapters/output/persistence"
	"liquid-home-console/internal/adapters/output/renderer"
	"liquid-home-console/internal/config"
	"liquid-home-console/internal/domain/service"
	"liquid-home-console/internal/logging"
	"liquid-home-console/internal/ports"
)

var log = logrus.WithField("prefix", "main")

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	logging.Setup(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal(err)
	}
	log.Info("bye")
}

func run(ctx context.Context, cfg *config.Config) error {
	client := backend.NewClient(cfg.BackendURL, cfg.HTTPTimeout)
	log.Infof("Starting Liquid Home Console against %s", client.BaseURL())

	// Rules and actions
	var store ports.ConfigBackend = client
	if cfg.OfflineConfig != "" {
		log.Infof("offline mode, rules are kept in %s", cfg.OfflineConfig)
		store = persistence.NewJSONConfigRepository(cfg.OfflineConfig)
	}

	// Camera
	var source ports.FrameSource = frames.NewPatternSource(320, 240)
	if cfg.FramesDir != "" {
		dir, err := frames.NewDirSource(cfg.FramesDir)
		if err != nil {
			return err
		}
		source = dir
	}

	g, ctx := errgroup.WithContext(ctx)

	// Room
	room := renderer.Multi{renderer.Log{}}
	if cfg.MQTTBroker != "" {
		mqttClient, err := mqtt.NewClient(cfg.MQTTBroker, cfg.MQTTClientID)
		if err != nil {
			return err
		}
		defer mqttClient.Disconnect(250)
		room = append(room, mqtt.NewRenderer(mqttClient, cfg.MQTTTopicPrefix))
	}
	if cfg.HueEnabled() {
		hueRenderer := hue.NewBridgeRenderer(cfg.HueHost, cfg.HueUser, cfg.HueLightID, cfg.HueCurtainID)
		room = append(room, hueRenderer)
		g.Go(func() error { return hueRenderer.Run(ctx) })
	}

	console := service.NewConsole(service.ConsoleDeps{
		Backend:  store,
		Uploader: client,
		Feed:     client,
		Frames:   source,
		Renderer: room,
		FPS:      cfg.CaptureFPS,
		Quality:  cfg.JPEGQuality,
	})
	console.Bootstrap(ctx)
	// publish the initial state so every renderer starts in sync
	initial := console.Status().State
	room.ApplyLightState(initial.LightsOn)
	room.ApplyCurtainTarget(initial.CurtainsOpen)

	if cfg.AutostartStream {
		if err := console.StartStream(ctx); err != nil {
			log.WithError(err).Warn("could not start live stream")
		}
	}

	httpServer := http.NewServer(console)
	g.Go(func() error { return httpServer.ListenAndServe(ctx, cfg.ListenAddr) })
	g.Go(func() error {
		<-ctx.Done()
		console.StopStream()
		stats := console.CaptureStats()
		log.Infof("capture: %d ticks, %d uploaded, %d dropped, %d failed, %d skipped",
			stats.Ticks, stats.Uploaded, stats.Dropped, stats.Failed, stats.Skipped)
		return nil
	})

	return g.Wait()
}
