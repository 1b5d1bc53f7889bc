//go:build !tinygo

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/pflag"

	"github.com/harveysanders/envdisplay/config"
	"github.com/harveysanders/envdisplay/discovery"
	"github.com/harveysanders/envdisplay/gfx"
	"github.com/harveysanders/envdisplay/ingest"
	"github.com/harveysanders/envdisplay/input"
	"github.com/harveysanders/envdisplay/link"
	"github.com/harveysanders/envdisplay/logging"
	"github.com/harveysanders/envdisplay/mqtt"
	"github.com/harveysanders/envdisplay/render"
	"github.com/harveysanders/envdisplay/telemetry"
)

const panelSize = 240

type options struct {
	configPath string
	logFormat  string
	headless   bool
	scale      int
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	logger, err := logging.ForFormat(opts.logFormat, os.Stderr, cfg.Level())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if cfg.Broker == config.BrokerAuto {
		logger.Info("discovery:browsing", slog.String("service", discovery.ServiceType))
		addr, err := discovery.FindBroker(ctx, discovery.DefaultTimeout)
		if err != nil {
			return err
		}
		logger.Info("discovery:found", slog.String("broker", addr))
		cfg.Broker = addr
	}

	layout, err := render.LayoutByName(cfg.Layout)
	if err != nil {
		return err
	}
	dec, err := telemetry.NewDecoder(cfg.PayloadFormat)
	if err != nil {
		return err
	}

	store := telemetry.NewStore(telemetry.Snapshot{})
	status := &link.Status{}
	mgr := link.NewManager(link.Config{
		ClientID:      cfg.ClientID,
		Topic:         cfg.Topic,
		RetryInterval: cfg.RetryInterval,
		Logger:        logger,
	}, status, time.Now())
	iw := ingest.New(nil, dec, store, mgr, ingest.Config{
		InboxSize: cfg.InboxSize,
		Logger:    logger,
	})
	transport := mqtt.NewPaho(mqtt.PahoConfig{
		Broker:    cfg.Broker,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Timeout:   cfg.ConnectTimeout,
		Keepalive: cfg.Keepalive,
		Logger:    logger,
	}, iw.Deliver)
	defer transport.Close()
	iw.SetTransport(transport)

	fb := gfx.NewFramebuffer(panelSize, panelSize)
	keys := &keyboard{}
	rw := render.New(gfx.NewDisplay(fb), input.NewReader(keys, cfg.Cooldown), store, status, render.Config{
		Layout:    layout,
		Animated:  cfg.Animated,
		Smoothing: cfg.Smoothing,
		Tick:      cfg.Tick,
		Hold:      cfg.Hold,
		Logger:    logger,
	})

	logger.Info("envdisplay:start",
		slog.String("broker", cfg.Broker),
		slog.String("topic", cfg.Topic),
		slog.String("layout", layout.Name),
		slog.Bool("headless", opts.headless),
	)
	go iw.Run(ctx)
	if opts.headless {
		return rw.Run(ctx)
	}
	go rw.Run(ctx)
	return runWindow(ctx, fb, keys, opts.scale)
}

// parseFlags loads the config file and environment, then applies the flags
// the user set explicitly.
func parseFlags(args []string) (config.Config, options, error) {
	var opts options
	fs := pflag.NewFlagSet("envdisplay", pflag.ContinueOnError)
	fs.StringVarP(&opts.configPath, "config", "c", "", "YAML config file")
	fs.StringVar(&opts.logFormat, "log-format", logging.FormatDev, "log format: dev, json or text")
	fs.BoolVar(&opts.headless, "headless", false, "render without opening a window")
	fs.IntVar(&opts.scale, "scale", 2, "window scale factor")

	def := config.Default()
	broker := fs.StringP("broker", "b", def.Broker, `broker host:port, or "auto" to find one over mDNS`)
	topic := fs.StringP("topic", "t", def.Topic, "telemetry topic")
	clientID := fs.String("client-id", def.ClientID, "MQTT client id")
	format := fs.String("payload-format", def.PayloadFormat, "payload encoding: json or cbor")
	layout := fs.String("layout", def.Layout, "metric layout: cards or rows")
	animated := fs.Bool("animated", def.Animated, "smooth scrolling")
	logLevel := fs.String("log-level", def.LogLevel, "debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		return config.Config{}, opts, err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return config.Config{}, opts, err
	}
	set := func(name string, apply func()) {
		if fs.Changed(name) {
			apply()
		}
	}
	set("broker", func() { cfg.Broker = *broker })
	set("topic", func() { cfg.Topic = *topic })
	set("client-id", func() { cfg.ClientID = *clientID })
	set("payload-format", func() { cfg.PayloadFormat = *format })
	set("layout", func() { cfg.Layout = *layout })
	set("animated", func() { cfg.Animated = *animated })
	set("log-level", func() { cfg.LogLevel = *logLevel })

	if opts.scale < 1 {
		return config.Config{}, opts, fmt.Errorf("invalid --scale %d", opts.scale)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, opts, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, opts, nil
}
