//go:build tinygo

package main

import (
	"context"
	"io"
	"log/slog"
	"machine"
	"net/netip"
	"time"

	"github.com/harveysanders/envdisplay/backlight"
	"github.com/harveysanders/envdisplay/config"
	"github.com/harveysanders/envdisplay/cyw43439"
	"github.com/harveysanders/envdisplay/gfx"
	"github.com/harveysanders/envdisplay/ingest"
	"github.com/harveysanders/envdisplay/input"
	"github.com/harveysanders/envdisplay/link"
	"github.com/harveysanders/envdisplay/logging"
	"github.com/harveysanders/envdisplay/mqtt"
	"github.com/harveysanders/envdisplay/render"
	"github.com/harveysanders/envdisplay/telemetry"
	"tinygo.org/x/drivers/st7789"
)

// Board wiring.
const (
	pinSCK   = machine.GP18
	pinSDO   = machine.GP19
	pinCS    = machine.GP17
	pinDC    = machine.GP16
	pinReset = machine.GP20
	pinBL    = machine.GP22 // PWM slice 3, channel A.
	debugLED = machine.GP21

	panelSize = 240
)

var buttons = input.Pins{
	input.Up:     machine.GP2,
	input.Down:   machine.GP3,
	input.Left:   machine.GP4,
	input.Right:  machine.GP5,
	input.Center: machine.GP6,
}

func main() {
	// Give the serial monitor a moment to attach.
	time.Sleep(2 * time.Second)

	cfg := config.Default()
	logger := logging.New(machine.Serial, cfg.Level())
	if err := cfg.Validate(); err != nil {
		printErrForever(logger, "config:invalid", slog.String("err", err.Error()))
	}
	if cfg.Broker == config.BrokerAuto {
		printErrForever(logger, "config:invalid", slog.String("err", "mDNS discovery is not available on the device"))
	}
	layout, err := render.LayoutByName(cfg.Layout)
	if err != nil {
		printErrForever(logger, "config:invalid", slog.String("err", err.Error()))
	}
	dec, err := telemetry.NewDecoder(cfg.PayloadFormat)
	if err != nil {
		printErrForever(logger, "config:invalid", slog.String("err", err.Error()))
	}

	led := debugLED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})

	panel, err := configurePanel()
	if err != nil {
		printErrForever(logger, "panel:configure-failed", slog.String("err", err.Error()))
	}
	if _, err := backlight.Configure(machine.PWM3, pinBL, cfg.Backlight); err != nil {
		logger.Error("backlight:configure-failed", slog.String("err", err.Error()))
	}
	buttons.Configure()

	store := telemetry.NewStore(telemetry.Snapshot{})
	status := &link.Status{}

	// The display runs from boot; telemetry shows up once the link is up.
	rw := render.New(gfx.NewDisplay(panel), input.NewReader(buttons, cfg.Cooldown), store, status, render.Config{
		Layout:    layout,
		Animated:  cfg.Animated,
		Smoothing: cfg.Smoothing,
		Tick:      cfg.Tick,
		Hold:      cfg.Hold,
		Logger:    logger,
	})
	go rw.Run(context.Background())

	stack, err := cyw43439.Join(cyw43439.SSID(), cyw43439.Password(), cyw43439.StackConfig{
		Hostname:    cfg.ClientID,
		MaxTCPPorts: 1,
		Logger:      logger,
	})
	if err != nil {
		printErrForever(logger, "wifi:setup-failed", slog.String("err", err.Error()))
	}
	go stack.Pump()
	if _, err := stack.SetupDHCP(netip.Addr{}); err != nil {
		printErrForever(logger, "dhcp:failed", slog.String("err", err.Error()))
	}

	host, port, err := mqtt.SplitHostPort(cfg.Broker)
	if err != nil {
		printErrForever(logger, "config:invalid", slog.String("err", err.Error()))
	}

	mgr := link.NewManager(link.Config{
		ClientID:      cfg.ClientID,
		Topic:         cfg.Topic,
		RetryInterval: cfg.RetryInterval,
		Logger:        logger,
	}, status, time.Now())
	iw := ingest.New(nil, dec, store, mgr, ingest.Config{
		InboxSize: cfg.InboxSize,
		Logger:    logger,
		OnAccept:  func(uint64) { led.Set(!led.Get()) },
	})
	iw.SetTransport(mqtt.NewClient(mqtt.ClientConfig{
		Timeout:   cfg.ConnectTimeout,
		Keepalive: cfg.Keepalive,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Logger:    logger,
		Dial: func() (io.ReadWriteCloser, error) {
			conn, err := stack.DialTCP(host, port, cfg.ConnectTimeout)
			if err != nil {
				return nil, err
			}
			return conn, nil
		},
	}, iw.Deliver))

	logger.Info("ingest:start", slog.String("broker", cfg.Broker), slog.String("topic", cfg.Topic))
	if err := iw.Run(context.Background()); err != nil {
		printErrForever(logger, "ingest:stopped", slog.String("err", err.Error()))
	}
}

// configurePanel sets up SPI0 and the 240x240 ST7789. The backlight pin is
// left to the PWM.
func configurePanel() (*st7789.Device, error) {
	err := machine.SPI0.Configure(machine.SPIConfig{
		Frequency: 62_500_000,
		SCK:       pinSCK,
		SDO:       pinSDO,
		Mode:      0,
	})
	if err != nil {
		return nil, err
	}
	panel := st7789.New(machine.SPI0, pinReset, pinDC, pinCS, machine.NoPin)
	panel.Configure(st7789.Config{
		Width:    panelSize,
		Height:   panelSize,
		Rotation: st7789.NO_ROTATION,
	})
	return &panel, nil
}

// printErrForever logs msg once a second. It blocks forever so the error is
// seen even when the serial monitor attaches late.
func printErrForever(logger *slog.Logger, msg string, args ...any) {
	for {
		logger.Error(msg, args...)
		time.Sleep(time.Second)
	}
}
