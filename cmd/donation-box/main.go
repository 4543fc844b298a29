// Command donation-box drives the donation box: it watches the coin sensor,
// animates the LED strip through a rotation of modes and publishes donations
// to MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sweeney/donation-box/internal/audio"
	"github.com/sweeney/donation-box/internal/config"
	"github.com/sweeney/donation-box/internal/controller"
	"github.com/sweeney/donation-box/internal/event"
	"github.com/sweeney/donation-box/internal/gpio"
	"github.com/sweeney/donation-box/internal/led"
	"github.com/sweeney/donation-box/internal/ledger"
	"github.com/sweeney/donation-box/internal/logging"
	"github.com/sweeney/donation-box/internal/metrics"
	"github.com/sweeney/donation-box/internal/modes"
	"github.com/sweeney/donation-box/internal/mqtt"
	"github.com/sweeney/donation-box/internal/sensor"
	"github.com/sweeney/donation-box/internal/sim"
	"github.com/sweeney/donation-box/internal/status"
	"github.com/sweeney/donation-box/internal/web"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config (defaults used when empty)")
	logLevel := flag.String("log-level", "", "Override log level (debug, info, warn, error)")
	printState := flag.Bool("print-state", false, "Print current sensor level and exit")
	simulate := flag.Bool("sim", false, "Run in the terminal: keyboard sensor, on-screen strip")

	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "fatal: load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	closeLog, err := logging.Init(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File})
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := run(cfg, *printState, *simulate); err != nil {
		log.Fatal().Err(err).Msg("fatal")
	}
}

func run(cfg *config.Config, printState, simulate bool) error {
	if printState {
		reader, err := gpio.NewRealReader(cfg.Sensor.Chip, cfg.Sensor.Pin, cfg.Sensor.IsActiveLow())
		if err != nil {
			return fmt.Errorf("init gpio: %w", err)
		}
		defer reader.Close()
		level, err := reader.Read()
		if err != nil {
			return fmt.Errorf("read gpio: %w", err)
		}
		fmt.Printf("sensor: %s\n", sensorString(level))
		return nil
	}

	commands := controller.NewCommands(8)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:      cfg.PollInterval.Duration().Milliseconds(),
		CooldownMs:  cfg.Sensor.Cooldown.Duration().Milliseconds(),
		HeartbeatMs: cfg.HeartbeatInterval().Milliseconds(),
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTP.Addr,
		LEDDriver:   cfg.LED.Driver,
		LEDCount:    cfg.LED.Count,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	if simulate {
		term, err := sim.New(cfg.LED.Count,
			sim.WithNext(func() {
				if err := commands.Next(); err != nil {
					log.Warn().Err(err).Msg("next mode dropped")
				}
			}),
			sim.WithCaption(func() string { return caption(tracker.Snapshot()) }),
		)
		if err != nil {
			return fmt.Errorf("init terminal: %w", err)
		}
		defer term.Close()
		go term.Run()
		go func() {
			<-term.Done()
			sigCh <- syscall.SIGINT
		}()
		return runWith(cfg, term, term, tracker, commands, sigCh)
	}

	reader, err := gpio.NewRealReader(cfg.Sensor.Chip, cfg.Sensor.Pin, cfg.Sensor.IsActiveLow())
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer reader.Close()

	var strip led.Strip = led.NewBuffer(cfg.LED.Count)
	if cfg.LED.Driver == "ws281x" {
		hw, err := led.NewWS281x(cfg.LED.GPIOPin, cfg.LED.Count, uint8(cfg.LED.Brightness))
		if err != nil {
			log.Warn().Err(err).Msg("led strip unavailable; rendering to memory")
		} else {
			defer hw.Close()
			strip = hw
		}
	}

	return runWith(cfg, reader, strip, tracker, commands, sigCh)
}

// runWith builds the controller and its collaborators around reader and strip
// and runs the control loop until a signal arrives.
func runWith(cfg *config.Config, reader gpio.Reader, strip led.Strip, tracker *status.Tracker, commands controller.Commands, sigCh <-chan os.Signal) error {
	strip.Clear()
	if err := strip.Present(); err != nil {
		log.Warn().Err(err).Msg("initial strip clear failed")
	}

	detector := sensor.NewDetector(reader, cfg.Sensor.Cooldown.Duration())
	if err := detector.Initialize(time.Now()); err != nil {
		log.Warn().Err(err).Msg("sensor not readable at startup")
	}

	var button controller.EdgeSource
	if cfg.Button.Pin != 0 {
		btnReader, err := gpio.NewRealReader(cfg.Sensor.Chip, cfg.Button.Pin, true)
		if err != nil {
			log.Warn().Err(err).Int("pin", cfg.Button.Pin).Msg("button unavailable")
		} else {
			defer btnReader.Close()
			btn := sensor.NewDetector(btnReader, cfg.Button.Cooldown.Duration())
			if err := btn.Initialize(time.Now()); err != nil {
				log.Warn().Err(err).Msg("button not readable at startup")
			}
			button = btn
		}
	}

	player := initAudio(cfg.Audio, tracker)
	if c, ok := player.(interface{ Close() }); ok {
		defer c.Close()
	}

	// Telemetry sinks
	var publisher mqtt.Publisher = mqtt.Disabled{}
	var mqttStatus mqtt.ConnectionStatus = mqtt.Disabled{}
	if cfg.MQTT.Broker != "" {
		p := mqtt.NewRealPublisher(mqtt.Options{
			Broker:     cfg.MQTT.Broker,
			ClientID:   cfg.MQTT.ClientID,
			BaseTopic:  cfg.MQTT.BaseTopic,
			Username:   cfg.MQTT.Username,
			Password:   cfg.MQTT.Password,
			BufferSize: cfg.MQTT.BufferSize,
		})
		publisher, mqttStatus = p, p
	}
	defer publisher.Close()
	if cfg.MQTT.Broker != "" {
		defer forwardLogs(publisher, cfg.MQTT.LogLevel)()
	}

	sinks := event.Fanout{publisher}
	if cfg.Statsd.Addr != "" {
		m, err := metrics.New(cfg.Statsd.Addr, cfg.Statsd.Namespace, cfg.Statsd.Tags)
		if err != nil {
			log.Warn().Err(err).Msg("metrics disabled")
		} else {
			defer m.Close()
			sinks = append(sinks, m)
		}
	}
	var history web.History
	if cfg.Ledger.Path != "" {
		l, err := ledger.Open(cfg.Ledger.Path)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.Ledger.Path).Msg("ledger disabled")
		} else {
			defer l.Close()
			sinks = append(sinks, l)
			history = l
		}
	}

	// Modes
	strategies, err := modes.Build(cfg.Modes.Order, cfg.Modes.Durations(), modes.Deps{
		Strip:  strip,
		Audio:  player,
		Sounds: modes.Sounds{Base: cfg.Audio.DonationBase, Count: cfg.Audio.DonationCount},
	})
	if err != nil {
		return fmt.Errorf("build modes: %w", err)
	}

	ctrl := controller.New(detector,
		controller.WithTelemetry(sinks),
		controller.WithHeartbeat(cfg.HeartbeatInterval()),
	)
	views := make([]status.ModeView, 0, len(strategies))
	for _, s := range strategies {
		if err := ctrl.Register(s); err != nil {
			log.Warn().Err(err).Msg("mode skipped")
			continue
		}
		views = append(views, status.ModeView{Info: s.Info(), EffectMs: s.EffectDuration().Milliseconds()})
	}
	tracker.SetModes(views)

	// Publish startup event with full status snapshot
	tracker.SetMQTTConnected(mqttStatus.IsConnected())
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      mqtt.EventStartup,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, mqtt.EventStartup, ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Warn().Err(err).Msg("failed to publish startup event")
	}

	// Start HTTP status server
	if cfg.HTTP.Addr != "" {
		opts := []web.Option{web.WithSwitcher(commands)}
		if history != nil {
			opts = append(opts, web.WithHistory(history))
		}
		srv := web.New(cfg.HTTP.Addr, tracker, opts...)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("http server error")
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Info().Str("addr", cfg.HTTP.Addr).Msg("http status server listening")
	}

	if err := ctrl.Start(time.Now()); err != nil {
		log.Warn().Err(err).Msg("controller idle")
	}

	log.Info().
		Dur("poll", cfg.PollInterval.Duration()).
		Dur("cooldown", cfg.Sensor.Cooldown.Duration()).
		Dur("heartbeat", cfg.HeartbeatInterval()).
		Str("broker", cfg.MQTT.Broker).
		Int("modes", ctrl.ModeCount()).
		Msg("started")

	ticker := time.NewTicker(cfg.PollInterval.Duration())
	defer ticker.Stop()

	return runLoop(&loop{
		ctrl:       ctrl,
		sensor:     detector,
		button:     button,
		publisher:  publisher,
		mqttStatus: mqttStatus,
		tracker:    tracker,
		commands:   commands,
	}, time.Now, ticker.C, sigCh)
}

// forwardLogs mirrors global log lines at or above level to the logs topic.
// "disabled" turns forwarding off. The returned func stops it.
func forwardLogs(sink mqtt.LogSink, level string) func() error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl > zerolog.PanicLevel {
		return func() error { return nil }
	}
	fwd := mqtt.NewLogForwarder(sink, lvl, 0)
	log.Logger = log.Logger.Hook(fwd)
	return fwd.Close
}

func initAudio(cfg config.AudioConfig, tracker *status.Tracker) audio.Player {
	if !cfg.Enabled {
		return audio.Nop{}
	}
	in := audio.Initializer{Attempts: cfg.InitAttempts, Delay: cfg.RetryDelay.Duration()}
	player, st := in.Init(func() (audio.Player, error) {
		p, err := audio.NewBeepPlayer(cfg.Dir, cfg.Volume)
		if err != nil {
			return nil, err
		}
		return p, nil
	})
	tracker.SetAudio(st.String())
	if player.Ready() && cfg.StartupTrack > 0 {
		player.PlayTrack(cfg.StartupTrack)
	}
	return player
}

// loop holds what the control loop touches between ticks. Everything except
// ctrl and tracker is optional.
type loop struct {
	ctrl       *controller.Controller
	sensor     interface{ IsActive() bool }
	button     controller.EdgeSource
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	commands   controller.Commands
}

func runLoop(l *loop, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			log.Info().Str("signal", s.String()).Msg("shutting down")
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			l.refresh()
			snap := l.tracker.Snapshot()
			e := mqtt.SystemEvent{
				Timestamp:  now(),
				Event:      mqtt.EventShutdown,
				Reason:     signalName,
				Retained:   true,
				RawPayload: status.FormatStatusEvent(snap, mqtt.EventShutdown, signalName),
			}
			if err := l.publisher.PublishSystem(e); err != nil {
				log.Warn().Err(err).Msg("failed to publish shutdown event")
			} else {
				log.Info().Msg("published shutdown event")
			}
			return nil

		case cmd := <-l.commands:
			if err := l.ctrl.Apply(cmd, now()); err != nil {
				log.Warn().Err(err).Bool("next", cmd.Next).Int("index", cmd.Index).Msg("mode command rejected")
			}
			l.refresh()

		case <-tick:
			t := now()
			res := l.ctrl.Tick(t)
			if res.Donation != nil {
				l.tracker.RecordDonation(t)
			}

			if l.button != nil {
				if err := l.button.Poll(t); err != nil {
					log.Warn().Err(err).Msg("button poll failed")
				} else if l.button.ConsumeRisingEdge() {
					if err := l.ctrl.SwitchToNext(t); err != nil {
						log.Warn().Err(err).Msg("button switch failed")
					}
				}
			}

			if res.Heartbeat != nil {
				// Refresh network info for heartbeat
				if net := readNetworkInfo(); net != nil {
					l.tracker.SetNetwork(net)
				}
			}
			l.refresh()
		}
	}
}

// refresh copies controller state into the tracker for HTTP consumers.
func (l *loop) refresh() {
	sensorActive := false
	if l.sensor != nil {
		sensorActive = l.sensor.IsActive()
	}
	l.tracker.Update(l.ctrl.CurrentModeName(), l.ctrl.CurrentIndex(), l.ctrl.CurrentState(), l.ctrl.Counts(), sensorActive)
	if l.mqttStatus != nil {
		l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

func sensorString(blocked bool) string {
	if blocked {
		return "BLOCKED"
	}
	return "CLEAR"
}

func caption(snap status.Snapshot) string {
	return fmt.Sprintf("mode: %s (%s)  donations: %d", snap.Mode, snap.State, snap.Counts.Donations)
}
