package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/thatsimonsguy/light-meter/db"
	"github.com/thatsimonsguy/light-meter/internal/api"
	"github.com/thatsimonsguy/light-meter/internal/app"
	"github.com/thatsimonsguy/light-meter/internal/buttons"
	"github.com/thatsimonsguy/light-meter/internal/config"
	"github.com/thatsimonsguy/light-meter/internal/datadog"
	"github.com/thatsimonsguy/light-meter/internal/display"
	"github.com/thatsimonsguy/light-meter/internal/env"
	"github.com/thatsimonsguy/light-meter/internal/logging"
	"github.com/thatsimonsguy/light-meter/internal/notifications"
	"github.com/thatsimonsguy/light-meter/internal/sensor"
	"github.com/thatsimonsguy/light-meter/internal/sim"
	"github.com/thatsimonsguy/light-meter/internal/store"
	"github.com/thatsimonsguy/light-meter/internal/telemetry"
	"github.com/thatsimonsguy/light-meter/system/shutdown"
)

// simulatedLux is roughly an overcast day
const simulatedLux = 2000

func main() {
	cfg := config.Load()
	env.Cfg = &cfg

	// the simulator owns the terminal, so logs only go to the file there
	logging.Init(cfg.LogLevel, cfg.LogFile, !cfg.Simulate)

	log.Info().
		Str("config_file", cfg.ConfigFile).
		Bool("simulate", cfg.Simulate).
		Str("buttons", cfg.Variant().String()).
		Msg("Starting light meter")

	datadog.InitMetrics()
	notifications.Init()

	region, database, err := openStorage(cfg)
	if err != nil {
		shutdown.ShutdownWithError(err, "Failed to open settings storage")
		return
	}
	if database != nil {
		shutdown.OnExit(func() {
			if err := database.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close database")
			}
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	shutdown.OnExit(cancel)

	hw := app.Hardware{
		Region: region,
		Sink:   buildSinks(cfg, database),
	}

	var simSensor *sim.Sensor
	var screen *sim.Screen
	var poller *buttons.Poller
	if cfg.Simulate {
		simSensor = sim.NewSensor(simulatedLux)
		screen = &sim.Screen{}
		hw.Sensor, hw.Renderer = simSensor, screen
	} else {
		poller, err = openHardware(cfg, &hw)
		if err != nil {
			shutdown.ShutdownWithError(err, "Failed to open meter hardware")
			return
		}
	}

	opts := app.DefaultOptions()
	opts.SampleInterval = cfg.SampleInterval()
	opts.RefreshInterval = cfg.RefreshInterval()
	opts.OnlyForced = cfg.OnlyForced()

	meter, err := app.New(hw, opts)
	if errors.Is(err, app.ErrSensorInit) {
		if notifications.Enabled() {
			if nerr := notifications.Send("Light meter fault", err.Error()); nerr != nil {
				log.Warn().Err(nerr).Msg("Failed to send fault notification")
			}
		}
		shutdown.ShutdownWithError(err, "Light sensor failed to start")
		return
	}
	if err != nil {
		shutdown.ShutdownWithError(err, "Failed to start light meter")
		return
	}

	if cfg.APIPort > 0 {
		server := api.NewServer(meter.Meter, meter.Controller, opts.Matrix, database)
		go func() {
			if err := server.Start(cfg.APIPort); err != nil {
				log.Error().Err(err).Msg("API server stopped")
			}
		}()
	}

	if poller != nil {
		go poller.Run(ctx, meter.Controller.Events())
	}
	go meter.Run(ctx)

	if cfg.Simulate {
		model := sim.NewModel(ctx, simSensor, screen, meter.Controller, cfg.Variant())
		if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
			shutdown.ShutdownWithError(err, "Simulator failed")
			return
		}
		shutdown.Shutdown()
		return
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigs
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	shutdown.Shutdown()
}

// openStorage returns the settings region and, with sqlite storage, the database
// it lives in. The reading log needs the database, so it is opened for either
// storage whenever logging is enabled.
func openStorage(cfg config.Config) (store.Region, *sql.DB, error) {
	for _, path := range []string{cfg.RegionFile, cfg.DBPath} {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	var database *sql.DB
	if cfg.Storage == config.StorageSQLite || cfg.ReadingLogSeconds > 0 {
		conn, err := db.Open(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		database = conn
		log.Info().Str("path", cfg.DBPath).Msg("Database opened")
	}

	if cfg.Storage == config.StorageSQLite {
		return db.NewRegion(database, store.RegionSize), database, nil
	}
	return store.NewFileRegion(cfg.RegionFile), database, nil
}

func buildSinks(cfg config.Config, database *sql.DB) telemetry.Sink {
	sinks := telemetry.Fanout{}

	if cfg.EnableDatadog {
		sinks = append(sinks, telemetry.Metrics{})
	}

	if database != nil && cfg.ReadingLogSeconds > 0 {
		recorder := telemetry.NewRecorder(database, cfg.ReadingLogKeep)
		sinks = append(sinks, telemetry.Throttle(recorder, time.Duration(cfg.ReadingLogSeconds)*time.Second))
	}

	if cfg.MQTTBroker != "" {
		client, err := telemetry.ConnectMQTT(cfg.MQTTBroker, cfg.MQTTClientID)
		if err != nil {
			// MQTT is optional; the meter works without it
			log.Warn().Err(err).Msg("MQTT disabled")
		} else {
			shutdown.OnExit(func() { client.Disconnect(250) })
			publisher := telemetry.NewMQTT(client, cfg.MQTTTopic)
			sinks = append(sinks, telemetry.Throttle(publisher, time.Duration(cfg.MQTTPublishSeconds)*time.Second))
		}
	}

	if len(sinks) == 0 {
		return nil
	}
	return sinks
}

// openHardware brings up the periph host, the sensor, the panel and the buttons.
func openHardware(cfg config.Config, hw *app.Hardware) (*buttons.Poller, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}

	bus, err := i2creg.Open(cfg.I2CBus)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", cfg.I2CBus, err)
	}

	var reset gpio.PinOut
	if cfg.GPIO.OLEDReset != nil {
		pin := gpioreg.ByName(strconv.Itoa(*cfg.GPIO.OLEDReset))
		if pin == nil {
			return nil, fmt.Errorf("gpio %d for oled reset not found", *cfg.GPIO.OLEDReset)
		}
		reset = pin
	}

	panel, err := display.OpenSSD1306(bus, reset)
	if err != nil {
		return nil, err
	}

	hw.Sensor = sensor.OpenVEML7700(bus, cfg.SensorAutoRange)
	hw.Renderer = display.NewOLED(panel)

	pins := cfg.ButtonPins()
	if err := buttons.AuditPins(pins); err != nil {
		log.Warn().Err(err).Msg("Button pin audit failed")
	}
	levels, err := buttons.Open(pins)
	if err != nil {
		return nil, err
	}

	return buttons.NewPoller(cfg.Variant(), levels, cfg.Debounce(), cfg.LongPress(), cfg.ButtonPoll()), nil
}
