package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/thatsimonsguy/light-meter/internal/input"
)

// GPIO holds BCM line numbers. Fields tagged five_button are only wired on the
// five-button revision; optional fields may be left out entirely.
type GPIO struct {
	// buttons
	ButtonMode  *int `json:"button_mode"`
	ButtonLeft  *int `json:"button_left"`
	ButtonRight *int `json:"button_right"`
	ButtonHold  *int `json:"button_hold"`
	ButtonUp    *int `json:"button_up" wiring:"five_button"`
	ButtonDown  *int `json:"button_down" wiring:"five_button"`

	// display
	OLEDReset *int `json:"oled_reset" wiring:"optional"`
}

type Config struct {
	ConfigFile string        `json:"-"`
	LogLevel   zerolog.Level `json:"-"`

	Simulate bool   `json:"simulate"`
	LogFile  string `json:"log_file"`

	I2CBus          string `json:"i2c_bus"`
	SensorAutoRange bool   `json:"sensor_auto_range"`

	ButtonVariant string `json:"button_variant"`
	DebounceMs    int    `json:"debounce_ms"`
	LongPressMs   int    `json:"long_press_ms"`
	ButtonPollMs  int    `json:"button_poll_ms"`

	SampleIntervalMs  int   `json:"sample_interval_ms"`
	RefreshIntervalMs int   `json:"refresh_interval_ms"`
	OnlyForcedRefresh *bool `json:"only_forced_refresh"`

	Storage    string `json:"storage"` // "file" or "sqlite"
	RegionFile string `json:"region_file"`
	DBPath     string `json:"db_path"`

	ReadingLogSeconds int `json:"reading_log_seconds"` // 0 disables the reading log
	ReadingLogKeep    int `json:"reading_log_keep"`

	EnableDatadog bool     `json:"enable_datadog"`
	DDAgentAddr   string   `json:"dd_agent_addr"`
	DDNamespace   string   `json:"dd_namespace"`
	DDTags        []string `json:"dd_tags"`

	MQTTBroker         string `json:"mqtt_broker"` // empty disables MQTT
	MQTTTopic          string `json:"mqtt_topic"`
	MQTTClientID       string `json:"mqtt_client_id"`
	MQTTPublishSeconds int    `json:"mqtt_publish_seconds"`

	NtfyTopic string `json:"ntfy_topic"`

	APIPort int `json:"api_port"` // 0 disables the HTTP API

	BootScriptFilePath string `json:"boot_script_file_path"`
	GPIOServicePath    string `json:"gpio_service_path"`
	ServicePath        string `json:"service_path"`
	ServiceUser        string `json:"service_user"`
	ServiceWorkDir     string `json:"service_work_dir"`
	ServiceExec        string `json:"service_exec"`

	GPIO GPIO `json:"gpio"`
}

const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
)

func Load() Config {
	var cfg Config
	var logLevel string
	var simulate bool

	flag.StringVar(&cfg.ConfigFile, "config-file", "config.json", "Path to light meter config file")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.BoolVar(&simulate, "simulate", false, "Run the terminal simulator instead of real hardware")
	flag.Parse()

	cfg.LogLevel = ParseLogLevel(logLevel)

	file, err := os.Open(cfg.ConfigFile)
	switch {
	case errors.Is(err, fs.ErrNotExist) && simulate:
		// the simulator runs on defaults alone
	case err != nil:
		panic("Failed to load config file: " + err.Error())
	default:
		defer file.Close()
		if err := Decode(file, &cfg); err != nil {
			panic(err.Error())
		}
	}

	if simulate {
		cfg.Simulate = true
	}

	cfg.applyDefaults()
	cfg.validate()
	return cfg
}

// LoadFile reads a config without touching the process flags.
func LoadFile(path string) (Config, error) {
	cfg := Config{ConfigFile: path, LogLevel: zerolog.InfoLevel}

	file, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to load config file: %w", err)
	}
	defer file.Close()

	if err := Decode(file, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func Decode(r io.Reader, cfg *Config) error {
	if err := json.NewDecoder(r).Decode(cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func ParseLogLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (cfg *Config) applyDefaults() {
	if cfg.LogFile == "" {
		cfg.LogFile = "/var/log/light-meter.log"
	}
	if cfg.I2CBus == "" {
		cfg.I2CBus = "1"
	}
	if cfg.ButtonVariant == "" {
		cfg.ButtonVariant = input.ThreeButton.String()
	}
	if cfg.DebounceMs == 0 {
		cfg.DebounceMs = 30
	}
	if cfg.LongPressMs == 0 {
		cfg.LongPressMs = 600
	}
	if cfg.ButtonPollMs == 0 {
		cfg.ButtonPollMs = 5
	}
	if cfg.SampleIntervalMs == 0 {
		cfg.SampleIntervalMs = 250
	}
	if cfg.RefreshIntervalMs == 0 {
		cfg.RefreshIntervalMs = 100
	}
	// redraw only on request unless the file turns periodic refresh back on
	if cfg.OnlyForcedRefresh == nil {
		onlyForced := true
		cfg.OnlyForcedRefresh = &onlyForced
	}
	if cfg.Storage == "" {
		cfg.Storage = StorageFile
	}
	if cfg.RegionFile == "" {
		cfg.RegionFile = "data/settings.bin"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "data/light-meter.db"
	}
	if cfg.ReadingLogKeep == 0 {
		cfg.ReadingLogKeep = 10000
	}
	if cfg.DDAgentAddr == "" {
		cfg.DDAgentAddr = "127.0.0.1:8125"
	}
	if cfg.DDNamespace == "" {
		cfg.DDNamespace = "light_meter."
	}
	if cfg.MQTTTopic == "" {
		cfg.MQTTTopic = "light-meter/exposure"
	}
	if cfg.MQTTClientID == "" {
		cfg.MQTTClientID = "light-meter"
	}
	if cfg.MQTTPublishSeconds == 0 {
		cfg.MQTTPublishSeconds = 1
	}
	if cfg.BootScriptFilePath == "" {
		cfg.BootScriptFilePath = "/usr/local/bin/light-meter-gpio.sh"
	}
	if cfg.GPIOServicePath == "" {
		cfg.GPIOServicePath = "/etc/systemd/system/light-meter-gpio.service"
	}
	if cfg.ServicePath == "" {
		cfg.ServicePath = "/etc/systemd/system/light-meter.service"
	}
	if cfg.ServiceUser == "" {
		cfg.ServiceUser = "pi"
	}
	if cfg.ServiceWorkDir == "" {
		cfg.ServiceWorkDir = "/home/pi/light-meter"
	}
	if cfg.ServiceExec == "" {
		cfg.ServiceExec = "/usr/local/bin/light-meter -config-file config.json"
	}
}

func (cfg *Config) validate() {
	variant, err := input.ParseVariant(cfg.ButtonVariant)
	if err != nil {
		panic("Invalid button_variant: " + err.Error())
	}
	if cfg.Storage != StorageFile && cfg.Storage != StorageSQLite {
		panic(fmt.Sprintf("Invalid storage %q, expected %q or %q", cfg.Storage, StorageFile, StorageSQLite))
	}
	if cfg.SampleIntervalMs < 0 || cfg.RefreshIntervalMs < 0 || cfg.LongPressMs <= cfg.DebounceMs {
		panic("Invalid timing config: intervals must be positive and long_press_ms must exceed debounce_ms")
	}

	// the simulator has no pins
	if cfg.Simulate {
		return
	}

	var (
		missingFields []string
		usedPins      = map[int]string{}
		conflicts     []string
	)

	v := reflect.ValueOf(cfg.GPIO)
	t := reflect.TypeOf(cfg.GPIO)

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldName := t.Field(i).Tag.Get("json")
		wiring := t.Field(i).Tag.Get("wiring")

		if field.IsNil() {
			required := wiring == "" || (wiring == "five_button" && variant == input.FiveButton)
			if required {
				missingFields = append(missingFields, "gpio."+fieldName)
			}
			continue
		}

		pin := field.Elem().Int()
		if other, exists := usedPins[int(pin)]; exists {
			conflicts = append(conflicts, fmt.Sprintf("gpio.%s and gpio.%s both use pin %d", fieldName, other, pin))
		} else {
			usedPins[int(pin)] = fieldName
		}
	}

	if len(missingFields) > 0 {
		panic("Missing required GPIO config fields: " + strings.Join(missingFields, ", "))
	}
	if len(conflicts) > 0 {
		panic("Conflicting GPIO pins: " + strings.Join(conflicts, ", "))
	}
}

// Variant returns the configured button layout; validate has already rejected bad names.
func (cfg Config) Variant() input.Variant {
	v, _ := input.ParseVariant(cfg.ButtonVariant)
	return v
}

// ButtonPins maps the variant's buttons to their configured lines.
func (cfg Config) ButtonPins() map[input.Button]int {
	all := map[input.Button]*int{
		input.ButtonMode:  cfg.GPIO.ButtonMode,
		input.ButtonLeft:  cfg.GPIO.ButtonLeft,
		input.ButtonRight: cfg.GPIO.ButtonRight,
		input.ButtonHold:  cfg.GPIO.ButtonHold,
		input.ButtonUp:    cfg.GPIO.ButtonUp,
		input.ButtonDown:  cfg.GPIO.ButtonDown,
	}
	pins := make(map[input.Button]int)
	for _, b := range cfg.Variant().Buttons() {
		if p := all[b]; p != nil {
			pins[b] = *p
		}
	}
	return pins
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func (cfg Config) SampleInterval() time.Duration  { return ms(cfg.SampleIntervalMs) }
func (cfg Config) RefreshInterval() time.Duration { return ms(cfg.RefreshIntervalMs) }
func (cfg Config) Debounce() time.Duration        { return ms(cfg.DebounceMs) }
func (cfg Config) LongPress() time.Duration       { return ms(cfg.LongPressMs) }
func (cfg Config) ButtonPoll() time.Duration      { return ms(cfg.ButtonPollMs) }

// OnlyForced reports whether the display redraws only when asked to.
func (cfg Config) OnlyForced() bool {
	return cfg.OnlyForcedRefresh == nil || *cfg.OnlyForcedRefresh
}
