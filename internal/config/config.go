package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/proximity-alert/internal/cadence"
	"github.com/oshokin/proximity-alert/internal/controller"
	"github.com/oshokin/proximity-alert/internal/depth"
	"github.com/oshokin/proximity-alert/internal/logger"
)

// Sensor sources.
const (
	// SourceScenario replays a scripted YAML scenario.
	SourceScenario = "scenario"
	// SourceSerial reads binary depth frames from a serial port.
	SourceSerial = "serial"
)

// Config holds the settings shared by the proximity binaries.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// Timeout bounds network operations and RPC calls.
	Timeout time.Duration `yaml:"timeout"`
	// Sensor selects and configures the depth frame source.
	Sensor Sensor `yaml:"sensor"`
	// Throttle bounds the processing rate.
	Throttle Throttle `yaml:"throttle"`
	// Alert tunes the alert policy.
	Alert Alert `yaml:"alert"`
	// API configures the network surfaces.
	API API `yaml:"api"`

	// sensorUnused skips sensor validation for binaries that never open one.
	sensorUnused bool
}

// Sensor configures where depth frames come from.
type Sensor struct {
	// Source is "scenario" or "serial".
	Source string `yaml:"source"`
	// ScenarioFile is the YAML scenario replayed by the scenario source.
	ScenarioFile string `yaml:"scenario_file"`
	// SerialPort is the device path of the serial sensor.
	SerialPort string `yaml:"serial_port"`
	// BaudRate of the serial link.
	BaudRate int `yaml:"baud_rate"`
	// DataBits of the serial link.
	DataBits int `yaml:"data_bits"`
	// StopBits of the serial link, 1 or 2.
	StopBits int `yaml:"stop_bits"`
	// Parity of the serial link: N, E or O.
	Parity string `yaml:"parity"`
}

// Throttle configures the frame throttle.
type Throttle struct {
	// MinFrameInterval is the minimum spacing between processed frames.
	MinFrameInterval time.Duration `yaml:"min_frame_interval"`
}

// Alert configures the alert policy.
type Alert struct {
	// CriticalDistance in meters marks readings as critical below it.
	CriticalDistance float64 `yaml:"critical_distance"`
	// Cadence is the distance band table, closest band first.
	Cadence []cadence.Band `yaml:"cadence"`
}

// API configures the status and dashboard endpoints.
type API struct {
	// GRPCAddress is where the status service listens and where the monitor connects.
	GRPCAddress string `yaml:"grpc_address"`
	// WebSocketAddress enables the dashboard stream when set.
	WebSocketAddress string `yaml:"websocket_address"`
}

const (
	// DefaultConfigFilename is the default settings file.
	DefaultConfigFilename = "proximity-alert-settings.yaml"

	// DefaultGRPCAddress is the default status service address.
	DefaultGRPCAddress = "127.0.0.1:50071"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultFilePermissions is the permission used when saving settings.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errUnknownSource is returned for an unsupported sensor source.
	errUnknownSource = errors.New("unknown sensor source")
	// errScenarioRequired is returned when the scenario source has no file.
	errScenarioRequired = errors.New("scenario source requires scenario_file")
	// errSerialPortRequired is returned when the serial source has no device.
	errSerialPortRequired = errors.New("serial source requires serial_port")
	// errUnknownLogLevel is returned for an unparsable log level.
	errUnknownLogLevel = errors.New("unknown log level")
	// errInvalidThrottle is returned for a non-positive throttle interval.
	errInvalidThrottle = errors.New("min_frame_interval must be positive")
	// errInvalidCritical is returned for a non-positive critical distance.
	errInvalidCritical = errors.New("critical_distance must be positive")
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{
		Sensor: Sensor{
			Source: SourceScenario,
		},
	}
	applyDefaults(cfg)

	return cfg
}

// Override adjusts a loaded configuration before it is validated.
type Override func(cfg *Config)

// WithoutSensor is an Override for binaries that only talk to a running engine.
// The sensor section may then be incomplete.
func WithoutSensor(cfg *Config) {
	cfg.sensorUnused = true
}

// Load reads configuration from the provided path, applies the overrides,
// then fills defaults and validates the result.
func Load(path string, overrides ...Override) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	for _, override := range overrides {
		override(&cfg)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save validates cfg and writes it to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills defaults and rejects misconfiguration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.Throttle.MinFrameInterval < 0 {
		return fmt.Errorf("%w: %s", errInvalidThrottle, cfg.Throttle.MinFrameInterval)
	}

	if cfg.Alert.CriticalDistance < 0 {
		return fmt.Errorf("%w: %v", errInvalidCritical, cfg.Alert.CriticalDistance)
	}

	applyDefaults(cfg)

	if _, ok := logger.ParseLogLevel(cfg.LogLevel); !ok {
		return fmt.Errorf("%w: %q", errUnknownLogLevel, cfg.LogLevel)
	}

	if err := cadence.Validate(cfg.Alert.Cadence); err != nil {
		return fmt.Errorf("invalid cadence table: %w", err)
	}

	if !cfg.sensorUnused {
		if err := validateSensor(&cfg.Sensor); err != nil {
			return err
		}
	}

	if _, err := net.ResolveTCPAddr("tcp", cfg.API.GRPCAddress); err != nil {
		return fmt.Errorf("invalid grpc address: %w", err)
	}

	if cfg.API.WebSocketAddress == "" {
		return nil
	}

	if _, err := net.ResolveTCPAddr("tcp", cfg.API.WebSocketAddress); err != nil {
		return fmt.Errorf("invalid websocket address: %w", err)
	}

	return nil
}

// Settings converts the alert and throttle sections into controller tunables.
func (c *Config) Settings() controller.Settings {
	return controller.Settings{
		MinFrameInterval: c.Throttle.MinFrameInterval,
		CriticalDistance: c.Alert.CriticalDistance,
		Bands:            append([]cadence.Band(nil), c.Alert.Cadence...),
	}
}

// applyDefaults fills every unset field.
func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.Throttle.MinFrameInterval == 0 {
		cfg.Throttle.MinFrameInterval = depth.DefaultMinInterval
	}

	if cfg.Alert.CriticalDistance == 0 {
		cfg.Alert.CriticalDistance = controller.DefaultCriticalDistance
	}

	if len(cfg.Alert.Cadence) == 0 {
		cfg.Alert.Cadence = cadence.DefaultBands()
	}

	if cfg.API.GRPCAddress == "" {
		cfg.API.GRPCAddress = DefaultGRPCAddress
	}

	cfg.Sensor.Source = strings.ToLower(strings.TrimSpace(cfg.Sensor.Source))
	if cfg.Sensor.Source == "" {
		cfg.Sensor.Source = SourceScenario
	}
}

// validateSensor checks the source-specific settings.
func validateSensor(s *Sensor) error {
	switch s.Source {
	case SourceScenario:
		if s.ScenarioFile == "" {
			return errScenarioRequired
		}
	case SourceSerial:
		if s.SerialPort == "" {
			return errSerialPortRequired
		}
	default:
		return fmt.Errorf("%w: %q", errUnknownSource, s.Source)
	}

	return nil
}
