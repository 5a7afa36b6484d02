// Package config loads the board configuration and builds the boot
// dispatcher from it.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/robotalks/biosboot/pkg/boot"
	"github.com/robotalks/biosboot/pkg/sfl"
)

// Config describes the simulated board and its boot sequence.
type Config struct {
	Boot     BootConfig      `yaml:"boot"`
	Serial   SerialConfig    `yaml:"serial"`
	Memory   MemoryConfig    `yaml:"memory"`
	Rom      *RomConfig      `yaml:"rom,omitempty"`
	Flash    *FlashConfig    `yaml:"flash,omitempty"`
	SpiFlash *SpiFlashConfig `yaml:"spiflash,omitempty"`
	Net      *NetConfig      `yaml:"net,omitempty"`
	Diag     DiagConfig      `yaml:"diag"`
}

// BootConfig is the boot sequence.
type BootConfig struct {
	Methods      []boot.Method        `yaml:"methods"`
	OnExhausted  boot.ExhaustedPolicy `yaml:"on_exhausted"`
	RestartDelay time.Duration        `yaml:"restart_delay"`
	MaxRounds    int                  `yaml:"max_rounds"`
}

// SerialConfig configures the serial boot link.
type SerialConfig struct {
	// Device is a UART device path, or ws://host:port/path to listen for a
	// websocket virtual UART. Empty for no serial link.
	Device              string        `yaml:"device"`
	Baud                int           `yaml:"baud"`
	ByteTimeout         time.Duration `yaml:"byte_timeout"`
	SessionTimeout      time.Duration `yaml:"session_timeout"`
	MaxProtocolErrors   int           `yaml:"max_protocol_errors"`
	MaxBoundsViolations int           `yaml:"max_bounds_violations"`
}

// MemoryConfig declares the load region.
type MemoryConfig struct {
	RAMBase uint32 `yaml:"ram_base"`
	RAMSize uint32 `yaml:"ram_size"`
}

// RomConfig maps a ROM image file.
type RomConfig struct {
	Base uint32 `yaml:"base"`
	File string `yaml:"file"`
}

// FlashConfig maps internal memory-mapped flash. The file content is padded
// to Size with erased bytes.
type FlashConfig struct {
	Base uint32 `yaml:"base"`
	Size uint32 `yaml:"size"`
	File string `yaml:"file"`
}

// SpiFlashConfig describes a SPI flash dump file.
type SpiFlashConfig struct {
	File     string `yaml:"file"`
	Offset   int64  `yaml:"offset"`
	PageSize int64  `yaml:"page_size"`
	// LoadAddr defaults to the RAM base.
	LoadAddr *uint32 `yaml:"load_addr,omitempty"`
}

// NetConfig describes the boot server, a local directory or an HTTP URL.
type NetConfig struct {
	Dir     string        `yaml:"dir"`
	URL     string        `yaml:"url"`
	Files   []string      `yaml:"files"`
	Timeout time.Duration `yaml:"timeout"`
	// LoadAddr defaults to the RAM base.
	LoadAddr *uint32 `yaml:"load_addr,omitempty"`
}

// DiagConfig configures diagnostics.
type DiagConfig struct {
	// MQTT broker URL, e.g. mqtt://localhost:1883/lab, empty to disable.
	MQTT    string `yaml:"mqtt"`
	Board   string `yaml:"board"`
	History int    `yaml:"history"`
}

var (
	defaultConfig = Config{
		Boot: BootConfig{
			Methods:      boot.DefaultConfig().Methods,
			RestartDelay: time.Second,
		},
		Serial: SerialConfig{
			Baud:                115200,
			ByteTimeout:         sfl.DefaultConfig().ByteTimeout,
			SessionTimeout:      sfl.DefaultConfig().SessionTimeout,
			MaxProtocolErrors:   sfl.DefaultConfig().MaxProtocolErrors,
			MaxBoundsViolations: sfl.DefaultConfig().MaxBoundsViolations,
		},
		Memory: MemoryConfig{
			RAMBase: 0x40000000,
			RAMSize: 0x100000,
		},
	}

	configFile string
	overrides  struct {
		serial string
		mqtt   string
		order  string
	}
)

func init() {
	if val := os.Getenv("BIOS_CONFIG"); val != "" {
		configFile = val
	}
	if val := os.Getenv("BIOS_SERIAL"); val != "" {
		overrides.serial = val
	}
	if val := os.Getenv("BIOS_MQTT"); val != "" {
		overrides.mqtt = val
	}
	if val := os.Getenv("BIOS_BOOT_ORDER"); val != "" {
		overrides.order = val
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&configFile, "config", configFile, "Board config file (YAML).")
	flag.StringVar(&overrides.serial, "serial", overrides.serial, "Serial boot device or ws:// listen URL.")
	flag.StringVar(&overrides.mqtt, "mqtt", overrides.mqtt, "MQTT broker URL for boot events.")
	flag.StringVar(&overrides.order, "boot-order", overrides.order, "Comma separated boot methods, e.g. serial,flash,rom,net.")
}

// Default returns a copy of the default config.
func Default() *Config {
	conf := defaultConfig
	conf.Boot.Methods = append([]boot.Method(nil), defaultConfig.Boot.Methods...)
	return &conf
}

// NewConfig creates the config from defaults, the config file if any, then
// environment and command line overrides.
func NewConfig() (*Config, error) {
	conf := Default()
	if configFile != "" {
		f, err := os.Open(configFile)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if err = Parse(f, conf); err != nil {
			return nil, fmt.Errorf("%s: %w", configFile, err)
		}
	}
	if overrides.serial != "" {
		conf.Serial.Device = overrides.serial
	}
	if overrides.mqtt != "" {
		conf.Diag.MQTT = overrides.mqtt
	}
	if overrides.order != "" {
		methods, err := ParseMethods(overrides.order)
		if err != nil {
			return nil, err
		}
		conf.Boot.Methods = methods
	}
	return conf, nil
}

// MustNewConfig is NewConfig exiting on error.
func MustNewConfig() *Config {
	conf, err := NewConfig()
	if err != nil {
		log.Fatalln(err)
	}
	return conf
}

// Load reads a config file on top of the defaults.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	conf := Default()
	if err = Parse(f, conf); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return conf, nil
}

// Parse decodes YAML into conf. Unknown keys are errors.
func Parse(r io.Reader, conf *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(conf); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ParseMethods parses a comma separated method list.
func ParseMethods(s string) ([]boot.Method, error) {
	var methods []boot.Method
	for _, name := range strings.Split(s, ",") {
		if name = strings.TrimSpace(name); name == "" {
			continue
		}
		m, err := boot.ParseMethod(name)
		if err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}
	return methods, nil
}

// BootConfig converts to the dispatcher config.
func (c *Config) BootConfig() boot.Config {
	return boot.Config{
		Methods: append([]boot.Method(nil), c.Boot.Methods...),
		Serial: sfl.Config{
			ByteTimeout:         c.Serial.ByteTimeout,
			SessionTimeout:      c.Serial.SessionTimeout,
			MaxProtocolErrors:   c.Serial.MaxProtocolErrors,
			MaxBoundsViolations: c.Serial.MaxBoundsViolations,
		},
		OnExhausted:  c.Boot.OnExhausted,
		RestartDelay: c.Boot.RestartDelay,
		MaxRounds:    c.Boot.MaxRounds,
	}
}
