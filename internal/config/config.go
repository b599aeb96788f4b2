package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/coreman2200/funtimes-stationchain/internal/sequence"
)

type SPI struct {
	Dev     string `yaml:"dev"`      // e.g. /dev/spidev0.0, "" for the first port
	SpeedHz int    `yaml:"speed_hz"` // e.g. 2400000
}

type Link struct {
	Dev  string `yaml:"dev"` // serial device, "-" for stdin/stdout, "" for none
	Baud int    `yaml:"baud"`
}

type Config struct {
	StationCount int     `yaml:"station_count"`
	LEDs         int     `yaml:"leds"`
	FPS          int     `yaml:"fps"`
	Brightness   int     `yaml:"brightness"` // 0..255
	Gamma        bool    `yaml:"gamma"`
	Seed         int64   `yaml:"seed"`
	SensorRate   float64 `yaml:"sensor_rate"`
	MaxLine      int     `yaml:"max_line"`
	WhiteCap     float64 `yaml:"white_cap"` // fraction of full white; 0 = off

	Driver     string `yaml:"driver"` // "spi" | "sim"
	SPI        SPI    `yaml:"spi,omitempty"`
	Upstream   Link   `yaml:"upstream"`
	Downstream Link   `yaml:"downstream"`
	HTTPAddr   string `yaml:"http_addr"`

	IdleAttractS float64         `yaml:"idle_attract_s"`
	Attract      []sequence.Clip `yaml:"attract"`

	LogLevel string `yaml:"log_level"`
}

func Default() *Config {
	return &Config{
		StationCount: 8,
		LEDs:         228,
		FPS:          60,
		Brightness:   64,
		Gamma:        true,
		Seed:         1,
		SensorRate:   4,
		MaxLine:      64,
		Driver:       "sim",
		SPI:          SPI{SpeedHz: 2400000},
		Upstream:     Link{Dev: "-", Baud: 9600},
		Downstream:   Link{Baud: 9600},
		HTTPAddr:     ":8080",
		IdleAttractS: 30,
		Attract:      append([]sequence.Clip(nil), sequence.DefaultClips...),
		LogLevel:     "info",
	}
}

// Load reads path over Default, so absent keys keep their defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
