package tuning

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type Tuning struct {
	TickRateHz       int  `yaml:"tick_rate_hz" toml:"tick_rate_hz"`
	Workers          int  `yaml:"workers" toml:"workers"`
	StrictInvariants bool `yaml:"strict_invariants" toml:"strict_invariants"`

	// Behaviors re-check idle ships at most this often.
	IdleReevaluateMS int `yaml:"idle_reevaluate_ms" toml:"idle_reevaluate_ms"`

	DockRange float64 `yaml:"dock_range" toml:"dock_range"`
	GateRange float64 `yaml:"gate_range" toml:"gate_range"`
	MineRange float64 `yaml:"mine_range" toml:"mine_range"`

	DockMS            int     `yaml:"dock_ms" toml:"dock_ms"`
	UndockMS          int     `yaml:"undock_ms" toml:"undock_ms"`
	GateTransitMS     int     `yaml:"gate_transit_ms" toml:"gate_transit_ms"`
	MineCycleMS       int     `yaml:"mine_cycle_ms" toml:"mine_cycle_ms"`
	MineYield         int     `yaml:"mine_yield" toml:"mine_yield"`
	HarvestPerSec     float64 `yaml:"harvest_per_sec" toml:"harvest_per_sec"`
	ExchangeMSPerUnit int     `yaml:"exchange_ms_per_unit" toml:"exchange_ms_per_unit"`
	BuildPowerPerSec  float64 `yaml:"build_power_per_sec" toml:"build_power_per_sec"`

	// A parked ship gives up waiting for a signal after this long. 0 waits forever.
	SignalTimeoutMS int `yaml:"signal_timeout_ms" toml:"signal_timeout_ms"`
}

func Defaults() Tuning {
	return Tuning{
		TickRateHz:        10,
		Workers:           4,
		IdleReevaluateMS:  2000,
		DockRange:         25,
		GateRange:         30,
		MineRange:         40,
		DockMS:            1000,
		UndockMS:          500,
		GateTransitMS:     3000,
		MineCycleMS:       4000,
		MineYield:         25,
		HarvestPerSec:     5,
		ExchangeMSPerUnit: 20,
		BuildPowerPerSec:  1,
	}
}

// Load reads a tuning file on top of Defaults. The decoder is picked from the
// file extension: .toml uses TOML, anything else YAML.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	name := filepath.Base(path)
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(raw), &t); err != nil {
			return t, fmt.Errorf("%s: %w", name, err)
		}
	} else if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("%s: %w", name, err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("%s: %w", name, err)
	}
	return t, nil
}

var ErrInvalid = errors.New("invalid tuning")

func (t Tuning) Validate() error {
	switch {
	case t.TickRateHz <= 0:
		return fmt.Errorf("%w: tick_rate_hz must be > 0", ErrInvalid)
	case t.Workers <= 0:
		return fmt.Errorf("%w: workers must be > 0", ErrInvalid)
	case t.IdleReevaluateMS < 0:
		return fmt.Errorf("%w: idle_reevaluate_ms must be >= 0", ErrInvalid)
	case t.SignalTimeoutMS < 0:
		return fmt.Errorf("%w: signal_timeout_ms must be >= 0", ErrInvalid)
	case t.DockRange <= 0 || t.GateRange <= 0 || t.MineRange <= 0:
		return fmt.Errorf("%w: ranges must be > 0", ErrInvalid)
	case t.MineYield <= 0:
		return fmt.Errorf("%w: mine_yield must be > 0", ErrInvalid)
	case t.HarvestPerSec <= 0 || t.BuildPowerPerSec <= 0:
		return fmt.Errorf("%w: rates must be > 0", ErrInvalid)
	}
	return nil
}

func (t Tuning) TickDuration() time.Duration { return time.Second / time.Duration(t.TickRateHz) }
func (t Tuning) IdleReevaluate() time.Duration {
	return time.Duration(t.IdleReevaluateMS) * time.Millisecond
}
func (t Tuning) Dock() time.Duration          { return ms(t.DockMS) }
func (t Tuning) Undock() time.Duration        { return ms(t.UndockMS) }
func (t Tuning) GateTransit() time.Duration   { return ms(t.GateTransitMS) }
func (t Tuning) MineCycle() time.Duration     { return ms(t.MineCycleMS) }
func (t Tuning) SignalTimeout() time.Duration { return ms(t.SignalTimeoutMS) }
func (t Tuning) ExchangePerUnit() time.Duration {
	return ms(t.ExchangeMSPerUnit)
}

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }
