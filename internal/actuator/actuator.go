// Package actuator turns alert pulses into a tone and a haptic pulse.
//
// Real audio and vibration hardware sits behind the Tone and Haptic
// interfaces; the package ships a terminal bell and a logging haptic so the
// engine is usable on a plain console.
package actuator

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/oshokin/proximity-alert/internal/logger"
)

// bell is the ASCII BEL control character.
const bell = "\a"

// Tone plays one short audible tone.
type Tone interface {
	Beep(ctx context.Context) error
}

// Haptic produces one vibration pulse.
type Haptic interface {
	Vibrate(ctx context.Context) error
}

// Pulser implements the alert actuator on top of a tone and a haptic device.
type Pulser struct {
	tone   Tone
	haptic Haptic

	pulses atomic.Uint64
}

// NewPulser combines the devices; nil devices are skipped.
func NewPulser(tone Tone, haptic Haptic) *Pulser {
	return &Pulser{
		tone:   tone,
		haptic: haptic,
	}
}

// StartPulses announces a new cadence.
func (p *Pulser) StartPulses(ctx context.Context, interval time.Duration) {
	logger.InfoKV(ctx, "Beeping started", "every", interval)
}

// StopPulses announces that the cadence ended.
func (p *Pulser) StopPulses(ctx context.Context) {
	logger.InfoKV(ctx, "Beeping stopped", "pulses_total", p.pulses.Load())
}

// Pulse emits one tone and one haptic pulse. Device errors are logged, never returned.
func (p *Pulser) Pulse(ctx context.Context) {
	p.pulses.Add(1)

	if p.tone != nil {
		if err := p.tone.Beep(ctx); err != nil {
			logger.WarnKV(ctx, "Tone failed", "error", err)
		}
	}

	if p.haptic != nil {
		if err := p.haptic.Vibrate(ctx); err != nil {
			logger.WarnKV(ctx, "Haptic pulse failed", "error", err)
		}
	}
}

// Pulses returns how many pulses were emitted.
func (p *Pulser) Pulses() uint64 {
	return p.pulses.Load()
}

// TerminalBell writes BEL to a terminal.
type TerminalBell struct {
	w io.Writer
}

// NewTerminalBell returns a bell writing to w.
func NewTerminalBell(w io.Writer) *TerminalBell {
	return &TerminalBell{w: w}
}

// Beep rings the bell.
func (b *TerminalBell) Beep(context.Context) error {
	if _, err := io.WriteString(b.w, bell); err != nil {
		return fmt.Errorf("write bell: %w", err)
	}

	return nil
}

// LogHaptic records vibration pulses in the debug log.
type LogHaptic struct{}

// Vibrate logs the pulse.
func (LogHaptic) Vibrate(ctx context.Context) error {
	logger.DebugKV(ctx, "Haptic pulse")

	return nil
}
