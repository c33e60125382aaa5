// Package sensor produces depth frames and pushes them into a FrameSink.
//
// Two sources are provided: SerialSource decodes binary frames streamed by a
// ranging sensor over a serial link, and ScenarioSource replays a scripted
// YAML scenario for demos and bench testing. Both deliver frames one at a
// time from a single goroutine.
package sensor

import (
	"context"

	"github.com/oshokin/proximity-alert/internal/domain/proximity"
)

// FrameSink receives frames pushed by a source.
type FrameSink interface {
	OnFrame(ctx context.Context, frame proximity.DepthFrame)
}

// Source runs until its input is exhausted or ctx is done.
type Source interface {
	Run(ctx context.Context, sink FrameSink) error
}
