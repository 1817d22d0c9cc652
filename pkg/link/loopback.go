package link

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/itohio/hktelem/pkg/config"
	"github.com/itohio/hktelem/pkg/frame"
	"github.com/itohio/hktelem/pkg/mux"
	"github.com/itohio/hktelem/pkg/status"
)

// Loopback runs a simulated spacecraft in-process and feeds its frames
// through the same encoder and parser as the serial link.
type Loopback struct {
	cfg *config.Config
	mux *mux.Mock

	frames    chan frame.Record
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
	started   bool

	pr *io.PipeReader
	pw *io.PipeWriter
}

// NewLoopback creates a loopback device driven by a simulated mux.
func NewLoopback(cfg *config.Config) *Loopback {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Loopback{
		cfg:    cfg,
		mux:    mux.NewMock(&cfg.Mock, cfg.Calibration),
		frames: make(chan frame.Record, DefaultBufferSize),
	}
}

// Mux returns the simulated mux, e.g. to inject channel failures.
func (l *Loopback) Mux() *mux.Mock {
	return l.mux
}

// Connect starts the simulated spacecraft.
func (l *Loopback) Connect() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.connected {
		return fmt.Errorf("already connected")
	}

	l.pr, l.pw = io.Pipe()
	st, err := status.New(l.mux, l.pw, status.Options{
		Calibration: l.cfg.Calibration,
		Format:      l.cfg.Frame,
	})
	if err != nil {
		return fmt.Errorf("failed to create housekeeping status: %w", err)
	}

	if l.started {
		l.frames = make(chan frame.Record, DefaultBufferSize)
	}
	l.started = true
	l.ctx, l.cancel = context.WithCancel(context.Background())
	l.connected = true

	go l.generateFrames(l.ctx, st)
	go scanFrames(l.ctx, l.pr, l.cfg.Frame, l.frames)

	return nil
}

// Close stops the simulated spacecraft. The frames channel is closed once the reader stops.
func (l *Loopback) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.connected {
		return nil
	}

	l.cancel()
	l.pw.Close()
	l.pr.Close()
	l.connected = false

	return nil
}

// Frames returns the channel of received frames.
func (l *Loopback) Frames() <-chan frame.Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.frames
}

// IsConnected returns whether the loopback is running.
func (l *Loopback) IsConnected() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.connected
}

// generateFrames runs the acquisition and emission cycle at the mock sample rate.
func (l *Loopback) generateFrames(ctx context.Context, st *status.Status) {
	ticker := time.NewTicker(l.cfg.Mock.SampleRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := st.Update(l.cfg.Mux.Settle); err != nil {
				log.Printf("Housekeeping update: %v", err)
			}
			if err := st.Send(); err != nil {
				if errors.Is(err, io.ErrClosedPipe) {
					return
				}
				log.Printf("Housekeeping send: %v", err)
			}
		}
	}
}
