// ABOUTME: Device-less output that renders on a ticker
// ABOUTME: Used headless and for capturing the mix to a writer
package output

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Sendspin/sendspin-mixer/pkg/audio"
)

// DefaultNullPeriod is how much audio the null output renders per wakeup
const DefaultNullPeriod = 10 * time.Millisecond

// Null pulls audio at real-time pace and writes it to an optional sink
type Null struct {
	Period time.Duration

	sink     io.Writer
	mu       sync.Mutex
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	rendered atomic.Int64
	sinkErr  atomic.Value
}

// NewNull creates a null output. sink may be nil to discard the mix.
func NewNull(sink io.Writer) *Null {
	return &Null{Period: DefaultNullPeriod, sink: sink}
}

// Open starts the render loop
func (n *Null) Open(f audio.Format, r Renderer) error {
	if err := checkFormat(f); err != nil {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.cancel != nil {
		return fmt.Errorf("null output already open")
	}

	period := n.Period
	if period <= 0 {
		period = DefaultNullPeriod
	}
	size := f.BytesFor(period)
	if size == 0 {
		size = f.FrameSize()
	}

	ctx, cancel := context.WithCancel(context.Background())
	n.cancel = cancel
	n.wg.Add(1)
	go n.run(ctx, r, period, make([]byte, size))

	log.Info().Str("backend", "null").Str("format", f.String()).Dur("period", period).Msg("audio output initialized")
	return nil
}

func (n *Null) run(ctx context.Context, r Renderer, period time.Duration, buf []byte) {
	defer n.wg.Done()

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Render(buf)
			n.rendered.Add(int64(len(buf)))

			if n.sink != nil {
				if _, err := n.sink.Write(buf); err != nil {
					n.sinkErr.Store(err)
					log.Warn().Err(err).Msg("null output sink write failed, discarding further audio")
					n.sink = nil
				}
			}
		}
	}
}

// Rendered returns the bytes pulled since Open
func (n *Null) Rendered() int64 {
	return n.rendered.Load()
}

// Err returns the sink write error, if any
func (n *Null) Err() error {
	if err, ok := n.sinkErr.Load().(error); ok {
		return err
	}
	return nil
}

// Close stops the render loop and waits for it to exit
func (n *Null) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.cancel == nil {
		return nil
	}
	n.cancel()
	n.wg.Wait()
	n.cancel = nil
	return nil
}
