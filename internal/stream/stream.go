// Package stream implements the client-facing ordered transaction
// stream (C8): payloads from finalised frames, delivered in
// frame-major, event-major, index-major order, with cooperative
// backpressure when no finalised frame is available.
package stream

import (
	"context"

	"dagnode/internal/dagcore"
	"dagnode/internal/store"
)

// Stream is the pull-based rendition of the original's poll_next: Go
// has no native Stream/Poll primitive, so Next blocks (honoring ctx
// cancellation) until a payload is ready or the sequence terminates.
// Internally it still performs the exact poll_next algorithm of spec
// §4.7 in a loop, parking on the core's condition-variable waker
// between attempts.
type Stream struct {
	Store store.Store
	Core  *dagcore.Core
}

// Next returns the next payload, or ok=false if the sequence has
// terminated (core shutdown).
func (s *Stream) Next(ctx context.Context) (payload []byte, ok bool) {
	for {
		snap := s.Core.Read()
		if snap.Shutdown {
			return nil, false
		}

		if snap.LastFinalisedFrame == nil {
			if !s.park(ctx) {
				return nil, false
			}
			continue
		}

		cur := snap.Cursor
		if !cur.EventSet && cur.FrameStarted && cur.CurrentFrame >= *snap.LastFinalisedFrame {
			if !s.park(ctx) {
				return nil, false
			}
			continue
		}
		if !cur.EventSet {
			if cur.FrameStarted {
				cur.CurrentFrame++
			} else {
				cur.CurrentFrame = 0
				cur.FrameStarted = true
			}
			cur.CurrentEvent = 0
			cur.EventSet = true
			cur.CurrentTx = 0
		}

		frame, err := s.Store.GetFrame(cur.CurrentFrame)
		if err != nil || cur.CurrentEvent >= uint64(len(frame)) {
			// Frame not yet materialised, or we've walked off its end
			// without the bookkeeping below catching it; treat as not
			// ready and let a future finality advance wake us.
			s.Core.SetCursor(cur)
			if !s.park(ctx) {
				return nil, false
			}
			continue
		}

		eventHash := frame[cur.CurrentEvent]
		ev, err := s.Store.GetByHash(eventHash)
		if err != nil {
			// Event referenced by the frame is not yet locally
			// present (still in flight via gossip); wait and retry.
			s.Core.SetCursor(cur)
			if !s.park(ctx) {
				return nil, false
			}
			continue
		}

		var produced []byte
		producedOK := false
		if cur.CurrentTx < uint64(len(ev.Transactions)) {
			produced = ev.Transactions[cur.CurrentTx]
			producedOK = true
			cur.CurrentTx++
		}

		if cur.CurrentTx >= uint64(len(ev.Transactions)) {
			cur.CurrentTx = 0
			cur.CurrentEvent++
		}
		if cur.CurrentEvent >= uint64(len(frame)) {
			cur.EventSet = false
		}

		s.Core.SetCursor(cur)

		if producedOK {
			return produced, true
		}
		// No transactions on this event; loop to advance further.
	}
}

func (s *Stream) park(ctx context.Context) bool {
	done := make(chan struct{})
	go func() {
		s.Core.WaitForProgress()
		close(done)
	}()
	select {
	case <-done:
		return !s.Core.IsShutdown()
	case <-ctx.Done():
		return false
	}
}
