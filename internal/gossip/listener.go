package gossip

import (
	"context"

	"go.uber.org/zap"

	"dagnode/internal/dagcore"
	"dagnode/internal/event"
	"dagnode/internal/peer"
	"dagnode/internal/store"
	"dagnode/internal/transport"
)

// Listener is C7: ingests SyncReply, validates events, persists them,
// and updates the Lamport clock and peer metadata. It owns a
// transport receiver for SyncReply.
type Listener struct {
	Registry *peer.Registry
	Store    store.Store
	Core     *dagcore.Core
	Receiver transport.Listener[SyncReply]
	Verifier event.Verifier
	Log      *zap.SugaredLogger
}

// Run drives the listener loop until ctx is cancelled, the receiver's
// channel is exhausted, or Core.IsShutdown() is observed (spec §4.6;
// both the quit-channel poll and the disconnected-channel check are
// collapsed here into ctx cancellation, per the §9 REDESIGN FLAG on
// worker shutdown).
func (l *Listener) Run(ctx context.Context) {
	for {
		if l.Core.IsShutdown() {
			return
		}
		select {
		case <-ctx.Done():
			l.Core.Shutdown()
			return
		case reply, ok := <-l.Receiver.C():
			if !ok {
				l.Core.Shutdown()
				return
			}
			l.handle(reply)
		}
	}
}

func (l *Listener) handle(reply SyncReply) {
	l.Core.RaiseLamport(reply.LamportTime)

	for _, ne := range reply.Events {
		e := event.FromNetEvent(ne)

		creatorPeer, err := l.Registry.Find(e.Creator)
		if err != nil {
			l.Log.Warnw("event from unknown creator, skipping", "creator", e.Creator, "error", err)
			continue
		}

		lookup := func(hash string) (uint64, bool) {
			parent, err := l.Store.GetByHash(hash)
			if err != nil {
				return 0, false
			}
			return parent.LamportTimestamp, true
		}
		if err := event.Check(e, creatorPeer.PublicKey, l.Verifier, lookup); err != nil {
			l.Log.Warnw("invalid event, discarding", "hash", e.Hash, "error", err)
			continue
		}

		if err := l.Store.Insert(e); err != nil && err != store.ErrConflict {
			l.Log.Errorw("event insert failed", "hash", e.Hash, "error", err)
			continue
		}

		if err := l.Registry.WithPeer(e.Creator, func(p *peer.Peer) {
			p.UpdateLamportAndHeight(e.LamportTimestamp, e.Height)
		}); err != nil {
			l.Log.Warnw("peer metadata update failed", "creator", e.Creator, "error", err)
		}
	}
}
