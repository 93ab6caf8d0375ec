package gossip

import (
	"context"
	"time"

	"go.uber.org/zap"

	"dagnode/internal/dagcore"
	"dagnode/internal/event"
	"dagnode/internal/peer"
	"dagnode/internal/store"
	"dagnode/internal/transport"
)

// Initiator is procedure A (C5): periodic peer selection, SyncReq,
// and creation of a new local event referencing the remote peer's
// known head. It owns a transport sender only — no inbound socket.
type Initiator struct {
	SelfID    string
	Heartbeat time.Duration
	StartDelay time.Duration
	BatchSize int

	Registry *peer.Registry
	Store    store.Store
	Core     *dagcore.Core
	Signer   event.Signer
	Sender   transport.Sender
	Log      *zap.SugaredLogger
}

// Run executes the procedure A loop until ctx is cancelled or
// Core.IsShutdown() is observed (spec §4.4).
func (in *Initiator) Run(ctx context.Context) {
	timer := time.NewTimer(in.StartDelay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		if in.Core.IsShutdown() {
			return
		}
		in.iterate(ctx)

		timer.Reset(in.Heartbeat)
	}
}

func (in *Initiator) iterate(ctx context.Context) {
	target, err := in.Registry.NextPeer()
	if err != nil {
		in.Log.Warnw("no peer available", "error", err)
		return
	}
	gossipList := in.Registry.GetGossipList()

	req := SyncReq{
		From:        in.SelfID,
		To:          target.ID,
		GossipList:  gossipList,
		LamportTime: in.Core.LamportTime(),
	}
	if err := in.Sender.Send(ctx, target.RequestAddr, req); err != nil {
		in.Log.Warnw("sync request send failed", "peer", target.ID, "error", err)
		// spec §7: transport send errors are logged and do not abort
		// the loop or change local state; delivery is assumed
		// eventually achievable via a subsequent heartbeat.
	}

	self, err := in.Registry.Find(in.SelfID)
	if err != nil {
		in.Log.Errorw("local peer missing from registry", "error", err)
		return
	}
	selfHeight := self.GetNextHeight()
	otherHeight := target.LastKnownHeight

	var selfParentHash string
	if selfHeight > 0 {
		selfParent, err := in.Store.GetByCreatorHeight(in.SelfID, selfHeight-1)
		if err != nil {
			in.Log.Errorw("local self-parent missing; genesis bootstrap may not have run", "height", selfHeight-1, "error", err)
			return
		}
		selfParentHash = selfParent.Hash
	}

	otherEvent, err := in.Store.GetByCreatorHeight(target.ID, otherHeight)
	if err != nil {
		if err == store.ErrNotFound {
			in.Log.Debugw("other-parent not yet known locally, skipping iteration", "peer", target.ID, "height", otherHeight)
		} else {
			in.Log.Errorw("other-parent lookup failed", "peer", target.ID, "height", otherHeight, "error", err)
		}
		return
	}
	otherParentHash := otherEvent.Hash

	txs, internalTxs := in.Core.DrainQueues(in.BatchSize)
	lamport := in.Core.TickLamport()

	newEvent, err := event.New(in.SelfID, selfHeight, selfParentHash, otherParentHash, lamport, txs, internalTxs, in.Signer)
	if err != nil {
		in.Log.Errorw("event construction failed", "error", err)
		return
	}
	if err := in.Store.Insert(newEvent); err != nil {
		in.Log.Errorw("event insert failed", "error", err)
		return
	}
	if err := in.Registry.WithPeer(in.SelfID, func(p *peer.Peer) {
		p.UpdateLamportAndHeight(lamport, selfHeight)
	}); err != nil {
		in.Log.Errorw("local peer metadata update failed", "error", err)
	}
}
