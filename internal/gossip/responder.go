package gossip

import (
	"context"

	"go.uber.org/zap"

	"dagnode/internal/dagcore"
	"dagnode/internal/peer"
	"dagnode/internal/store"
	"dagnode/internal/transport"
)

// Responder is procedure B (C6): serves inbound SyncReq by replying
// with the events the requester is missing. It owns a transport
// receiver for SyncReq and a transport sender for SyncReply.
type Responder struct {
	SelfID string

	Registry *peer.Registry
	Store    store.Store
	Core     *dagcore.Core
	Receiver transport.Listener[SyncReq]
	Sender   transport.Sender
	Log      *zap.SugaredLogger
}

// Run drives the responder loop until ctx is cancelled or the
// receiver's channel is exhausted (spec §4.5).
func (r *Responder) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-r.Receiver.C():
			if !ok {
				return
			}
			r.handle(ctx, req)
		}
	}
}

func (r *Responder) handle(ctx context.Context, req SyncReq) {
	r.Core.RaiseLamport(req.LamportTime)

	events, err := r.Store.GetEventsForGossip(req.GossipList)
	if err != nil {
		r.Log.Errorw("gossip query failed, dropping request", "from", req.From, "error", err)
		return
	}

	gossipList := r.Registry.GetGossipList()
	reply := SyncReply{
		From:        req.To,
		To:          req.From,
		GossipList:  gossipList,
		LamportTime: r.Core.LamportTime(),
		Events:      events,
	}

	if _, err := r.Registry.FindWithLamportUpdate(req.From, req.LamportTime); err != nil {
		r.Log.Warnw("unknown requester", "from", req.From, "error", err)
	}

	dest, err := r.Registry.Find(req.From)
	if err != nil {
		r.Log.Errorw("cannot resolve reply address, dropping reply", "from", req.From, "error", err)
		return
	}
	if err := r.Sender.Send(ctx, dest.ReplyAddr, reply); err != nil {
		r.Log.Warnw("sync reply send failed", "to", req.From, "error", err)
	}
}
