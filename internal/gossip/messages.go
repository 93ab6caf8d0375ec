// Package gossip implements the gossip state machine: the initiator
// (C5), the responder (C6), and the listener (C7) described in spec
// §4.4-4.6.
package gossip

import (
	"dagnode/internal/event"
	"dagnode/internal/store"
)

// SyncReq is the outbound synchronization request (spec §6 wire
// protocol).
type SyncReq struct {
	From       string             `json:"from"`
	To         string             `json:"to"`
	GossipList store.GossipList   `json:"gossip_list"`
	LamportTime uint64            `json:"lamport_time"`
}

// SyncReply carries the events the requester is missing.
type SyncReply struct {
	From        string           `json:"from"`
	To          string           `json:"to"`
	GossipList  store.GossipList `json:"gossip_list"`
	LamportTime uint64           `json:"lamport_time"`
	Events      []event.NetEvent `json:"events"`
}
