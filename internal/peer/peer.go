// Package peer implements the peer registry (C2): per-peer identity
// and addresses, known Lamport time and height, round-robin
// selection, and gossip-list snapshots.
package peer

// Peer is one member of the fixed membership group.
type Peer struct {
	ID                 string
	PublicKey          []byte
	BaseAddr           string
	RequestAddr        string // where this peer listens for SyncReq
	ReplyAddr          string // where this peer listens for SyncReply
	LastKnownLamport   uint64
	LastKnownHeight    uint64
	LastGossipHeight   uint64 // height at which we last observed this peer via gossip
}

// UpdateLamportAndHeight monotonically raises both fields. Per spec
// §4.2/§8 invariant 6, the result is always >= the inputs.
func (p *Peer) UpdateLamportAndHeight(lamport, height uint64) {
	if lamport > p.LastKnownLamport {
		p.LastKnownLamport = lamport
	}
	if height > p.LastKnownHeight {
		p.LastKnownHeight = height
	}
}

// RaiseLamport monotonically raises the known Lamport time only.
func (p *Peer) RaiseLamport(lamport uint64) {
	if lamport > p.LastKnownLamport {
		p.LastKnownLamport = lamport
	}
}

// GetNextHeight is the height to assign to the next locally created
// event for this peer (meaningful only for the local creator peer).
func (p *Peer) GetNextHeight() uint64 {
	return p.LastKnownHeight + 1
}
