// Package event defines the DAG event model: causal structure
// (self-parent/other-parent), the Lamport timestamp carried by each
// event, and the signing/hashing hooks the core depends on only
// through interfaces.
package event

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// GenesisParent is the sentinel parent hash used by height-0 events,
// which have neither a self-parent nor an other-parent.
const GenesisParent = ""

// Event is a signed record of one step in the DAG. Once inserted into
// the store it is never mutated.
type Event struct {
	Creator             string   `json:"creator"`
	Height              uint64   `json:"height"`
	SelfParent          string   `json:"self_parent"`
	OtherParent         string   `json:"other_parent"`
	LamportTimestamp    uint64   `json:"lamport_timestamp"`
	Transactions        [][]byte `json:"transactions"`
	InternalTransactions [][]byte `json:"internal_transactions"`
	Signature           []byte   `json:"signature"`
	Hash                string   `json:"hash"`
}

// NetEvent is the wire form of Event: identical semantic content,
// suitable for serialization without owning references to local
// storage. In this implementation it is structurally identical to
// Event (there are no local-only fields to strip), kept as a distinct
// type so the wire boundary is explicit in the gossip package.
type NetEvent Event

// ToNetEvent converts a stored Event to its wire form.
func (e *Event) ToNetEvent() NetEvent { return NetEvent(*e) }

// FromNetEvent converts a received wire event back into a local Event.
// The conversion is lossless: recomputing the hash from the result
// must reproduce ne.Hash (property 4, spec §8).
func FromNetEvent(ne NetEvent) *Event {
	e := Event(ne)
	return &e
}

// hashedFields is the deterministic, signature-and-hash-excluded
// encoding over which both the content hash and the signature are
// computed.
type hashedFields struct {
	Creator              string   `json:"creator"`
	Height               uint64   `json:"height"`
	SelfParent           string   `json:"self_parent"`
	OtherParent          string   `json:"other_parent"`
	LamportTimestamp     uint64   `json:"lamport_timestamp"`
	Transactions         [][]byte `json:"transactions"`
	InternalTransactions [][]byte `json:"internal_transactions"`
}

func (e *Event) hashInput() ([]byte, error) {
	hf := hashedFields{
		Creator:              e.Creator,
		Height:               e.Height,
		SelfParent:           e.SelfParent,
		OtherParent:          e.OtherParent,
		LamportTimestamp:     e.LamportTimestamp,
		Transactions:         e.Transactions,
		InternalTransactions: e.InternalTransactions,
	}
	return json.Marshal(hf)
}

// ComputeHash returns the deterministic content hash over every field
// but the signature and the hash itself.
func (e *Event) ComputeHash() (string, error) {
	buf, err := e.hashInput()
	if err != nil {
		return "", fmt.Errorf("event: encode for hash: %w", err)
	}
	sum := sha256.Sum256(buf)
	return hex.EncodeToString(sum[:]), nil
}

// Signer is the minimal signing collaborator the core depends on.
type Signer interface {
	Sign(hash []byte) (signature []byte, err error)
}

// Verifier is the minimal verification collaborator the core depends
// on; it is handed a peer's public key out of band (from the peer
// registry), not stored on Event itself.
type Verifier interface {
	Verify(publicKey []byte, hash []byte, signature []byte) bool
}

// New constructs an event, filling in its hash and signature.
func New(creator string, height uint64, selfParent, otherParent string, lamport uint64, txs, internalTxs [][]byte, signer Signer) (*Event, error) {
	e := &Event{
		Creator:              creator,
		Height:               height,
		SelfParent:           selfParent,
		OtherParent:          otherParent,
		LamportTimestamp:     lamport,
		Transactions:         txs,
		InternalTransactions: internalTxs,
	}
	h, err := e.ComputeHash()
	if err != nil {
		return nil, err
	}
	e.Hash = h
	sig, err := signer.Sign([]byte(h))
	if err != nil {
		return nil, fmt.Errorf("event: sign: %w", err)
	}
	e.Signature = sig
	return e, nil
}

var (
	// ErrInvalidSignature is returned by Check when the event's
	// signature does not verify under the creator's public key.
	ErrInvalidSignature = errors.New("event: invalid signature")
	// ErrMissingParent is returned by Check when height > 0 and a
	// parent is not resolvable in the store.
	ErrMissingParent = errors.New("event: missing parent")
	// ErrLamportViolation is returned by Check when the causal
	// inequality of spec §3 does not hold.
	ErrLamportViolation = errors.New("event: lamport timestamp violates causal order")
)

// ParentLookup resolves a parent hash to its Lamport timestamp and
// reports whether it exists; it is satisfied by the event store.
type ParentLookup func(hash string) (lamportTimestamp uint64, found bool)

// Check validates an event per spec §4.3: signature valid under the
// creator's public key, the self-parent exists when height > 0 (as
// does the other-parent, unless it is the GenesisParent sentinel), and
// the Lamport timestamp respects the causal inequality.
func Check(e *Event, publicKey []byte, verifier Verifier, lookup ParentLookup) error {
	if !verifier.Verify(publicKey, []byte(e.Hash), e.Signature) {
		return ErrInvalidSignature
	}
	if h, err := e.ComputeHash(); err != nil || h != e.Hash {
		return fmt.Errorf("%w: hash mismatch", ErrInvalidSignature)
	}
	if e.Height == 0 {
		return nil
	}
	selfLT, ok := lookup(e.SelfParent)
	if !ok {
		return fmt.Errorf("%w: self_parent %s", ErrMissingParent, e.SelfParent)
	}
	max := selfLT
	if e.OtherParent != GenesisParent {
		otherLT, ok := lookup(e.OtherParent)
		if !ok {
			return fmt.Errorf("%w: other_parent %s", ErrMissingParent, e.OtherParent)
		}
		if otherLT > max {
			max = otherLT
		}
	}
	if e.LamportTimestamp < max+1 {
		return ErrLamportViolation
	}
	return nil
}
