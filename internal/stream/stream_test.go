package stream

import (
	"context"
	"testing"
	"time"

	"dagnode/internal/dagcore"
	"dagnode/internal/event"
	"dagnode/internal/store"
)

func seedFrame(t *testing.T, st store.Store, frameNum uint64, txsPerEvent [][][]byte) []string {
	t.Helper()
	var hashes []string
	for i, txs := range txsPerEvent {
		_, priv, err := event.GenerateKeyPair()
		if err != nil {
			t.Fatalf("keypair: %v", err)
		}
		e, err := event.New("c", uint64(i), event.GenesisParent, event.GenesisParent, uint64(i+1), txs, nil, event.Ed25519Signer{PrivateKey: priv})
		if err != nil {
			t.Fatalf("event: %v", err)
		}
		if err := st.Insert(e); err != nil {
			t.Fatalf("insert: %v", err)
		}
		hashes = append(hashes, e.Hash)
	}
	if err := st.SetFrame(frameNum, hashes); err != nil {
		t.Fatalf("SetFrame: %v", err)
	}
	return hashes
}

func TestStreamEmitsInOrder(t *testing.T) {
	st := store.NewMemStore()
	seedFrame(t, st, 0, [][][]byte{
		{[]byte("a1"), []byte("a2")},
		{[]byte("b1")},
	})

	core := dagcore.New(0)
	core.SetLastFinalisedFrame(0)

	s := &Stream{Store: st, Core: core}
	ctx := context.Background()

	var got [][]byte
	for i := 0; i < 3; i++ {
		payload, ok := s.Next(ctx)
		if !ok {
			t.Fatalf("expected payload %d, stream terminated early", i)
		}
		got = append(got, payload)
	}

	want := []string{"a1", "a2", "b1"}
	for i, w := range want {
		if string(got[i]) != w {
			t.Fatalf("payload %d: want %s got %s", i, w, got[i])
		}
	}
}

func TestStreamTerminatesOnShutdown(t *testing.T) {
	core := dagcore.New(0)
	core.Shutdown()
	s := &Stream{Store: store.NewMemStore(), Core: core}
	_, ok := s.Next(context.Background())
	if ok {
		t.Fatal("expected stream to terminate after shutdown")
	}
}

func TestStreamNotReadyWithoutFinalisedFrame(t *testing.T) {
	core := dagcore.New(0)
	s := &Stream{Store: store.NewMemStore(), Core: core}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, ok := s.Next(ctx)
	if ok {
		t.Fatal("expected Next to block until cancelled when no frame is finalised")
	}
}

func TestStreamDeterminismAcrossTwoEngines(t *testing.T) {
	mk := func() []byte {
		st := store.NewMemStore()
		seedFrame(t, st, 0, [][][]byte{
			{[]byte("x"), []byte("y")},
		})
		core := dagcore.New(0)
		core.SetLastFinalisedFrame(0)
		s := &Stream{Store: st, Core: core}
		payload, ok := s.Next(context.Background())
		if !ok {
			t.Fatal("expected a payload")
		}
		return payload
	}
	a := mk()
	b := mk()
	if string(a) != string(b) {
		t.Fatalf("expected identical first payload, got %s vs %s", a, b)
	}
}
