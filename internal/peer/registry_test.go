package peer

import "testing"

func testPeers() []*Peer {
	return []*Peer{
		{ID: "a", RequestAddr: "127.0.0.1:9001", ReplyAddr: "127.0.0.1:9002"},
		{ID: "b", RequestAddr: "127.0.0.1:9003", ReplyAddr: "127.0.0.1:9004"},
		{ID: "c", RequestAddr: "127.0.0.1:9005", ReplyAddr: "127.0.0.1:9006"},
	}
}

func TestNextPeerCyclesBeforeRepeating(t *testing.T) {
	r := NewRegistry(testPeers())
	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		p, err := r.NextPeer()
		if err != nil {
			t.Fatalf("NextPeer: %v", err)
		}
		if seen[p.ID] {
			t.Fatalf("peer %s repeated before full cycle", p.ID)
		}
		seen[p.ID] = true
	}
	p, err := r.NextPeer()
	if err != nil {
		t.Fatalf("NextPeer: %v", err)
	}
	if p.ID != "a" {
		t.Fatalf("expected cycle to repeat from a, got %s", p.ID)
	}
}

func TestUpdateLamportAndHeightMonotonic(t *testing.T) {
	r := NewRegistry(testPeers())
	if err := r.WithPeer("a", func(p *Peer) { p.UpdateLamportAndHeight(10, 5) }); err != nil {
		t.Fatalf("WithPeer: %v", err)
	}
	if err := r.WithPeer("a", func(p *Peer) { p.UpdateLamportAndHeight(3, 2) }); err != nil {
		t.Fatalf("WithPeer: %v", err)
	}
	p, err := r.Find("a")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if p.LastKnownLamport < 10 || p.LastKnownHeight < 5 {
		t.Fatalf("expected monotonic update to retain max, got lamport=%d height=%d", p.LastKnownLamport, p.LastKnownHeight)
	}
}

func TestFindUnknownPeer(t *testing.T) {
	r := NewRegistry(testPeers())
	if _, err := r.Find("nope"); err == nil {
		t.Fatal("expected error for unknown peer")
	}
}

func TestGossipListOrderMatchesRegistration(t *testing.T) {
	r := NewRegistry(testPeers())
	list := r.GetGossipList()
	want := []string{"a", "b", "c"}
	if len(list) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(list))
	}
	for i, id := range want {
		if list[i].PeerID != id {
			t.Fatalf("entry %d: expected %s got %s", i, id, list[i].PeerID)
		}
	}
}
