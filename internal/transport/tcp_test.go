package transport

import (
	"context"
	"testing"
	"time"
)

type testMessage struct {
	From string
	To   string
	N    int
}

func TestTCPSendAndReceive(t *testing.T) {
	ln, err := ListenTCP[testMessage]("127.0.0.1:0", 4)
	if err != nil {
		t.Fatalf("ListenTCP: %v", err)
	}
	defer ln.Close()

	sender := TCPSender{DialTimeout: time.Second}
	msg := testMessage{From: "a", To: "b", N: 42}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := sender.Send(ctx, ln.ln.Addr().String(), msg); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case got := <-ln.C():
		if got != msg {
			t.Fatalf("expected %+v, got %+v", msg, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestTCPListenerCloseStopsAccept(t *testing.T) {
	ln, err := ListenTCP[testMessage]("127.0.0.1:0", 1)
	if err != nil {
		t.Fatalf("ListenTCP: %v", err)
	}
	if err := ln.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	sender := TCPSender{DialTimeout: time.Second}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := sender.Send(ctx, ln.ln.Addr().String(), testMessage{}); err == nil {
		t.Fatal("expected send to a closed listener to fail")
	}
}
