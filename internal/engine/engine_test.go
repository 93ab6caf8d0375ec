package engine

import (
	"context"
	"encoding/hex"
	"testing"
	"time"

	"go.uber.org/zap"

	"dagnode/internal/config"
	"dagnode/internal/event"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	_, priv, err := event.GenerateKeyPair()
	if err != nil {
		t.Fatalf("keypair: %v", err)
	}
	return &config.Config{
		HeartbeatMS:   20,
		ProcADelayMS:  0,
		RequestAddr:   "127.0.0.1:0",
		ReplyAddr:     "127.0.0.1:0",
		TransportType: "tcp",
		StoreType:     "memory",
		Creator:       "solo",
		SecretKey:     hex.EncodeToString(priv),
		Peers:         nil,
	}
}

func TestEngineConstructRunsGenesisBootstrap(t *testing.T) {
	cfg := testConfig(t)
	cfg.Peers = []config.PeerConfig{{ID: "solo", RequestAddr: cfg.RequestAddr, ReplyAddr: cfg.ReplyAddr}}

	logger := zap.NewNop().Sugar()
	e, err := New(cfg, logger)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	genesis, err := e.store.GetByCreatorHeight("solo", 0)
	if err != nil {
		t.Fatalf("expected genesis event present: %v", err)
	}
	if genesis.Height != 0 {
		t.Fatalf("expected height 0, got %d", genesis.Height)
	}

	e.Shutdown()
	if err := e.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

func TestSendTransactionQueueFull(t *testing.T) {
	cfg := testConfig(t)
	cfg.TxQueueCapacity = 1
	cfg.Peers = []config.PeerConfig{{ID: "solo", RequestAddr: cfg.RequestAddr, ReplyAddr: cfg.ReplyAddr}}

	logger := zap.NewNop().Sugar()
	e, err := New(cfg, logger)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() {
		e.Shutdown()
		e.Wait()
	}()

	if err := e.SendTransaction([]byte("p1")); err != nil {
		t.Fatalf("first send: %v", err)
	}
	if err := e.SendTransaction([]byte("p2")); err == nil {
		t.Fatal("expected queue-full error on second send")
	}
}

func TestStreamTerminatesAfterShutdown(t *testing.T) {
	cfg := testConfig(t)
	cfg.Peers = []config.PeerConfig{{ID: "solo", RequestAddr: cfg.RequestAddr, ReplyAddr: cfg.ReplyAddr}}

	logger := zap.NewNop().Sugar()
	e, err := New(cfg, logger)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := e.SendTransaction([]byte("p1")); err != nil {
		t.Fatalf("send: %v", err)
	}
	e.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, ok := e.Next(ctx)
	if ok {
		t.Fatal("expected stream to terminate after shutdown")
	}
	if err := e.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}
