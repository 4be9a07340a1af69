package gossip

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestStartJoinFiresOnDrift(t *testing.T) {
	var seedDrifts int32
	seed, err := Start(Config{
		NodeName: "seed",
		BindAddr: "127.0.0.1",
		BindPort: 17946,
	}, func() { atomic.AddInt32(&seedDrifts, 1) })
	if err != nil {
		t.Fatalf("Start(seed) failed: %v", err)
	}
	defer seed.Shutdown()

	var joinerDrifts int32
	joiner, err := Start(Config{
		NodeName: "joiner",
		BindAddr: "127.0.0.1",
		BindPort: 17947,
		Join:     []string{"127.0.0.1:17946"},
	}, func() { atomic.AddInt32(&joinerDrifts, 1) })
	if err != nil {
		t.Fatalf("Start(joiner) failed: %v", err)
	}
	defer joiner.Shutdown()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if len(seed.Members()) == 2 && atomic.LoadInt32(&seedDrifts) > 0 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	if got := len(seed.Members()); got != 2 {
		t.Errorf("seed.Members() = %d, want 2", got)
	}
	if atomic.LoadInt32(&seedDrifts) == 0 {
		t.Error("seed never observed a drift notification after joiner connected")
	}
}

func TestNodeMetaTruncatesToLimit(t *testing.T) {
	meta := NodeMeta(42, 16384, 4)
	if len(meta) > 4 {
		t.Errorf("NodeMeta len = %d, want <= 4", len(meta))
	}
}

func TestNodeMetaFormatsEpochAndSlots(t *testing.T) {
	meta := NodeMeta(7, 100, 64)
	if string(meta) != "7/100" {
		t.Errorf("NodeMeta = %q, want %q", meta, "7/100")
	}
}
