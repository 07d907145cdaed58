package server

import "testing"

func TestDefaultConfigMatchesSpecCadence(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.TickIntervalUs != 16666 {
		t.Fatalf("expected a 16666us simulation tick, got %d", cfg.TickIntervalUs)
	}
	if cfg.DesiredTickTime.Milliseconds() != 14 {
		t.Fatalf("expected a 14ms broadcast cadence, got %s", cfg.DesiredTickTime)
	}
	if cfg.EmptyTicksShutdown <= 0 {
		t.Fatal("expected a positive idle-shutdown threshold")
	}
}
