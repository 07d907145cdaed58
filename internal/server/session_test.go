package server

import "testing"

func TestSessionBindPlayer(t *testing.T) {
	sess := newSession(1, "Alice")
	if _, bound := sess.Player(); bound {
		t.Fatal("fresh session should have no bound player")
	}
	sess.bindPlayer(3)
	id, bound := sess.Player()
	if !bound || id != 3 {
		t.Fatalf("expected bound player 3, got %d (bound=%v)", id, bound)
	}
}

func TestSessionRecordClientFrameIdTracksMax(t *testing.T) {
	sess := newSession(1, "Alice")
	sess.recordClientFrameId(5)
	sess.recordClientFrameId(2)
	sess.recordClientFrameId(9)
	if got := sess.lastFrameId(); got != 9 {
		t.Fatalf("expected max acknowledged frame 9, got %d", got)
	}
}

func TestSessionMarkDecodeFailureLoggedOnce(t *testing.T) {
	sess := newSession(1, "Alice")
	if already := sess.markDecodeFailureLogged(); already {
		t.Fatal("first call should report not already logged")
	}
	if already := sess.markDecodeFailureLogged(); !already {
		t.Fatal("second call should report already logged")
	}
}
