package protocol

import "testing"

func TestEncodeDecodeRoundTripsClientTick(t *testing.T) {
	original := NewClientTick([]ClientTickEntry{
		{TimeUs: 16666, FrameId: 1, Input: InputUp},
		{TimeUs: 33332, FrameId: 2, Input: InputLeft, LobbyReady: true, LobbyReadySet: true},
	})

	data, err := EncodeMessage(original)
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}

	decoded, err := DecodeMessage(data)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}

	if decoded.Kind != MsgClientTick {
		t.Fatalf("expected MsgClientTick, got %v", decoded.Kind)
	}
	if len(decoded.ClientTick.Ticks) != 2 {
		t.Fatalf("expected 2 tick entries, got %d", len(decoded.ClientTick.Ticks))
	}
	if decoded.ClientTick.Ticks[1].Input != InputLeft || !decoded.ClientTick.Ticks[1].LobbyReady {
		t.Fatalf("unexpected second entry after round trip: %+v", decoded.ClientTick.Ticks[1])
	}
}

func TestEncodeDecodeRoundTripsLindenServerTick(t *testing.T) {
	lastFrames := NewPlayerIdMap[uint32]()
	lastFrames.Set(0, 42)

	original := NewLindenServerTick(LindenServerTick{
		Latest: StateSummary{
			FrameId: 10,
			TimeUs:  166660,
			Seed:    7,
			GameId:  1,
			Players: []PlayerWire{{Id: 0, Kind: PosKindCoord, CoordX: 3, CoordY: -2}},
		},
		LkgState:          StateSummary{FrameId: 8},
		DeltaInputs:       []DeltaInputWire{{FrameId: 9, PlayerId: 0, Input: InputRight}},
		LastClientFrameId: lastFrames,
		RulesState:        RulesWire{Kind: FSTWireRound, RoundId: 3, ScreenY: -12},
	})

	data, err := EncodeMessage(original)
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}

	decoded, err := DecodeMessage(data)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}

	if decoded.Kind != MsgLindenServerTick {
		t.Fatalf("expected MsgLindenServerTick, got %v", decoded.Kind)
	}
	if decoded.LindenServerTick.Latest.FrameId != 10 {
		t.Fatalf("expected latest frame id 10, got %d", decoded.LindenServerTick.Latest.FrameId)
	}
	if decoded.LindenServerTick.RulesState.RoundId != 3 {
		t.Fatalf("expected round id 3, got %d", decoded.LindenServerTick.RulesState.RoundId)
	}
	if f, ok := decoded.LindenServerTick.LastClientFrameId.Get(0); !ok || f != 42 {
		t.Fatalf("expected last client frame id 42 for player 0, got %d ok=%v", f, ok)
	}
}

func TestCompatibleRejectsWrongHeaderOrVersion(t *testing.T) {
	if !Compatible(InitMessage, ServerVersion) {
		t.Fatal("expected matching header/version to be compatible")
	}
	if Compatible("nope", ServerVersion) {
		t.Fatal("expected a wrong header to be rejected")
	}
	if Compatible(InitMessage, ServerVersion+1) {
		t.Fatal("expected a mismatched version to be rejected")
	}
}

func TestMessageKindString(t *testing.T) {
	if MsgGoodBye.String() != "GoodBye" {
		t.Fatalf("expected GoodBye, got %s", MsgGoodBye.String())
	}
}
