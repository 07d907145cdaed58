package protocol

import (
	"bytes"
	"encoding/gob"
)

// MessageKind selects which of CrossyMessage's variant fields is live.
type MessageKind uint8

const (
	MsgHello MessageKind = iota
	MsgHelloResponse
	MsgServerDescription
	MsgClientTick
	MsgClientDrop
	MsgLindenServerTick
	MsgTimeRequestPacket
	MsgTimeRequestIntermediate
	MsgTimeResponsePacket
	MsgGoodBye
)

func (k MessageKind) String() string {
	switch k {
	case MsgHello:
		return "Hello"
	case MsgHelloResponse:
		return "HelloResponse"
	case MsgServerDescription:
		return "ServerDescription"
	case MsgClientTick:
		return "ClientTick"
	case MsgClientDrop:
		return "ClientDrop"
	case MsgLindenServerTick:
		return "LindenServerTick"
	case MsgTimeRequestPacket:
		return "TimeRequestPacket"
	case MsgTimeRequestIntermediate:
		return "TimeRequestIntermediate"
	case MsgTimeResponsePacket:
		return "TimeResponsePacket"
	case MsgGoodBye:
		return "GoodBye"
	default:
		return "Unknown"
	}
}

// ClientHello opens a connection with a version handshake.
type ClientHello struct {
	Header  string
	Version uint8
}

// InitServerResponse accepts a handshake and hands the client its
// assigned identity within the game.
type InitServerResponse struct {
	ServerVersion uint8
	PlayerCount   int
	Seed          uint32
	PlayerId      PlayerId
}

// ServerDescription is broadcast so a client can display lobby info
// before committing to /play.
type ServerDescription struct {
	ServerVersion uint8
	Seed          uint32
}

// ClientTickEntry is one frame's worth of a single client's reported
// input, batched so a client can resend a short backlog to paper over a
// dropped packet without the server treating every tick as its own round
// trip.
type ClientTickEntry struct {
	TimeUs        uint32
	FrameId       uint32
	Input         Input
	LobbyReady    bool
	LobbyReadySet bool
}

// ClientTick is the per-frame input message a client sends every loop
// iteration.
type ClientTick struct {
	Ticks []ClientTickEntry
}

// ClientDrop is an explicit "I am leaving" notice, distinct from a socket
// simply closing.
type ClientDrop struct{}

// PlayerWire is PlayerState flattened to wire-safe plain fields: no
// pointers, no package-private types, so it can cross the boundary
// between the game/worldmap packages (which own the real PlayerState) and
// protocol (which must stay a dependency-free leaf).
type PlayerWire struct {
	Id     PlayerId
	Kind   PosKind
	CoordX int32
	CoordY int32

	PreciseX float64
	PreciseY float64

	Riding    bool
	RideY     int32
	RideIndex int32

	MoveCooldown uint8
	TicksInWater uint8
	Dead         bool
	ReachedGoal  bool
	Ready        bool
}

// RiverSpawnEntryWire is one river row's spawn offset. Kept as protocol's
// own type (rather than reusing worldmap's) because worldmap itself
// depends on protocol — protocol cannot import it back without a cycle.
type RiverSpawnEntryWire struct {
	Y         int32
	SpawnTime uint32
}

// FSTKindWire mirrors rules.FSTKind without importing the rules package.
type FSTKindWire uint8

const (
	FSTWireLobby FSTKindWire = iota
	FSTWireRoundWarmup
	FSTWireRound
	FSTWireRoundCooldown
	FSTWireEndWinner
)

// RulesWire is rules.RulesState flattened the same way PlayerWire
// flattens PlayerState. Exactly the fields relevant to Kind are
// meaningful; the rest are zero.
type RulesWire struct {
	Kind FSTKindWire

	RaftPos   float64
	RaftDir   float64
	WaitTicks uint32

	RoundId        uint8
	TicksRemaining uint32

	ScreenY     int32
	TickInRound uint32
	SpawnTimes  []RiverSpawnEntryWire
	Alive       PlayerIdMap[uint8]

	HasWinner bool
	Winner    PlayerId

	WinnerCounts PlayerIdMap[int]
}

// StateSummary is a wire-safe snapshot of a GameState: enough to fully
// reconstruct one given the same map seed, which both peers already hold.
type StateSummary struct {
	FrameId uint32
	TimeUs  uint32
	Seed    uint32
	GameId  uint32
	Players []PlayerWire
}

// DeltaInputWire is one RemoteInput as carried on the wire.
type DeltaInputWire struct {
	FrameId  uint32
	PlayerId PlayerId
	Input    Input
}

// LindenServerTick is the server's authoritative broadcast: the live top
// state, the last-known-good state every connected client has
// acknowledged, the inputs needed to replay from the LKG up to latest,
// and the rules FST driving lobby/round/cooldown display.
type LindenServerTick struct {
	Latest            StateSummary
	LkgState          StateSummary
	DeltaInputs       []DeltaInputWire
	LastClientFrameId PlayerIdMap[uint32]
	RulesState        RulesWire
}

// TimeRequestPacket begins a round-trip time estimate.
type TimeRequestPacket struct {
	ClientSendTimeUs uint32
}

// TimeRequestIntermediate is the server's internal forwarding of a time
// request to the originating socket's send loop, carrying the server's
// own receive timestamp along with it.
type TimeRequestIntermediate struct {
	ClientSendTimeUs    uint32
	ServerReceiveTimeUs uint32
	SocketId            uint32
}

// TimeResponsePacket completes the four-timestamp exchange.
type TimeResponsePacket struct {
	ClientSendTimeUs    uint32
	ServerReceiveTimeUs uint32
	ServerSendTimeUs    uint32
}

// GoodBye tells a client the game has ended and the connection may close.
type GoodBye struct{}

// CrossyMessage is the single tagged union carried over the wire in both
// directions. Exactly one of the variant fields is meaningful, selected
// by Kind — the same pattern rules.CrossyRulesetFST uses for its own
// tagged union, kept consistent across the codebase rather than reaching
// for an interface{} + type switch.
type CrossyMessage struct {
	Kind MessageKind

	Hello                   ClientHello
	HelloResponse           InitServerResponse
	ServerDescription       ServerDescription
	ClientTick              ClientTick
	ClientDrop              ClientDrop
	LindenServerTick        LindenServerTick
	TimeRequestPacket       TimeRequestPacket
	TimeRequestIntermediate TimeRequestIntermediate
	TimeResponsePacket      TimeResponsePacket
	GoodBye                 GoodBye
}

// NewHello builds a Hello message.
func NewHello(version uint8) CrossyMessage {
	return CrossyMessage{Kind: MsgHello, Hello: ClientHello{Header: InitMessage, Version: version}}
}

// NewHelloResponse builds a HelloResponse message.
func NewHelloResponse(serverVersion uint8, playerCount int, seed uint32, id PlayerId) CrossyMessage {
	return CrossyMessage{Kind: MsgHelloResponse, HelloResponse: InitServerResponse{
		ServerVersion: serverVersion, PlayerCount: playerCount, Seed: seed, PlayerId: id,
	}}
}

// NewServerDescription builds a lobby-info broadcast.
func NewServerDescription(serverVersion uint8, seed uint32) CrossyMessage {
	return CrossyMessage{Kind: MsgServerDescription, ServerDescription: ServerDescription{ServerVersion: serverVersion, Seed: seed}}
}

// NewClientTick builds a ClientTick message from a batch of entries.
func NewClientTick(entries []ClientTickEntry) CrossyMessage {
	return CrossyMessage{Kind: MsgClientTick, ClientTick: ClientTick{Ticks: entries}}
}

// NewClientDrop builds an explicit leave notice.
func NewClientDrop() CrossyMessage {
	return CrossyMessage{Kind: MsgClientDrop}
}

// NewLindenServerTick builds an authoritative tick broadcast.
func NewLindenServerTick(t LindenServerTick) CrossyMessage {
	return CrossyMessage{Kind: MsgLindenServerTick, LindenServerTick: t}
}

// NewTimeRequestPacket begins an RTT measurement.
func NewTimeRequestPacket(clientSendTimeUs uint32) CrossyMessage {
	return CrossyMessage{Kind: MsgTimeRequestPacket, TimeRequestPacket: TimeRequestPacket{ClientSendTimeUs: clientSendTimeUs}}
}

// NewTimeRequestIntermediate wraps a forwarded time request with the
// server's receive timestamp and the originating socket id.
func NewTimeRequestIntermediate(clientSendTimeUs, serverReceiveTimeUs, socketId uint32) CrossyMessage {
	return CrossyMessage{Kind: MsgTimeRequestIntermediate, TimeRequestIntermediate: TimeRequestIntermediate{
		ClientSendTimeUs: clientSendTimeUs, ServerReceiveTimeUs: serverReceiveTimeUs, SocketId: socketId,
	}}
}

// NewTimeResponsePacket completes an RTT measurement.
func NewTimeResponsePacket(clientSendTimeUs, serverReceiveTimeUs, serverSendTimeUs uint32) CrossyMessage {
	return CrossyMessage{Kind: MsgTimeResponsePacket, TimeResponsePacket: TimeResponsePacket{
		ClientSendTimeUs: clientSendTimeUs, ServerReceiveTimeUs: serverReceiveTimeUs, ServerSendTimeUs: serverSendTimeUs,
	}}
}

// NewGoodBye builds a game-over notice.
func NewGoodBye() CrossyMessage {
	return CrossyMessage{Kind: MsgGoodBye}
}

// EncodeMessage serializes a CrossyMessage to a self-describing binary
// form suitable for a single WebSocket frame.
func EncodeMessage(msg CrossyMessage) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(msg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeMessage deserializes a CrossyMessage previously produced by
// EncodeMessage.
func DecodeMessage(data []byte) (CrossyMessage, error) {
	var msg CrossyMessage
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&msg); err != nil {
		return CrossyMessage{}, err
	}
	return msg, nil
}
