// Package client implements the local-prediction game client: it joins a
// match over HTTP, opens the WebSocket stream, and runs a fixed-cadence
// loop that predicts locally with the same Timeline the server uses,
// reconciling against each authoritative LindenServerTick as it arrives.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/crossy/crossy-go/internal/game"
	"github.com/crossy/crossy-go/internal/input"
	"github.com/crossy/crossy-go/internal/network"
	"github.com/crossy/crossy-go/internal/protocol"
	"github.com/crossy/crossy-go/internal/rules"
	"github.com/crossy/crossy-go/internal/telemetry"
	"github.com/crossy/crossy-go/internal/timeline"
	"github.com/crossy/crossy-go/internal/timesync"
	"github.com/crossy/crossy-go/internal/worldmap"
)

// loopInterval is the client loop's sleep target (spec's "15ms sleep
// target").
const loopInterval = 15 * time.Millisecond

// Config holds client configuration.
type Config struct {
	ServerAddr string // host:port, no scheme
	GameId     uint32 // 0 creates a new game via /new
	PlayerName string
}

// Client is the game client: one HTTP-negotiated WS connection, one local
// Timeline predicting ahead of the last acknowledged server state.
type Client struct {
	cfg Config
	log *slog.Logger

	conn network.Connection

	gameId   uint32
	socketId uint32
	playerId protocol.PlayerId
	hasPlayer bool

	m  *worldmap.Map
	tl *timeline.Timeline

	pending *input.Buffer

	sync        *timesync.Estimator
	startWallUs int64

	framesSinceTimeRequest int

	inbox       chan protocol.CrossyMessage
	pendingTick *protocol.LindenServerTick
	done        chan struct{}
}

// New creates a client with the given config. Call Connect, then Run.
func New(cfg Config, log *slog.Logger) *Client {
	return &Client{
		cfg:     cfg,
		log:     log,
		pending: input.NewBuffer(),
		sync:    timesync.NewEstimator(),
		inbox:   make(chan protocol.CrossyMessage, 64),
		done:    make(chan struct{}),
	}
}

// SetInput buffers a direction for the next tick at which the local
// player can move.
func (c *Client) SetInput(in protocol.Input) {
	c.pending.Press(in)
}

// GameId reports the match this client is connected to, established by
// Connect (either passed in Config or returned by /new).
func (c *Client) GameId() uint32 { return c.gameId }

// PlayerId reports the locally-controlled player, and whether /play has
// completed.
func (c *Client) PlayerId() (protocol.PlayerId, bool) { return c.playerId, c.hasPlayer }

// HeadState exposes the client's current predicted snapshot, for a
// caller to print or otherwise surface without reaching into Timeline
// internals.
func (c *Client) HeadState() game.GameState { return c.tl.HeadState() }

// Done is closed when the client loop has stopped, whether from GoodBye
// or a connection error.
func (c *Client) Done() <-chan struct{} { return c.done }

// Connect performs the HTTP handshake (/new if no GameId was configured,
// then /join, then /play) and opens the WebSocket stream.
func (c *Client) Connect(ctx context.Context) error {
	base := "http://" + c.cfg.ServerAddr

	gameId := c.cfg.GameId
	if gameId == 0 {
		var created struct {
			GameId uint32 `json:"game_id"`
		}
		if err := getJSON(ctx, base+"/new", &created); err != nil {
			return fmt.Errorf("create game: %w", err)
		}
		gameId = created.GameId
	}
	c.gameId = gameId

	var joined struct {
		SocketId          uint32                     `json:"socket_id"`
		ServerDescription protocol.ServerDescription `json:"server_description"`
	}
	joinURL := fmt.Sprintf("%s/join?game_id=%d&name=%s", base, gameId, url.QueryEscape(c.cfg.PlayerName))
	if err := getJSON(ctx, joinURL, &joined); err != nil {
		return fmt.Errorf("join game: %w", err)
	}
	c.socketId = joined.SocketId

	c.m = worldmap.NewMap(joined.ServerDescription.Seed)
	c.tl = timeline.NewFromSeed(c.m, joined.ServerDescription.Seed, gameId)

	var played struct {
		PlayerId protocol.PlayerId `json:"player_id"`
	}
	playURL := fmt.Sprintf("%s/play?game_id=%d&socket_id=%d", base, gameId, c.socketId)
	if err := getJSON(ctx, playURL, &played); err != nil {
		return fmt.Errorf("play: %w", err)
	}
	c.playerId = played.PlayerId
	c.hasPlayer = true

	wsURL := fmt.Sprintf("ws://%s/ws?game_id=%d&socket_id=%d", c.cfg.ServerAddr, gameId, c.socketId)
	conn, err := network.Dial(wsURL)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	c.conn = conn
	c.startWallUs = time.Now().UnixMicro()
	return nil
}

func getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return fmt.Errorf("%s: %s", resp.Status, e.Error)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Run drives the client loop until ctx is cancelled or the server sends
// GoodBye.
func (c *Client) Run(ctx context.Context) error {
	go c.readPump()

	ticker := time.NewTicker(loopInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.Disconnect()
			return nil
		case <-c.done:
			return nil
		case <-ticker.C:
			c.loopIteration()
		}
	}
}

// Disconnect sends an explicit ClientDrop and closes the socket.
func (c *Client) Disconnect() {
	if c.conn == nil {
		return
	}
	_ = c.conn.Send(protocol.NewClientDrop())
	_ = c.conn.Close()
}

func (c *Client) readPump() {
	for {
		msg, err := c.conn.Recv()
		if err != nil {
			if errors.Is(err, network.ErrDecodeFailed) {
				if c.log != nil {
					c.log.Warn("malformed frame from server", "err", err)
				}
				continue
			}
			if c.log != nil {
				c.log.Debug("client connection closed", "err", err)
			}
			select {
			case <-c.done:
			default:
				close(c.done)
			}
			return
		}
		select {
		case c.inbox <- msg:
		default:
			if c.log != nil {
				c.log.Warn("client inbox full, dropping message", "kind", msg.Kind)
			}
		}
	}
}

// serverTimeEstimateUs projects the local wall clock onto the server's
// frame clock. Before the first time-sync sample arrives it counts from
// the moment this client connected, as if the server's clock had started
// then, with zero latency — close enough to start ticking, and any error
// is absorbed by the first rebase.
func (c *Client) serverTimeEstimateUs() uint32 {
	nowUs := time.Now().UnixMicro()
	if c.sync.Ready() {
		return uint32(c.sync.ServerTimeNow(nowUs))
	}
	return uint32(nowUs - c.startWallUs)
}

func (c *Client) loopIteration() {
	c.drainInbox()

	target := c.serverTimeEstimateUs()
	if entry, ticked := c.tickInner(target); ticked {
		c.send(protocol.NewClientTick([]protocol.ClientTickEntry{entry}))
	}

	c.framesSinceTimeRequest++
	if c.framesSinceTimeRequest >= timesync.TimeRequestInterval {
		c.framesSinceTimeRequest = 0
		c.sendTimeRequest()
	}
}

// tickInner is one call of the client's simulation step: it advances the
// Timeline to target (a single TickCurrentTime call rather than a
// fixed-step replay loop, since Timeline.TickCurrentTime already accepts
// an arbitrary delta), consumes a buffered input if the local player can
// move this tick, and reconciles against any tick received since the
// last call.
func (c *Client) tickInner(target uint32) (protocol.ClientTickEntry, bool) {
	head := c.tl.HeadState()
	if target <= head.TimeUs {
		return protocol.ClientTickEntry{}, false
	}

	inputs := protocol.NewPlayerInputs()
	localInput := protocol.InputNone
	if c.hasPlayer {
		if p, ok := head.Players.Get(c.playerId); ok && p.CanMove() {
			localInput = c.pending.Consume()
		}
		inputs.Set(c.playerId, localInput)
	}

	state := c.tl.TickCurrentTime(inputs, target)

	if c.pendingTick != nil && c.pendingTick.Latest.FrameId < state.FrameId {
		c.reconcile(*c.pendingTick)
		c.pendingTick = nil
	}

	return protocol.ClientTickEntry{TimeUs: state.TimeUs, FrameId: state.FrameId, Input: localInput}, true
}

func (c *Client) drainInbox() {
	for {
		select {
		case msg, ok := <-c.inbox:
			if !ok {
				return
			}
			c.handleMessage(msg)
		default:
			return
		}
	}
}

func (c *Client) handleMessage(msg protocol.CrossyMessage) {
	switch msg.Kind {
	case protocol.MsgTimeResponsePacket:
		t := msg.TimeResponsePacket
		sample := timesync.Sample{
			T0: int64(t.ClientSendTimeUs),
			T1: int64(t.ServerReceiveTimeUs),
			T2: int64(t.ServerSendTimeUs),
			T3: time.Now().UnixMicro(),
		}
		c.sync.Record(sample)
		if c.log != nil {
			telemetry.PingOutcome{LatencyUs: sample.Latency(), ServerStartInstantUs: sample.ServerTimeAtT2() - float64(sample.T3)}.Log(c.log)
		}
	case protocol.MsgLindenServerTick:
		tick := msg.LindenServerTick
		c.pendingTick = &tick
	case protocol.MsgGoodBye:
		select {
		case <-c.done:
		default:
			close(c.done)
		}
	}
}

// reconcile implements spec §4.8 step 2's rebase-then-propagate: compare
// the acknowledged lkg_state to what the local Timeline actually holds at
// that frame, rebase on mismatch, then replay every delta input the
// server has collected since.
func (c *Client) reconcile(t protocol.LindenServerTick) {
	config := rules.DefaultGameConfig()
	lkgRules := game.FromRulesWire(t.RulesState, config, c.gameId)
	lkg := game.FromStateSummary(t.LkgState, lkgRules)

	if local, ok := c.tl.TryGetState(lkg.FrameId); !ok || local.Checksum() != lkg.Checksum() {
		if ok && c.log != nil {
			telemetry.LKGMismatch{FrameId: lkg.FrameId, LocalHash: local.Checksum(), RemoteHash: lkg.Checksum()}.Log(c.log)
		}
		c.tl.Rebase(lkg.FrameId, lkg)
	}

	deltas := make([]timeline.RemoteInput, 0, len(t.DeltaInputs))
	for _, d := range t.DeltaInputs {
		deltas = append(deltas, timeline.RemoteInput{FrameId: d.FrameId, PlayerId: d.PlayerId, Input: d.Input})
	}
	if dropped := c.tl.PropagateInputs(deltas); dropped > 0 && c.log != nil {
		c.log.Debug("dropped out-of-window delta inputs", "count", dropped)
	}
}

func (c *Client) sendTimeRequest() {
	c.send(protocol.NewTimeRequestPacket(uint32(time.Now().UnixMicro())))
}

func (c *Client) send(msg protocol.CrossyMessage) {
	if c.conn == nil {
		return
	}
	if err := c.conn.Send(msg); err != nil && c.log != nil {
		c.log.Debug("client send failed", "err", err)
	}
}
