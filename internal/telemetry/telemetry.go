// Package telemetry carries the structured logging and lightweight
// diagnostic events spec §7 calls for (supplemented by the original's
// TelemetryMessagePackage) without ever treating any of them as a
// failure: nothing here can fail a tick, only report on one.
package telemetry

import (
	"log/slog"
	"os"
)

// NewLogger returns a structured logger writing to stdout, leveled by
// the verbose flag. Both cmd/crossy-server and cmd/crossy-client build
// theirs this way so log output is uniform across the two processes.
func NewLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}

// LKGMismatch is emitted when a client's locally predicted state at a
// last-known-good frame disagrees with the server's authoritative
// snapshot for that frame (spec §7). Reconciliation proceeds via rebase
// regardless of whether this fires — it exists purely to surface drift
// for diagnosis, never to gate anything.
type LKGMismatch struct {
	FrameId    uint32
	LocalHash  uint32
	RemoteHash uint32
}

// Log records the event. Always warn level: a mismatch isn't expected in
// healthy operation but isn't itself an error either.
func (e LKGMismatch) Log(log *slog.Logger) {
	log.Warn("LKG_mismatch", "frame_id", e.FrameId, "local_hash", e.LocalHash, "remote_hash", e.RemoteHash)
}

// Lagged reports that a broadcast subscriber fell behind and had its
// queue fast-forwarded to the newest message rather than blocking the
// sender, per spec §5.
type Lagged struct {
	SocketId uint32
	Skipped  int
}

func (e Lagged) Log(log *slog.Logger) {
	log.Warn("Lagged", "socket_id", e.SocketId, "skipped", e.Skipped)
}

// PingOutcome records one completed time-sync round trip, mirroring the
// original's Telemetry_PingOutcome.
type PingOutcome struct {
	LatencyUs            float64
	ServerStartInstantUs float64
}

func (e PingOutcome) Log(log *slog.Logger) {
	log.Debug("ping_outcome", "latency_us", e.LatencyUs, "server_start_instant_us", e.ServerStartInstantUs)
}

// ProtocolDecodeFailure is logged once per socket (spec §7) rather than
// on every malformed frame, so a socket stuck sending garbage doesn't
// flood the log.
type ProtocolDecodeFailure struct {
	SocketId uint32
	Err      error
}

func (e ProtocolDecodeFailure) Log(log *slog.Logger) {
	log.Warn("protocol decode failure", "socket_id", e.SocketId, "err", e.Err)
}
