// Package timesync implements the client-side half of the four-timestamp,
// NTP-style clock exchange used to map a client's wall-clock instant onto
// the server's authoritative frame time. It never blocks on the network
// itself — Record is fed timestamps pulled off whatever transport the
// caller is using, and Estimator only does the arithmetic.
package timesync

// TimeRequestInterval is how many client-loop frames pass between
// successive time-sync requests.
const TimeRequestInterval = 13

// startLerpK is the symmetric smoothing constant for the estimated server
// start instant: full adaptation takes on the order of
// 500/TimeRequestInterval samples, several times slower than latency's own
// smoothing, since the start instant should settle rather than track every
// jittery round trip.
const startLerpK = 500.0 / TimeRequestInterval

// danLerp is the one-sided exponential lerp: moves x0 toward x by 1/k of
// the remaining distance.
func danLerp(x0, x, k float64) float64 {
	return (x0*(k-1) + x) / k
}

// danLerpDir applies danLerp with one constant when x is increasing from
// x0 and another when it's decreasing, so a smoothed estimate can adapt
// faster in one direction than the other.
func danLerpDir(x0, x, kUp, kDown float64) float64 {
	if x > x0 {
		return danLerp(x0, x, kUp)
	}
	return danLerp(x0, x, kDown)
}

// Sample is one completed four-timestamp round trip, all in microseconds
// on their respective clocks:
//
//	t0 — client send time of the TimeRequestPacket
//	t1 — server receive time, echoed back in TimeRequestIntermediate
//	t2 — server send time of the TimeResponsePacket
//	t3 — client receive time of the TimeResponsePacket
type Sample struct {
	T0, T1, T2, T3 int64
}

// Latency returns this sample's one-way latency estimate, assuming
// symmetric forward/return trip time.
func (s Sample) Latency() float64 {
	return float64((s.T3-s.T0)-(s.T2-s.T1)) / 2
}

// ServerTimeAtT2 returns the server's estimated clock reading at the
// moment this sample was received by the client (t3), projecting t2
// forward by the estimated one-way latency.
func (s Sample) ServerTimeAtT2() float64 {
	return float64(s.T2) + s.Latency()
}

// Estimator accumulates Samples into a smoothed estimate of the offset
// between the server's clock and the client's, converging over roughly
// TimeRequestInterval round trips rather than snapping to the latest one,
// so a single slow or fast network blip doesn't visibly jolt prediction.
type Estimator struct {
	initialized bool

	latencyUs float64

	// serverStartInstantUs is the estimated server-clock reading that
	// corresponds to client instant 0: server_time_now ≈ clientNowUs +
	// serverStartInstantUs. Framed this way (rather than as a raw offset
	// resampled every round trip) so ServerTimeNow is a cheap local
	// computation between samples.
	serverStartInstantUs float64
}

// NewEstimator returns an estimator with no samples yet recorded.
func NewEstimator() *Estimator {
	return &Estimator{}
}

// Record folds one completed round trip into the smoothed estimate.
func (e *Estimator) Record(s Sample) {
	latency := s.Latency()
	startInstant := s.ServerTimeAtT2() - float64(s.T3)

	if !e.initialized {
		e.latencyUs = latency
		e.serverStartInstantUs = startInstant
		e.initialized = true
		return
	}

	e.latencyUs = danLerp(e.latencyUs, latency, TimeRequestInterval)
	e.serverStartInstantUs = danLerpDir(e.serverStartInstantUs, startInstant, startLerpK, startLerpK)
}

// Ready reports whether at least one sample has been recorded.
func (e *Estimator) Ready() bool {
	return e.initialized
}

// LatencyUs returns the current smoothed one-way latency estimate.
func (e *Estimator) LatencyUs() float64 {
	return e.latencyUs
}

// ServerTimeNow projects the client's current clock reading onto the
// server's estimated clock.
func (e *Estimator) ServerTimeNow(clientNowUs int64) float64 {
	return float64(clientNowUs) + e.serverStartInstantUs
}
