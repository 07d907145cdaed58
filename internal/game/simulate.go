package game

import (
	"github.com/crossy/crossy-go/internal/protocol"
	"github.com/crossy/crossy-go/internal/rules"
	"github.com/crossy/crossy-go/internal/worldmap"
)

// GoalDistance is how far forward (in rows) from the round's starting
// screen position a player must travel to win the round.
const GoalDistance = 40

// Simulate advances prev by one tick given this tick's inputs and the
// procedural map, returning the next GameState. It is a pure function:
// the same (prev, inputs, dtUs) always yields the same next state, which
// is the property the whole rollback/reconciliation design in
// internal/timeline depends on. The steps run in a fixed order so that
// movement, collision, and rule transitions never race each other within
// a tick:
//
//  1. advance the clock
//  2. apply queued moves (grid step + push chain resolution)
//  3. resolve river state (attach to / drift with / fall off lilypads)
//  4. resolve road collisions
//  5. detect goal crossings
//  6. advance the rules FST from this tick's observed events
func Simulate(prev GameState, inputs protocol.PlayerInputs, dtUs uint32, m *worldmap.Map) GameState {
	next := prev
	next.TimeUs = prev.TimeUs + dtUs
	next.FrameId = prev.FrameId + 1

	roundId := prev.Rules.FST.GetRoundId()

	ids := next.Players.Keys()
	players := make(map[protocol.PlayerId]PlayerState, len(ids))
	for _, id := range ids {
		p, _ := next.Players.Get(id)
		players[id] = p
	}

	applyMoves(players, ids, inputs, roundId, m)
	resolveRiver(players, ids, roundId, next.TimeUs, prev.Rules.FST.GetRiverSpawnTimes(), m)
	resolveRoads(players, ids, roundId, next.TimeUs, m)
	// Mid-round ScreenY has already scrolled forward one row every
	// RoundTicksPerRow ticks; undo that to recover the starting position.
	startScreenY := prev.Rules.FST.GetScreenY()
	if prev.Rules.FST.Kind == rules.FSTRound && prev.Rules.Config.RoundTicksPerRow > 0 {
		startScreenY += int32(prev.Rules.FST.Round.TickInRound / prev.Rules.Config.RoundTicksPerRow)
	}
	resolveGoal(players, ids, startScreenY)

	for _, id := range ids {
		next.Players.Set(id, players[id])
	}

	ev := buildRoundEvents(players, ids, prev.Rules.FST.Lobby, prev.Rules.Config.RaftWidth)
	next.Rules = rules.Advance(prev.Rules, ev, prev.Seed, m)

	return next
}

// applyMoves steps every player whose move cooldown has elapsed and who
// requested a direction this tick, resolving chains of pushed players
// before committing any of them. A push that would shove the front of the
// chain into a wall cancels the whole chain; a push that would shove it
// off either side of the map instead kills that player and lets everyone
// behind them in the chain shift forward.
func applyMoves(players map[protocol.PlayerId]PlayerState, ids []protocol.PlayerId, inputs protocol.PlayerInputs, roundId uint8, m *worldmap.Map) {
	occupied := make(map[protocol.CoordPos]protocol.PlayerId, len(ids))
	for _, id := range ids {
		p := players[id]
		if !p.Dead {
			occupied[p.Pos.ToCoord()] = id
		}
	}

	for _, id := range ids {
		p := players[id]
		if p.Dead || p.ReachedGoal {
			continue
		}
		if p.MoveCooldown > 0 {
			p.MoveCooldown--
			players[id] = p
			continue
		}

		in := inputs.Get(id)
		dx, dy := in.Delta()
		if dx == 0 && dy == 0 {
			continue
		}

		from := p.Pos.ToCoord()
		target := from.Add(dx, dy)

		chain := []protocol.PlayerId{id}
		cur := target
		for {
			occ, ok := occupied[cur]
			if !ok || occ == id {
				break
			}
			chain = append(chain, occ)
			cur = cur.Add(dx, dy)
		}

		offMap := cur.X < 0 || cur.X >= worldmap.ScreenSize
		if !offMap && m.Collides(roundId, cur) {
			// Chain runs into a wall; nobody in it moves this tick.
			continue
		}

		if offMap {
			// The chain's last member would be pushed past the edge of
			// the map and dies instead of landing there; everyone else
			// in the chain still shifts forward into the cell ahead.
			victimId := chain[len(chain)-1]
			victim := players[victimId]
			delete(occupied, victim.Pos.ToCoord())
			victim.Dead = true
			players[victimId] = victim
			chain = chain[:len(chain)-1]
		}

		// Apply the chain back-to-front so each mover's vacated cell is
		// free before the next mover claims it.
		for i := len(chain) - 1; i >= 0; i-- {
			mover := players[chain[i]]
			oldPos := mover.Pos.ToCoord()
			newPos := oldPos.Add(dx, dy)
			delete(occupied, oldPos)
			mover.Pos = protocol.NewCoordPos(newPos.X, newPos.Y)
			mover.Riding = nil
			mover.MoveCooldown = MoveCooldownTicks
			mover.TicksInWater = 0
			occupied[newPos] = chain[i]
			players[chain[i]] = mover
		}
	}
}

// resolveRiver attaches a player stepping onto river water to a lilypad,
// carries riders along with their lilypad's drift, and drowns anyone left
// treading water too long or riding a lilypad that drifts off-screen.
func resolveRiver(players map[protocol.PlayerId]PlayerState, ids []protocol.PlayerId, roundId uint8, timeUs uint32, spawnTimes worldmap.RiverSpawnTimes, m *worldmap.Map) {
	for _, id := range ids {
		p := players[id]
		if p.Dead {
			continue
		}

		coord := p.Pos.ToCoord()
		row := m.GetRow(roundId, coord.Y)
		if row.Kind != worldmap.RowRiver {
			p.Riding = nil
			p.TicksInWater = 0
			players[id] = p
			continue
		}

		if p.Riding != nil {
			x, ok := m.LilypadPos(roundId, timeUs, *p.Riding)
			if !ok || x < 0 || x >= worldmap.ScreenSize {
				p.Dead = true
				players[id] = p
				continue
			}
			p.Pos = protocol.NewPrecisePos(x, float64(coord.Y))
			players[id] = p
			continue
		}

		if lily, ok := m.LilypadAt(roundId, timeUs, spawnTimes, p.Pos.ToPrecise()); ok {
			p.Riding = &lily
			p.TicksInWater = 0
			players[id] = p
			continue
		}

		p.TicksInWater++
		if p.TicksInWater >= DrownTicks {
			p.Dead = true
		}
		players[id] = p
	}
}

// resolveRoads kills any player standing under a car.
func resolveRoads(players map[protocol.PlayerId]PlayerState, ids []protocol.PlayerId, roundId uint8, timeUs uint32, m *worldmap.Map) {
	for _, id := range ids {
		p := players[id]
		if p.Dead || p.Riding != nil {
			continue
		}
		if m.CollidesCar(roundId, timeUs, p.Pos.ToCoord()) {
			p.Dead = true
			players[id] = p
		}
	}
}

// resolveGoal marks players who have traveled GoalDistance rows forward
// of the round's starting screen position.
func resolveGoal(players map[protocol.PlayerId]PlayerState, ids []protocol.PlayerId, startScreenY int32) {
	goalY := startScreenY - GoalDistance
	for _, id := range ids {
		p := players[id]
		if p.Dead || p.ReachedGoal {
			continue
		}
		if p.Pos.ToCoord().Y <= goalY {
			p.ReachedGoal = true
			players[id] = p
		}
	}
}

func buildRoundEvents(players map[protocol.PlayerId]PlayerState, ids []protocol.PlayerId, lobby rules.LobbyState, raftWidth int32) rules.RoundEvents {
	ev := rules.RoundEvents{PlayerCount: len(ids)}
	for _, id := range ids {
		p := players[id]
		if p.ReachedGoal {
			ev.PlayersAtGoal = append(ev.PlayersAtGoal, id)
		}
		if p.Dead {
			ev.PlayersDied = append(ev.PlayersDied, id)
		} else {
			ev.PlayersRemaining = append(ev.PlayersRemaining, id)
			if rules.PlayerInLobbyReadyZone(lobby, raftWidth, p.Pos.ToCoord()) {
				ev.PlayersInReadyZone++
			}
		}
	}
	return ev
}
