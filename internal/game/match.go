package game

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/gridwar/server/internal/component"
	"github.com/gridwar/server/internal/core/ecs"
	"github.com/gridwar/server/internal/core/event"
	"github.com/gridwar/server/internal/factory"
	"github.com/gridwar/server/internal/system"
	"github.com/gridwar/server/internal/world"
)

// Match is one running game. Commands hold the write lock for their whole
// read-validate-mutate sequence; queries share the read lock.
type Match struct {
	id   uuid.UUID
	spec factory.MatchSpec
	log  *zap.Logger
	rec  Recorder

	mu      sync.RWMutex
	m       *world.Manager
	motion  *system.MotionSystem
	melee   *system.MeleeSystem
	ranged  *system.RangeSystem
	turns   *system.TurnSystem
	bus     *event.Bus
	bunkers map[ecs.EntityID]ecs.EntityID // player → command bunker
	seq     int64
}

// AttackResult is the outcome of a melee or ranged attack plus the players
// whose command bunker fell to it.
type AttackResult struct {
	system.Outcome
	Defeated []ecs.EntityID `json:"defeated,omitempty"`
}

// NewMatch builds a match from spec. It is not registered anywhere; Game
// does that.
func NewMatch(id uuid.UUID, spec factory.MatchSpec, deps Deps) (*Match, error) {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	m := world.NewManager(spec.Rows, spec.Cols)
	setup, err := factory.New(m, deps.Pieces).NewMatch(spec)
	if err != nil {
		return nil, err
	}

	mt := &Match{
		id:      id,
		spec:    spec,
		log:     log.With(zap.String("match", id.String())),
		rec:     deps.Recorder,
		m:       m,
		motion:  system.NewMotionSystem(m),
		melee:   system.NewMeleeSystem(m, deps.Damage),
		ranged:  system.NewRangeSystem(m, deps.Damage),
		turns:   system.NewTurnSystem(m),
		bus:     event.NewBus(),
		bunkers: make(map[ecs.EntityID]ecs.EntityID, len(setup.Players)),
	}
	for i, p := range setup.Players {
		for _, e := range setup.Pieces[i] {
			if pc, ok := m.Piece.First(e); ok && isBunker(pc.Type) {
				mt.bunkers[p] = e
				break
			}
		}
	}
	mt.subscribe()

	// A match may open on a computer seat.
	if passed := mt.passAI(); len(passed) > 0 {
		cur, _ := mt.turns.Current()
		event.Emit(mt.bus, event.TurnEnded{From: passed[0], To: cur, Passed: passed})
		mt.bus.Flush()
	}
	return mt, nil
}

func (mt *Match) subscribe() {
	log := mt.log
	event.Subscribe(mt.bus, func(ev event.UnitMoved) {
		log.Debug("unit moved", zap.Uint64("unit", uint64(ev.Unit)), zap.Int("steps", len(ev.Path)))
	})
	event.Subscribe(mt.bus, func(ev event.UnitAttacked) {
		log.Debug("unit attacked",
			zap.Uint64("attacker", uint64(ev.Attacker)),
			zap.Int("row", ev.Target.Row), zap.Int("col", ev.Target.Col),
			zap.Bool("ranged", ev.Ranged), zap.Int("victims", len(ev.Damage)),
		)
	})
	event.Subscribe(mt.bus, func(ev event.UnitDestroyed) {
		log.Debug("unit destroyed", zap.Uint64("unit", uint64(ev.Unit)), zap.Uint64("owner", uint64(ev.Owner)))
	})
	event.Subscribe(mt.bus, func(ev event.PlayerDefeated) {
		log.Info("player defeated", zap.Uint64("player", uint64(ev.Player)))
	})
	event.Subscribe(mt.bus, func(ev event.TurnEnded) {
		log.Debug("turn ended",
			zap.Uint64("from", uint64(ev.From)), zap.Uint64("to", uint64(ev.To)),
			zap.Int("ai_passed", len(ev.Passed)),
		)
	})
}

func (mt *Match) ID() uuid.UUID { return mt.id }

func (mt *Match) Spec() factory.MatchSpec { return mt.spec }

// ── Command plumbing ─────────────────────────────────────────────────

// requester resolves an external user id to the player it controls.
func (mt *Match) requester(userID string) (ecs.EntityID, bool) {
	for e := range mt.m.UserID.Entities() {
		if u, _ := mt.m.UserID.First(e); u.ID == userID {
			return e, true
		}
	}
	return 0, false
}

// authorize checks that unit exists, that userID controls its owner and that
// the owner holds the turn.
func (mt *Match) authorize(userID string, unit ecs.EntityID) error {
	if !mt.m.Alive(unit) || !mt.m.Piece.Has(unit) {
		return fmt.Errorf("unit %d: %w", unit, ecs.ErrUnknownEntity)
	}
	player, ok := mt.requester(userID)
	owner, owned := mt.m.OwnerOf(unit)
	if !ok || !owned || owner != player {
		return fmt.Errorf("user %q, unit %d: %w", userID, unit, ErrNotOwner)
	}
	cur, err := mt.turns.Current()
	if err != nil {
		return err
	}
	if cur != owner {
		return fmt.Errorf("user %q: %w", userID, ErrNotYourTurn)
	}
	return nil
}

// fail drops the events of a rejected command.
func (mt *Match) fail(op string, err error) error {
	mt.bus.Discard()
	if errors.Is(err, world.ErrInvariant) {
		mt.log.Error("command aborted on invariant violation", zap.String("op", op), zap.Error(err))
	} else {
		mt.log.Debug("command rejected", zap.String("op", op), zap.Error(err))
	}
	return err
}

// commit delivers the command's events and hands it to the recorder.
func (mt *Match) commit(cmd Command) {
	mt.bus.Flush()
	mt.seq++
	if mt.rec != nil {
		mt.rec.Record(Action{Match: mt.id, Seq: mt.seq, Command: cmd, At: time.Now()})
	}
}

// ── Commands ─────────────────────────────────────────────────────────

// MoveUnit moves unit to dest and returns the traversed cells.
func (mt *Match) MoveUnit(userID string, unit ecs.EntityID, dest world.Coord) ([]world.Coord, error) {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	if err := mt.authorize(userID, unit); err != nil {
		return nil, mt.fail("move", err)
	}
	path, err := mt.motion.MakeMove(unit, dest)
	if err != nil {
		return nil, mt.fail("move", err)
	}
	event.Emit(mt.bus, event.UnitMoved{Unit: unit, Path: path})
	mt.commit(Command{Kind: CmdMove, Requester: userID, Unit: unit, Target: dest})
	return path, nil
}

// MeleeAttack strikes the enemy on target.
func (mt *Match) MeleeAttack(userID string, unit ecs.EntityID, target world.Coord) (AttackResult, error) {
	return mt.attack(CmdMelee, userID, unit, target)
}

// RangedAttack fires at target, splash included.
func (mt *Match) RangedAttack(userID string, unit ecs.EntityID, target world.Coord) (AttackResult, error) {
	return mt.attack(CmdRange, userID, unit, target)
}

func (mt *Match) attack(kind CommandKind, userID string, unit ecs.EntityID, target world.Coord) (AttackResult, error) {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	op := string(kind)
	if err := mt.authorize(userID, unit); err != nil {
		return AttackResult{}, mt.fail(op, err)
	}
	if mt.turns.HasActed(unit) {
		return AttackResult{}, mt.fail(op, fmt.Errorf("unit %d: %w", unit, ErrAlreadyActed))
	}

	var (
		out system.Outcome
		err error
	)
	if kind == CmdRange {
		out, err = mt.ranged.Resolve(unit, target)
	} else {
		out, err = mt.melee.Resolve(unit, target)
	}
	if err != nil {
		return AttackResult{}, mt.fail(op, err)
	}
	if err := mt.turns.MarkActed(unit); err != nil {
		return AttackResult{}, mt.fail(op, err)
	}

	res := AttackResult{Outcome: out}
	dmg := make(map[ecs.EntityID]int, len(out.Hits))
	for _, h := range out.Hits {
		dmg[h.Entity] = h.Damage
	}
	event.Emit(mt.bus, event.UnitAttacked{Attacker: unit, Target: target, Ranged: kind == CmdRange, Damage: dmg})
	for _, h := range out.Deaths() {
		event.Emit(mt.bus, event.UnitDestroyed{Unit: h.Entity, Owner: h.Owner, At: h.At})
		if isBunker(h.Piece) {
			res.Defeated = append(res.Defeated, h.Owner)
			event.Emit(mt.bus, event.PlayerDefeated{Player: h.Owner})
		}
	}
	mt.commit(Command{Kind: kind, Requester: userID, Unit: unit, Target: target})
	return res, nil
}

// EndTurn passes the turn on. Only the user controlling the current player
// may end it; anyone else gets an empty TurnInfo and ErrNotYourTurn.
func (mt *Match) EndTurn(userID string) (TurnInfo, error) {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	cur, err := mt.turns.Current()
	if err != nil {
		return TurnInfo{}, mt.fail("end_turn", err)
	}
	if player, ok := mt.requester(userID); !ok || player != cur {
		return TurnInfo{}, mt.fail("end_turn", fmt.Errorf("user %q: %w", userID, ErrNotYourTurn))
	}
	if _, err := mt.turns.EndTurn(); err != nil {
		return TurnInfo{}, mt.fail("end_turn", err)
	}
	passed := mt.passAI()
	info, err := mt.turnInfo()
	if err != nil {
		return TurnInfo{}, mt.fail("end_turn", err)
	}
	info.Passed = passed

	event.Emit(mt.bus, event.TurnEnded{From: cur, To: info.PlayerID, Passed: passed})
	mt.commit(Command{Kind: CmdEndTurn, Requester: userID})
	return info, nil
}

// passAI ends the turn of computer players until a human holds it. Nothing
// is passed when every player is a computer.
func (mt *Match) passAI() []ecs.EntityID {
	players, err := mt.turns.Players()
	if err != nil {
		return nil
	}
	if !slices.ContainsFunc(players, func(p ecs.EntityID) bool { return !mt.m.AI.Has(p) }) {
		return nil
	}
	var passed []ecs.EntityID
	for i := 0; i < len(players)-1; i++ {
		cur, err := mt.turns.Current()
		if err != nil || !mt.m.AI.Has(cur) {
			break
		}
		if _, err := mt.turns.EndTurn(); err != nil {
			break
		}
		passed = append(passed, cur)
	}
	return passed
}

// ── Queries ──────────────────────────────────────────────────────────

func (mt *Match) TileInfo(row, col int) (TileInfo, bool) {
	mt.mu.RLock()
	defer mt.mu.RUnlock()
	return tileInfo(mt.m, world.Coord{Row: row, Col: col})
}

// UnitInfo describes the unit standing on (row, col), if any.
func (mt *Match) UnitInfo(row, col int) (UnitInfo, bool) {
	mt.mu.RLock()
	defer mt.mu.RUnlock()
	e, ok := mt.m.Occupant(world.Coord{Row: row, Col: col})
	if !ok {
		return UnitInfo{}, false
	}
	return unitInfo(mt.m, e)
}

func (mt *Match) FullInfo(row, col int) (FullInfo, bool) {
	mt.mu.RLock()
	defer mt.mu.RUnlock()
	return mt.fullInfo(world.Coord{Row: row, Col: col})
}

func (mt *Match) fullInfo(c world.Coord) (FullInfo, bool) {
	tile, ok := tileInfo(mt.m, c)
	if !ok {
		return FullInfo{}, false
	}
	info := FullInfo{Tile: tile}
	if e, ok := mt.m.Occupant(c); ok {
		if u, ok := unitInfo(mt.m, e); ok {
			info.Unit = &u
		}
	}
	return info, true
}

// PlayerInfo looks a player up by name, ignoring case.
func (mt *Match) PlayerInfo(name string) (PlayerInfo, bool) {
	mt.mu.RLock()
	defer mt.mu.RUnlock()
	fold := cases.Fold()
	want := fold.String(name)
	for e := range mt.m.Name.Entities() {
		n, _ := mt.m.Name.First(e)
		if fold.String(n.Text) == want {
			return playerInfo(mt.m, e), true
		}
	}
	return PlayerInfo{}, false
}

func (mt *Match) AllTileInfo() []TileInfo {
	mt.mu.RLock()
	defer mt.mu.RUnlock()
	out := make([]TileInfo, 0, mt.m.Rows()*mt.m.Cols())
	mt.m.Board().Each(func(c world.Coord) {
		if t, ok := tileInfo(mt.m, c); ok {
			out = append(out, t)
		}
	})
	return out
}

// AllUnitInfo lists every unit on the board, row-major.
func (mt *Match) AllUnitInfo() []UnitInfo {
	mt.mu.RLock()
	defer mt.mu.RUnlock()
	return mt.allUnits()
}

func (mt *Match) allUnits() []UnitInfo {
	var out []UnitInfo
	mt.m.Board().Each(func(c world.Coord) {
		if e, ok := mt.m.Occupant(c); ok {
			if u, ok := unitInfo(mt.m, e); ok {
				out = append(out, u)
			}
		}
	})
	return out
}

func (mt *Match) AllFullInfo() []FullInfo {
	mt.mu.RLock()
	defer mt.mu.RUnlock()
	out := make([]FullInfo, 0, mt.m.Rows()*mt.m.Cols())
	mt.m.Board().Each(func(c world.Coord) {
		if f, ok := mt.fullInfo(c); ok {
			out = append(out, f)
		}
	})
	return out
}

// AllPlayerInfo lists players in turn order.
func (mt *Match) AllPlayerInfo() []PlayerInfo {
	mt.mu.RLock()
	defer mt.mu.RUnlock()
	return mt.allPlayers()
}

func (mt *Match) allPlayers() []PlayerInfo {
	players, err := mt.turns.Players()
	if err != nil {
		return nil
	}
	out := make([]PlayerInfo, 0, len(players))
	for _, p := range players {
		out = append(out, playerInfo(mt.m, p))
	}
	return out
}

// UnitActions reports which actions unit can take right now and what each
// costs.
func (mt *Match) UnitActions(unit ecs.EntityID) (UnitActions, bool) {
	mt.mu.RLock()
	defer mt.mu.RUnlock()
	m := mt.m
	if !m.Alive(unit) || !m.Piece.Has(unit) {
		return UnitActions{}, false
	}
	acts := UnitActions{ID: unit}
	if mo, ok := m.Motion.First(unit); ok {
		acts.Move = ActionInfo{Available: len(mt.motion.MoveableLocations(unit)) > 0, Cost: mo.Cost}
	}
	acted := mt.turns.HasActed(unit)
	if me, ok := m.Melee.First(unit); ok {
		acts.Melee = ActionInfo{Available: !acted && len(mt.melee.AttackableLocations(unit)) > 0, Cost: me.Cost}
	}
	if ra, ok := m.Range.First(unit); ok {
		acts.Range = ActionInfo{Available: !acted && len(mt.ranged.AttackableLocations(unit)) > 0, Cost: ra.Cost}
	}
	return acts, true
}

func (mt *Match) UnitMoves(unit ecs.EntityID) []world.Coord {
	mt.mu.RLock()
	defer mt.mu.RUnlock()
	return mt.motion.MoveableLocations(unit)
}

func (mt *Match) UnitMeleeAttacks(unit ecs.EntityID) []world.Coord {
	mt.mu.RLock()
	defer mt.mu.RUnlock()
	return mt.melee.AttackableLocations(unit)
}

func (mt *Match) UnitRangeAttacks(unit ecs.EntityID) []world.Coord {
	mt.mu.RLock()
	defer mt.mu.RUnlock()
	return mt.ranged.AttackableLocations(unit)
}

func (mt *Match) Turn() (TurnInfo, error) {
	mt.mu.RLock()
	defer mt.mu.RUnlock()
	return mt.turnInfo()
}

func (mt *Match) turnInfo() (TurnInfo, error) {
	cur, err := mt.turns.Current()
	if err != nil {
		return TurnInfo{}, err
	}
	info := TurnInfo{PlayerID: cur}
	if n, ok := mt.m.Name.First(cur); ok {
		info.Name = n.Text
	}
	return info, nil
}

// Snapshot is the full match state in its match-start shape.
func (mt *Match) Snapshot() (Snapshot, error) {
	mt.mu.RLock()
	defer mt.mu.RUnlock()
	turn, err := mt.turnInfo()
	if err != nil {
		return Snapshot{}, err
	}
	board := BoardInfo{Rows: mt.m.Rows(), Cols: mt.m.Cols(), Tiles: make([]TileInfo, 0, mt.m.Rows()*mt.m.Cols())}
	mt.m.Board().Each(func(c world.Coord) {
		if t, ok := tileInfo(mt.m, c); ok {
			board.Tiles = append(board.Tiles, t)
		}
	})
	return Snapshot{
		Board:   board,
		Pieces:  mt.allUnits(),
		Turn:    turn,
		Players: mt.allPlayers(),
	}, nil
}

// Defeated lists players whose command bunker has been destroyed, in turn
// order.
func (mt *Match) Defeated() []ecs.EntityID {
	mt.mu.RLock()
	defer mt.mu.RUnlock()
	players, _ := mt.turns.Players()
	var out []ecs.EntityID
	for _, p := range players {
		if b, ok := mt.bunkers[p]; ok && !mt.m.Alive(b) {
			out = append(out, p)
		}
	}
	return out
}

// Pieces lists the live units owned by player in creation order.
func (mt *Match) Pieces(player ecs.EntityID) []ecs.EntityID {
	mt.mu.RLock()
	defer mt.mu.RUnlock()
	var out []ecs.EntityID
	ecs.Each2(mt.m.Owned, mt.m.Piece, func(e ecs.EntityID, o *component.Owned, _ *component.Piece) {
		if o.Owner == player {
			out = append(out, e)
		}
	})
	slices.Sort(out)
	return out
}

// CheckInvariants verifies the board and stores agree.
func (mt *Match) CheckInvariants() error {
	mt.mu.RLock()
	defer mt.mu.RUnlock()
	return mt.m.CheckInvariants()
}
