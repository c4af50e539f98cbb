package system

import (
	"errors"
	"testing"

	"github.com/gridwar/server/internal/component"
	"github.com/gridwar/server/internal/core/ecs"
	"github.com/gridwar/server/internal/factory"
	"github.com/gridwar/server/internal/world"
)

type fixture struct {
	t      *testing.T
	f      *factory.Factory
	m      *world.Manager
	p1, p2 ecs.EntityID
}

func newFixture(t *testing.T, layout ...string) *fixture {
	t.Helper()
	rows, cols := 10, 10
	if len(layout) > 0 {
		rows, cols = len(layout), len(layout[0])
	}
	m := world.NewManager(rows, cols)
	f := factory.New(m, nil)
	var err error
	if len(layout) > 0 {
		err = f.CreateBoardFromLayout(layout)
	} else {
		err = f.CreateBoardBasic()
	}
	if err != nil {
		t.Fatal(err)
	}
	p1, _ := f.HumanPlayer("one", "1")
	p2, _ := f.HumanPlayer("two", "2")
	if _, err := f.TurnTracker([]ecs.EntityID{p1, p2}); err != nil {
		t.Fatal(err)
	}
	return &fixture{t: t, f: f, m: m, p1: p1, p2: p2}
}

func (fx *fixture) put(pt component.PieceType, owner ecs.EntityID, row, col int) ecs.EntityID {
	fx.t.Helper()
	e, err := fx.f.Piece(pt, owner)
	if err != nil {
		fx.t.Fatal(err)
	}
	if err := fx.f.PlacePiece(e, row, col); err != nil {
		fx.t.Fatal(err)
	}
	return e
}

func at(row, col int) world.Coord { return world.Coord{Row: row, Col: col} }

func TestNoMotionMeansNoMoves(t *testing.T) {
	fx := newFixture(t)
	bunker := fx.put(component.CommandBunker, fx.p1, 5, 5)
	if got := NewMotionSystem(fx.m).MoveableLocations(bunker); len(got) != 0 {
		t.Errorf("bunker moves = %v, want none", got)
	}
	if _, err := NewMotionSystem(fx.m).MakeMove(bunker, at(5, 6)); !errors.Is(err, ErrIllegalDestination) {
		t.Errorf("MakeMove on bunker = %v, want ErrIllegalDestination", err)
	}
}

func TestMoveableLocationsRespectBudget(t *testing.T) {
	fx := newFixture(t)
	art := fx.put(component.Artillery, fx.p1, 5, 5)
	got := NewMotionSystem(fx.m).MoveableLocations(art)
	want := []world.Coord{at(4, 5), at(5, 4), at(5, 6), at(6, 5)}
	if len(got) != len(want) {
		t.Fatalf("moves = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("moves[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	inf := fx.put(component.Infantry, fx.p1, 0, 0)
	for _, c := range NewMotionSystem(fx.m).MoveableLocations(inf) {
		if d := world.Manhattan(at(0, 0), c); d > 5 || d == 0 {
			t.Errorf("infantry can reach %v at distance %d", c, d)
		}
	}
}

func TestMovesAvoidBlockedCells(t *testing.T) {
	fx := newFixture(t,
		".M...",
		".....",
		"...R.",
		".....",
		".....",
	)
	inf := fx.put(component.Infantry, fx.p1, 0, 0)
	fx.put(component.Infantry, fx.p2, 3, 0)
	ms := NewMotionSystem(fx.m)

	moves := ms.MoveableLocations(inf)
	for _, c := range moves {
		switch c {
		case at(0, 1):
			t.Errorf("destination %v is a mountain", c)
		case at(2, 3):
			t.Errorf("destination %v is a river", c)
		case at(3, 0):
			t.Errorf("destination %v is occupied", c)
		}
	}

	// (0,2) needs a detour around the mountain: 4 steps.
	path, err := ms.MakeMove(inf, at(0, 2))
	if err != nil {
		t.Fatalf("MakeMove: %v", err)
	}
	if len(path) != 4 || path[len(path)-1] != at(0, 2) {
		t.Errorf("path = %v, want 4 steps ending at (0,2)", path)
	}
	for _, c := range path {
		if !fx.m.Passable(c) {
			t.Errorf("path crosses impassable %v", c)
		}
	}
	mo, _ := fx.m.Motion.First(inf)
	if mo.Current != 1 {
		t.Errorf("motion left = %d, want 1", mo.Current)
	}
	if pos, _ := fx.m.PositionOf(inf); pos != at(0, 2) {
		t.Errorf("position = %v, want (0,2)", pos)
	}
	if err := fx.m.CheckInvariants(); err != nil {
		t.Errorf("CheckInvariants: %v", err)
	}
}

func TestMoveCrossesRiver(t *testing.T) {
	fx := newFixture(t,
		"..R..",
		"MMRMM",
		".....",
		".....",
		".....",
	)
	inf := fx.put(component.Infantry, fx.p1, 0, 0)
	path, err := NewMotionSystem(fx.m).MakeMove(inf, at(2, 2))
	if err != nil {
		t.Fatalf("MakeMove across river: %v", err)
	}
	if len(path) != 4 {
		t.Errorf("path = %v, want 4 steps", path)
	}
	if _, err := NewMotionSystem(fx.m).MakeMove(inf, at(1, 2)); !errors.Is(err, ErrIllegalDestination) {
		t.Errorf("ending on river = %v, want ErrIllegalDestination", err)
	}
}

func TestMakeMoveRejectsUnreachable(t *testing.T) {
	fx := newFixture(t)
	mg := fx.put(component.MachineGun, fx.p1, 0, 0)
	if _, err := NewMotionSystem(fx.m).MakeMove(mg, at(9, 9)); !errors.Is(err, ErrIllegalDestination) {
		t.Errorf("MakeMove far = %v, want ErrIllegalDestination", err)
	}
	mo, _ := fx.m.Motion.First(mg)
	if mo.Current != 3 {
		t.Errorf("failed move spent motion: %d", mo.Current)
	}
}

func TestMeleeFloorsAndDestroys(t *testing.T) {
	fx := newFixture(t)
	atk := fx.put(component.MachineGun, fx.p1, 4, 4)
	victim := fx.put(component.Infantry, fx.p2, 4, 5)
	friend := fx.put(component.Infantry, fx.p1, 3, 4)
	h, _ := fx.m.Health.First(victim)
	h.Current = 4

	ms := NewMeleeSystem(fx.m, nil)
	targets := ms.AttackableLocations(atk)
	if len(targets) != 1 || targets[0] != at(4, 5) {
		t.Fatalf("melee targets = %v, want only (4,5)", targets)
	}
	out, err := ms.Resolve(atk, at(4, 5))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(out.Hits) != 1 {
		t.Fatalf("hits = %+v", out.Hits)
	}
	hit := out.Hits[0]
	if hit.Remaining != 0 || !hit.Died || hit.Damage != 10 {
		t.Errorf("hit = %+v, want floored at 0 and died", hit)
	}
	if fx.m.Alive(victim) {
		t.Errorf("dead victim still alive")
	}
	if _, ok := fx.m.Occupant(at(4, 5)); ok {
		t.Errorf("dead victim still on board")
	}

	if _, err := ms.Resolve(atk, at(3, 4)); !errors.Is(err, ErrNotAdjacent) {
		t.Errorf("melee on friend = %v, want ErrNotAdjacent", err)
	}
	if !fx.m.Alive(friend) {
		t.Errorf("friend destroyed")
	}
}

func TestMeleeSurvivorReportsAlive(t *testing.T) {
	fx := newFixture(t)
	atk := fx.put(component.Infantry, fx.p1, 4, 4)
	victim := fx.put(component.MachineGun, fx.p2, 5, 4)
	out, err := NewMeleeSystem(fx.m, nil).Resolve(atk, at(5, 4))
	if err != nil {
		t.Fatal(err)
	}
	if out.Hits[0].Died || out.Hits[0].Remaining != 10 {
		t.Errorf("hit = %+v, want 10 remaining", out.Hits[0])
	}
	if h, _ := fx.m.Health.First(victim); h.Current != 10 {
		t.Errorf("health = %d, want 10", h.Current)
	}
}

func TestZeroPowerMeleeAttacksNothing(t *testing.T) {
	fx := newFixture(t)
	art := fx.put(component.Artillery, fx.p1, 4, 4)
	fx.put(component.Infantry, fx.p2, 4, 5)
	if got := NewMeleeSystem(fx.m, nil).AttackableLocations(art); len(got) != 0 {
		t.Errorf("artillery melee targets = %v, want none", got)
	}
}

func TestRangeWindowAndImmunity(t *testing.T) {
	fx := newFixture(t)
	inf := fx.put(component.Infantry, fx.p1, 0, 0)
	bunker := fx.put(component.CommandBunker, fx.p2, 0, 2)

	rs := NewRangeSystem(fx.m, nil)
	cells := rs.AttackableLocations(inf)
	for _, c := range cells {
		if d := world.Manhattan(at(0, 0), c); d < 1 || d > 4 {
			t.Errorf("cell %v at distance %d outside [1,4]", c, d)
		}
		if c == at(0, 2) {
			t.Errorf("immune bunker cell offered as target")
		}
	}
	// Diamond of radius 4 clipped to the board quadrant: 14 cells, minus the bunker.
	if len(cells) != 13 {
		t.Errorf("attackable cells = %d, want 13", len(cells))
	}
	if _, err := rs.Resolve(inf, at(0, 2)); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("ranged on bunker = %v, want ErrOutOfRange", err)
	}
	if _, err := rs.Resolve(inf, at(5, 5)); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("ranged beyond max = %v, want ErrOutOfRange", err)
	}
	if h, _ := fx.m.Health.First(bunker); h.Current != 30 {
		t.Errorf("bunker damaged")
	}
}

func TestRangeOnEmptyCellSucceeds(t *testing.T) {
	fx := newFixture(t)
	inf := fx.put(component.Infantry, fx.p1, 0, 0)
	out, err := NewRangeSystem(fx.m, nil).Resolve(inf, at(2, 2))
	if err != nil {
		t.Fatalf("Resolve on empty cell: %v", err)
	}
	if len(out.Hits) != 0 {
		t.Errorf("hits = %+v, want none", out.Hits)
	}
}

func TestSplashHitsEachUnitOnce(t *testing.T) {
	fx := newFixture(t)
	art := fx.put(component.Artillery, fx.p1, 0, 0)
	primary := fx.put(component.MachineGun, fx.p2, 5, 5)
	north := fx.put(component.MachineGun, fx.p2, 4, 5)
	ally := fx.put(component.MachineGun, fx.p1, 5, 4)
	bunker := fx.put(component.CommandBunker, fx.p2, 6, 5)

	out, err := NewRangeSystem(fx.m, nil).Resolve(art, at(5, 5))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	seen := map[ecs.EntityID]int{}
	for _, h := range out.Hits {
		seen[h.Entity]++
	}
	for e, n := range seen {
		if n != 1 {
			t.Errorf("entity %d hit %d times", e, n)
		}
	}
	if len(out.Hits) != 3 {
		t.Errorf("hits = %d, want primary + north + ally", len(out.Hits))
	}
	if out.Hits[0].Entity != primary {
		t.Errorf("first hit = %d, want primary %d", out.Hits[0].Entity, primary)
	}
	for _, e := range []ecs.EntityID{primary, north, ally} {
		if fx.m.Alive(e) {
			t.Errorf("entity %d survived 20 damage", e)
		}
	}
	if h, _ := fx.m.Health.First(bunker); h.Current != 30 {
		t.Errorf("immune bunker took splash: %d", h.Current)
	}
}

func TestSplashOnTargetCellCountsOnce(t *testing.T) {
	fx := newFixture(t)
	art := fx.put(component.Artillery, fx.p1, 0, 0)
	primary := fx.put(component.MachineGun, fx.p2, 5, 5)
	east := fx.put(component.MachineGun, fx.p2, 5, 6)

	ra, _ := fx.m.Range.First(art)
	ra.Power = 5
	ra.Splash = []component.Offset{{DRow: 0, DCol: 0}, {DRow: 0, DCol: 1}, {DRow: 0, DCol: 0}}

	out, err := NewRangeSystem(fx.m, nil).Resolve(art, at(5, 5))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(out.Hits) != 2 {
		t.Fatalf("hits = %+v, want primary and east once each", out.Hits)
	}
	if out.Hits[0].Entity != primary || out.Hits[0].Damage != 5 || out.Hits[1].Entity != east {
		t.Errorf("hits = %+v", out.Hits)
	}
	if h, _ := fx.m.Health.First(primary); h.Current != 15 {
		t.Errorf("primary health = %d, want 15", h.Current)
	}
	if h, _ := fx.m.Health.First(east); h.Current != 15 {
		t.Errorf("east health = %d, want 15", h.Current)
	}
}

type doubleDamage struct{ seen []Strike }

func (d *doubleDamage) Damage(s Strike) int {
	d.seen = append(d.seen, s)
	return 2 * s.Power
}

func TestDamageRuleIsConsulted(t *testing.T) {
	fx := newFixture(t)
	atk := fx.put(component.Infantry, fx.p1, 4, 4)
	victim := fx.put(component.MachineGun, fx.p2, 4, 5)
	rule := &doubleDamage{}
	out, err := NewMeleeSystem(fx.m, rule).Resolve(atk, at(4, 5))
	if err != nil {
		t.Fatal(err)
	}
	if !out.Hits[0].Died {
		t.Errorf("double damage should kill a 20hp machine gun")
	}
	if len(rule.seen) != 1 || rule.seen[0].Victim != victim || rule.seen[0].VictimHealth != 20 || rule.seen[0].Ranged {
		t.Errorf("strike = %+v", rule.seen)
	}
}

func TestEndTurnCyclesAndResetsMotion(t *testing.T) {
	fx := newFixture(t)
	inf1 := fx.put(component.Infantry, fx.p1, 0, 0)
	inf2 := fx.put(component.Infantry, fx.p2, 9, 9)
	ts := NewTurnSystem(fx.m)
	ms := NewMotionSystem(fx.m)

	if cur, _ := ts.Current(); cur != fx.p1 {
		t.Fatalf("initial player = %d, want %d", cur, fx.p1)
	}
	if _, err := ms.MakeMove(inf1, at(0, 3)); err != nil {
		t.Fatal(err)
	}
	if err := ts.MarkActed(inf1); err != nil {
		t.Fatal(err)
	}
	mo2, _ := fx.m.Motion.First(inf2)
	mo2.Current = 0

	next, err := ts.EndTurn()
	if err != nil || next != fx.p2 {
		t.Fatalf("EndTurn = %d, %v; want %d", next, err, fx.p2)
	}
	if ts.HasActed(inf1) {
		t.Errorf("acted set survived EndTurn")
	}
	if mo2.Current != 5 {
		t.Errorf("new player's motion = %d, want reset to 5", mo2.Current)
	}
	if mo1, _ := fx.m.Motion.First(inf1); mo1.Current != 2 {
		t.Errorf("previous player's motion = %d, want untouched 2", mo1.Current)
	}

	if next, _ := ts.EndTurn(); next != fx.p1 {
		t.Errorf("turn did not wrap to the first player")
	}
	if mo1, _ := fx.m.Motion.First(inf1); mo1.Current != 5 {
		t.Errorf("motion = %d after wrap, want 5", mo1.Current)
	}
}

func TestTurnWithoutTracker(t *testing.T) {
	m := world.NewManager(1, 1)
	if _, err := NewTurnSystem(m).Current(); !errors.Is(err, ErrNoTurnTracker) {
		t.Errorf("Current = %v, want ErrNoTurnTracker", err)
	}
}
