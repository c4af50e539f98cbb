package event

import (
	"github.com/gridwar/server/internal/core/ecs"
	"github.com/gridwar/server/internal/world"
)

// Match events. Emitted by the game facade after a command succeeds.

type UnitMoved struct {
	Unit ecs.EntityID
	Path []world.Coord
}

type UnitAttacked struct {
	Attacker ecs.EntityID
	Target   world.Coord
	Ranged   bool
	Damage   map[ecs.EntityID]int
}

type UnitDestroyed struct {
	Unit  ecs.EntityID
	Owner ecs.EntityID
	At    world.Coord
}

type PlayerDefeated struct {
	Player ecs.EntityID
}

type TurnEnded struct {
	From   ecs.EntityID
	To     ecs.EntityID
	Passed []ecs.EntityID // AI players skipped on the way
}
