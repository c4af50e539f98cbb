package component

import "github.com/gridwar/server/internal/core/ecs"

// Turn is the singleton turn tracker of a match. It is mutated only by the
// turn system.
type Turn struct {
	Players []ecs.EntityID // fixed turn order
	Current int            // index into Players

	// Pieces that already attacked during the current turn.
	Acted map[ecs.EntityID]struct{}
}
