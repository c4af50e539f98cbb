package game

import (
	"github.com/gridwar/server/internal/component"
	"github.com/gridwar/server/internal/core/ecs"
	"github.com/gridwar/server/internal/world"
)

// Boundary shapes returned by queries and commands. The JSON field names are
// what a transport layer sends to clients.

type TileInfo struct {
	ID      ecs.EntityID `json:"id"`
	Row     int          `json:"y"`
	Col     int          `json:"x"`
	Terrain string       `json:"terrain"`
}

type HealthInfo struct {
	Current int `json:"current"`
	Max     int `json:"max"`
}

type MotionInfo struct {
	Current int `json:"current"`
	Base    int `json:"base"`
	Cost    int `json:"cost"`
}

type MeleeInfo struct {
	Attack int `json:"attack"`
	Cost   int `json:"cost"`
}

type RangeInfo struct {
	Attack int  `json:"attack,omitempty"`
	Min    int  `json:"min,omitempty"`
	Max    int  `json:"max,omitempty"`
	Splash int  `json:"splash,omitempty"`
	Cost   int  `json:"cost,omitempty"`
	Immune bool `json:"immune"`
}

type UnitStats struct {
	Health HealthInfo  `json:"health"`
	Motion *MotionInfo `json:"motion,omitempty"`
	Melee  *MeleeInfo  `json:"melee,omitempty"`
	Range  RangeInfo   `json:"range"`
}

type UnitInfo struct {
	ID     ecs.EntityID `json:"id"`
	Type   string       `json:"type"`
	Player ecs.EntityID `json:"player"`
	Row    int          `json:"y"`
	Col    int          `json:"x"`
	Stats  UnitStats    `json:"stats"`
}

type PlayerInfo struct {
	ID     ecs.EntityID `json:"id"`
	Name   string       `json:"name"`
	Type   string       `json:"type"` // "Human" or "CPU"
	UserID string       `json:"userId,omitempty"`
}

type FullInfo struct {
	Tile TileInfo  `json:"tile"`
	Unit *UnitInfo `json:"unit"`
}

type ActionInfo struct {
	Available bool `json:"available"`
	Cost      int  `json:"cost"`
}

type UnitActions struct {
	ID    ecs.EntityID `json:"id"`
	Move  ActionInfo   `json:"move"`
	Melee ActionInfo   `json:"melee"`
	Range ActionInfo   `json:"range"`
}

type TurnInfo struct {
	PlayerID ecs.EntityID   `json:"playerid"`
	Name     string         `json:"name"`
	Passed   []ecs.EntityID `json:"passed,omitempty"`
}

type BoardInfo struct {
	Rows  int        `json:"rows"`
	Cols  int        `json:"cols"`
	Tiles []TileInfo `json:"tiles"`
}

// Snapshot is the match-start payload.
type Snapshot struct {
	Board   BoardInfo    `json:"board"`
	Pieces  []UnitInfo   `json:"pieces"`
	Turn    TurnInfo     `json:"turn"`
	Players []PlayerInfo `json:"players"`
}

func tileInfo(m *world.Manager, c world.Coord) (TileInfo, bool) {
	cell, ok := m.Cell(c)
	if !ok || cell.Terrain.IsZero() {
		return TileInfo{}, false
	}
	info := TileInfo{ID: cell.Terrain, Row: c.Row, Col: c.Col}
	if t, ok := m.Terrain.First(cell.Terrain); ok {
		info.Terrain = t.Type.String()
	}
	return info, true
}

func unitInfo(m *world.Manager, e ecs.EntityID) (UnitInfo, bool) {
	p, ok := m.Piece.First(e)
	if !ok || !m.Alive(e) {
		return UnitInfo{}, false
	}
	info := UnitInfo{ID: e, Type: p.Type.String()}
	info.Player, _ = m.OwnerOf(e)
	if pos, ok := m.PositionOf(e); ok {
		info.Row, info.Col = pos.Row, pos.Col
	}
	if h, ok := m.Health.First(e); ok {
		info.Stats.Health = HealthInfo{Current: h.Current, Max: h.Max}
	}
	if mo, ok := m.Motion.First(e); ok {
		info.Stats.Motion = &MotionInfo{Current: mo.Current, Base: mo.Base, Cost: mo.Cost}
	}
	if me, ok := m.Melee.First(e); ok {
		info.Stats.Melee = &MeleeInfo{Attack: me.Power, Cost: me.Cost}
	}
	if ra, ok := m.Range.First(e); ok {
		info.Stats.Range = RangeInfo{
			Attack: ra.Power,
			Min:    ra.MinRange,
			Max:    ra.MaxRange,
			Splash: len(ra.Splash),
			Cost:   ra.Cost,
		}
	}
	info.Stats.Range.Immune = m.Immune.Has(e)
	return info, true
}

func playerInfo(m *world.Manager, e ecs.EntityID) PlayerInfo {
	info := PlayerInfo{ID: e, Type: "Human"}
	if n, ok := m.Name.First(e); ok {
		info.Name = n.Text
	}
	if m.AI.Has(e) {
		info.Type = "CPU"
	}
	if u, ok := m.UserID.First(e); ok {
		info.UserID = u.ID
	}
	return info
}

func isBunker(t component.PieceType) bool { return t == component.CommandBunker }
