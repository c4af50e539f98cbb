package component

// Kind names one of the fixed component kinds an entity may carry.
type Kind uint8

const (
	KindTerrain Kind = iota
	KindOccupiable
	KindImpassable
	KindPosition
	KindName
	KindHuman
	KindAI
	KindUserID
	KindPiece
	KindHealth
	KindMotion
	KindMeleeAttack
	KindRangeAttack
	KindRangeAttackImmunity
	KindOwned
	KindTurn
	kindCount
)

var kindNames = [kindCount]string{
	"terrain", "occupiable", "impassable", "position", "name", "human", "ai",
	"user_id", "piece", "health", "motion", "melee_attack", "range_attack",
	"range_attack_immunity", "owned", "turn",
}

func (k Kind) String() string {
	if k >= kindCount {
		return "unknown"
	}
	return kindNames[k]
}

// Kinds returns every component kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, kindCount)
	for k := Kind(0); k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}
