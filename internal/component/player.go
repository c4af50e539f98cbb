package component

// Name is the in-game display name of a player.
type Name struct {
	Text string
}

// Human and AI are mutually exclusive controller markers on player entities.
type Human struct{}

type AI struct{}

// UserID links a player entity to the external account that controls it.
type UserID struct {
	ID string
}
