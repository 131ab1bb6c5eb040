package entity

const (
	StatusWaiting  = "waiting"
	StatusOngoing  = "ongoing"
	StatusFinished = "finished"

	PlayerX   = "X"
	PlayerO   = "O"
	PlayerTie = "-"

	EmptyCell = ""
)

const (
	VariantClassic  = "classic"
	VariantMisere   = "misere"
	VariantUltimate = "ultimate"
)

// AnyBoard means the next mover may play in any undecided sub-board.
const AnyBoard = -1

const maxPlayers = 2

// UltimateBoard is the nested 3x3-of-3x3 state for the ultimate
// variant. Outcomes holds one entry per sub-board: EmptyCell while
// undecided, a mark once won, PlayerTie once drawn.
type UltimateBoard struct {
	Boards   [9][9]string `json:"boards"`
	Outcomes [9]string    `json:"outcomes"`
	Active   int          `json:"active"`
}

// Room is the authoritative session unit. The variant is fixed at
// creation; Ultimate is non-nil only for the ultimate variant.
type Room struct {
	Token    string         `json:"token"`
	Variant  string         `json:"variant"`
	Status   string         `json:"status"`
	Turn     string         `json:"turn,omitempty"`
	Winner   string         `json:"winner,omitempty"`
	Players  []*Player      `json:"players,omitempty"`
	Board    [9]string      `json:"board"`
	Ultimate *UltimateBoard `json:"ultimate,omitempty"`
}

func NewRoom(token, variant string) *Room {
	room := &Room{
		Token:   token,
		Variant: variant,
		Status:  StatusWaiting,
		Turn:    PlayerX,
	}

	if variant == VariantUltimate {
		room.Ultimate = &UltimateBoard{Active: AnyBoard}
	}

	return room
}

func IsValidVariant(variant string) bool {
	switch variant {
	case VariantClassic, VariantMisere, VariantUltimate:
		return true
	default:
		return false
	}
}

func (that *Room) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Room) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that *Room) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Room) HasSeat() bool {
	return len(that.Players) < maxPlayers
}

func (that *Room) PlayerByID(id string) *Player {
	for _, player := range that.Players {
		if player.ID == id {
			return player
		}
	}

	return nil
}

// Opponent returns the other participant, or nil when the player is
// alone in the room.
func (that *Room) Opponent(id string) *Player {
	for _, player := range that.Players {
		if player.ID != id {
			return player
		}
	}

	return nil
}
