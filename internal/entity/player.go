package entity

// Player is a per-room participant record. The mark is assigned
// explicitly on admission, never inferred from list position.
type Player struct {
	ID        string `json:"id"`
	Mark      string `json:"mark,omitempty"`
	RoomToken string `json:"room_token,omitempty"`
}
