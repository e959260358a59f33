package game

import (
	"context"
	"time"

	"doudizhu-game/poker"
)

// PlayerPoint is one seat's signed settlement for a round.
type PlayerPoint struct {
	UID   uint64 `json:"uid"`
	Point int    `json:"point"`
}

// RoundRecord is the durable summary of one settled round.
type RoundRecord struct {
	RoomID      uint32        `json:"room_id"`
	RoundNum    int           `json:"round_num"`
	LandlordUID uint64        `json:"landlord_uid"`
	WinnerUID   uint64        `json:"winner_uid"`
	Multiple    int           `json:"multiple"`
	Spring      bool          `json:"spring"`
	AntiSpring  bool          `json:"antispring"`
	Kitty       []poker.Card  `json:"kitty,omitempty"`
	Points      []PlayerPoint `json:"points"`
	EndedAt     time.Time     `json:"ended_at"`
}

// RoundStore persists settled rounds. Writes happen off the room goroutine;
// implementations must be safe for concurrent use.
type RoundStore interface {
	SaveRound(ctx context.Context, rec *RoundRecord) error
	LoadRounds(ctx context.Context, roomID uint32) ([]*RoundRecord, error)
	RemoveRounds(ctx context.Context, roomID uint32) error
}
