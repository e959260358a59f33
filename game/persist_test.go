package game

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestMemoryRoundStore(t *testing.T) {
	store := NewMemoryRoundStore()
	ctx := context.Background()

	rounds, err := store.LoadRounds(ctx, 7)
	if err != nil {
		t.Fatalf("LoadRounds empty: %v", err)
	}
	if len(rounds) != 0 {
		t.Fatalf("expected no rounds, got %d", len(rounds))
	}

	rec := &RoundRecord{
		RoomID:      7,
		RoundNum:    0,
		LandlordUID: 1,
		WinnerUID:   2,
		Multiple:    6,
		AntiSpring:  true,
		Points: []PlayerPoint{
			{UID: 1, Point: -120},
			{UID: 2, Point: 60},
			{UID: 3, Point: 60},
		},
		EndedAt: time.Date(2021, 3, 14, 9, 26, 53, 0, time.UTC),
	}
	if err := store.SaveRound(ctx, rec); err != nil {
		t.Fatalf("SaveRound: %v", err)
	}
	if err := store.SaveRound(ctx, &RoundRecord{RoomID: 7, RoundNum: 1}); err != nil {
		t.Fatalf("SaveRound: %v", err)
	}

	rounds, err = store.LoadRounds(ctx, 7)
	if err != nil {
		t.Fatalf("LoadRounds: %v", err)
	}
	if len(rounds) != 2 {
		t.Fatalf("got %d rounds, want 2", len(rounds))
	}
	if !cmp.Equal(rounds[0], rec) {
		t.Errorf("round record changed in storage: %v", cmp.Diff(rec, rounds[0]))
	}

	if err := store.RemoveRounds(ctx, 7); err != nil {
		t.Fatalf("RemoveRounds: %v", err)
	}
	rounds, _ = store.LoadRounds(ctx, 7)
	if len(rounds) != 0 {
		t.Fatalf("rounds survived removal: %d", len(rounds))
	}
}

func TestManagerWiring(t *testing.T) {
	manager, err := NewManager(NewMemoryRoundStore())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if manager.Engine() == nil || manager.Registry() == nil {
		t.Fatal("manager missing components")
	}
	if rounds, err := manager.LoadRounds(context.Background(), 1); err != nil || len(rounds) != 0 {
		t.Fatalf("LoadRounds = %v, %v", rounds, err)
	}
	if counts := manager.RoomList(); len(counts) != 3 {
		t.Fatalf("RoomList = %+v", counts)
	}
}
