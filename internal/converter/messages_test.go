package converter

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/napolitain/village-sim/internal/game"
	"github.com/napolitain/village-sim/internal/loader"
	"github.com/napolitain/village-sim/internal/models"
	"github.com/napolitain/village-sim/internal/village"
)

func TestStructToCommand(t *testing.T) {
	s, err := structpb.NewStruct(map[string]any{
		"op":   "place_building",
		"type": "mosque",
		"x":    3,
		"y":    4,
	})
	if err != nil {
		t.Fatalf("NewStruct: %v", err)
	}

	cmd, err := StructToCommand(s)
	if err != nil {
		t.Fatalf("StructToCommand: %v", err)
	}
	if cmd.Op != game.OpPlaceBuilding {
		t.Errorf("Op: got %s, want place_building", cmd.Op)
	}
	if cmd.Type != models.Mosque {
		t.Errorf("Type: got %s, want mosque", cmd.Type)
	}
	if cmd.X != 3 || cmd.Y != 4 {
		t.Errorf("Position: got (%d,%d), want (3,4)", cmd.X, cmd.Y)
	}
}

func TestStructToCommandCell(t *testing.T) {
	s, _ := structpb.NewStruct(map[string]any{
		"op":   "add_worker",
		"cell": map[string]any{"x": 1, "y": 2},
	})

	cmd, err := StructToCommand(s)
	if err != nil {
		t.Fatalf("StructToCommand: %v", err)
	}
	if cmd.Cell == nil || *cmd.Cell != (models.Position{X: 1, Y: 2}) {
		t.Errorf("Cell: got %v, want (1,2)", cmd.Cell)
	}
}

func TestStructToCommandInvalid(t *testing.T) {
	tests := []struct {
		name    string
		fields  map[string]any
		wantErr error
	}{
		{"unknown op", map[string]any{"op": "demolish"}, game.ErrUnknownOp},
		{"missing type", map[string]any{"op": "place_building"}, game.ErrInvalidCommand},
		{"wrong type", map[string]any{"op": "set_level", "level": "high"}, game.ErrInvalidCommand},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, _ := structpb.NewStruct(tc.fields)
			_, err := StructToCommand(s)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("got %v, want %v", err, tc.wantErr)
			}
		})
	}

	if _, err := StructToCommand(nil); !errors.Is(err, game.ErrInvalidCommand) {
		t.Errorf("nil message: got %v", err)
	}
}

func TestCommandRoundTrip(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	cmd := game.Command{Op: game.OpTick, At: at}

	s, err := CommandToStruct(cmd)
	if err != nil {
		t.Fatalf("CommandToStruct: %v", err)
	}
	back, err := StructToCommand(s)
	if err != nil {
		t.Fatalf("StructToCommand: %v", err)
	}
	if !back.At.Equal(at) {
		t.Errorf("At: got %v, want %v", back.At, at)
	}
}

func TestSnapshotToStruct(t *testing.T) {
	catalog, err := loader.DefaultCatalog()
	if err != nil {
		t.Fatalf("DefaultCatalog: %v", err)
	}
	start := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	v := village.New(catalog, start,
		village.WithBalances(models.Resources{Coins: 500, Knowledge: 200, VirtuePoints: 100}),
		village.WithLogger(zerolog.Nop()),
	)
	if _, err := v.PlaceBuilding(models.Home, 2, 3); err != nil {
		t.Fatalf("PlaceBuilding: %v", err)
	}

	s, err := SnapshotToStruct(v.Snapshot())
	if err != nil {
		t.Fatalf("SnapshotToStruct: %v", err)
	}

	if got := s.Fields["happiness"].GetNumberValue(); got != 55 {
		t.Errorf("happiness: got %v, want 55", got)
	}
	balances := s.Fields["balances"].GetStructValue()
	if got := balances.Fields["coins"].GetNumberValue(); got != 450 {
		t.Errorf("coins: got %v, want 450", got)
	}
	buildings := s.Fields["buildings"].GetListValue().GetValues()
	if len(buildings) != 1 {
		t.Fatalf("buildings: got %d, want 1", len(buildings))
	}
	if got := buildings[0].GetStructValue().Fields["phase"].GetStringValue(); got != "foundation" {
		t.Errorf("phase: got %q, want foundation", got)
	}

	snap, err := StructToSnapshot(s)
	if err != nil {
		t.Fatalf("StructToSnapshot: %v", err)
	}
	if snap.Buildings[0].Position != (models.Position{X: 2, Y: 3}) {
		t.Errorf("position: got %v", snap.Buildings[0].Position)
	}
	if !snap.Now.Equal(start) {
		t.Errorf("now: got %v, want %v", snap.Now, start)
	}
}

func TestResultRoundTrip(t *testing.T) {
	res := game.Result{
		Command:  game.Command{Op: game.OpCompletePrayer, Prayer: "Asr"},
		Reward:   &models.Resources{VirtuePoints: 10},
		Snapshot: village.Snapshot{Level: 2, Happiness: 60},
	}

	s, err := ResultToStruct(res)
	if err != nil {
		t.Fatalf("ResultToStruct: %v", err)
	}
	back, err := StructToResult(s)
	if err != nil {
		t.Fatalf("StructToResult: %v", err)
	}
	if back.Reward == nil || back.Reward.VirtuePoints != 10 {
		t.Errorf("reward: got %v", back.Reward)
	}
	if back.Snapshot.Happiness != 60 || back.Command.Prayer != "Asr" {
		t.Errorf("got %+v", back)
	}
}
