package converter

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/napolitain/village-sim/internal/game"
	"github.com/napolitain/village-sim/internal/village"
)

// CommandToStruct converts a command to its wire message
func CommandToStruct(cmd game.Command) (*structpb.Struct, error) {
	return ToStruct(cmd)
}

// StructToCommand converts a wire message to a validated command
func StructToCommand(s *structpb.Struct) (game.Command, error) {
	var cmd game.Command
	if err := FromStruct(s, &cmd); err != nil {
		return game.Command{}, fmt.Errorf("%w: %v", game.ErrInvalidCommand, err)
	}
	if err := cmd.Validate(); err != nil {
		return game.Command{}, err
	}
	return cmd, nil
}

// ResultToStruct converts a command result to its wire message
func ResultToStruct(res game.Result) (*structpb.Struct, error) {
	return ToStruct(res)
}

// StructToResult converts a wire message back to a command result
func StructToResult(s *structpb.Struct) (game.Result, error) {
	var res game.Result
	err := FromStruct(s, &res)
	return res, err
}

// SnapshotToStruct converts a village snapshot to its wire message
func SnapshotToStruct(snap village.Snapshot) (*structpb.Struct, error) {
	return ToStruct(snap)
}

// StructToSnapshot converts a wire message back to a village snapshot
func StructToSnapshot(s *structpb.Struct) (village.Snapshot, error) {
	var snap village.Snapshot
	err := FromStruct(s, &snap)
	return snap, err
}
