package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/napolitain/village-sim/internal/config"
	"github.com/napolitain/village-sim/internal/game"
	"github.com/napolitain/village-sim/internal/models"
)

// TestFlagsOverrideConfig verifies that flags set on the command line win
// over the config file, and unset flags keep the file's values.
func TestFlagsOverrideConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "village.yaml")
	doc := "server:\n  grpc_addr: \":6000\"\n  http_addr: \":6001\"\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := newRootCmd()
	if err := cmd.Flags().Parse([]string{"--http", ":7000", "--tick", "250ms"}); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	cfg, err := loadConfig(path, cmd.Flags())
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Server.GRPCAddr != ":6000" {
		t.Errorf("GRPCAddr: got %q, want :6000", cfg.Server.GRPCAddr)
	}
	if cfg.Server.HTTPAddr != ":7000" {
		t.Errorf("HTTPAddr: got %q, want :7000", cfg.Server.HTTPAddr)
	}
	if cfg.Server.TickInterval != 250*time.Millisecond {
		t.Errorf("TickInterval: got %v, want 250ms", cfg.Server.TickInterval)
	}
}

func TestFlagValidation(t *testing.T) {
	cmd := newRootCmd()
	if err := cmd.Flags().Parse([]string{"--log-level", "shouty"}); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if _, err := loadConfig("", cmd.Flags()); err == nil {
		t.Error("expected an invalid log level to be rejected")
	}
}

// TestNewSessionUsesConfig verifies the session starts from the configured
// balances and applies commands against the default catalog.
func TestNewSessionUsesConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Village.Balances = models.Resources{Coins: 60, VirtuePoints: 5}
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	session, err := newSession(cfg, clock, zerolog.Nop())
	if err != nil {
		t.Fatalf("newSession failed: %v", err)
	}

	res, err := session.Apply(game.Command{Op: game.OpPlaceBuilding, Type: models.Home})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if res.Snapshot.Balances.Coins != 10 {
		t.Errorf("Coins: got %.0f, want 10", res.Snapshot.Balances.Coins)
	}
	if !res.Snapshot.Now.Equal(now) {
		t.Errorf("Now: got %v, want %v", res.Snapshot.Now, now)
	}

	now = now.Add(10 * time.Minute)
	_, err = session.Apply(game.Command{Op: game.OpPlaceBuilding, Type: models.Home, X: 1})
	if err == nil {
		t.Fatal("expected the second home to be unaffordable")
	}
	if snap := session.Snapshot(); !snap.Now.Equal(now) {
		t.Errorf("Now after catch-up: got %v, want %v", snap.Now, now)
	}

	cfg.Village.CatalogPath = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := newSession(cfg, clock, zerolog.Nop()); err == nil {
		t.Error("expected a missing catalog to fail")
	}
}
