// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package backend

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/c2FmZQ/storage"
	"github.com/ttbt-io/scorebook/backend/scoring"
)

func newTestRoster(id, name string, prefix string) *Team {
	t := &Team{ID: id, Name: name}
	for i := 1; i <= 9; i++ {
		t.Players = append(t.Players, scoring.Player{
			ID:     fmt.Sprintf("%s%d", prefix, i),
			Name:   fmt.Sprintf("%s Player %d", name, i),
			Number: fmt.Sprint(i),
		})
	}
	return t
}

// newTestGame returns a started game with full lineups and a few results.
func newTestGame(t *testing.T, id string) *Game {
	t.Helper()
	v := newTestRoster("team-v", "Visitors", "v")
	h := newTestRoster("team-h", "Homers", "h")
	g := scoring.NewGame(id, v.Snapshot(), h.Snapshot())
	g.Date = "2025-05-10"
	l := scoring.NewLedger(g)
	for i := 0; i < 9; i++ {
		if err := l.ReassignSlot(scoring.Visitor, i, v.Players[i]); err != nil {
			t.Fatal(err)
		}
		if err := l.ReassignSlot(scoring.Home, i, h.Players[i]); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := l.RecordOutcome(scoring.Visitor, "v1", scoring.Col(1), scoring.OutcomeHomeRun, false); err != nil {
		t.Fatal(err)
	}
	if _, err := l.RecordOutcome(scoring.Visitor, "v2", scoring.Col(1), scoring.OutcomeSingle, false); err != nil {
		t.Fatal(err)
	}
	return g
}

func TestGameStore(t *testing.T) {
	tmpDir := t.TempDir()
	gs := NewGameStore(tmpDir, storage.New(tmpDir, nil))
	g := newTestGame(t, "game-1")

	t.Run("SaveAndLoadGame", func(t *testing.T) {
		if err := gs.SaveGame(g); err != nil {
			t.Fatalf("SaveGame failed: %v", err)
		}
		// Drop the cache to force a disk read.
		gs.cache.Delete(g.ID)
		loaded, err := gs.LoadGame(g.ID)
		if err != nil {
			t.Fatalf("LoadGame failed: %v", err)
		}
		if loaded.SchemaVersion != CurrentSchemaVersion {
			t.Errorf("Expected schema %d, got %d", CurrentSchemaVersion, loaded.SchemaVersion)
		}
		e := loaded.Entry(scoring.Visitor, "v1")
		if e == nil || e.Results[scoring.Col(1)] != scoring.OutcomeHomeRun || !e.Details[scoring.Col(1)].Scored {
			t.Errorf("Ledger did not round trip: %+v", e)
		}
	})

	t.Run("LoadReturnsCopy", func(t *testing.T) {
		a, _ := gs.LoadGame(g.ID)
		a.Location = "changed"
		b, _ := gs.LoadGame(g.ID)
		if b.Location == "changed" {
			t.Error("LoadGame must not share state between callers")
		}
	})

	t.Run("LoadMissing", func(t *testing.T) {
		if _, err := gs.LoadGame("nope"); !os.IsNotExist(err) {
			t.Errorf("Expected os.ErrNotExist, got %v", err)
		}
	})

	t.Run("FutureSchemaRejected", func(t *testing.T) {
		future := &Game{ID: "future", SchemaVersion: CurrentSchemaVersion + 1}
		if err := gs.SaveGame(future); err != nil {
			t.Fatal(err)
		}
		gs.cache.Delete(future.ID)
		if _, err := gs.LoadGame(future.ID); err == nil {
			t.Error("Expected error for unsupported schema version")
		}
		gs.PurgeGame(future.ID)
	})

	t.Run("ListGamesNewestFirst", func(t *testing.T) {
		older := newTestGame(t, "game-0")
		older.Date = "2025-04-01"
		if err := gs.SaveGame(older); err != nil {
			t.Fatal(err)
		}
		games, err := gs.ListGames()
		if err != nil {
			t.Fatal(err)
		}
		if len(games) != 2 || games[0].ID != "game-1" || games[1].ID != "game-0" {
			t.Fatalf("Unexpected order %+v", games)
		}
		if games[0].VisitorRuns != 1 || games[0].VisitorName != "Visitors" {
			t.Errorf("Unexpected summary %+v", games[0])
		}
	})

	t.Run("ActiveGamesSkipsTombstones", func(t *testing.T) {
		if err := gs.DeleteGame("game-0"); err != nil {
			t.Fatal(err)
		}
		games, err := gs.ActiveGames()
		if err != nil {
			t.Fatal(err)
		}
		if len(games) != 1 || games[0].ID != "game-1" {
			t.Errorf("Expected only game-1, got %d games", len(games))
		}
		if _, err := os.Stat(filepath.Join(tmpDir, "games", "game-0.json")); err != nil {
			t.Errorf("Tombstone should stay on disk: %v", err)
		}
	})
}
