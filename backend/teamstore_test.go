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
	"encoding/json"
	"os"
	"testing"

	"github.com/c2FmZQ/storage"
	"github.com/google/go-cmp/cmp"
	"github.com/ttbt-io/scorebook/backend/scoring"
)

func TestTeamStore(t *testing.T) {
	dir := t.TempDir()
	store := NewTeamStore(dir, storage.New(dir, nil))
	roster := &Team{
		ID:   "roster-1",
		Name: "Mud Hens",
		Players: []scoring.Player{
			{ID: "p1", Name: "Ichiro", Number: "51"},
			{ID: "p2", Name: "Hideki", Number: "55"},
		},
	}

	t.Run("SaveAndLoad", func(t *testing.T) {
		if err := store.SaveTeam(roster); err != nil {
			t.Fatalf("SaveTeam: %v", err)
		}
		store.cache.Delete(roster.ID)
		loaded, err := store.LoadTeam(roster.ID)
		if err != nil {
			t.Fatalf("LoadTeam: %v", err)
		}
		if loaded.SchemaVersion != CurrentSchemaVersion {
			t.Errorf("SchemaVersion = %d", loaded.SchemaVersion)
		}
		if diff := cmp.Diff(roster.Players, loaded.Players); diff != "" {
			t.Errorf("players mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("EmptyRosterNormalized", func(t *testing.T) {
		if err := store.SaveTeam(&Team{ID: "roster-empty", Name: "Walk-ons"}); err != nil {
			t.Fatal(err)
		}
		data, err := store.LoadTeamAsJSON("roster-empty")
		if err != nil {
			t.Fatal(err)
		}
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			t.Fatal(err)
		}
		if string(raw["players"]) != "[]" {
			t.Errorf("players = %s, want []", raw["players"])
		}
	})

	t.Run("SnapshotIsACopy", func(t *testing.T) {
		snap := roster.Snapshot()
		snap.Players[0].Name = "changed"
		if roster.Players[0].Name != "Ichiro" || snap.ID != roster.ID {
			t.Error("Snapshot shares the roster slice")
		}
		if roster.FindPlayer("p2") != 1 || roster.FindPlayer("p9") != -1 {
			t.Error("FindPlayer returned the wrong index")
		}
	})

	t.Run("ActiveTeamsSortedByName", func(t *testing.T) {
		teams, err := store.ActiveTeams()
		if err != nil {
			t.Fatal(err)
		}
		var names []string
		for _, tm := range teams {
			names = append(names, tm.Name)
		}
		if diff := cmp.Diff([]string{"Mud Hens", "Walk-ons"}, names); diff != "" {
			t.Errorf("order mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("DeleteLeavesTombstone", func(t *testing.T) {
		if err := store.DeleteTeam(roster.ID); err != nil {
			t.Fatalf("DeleteTeam: %v", err)
		}
		loaded, err := store.LoadTeam(roster.ID)
		if err != nil {
			t.Fatalf("LoadTeam(tombstone): %v", err)
		}
		if !loaded.Deleted() || len(loaded.Players) != 0 {
			t.Errorf("tombstone = %+v", loaded)
		}
		if err := store.DeleteTeam(roster.ID); err != nil {
			t.Errorf("second DeleteTeam = %v", err)
		}
		active, err := store.ActiveTeams()
		if err != nil {
			t.Fatal(err)
		}
		if len(active) != 1 {
			t.Errorf("active teams = %d, want 1", len(active))
		}
	})

	t.Run("Purge", func(t *testing.T) {
		if err := store.PurgeTeam(roster.ID); err != nil {
			t.Fatalf("PurgeTeam: %v", err)
		}
		if _, err := store.LoadTeam(roster.ID); !os.IsNotExist(err) {
			t.Errorf("LoadTeam after purge = %v, want os.ErrNotExist", err)
		}
		if err := store.PurgeTeam(roster.ID); err != nil {
			t.Errorf("second PurgeTeam = %v", err)
		}
	})

	t.Run("FutureSchemaRejected", func(t *testing.T) {
		if err := store.SaveTeam(&Team{ID: "roster-next", Name: "Next", SchemaVersion: CurrentSchemaVersion + 1}); err != nil {
			t.Fatal(err)
		}
		store.cache.Delete("roster-next")
		if _, err := store.LoadTeam("roster-next"); err == nil {
			t.Error("LoadTeam accepted a future schema version")
		}
	})
}
