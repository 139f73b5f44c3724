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
	"cmp"
	"encoding/json"
	"fmt"
	"iter"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/c2FmZQ/storage"
	"github.com/ttbt-io/scorebook/backend/scoring"
)

// Team represents a persistent team roster.
type Team struct {
	ID            string           `json:"id"`
	SchemaVersion int              `json:"schemaVersion,omitempty"`
	Name          string           `json:"name"`
	ShortName     string           `json:"shortName,omitempty"`
	Color         string           `json:"color,omitempty"`
	Players       []scoring.Player `json:"players"`
	UpdatedAt     int64            `json:"updatedAt,omitempty"`

	// Status can be "" (active) or "deleted".
	Status string `json:"status,omitempty"`
	// DeletedAt is the timestamp (Unix Nano) when the team was deleted.
	DeletedAt int64 `json:"deletedAt,omitempty"`
}

func (t *Team) normalize() {
	if t.SchemaVersion == 0 {
		t.SchemaVersion = CurrentSchemaVersion
	}
	if t.Players == nil {
		t.Players = make([]scoring.Player, 0)
	}
}

// Deleted reports whether t is a tombstone.
func (t *Team) Deleted() bool {
	return t.Status == StatusDeleted || t.DeletedAt != 0
}

// Snapshot returns the roster copy embedded into a new game.
func (t *Team) Snapshot() scoring.Team {
	return scoring.Team{ID: t.ID, Name: t.Name, Players: slices.Clone(t.Players)}
}

// FindPlayer returns the index of the player with id, or -1.
func (t *Team) FindPlayer(id string) int {
	return slices.IndexFunc(t.Players, func(p scoring.Player) bool { return p.ID == id })
}

func teamFile(teamId string) string {
	return filepath.Join("teams", fmt.Sprintf("%s.json", url.PathEscape(teamId)))
}

// TeamStore manages team persistence to disk.
type TeamStore struct {
	DataDir string
	storage *storage.Storage
	mu      sync.Map // *sync.Mutex per team id
	cache   sync.Map // latest JSON per team id
}

// NewTeamStore creates a new TeamStore.
func NewTeamStore(dataDir string, s *storage.Storage) *TeamStore {
	return &TeamStore{
		DataDir: dataDir,
		storage: s,
	}
}

func (ts *TeamStore) lock(teamId string) *sync.Mutex {
	m, _ := ts.mu.LoadOrStore(teamId, &sync.Mutex{})
	return m.(*sync.Mutex)
}

// SaveTeam saves the team data atomically.
func (ts *TeamStore) SaveTeam(team *Team) error {
	if team.ID == "" {
		return fmt.Errorf("save team: missing id")
	}
	team.normalize()
	mutex := ts.lock(team.ID)
	mutex.Lock()
	defer mutex.Unlock()

	if err := ts.storage.SaveDataFile(teamFile(team.ID), team); err != nil {
		return fmt.Errorf("storage.SaveDataFile: %w", err)
	}
	if jsonBytes, err := json.Marshal(team); err == nil {
		ts.cache.Store(team.ID, jsonBytes)
	}
	return nil
}

// LoadTeam loads the team data by ID.
func (ts *TeamStore) LoadTeam(teamId string) (*Team, error) {
	if val, ok := ts.cache.Load(teamId); ok {
		var t Team
		if err := json.Unmarshal(val.([]byte), &t); err == nil {
			t.normalize()
			return &t, nil
		}
		ts.cache.Delete(teamId)
	}

	var t Team
	if err := ts.storage.ReadDataFile(teamFile(teamId), &t); err != nil {
		if os.IsNotExist(err) {
			return nil, os.ErrNotExist
		}
		return nil, fmt.Errorf("ReadDataFile: %w", err)
	}
	if t.SchemaVersion > CurrentSchemaVersion {
		return nil, fmt.Errorf("team %s: unsupported schema version %d", teamId, t.SchemaVersion)
	}
	t.normalize()
	if jsonBytes, err := json.Marshal(&t); err == nil {
		ts.cache.Store(teamId, jsonBytes)
	}
	return &t, nil
}

// LoadTeamAsJSON is a helper for API handlers that just want bytes.
func (ts *TeamStore) LoadTeamAsJSON(teamId string) ([]byte, error) {
	t, err := ts.LoadTeam(teamId)
	if err != nil {
		return nil, err
	}
	return json.Marshal(t)
}

// ListAllTeams returns an iterator over all teams, tombstones included.
func (ts *TeamStore) ListAllTeams() iter.Seq2[*Team, error] {
	return func(yield func(*Team, error) bool) {
		files, err := os.ReadDir(filepath.Join(ts.DataDir, "teams"))
		if err != nil && !os.IsNotExist(err) {
			yield(nil, fmt.Errorf("could not read teams directory: %w", err))
			return
		}
		ids := make([]string, 0, len(files))
		for _, file := range files {
			if file.IsDir() {
				continue
			}
			encodedTeamId, ok := strings.CutSuffix(file.Name(), ".json")
			if !ok {
				continue
			}
			if teamId, err := url.PathUnescape(encodedTeamId); err == nil {
				ids = append(ids, teamId)
			}
		}

		for _, teamId := range ids {
			t, err := ts.LoadTeam(teamId)
			if err != nil {
				log.Printf("Warning: could not load team '%s': %v", teamId, err)
				continue
			}
			if !yield(t, nil) {
				return
			}
		}
	}
}

// ActiveTeams returns the live teams ordered by name.
func (ts *TeamStore) ActiveTeams() ([]*Team, error) {
	teams := make([]*Team, 0)
	for t, err := range ts.ListAllTeams() {
		if err != nil {
			return nil, err
		}
		if !t.Deleted() {
			teams = append(teams, t)
		}
	}
	slices.SortFunc(teams, func(a, b *Team) int {
		return cmp.Or(strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)), strings.Compare(a.ID, b.ID))
	})
	return teams, nil
}

// DeleteTeam deletes a team by overwriting it with a tombstone. Games keep
// their own roster snapshot and are not affected.
func (ts *TeamStore) DeleteTeam(teamId string) error {
	t, err := ts.LoadTeam(teamId)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if t.Deleted() {
		return nil
	}
	now := time.Now().UnixNano()
	tombstone := &Team{
		ID:            teamId,
		SchemaVersion: CurrentSchemaVersion,
		Status:        StatusDeleted,
		DeletedAt:     now,
		UpdatedAt:     now,
	}
	if err := ts.SaveTeam(tombstone); err != nil {
		return fmt.Errorf("tombstone: %w", err)
	}
	return nil
}

// PurgeTeam permanently deletes the team file.
func (ts *TeamStore) PurgeTeam(teamId string) error {
	mutex := ts.lock(teamId)
	mutex.Lock()
	defer mutex.Unlock()

	ts.cache.Delete(teamId)

	if err := os.Remove(filepath.Join(ts.DataDir, teamFile(teamId))); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("could not purge team file: %w", err)
	}
	return nil
}
