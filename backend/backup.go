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
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ttbt-io/scorebook/backend/scoring"
)

// Backup is the document exchanged by /api/backup and /api/restore.
type Backup struct {
	Version string  `json:"version"`
	Teams   []*Team `json:"teams"`
	Games   []*Game `json:"games"`
}

// BuildBackup collects every live team and game.
func BuildBackup(gs *GameStore, ts *TeamStore) (*Backup, error) {
	teams, err := ts.ActiveTeams()
	if err != nil {
		return nil, err
	}
	games, err := gs.ActiveGames()
	if err != nil {
		return nil, err
	}
	return &Backup{Version: BackupVersion, Teams: teams, Games: games}, nil
}

// DecodeBackup reads and validates a backup document. Nothing is stored.
func DecodeBackup(r io.Reader) (*Backup, error) {
	var b Backup
	dec := json.NewDecoder(r)
	if err := dec.Decode(&b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if major, _, _ := strings.Cut(b.Version, "."); major != "1" {
		return nil, malformed("unsupported backup version %q", b.Version)
	}
	teamIDs := make(map[string]bool)
	for _, t := range b.Teams {
		if t == nil {
			return nil, malformed("null team")
		}
		if err := ValidateTeam(t); err != nil {
			return nil, err
		}
		if teamIDs[t.ID] {
			return nil, malformed("duplicate team %s", t.ID)
		}
		teamIDs[t.ID] = true
	}
	gameIDs := make(map[string]bool)
	for _, g := range b.Games {
		if g == nil {
			return nil, malformed("null game")
		}
		g.Normalize()
		if err := ValidateGame(g); err != nil {
			return nil, err
		}
		if gameIDs[g.ID] {
			return nil, malformed("duplicate game %s", g.ID)
		}
		gameIDs[g.ID] = true
	}
	return &b, nil
}

// RestoreBackup replaces every stored team and game with the contents of
// b, which must come from DecodeBackup. Running hubs reload their game.
func RestoreBackup(ctx context.Context, b *Backup, gs *GameStore, ts *TeamStore, hm *HubManager) error {
	keepTeams := make(map[string]bool)
	for _, t := range b.Teams {
		keepTeams[t.ID] = true
	}
	keepGames := make(map[string]bool)
	for _, g := range b.Games {
		keepGames[g.ID] = true
	}

	var staleTeams, staleGames []string
	for t, err := range ts.ListAllTeams() {
		if err != nil {
			return err
		}
		if !keepTeams[t.ID] {
			staleTeams = append(staleTeams, t.ID)
		}
	}
	for g, err := range gs.ListAllGames() {
		if err != nil {
			return err
		}
		if !keepGames[g.ID] {
			staleGames = append(staleGames, g.ID)
		}
	}

	var errs []error
	for _, id := range staleTeams {
		errs = append(errs, ts.PurgeTeam(id))
	}
	for _, id := range staleGames {
		errs = append(errs, gs.PurgeGame(id))
	}
	for _, t := range b.Teams {
		errs = append(errs, ts.SaveTeam(t))
	}
	for _, g := range b.Games {
		errs = append(errs, gs.SaveGame(g))
	}
	for _, id := range append(staleGames, keysOf(keepGames)...) {
		hm.Reload(ctx, id)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	log.Printf("Restored %d teams and %d games (%d teams and %d games removed)", len(b.Teams), len(b.Games), len(staleTeams), len(staleGames))
	return nil
}

func keysOf(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

var rosterHeader = []string{"team", "jersey", "name", "playerId"}

// WriteRosterCSV writes every player of every live team, one per row.
func WriteRosterCSV(w io.Writer, ts *TeamStore) error {
	teams, err := ts.ActiveTeams()
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(rosterHeader); err != nil {
		return err
	}
	for _, t := range teams {
		for _, p := range t.Players {
			if err := cw.Write([]string{t.Name, p.Number, p.Name, p.ID}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// RosterImport summarizes a roster CSV merge.
type RosterImport struct {
	TeamsCreated   int `json:"teamsCreated"`
	PlayersAdded   int `json:"playersAdded"`
	PlayersUpdated int `json:"playersUpdated"`
	PlayersMoved   int `json:"playersMoved"`
	RowsSkipped    int `json:"rowsSkipped"`
}

// MergeRosterCSV merges a roster CSV into the stored teams. A row matches
// an existing player by id first, moving the player when the id belongs
// to another team, then by name and jersey within the team. Unmatched rows
// add a player. Teams are found or created by name. Rows without a team or
// a name are skipped.
func MergeRosterCSV(r io.Reader, ts *TeamStore) (RosterImport, error) {
	var res RosterImport
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return res, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(rows) > 0 && strings.EqualFold(strings.TrimSpace(rows[0][0]), rosterHeader[0]) {
		rows = rows[1:]
	}

	teams, err := ts.ActiveTeams()
	if err != nil {
		return res, err
	}
	byName := make(map[string]*Team)
	for _, t := range teams {
		byName[strings.ToLower(t.Name)] = t
	}
	changed := make(map[*Team]bool)

	for _, row := range rows {
		for len(row) < len(rosterHeader) {
			row = append(row, "")
		}
		teamName := strings.TrimSpace(row[0])
		p := scoring.Player{
			Number: strings.TrimSpace(row[1]),
			Name:   strings.TrimSpace(row[2]),
			ID:     strings.TrimSpace(row[3]),
		}
		if teamName == "" || p.Name == "" {
			res.RowsSkipped++
			continue
		}
		if err := validatePlayer(p); err != nil {
			return res, err
		}

		target, ok := byName[strings.ToLower(teamName)]
		if !ok {
			if err := validateStringLen(teamName, maxNameLen, "team name"); err != nil {
				return res, err
			}
			target = &Team{ID: uuid.NewString(), Name: teamName, Players: []scoring.Player{}}
			byName[strings.ToLower(teamName)] = target
			teams = append(teams, target)
			res.TeamsCreated++
			changed[target] = true
		}

		if p.ID != "" {
			if owner, i := findPlayer(teams, p.ID); owner != nil {
				if owner == target {
					target.Players[i] = p
					res.PlayersUpdated++
				} else {
					owner.Players = append(owner.Players[:i], owner.Players[i+1:]...)
					target.Players = append(target.Players, p)
					changed[owner] = true
					res.PlayersMoved++
				}
				changed[target] = true
				continue
			}
		}
		if i := findByNameNumber(target, p); i >= 0 {
			p.ID = target.Players[i].ID
			target.Players[i] = p
			res.PlayersUpdated++
		} else {
			if p.ID == "" {
				p.ID = uuid.NewString()
			}
			target.Players = append(target.Players, p)
			res.PlayersAdded++
		}
		changed[target] = true
	}

	now := time.Now().UnixMilli()
	for t := range changed {
		if err := ValidateTeam(t); err != nil {
			return res, err
		}
		t.UpdatedAt = now
	}
	for t := range changed {
		if err := ts.SaveTeam(t); err != nil {
			return res, err
		}
	}
	return res, nil
}

func findPlayer(teams []*Team, id string) (*Team, int) {
	for _, t := range teams {
		if i := t.FindPlayer(id); i >= 0 {
			return t, i
		}
	}
	return nil, -1
}

func findByNameNumber(t *Team, p scoring.Player) int {
	for i, q := range t.Players {
		if strings.EqualFold(q.Name, p.Name) && q.Number == p.Number {
			return i
		}
	}
	return -1
}
