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
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/c2FmZQ/storage"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

func TestBackupRestoreAPI(t *testing.T) {
	s := newTestServer(t)
	team := s.createTeam(t, "Visitors", "v")
	g := newTestGame(t, uuid.NewString())
	if err := s.gs.SaveGame(g); err != nil {
		t.Fatal(err)
	}

	var b Backup
	backupJSON := s.expect(t, http.MethodGet, "/api/backup", nil, http.StatusOK, &b)
	if b.Version != BackupVersion || len(b.Teams) != 1 || len(b.Games) != 1 {
		t.Fatalf("backup = version %q, %d teams, %d games", b.Version, len(b.Teams), len(b.Games))
	}

	// Changes made after the backup disappear on restore.
	s.createTeam(t, "Extra", "x")
	if err := s.gs.SaveGame(newTestGame(t, uuid.NewString())); err != nil {
		t.Fatal(err)
	}
	if err := s.gs.DeleteGame(g.ID); err != nil {
		t.Fatal(err)
	}

	var counts map[string]int
	s.expect(t, http.MethodPost, "/api/restore", string(backupJSON), http.StatusOK, &counts)
	if diff := cmp.Diff(map[string]int{"teams": 1, "games": 1}, counts); diff != "" {
		t.Errorf("restore counts mismatch (-want +got):\n%s", diff)
	}

	teams, err := s.ts.ActiveTeams()
	if err != nil {
		t.Fatal(err)
	}
	if len(teams) != 1 || teams[0].ID != team.ID {
		t.Errorf("teams after restore = %+v", teams)
	}
	games, err := s.gs.ActiveGames()
	if err != nil {
		t.Fatal(err)
	}
	if len(games) != 1 || games[0].ID != g.ID {
		t.Errorf("games after restore = %d", len(games))
	}
}

func TestRestoreRejectsBadDocuments(t *testing.T) {
	s := newTestServer(t)
	s.createTeam(t, "Visitors", "v")

	tests := map[string]string{
		"not json":          `{"version":`,
		"future version":    `{"version":"2.0","teams":[],"games":[]}`,
		"team without id":   `{"version":"1.0","teams":[{"name":"Nobody","players":[]}],"games":[]}`,
		"duplicate team":    `{"version":"1.0","teams":[{"id":"t","name":"A","players":[]},{"id":"t","name":"B","players":[]}]}`,
		"null game":         `{"version":"1.0","teams":[],"games":[null]}`,
		"null ledger entry": `{"version":"1.0","games":[{"id":"g1","scores":{"visitor":[null]}}]}`,
		"short lineup":      `{"version":"1.0","games":[{"id":"g","visitorLineup":[],"homeLineup":[],"current":{"side":"visitor","inning":1}}]}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			s.expect(t, http.MethodPost, "/api/restore", body, http.StatusBadRequest, nil)
		})
	}

	teams, err := s.ts.ActiveTeams()
	if err != nil {
		t.Fatal(err)
	}
	if len(teams) != 1 {
		t.Errorf("rejected restores changed the teams: %+v", teams)
	}
}

func TestDecodeBackupNullLedgerEntry(t *testing.T) {
	for _, side := range []string{"visitor", "home"} {
		t.Run(side, func(t *testing.T) {
			g := newTestGame(t, uuid.NewString())
			if side == "home" {
				g.Scores.Home = append(g.Scores.Home, nil)
			} else {
				g.Scores.Visitor = append(g.Scores.Visitor, nil)
			}
			data, err := json.Marshal(Backup{Version: BackupVersion, Games: []*Game{g}})
			if err != nil {
				t.Fatal(err)
			}
			if _, err := DecodeBackup(strings.NewReader(string(data))); !errors.Is(err, ErrMalformed) {
				t.Errorf("DecodeBackup = %v, want ErrMalformed", err)
			}
		})
	}
}

func TestMergeRosterCSV(t *testing.T) {
	dir := t.TempDir()
	ts := NewTeamStore(dir, storage.New(dir, nil))
	for _, team := range []*Team{newTestRoster("team-a", "Aces", "a"), newTestRoster("team-b", "Bats", "b")} {
		if err := ts.SaveTeam(team); err != nil {
			t.Fatal(err)
		}
	}

	csv := strings.Join([]string{
		"team,jersey,name,playerId",
		"Bats,1,Aces Player 1,a1",
		"aces,2,aces player 2,",
		"Aces,33,Aces Player 3,a3",
		"Cubs,99,New Guy,",
		",5,Nobody,",
		"Aces,5,,",
	}, "\n")
	res, err := MergeRosterCSV(strings.NewReader(csv), ts)
	if err != nil {
		t.Fatalf("MergeRosterCSV: %v", err)
	}
	want := RosterImport{TeamsCreated: 1, PlayersAdded: 1, PlayersUpdated: 2, PlayersMoved: 1, RowsSkipped: 2}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Errorf("import summary mismatch (-want +got):\n%s", diff)
	}

	aces, err := ts.LoadTeam("team-a")
	if err != nil {
		t.Fatal(err)
	}
	if len(aces.Players) != 8 || aces.FindPlayer("a1") >= 0 {
		t.Errorf("Aces still holds the moved player: %+v", aces.Players)
	}
	if i := aces.FindPlayer("a2"); i < 0 || aces.Players[i].Name != "aces player 2" {
		t.Errorf("name and jersey match lost the id: %+v", aces.Players)
	}
	if i := aces.FindPlayer("a3"); i < 0 || aces.Players[i].Number != "33" {
		t.Errorf("id match did not update the jersey: %+v", aces.Players)
	}
	bats, err := ts.LoadTeam("team-b")
	if err != nil {
		t.Fatal(err)
	}
	if len(bats.Players) != 10 || bats.FindPlayer("a1") < 0 {
		t.Errorf("Bats did not receive the moved player: %+v", bats.Players)
	}

	var out strings.Builder
	if err := WriteRosterCSV(&out, ts); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if lines[0] != "team,jersey,name,playerId" || len(lines) != 1+8+10+1 {
		t.Errorf("roster export has %d lines, header %q", len(lines), lines[0])
	}
	if !strings.Contains(out.String(), "Cubs,99,New Guy,") {
		t.Errorf("new team missing from export:\n%s", out.String())
	}
}

func TestMergeRosterCSVMalformed(t *testing.T) {
	dir := t.TempDir()
	ts := NewTeamStore(dir, storage.New(dir, nil))
	if _, err := MergeRosterCSV(strings.NewReader("Aces,1,\"Pat"), ts); !errors.Is(err, ErrMalformed) {
		t.Errorf("MergeRosterCSV = %v, want ErrMalformed", err)
	}
	teams, err := ts.ActiveTeams()
	if err != nil {
		t.Fatal(err)
	}
	if len(teams) != 0 {
		t.Errorf("malformed import stored %d teams", len(teams))
	}
}

func TestRosterCSVAPI(t *testing.T) {
	s := newTestServer(t)
	s.createTeam(t, "Visitors", "v")

	var res RosterImport
	s.expect(t, http.MethodPost, "/api/roster.csv", "Visitors,10,Late Add,\n", http.StatusOK, &res)
	if res.PlayersAdded != 1 {
		t.Errorf("import = %+v", res)
	}
	resp, body := s.do(t, http.MethodGet, "/api/roster.csv", nil)
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(string(body), "Visitors,10,Late Add,") {
		t.Errorf("export missing imported player:\n%s", body)
	}
}
