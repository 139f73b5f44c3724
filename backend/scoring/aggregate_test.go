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

package scoring

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestAggregateBattingAcrossGames(t *testing.T) {
	g1 := newTestLedger(t)
	record(t, g1, Visitor, "v1", Col(1), OutcomeSingle)
	record(t, g1, Visitor, "v1", Col(3), OutcomeDouble)
	record(t, g1, Visitor, "v1", Col(5), OutcomeHomeRun)
	record(t, g1, Visitor, "v1", Col(7), OutcomeGroundShortstop)

	g2 := newTestLedger(t)
	g2.Game().ID = "game-2"
	record(t, g2, Visitor, "v1", Col(2), OutcomeStrikeout)
	record(t, g2, Visitor, "v1", Col(4), OutcomeFlyLeft)

	rows := AggregateBatting([]*Game{g1.Game(), g2.Game()}, Filter{})
	var v1 *BattingStats
	for i := range rows {
		if rows[i].PlayerID == "v1" {
			v1 = &rows[i]
		}
	}
	if v1 == nil {
		t.Fatal("v1 missing from aggregate")
	}
	if v1.AtBats != 6 || v1.Hits != 3 || !near(v1.Average, 0.5) {
		t.Errorf("Expected 3-for-6 (.500), got %d-for-%d (%v)", v1.Hits, v1.AtBats, v1.Average)
	}
	if v1.GamesPlayed != 2 || v1.Doubles != 1 || v1.HomeRuns != 1 || v1.Singles() != 1 {
		t.Errorf("Unexpected counts %+v", *v1)
	}
	// 1 + 2 + 4 total bases over 6 at-bats.
	if !near(v1.Slugging, 7.0/6) {
		t.Errorf("Expected slugging %v, got %v", 7.0/6, v1.Slugging)
	}
	if v1.Name != "Visitor 1" || v1.TeamID != "team-v" {
		t.Errorf("Unexpected identity %q %q", v1.Name, v1.TeamID)
	}
}

func TestAggregateBattingSkipsPlaceholders(t *testing.T) {
	g := NewGame("g", Team{ID: "a", Name: "A"}, Team{ID: "b", Name: "B"})
	l := NewLedger(g)
	record(t, l, Visitor, g.VisitorLineup[0].Player.ID, Col(1), OutcomeSingle)
	if rows := AggregateBatting([]*Game{g}, Filter{}); len(rows) != 0 {
		t.Errorf("Expected placeholder players to be skipped, got %+v", rows)
	}
}

func TestAggregateBattingPlateAppearances(t *testing.T) {
	l := newTestLedger(t)
	record(t, l, Visitor, "v2", Col(1), OutcomeSacrificeBunt)
	record(t, l, Visitor, "v2", Col(2), OutcomeSacrificeFly)
	record(t, l, Visitor, "v2", Col(3), OutcomeWalk)
	record(t, l, Visitor, "v2", Col(4), OutcomeSingle)
	rows := AggregateBatting([]*Game{l.Game()}, Filter{TeamID: "team-v"})
	if len(rows) != 1 {
		t.Fatalf("Expected one row, got %d", len(rows))
	}
	s := rows[0]
	if s.PlateAppearances != 4 || s.AtBats != 1 || s.SacrificeBunts != 1 || s.SacrificeFlies != 1 {
		t.Errorf("Unexpected line %+v", s)
	}
	// (H + BB) / (AB + BB + SF)
	if !near(s.OnBase, 2.0/3) {
		t.Errorf("Expected OBP %v, got %v", 2.0/3, s.OnBase)
	}
}

func TestFilter(t *testing.T) {
	mk := func(id, date string) *Game {
		g := NewGame(id, Team{ID: "a", Name: "A"}, Team{ID: "b", Name: "B"})
		g.Date = date
		l := NewLedger(g)
		l.ReassignSlot(Visitor, 0, Player{ID: "pa", Name: "Ann"})
		l.ReassignSlot(Home, 0, Player{ID: "pb", Name: "Bea"})
		record(t, l, Visitor, "pa", Col(1), OutcomeSingle)
		record(t, l, Home, "pb", Col(1), OutcomeSingle)
		return g
	}
	games := []*Game{
		mk("apr", "2025-04-20"),
		mk("may", "2025-05-10"),
		mk("jun", "2025/06/01"),
		mk("jul", "2025-07-31T18:30"),
		mk("aug", "2025-08-01T09:00:00-07:00"),
		mk("undated", "someday"),
	}
	day := func(s string) time.Time {
		d, _ := time.Parse(time.DateOnly, s)
		return d
	}

	tests := []struct {
		name   string
		filter Filter
		want   map[string]int
	}{
		{"all", Filter{}, map[string]int{"pa": 6, "pb": 6}},
		{"team", Filter{TeamID: "b"}, map[string]int{"pb": 6}},
		{"from", Filter{From: day("2025-05-10")}, map[string]int{"pa": 4, "pb": 4}},
		{"range", Filter{From: day("2025-05-01"), To: day("2025-05-31")}, map[string]int{"pa": 1, "pb": 1}},
		{"to", Filter{TeamID: "a", To: day("2025-04-20")}, map[string]int{"pa": 1}},
		{"none", Filter{TeamID: "zzz"}, map[string]int{}},
		{"timed game on the last day", Filter{From: day("2025-07-01"), To: day("2025-07-31")}, map[string]int{"pa": 1, "pb": 1}},
		{"single day", Filter{From: day("2025-07-31"), To: day("2025-07-31")}, map[string]int{"pa": 1, "pb": 1}},
		{"offset kept on its own day", Filter{From: day("2025-08-01"), To: day("2025-08-01")}, map[string]int{"pa": 1, "pb": 1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := make(map[string]int)
			for _, r := range AggregateBatting(games, tc.filter) {
				got[r.PlayerID] = r.GamesPlayed
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Games played mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseInningsPitched(t *testing.T) {
	tests := map[string]int{
		"":      0,
		"5":     15,
		"5 1/3": 16,
		"5 2/3": 17,
		"5.1":   16,
		"5.2":   17,
		"0 1/3": 1,
		"x 2/3": 2,
		"5 1/2": 15,
		"-1":    0,
	}
	for in, want := range tests {
		if got := ParseInningsPitched(in); got != want {
			t.Errorf("ParseInningsPitched(%q) = %d, want %d", in, got, want)
		}
	}
	for outs, want := range map[int]string{0: "0", 16: "5 1/3", 17: "5 2/3", 21: "7"} {
		if got := FormatInningsPitched(outs); got != want {
			t.Errorf("FormatInningsPitched(%d) = %q, want %q", outs, got, want)
		}
	}
}

func TestAggregatePitching(t *testing.T) {
	l := newTestLedger(t)
	idx, _ := l.AddPitcher(Home, Player{ID: "h1", Name: "Home 1"})
	l.UpdatePitcher(Home, idx, PitcherUpdate{Innings: "5 1/3", EarnedRuns: 2, Decision: DecisionWin})
	// Lines without an id are keyed by name; blank names are ignored.
	l.Game().Pitchers.Visitor = []PitcherEntry{
		{Name: "Walk-on", Innings: "3", EarnedRuns: 1, Decision: DecisionLose},
		{Name: " ", Innings: "9"},
	}

	rows := AggregatePitching([]*Game{l.Game()}, Filter{})
	if len(rows) != 2 {
		t.Fatalf("Expected 2 pitchers, got %+v", rows)
	}
	// Name keys sort with ids: "Walk-on" < "h1".
	walkOn, h1 := rows[0], rows[1]
	if h1.PlayerID != "h1" || h1.Outs != 16 || h1.Wins != 1 {
		t.Errorf("Unexpected h1 line %+v", h1)
	}
	if !near(h1.ERA, 2.625) {
		t.Errorf("Expected ERA 2.625, got %v", h1.ERA)
	}
	if !near(h1.WinPct, 1) {
		t.Errorf("Expected win pct 1, got %v", h1.WinPct)
	}
	if walkOn.PlayerID != "Walk-on" || walkOn.Losses != 1 || !near(walkOn.ERA, 7.0/3) {
		t.Errorf("Unexpected name-keyed line %+v", walkOn)
	}
}

func TestAggregatePitchingNoOuts(t *testing.T) {
	g := NewGame("g", Team{ID: "a"}, Team{ID: "b"})
	g.Pitchers.Home = []PitcherEntry{{ID: "p", Name: "P", EarnedRuns: 3}}
	rows := AggregatePitching([]*Game{g}, Filter{})
	if len(rows) != 1 || rows[0].ERA != 0 {
		t.Errorf("Expected ERA 0 without outs, got %+v", rows)
	}
}

func TestSortBatting(t *testing.T) {
	rows := []BattingStats{
		{PlayerID: "a", Average: 0.250, HomeRuns: 2},
		{PlayerID: "b", Average: 0.400, HomeRuns: 0},
		{PlayerID: "c", Average: 0.250, HomeRuns: 5},
	}
	ids := func() []string {
		var out []string
		for _, r := range rows {
			out = append(out, r.PlayerID)
		}
		return out
	}
	if err := SortBatting(rows, "AVG", true); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"b", "a", "c"}, ids()); diff != "" {
		t.Errorf("avg desc mismatch (-want +got):\n%s", diff)
	}
	if err := SortBatting(rows, "hr", false); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"b", "a", "c"}, ids()); diff != "" {
		t.Errorf("hr asc mismatch (-want +got):\n%s", diff)
	}
	if err := SortBatting(rows, "luck", false); !errors.Is(err, ErrUnknownSortKey) {
		t.Errorf("Expected ErrUnknownSortKey, got %v", err)
	}
}

func TestSortPitching(t *testing.T) {
	rows := []PitchingStats{
		{PlayerID: "x", ERA: 3.5},
		{PlayerID: "y", ERA: 1.2},
		{PlayerID: "z", ERA: 3.5},
	}
	if err := SortPitching(rows, "era", false); err != nil {
		t.Fatal(err)
	}
	if rows[0].PlayerID != "y" || rows[1].PlayerID != "x" || rows[2].PlayerID != "z" {
		t.Errorf("Unexpected order %v %v %v", rows[0].PlayerID, rows[1].PlayerID, rows[2].PlayerID)
	}
	if err := SortPitching(rows, "whip", false); !errors.Is(err, ErrUnknownSortKey) {
		t.Errorf("Expected ErrUnknownSortKey, got %v", err)
	}
}

func TestPlayerLog(t *testing.T) {
	late := newTestLedger(t)
	late.Game().ID = "late"
	late.Game().Date = "2025-06-01"
	record(t, late, Visitor, "v1", Col(1), OutcomeStrikeout)
	record(t, late, Visitor, "v1", Col(2), OutcomeStrikeout)

	early := newTestLedger(t)
	early.Game().ID = "early"
	early.Game().Date = "2025-05-01"
	record(t, early, Visitor, "v1", Col(1), OutcomeSingle)
	record(t, early, Visitor, "v1", Col(2), OutcomeDouble)

	log := PlayerLog([]*Game{late.Game(), early.Game()}, "v1", Filter{})
	if len(log) != 2 {
		t.Fatalf("Expected 2 games, got %d", len(log))
	}
	if log[0].GameID != "early" || !near(log[0].Average, 1) {
		t.Errorf("Unexpected first game %+v", log[0])
	}
	if log[1].GameID != "late" || log[1].Hits != 2 || log[1].AtBats != 4 || !near(log[1].Average, 0.5) {
		t.Errorf("Unexpected cumulative line %+v", log[1])
	}
}
