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
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/ttbt-io/scorebook/backend/scoring"
	"github.com/xuri/excelize/v2"
)

// verifyGolden compares actual with testdata/name. With UPDATE_GOLDENS=true
// it rewrites the file instead.
func verifyGolden(t *testing.T, name, actual string) {
	t.Helper()
	path := filepath.Join("testdata", name)
	if os.Getenv("UPDATE_GOLDENS") == "true" {
		if err := os.WriteFile(path, []byte(actual), 0644); err != nil {
			t.Fatalf("Failed to write golden file %s: %v", path, err)
		}
		t.Logf("Updated golden file: %s", path)
		return
	}
	expected, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden file %s: %v", path, err)
	}
	if string(expected) != actual {
		diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(string(expected)),
			B:        difflib.SplitLines(actual),
			FromFile: "Expected",
			ToFile:   "Actual",
			Context:  3,
		})
		t.Errorf("%s mismatch:\n%s", name, diff)
	}
}

func newPitchedGame(t *testing.T) *Game {
	t.Helper()
	g := newTestGame(t, "game-box")
	l := scoring.NewLedger(g)
	p, _ := g.LineupPlayer(scoring.Home, "h1")
	idx, err := l.AddPitcher(scoring.Home, p)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.UpdatePitcher(scoring.Home, idx, scoring.PitcherUpdate{Innings: "2 1/3", EarnedRuns: 1, Decision: scoring.DecisionWin}); err != nil {
		t.Fatal(err)
	}
	return g
}

func TestWriteBoxScoreText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteBoxScoreText(&buf, newPitchedGame(t)); err != nil {
		t.Fatalf("WriteBoxScoreText: %v", err)
	}
	verifyGolden(t, "boxscore.golden", buf.String())
}

func TestWriteBoxScoreXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteBoxScoreXLSX(&buf, newPitchedGame(t)); err != nil {
		t.Fatalf("WriteBoxScoreXLSX: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	want := []string{"Line Score", "Visitor - Visitors", "Home - Homers", "Pitching"}
	if got := f.GetSheetList(); len(got) != len(want) {
		t.Fatalf("sheets = %v, want %v", got, want)
	} else {
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("sheet %d = %q, want %q", i, got[i], want[i])
			}
		}
	}

	rows, err := f.GetRows("Visitor - Visitors")
	if err != nil {
		t.Fatal(err)
	}
	// Header, nine batters and the totals.
	if len(rows) != 11 {
		t.Fatalf("got %d rows, want 11", len(rows))
	}
	if rows[1][1] != "Visitors Player 1" || rows[1][4] != "HR" {
		t.Errorf("first batter row = %v", rows[1])
	}
	if rows[10][1] != "Totals" {
		t.Errorf("last row = %v", rows[10])
	}

	pitching, err := f.GetRows("Pitching")
	if err != nil {
		t.Fatal(err)
	}
	if len(pitching) != 2 || pitching[1][2] != "2 1/3" || pitching[1][4] != "win" {
		t.Errorf("pitching = %v", pitching)
	}
}

func TestSanitizeSheet(t *testing.T) {
	if got := sanitizeSheet("A/B [C]: D?"); got != "AB C D" {
		t.Errorf("sanitizeSheet = %q", got)
	}
}

func TestWriteAverageChartWithoutGames(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteAverageChart(&buf, "nobody", nil); err != ErrNoGames {
		t.Errorf("WriteAverageChart = %v, want ErrNoGames", err)
	}
}

func TestWriteAverageChartSingleGame(t *testing.T) {
	var buf bytes.Buffer
	games := []scoring.PlayerGame{{GameID: "g1", Date: "2025-05-10", Hits: 1, AtBats: 3, Average: 1.0 / 3}}
	if err := WriteAverageChart(&buf, "v1", games); err != nil {
		t.Fatalf("WriteAverageChart: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Error("output is not a PNG")
	}
}
