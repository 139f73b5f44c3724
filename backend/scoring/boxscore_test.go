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
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestGameStats(t *testing.T) {
	l := newTestLedger(t)
	record(t, l, Visitor, "v1", Col(1), OutcomeSingle)
	record(t, l, Visitor, "v1", Col(3), OutcomeWalk)
	record(t, l, Visitor, "v1", Col(5), OutcomeStrikeout)
	record(t, l, Visitor, "v1", Col(7), OutcomeSacrificeFly)
	l.SetRBI(Visitor, "v1", Col(7), 1)
	l.AdvanceRunner(Visitor, "v1", Col(3), 2, true)
	l.AdvanceRunner(Visitor, "v1", Col(3), 4, false)
	l.RecordError(Visitor, "v1")

	got := GameStats(l.Game().Entry(Visitor, "v1"))
	want := BattingLine{
		PlateAppearances: 3,
		AtBats:           2,
		Hits:             1,
		Runs:             1,
		RBI:              1,
		StolenBases:      1,
		Walks:            1,
		Strikeouts:       1,
		Errors:           1,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GameStats mismatch (-want +got):\n%s", diff)
	}
	if got := GameStats(nil); got != (BattingLine{}) {
		t.Errorf("Expected empty line for nil entry, got %+v", got)
	}
}

func TestNewBoxScore(t *testing.T) {
	l := newTestLedger(t)
	k, _ := l.AddExtraColumn(Visitor, 1)
	record(t, l, Visitor, "v1", Col(1), OutcomeHomeRun)
	record(t, l, Visitor, "v2", Col(1), OutcomeDouble)
	record(t, l, Visitor, "v3", k, OutcomeStrikeout)

	b := NewBoxScore(l.Game(), Visitor)
	if b.Team != "Visitors" {
		t.Errorf("Expected team Visitors, got %q", b.Team)
	}
	if len(b.Columns) != Regulation+1 || b.Columns[1] != k {
		t.Errorf("Unexpected columns %v", b.Columns)
	}
	if len(b.Rows) != MinLineupSlots {
		t.Fatalf("Expected %d rows, got %d", MinLineupSlots, len(b.Rows))
	}
	first := b.Rows[0]
	if first.Order != 1 || first.Player.ID != "v1" {
		t.Errorf("Unexpected first row %+v", first.Player)
	}
	if len(first.Cells) != len(b.Columns) {
		t.Errorf("Expected %d cells, got %d", len(b.Columns), len(first.Cells))
	}
	if c := first.Cells[0]; c.Outcome != OutcomeHomeRun || !c.Detail.Scored {
		t.Errorf("Unexpected first cell %+v", c)
	}
	want := BattingLine{PlateAppearances: 3, AtBats: 3, Hits: 2, Runs: 1, Strikeouts: 1}
	if diff := cmp.Diff(want, b.Totals); diff != "" {
		t.Errorf("Totals mismatch (-want +got):\n%s", diff)
	}
}

func TestNewLineScore(t *testing.T) {
	l := newTestLedger(t)
	record(t, l, Visitor, "v1", Col(1), OutcomeHomeRun)
	k, _ := l.AddExtraColumn(Visitor, 2)
	record(t, l, Visitor, "v2", k, OutcomeHomeRun)
	record(t, l, Home, "h1", Col(9), OutcomeSingle)
	l.RecordError(Home, "h4")
	l.RecordError(Home, "h4")

	ls := NewLineScore(l.Game())
	if ls.Innings != 9 {
		t.Errorf("Expected 9 innings, got %d", ls.Innings)
	}
	if diff := cmp.Diff([]int{1, 1, 0, 0, 0, 0, 0, 0, 0}, ls.Visitor.Innings); diff != "" {
		t.Errorf("Visitor innings mismatch (-want +got):\n%s", diff)
	}
	if ls.Visitor.Runs != 2 || ls.Visitor.Hits != 2 {
		t.Errorf("Visitor R/H = %d/%d, want 2/2", ls.Visitor.Runs, ls.Visitor.Hits)
	}
	if ls.Home.Runs != 0 || ls.Home.Hits != 1 || ls.Home.Errors != 2 {
		t.Errorf("Home R/H/E = %d/%d/%d, want 0/1/2", ls.Home.Runs, ls.Home.Hits, ls.Home.Errors)
	}
}
