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

import "slices"

// BattingLine is a player's box score line for one game.
type BattingLine struct {
	PlateAppearances int `json:"pa"`
	AtBats           int `json:"ab"`
	Hits             int `json:"h"`
	Runs             int `json:"r"`
	RBI              int `json:"rbi"`
	StolenBases      int `json:"sb"`
	Walks            int `json:"bb"`
	Strikeouts       int `json:"k"`
	Errors           int `json:"e"`
}

// Add accumulates o into l.
func (l *BattingLine) Add(o BattingLine) {
	l.PlateAppearances += o.PlateAppearances
	l.AtBats += o.AtBats
	l.Hits += o.Hits
	l.Runs += o.Runs
	l.RBI += o.RBI
	l.StolenBases += o.StolenBases
	l.Walks += o.Walks
	l.Strikeouts += o.Strikeouts
	l.Errors += o.Errors
}

// GameStats folds one ledger entry into a box score line. A nil entry gives
// an empty line. Plate appearances are at-bats plus walks; sacrifices and
// interference are not counted here (the season aggregate counts every
// recorded result).
func GameStats(e *ScoreEntry) BattingLine {
	var l BattingLine
	if e == nil {
		return l
	}
	for _, o := range e.Results {
		c := MustClassify(o)
		if c.IsAtBat {
			l.AtBats++
		}
		if c.IsHit {
			l.Hits++
		}
		if c.IsWalk {
			l.Walks++
		}
		if c.IsStrikeout {
			l.Strikeouts++
		}
	}
	for _, d := range e.Details {
		if d.Scored {
			l.Runs++
		}
		l.RBI += d.RBI
		l.StolenBases += d.StolenBases
	}
	l.Errors = e.DefensiveErrors
	l.PlateAppearances = l.AtBats + l.Walks
	return l
}

// Columns returns the columns of side's scorebook grid in display order:
// every inning up to the regulation length, the current inning or the last
// recorded one, plus the extra turns that exist.
func Columns(g *Game, side Side) []ColumnKey {
	last := max(Regulation, g.Current.Inning)
	extra := make(map[ColumnKey]bool)
	for _, e := range g.Entries(side) {
		for k := range e.Results {
			last = max(last, k.Inning)
			if !k.IsBase() {
				extra[k] = true
			}
		}
		for k := range e.Details {
			last = max(last, k.Inning)
			if !k.IsBase() {
				extra[k] = true
			}
		}
	}
	cols := make([]ColumnKey, 0, last+len(extra))
	for i := 1; i <= last; i++ {
		cols = append(cols, Col(i))
	}
	for k := range extra {
		cols = append(cols, k)
	}
	slices.SortFunc(cols, CompareColumns)
	return cols
}

// Cell is one square of the scorebook grid.
type Cell struct {
	Column  ColumnKey        `json:"column"`
	Outcome Outcome          `json:"outcome,omitempty"`
	Detail  AppearanceDetail `json:"detail"`
}

// BoxRow is one batting order slot of a box score.
type BoxRow struct {
	Order    int         `json:"order"`
	Player   Player      `json:"player"`
	Position Position    `json:"position,omitempty"`
	Cells    []Cell      `json:"cells"`
	Line     BattingLine `json:"line"`
}

// BoxScore is the scorebook grid and totals of one side.
type BoxScore struct {
	Side    Side        `json:"side"`
	Team    string      `json:"team"`
	Columns []ColumnKey `json:"columns"`
	Rows    []BoxRow    `json:"rows"`
	Totals  BattingLine `json:"totals"`
}

// NewBoxScore builds the box score of side.
func NewBoxScore(g *Game, side Side) BoxScore {
	b := BoxScore{
		Side:    side,
		Team:    g.Team(side).Name,
		Columns: Columns(g, side),
	}
	for _, slot := range g.Lineup(side) {
		e := g.Entry(side, slot.Player.ID)
		row := BoxRow{
			Order:    slot.Order,
			Player:   slot.Player,
			Position: slot.Position,
			Line:     GameStats(e),
			Cells:    make([]Cell, 0, len(b.Columns)),
		}
		for _, k := range b.Columns {
			c := Cell{Column: k}
			if e != nil {
				c.Outcome = e.Results[k]
				c.Detail = e.Details[k]
			}
			row.Cells = append(row.Cells, c)
		}
		b.Totals.Add(row.Line)
		b.Rows = append(b.Rows, row)
	}
	return b
}

// LineRow is one side of a line score.
type LineRow struct {
	Team    string `json:"team"`
	Innings []int  `json:"innings"`
	Runs    int    `json:"r"`
	Hits    int    `json:"h"`
	Errors  int    `json:"e"`
}

// LineScore is the inning-by-inning run summary of a game.
type LineScore struct {
	Innings int     `json:"innings"`
	Visitor LineRow `json:"visitor"`
	Home    LineRow `json:"home"`
}

// NewLineScore sums runs per inning from the scored flags of every column,
// extra turns folded into their base inning. Errors are those committed by
// the side's own fielders.
func NewLineScore(g *Game) LineScore {
	innings := 0
	for _, side := range []Side{Visitor, Home} {
		for _, k := range Columns(g, side) {
			innings = max(innings, k.Inning)
		}
	}
	ls := LineScore{Innings: innings}
	for _, side := range []Side{Visitor, Home} {
		row := LineRow{Team: g.Team(side).Name, Innings: make([]int, innings)}
		for _, e := range g.Entries(side) {
			for k, d := range e.Details {
				if d.Scored {
					row.Innings[k.Inning-1]++
					row.Runs++
				}
			}
			line := GameStats(e)
			row.Hits += line.Hits
			row.Errors += e.DefensiveErrors
		}
		if side == Home {
			ls.Home = row
		} else {
			ls.Visitor = row
		}
	}
	return ls
}
