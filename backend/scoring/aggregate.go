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
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Filter restricts aggregation to one team and an inclusive date range.
// Zero values leave the corresponding bound open.
type Filter struct {
	TeamID string
	From   time.Time
	To     time.Time
}

func (f Filter) dated() bool {
	return !f.From.IsZero() || !f.To.IsZero()
}

var dateLayouts = []string{time.DateOnly, time.RFC3339, "2006/01/02", "2006-01-02T15:04"}

// ParseGameDate parses the date of a game.
func ParseGameDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// includes reports whether g falls inside the date range. Both bounds are
// whole days. A game without a readable date only passes when no range is
// set.
func (f Filter) includes(g *Game) bool {
	if !f.dated() {
		return true
	}
	d, ok := ParseGameDate(g.Date)
	if !ok {
		return false
	}
	d = calendarDay(d)
	if !f.From.IsZero() && d.Before(calendarDay(f.From)) {
		return false
	}
	if !f.To.IsZero() && d.After(calendarDay(f.To)) {
		return false
	}
	return true
}

// calendarDay drops the time of day so that bounds compare whole days.
func calendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// sides returns the sides of g whose team matches the filter.
func (f Filter) sides(g *Game) []Side {
	var out []Side
	for _, side := range []Side{Visitor, Home} {
		if f.TeamID == "" || g.Team(side).ID == f.TeamID {
			out = append(out, side)
		}
	}
	return out
}

// BattingStats is a player's batting record across games.
type BattingStats struct {
	PlayerID         string  `json:"playerId"`
	Name             string  `json:"name"`
	Number           string  `json:"number,omitempty"`
	TeamID           string  `json:"teamId"`
	GamesPlayed      int     `json:"gamesPlayed"`
	PlateAppearances int     `json:"plateAppearances"`
	AtBats           int     `json:"atBats"`
	Hits             int     `json:"hits"`
	Doubles          int     `json:"doubles"`
	Triples          int     `json:"triples"`
	HomeRuns         int     `json:"homeRuns"`
	Runs             int     `json:"runs"`
	RBI              int     `json:"rbi"`
	Walks            int     `json:"walks"`
	Strikeouts       int     `json:"strikeouts"`
	StolenBases      int     `json:"stolenBases"`
	SacrificeBunts   int     `json:"sacrificeBunts"`
	SacrificeFlies   int     `json:"sacrificeFlies"`
	Errors           int     `json:"errors"`
	Average          float64 `json:"average"`
	OnBase           float64 `json:"onBasePercentage"`
	Slugging         float64 `json:"sluggingPercentage"`
	OPS              float64 `json:"ops"`
}

// Singles returns hits that were not for extra bases.
func (s *BattingStats) Singles() int {
	return s.Hits - s.Doubles - s.Triples - s.HomeRuns
}

func (s *BattingStats) addEntry(e *ScoreEntry) {
	s.GamesPlayed++
	s.Errors += e.DefensiveErrors
	for _, o := range e.Results {
		if o.IsEmpty() {
			continue
		}
		c := MustClassify(o)
		s.PlateAppearances++
		if c.IsAtBat {
			s.AtBats++
		}
		if c.IsHit {
			s.Hits++
		}
		if c.IsWalk {
			s.Walks++
		}
		if c.IsStrikeout {
			s.Strikeouts++
		}
		switch o {
		case OutcomeDouble:
			s.Doubles++
		case OutcomeTriple:
			s.Triples++
		case OutcomeHomeRun:
			s.HomeRuns++
		case OutcomeSacrificeBunt:
			s.SacrificeBunts++
		case OutcomeSacrificeFly:
			s.SacrificeFlies++
		}
	}
	for _, d := range e.Details {
		if d.Scored {
			s.Runs++
		}
		s.RBI += d.RBI
		s.StolenBases += d.StolenBases
	}
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

func (s *BattingStats) derive() {
	s.Average = ratio(s.Hits, s.AtBats)
	s.OnBase = ratio(s.Hits+s.Walks, s.AtBats+s.Walks+s.SacrificeFlies)
	totalBases := s.Singles() + 2*s.Doubles + 3*s.Triples + 4*s.HomeRuns
	s.Slugging = ratio(totalBases, s.AtBats)
	s.OPS = s.OnBase + s.Slugging
}

// AggregateBatting folds the ledgers of games into one row per player.
// Entries whose lineup player has no name are placeholders and skipped.
// Rows come back ordered by player id; see SortBatting.
func AggregateBatting(games []*Game, f Filter) []BattingStats {
	byID := make(map[string]*BattingStats)
	for _, g := range games {
		if !f.includes(g) {
			continue
		}
		for _, side := range f.sides(g) {
			for _, e := range g.Entries(side) {
				p, ok := g.LineupPlayer(side, e.PlayerID)
				if !ok || p.Blank() {
					continue
				}
				s, ok := byID[e.PlayerID]
				if !ok {
					s = &BattingStats{PlayerID: e.PlayerID, Name: p.Name, Number: p.Number, TeamID: g.Team(side).ID}
					byID[e.PlayerID] = s
				}
				s.addEntry(e)
			}
		}
	}
	out := make([]BattingStats, 0, len(byID))
	for _, s := range byID {
		s.derive()
		out = append(out, *s)
	}
	slices.SortFunc(out, func(a, b BattingStats) int { return cmp.Compare(a.PlayerID, b.PlayerID) })
	return out
}

// PitchingStats is a pitcher's record across games.
type PitchingStats struct {
	PlayerID       string  `json:"playerId"`
	Name           string  `json:"name"`
	TeamID         string  `json:"teamId"`
	GamesPitched   int     `json:"gamesPitched"`
	Wins           int     `json:"wins"`
	Losses         int     `json:"losses"`
	Saves          int     `json:"saves"`
	Outs           int     `json:"outs"`
	InningsPitched float64 `json:"inningsPitched"`
	EarnedRuns     int     `json:"earnedRuns"`
	ERA            float64 `json:"era"`
	WinPct         float64 `json:"winningPercentage"`
}

func (s *PitchingStats) derive() {
	s.InningsPitched = float64(s.Outs) / 3
	if s.Outs > 0 {
		s.ERA = float64(s.EarnedRuns*Regulation) / s.InningsPitched
	}
	s.WinPct = ratio(s.Wins, s.Wins+s.Losses)
}

// AggregatePitching folds the pitching lines of games into one row per
// pitcher, keyed by player id or, for lines without one, by name.
func AggregatePitching(games []*Game, f Filter) []PitchingStats {
	byID := make(map[string]*PitchingStats)
	for _, g := range games {
		if !f.includes(g) {
			continue
		}
		for _, side := range f.sides(g) {
			for _, p := range g.PitcherLines(side) {
				if strings.TrimSpace(p.Name) == "" {
					continue
				}
				id := cmp.Or(p.ID, p.Name)
				s, ok := byID[id]
				if !ok {
					s = &PitchingStats{PlayerID: id, Name: p.Name, TeamID: g.Team(side).ID}
					byID[id] = s
				}
				s.GamesPitched++
				switch p.Decision {
				case DecisionWin:
					s.Wins++
				case DecisionLose:
					s.Losses++
				case DecisionSave:
					s.Saves++
				}
				s.EarnedRuns += p.EarnedRuns
				s.Outs += ParseInningsPitched(p.Innings)
			}
		}
	}
	out := make([]PitchingStats, 0, len(byID))
	for _, s := range byID {
		s.derive()
		out = append(out, *s)
	}
	slices.SortFunc(out, func(a, b PitchingStats) int { return cmp.Compare(a.PlayerID, b.PlayerID) })
	return out
}

// ParseInningsPitched converts innings notation to outs. It accepts "5",
// "5 1/3", "5 2/3" and the "5.1"/"5.2" shorthand. Unreadable parts count as
// zero instead of failing the whole line.
func ParseInningsPitched(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	whole, frac := s, ""
	if w, f, ok := strings.Cut(s, " "); ok {
		whole, frac = w, strings.TrimSpace(f)
		switch frac {
		case "1/3":
			frac = "1"
		case "2/3":
			frac = "2"
		default:
			frac = ""
		}
	} else if w, f, ok := strings.Cut(s, "."); ok {
		whole, frac = w, f
	}
	outs := 0
	if n, err := strconv.Atoi(whole); err == nil && n > 0 {
		outs = 3 * n
	}
	switch frac {
	case "1":
		outs++
	case "2":
		outs += 2
	}
	return outs
}

// FormatInningsPitched renders outs in "whole fraction" notation.
func FormatInningsPitched(outs int) string {
	whole, rem := outs/3, outs%3
	if rem == 0 {
		return strconv.Itoa(whole)
	}
	return fmt.Sprintf("%d %d/3", whole, rem)
}

// Stat sort keys.
var battingKeys = map[string]func(*BattingStats) float64{
	"avg": func(s *BattingStats) float64 { return s.Average },
	"obp": func(s *BattingStats) float64 { return s.OnBase },
	"slg": func(s *BattingStats) float64 { return s.Slugging },
	"ops": func(s *BattingStats) float64 { return s.OPS },
	"g":   func(s *BattingStats) float64 { return float64(s.GamesPlayed) },
	"pa":  func(s *BattingStats) float64 { return float64(s.PlateAppearances) },
	"ab":  func(s *BattingStats) float64 { return float64(s.AtBats) },
	"h":   func(s *BattingStats) float64 { return float64(s.Hits) },
	"hr":  func(s *BattingStats) float64 { return float64(s.HomeRuns) },
	"r":   func(s *BattingStats) float64 { return float64(s.Runs) },
	"rbi": func(s *BattingStats) float64 { return float64(s.RBI) },
	"bb":  func(s *BattingStats) float64 { return float64(s.Walks) },
	"k":   func(s *BattingStats) float64 { return float64(s.Strikeouts) },
	"sb":  func(s *BattingStats) float64 { return float64(s.StolenBases) },
	"e":   func(s *BattingStats) float64 { return float64(s.Errors) },
}

var pitchingKeys = map[string]func(*PitchingStats) float64{
	"era": func(s *PitchingStats) float64 { return s.ERA },
	"ip":  func(s *PitchingStats) float64 { return float64(s.Outs) },
	"g":   func(s *PitchingStats) float64 { return float64(s.GamesPitched) },
	"w":   func(s *PitchingStats) float64 { return float64(s.Wins) },
	"l":   func(s *PitchingStats) float64 { return float64(s.Losses) },
	"sv":  func(s *PitchingStats) float64 { return float64(s.Saves) },
	"er":  func(s *PitchingStats) float64 { return float64(s.EarnedRuns) },
	"pct": func(s *PitchingStats) float64 { return s.WinPct },
}

// SortBatting orders rows by the named stat. Ties keep player id order.
func SortBatting(rows []BattingStats, key string, desc bool) error {
	fn, ok := battingKeys[strings.ToLower(key)]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSortKey, key)
	}
	slices.SortStableFunc(rows, func(a, b BattingStats) int {
		c := cmp.Compare(fn(&a), fn(&b))
		if desc {
			c = -c
		}
		return cmp.Or(c, cmp.Compare(a.PlayerID, b.PlayerID))
	})
	return nil
}

// SortPitching orders rows by the named stat. Ties keep player id order.
func SortPitching(rows []PitchingStats, key string, desc bool) error {
	fn, ok := pitchingKeys[strings.ToLower(key)]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSortKey, key)
	}
	slices.SortStableFunc(rows, func(a, b PitchingStats) int {
		c := cmp.Compare(fn(&a), fn(&b))
		if desc {
			c = -c
		}
		return cmp.Or(c, cmp.Compare(a.PlayerID, b.PlayerID))
	})
	return nil
}

// PlayerGame is one game of a player's batting log.
type PlayerGame struct {
	GameID  string      `json:"gameId"`
	Date    string      `json:"date"`
	Line    BattingLine `json:"line"`
	Hits    int         `json:"cumulativeHits"`
	AtBats  int         `json:"cumulativeAtBats"`
	Average float64     `json:"cumulativeAverage"`
}

// PlayerLog returns the games of playerID that pass f, oldest first, with
// the running batting average after each game.
func PlayerLog(games []*Game, playerID string, f Filter) []PlayerGame {
	var out []PlayerGame
	for _, g := range games {
		if !f.includes(g) {
			continue
		}
		for _, side := range f.sides(g) {
			if e := g.Entry(side, playerID); e != nil {
				out = append(out, PlayerGame{GameID: g.ID, Date: g.Date, Line: GameStats(e)})
			}
		}
	}
	slices.SortStableFunc(out, func(a, b PlayerGame) int {
		ta, _ := ParseGameDate(a.Date)
		tb, _ := ParseGameDate(b.Date)
		return ta.Compare(tb)
	})
	h, ab := 0, 0
	for i := range out {
		h += out[i].Line.Hits
		ab += out[i].Line.AtBats
		out[i].Hits, out[i].AtBats = h, ab
		out[i].Average = ratio(h, ab)
	}
	return out
}
