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
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Regulation is the number of innings in a regulation game. The scorebook
// always shows at least this many columns and ERA is scaled to it.
const Regulation = 7

// MinLineupSlots is the smallest allowed batting order.
const MinLineupSlots = 9

// Side is one of the two teams of a game.
type Side string

const (
	Visitor Side = "visitor"
	Home    Side = "home"
)

// Valid reports whether s is visitor or home.
func (s Side) Valid() bool {
	return s == Visitor || s == Home
}

// Other returns the opposing side.
func (s Side) Other() Side {
	if s == Visitor {
		return Home
	}
	return Visitor
}

// ParseSide validates a side name.
func ParseSide(s string) (Side, error) {
	side := Side(strings.ToLower(strings.TrimSpace(s)))
	if !side.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownSide, s)
	}
	return side, nil
}

// Player is a roster member.
type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Number string `json:"number"`
}

// Blank reports whether the player has no name, as lineup placeholders do.
func (p Player) Blank() bool {
	return strings.TrimSpace(p.Name) == ""
}

// Team is a roster snapshot.
type Team struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Players []Player `json:"players"`
}

// FindPlayer returns the roster player with the given id.
func (t *Team) FindPlayer(id string) (Player, bool) {
	for _, p := range t.Players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}

// Position is a defensive position tag.
type Position string

const (
	PositionNone Position = ""
	PositionDH   Position = "DH"
)

// ParsePosition accepts "", "1" to "9" and "DH".
func ParsePosition(s string) (Position, error) {
	p := Position(strings.ToUpper(strings.TrimSpace(s)))
	if p == PositionNone || p == PositionDH {
		return p, nil
	}
	if len(p) == 1 && p[0] >= '1' && p[0] <= '9' {
		return p, nil
	}
	return PositionNone, fmt.Errorf("%w: %q", ErrInvalidPosition, s)
}

// Fielding reports whether p is one of the nine fielding positions, which
// must be unique within a lineup.
func (p Position) Fielding() bool {
	return p != PositionNone && p != PositionDH
}

// LineupSlot is one place in the batting order.
type LineupSlot struct {
	Order    int      `json:"order"`
	Player   Player   `json:"player"`
	Position Position `json:"position,omitempty"`
}

// AppearanceDetail is the runner state and run attribution of one column.
type AppearanceDetail struct {
	RBI           int  `json:"rbi"`
	Scored        bool `json:"isRun"`
	ReachedFirst  bool `json:"reachedFirst,omitempty"`
	ReachedSecond bool `json:"reachedSecond,omitempty"`
	ReachedThird  bool `json:"reachedThird,omitempty"`
	StolenBases   int  `json:"stolenBases,omitempty"`
}

// Base returns the highest base reached, 0 when the runner never reached.
func (d AppearanceDetail) Base() int {
	switch {
	case d.ReachedThird:
		return 3
	case d.ReachedSecond:
		return 2
	case d.ReachedFirst:
		return 1
	}
	return 0
}

// IsZero reports whether nothing is recorded in d.
func (d AppearanceDetail) IsZero() bool {
	return d == AppearanceDetail{}
}

// ScoreEntry is everything recorded for one player of one side in a game.
type ScoreEntry struct {
	PlayerID        string                         `json:"playerId"`
	Results         map[ColumnKey]Outcome          `json:"inningResults"`
	Details         map[ColumnKey]AppearanceDetail `json:"details"`
	DefensiveErrors int                            `json:"defensiveErrors,omitempty"`
}

func newScoreEntry(playerID string) *ScoreEntry {
	return &ScoreEntry{
		PlayerID: playerID,
		Results:  make(map[ColumnKey]Outcome),
		Details:  make(map[ColumnKey]AppearanceDetail),
	}
}

func (e *ScoreEntry) normalize() {
	if e.Results == nil {
		e.Results = make(map[ColumnKey]Outcome)
	}
	if e.Details == nil {
		e.Details = make(map[ColumnKey]AppearanceDetail)
	}
}

// HasData reports whether anything beyond placeholders is recorded in column k.
func (e *ScoreEntry) HasData(k ColumnKey) bool {
	return !e.Results[k].IsEmpty() || !e.Details[k].IsZero()
}

// HasAnyData reports whether the entry records anything at all.
func (e *ScoreEntry) HasAnyData() bool {
	if e.DefensiveErrors > 0 {
		return true
	}
	for k := range e.Results {
		if e.HasData(k) {
			return true
		}
	}
	for k := range e.Details {
		if e.HasData(k) {
			return true
		}
	}
	return false
}

// Decision is a pitcher's credited result.
type Decision string

const (
	DecisionNone Decision = ""
	DecisionWin  Decision = "win"
	DecisionLose Decision = "lose"
	DecisionSave Decision = "save"
)

// ParseDecision validates a pitching decision.
func ParseDecision(s string) (Decision, error) {
	d := Decision(strings.ToLower(strings.TrimSpace(s)))
	switch d {
	case DecisionNone, DecisionWin, DecisionLose, DecisionSave:
		return d, nil
	}
	return DecisionNone, fmt.Errorf("%w: %q", ErrInvalidDecision, s)
}

// PitcherEntry is one pitcher's line for a game. Innings uses the
// "whole[ fraction]" notation, e.g. "5 1/3".
type PitcherEntry struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Innings    string   `json:"innings"`
	EarnedRuns int      `json:"er"`
	Decision   Decision `json:"result"`
}

// HalfInning points at the team currently batting.
type HalfInning struct {
	Side   Side `json:"side"`
	Inning int  `json:"inning"`
}

// Umpires names the crew of a game.
type Umpires struct {
	Main  string `json:"main"`
	Base1 string `json:"base1"`
	Base2 string `json:"base2"`
	Base3 string `json:"base3"`
}

// Teams holds the two roster snapshots of a game.
type Teams struct {
	Visitor Team `json:"visitor"`
	Home    Team `json:"home"`
}

// Scores holds the ledger entries of both sides.
type Scores struct {
	Visitor []*ScoreEntry `json:"visitor"`
	Home    []*ScoreEntry `json:"home"`
}

// Pitchers holds the pitching lines of both sides.
type Pitchers struct {
	Visitor []PitcherEntry `json:"visitor"`
	Home    []PitcherEntry `json:"home"`
}

// Game is a scored game.
type Game struct {
	ID            string       `json:"id"`
	SchemaVersion int          `json:"schemaVersion,omitempty"`
	Date          string       `json:"date"`
	StartTime     string       `json:"startTime,omitempty"`
	EndTime       string       `json:"endTime,omitempty"`
	Location      string       `json:"location,omitempty"`
	Umpires       *Umpires     `json:"umpires,omitempty"`
	Teams         Teams        `json:"teams"`
	VisitorLineup []LineupSlot `json:"visitorLineup"`
	HomeLineup    []LineupSlot `json:"homeLineup"`
	Scores        Scores       `json:"scores"`
	Pitchers      Pitchers     `json:"pitcherRecords"`
	Current       HalfInning   `json:"current"`
	UpdatedAt     int64        `json:"updatedAt,omitempty"`

	// DeletedAt is the timestamp (Unix Nano) when the game was deleted.
	DeletedAt int64 `json:"deletedAt,omitempty"`
}

// NewGame starts a game between two roster snapshots with two empty
// nine-slot lineups, top of the first.
func NewGame(id string, visitor, home Team) *Game {
	g := &Game{
		ID:            id,
		Teams:         Teams{Visitor: visitor, Home: home},
		VisitorLineup: placeholderLineup(Visitor),
		HomeLineup:    placeholderLineup(Home),
		Current:       HalfInning{Side: Visitor, Inning: 1},
	}
	g.Normalize()
	return g
}

func placeholderLineup(side Side) []LineupSlot {
	slots := make([]LineupSlot, MinLineupSlots)
	for i := range slots {
		slots[i] = placeholderSlot(side, i+1)
	}
	return slots
}

func placeholderSlot(side Side, order int) LineupSlot {
	return LineupSlot{
		Order:  order,
		Player: Player{ID: fmt.Sprintf("%s-%s", side, uuid.NewString())},
	}
}

// Normalize fills nil collections and repairs the half-inning pointer so a
// decoded game can be scored.
func (g *Game) Normalize() {
	if g.Teams.Visitor.Players == nil {
		g.Teams.Visitor.Players = make([]Player, 0)
	}
	if g.Teams.Home.Players == nil {
		g.Teams.Home.Players = make([]Player, 0)
	}
	if g.VisitorLineup == nil {
		g.VisitorLineup = make([]LineupSlot, 0)
	}
	if g.HomeLineup == nil {
		g.HomeLineup = make([]LineupSlot, 0)
	}
	if g.Scores.Visitor == nil {
		g.Scores.Visitor = make([]*ScoreEntry, 0)
	}
	if g.Scores.Home == nil {
		g.Scores.Home = make([]*ScoreEntry, 0)
	}
	// Null entries are left for validation to reject.
	for _, e := range g.Scores.Visitor {
		if e != nil {
			e.normalize()
		}
	}
	for _, e := range g.Scores.Home {
		if e != nil {
			e.normalize()
		}
	}
	if g.Pitchers.Visitor == nil {
		g.Pitchers.Visitor = make([]PitcherEntry, 0)
	}
	if g.Pitchers.Home == nil {
		g.Pitchers.Home = make([]PitcherEntry, 0)
	}
	if !g.Current.Side.Valid() {
		g.Current.Side = Visitor
	}
	if g.Current.Inning < 1 {
		g.Current.Inning = 1
	}
}

// Team returns the roster snapshot of side.
func (g *Game) Team(side Side) *Team {
	if side == Home {
		return &g.Teams.Home
	}
	return &g.Teams.Visitor
}

// Lineup returns the batting order of side.
func (g *Game) Lineup(side Side) []LineupSlot {
	if side == Home {
		return g.HomeLineup
	}
	return g.VisitorLineup
}

func (g *Game) setLineup(side Side, l []LineupSlot) {
	if side == Home {
		g.HomeLineup = l
	} else {
		g.VisitorLineup = l
	}
}

// Entries returns the ledger entries of side.
func (g *Game) Entries(side Side) []*ScoreEntry {
	if side == Home {
		return g.Scores.Home
	}
	return g.Scores.Visitor
}

func (g *Game) setEntries(side Side, e []*ScoreEntry) {
	if side == Home {
		g.Scores.Home = e
	} else {
		g.Scores.Visitor = e
	}
}

// Entry returns the ledger entry of a player, nil when none exists.
func (g *Game) Entry(side Side, playerID string) *ScoreEntry {
	for _, e := range g.Entries(side) {
		if e.PlayerID == playerID {
			return e
		}
	}
	return nil
}

// PitcherLines returns the pitching lines of side.
func (g *Game) PitcherLines(side Side) []PitcherEntry {
	if side == Home {
		return g.Pitchers.Home
	}
	return g.Pitchers.Visitor
}

func (g *Game) setPitcherLines(side Side, p []PitcherEntry) {
	if side == Home {
		g.Pitchers.Home = p
	} else {
		g.Pitchers.Visitor = p
	}
}

// LineupPlayer returns the lineup player with the given id.
func (g *Game) LineupPlayer(side Side, playerID string) (Player, bool) {
	for _, s := range g.Lineup(side) {
		if s.Player.ID == playerID {
			return s.Player, true
		}
	}
	return Player{}, false
}
