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
	"slices"
)

// Ledger is the mutation surface of one game. Every operation is a complete
// state transition: runner advancement triggered by a result is applied
// before RecordOutcome returns. A Ledger is not safe for concurrent use;
// the backend gives each game a single owning goroutine.
type Ledger struct {
	game    *Game
	tracker OutTracker
}

// NewLedger wraps g. The game is normalized first.
func NewLedger(g *Game) *Ledger {
	g.Normalize()
	return &Ledger{game: g}
}

// Game returns the game being scored.
func (l *Ledger) Game() *Game {
	return l.game
}

// OnThreeOuts registers the callback invoked when a result completes the
// third out of the current half-inning.
func (l *Ledger) OnThreeOuts(fn func(ThreeOuts)) {
	l.tracker.Notify = fn
}

// RecordResult describes the effect of RecordOutcome.
type RecordResult struct {
	Column    ColumnKey        `json:"column"`
	Outcome   Outcome          `json:"outcome"`
	Detail    AppearanceDetail `json:"detail"`
	Advanced  []string         `json:"advanced,omitempty"`
	Outs      int              `json:"outs"`
	ThreeOuts bool             `json:"threeOuts"`
}

func checkSide(side Side) error {
	if !side.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownSide, string(side))
	}
	return nil
}

func checkColumn(k ColumnKey) (ColumnKey, error) {
	if !k.Valid() {
		return ColumnKey{}, fmt.Errorf("%w: inning %d turn %d", ErrInvalidColumn, k.Inning, k.Turn)
	}
	return k.Normalize(), nil
}

// entry returns the ledger entry of playerID, creating it when create is set.
func (l *Ledger) entry(side Side, playerID string, create bool) *ScoreEntry {
	if e := l.game.Entry(side, playerID); e != nil {
		return e
	}
	if !create {
		return nil
	}
	e := newScoreEntry(playerID)
	l.game.setEntries(side, append(l.game.Entries(side), e))
	return e
}

// RecordOutcome sets the result of playerID in column k. A non-empty result
// marks the batter's own bases unless it retired him (by classification or
// by isOut) and pushes the other runners of the column ahead. The empty
// result clears the cell and its detail; advancement granted earlier to
// other runners stays in place.
func (l *Ledger) RecordOutcome(side Side, playerID string, k ColumnKey, o Outcome, isOut bool) (RecordResult, error) {
	if err := checkSide(side); err != nil {
		return RecordResult{}, err
	}
	k, err := checkColumn(k)
	if err != nil {
		return RecordResult{}, err
	}
	class, err := Classify(o)
	if err != nil {
		return RecordResult{}, err
	}
	if playerID == "" {
		return RecordResult{}, ErrMissingPlayer
	}

	half := HalfInning{Side: side, Inning: k.Inning}
	outsBefore := outsExcluding(l.game, half, playerID, k)

	e := l.entry(side, playerID, true)
	res := RecordResult{Column: k, Outcome: o}
	if o.IsEmpty() {
		e.Results[k] = OutcomeNone
		e.Details[k] = AppearanceDetail{}
	} else {
		e.Results[k] = o
		d := e.Details[k]
		if !isOut && !class.IsOut {
			batterReached(&d, o)
		}
		e.Details[k] = d
		res.Advanced = advanceRunners(l.game.Entries(side), playerID, k, o)
	}
	res.Detail = e.Details[k]
	res.Outs = Outs(l.game, half)
	res.ThreeOuts = l.tracker.observe(l.game.Current, half, playerID, k, class, outsBefore)
	return res, nil
}

// lastTurn returns the highest turn used by inning across side's entries.
func (l *Ledger) lastTurn(side Side, inning int) int {
	last := 1
	for _, e := range l.game.Entries(side) {
		for k := range e.Results {
			if k.Inning == inning && k.turn() > last {
				last = k.turn()
			}
		}
		for k := range e.Details {
			if k.Inning == inning && k.turn() > last {
				last = k.turn()
			}
		}
	}
	return last
}

// AddExtraColumn opens the next turn of inning for side and returns its key.
// An empty result is placed on the leadoff slot so the column is shown.
func (l *Ledger) AddExtraColumn(side Side, inning int) (ColumnKey, error) {
	if err := checkSide(side); err != nil {
		return ColumnKey{}, err
	}
	if inning < 1 {
		return ColumnKey{}, fmt.Errorf("%w: inning %d", ErrInvalidColumn, inning)
	}
	k := ExtraCol(inning, max(l.lastTurn(side, inning)+1, 2))
	lineup := l.game.Lineup(side)
	if len(lineup) == 0 {
		return ColumnKey{}, fmt.Errorf("%w: empty lineup", ErrSlotOutOfRange)
	}
	e := l.entry(side, lineup[0].Player.ID, true)
	if _, ok := e.Results[k]; !ok {
		e.Results[k] = OutcomeNone
	}
	return k, nil
}

// ColumnHasData reports whether any player of side recorded something in k.
func (l *Ledger) ColumnHasData(side Side, k ColumnKey) bool {
	k = k.Normalize()
	for _, e := range l.game.Entries(side) {
		if e.HasData(k) {
			return true
		}
	}
	return false
}

// RemovalHasData reports whether removing the given turn of inning would
// touch recorded data. Later turns shift into the removed one, so their
// data counts too.
func (l *Ledger) RemovalHasData(side Side, inning, turn int) bool {
	for t := max(turn, 2); t <= l.lastTurn(side, inning); t++ {
		if l.ColumnHasData(side, ExtraCol(inning, t)) {
			return true
		}
	}
	return false
}

func (l *Ledger) columnExists(side Side, k ColumnKey) bool {
	for _, e := range l.game.Entries(side) {
		if _, ok := e.Results[k]; ok {
			return true
		}
		if _, ok := e.Details[k]; ok {
			return true
		}
	}
	return false
}

// RemoveColumn deletes an extra turn column from every entry of side. Later
// turns of the same inning move down one so turns stay contiguous. When the
// column or a later turn holds data, confirm must be set.
func (l *Ledger) RemoveColumn(side Side, inning, turn int, confirm bool) error {
	if err := checkSide(side); err != nil {
		return err
	}
	k := ExtraCol(inning, turn)
	if inning < 1 {
		return fmt.Errorf("%w: %s", ErrInvalidColumn, k)
	}
	if k.IsBase() {
		return fmt.Errorf("%w: inning %d", ErrBaseColumn, inning)
	}
	if !l.columnExists(side, k) {
		return fmt.Errorf("%w: %s does not exist", ErrInvalidColumn, k)
	}
	if !confirm && l.RemovalHasData(side, inning, turn) {
		return fmt.Errorf("remove column %s: %w", k, ErrNeedsConfirmation)
	}
	last := l.lastTurn(side, inning)
	for _, e := range l.game.Entries(side) {
		delete(e.Results, k)
		delete(e.Details, k)
		for t := turn + 1; t <= last; t++ {
			from, to := ExtraCol(inning, t), ExtraCol(inning, t-1)
			if o, ok := e.Results[from]; ok {
				e.Results[to] = o
				delete(e.Results, from)
			}
			if d, ok := e.Details[from]; ok {
				e.Details[to] = d
				delete(e.Details, from)
			}
		}
	}
	return nil
}

// AddLineupSlot appends an empty slot to side's batting order and returns
// its index.
func (l *Ledger) AddLineupSlot(side Side) (int, error) {
	if err := checkSide(side); err != nil {
		return 0, err
	}
	lineup := l.game.Lineup(side)
	lineup = append(lineup, placeholderSlot(side, len(lineup)+1))
	l.game.setLineup(side, lineup)
	return len(lineup) - 1, nil
}

// SlotHasData reports whether the player at index has recorded data.
func (l *Ledger) SlotHasData(side Side, index int) bool {
	lineup := l.game.Lineup(side)
	if index < 0 || index >= len(lineup) {
		return false
	}
	e := l.game.Entry(side, lineup[index].Player.ID)
	return e != nil && e.HasAnyData()
}

// RemoveLineupSlot drops the last slot of side's batting order together with
// its ledger entry. The lineup never goes below nine slots, and a slot with
// recorded data is only removed when confirm is set.
func (l *Ledger) RemoveLineupSlot(side Side, confirm bool) error {
	if err := checkSide(side); err != nil {
		return err
	}
	lineup := l.game.Lineup(side)
	if len(lineup) <= MinLineupSlots {
		return ErrMinimumLineup
	}
	last := len(lineup) - 1
	if !confirm && l.SlotHasData(side, last) {
		return fmt.Errorf("remove slot %d: %w", last+1, ErrNeedsConfirmation)
	}
	id := lineup[last].Player.ID
	l.game.setLineup(side, lineup[:last])
	l.game.setEntries(side, slices.DeleteFunc(l.game.Entries(side), func(e *ScoreEntry) bool {
		return e.PlayerID == id
	}))
	return nil
}

func (l *Ledger) slot(side Side, index int) (*LineupSlot, error) {
	if err := checkSide(side); err != nil {
		return nil, err
	}
	lineup := l.game.Lineup(side)
	if index < 0 || index >= len(lineup) {
		return nil, fmt.Errorf("%w: %d", ErrSlotOutOfRange, index)
	}
	return &lineup[index], nil
}

// ReassignSlot puts p at index and moves the slot's ledger entry to p's id,
// keeping every recorded column. This is how pinch hitters and lineup
// corrections are entered. A player without an id gets a placeholder id.
func (l *Ledger) ReassignSlot(side Side, index int, p Player) error {
	s, err := l.slot(side, index)
	if err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = placeholderSlot(side, s.Order).Player.ID
	}
	oldID := s.Player.ID
	if p.ID == oldID {
		s.Player = p
		return nil
	}
	for i, other := range l.game.Lineup(side) {
		if i != index && other.Player.ID == p.ID {
			return fmt.Errorf("%w: %s bats at %d", ErrPlayerConflict, p.ID, other.Order)
		}
	}
	if stale := l.game.Entry(side, p.ID); stale != nil {
		if stale.HasAnyData() {
			return fmt.Errorf("%w: %s has recorded data", ErrPlayerConflict, p.ID)
		}
		l.game.setEntries(side, slices.DeleteFunc(l.game.Entries(side), func(e *ScoreEntry) bool {
			return e == stale
		}))
	}
	s.Player = p
	if e := l.game.Entry(side, oldID); e != nil {
		e.PlayerID = p.ID
	}
	return nil
}

// AssignPosition tags the slot at index with pos. A fielding position held
// by another slot is swapped: the prior holder takes this slot's old tag.
func (l *Ledger) AssignPosition(side Side, index int, pos Position) error {
	s, err := l.slot(side, index)
	if err != nil {
		return err
	}
	if _, err := ParsePosition(string(pos)); err != nil {
		return err
	}
	if pos.Fielding() {
		lineup := l.game.Lineup(side)
		for i := range lineup {
			if i != index && lineup[i].Position == pos {
				lineup[i].Position = s.Position
			}
		}
	}
	s.Position = pos
	return nil
}

// RecordError adds a defensive error to playerID and returns the new count,
// which wraps from 9 back to 0.
func (l *Ledger) RecordError(side Side, playerID string) (int, error) {
	if err := checkSide(side); err != nil {
		return 0, err
	}
	if playerID == "" {
		return 0, ErrMissingPlayer
	}
	e := l.entry(side, playerID, true)
	e.DefensiveErrors++
	if e.DefensiveErrors > 9 {
		e.DefensiveErrors = 0
	}
	return e.DefensiveErrors, nil
}

func (l *Ledger) detail(side Side, playerID string, k ColumnKey) (*ScoreEntry, ColumnKey, error) {
	if err := checkSide(side); err != nil {
		return nil, k, err
	}
	if playerID == "" {
		return nil, k, ErrMissingPlayer
	}
	k, err := checkColumn(k)
	if err != nil {
		return nil, k, err
	}
	return l.entry(side, playerID, true), k, nil
}

// ToggleBase flips one reached-base flag of a column. Flags are independent
// so any combination can be entered by hand.
func (l *Ledger) ToggleBase(side Side, playerID string, k ColumnKey, base int) (AppearanceDetail, error) {
	if base < 1 || base > 3 {
		return AppearanceDetail{}, fmt.Errorf("%w: %d", ErrInvalidBase, base)
	}
	e, k, err := l.detail(side, playerID, k)
	if err != nil {
		return AppearanceDetail{}, err
	}
	d := e.Details[k]
	switch base {
	case 1:
		d.ReachedFirst = !d.ReachedFirst
	case 2:
		d.ReachedSecond = !d.ReachedSecond
	case 3:
		d.ReachedThird = !d.ReachedThird
	}
	e.Details[k] = d
	return d, nil
}

// ToggleRun flips the scored flag of a column.
func (l *Ledger) ToggleRun(side Side, playerID string, k ColumnKey) (AppearanceDetail, error) {
	e, k, err := l.detail(side, playerID, k)
	if err != nil {
		return AppearanceDetail{}, err
	}
	d := e.Details[k]
	d.Scored = !d.Scored
	e.Details[k] = d
	return d, nil
}

// SetRBI records the runs batted in for a column.
func (l *Ledger) SetRBI(side Side, playerID string, k ColumnKey, rbi int) (AppearanceDetail, error) {
	if rbi < 0 {
		return AppearanceDetail{}, fmt.Errorf("rbi %d: %w", rbi, ErrNegativeValue)
	}
	e, k, err := l.detail(side, playerID, k)
	if err != nil {
		return AppearanceDetail{}, err
	}
	d := e.Details[k]
	d.RBI = rbi
	e.Details[k] = d
	return d, nil
}

// AdvanceRunner moves one runner to base (4 scores him), counting a stolen
// base when steal is set. It reports false, without error, when the player
// is not on base in that column.
func (l *Ledger) AdvanceRunner(side Side, playerID string, k ColumnKey, base int, steal bool) (bool, error) {
	if err := checkSide(side); err != nil {
		return false, err
	}
	k, err := checkColumn(k)
	if err != nil {
		return false, err
	}
	if base < 1 || base > homePlate {
		return false, fmt.Errorf("%w: %d", ErrInvalidBase, base)
	}
	e := l.entry(side, playerID, false)
	if e == nil {
		return false, nil
	}
	return advanceRunner(e, k, base, steal), nil
}

// ChangeSides moves the half-inning pointer: top to bottom of the same
// inning, bottom to the top of the next.
func (l *Ledger) ChangeSides() HalfInning {
	cur := l.game.Current
	if cur.Side == Home {
		cur = HalfInning{Side: Visitor, Inning: cur.Inning + 1}
	} else {
		cur.Side = Home
	}
	l.game.Current = cur
	return cur
}

// SetCurrent points the tracker at half.
func (l *Ledger) SetCurrent(half HalfInning) error {
	if err := checkSide(half.Side); err != nil {
		return err
	}
	if half.Inning < 1 {
		return fmt.Errorf("%w: inning %d", ErrInvalidColumn, half.Inning)
	}
	l.game.Current = half
	return nil
}

// AddPitcher appends a pitching line for p and returns its index.
func (l *Ledger) AddPitcher(side Side, p Player) (int, error) {
	if err := checkSide(side); err != nil {
		return 0, err
	}
	lines := append(l.game.PitcherLines(side), PitcherEntry{ID: p.ID, Name: p.Name})
	l.game.setPitcherLines(side, lines)
	return len(lines) - 1, nil
}

// PitcherUpdate carries the editable fields of a pitching line.
type PitcherUpdate struct {
	Innings    string   `json:"innings"`
	EarnedRuns int      `json:"er"`
	Decision   Decision `json:"result"`
}

// UpdatePitcher replaces the editable fields of the pitching line at index.
// The innings text is stored as entered and parsed leniently by the
// aggregator.
func (l *Ledger) UpdatePitcher(side Side, index int, u PitcherUpdate) error {
	if err := checkSide(side); err != nil {
		return err
	}
	lines := l.game.PitcherLines(side)
	if index < 0 || index >= len(lines) {
		return fmt.Errorf("%w: pitcher %d", ErrSlotOutOfRange, index)
	}
	if u.EarnedRuns < 0 {
		return fmt.Errorf("earned runs %d: %w", u.EarnedRuns, ErrNegativeValue)
	}
	d, err := ParseDecision(string(u.Decision))
	if err != nil {
		return err
	}
	lines[index].Innings = u.Innings
	lines[index].EarnedRuns = u.EarnedRuns
	lines[index].Decision = d
	return nil
}

// RemovePitcher deletes the pitching line at index.
func (l *Ledger) RemovePitcher(side Side, index int) error {
	if err := checkSide(side); err != nil {
		return err
	}
	lines := l.game.PitcherLines(side)
	if index < 0 || index >= len(lines) {
		return fmt.Errorf("%w: pitcher %d", ErrSlotOutOfRange, index)
	}
	l.game.setPitcherLines(side, slices.Delete(lines, index, index+1))
	return nil
}

// GameInfo carries the descriptive fields of a game.
type GameInfo struct {
	Date      string   `json:"date"`
	StartTime string   `json:"startTime"`
	EndTime   string   `json:"endTime"`
	Location  string   `json:"location"`
	Umpires   *Umpires `json:"umpires,omitempty"`
}

// UpdateInfo replaces the descriptive fields of the game.
func (l *Ledger) UpdateInfo(info GameInfo) {
	l.game.Date = info.Date
	l.game.StartTime = info.StartTime
	l.game.EndTime = info.EndTime
	l.game.Location = info.Location
	l.game.Umpires = info.Umpires
}

// Columns returns the columns of side's scorebook grid. See Columns.
func (l *Ledger) Columns(side Side) []ColumnKey {
	return Columns(l.game, side)
}
