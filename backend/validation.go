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
	"fmt"
	"regexp"

	"github.com/ttbt-io/scorebook/backend/scoring"
)

// uuidRegex is a regex for standard UUIDs (8-4-4-4-12 hex digits)
var uuidRegex = regexp.MustCompile(`^[a-fA-F0-9]{8}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{12}$`)

// isValidUUID checks if the string is a valid UUID.
func isValidUUID(id string) bool {
	return uuidRegex.MatchString(id)
}

// ErrMalformed is returned for a request or document that is structurally
// broken: bad JSON, missing fields, oversized strings.
var ErrMalformed = errors.New("malformed request")

func malformed(format string, a ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, a...))
}

// BaseAction is one scoring action sent by a client.
type BaseAction struct {
	ID        string          `json:"id,omitempty"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

// Action payloads.
type (
	sidePayload struct {
		Side scoring.Side `json:"side"`
	}
	cellPayload struct {
		Side     scoring.Side      `json:"side"`
		PlayerID string            `json:"playerId"`
		Column   scoring.ColumnKey `json:"column"`
	}
	recordResultPayload struct {
		cellPayload
		Result scoring.Outcome `json:"result"`
		IsOut  bool            `json:"isOut"`
	}
	addColumnPayload struct {
		Side   scoring.Side `json:"side"`
		Inning int          `json:"inning"`
	}
	removeColumnPayload struct {
		Side    scoring.Side `json:"side"`
		Inning  int          `json:"inning"`
		Turn    int          `json:"turn"`
		Confirm bool         `json:"confirm"`
	}
	removeSlotPayload struct {
		Side    scoring.Side `json:"side"`
		Confirm bool         `json:"confirm"`
	}
	reassignSlotPayload struct {
		Side   scoring.Side   `json:"side"`
		Index  int            `json:"index"`
		Player scoring.Player `json:"player"`
	}
	setPositionPayload struct {
		Side     scoring.Side `json:"side"`
		Index    int          `json:"index"`
		Position string       `json:"position"`
	}
	playerPayload struct {
		Side     scoring.Side `json:"side"`
		PlayerID string       `json:"playerId"`
	}
	basePayload struct {
		cellPayload
		Base  int  `json:"base"`
		Steal bool `json:"steal"`
	}
	rbiPayload struct {
		cellPayload
		RBI int `json:"rbi"`
	}
	addPitcherPayload struct {
		Side   scoring.Side   `json:"side"`
		Player scoring.Player `json:"player"`
	}
	updatePitcherPayload struct {
		Side  scoring.Side `json:"side"`
		Index int          `json:"index"`
		scoring.PitcherUpdate
	}
	indexPayload struct {
		Side  scoring.Side `json:"side"`
		Index int          `json:"index"`
	}
)

// ValidateAction checks the envelope and payload shape of an action.
// Semantic checks (unknown players, missing columns) happen when the
// action is applied.
func ValidateAction(a BaseAction) error {
	if a.ID != "" {
		if err := validateStringLen(a.ID, 64, "action id"); err != nil {
			return err
		}
	}
	if a.Type == "" {
		return malformed("missing action type")
	}
	return validateActionPayload(a.Type, a.Payload)
}

// ValidateActions validates a list of actions.
func ValidateActions(actions []BaseAction) error {
	if len(actions) > maxActionBatch {
		return malformed("batch size too large (max %d)", maxActionBatch)
	}
	for i, a := range actions {
		if err := ValidateAction(a); err != nil {
			return fmt.Errorf("invalid action at index %d: %w", i, err)
		}
	}
	return nil
}

func decodePayload(payload json.RawMessage, v any) error {
	if len(payload) == 0 {
		return malformed("missing payload")
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// validateStringLen checks if the string length is within the limit.
func validateStringLen(s string, max int, name string) error {
	if len(s) > max {
		return malformed("%s too long (max %d chars)", name, max)
	}
	return nil
}

func validatePlayer(p scoring.Player) error {
	if err := validateStringLen(p.ID, 64, "player id"); err != nil {
		return err
	}
	if err := validateStringLen(p.Name, maxNameLen, "player name"); err != nil {
		return err
	}
	return validateStringLen(p.Number, 10, "jersey number")
}

func validateCell(c cellPayload) error {
	if !c.Side.Valid() {
		return malformed("unknown side %q", c.Side)
	}
	if c.PlayerID == "" {
		return malformed("missing playerId")
	}
	if !c.Column.Valid() {
		return malformed("missing or invalid column")
	}
	return nil
}

func validateSide(s scoring.Side) error {
	if !s.Valid() {
		return malformed("unknown side %q", s)
	}
	return nil
}

// validateActionPayload validates the payload based on the action type.
func validateActionPayload(actionType string, payload json.RawMessage) error {
	switch actionType {
	case ActionRecordResult:
		var p recordResultPayload
		if err := decodePayload(payload, &p); err != nil {
			return err
		}
		return validateCell(p.cellPayload)
	case ActionToggleRun:
		var p cellPayload
		if err := decodePayload(payload, &p); err != nil {
			return err
		}
		return validateCell(p)
	case ActionToggleBase, ActionAdvanceRunner:
		var p basePayload
		if err := decodePayload(payload, &p); err != nil {
			return err
		}
		return validateCell(p.cellPayload)
	case ActionSetRBI:
		var p rbiPayload
		if err := decodePayload(payload, &p); err != nil {
			return err
		}
		return validateCell(p.cellPayload)
	case ActionAddColumn:
		var p addColumnPayload
		if err := decodePayload(payload, &p); err != nil {
			return err
		}
		if p.Inning < 1 {
			return malformed("invalid inning: %d", p.Inning)
		}
		return validateSide(p.Side)
	case ActionRemoveColumn:
		var p removeColumnPayload
		if err := decodePayload(payload, &p); err != nil {
			return err
		}
		if p.Inning < 1 || p.Turn < 1 {
			return malformed("invalid column %d-%d", p.Inning, p.Turn)
		}
		return validateSide(p.Side)
	case ActionAddSlot, ActionRemoveSlot:
		var p removeSlotPayload
		if err := decodePayload(payload, &p); err != nil {
			return err
		}
		return validateSide(p.Side)
	case ActionReassignSlot:
		var p reassignSlotPayload
		if err := decodePayload(payload, &p); err != nil {
			return err
		}
		if err := validatePlayer(p.Player); err != nil {
			return err
		}
		return validateSide(p.Side)
	case ActionSetPosition:
		var p setPositionPayload
		if err := decodePayload(payload, &p); err != nil {
			return err
		}
		return validateSide(p.Side)
	case ActionRecordError:
		var p playerPayload
		if err := decodePayload(payload, &p); err != nil {
			return err
		}
		if p.PlayerID == "" {
			return malformed("missing playerId")
		}
		return validateSide(p.Side)
	case ActionChangeSides:
		return nil
	case ActionSetCurrent:
		var p scoring.HalfInning
		if err := decodePayload(payload, &p); err != nil {
			return err
		}
		if p.Inning < 1 {
			return malformed("invalid inning: %d", p.Inning)
		}
		return validateSide(p.Side)
	case ActionAddPitcher:
		var p addPitcherPayload
		if err := decodePayload(payload, &p); err != nil {
			return err
		}
		if err := validatePlayer(p.Player); err != nil {
			return err
		}
		return validateSide(p.Side)
	case ActionUpdatePitcher:
		var p updatePitcherPayload
		if err := decodePayload(payload, &p); err != nil {
			return err
		}
		if err := validateStringLen(p.Innings, 10, "innings"); err != nil {
			return err
		}
		return validateSide(p.Side)
	case ActionRemovePitcher:
		var p indexPayload
		if err := decodePayload(payload, &p); err != nil {
			return err
		}
		return validateSide(p.Side)
	case ActionMetadataUpdate:
		var p scoring.GameInfo
		if err := decodePayload(payload, &p); err != nil {
			return err
		}
		return validateGameInfo(p)
	default:
		return malformed("unknown action type: %s", actionType)
	}
}

func validateGameInfo(info scoring.GameInfo) error {
	if info.Date != "" {
		if _, ok := scoring.ParseGameDate(info.Date); !ok {
			return malformed("invalid date format: %q", info.Date)
		}
	}
	fields := map[string]string{
		"location":  info.Location,
		"startTime": info.StartTime,
		"endTime":   info.EndTime,
	}
	if u := info.Umpires; u != nil {
		fields["umpire"] = u.Main
		fields["base umpire 1"] = u.Base1
		fields["base umpire 2"] = u.Base2
		fields["base umpire 3"] = u.Base3
	}
	for name, v := range fields {
		if err := validateStringLen(v, maxNameLen, name); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAction applies a validated action to the ledger and returns the
// operation's result for the caller.
func ApplyAction(l *scoring.Ledger, a BaseAction) (any, error) {
	switch a.Type {
	case ActionRecordResult:
		var p recordResultPayload
		if err := decodePayload(a.Payload, &p); err != nil {
			return nil, err
		}
		return l.RecordOutcome(p.Side, p.PlayerID, p.Column, p.Result, p.IsOut)
	case ActionAddColumn:
		var p addColumnPayload
		if err := decodePayload(a.Payload, &p); err != nil {
			return nil, err
		}
		return l.AddExtraColumn(p.Side, p.Inning)
	case ActionRemoveColumn:
		var p removeColumnPayload
		if err := decodePayload(a.Payload, &p); err != nil {
			return nil, err
		}
		return nil, l.RemoveColumn(p.Side, p.Inning, p.Turn, p.Confirm)
	case ActionAddSlot:
		var p sidePayload
		if err := decodePayload(a.Payload, &p); err != nil {
			return nil, err
		}
		return l.AddLineupSlot(p.Side)
	case ActionRemoveSlot:
		var p removeSlotPayload
		if err := decodePayload(a.Payload, &p); err != nil {
			return nil, err
		}
		return nil, l.RemoveLineupSlot(p.Side, p.Confirm)
	case ActionReassignSlot:
		var p reassignSlotPayload
		if err := decodePayload(a.Payload, &p); err != nil {
			return nil, err
		}
		return nil, l.ReassignSlot(p.Side, p.Index, p.Player)
	case ActionSetPosition:
		var p setPositionPayload
		if err := decodePayload(a.Payload, &p); err != nil {
			return nil, err
		}
		pos, err := scoring.ParsePosition(p.Position)
		if err != nil {
			return nil, err
		}
		return nil, l.AssignPosition(p.Side, p.Index, pos)
	case ActionRecordError:
		var p playerPayload
		if err := decodePayload(a.Payload, &p); err != nil {
			return nil, err
		}
		return l.RecordError(p.Side, p.PlayerID)
	case ActionToggleBase:
		var p basePayload
		if err := decodePayload(a.Payload, &p); err != nil {
			return nil, err
		}
		return l.ToggleBase(p.Side, p.PlayerID, p.Column, p.Base)
	case ActionToggleRun:
		var p cellPayload
		if err := decodePayload(a.Payload, &p); err != nil {
			return nil, err
		}
		return l.ToggleRun(p.Side, p.PlayerID, p.Column)
	case ActionSetRBI:
		var p rbiPayload
		if err := decodePayload(a.Payload, &p); err != nil {
			return nil, err
		}
		return l.SetRBI(p.Side, p.PlayerID, p.Column, p.RBI)
	case ActionAdvanceRunner:
		var p basePayload
		if err := decodePayload(a.Payload, &p); err != nil {
			return nil, err
		}
		return l.AdvanceRunner(p.Side, p.PlayerID, p.Column, p.Base, p.Steal)
	case ActionChangeSides:
		return l.ChangeSides(), nil
	case ActionSetCurrent:
		var p scoring.HalfInning
		if err := decodePayload(a.Payload, &p); err != nil {
			return nil, err
		}
		return p, l.SetCurrent(p)
	case ActionAddPitcher:
		var p addPitcherPayload
		if err := decodePayload(a.Payload, &p); err != nil {
			return nil, err
		}
		return l.AddPitcher(p.Side, p.Player)
	case ActionUpdatePitcher:
		var p updatePitcherPayload
		if err := decodePayload(a.Payload, &p); err != nil {
			return nil, err
		}
		return nil, l.UpdatePitcher(p.Side, p.Index, p.PitcherUpdate)
	case ActionRemovePitcher:
		var p indexPayload
		if err := decodePayload(a.Payload, &p); err != nil {
			return nil, err
		}
		return nil, l.RemovePitcher(p.Side, p.Index)
	case ActionMetadataUpdate:
		var p scoring.GameInfo
		if err := decodePayload(a.Payload, &p); err != nil {
			return nil, err
		}
		l.UpdateInfo(p)
		return nil, nil
	}
	return nil, malformed("unknown action type: %s", a.Type)
}

// ValidateTeam checks a team document before it is stored.
func ValidateTeam(t *Team) error {
	if t.ID == "" {
		return malformed("team without id")
	}
	if err := validateStringLen(t.Name, maxNameLen, "team name"); err != nil {
		return err
	}
	if !t.Deleted() && t.Name == "" {
		return malformed("team %s has no name", t.ID)
	}
	seen := make(map[string]bool)
	for _, p := range t.Players {
		if err := validatePlayer(p); err != nil {
			return err
		}
		if p.ID == "" {
			return malformed("team %s: player without id", t.ID)
		}
		if seen[p.ID] {
			return malformed("team %s: duplicate player %s", t.ID, p.ID)
		}
		seen[p.ID] = true
	}
	return nil
}

// ValidateGame checks a game document before it is stored. Outcome codes
// and column keys are already checked while decoding.
func ValidateGame(g *Game) error {
	if g.ID == "" {
		return malformed("game without id")
	}
	if g.SchemaVersion > CurrentSchemaVersion {
		return malformed("game %s: unsupported schema version %d", g.ID, g.SchemaVersion)
	}
	if g.DeletedAt != 0 {
		return nil
	}
	if err := validateGameInfo(scoring.GameInfo{Date: g.Date, StartTime: g.StartTime, EndTime: g.EndTime, Location: g.Location, Umpires: g.Umpires}); err != nil {
		return fmt.Errorf("game %s: %w", g.ID, err)
	}
	for _, side := range []scoring.Side{scoring.Visitor, scoring.Home} {
		lineup := g.Lineup(side)
		if len(lineup) < scoring.MinLineupSlots {
			return malformed("game %s: %s lineup has %d slots", g.ID, side, len(lineup))
		}
		ids := make(map[string]bool)
		for _, s := range lineup {
			if s.Player.ID == "" || ids[s.Player.ID] {
				return malformed("game %s: %s lineup has a missing or repeated player", g.ID, side)
			}
			ids[s.Player.ID] = true
			if _, err := scoring.ParsePosition(string(s.Position)); err != nil {
				return fmt.Errorf("game %s: %w", g.ID, err)
			}
		}
		entries := make(map[string]bool)
		for _, e := range g.Entries(side) {
			if e == nil || e.PlayerID == "" || entries[e.PlayerID] {
				return malformed("game %s: %s ledger has a missing or repeated player", g.ID, side)
			}
			entries[e.PlayerID] = true
			if e.DefensiveErrors < 0 || e.DefensiveErrors > 9 {
				return malformed("game %s: error count %d out of range", g.ID, e.DefensiveErrors)
			}
		}
		for _, p := range g.PitcherLines(side) {
			if _, err := scoring.ParseDecision(string(p.Decision)); err != nil {
				return fmt.Errorf("game %s: %w", g.ID, err)
			}
			if p.EarnedRuns < 0 {
				return malformed("game %s: negative earned runs", g.ID)
			}
		}
	}
	if !g.Current.Side.Valid() || g.Current.Inning < 1 {
		return malformed("game %s: invalid current half-inning", g.ID)
	}
	return nil
}
