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
	"strings"
	"testing"

	"github.com/ttbt-io/scorebook/backend/scoring"
)

func TestValidateAction(t *testing.T) {
	tests := []struct {
		name    string
		action  string
		wantErr bool
	}{
		{
			name:   "Valid RECORD_RESULT",
			action: `{"id":"a1","type":"RECORD_RESULT","payload":{"side":"visitor","playerId":"v1","column":"1","result":"1B"}}`,
		},
		{
			name:   "RECORD_RESULT clearing a cell",
			action: `{"type":"RECORD_RESULT","payload":{"side":"home","playerId":"h1","column":"2-2","result":""}}`,
		},
		{
			name:    "RECORD_RESULT with unknown outcome",
			action:  `{"type":"RECORD_RESULT","payload":{"side":"visitor","playerId":"v1","column":"1","result":"ZZ"}}`,
			wantErr: true,
		},
		{
			name:    "RECORD_RESULT without player",
			action:  `{"type":"RECORD_RESULT","payload":{"side":"visitor","column":"1","result":"K"}}`,
			wantErr: true,
		},
		{
			name:    "RECORD_RESULT with bad column",
			action:  `{"type":"RECORD_RESULT","payload":{"side":"visitor","playerId":"v1","column":"0","result":"K"}}`,
			wantErr: true,
		},
		{
			name:    "RECORD_RESULT with unknown side",
			action:  `{"type":"RECORD_RESULT","payload":{"side":"away","playerId":"v1","column":"1","result":"K"}}`,
			wantErr: true,
		},
		{
			name:    "Missing payload",
			action:  `{"type":"TOGGLE_RUN"}`,
			wantErr: true,
		},
		{
			name:    "Missing type",
			action:  `{"payload":{}}`,
			wantErr: true,
		},
		{
			name:    "Unknown type",
			action:  `{"type":"SUBSTITUTION","payload":{}}`,
			wantErr: true,
		},
		{
			name:   "Valid ADD_COLUMN",
			action: `{"type":"ADD_COLUMN","payload":{"side":"home","inning":3}}`,
		},
		{
			name:    "ADD_COLUMN with inning zero",
			action:  `{"type":"ADD_COLUMN","payload":{"side":"home","inning":0}}`,
			wantErr: true,
		},
		{
			name:    "REMOVE_COLUMN without turn",
			action:  `{"type":"REMOVE_COLUMN","payload":{"side":"home","inning":3}}`,
			wantErr: true,
		},
		{
			name:   "Valid REASSIGN_SLOT",
			action: `{"type":"REASSIGN_SLOT","payload":{"side":"visitor","index":0,"player":{"id":"p","name":"Pat","number":"7"}}}`,
		},
		{
			name:    "REASSIGN_SLOT with long name",
			action:  `{"type":"REASSIGN_SLOT","payload":{"side":"visitor","index":0,"player":{"id":"p","name":"` + strings.Repeat("x", maxNameLen+1) + `"}}}`,
			wantErr: true,
		},
		{
			name:   "Valid TOGGLE_BASE",
			action: `{"type":"TOGGLE_BASE","payload":{"side":"visitor","playerId":"v1","column":"1","base":2}}`,
		},
		{
			name:   "CHANGE_SIDES needs no payload",
			action: `{"type":"CHANGE_SIDES"}`,
		},
		{
			name:    "SET_CURRENT with inning zero",
			action:  `{"type":"SET_CURRENT","payload":{"side":"home","inning":0}}`,
			wantErr: true,
		},
		{
			name:    "UPDATE_PITCHER with long innings",
			action:  `{"type":"UPDATE_PITCHER","payload":{"side":"home","index":0,"innings":"12345678901"}}`,
			wantErr: true,
		},
		{
			name:   "Valid GAME_METADATA_UPDATE",
			action: `{"type":"GAME_METADATA_UPDATE","payload":{"date":"2025-12-18","location":"Field 2"}}`,
		},
		{
			name:    "GAME_METADATA_UPDATE with bad date",
			action:  `{"type":"GAME_METADATA_UPDATE","payload":{"date":"next tuesday"}}`,
			wantErr: true,
		},
		{
			name:    "Action id too long",
			action:  `{"id":"` + strings.Repeat("a", 65) + `","type":"CHANGE_SIDES"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a BaseAction
			if err := json.Unmarshal([]byte(tt.action), &a); err != nil {
				t.Fatalf("Failed to unmarshal action: %v", err)
			}
			err := ValidateAction(a)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAction() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrMalformed) && !errors.Is(err, scoring.ErrUnknownOutcome) {
				t.Errorf("ValidateAction() error = %v, want ErrMalformed", err)
			}
		})
	}
}

func TestValidateActionsBatchLimit(t *testing.T) {
	batch := make([]BaseAction, maxActionBatch+1)
	for i := range batch {
		batch[i] = BaseAction{Type: ActionChangeSides}
	}
	if err := ValidateActions(batch); !errors.Is(err, ErrMalformed) {
		t.Errorf("ValidateActions(oversized) = %v", err)
	}
	batch = batch[:2]
	batch[1] = BaseAction{Type: "NOPE"}
	err := ValidateActions(batch)
	if err == nil || !strings.Contains(err.Error(), "index 1") {
		t.Errorf("ValidateActions = %v, want error at index 1", err)
	}
}

func TestValidateTeam(t *testing.T) {
	valid := newTestRoster("t1", "Tigers", "t")
	if err := ValidateTeam(valid); err != nil {
		t.Fatalf("ValidateTeam(valid) = %v", err)
	}

	tests := map[string]func(*Team){
		"no id":       func(t *Team) { t.ID = "" },
		"no name":     func(t *Team) { t.Name = "" },
		"long name":   func(t *Team) { t.Name = strings.Repeat("n", maxNameLen+1) },
		"player id":   func(t *Team) { t.Players[0].ID = "" },
		"duplicate":   func(t *Team) { t.Players[1].ID = t.Players[0].ID },
		"long jersey": func(t *Team) { t.Players[2].Number = "12345678901" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			team := newTestRoster("t1", "Tigers", "t")
			mutate(team)
			if err := ValidateTeam(team); !errors.Is(err, ErrMalformed) {
				t.Errorf("ValidateTeam = %v, want ErrMalformed", err)
			}
		})
	}

	deleted := &Team{ID: "t2", Status: StatusDeleted}
	if err := ValidateTeam(deleted); err != nil {
		t.Errorf("ValidateTeam(tombstone) = %v", err)
	}
}

func TestValidateGame(t *testing.T) {
	if err := ValidateGame(newTestGame(t, "g1")); err != nil {
		t.Fatalf("ValidateGame(valid) = %v", err)
	}

	tests := map[string]func(*Game){
		"no id":          func(g *Game) { g.ID = "" },
		"future schema":  func(g *Game) { g.SchemaVersion = CurrentSchemaVersion + 1 },
		"bad date":       func(g *Game) { g.Date = "someday" },
		"short lineup":   func(g *Game) { g.VisitorLineup = g.VisitorLineup[:5] },
		"repeated slot":  func(g *Game) { g.HomeLineup[1].Player.ID = g.HomeLineup[0].Player.ID },
		"bad current":    func(g *Game) { g.Current.Inning = 0 },
		"error overflow": func(g *Game) { g.Scores.Visitor[0].DefensiveErrors = 10 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			g := newTestGame(t, "g1")
			mutate(g)
			if err := ValidateGame(g); !errors.Is(err, ErrMalformed) {
				t.Errorf("ValidateGame = %v, want ErrMalformed", err)
			}
		})
	}

	tomb := &Game{ID: "g2", DeletedAt: 1}
	if err := ValidateGame(tomb); err != nil {
		t.Errorf("ValidateGame(tombstone) = %v", err)
	}
}
