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

// Schema Versions
const (
	SchemaVersionV1      = 1
	CurrentSchemaVersion = SchemaVersionV1

	// BackupVersion is written into every backup document.
	BackupVersion = "1.0"
)

// Record status
const (
	StatusActive  = ""
	StatusDeleted = "deleted"
)

// Action types accepted by the game hub.
const (
	ActionRecordResult   = "RECORD_RESULT"
	ActionAddColumn      = "ADD_COLUMN"
	ActionRemoveColumn   = "REMOVE_COLUMN"
	ActionAddSlot        = "ADD_SLOT"
	ActionRemoveSlot     = "REMOVE_SLOT"
	ActionReassignSlot   = "REASSIGN_SLOT"
	ActionSetPosition    = "SET_POSITION"
	ActionRecordError    = "RECORD_ERROR"
	ActionToggleBase     = "TOGGLE_BASE"
	ActionToggleRun      = "TOGGLE_RUN"
	ActionSetRBI         = "SET_RBI"
	ActionAdvanceRunner  = "ADVANCE_RUNNER"
	ActionChangeSides    = "CHANGE_SIDES"
	ActionSetCurrent     = "SET_CURRENT"
	ActionAddPitcher     = "ADD_PITCHER"
	ActionUpdatePitcher  = "UPDATE_PITCHER"
	ActionRemovePitcher  = "REMOVE_PITCHER"
	ActionMetadataUpdate = "GAME_METADATA_UPDATE"
)

// Limits
const (
	maxNameLen     = 100
	maxActionBatch = 100
	maxBodyBytes   = 1 << 20
	maxRestoreSize = 64 << 20
)
