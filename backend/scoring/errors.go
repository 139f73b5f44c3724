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

import "errors"

var (
	// ErrUnknownOutcome is returned for a result code outside the vocabulary.
	ErrUnknownOutcome = errors.New("unknown outcome code")
	// ErrUnknownSide is returned for a team side other than visitor or home.
	ErrUnknownSide = errors.New("unknown team side")
	// ErrInvalidColumn is returned for a malformed or out of range column key.
	ErrInvalidColumn = errors.New("invalid column")
	// ErrBaseColumn is returned when removing the first column of an inning.
	ErrBaseColumn = errors.New("the base column of an inning cannot be removed")
	// ErrNeedsConfirmation is returned when a removal would discard recorded data.
	ErrNeedsConfirmation = errors.New("recorded data would be lost, confirmation required")
	// ErrMinimumLineup is returned when removing a slot from a nine-man lineup.
	ErrMinimumLineup = errors.New("lineup cannot have fewer than 9 slots")
	// ErrSlotOutOfRange is returned for a lineup or pitcher index that does not exist.
	ErrSlotOutOfRange = errors.New("slot index out of range")
	// ErrInvalidPosition is returned for a defensive position tag outside 1-9 and DH.
	ErrInvalidPosition = errors.New("invalid defensive position")
	// ErrInvalidBase is returned for a base number other than 1, 2, 3 or home (4).
	ErrInvalidBase = errors.New("invalid base")
	// ErrNegativeValue is returned for a negative count.
	ErrNegativeValue = errors.New("value must not be negative")
	// ErrInvalidDecision is returned for a pitching decision other than win, lose or save.
	ErrInvalidDecision = errors.New("invalid pitching decision")
	// ErrPlayerConflict is returned when a player is already placed in the
	// lineup or already owns ledger data in the game.
	ErrPlayerConflict = errors.New("player already in lineup")
	// ErrMissingPlayer is returned when an operation names no player.
	ErrMissingPlayer = errors.New("missing player id")
	// ErrUnknownSortKey is returned for a stat column that cannot be sorted on.
	ErrUnknownSortKey = errors.New("unknown sort key")
)
