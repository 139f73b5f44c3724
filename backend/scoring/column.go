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
)

// ColumnKey identifies one plate appearance column of the scorebook: a base
// inning and a turn. Turn 1 is the regular column; turns 2 and up are added
// when the lineup bats around within the same half-inning.
type ColumnKey struct {
	Inning int
	Turn   int
}

// Col returns the regular column of inning.
func Col(inning int) ColumnKey {
	return ColumnKey{Inning: inning, Turn: 1}
}

// ExtraCol returns the column for the given turn of inning.
func ExtraCol(inning, turn int) ColumnKey {
	return ColumnKey{Inning: inning, Turn: turn}
}

func (k ColumnKey) turn() int {
	if k.Turn < 1 {
		return 1
	}
	return k.Turn
}

// Normalize maps the zero turn to turn 1.
func (k ColumnKey) Normalize() ColumnKey {
	return ColumnKey{Inning: k.Inning, Turn: k.turn()}
}

// Valid reports whether k names a column that can exist.
func (k ColumnKey) Valid() bool {
	return k.Inning >= 1 && k.Turn >= 0
}

// IsBase reports whether k is the regular column of its inning.
func (k ColumnKey) IsBase() bool {
	return k.turn() == 1
}

// String returns "3" for the regular column of the 3rd inning and "3-2" for
// its second turn.
func (k ColumnKey) String() string {
	if k.IsBase() {
		return strconv.Itoa(k.Inning)
	}
	return fmt.Sprintf("%d-%d", k.Inning, k.Turn)
}

// ParseColumnKey parses the output of ColumnKey.String.
func ParseColumnKey(s string) (ColumnKey, error) {
	inning, turn, hasTurn := strings.Cut(strings.TrimSpace(s), "-")
	i, err := strconv.Atoi(inning)
	if err != nil || i < 1 {
		return ColumnKey{}, fmt.Errorf("%w: %q", ErrInvalidColumn, s)
	}
	k := Col(i)
	if hasTurn {
		t, err := strconv.Atoi(turn)
		if err != nil || t < 1 {
			return ColumnKey{}, fmt.Errorf("%w: %q", ErrInvalidColumn, s)
		}
		k.Turn = t
	}
	return k, nil
}

// MarshalText implements encoding.TextMarshaler so keys can be used in JSON maps.
func (k ColumnKey) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: inning %d turn %d", ErrInvalidColumn, k.Inning, k.Turn)
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ColumnKey) UnmarshalText(b []byte) error {
	v, err := ParseColumnKey(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// CompareColumns orders columns by inning, then turn.
func CompareColumns(a, b ColumnKey) int {
	if c := cmp.Compare(a.Inning, b.Inning); c != 0 {
		return c
	}
	return cmp.Compare(a.turn(), b.turn())
}

// SortedColumns returns the keys of m in display order.
func SortedColumns[V any](m map[ColumnKey]V) []ColumnKey {
	keys := make([]ColumnKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, CompareColumns)
	return keys
}
