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

// ThreeOuts is raised when a recorded result completes a half-inning.
type ThreeOuts struct {
	Half     HalfInning `json:"half"`
	PlayerID string     `json:"playerId"`
	Column   ColumnKey  `json:"column"`
}

// Outs counts the outs made by half.Side in every column of half.Inning,
// extra turns included. It is computed from the ledger on every call.
func Outs(g *Game, half HalfInning) int {
	return outsExcluding(g, half, "", ColumnKey{})
}

// outsExcluding is Outs without the cell of playerID in column skip.
func outsExcluding(g *Game, half HalfInning, playerID string, skip ColumnKey) int {
	n := 0
	for _, e := range g.Entries(half.Side) {
		for k, o := range e.Results {
			if k.Inning != half.Inning {
				continue
			}
			if e.PlayerID == playerID && k == skip {
				continue
			}
			if MustClassify(o).IsOut {
				n++
			}
		}
	}
	return n
}

// CurrentOuts returns the out count of the half-inning being scored.
func (l *Ledger) CurrentOuts() int {
	return Outs(l.game, l.game.Current)
}

// OutTracker raises the three-outs notice. It never changes sides; moving
// the pointer is left to the scorer through ChangeSides.
type OutTracker struct {
	Notify func(ThreeOuts)
}

// observe decides whether the result just written in column k completes the
// current half-inning. outsBefore excludes the overwritten cell, so
// replacing an out with another out is not counted twice.
func (t *OutTracker) observe(current, half HalfInning, playerID string, k ColumnKey, class Classification, outsBefore int) bool {
	if !class.IsOut || half != current || outsBefore != 2 {
		return false
	}
	if t.Notify != nil {
		t.Notify(ThreeOuts{Half: half, PlayerID: playerID, Column: k})
	}
	return true
}
