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

// Home plate in base numbering. Reaching it means the runner scored.
const homePlate = 4

// setBase marks every base up to and including base, capping at a run.
// Flags are only ever set here; clearing one is a manual toggle.
func setBase(d *AppearanceDetail, base int) {
	if base >= 1 {
		d.ReachedFirst = true
	}
	if base >= 2 {
		d.ReachedSecond = true
	}
	if base >= 3 {
		d.ReachedThird = true
	}
	if base >= homePlate {
		d.Scored = true
	}
}

// runnerBase returns the base a runner occupies in column k, or 0 when the
// entry has no runner there: nothing recorded, an out, or already home.
func runnerBase(e *ScoreEntry, k ColumnKey) int {
	o := e.Results[k]
	if o.IsEmpty() {
		return 0
	}
	d := e.Details[k]
	if MustClassify(o).IsOut || d.Scored {
		return 0
	}
	return d.Base()
}

// batterReached applies the batter's own base flags for a result that did
// not retire him.
func batterReached(d *AppearanceDetail, o Outcome) {
	d.ReachedFirst = true
	switch o {
	case OutcomeDouble:
		setBase(d, 2)
	case OutcomeTriple:
		setBase(d, 3)
	case OutcomeHomeRun:
		setBase(d, homePlate)
	}
}

// advanceRunners moves every runner of entries in column k, other than the
// batter, by the bases the batter's result forces. A walk only pushes the
// runner standing on first; runners on second or third are left for the
// scorer to correct.
func advanceRunners(entries []*ScoreEntry, batterID string, k ColumnKey, o Outcome) []string {
	bases := o.Bases()
	if bases == 0 {
		return nil
	}
	walk := MustClassify(o).IsWalk

	var moved []string
	for _, e := range entries {
		if e.PlayerID == batterID {
			continue
		}
		base := runnerBase(e, k)
		if base == 0 {
			continue
		}
		if walk && base != 1 {
			continue
		}
		d := e.Details[k]
		setBase(&d, base+bases)
		e.Details[k] = d
		moved = append(moved, e.PlayerID)
	}
	return moved
}

// advanceRunner sends a single runner to base. It is a no-op when the
// runner is not on base in column k.
func advanceRunner(e *ScoreEntry, k ColumnKey, base int, steal bool) bool {
	if runnerBase(e, k) == 0 {
		return false
	}
	d := e.Details[k]
	setBase(&d, base)
	if steal {
		d.StolenBases++
	}
	e.Details[k] = d
	return true
}
