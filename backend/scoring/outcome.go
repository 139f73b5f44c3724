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

// Package scoring implements the scorebook core: the plate appearance
// vocabulary, the per-game ledger with its baserunner advancement rules,
// the half-inning out tracker and the single-game and season stat reducers.
package scoring

import (
	"encoding/json"
	"fmt"
)

// Outcome is the result recorded for one plate appearance.
type Outcome string

// Plate appearance outcomes.
const (
	OutcomeNone Outcome = ""

	// Hits
	OutcomeSingle  Outcome = "1B"
	OutcomeDouble  Outcome = "2B"
	OutcomeTriple  Outcome = "3B"
	OutcomeHomeRun Outcome = "HR"

	// Walks
	OutcomeWalk            Outcome = "BB"
	OutcomeHitByPitch      Outcome = "HBP"
	OutcomeIntentionalWalk Outcome = "IBB"

	// Strikeouts
	OutcomeStrikeout        Outcome = "K"
	OutcomeStrikeoutLooking Outcome = "KL"

	// Ground outs by fielding position
	OutcomeGroundPitcher   Outcome = "G1"
	OutcomeGroundCatcher   Outcome = "G2"
	OutcomeGroundFirst     Outcome = "G3"
	OutcomeGroundSecond    Outcome = "G4"
	OutcomeGroundThird     Outcome = "G5"
	OutcomeGroundShortstop Outcome = "G6"

	// Fly outs by fielding position
	OutcomeFlyPitcher   Outcome = "F1"
	OutcomeFlyCatcher   Outcome = "F2"
	OutcomeFlyFirst     Outcome = "F3"
	OutcomeFlySecond    Outcome = "F4"
	OutcomeFlyThird     Outcome = "F5"
	OutcomeFlyShortstop Outcome = "F6"
	OutcomeFlyLeft      Outcome = "F7"
	OutcomeFlyCenter    Outcome = "F8"
	OutcomeFlyRight     Outcome = "F9"

	// Others
	OutcomeSacrificeBunt       Outcome = "SH"
	OutcomeSacrificeFly        Outcome = "SF"
	OutcomeBatterInterference  Outcome = "BI"
	OutcomeFielderInterference Outcome = "FI"
	OutcomeError               Outcome = "E"
	OutcomeFieldersChoice      Outcome = "FC"
)

// Classification holds the static flags of an outcome.
type Classification struct {
	IsOut       bool `json:"isOut"`
	IsHit       bool `json:"isHit"`
	IsAtBat     bool `json:"isAtBat"`
	IsWalk      bool `json:"isWalk"`
	IsStrikeout bool `json:"isStrikeout"`
	IsSacrifice bool `json:"isSacrifice"`
}

var (
	hit       = Classification{IsHit: true, IsAtBat: true}
	walk      = Classification{IsWalk: true}
	strikeout = Classification{IsOut: true, IsAtBat: true, IsStrikeout: true}
	battedOut = Classification{IsOut: true, IsAtBat: true}
	sacrifice = Classification{IsOut: true, IsSacrifice: true}
	reached   = Classification{IsAtBat: true}
)

// outcomeTable is listed in scorebook button order.
var outcomeTable = []struct {
	code  Outcome
	class Classification
}{
	{OutcomeSingle, hit},
	{OutcomeDouble, hit},
	{OutcomeTriple, hit},
	{OutcomeHomeRun, hit},
	{OutcomeWalk, walk},
	{OutcomeHitByPitch, walk},
	{OutcomeIntentionalWalk, walk},
	{OutcomeStrikeout, strikeout},
	{OutcomeStrikeoutLooking, strikeout},
	{OutcomeGroundPitcher, battedOut},
	{OutcomeGroundCatcher, battedOut},
	{OutcomeGroundFirst, battedOut},
	{OutcomeGroundSecond, battedOut},
	{OutcomeGroundThird, battedOut},
	{OutcomeGroundShortstop, battedOut},
	{OutcomeFlyPitcher, battedOut},
	{OutcomeFlyCatcher, battedOut},
	{OutcomeFlyFirst, battedOut},
	{OutcomeFlySecond, battedOut},
	{OutcomeFlyThird, battedOut},
	{OutcomeFlyShortstop, battedOut},
	{OutcomeFlyLeft, battedOut},
	{OutcomeFlyCenter, battedOut},
	{OutcomeFlyRight, battedOut},
	{OutcomeSacrificeFly, sacrifice},
	{OutcomeSacrificeBunt, sacrifice},
	{OutcomeBatterInterference, Classification{}},
	{OutcomeFielderInterference, Classification{}},
	{OutcomeError, reached},
	{OutcomeFieldersChoice, reached},
}

var classifications = func() map[Outcome]Classification {
	m := make(map[Outcome]Classification, len(outcomeTable)+1)
	m[OutcomeNone] = Classification{}
	for _, e := range outcomeTable {
		m[e.code] = e.class
	}
	return m
}()

// Outcomes returns every non-empty outcome in scorebook order.
func Outcomes() []Outcome {
	out := make([]Outcome, 0, len(outcomeTable))
	for _, e := range outcomeTable {
		out = append(out, e.code)
	}
	return out
}

// Classify returns the flags of o. The empty outcome classifies as all false.
func Classify(o Outcome) (Classification, error) {
	c, ok := classifications[o]
	if !ok {
		return Classification{}, fmt.Errorf("%w: %q", ErrUnknownOutcome, string(o))
	}
	return c, nil
}

// MustClassify is like Classify but panics on a code outside the vocabulary.
// Callers only hold outcomes that went through ParseOutcome or JSON decoding.
func MustClassify(o Outcome) Classification {
	c, err := Classify(o)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseOutcome validates s against the vocabulary.
func ParseOutcome(s string) (Outcome, error) {
	o := Outcome(s)
	if _, err := Classify(o); err != nil {
		return OutcomeNone, err
	}
	return o, nil
}

// Valid reports whether o belongs to the vocabulary.
func (o Outcome) Valid() bool {
	_, ok := classifications[o]
	return ok
}

// IsEmpty reports whether o is the cleared outcome.
func (o Outcome) IsEmpty() bool {
	return o == OutcomeNone
}

// Bases returns how many bases a batter's result forces runners ahead.
// Walks only move a runner standing on first; see advanceRunners.
func (o Outcome) Bases() int {
	switch o {
	case OutcomeSingle, OutcomeWalk, OutcomeHitByPitch, OutcomeIntentionalWalk:
		return 1
	case OutcomeDouble:
		return 2
	case OutcomeTriple:
		return 3
	case OutcomeHomeRun:
		return 4
	}
	return 0
}

// UnmarshalJSON rejects codes outside the vocabulary.
func (o *Outcome) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParseOutcome(s)
	if err != nil {
		return err
	}
	*o = v
	return nil
}
