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

package search

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ttbt-io/scorebook/backend/scoring"
)

// ErrBadQuery is wrapped by every error ToFilter returns.
var ErrBadQuery = errors.New("bad query")

// TeamResolver maps a team name to its id. It is consulted when a team
// term or a free-text word is not a known team id.
type TeamResolver func(nameOrID string) (string, bool)

// ToFilter turns a parsed query into a stats filter. Supported terms are
// team:<id or name> and date with =, >=, <=, >, < and A..B. Dates may be
// a year, a month (2025-04) or a day (2025-04-12). Free text, if any,
// names a team.
func ToFilter(q Query, resolve TeamResolver) (scoring.Filter, error) {
	var f scoring.Filter
	setTeam := func(v string) error {
		id, ok := resolve(v)
		if !ok {
			return fmt.Errorf("%w: unknown team %q", ErrBadQuery, v)
		}
		if f.TeamID != "" && f.TeamID != id {
			return fmt.Errorf("%w: more than one team", ErrBadQuery)
		}
		f.TeamID = id
		return nil
	}

	for _, t := range q.Terms {
		switch t.Key {
		case "team":
			if t.Operator != OpEqual {
				return f, fmt.Errorf("%w: team only supports equality", ErrBadQuery)
			}
			if err := setTeam(t.Value); err != nil {
				return f, err
			}
		case "date":
			if err := applyDate(&f, t); err != nil {
				return f, err
			}
		default:
			return f, fmt.Errorf("%w: unknown key %q", ErrBadQuery, t.Key)
		}
	}
	if len(q.FreeText) > 0 {
		if err := setTeam(strings.Join(q.FreeText, " ")); err != nil {
			return f, err
		}
	}
	return f, nil
}

func applyDate(f *scoring.Filter, t Term) error {
	start, end, err := datePeriod(t.Value)
	if err != nil {
		return err
	}
	switch t.Operator {
	case OpEqual:
		f.From, f.To = start, end
	case OpGreaterOrEqual:
		f.From = start
	case OpGreater:
		f.From = end.AddDate(0, 0, 1)
	case OpLessOrEqual:
		f.To = end
	case OpLess:
		f.To = start.AddDate(0, 0, -1)
	case OpRange:
		_, hi, err := datePeriod(t.MaxValue)
		if err != nil {
			return err
		}
		f.From, f.To = start, hi
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return fmt.Errorf("%w: empty date range", ErrBadQuery)
	}
	return nil
}

// datePeriod returns the first and last day covered by a year, month or
// day value.
func datePeriod(v string) (time.Time, time.Time, error) {
	if d, err := time.Parse(time.DateOnly, v); err == nil {
		return d, d, nil
	}
	if d, err := time.Parse("2006-01", v); err == nil {
		return d, d.AddDate(0, 1, -1), nil
	}
	if d, err := time.Parse("2006", v); err == nil {
		return d, d.AddDate(1, 0, -1), nil
	}
	return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid date %q", ErrBadQuery, v)
}
