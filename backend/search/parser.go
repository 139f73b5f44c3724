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

// Package search parses the query language used to narrow stats and game
// listings, e.g. `team:"River Cats" date:2025-04..2025-06`.
package search

import (
	"strings"
	"unicode"
)

// Operator defines the type of comparison for a filter.
type Operator string

const (
	OpEqual          Operator = "="
	OpGreater        Operator = ">"
	OpGreaterOrEqual Operator = ">="
	OpLess           Operator = "<"
	OpLessOrEqual    Operator = "<="
	OpRange          Operator = ".." // for date:2025-01..2025-02
)

// Two-character prefixes come first so ">=" is not read as ">".
var prefixOperators = []Operator{OpGreaterOrEqual, OpLessOrEqual, OpGreater, OpLess}

// Term is one key:value criterion of a query.
type Term struct {
	Key      string // e.g., "team", "date"
	Value    string
	MaxValue string // Used only for OpRange
	Operator Operator
}

// Query represents the parsed search query.
type Query struct {
	Terms    []Term
	FreeText []string
}

// Parse splits input into key:value terms and free text. Values may be
// quoted. A token whose key or value is empty, or whose unquoted value
// holds another colon, is kept as free text.
func Parse(input string) Query {
	q := Query{
		Terms:    make([]Term, 0),
		FreeText: make([]string, 0),
	}
	for _, token := range tokenize(input) {
		key, val, ok := strings.Cut(token, ":")
		key = strings.ToLower(strings.TrimSpace(key))
		val = strings.TrimSpace(val)
		if !ok {
			q.FreeText = append(q.FreeText, removeQuotes(token))
			continue
		}
		quoted := strings.HasPrefix(val, "\"") || strings.HasPrefix(val, "'")
		if key == "" || val == "" || (!quoted && strings.Contains(val, ":")) {
			q.FreeText = append(q.FreeText, token)
			continue
		}
		q.Terms = append(q.Terms, parseTerm(key, val))
	}
	return q
}

func parseTerm(key, val string) Term {
	if lo, hi, ok := strings.Cut(val, ".."); ok {
		return Term{Key: key, Value: removeQuotes(lo), MaxValue: removeQuotes(hi), Operator: OpRange}
	}
	for _, op := range prefixOperators {
		if rest, ok := strings.CutPrefix(val, string(op)); ok {
			return Term{Key: key, Value: removeQuotes(rest), Operator: op}
		}
	}
	return Term{Key: key, Value: removeQuotes(val), Operator: OpEqual}
}

// tokenize splits the string by spaces, respecting quotes.
func tokenize(input string) []string {
	var tokens []string
	var current strings.Builder
	quote := rune(0)

	for _, r := range input {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
			current.WriteRune(r)
		case unicode.IsSpace(r):
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		case r == '"' || r == '\'':
			quote = r
			current.WriteRune(r)
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

func removeQuotes(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
