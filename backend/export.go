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
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/ttbt-io/scorebook/backend/scoring"
	"github.com/xuri/excelize/v2"
)

var sideLabels = map[scoring.Side]string{scoring.Visitor: "Visitor", scoring.Home: "Home"}

// WriteBoxScoreText renders a plain text box score: the line score, then
// each side's scorebook grid with its totals and pitchers.
func WriteBoxScoreText(w io.Writer, g *Game) error {
	bw := bufio.NewWriter(w)
	line := func(format string, a ...any) {
		fmt.Fprintln(bw, strings.TrimRight(fmt.Sprintf(format, a...), " "))
	}

	ls := scoring.NewLineScore(g)
	line("%s %d, %s %d", ls.Visitor.Team, ls.Visitor.Runs, ls.Home.Team, ls.Home.Runs)
	if info := strings.TrimSpace(strings.Join([]string{g.Date, g.StartTime}, " ")); info != "" || g.Location != "" {
		if g.Location != "" {
			info = strings.TrimSpace(info + " at " + g.Location)
		}
		line("%s", info)
	}
	line("")

	var sb strings.Builder
	fmt.Fprintf(&sb, "%-16s", "")
	for i := 1; i <= ls.Innings; i++ {
		fmt.Fprintf(&sb, "%3d", i)
	}
	fmt.Fprintf(&sb, "%4s%3s%3s", "R", "H", "E")
	line("%s", sb.String())
	for _, row := range []scoring.LineRow{ls.Visitor, ls.Home} {
		sb.Reset()
		fmt.Fprintf(&sb, "%-16s", clip(row.Team, 16))
		for _, r := range row.Innings {
			fmt.Fprintf(&sb, "%3d", r)
		}
		fmt.Fprintf(&sb, "%4d%3d%3d", row.Runs, row.Hits, row.Errors)
		line("%s", sb.String())
	}

	for _, side := range []scoring.Side{scoring.Visitor, scoring.Home} {
		b := scoring.NewBoxScore(g, side)
		line("")
		line("%s batting", b.Team)

		sb.Reset()
		fmt.Fprintf(&sb, "%2s %-20s %-3s ", "#", "Player", "Pos")
		for _, k := range b.Columns {
			fmt.Fprintf(&sb, "%-5s", k.String())
		}
		fmt.Fprintf(&sb, "%3s%3s%3s%4s%3s%3s", "AB", "R", "H", "RBI", "BB", "K")
		line("%s", sb.String())

		for _, row := range b.Rows {
			sb.Reset()
			name := row.Player.Name
			if row.Player.Blank() {
				name = "-"
			}
			fmt.Fprintf(&sb, "%2d %-20s %-3s ", row.Order, clip(name, 20), row.Position)
			for _, c := range row.Cells {
				code := string(c.Outcome)
				if code == "" {
					code = "."
				}
				fmt.Fprintf(&sb, "%-5s", code)
			}
			writeLineStats(&sb, row.Line)
			line("%s", sb.String())
		}
		sb.Reset()
		fmt.Fprintf(&sb, "%2s %-20s %-3s %s", "", "Totals", "", strings.Repeat(" ", 5*len(b.Columns)))
		writeLineStats(&sb, b.Totals)
		line("%s", sb.String())

		if pitchers := g.PitcherLines(side); len(pitchers) > 0 {
			line("")
			line("%s pitching", b.Team)
			line("%-19s %6s %3s %s", "Pitcher", "IP", "ER", "Dec")
			for _, p := range pitchers {
				line("%-19s %6s %3d %s", clip(p.Name, 19), p.Innings, p.EarnedRuns, p.Decision)
			}
		}
	}
	return bw.Flush()
}

func writeLineStats(sb *strings.Builder, l scoring.BattingLine) {
	fmt.Fprintf(sb, "%3d%3d%3d%4d%3d%3d", l.AtBats, l.Runs, l.Hits, l.RBI, l.Walks, l.Strikeouts)
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// setRow writes values on one row of sheet, starting at column A.
func setRow(f *excelize.File, sheet string, row int, values ...any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func boldHeader(f *excelize.File, sheet string) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	return f.SetRowStyle(sheet, 1, 1, style)
}

// addSheet writes a header and rows to a new sheet. The workbook's
// default sheet is renamed for the first call.
func addSheet(f *excelize.File, name string, header []any, rows [][]any) error {
	if f.SheetCount == 1 && f.GetSheetName(0) == "Sheet1" {
		if err := f.SetSheetName("Sheet1", name); err != nil {
			return err
		}
	} else if _, err := f.NewSheet(name); err != nil {
		return err
	}
	if err := setRow(f, name, 1, header...); err != nil {
		return err
	}
	if err := boldHeader(f, name); err != nil {
		return err
	}
	for i, r := range rows {
		if err := setRow(f, name, i+2, r...); err != nil {
			return fmt.Errorf("%s row %d: %w", name, i+2, err)
		}
	}
	return nil
}

// WriteBoxScoreXLSX writes a workbook with the line score, one grid per
// side and the pitchers of both teams.
func WriteBoxScoreXLSX(w io.Writer, g *Game) error {
	f := excelize.NewFile()
	defer f.Close()

	ls := scoring.NewLineScore(g)
	header := []any{"Team"}
	for i := 1; i <= ls.Innings; i++ {
		header = append(header, i)
	}
	header = append(header, "R", "H", "E")
	var lines [][]any
	for _, row := range []scoring.LineRow{ls.Visitor, ls.Home} {
		r := []any{row.Team}
		for _, n := range row.Innings {
			r = append(r, n)
		}
		lines = append(lines, append(r, row.Runs, row.Hits, row.Errors))
	}
	if err := addSheet(f, "Line Score", header, lines); err != nil {
		return err
	}

	var pitching [][]any
	for _, side := range []scoring.Side{scoring.Visitor, scoring.Home} {
		b := scoring.NewBoxScore(g, side)
		header := []any{"#", "Player", "Number", "Pos"}
		for _, k := range b.Columns {
			header = append(header, k.String())
		}
		header = append(header, "PA", "AB", "R", "H", "RBI", "BB", "K", "SB", "E")
		var rows [][]any
		for _, row := range b.Rows {
			r := []any{row.Order, row.Player.Name, row.Player.Number, string(row.Position)}
			for _, c := range row.Cells {
				r = append(r, string(c.Outcome))
			}
			rows = append(rows, append(r, lineValues(row.Line)...))
		}
		totals := make([]any, 4+len(b.Columns))
		totals[1] = "Totals"
		rows = append(rows, append(totals, lineValues(b.Totals)...))
		if err := addSheet(f, sideLabels[side]+" - "+clip(sanitizeSheet(b.Team), 20), header, rows); err != nil {
			return err
		}
		for _, p := range g.PitcherLines(side) {
			pitching = append(pitching, []any{b.Team, p.Name, p.Innings, p.EarnedRuns, string(p.Decision)})
		}
	}
	if err := addSheet(f, "Pitching", []any{"Team", "Pitcher", "IP", "ER", "Dec"}, pitching); err != nil {
		return err
	}
	return f.Write(w)
}

func lineValues(l scoring.BattingLine) []any {
	return []any{l.PlateAppearances, l.AtBats, l.Runs, l.Hits, l.RBI, l.Walks, l.Strikeouts, l.StolenBases, l.Errors}
}

// sanitizeSheet drops the characters Excel refuses in sheet names.
func sanitizeSheet(s string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return -1
		}
		return r
	}, s)
}

// WriteStatsXLSX writes season batting and pitching tables.
func WriteStatsXLSX(w io.Writer, batting []scoring.BattingStats, pitching []scoring.PitchingStats) error {
	f := excelize.NewFile()
	defer f.Close()

	var rows [][]any
	for _, s := range batting {
		rows = append(rows, []any{
			s.Name, s.Number, s.GamesPlayed, s.PlateAppearances, s.AtBats, s.Runs, s.Hits,
			s.Doubles, s.Triples, s.HomeRuns, s.RBI, s.Walks, s.Strikeouts, s.StolenBases,
			s.SacrificeBunts, s.SacrificeFlies, s.Errors,
			fmt.Sprintf("%.3f", s.Average), fmt.Sprintf("%.3f", s.OnBase),
			fmt.Sprintf("%.3f", s.Slugging), fmt.Sprintf("%.3f", s.OPS),
		})
	}
	header := []any{"Player", "Number", "G", "PA", "AB", "R", "H", "2B", "3B", "HR", "RBI", "BB", "K", "SB", "SH", "SF", "E", "AVG", "OBP", "SLG", "OPS"}
	if err := addSheet(f, "Batting", header, rows); err != nil {
		return err
	}

	rows = rows[:0]
	for _, s := range pitching {
		rows = append(rows, []any{
			s.Name, s.GamesPitched, scoring.FormatInningsPitched(s.Outs), s.EarnedRuns,
			fmt.Sprintf("%.2f", s.ERA), s.Wins, s.Losses, s.Saves, fmt.Sprintf("%.3f", s.WinPct),
		})
	}
	if err := addSheet(f, "Pitching", []any{"Pitcher", "G", "IP", "ER", "ERA", "W", "L", "SV", "PCT"}, rows); err != nil {
		return err
	}
	return f.Write(w)
}
