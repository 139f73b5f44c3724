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
	"errors"
	"fmt"
	"io"

	"github.com/ttbt-io/scorebook/backend/scoring"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNoGames is returned when there is nothing to chart.
var ErrNoGames = errors.New("no games")

var (
	chartLine       = drawing.ColorFromHex("1f4e79")
	chartDots       = drawing.ColorFromHex("c00000")
	chartBackground = drawing.ColorWhite
)

// WriteAverageChart renders a PNG line chart of a player's running batting
// average, one point per game.
func WriteAverageChart(w io.Writer, title string, games []scoring.PlayerGame) error {
	if len(games) == 0 {
		return ErrNoGames
	}

	xs := make([]float64, len(games))
	ys := make([]float64, len(games))
	ticks := make([]chart.Tick, len(games))
	for i, g := range games {
		xs[i] = float64(i + 1)
		ys[i] = g.Average
		label := g.Date
		if label == "" {
			label = fmt.Sprintf("G%d", i+1)
		}
		ticks[i] = chart.Tick{Value: xs[i], Label: label}
	}

	graph := chart.Chart{
		Title:      title,
		Width:      800,
		Height:     400,
		Background: chart.Style{FillColor: chartBackground, Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20}},
		XAxis: chart.XAxis{
			Name:  "Game",
			Range: &chart.ContinuousRange{Min: 0, Max: float64(len(games) + 1)},
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Name:           "AVG",
			Range:          &chart.ContinuousRange{Min: 0, Max: 1},
			ValueFormatter: func(v any) string { return fmt.Sprintf("%.3f", v) },
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Batting average",
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: chartLine,
					StrokeWidth: 2,
					DotWidth:    4,
					DotColor:    chartDots,
				},
			},
		},
	}
	return graph.Render(chart.PNG, w)
}
