/*
 * Copyright (c) 2024. Anton Starikov -- All Rights Reserved
 *
 * This file is part of UFHOUT project.
 *
 * UFHOUT is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as the Free Software Foundation,
 * either version 3 of the License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */

package reference

import (
	"fmt"
	"math"

	"github.com/antst/ufhout/pkg/heatoutput"
)

const rValueAlignment = 1e-9

// Grid is the set of R-values and spacings a calibration covers. RValues
// order is preserved through loading and fitting.
type Grid struct {
	RValues  []float64
	Spacings []heatoutput.PipeSpacing
}

// DefaultGrid is the solid-floor 16 mm table layout.
func DefaultGrid() Grid {
	return Grid{
		RValues:  []float64{0.00, 0.05, 0.10, 0.15},
		Spacings: append([]heatoutput.PipeSpacing(nil), heatoutput.SupportedSpacings...),
	}
}

// Validate checks that every R-value maps to a column and that no entry is
// repeated.
func (g Grid) Validate() error {
	if len(g.RValues) == 0 || len(g.Spacings) == 0 {
		return fmt.Errorf("grid needs at least one R-value and one spacing")
	}
	seenR := make(map[int]bool, len(g.RValues))
	for _, r := range g.RValues {
		p, err := RPercent(r)
		if err != nil {
			return err
		}
		if seenR[p] {
			return fmt.Errorf("duplicate R-value %.2f in grid", r)
		}
		seenR[p] = true
	}
	seenS := make(map[heatoutput.PipeSpacing]bool, len(g.Spacings))
	for _, s := range g.Spacings {
		if s <= 0 || s > 999 {
			return fmt.Errorf("pipe spacing %d out of column range", int(s))
		}
		if seenS[s] {
			return fmt.Errorf("duplicate pipe spacing %v in grid", s)
		}
		seenS[s] = true
	}
	return nil
}

func (g Grid) clone() Grid {
	return Grid{
		RValues:  append([]float64(nil), g.RValues...),
		Spacings: append([]heatoutput.PipeSpacing(nil), g.Spacings...),
	}
}

// UnalignedRValueError reports an R-value that is not a whole percentage and
// therefore has no column in the table.
type UnalignedRValueError struct {
	RValue float64
}

func (e *UnalignedRValueError) Error() string {
	return fmt.Sprintf("R-value %v is not a multiple of 0.01 and has no table column", e.RValue)
}

// RPercent converts an R-value to the integer percentage used in column names.
func RPercent(r float64) (int, error) {
	scaled := r * 100
	p := math.Round(scaled)
	if math.IsNaN(scaled) || r < 0 || p > 999 || math.Abs(scaled-p) > rValueAlignment*100 {
		return 0, &UnalignedRValueError{RValue: r}
	}
	return int(p), nil
}

// ColumnPrefix returns the `rrr_sss` prefix for an (R, spacing) pair.
func ColumnPrefix(r float64, spacing heatoutput.PipeSpacing) (string, error) {
	p, err := RPercent(r)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%03d_%03d", p, int(spacing)), nil
}

// Reading is the certified payload for one table cell.
type Reading struct {
	WattOutput  float64
	SurfaceTemp float64
}

// Sample is one reference point.
type Sample struct {
	RValue   float64
	Spacing  heatoutput.PipeSpacing
	FlowTemp float64
	RoomTemp float64
	Reading
}

// DeltaT is the flow-to-room temperature difference.
func (s Sample) DeltaT() float64 {
	return s.FlowTemp - s.RoomTemp
}

type seriesKey struct {
	rPercent int
	spacing  heatoutput.PipeSpacing
}

type tempKey struct {
	flow, room float64
}

// Table is the read-only reference data, indexed
// R-value → spacing → flow temperature → room temperature.
type Table struct {
	grid   Grid
	series map[seriesKey][]Sample
	index  map[seriesKey]map[tempKey]int
}

func newTable(grid Grid) *Table {
	return &Table{
		grid:   grid.clone(),
		series: make(map[seriesKey][]Sample),
		index:  make(map[seriesKey]map[tempKey]int),
	}
}

func (t *Table) add(p int, s Sample) {
	k := seriesKey{rPercent: p, spacing: s.Spacing}
	tk := tempKey{flow: s.FlowTemp, room: s.RoomTemp}
	idx, ok := t.index[k]
	if !ok {
		idx = make(map[tempKey]int)
		t.index[k] = idx
	}
	if i, ok := idx[tk]; ok {
		t.series[k][i] = s
		return
	}
	idx[tk] = len(t.series[k])
	t.series[k] = append(t.series[k], s)
}

// Grid returns the grid the table was loaded with.
func (t *Table) Grid() Grid {
	return t.grid.clone()
}

// Series returns the samples for one (R, spacing) pair in source row order.
func (t *Table) Series(r float64, spacing heatoutput.PipeSpacing) []Sample {
	p, err := RPercent(r)
	if err != nil {
		return nil
	}
	return append([]Sample(nil), t.series[seriesKey{rPercent: p, spacing: spacing}]...)
}

// Lookup returns the reading at an exact table coordinate.
func (t *Table) Lookup(r float64, spacing heatoutput.PipeSpacing, flow, room float64) (Reading, bool) {
	p, err := RPercent(r)
	if err != nil {
		return Reading{}, false
	}
	k := seriesKey{rPercent: p, spacing: spacing}
	i, ok := t.index[k][tempKey{flow: flow, room: room}]
	if !ok {
		return Reading{}, false
	}
	return t.series[k][i].Reading, true
}

// Len is the total number of samples.
func (t *Table) Len() int {
	n := 0
	for _, s := range t.series {
		n += len(s)
	}
	return n
}
