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

package regression

import (
	"math"

	"github.com/antst/ufhout/internal/reference"
	"github.com/antst/ufhout/pkg/heatoutput"
)

// Relative error is meaningless next to zero output.
const minRelativeOutput = 1.0

// Verification compares a model against the reference samples of a spacing.
type Verification struct {
	Spacing     heatoutput.PipeSpacing
	Samples     int
	MaxAbsError float64
	// MaxRelError is in percent, over samples with |output| >= 1 W/m².
	MaxRelError float64
	RMSError    float64
	Worst       reference.Sample
	WorstModel  float64
}

// Verify evaluates model at every sample of table, over the grid the table
// was loaded with.
func Verify(table *reference.Table, model *heatoutput.Model) ([]Verification, error) {
	grid := table.Grid()
	ret := make([]Verification, 0, len(grid.Spacings))
	for _, s := range grid.Spacings {
		v := Verification{Spacing: s}
		var sq float64
		for _, r := range grid.RValues {
			for _, sample := range table.Series(r, s) {
				q, err := model.HeatOutput(s, sample.RValue, heatoutput.DeltaT(sample.DeltaT()))
				if err != nil {
					return nil, err
				}
				diff := math.Abs(q - sample.WattOutput)
				sq += diff * diff
				v.Samples++
				if diff > v.MaxAbsError {
					v.MaxAbsError = diff
				}
				if math.Abs(sample.WattOutput) >= minRelativeOutput {
					if rel := diff / math.Abs(sample.WattOutput) * 100; rel > v.MaxRelError {
						v.MaxRelError = rel
						v.Worst = sample
						v.WorstModel = q
					}
				}
			}
		}
		if v.Samples > 0 {
			v.RMSError = math.Sqrt(sq / float64(v.Samples))
		}
		ret = append(ret, v)
	}
	return ret, nil
}
