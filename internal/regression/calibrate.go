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
	"github.com/antst/ufhout/internal/logger"
	"github.com/antst/ufhout/internal/reference"
	"github.com/antst/ufhout/pkg/heatoutput"

	"github.com/pkg/errors"
)

// SpacingFit is the full result for one spacing.
type SpacingFit struct {
	Spacing      heatoutput.PipeSpacing
	Linear       []LinearFit
	Coefficients heatoutput.Coefficients
}

// Calibration is the result of fitting every spacing of a grid.
type Calibration struct {
	Grid     reference.Grid
	Spacings []SpacingFit
}

// CoefficientSet collects the per-spacing records.
func (c *Calibration) CoefficientSet() heatoutput.CoefficientSet {
	set := make(heatoutput.CoefficientSet, len(c.Spacings))
	for _, s := range c.Spacings {
		set[s.Spacing] = s.Coefficients
	}
	return set
}

// Model builds an evaluation model from the calibration.
func (c *Calibration) Model() (*heatoutput.Model, error) {
	return heatoutput.NewModel(c.CoefficientSet())
}

// FitSpacing runs both stages for one spacing, visiting R-values in grid
// order.
func FitSpacing(table *reference.Table, grid reference.Grid, spacing heatoutput.PipeSpacing) (SpacingFit, error) {
	fit := SpacingFit{Spacing: spacing, Linear: make([]LinearFit, 0, len(grid.RValues))}
	rs := make([]float64, 0, len(grid.RValues))
	ms := make([]float64, 0, len(grid.RValues))
	cs := make([]float64, 0, len(grid.RValues))

	for _, r := range grid.RValues {
		lf, err := FitSeries(spacing, r, table.Series(r, spacing))
		if err != nil {
			return SpacingFit{}, err
		}
		logger.L().Debugf("R=%.2f, spacing=%v: m_i=%.4f, c_i=%.4f (%d points)", r, spacing, lf.Slope, lf.Offset, lf.Points)
		fit.Linear = append(fit.Linear, lf)
		rs = append(rs, r)
		ms = append(ms, lf.Slope)
		cs = append(cs, lf.Offset)
	}

	slope, err := FitQuadratic(rs, ms)
	if err != nil {
		return SpacingFit{}, locate(err, spacing, nil)
	}
	offset, err := FitQuadratic(rs, cs)
	if err != nil {
		return SpacingFit{}, locate(err, spacing, nil)
	}
	fit.Coefficients = heatoutput.Coefficients{Slope: slope, Offset: offset}
	return fit, nil
}

// Calibrate fits every spacing of grid. Either all spacings succeed or no
// result is returned.
func Calibrate(table *reference.Table, grid reference.Grid) (*Calibration, error) {
	if err := grid.Validate(); err != nil {
		return nil, errors.WithMessage(err, "invalid calibration grid")
	}
	if len(grid.RValues) < 3 {
		return nil, &FitError{
			Stage:  StageQuadratic,
			Reason: "need at least 3 distinct R-values in the calibration grid",
		}
	}

	fits := make([]SpacingFit, 0, len(grid.Spacings))
	for _, s := range grid.Spacings {
		fit, err := FitSpacing(table, grid, s)
		if err != nil {
			return nil, errors.WithMessagef(err, "calibration aborted at spacing %v", s)
		}
		fits = append(fits, fit)
	}

	return &Calibration{
		Grid: reference.Grid{
			RValues:  append([]float64(nil), grid.RValues...),
			Spacings: append([]heatoutput.PipeSpacing(nil), grid.Spacings...),
		},
		Spacings: fits,
	}, nil
}
