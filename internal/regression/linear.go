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

// Package regression turns a reference table into per-spacing quadratic
// coefficients in two stages: a straight line of output against ΔT for every
// (R, spacing) pair, then quadratics of slope and offset against R.
package regression

import (
	"fmt"
	"math"

	"github.com/antst/ufhout/internal/reference"
	"github.com/antst/ufhout/pkg/heatoutput"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// LinearFit is output ≈ Slope·ΔT − Offset for one (R, spacing) pair.
type LinearFit struct {
	Spacing  heatoutput.PipeSpacing
	RValue   float64
	Slope    float64
	Offset   float64
	RSquared float64
	Points   int
}

// FitLinear solves the ordinary least-squares line y = slope·x + intercept.
func FitLinear(x, y []float64) (float64, float64, error) {
	if len(x) != len(y) {
		return 0, 0, &FitError{Stage: StageLinear, Reason: fmt.Sprintf("%d x values, %d y values", len(x), len(y))}
	}
	if n := distinct(x); n < 2 {
		return 0, 0, &FitError{
			Stage:  StageLinear,
			Reason: fmt.Sprintf("need at least 2 distinct dT values, got %d from %d points", n, len(x)),
		}
	}

	a := mat.NewDense(len(x), 2, nil)
	for i, v := range x {
		a.Set(i, 0, v)
		a.Set(i, 1, 1)
	}
	sol, err := solve(a, y)
	if err != nil {
		return 0, 0, &FitError{Stage: StageLinear, Reason: "rank-deficient system", Err: err}
	}
	return sol[0], sol[1], nil
}

// FitSeries fits one (R, spacing) series in the sign convention of the
// model: output = Slope·ΔT − Offset.
func FitSeries(spacing heatoutput.PipeSpacing, rValue float64, samples []reference.Sample) (LinearFit, error) {
	dT := make([]float64, len(samples))
	y := make([]float64, len(samples))
	for i, s := range samples {
		dT[i] = s.DeltaT()
		y[i] = s.WattOutput
	}

	slope, intercept, err := FitLinear(dT, y)
	if err != nil {
		return LinearFit{}, locate(err, spacing, &rValue)
	}

	r2 := stat.RSquared(dT, y, nil, intercept, slope)
	if math.IsNaN(r2) {
		// constant output, the flat line is exact
		r2 = 1
	}
	return LinearFit{
		Spacing:  spacing,
		RValue:   rValue,
		Slope:    slope,
		Offset:   -intercept,
		RSquared: r2,
		Points:   len(samples),
	}, nil
}

// maxCondition bounds the condition number of a design matrix. Beyond it
// the solution is dominated by rounding and the fit is reported as
// rank-deficient.
const maxCondition = 1e10

// solve returns the least-squares solution of a·x = b via QR.
func solve(a *mat.Dense, b []float64) ([]float64, error) {
	_, c := a.Dims()
	var qr mat.QR
	qr.Factorize(a)
	if cond := qr.Cond(); cond > maxCondition {
		return nil, mat.Condition(cond)
	}

	var x mat.VecDense
	if err := qr.SolveVecTo(&x, false, mat.NewVecDense(len(b), append([]float64(nil), b...))); err != nil {
		return nil, err
	}

	ret := make([]float64, c)
	for i := range ret {
		ret[i] = x.AtVec(i)
		if math.IsNaN(ret[i]) || math.IsInf(ret[i], 0) {
			return nil, fmt.Errorf("non-finite coefficient %d", i)
		}
	}
	return ret, nil
}
