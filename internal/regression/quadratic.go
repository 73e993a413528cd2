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
	"fmt"

	"github.com/antst/ufhout/pkg/heatoutput"

	"gonum.org/v1/gonum/mat"
)

// FitQuadratic fits y = a·x² + b·x + c by least squares.
func FitQuadratic(x, y []float64) (heatoutput.Quadratic, error) {
	if len(x) != len(y) {
		return heatoutput.Quadratic{}, &FitError{
			Stage: StageQuadratic, Reason: fmt.Sprintf("%d x values, %d y values", len(x), len(y)),
		}
	}
	if n := distinct(x); n < 3 {
		return heatoutput.Quadratic{}, &FitError{
			Stage:  StageQuadratic,
			Reason: fmt.Sprintf("need at least 3 distinct R-values, got %d", n),
		}
	}

	// descending powers: column 0 multiplies x²
	a := mat.NewDense(len(x), 3, nil)
	for i, v := range x {
		a.Set(i, 0, v*v)
		a.Set(i, 1, v)
		a.Set(i, 2, 1)
	}
	sol, err := solve(a, y)
	if err != nil {
		return heatoutput.Quadratic{}, &FitError{Stage: StageQuadratic, Reason: "rank-deficient system", Err: err}
	}
	return heatoutput.Quadratic{A: sol[0], B: sol[1], C: sol[2]}, nil
}
