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

// Package heatoutput estimates the steady-state heat output of underfloor
// heating panels from pipe spacing, floor covering R-value and the
// water-to-room temperature difference.
//
// The output for a spacing is modelled as
//
//	q = m(R)·ΔT − c(R)
//
// where m and c are quadratics in R fitted offline from certified
// performance tables. The model silently extrapolates outside the fitted
// domain (R in [0, 0.15] m²·K/W, ΔT in [0, 40] K).
package heatoutput

import (
	"fmt"
	"sort"
)

// PipeSpacing is the centre-to-centre distance between pipe runs, in mm.
type PipeSpacing int

func (s PipeSpacing) String() string {
	return fmt.Sprintf("%dmm", int(s))
}

// SupportedSpacings are the spacings covered by the built-in coefficient set.
var SupportedSpacings = []PipeSpacing{100, 150, 200, 250, 300}

// Quadratic holds a·x² + b·x + c.
type Quadratic struct {
	A float64 `yaml:"a"`
	B float64 `yaml:"b"`
	C float64 `yaml:"c"`
}

// At evaluates the quadratic at x.
func (q Quadratic) At(x float64) float64 {
	return q.A*x*x + q.B*x + q.C
}

// Descending returns the coefficients highest power first.
func (q Quadratic) Descending() [3]float64 {
	return [3]float64{q.A, q.B, q.C}
}

func (q Quadratic) String() string {
	return fmt.Sprintf("%.4f*R*R + %.4f*R + %.5f", q.A, q.B, q.C)
}

// Coefficients is the per-spacing record: slope m(R) and offset c(R).
type Coefficients struct {
	Slope  Quadratic `yaml:"slope"`
	Offset Quadratic `yaml:"offset"`
}

// At returns the linear model (m, c) for the given R-value.
func (c Coefficients) At(rValue float64) (float64, float64) {
	return c.Slope.At(rValue), c.Offset.At(rValue)
}

// CoefficientSet maps each spacing to its coefficient record.
type CoefficientSet map[PipeSpacing]Coefficients

// Spacings returns the spacings of the set in ascending order.
func (s CoefficientSet) Spacings() []PipeSpacing {
	ret := make([]PipeSpacing, 0, len(s))
	for k := range s {
		ret = append(ret, k)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i] < ret[j] })
	return ret
}

// Clone returns a copy that shares nothing with s.
func (s CoefficientSet) Clone() CoefficientSet {
	ret := make(CoefficientSet, len(s))
	for k, v := range s {
		ret[k] = v
	}
	return ret
}

// Solid-floor 16 mm pipe, fitted from the MCS reference table.
var builtinCoefficients = CoefficientSet{
	100: {
		Slope:  Quadratic{A: 111.8353, B: -39.5733, C: 6.66364},
		Offset: Quadratic{A: 558.6506, B: -197.8043, C: 33.31581},
	},
	150: {
		Slope:  Quadratic{A: 86.6934, B: -31.5422, C: 5.74376},
		Offset: Quadratic{A: 424.6747, B: -156.4000, C: 28.70193},
	},
	200: {
		Slope:  Quadratic{A: 68.2878, B: -25.3673, C: 4.97757},
		Offset: Quadratic{A: 341.2530, B: -126.7552, C: 24.89369},
	},
	250: {
		Slope:  Quadratic{A: 52.8701, B: -20.1915, C: 4.31537},
		Offset: Quadratic{A: 261.9277, B: -100.4728, C: 21.56901},
	},
	300: {
		Slope:  Quadratic{A: 40.9224, B: -16.0253, C: 3.75131},
		Offset: Quadratic{A: 204.8434, B: -80.0533, C: 18.74228},
	},
}

// BuiltinCoefficients returns a copy of the compiled-in coefficient set.
func BuiltinCoefficients() CoefficientSet {
	return builtinCoefficients.Clone()
}
