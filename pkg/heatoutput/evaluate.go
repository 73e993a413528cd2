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

package heatoutput

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrMissingArgument is returned when neither ΔT nor both flow and room
// temperatures were supplied.
var ErrMissingArgument = errors.New("must provide either dT or both flow_temp and room_temp")

// UnsupportedSpacingError is returned for a spacing absent from the model.
// Spacings are never interpolated.
type UnsupportedSpacingError struct {
	Spacing   PipeSpacing
	Supported []PipeSpacing
}

func (e *UnsupportedSpacingError) Error() string {
	s := make([]string, len(e.Supported))
	for i, v := range e.Supported {
		s[i] = fmt.Sprint(int(v))
	}
	return fmt.Sprintf(
		"unsupported pipe spacing: %d, supported values are: %s", int(e.Spacing), strings.Join(s, ", "),
	)
}

// Temperatures carries either ΔT directly or a flow/room pair.
type Temperatures struct {
	DeltaT *float64
	Flow   *float64
	Room   *float64
}

// DeltaT builds Temperatures from a ready temperature difference.
func DeltaT(dT float64) Temperatures {
	return Temperatures{DeltaT: &dT}
}

// FlowRoom builds Temperatures from mean water and room air temperatures.
func FlowRoom(flow, room float64) Temperatures {
	return Temperatures{Flow: &flow, Room: &room}
}

// Resolve returns ΔT. A direct ΔT wins over the flow/room pair.
func (t Temperatures) Resolve() (float64, error) {
	if t.DeltaT != nil {
		return *t.DeltaT, nil
	}
	if t.Flow != nil && t.Room != nil {
		return *t.Flow - *t.Room, nil
	}
	return 0, ErrMissingArgument
}

// Model evaluates heat output from an immutable coefficient set. It is safe
// for concurrent use.
type Model struct {
	set      CoefficientSet
	spacings []PipeSpacing
}

// NewModel copies set into a new Model. The set is fully built before the
// model is visible to callers.
func NewModel(set CoefficientSet) (*Model, error) {
	if len(set) == 0 {
		return nil, errors.New("empty coefficient set")
	}
	c := set.Clone()
	return &Model{set: c, spacings: c.Spacings()}, nil
}

var defaultModel = &Model{set: builtinCoefficients, spacings: builtinCoefficients.Spacings()}

// Default returns the model backed by the built-in coefficients.
func Default() *Model {
	return defaultModel
}

// Spacings lists the spacings this model can evaluate.
func (m *Model) Spacings() []PipeSpacing {
	return append([]PipeSpacing(nil), m.spacings...)
}

// Coefficients returns the record for a spacing.
func (m *Model) Coefficients(spacing PipeSpacing) (Coefficients, bool) {
	c, ok := m.set[spacing]
	return c, ok
}

// HeatOutput returns the floor heat flux in W/m².
func (m *Model) HeatOutput(spacing PipeSpacing, rValue float64, t Temperatures) (float64, error) {
	c, ok := m.set[spacing]
	if !ok {
		return 0, &UnsupportedSpacingError{Spacing: spacing, Supported: m.Spacings()}
	}
	dT, err := t.Resolve()
	if err != nil {
		return 0, err
	}
	slope, offset := c.At(rValue)
	return slope*dT - offset, nil
}

// HeatOutput evaluates the built-in model.
func HeatOutput(spacing PipeSpacing, rValue float64, t Temperatures) (float64, error) {
	return defaultModel.HeatOutput(spacing, rValue, t)
}

// Point is one (ΔT, output) sample.
type Point struct {
	DeltaT float64
	Output float64
}

// Curve samples n evenly spaced points of the output over ΔT in [from, to].
func (m *Model) Curve(spacing PipeSpacing, rValue, from, to float64, n int) ([]Point, error) {
	if n < 2 {
		return nil, errors.Errorf("curve needs at least 2 points, got %d", n)
	}
	ret := make([]Point, n)
	step := (to - from) / float64(n-1)
	for i := range ret {
		dT := from + step*float64(i)
		q, err := m.HeatOutput(spacing, rValue, DeltaT(dT))
		if err != nil {
			return nil, err
		}
		ret[i] = Point{DeltaT: dT, Output: q}
	}
	return ret, nil
}
