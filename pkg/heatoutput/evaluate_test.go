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
	"bytes"
	"math"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
)

const errorTolerancePercent = 2.0

func assertPercentError(t *testing.T, actual, expected, threshold float64) {
	t.Helper()
	percent := math.Abs(actual-expected) / expected * 100
	if percent >= threshold {
		t.Errorf("error %.2f%% exceeds threshold of %.2f%%: expected=%v, actual=%v", percent, threshold, expected, actual)
	}
}

func TestHeatOutputReferencePoints(t *testing.T) {
	cases := []struct {
		spacing  PipeSpacing
		rValue   float64
		flow     float64
		room     float64
		expected float64
	}{
		{100, 0.10, 35, 20, 38.9},
		{150, 0.00, 40, 20, 86.4},
		{200, 0.15, 35, 22, 21.6},
		{250, 0.10, 50, 24, 60},
		{300, 0.05, 55, 18, 96.9},
	}
	for _, c := range cases {
		q, err := HeatOutput(c.spacing, c.rValue, FlowRoom(c.flow, c.room))
		if err != nil {
			t.Fatalf("%v R=%.2f: %v", c.spacing, c.rValue, err)
		}
		assertPercentError(t, q, c.expected, errorTolerancePercent)
	}
}

func TestHeatOutputDeltaTMatchesFlowRoom(t *testing.T) {
	a, err := HeatOutput(150, 0.05, DeltaT(20))
	if err != nil {
		t.Fatal(err)
	}
	b, err := HeatOutput(150, 0.05, FlowRoom(40, 20))
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("dT=20 gave %v, flow/room 40/20 gave %v", a, b)
	}
}

func TestHeatOutputDeltaTTakesPrecedence(t *testing.T) {
	flow, room, dT := 60.0, 20.0, 10.0
	q, err := HeatOutput(200, 0.1, Temperatures{DeltaT: &dT, Flow: &flow, Room: &room})
	if err != nil {
		t.Fatal(err)
	}
	want, _ := HeatOutput(200, 0.1, DeltaT(10))
	if q != want {
		t.Errorf("got %v, want %v", q, want)
	}
}

func TestHeatOutputZeroPoint(t *testing.T) {
	for _, s := range SupportedSpacings {
		q, err := HeatOutput(s, 0, DeltaT(0))
		if err != nil {
			t.Fatal(err)
		}
		c, _ := Default().Coefficients(s)
		if q != -c.Offset.C {
			t.Errorf("%v: output at R=0, dT=0 is %v, want %v", s, q, -c.Offset.C)
		}
		if q >= 0 {
			t.Errorf("%v: intercept term must yield negative output at dT=0, got %v", s, q)
		}
	}
}

func TestHeatOutputMonotonicInDeltaT(t *testing.T) {
	for _, s := range SupportedSpacings {
		for _, r := range []float64{0, 0.05, 0.10, 0.15} {
			prev := math.Inf(-1)
			for dT := 0.0; dT <= 40; dT += 0.5 {
				q, err := HeatOutput(s, r, DeltaT(dT))
				if err != nil {
					t.Fatal(err)
				}
				if q < prev {
					t.Fatalf("%v R=%.2f: output decreased at dT=%v (%v < %v)", s, r, dT, q, prev)
				}
				prev = q
			}
		}
	}
}

func TestHeatOutputUnsupportedSpacing(t *testing.T) {
	_, err := HeatOutput(350, 0.10, DeltaT(20))
	var target *UnsupportedSpacingError
	if !errors.As(err, &target) {
		t.Fatalf("expected UnsupportedSpacingError, got %v", err)
	}
	if target.Spacing != 350 {
		t.Errorf("unexpected spacing in error: %v", target.Spacing)
	}
	if len(target.Supported) != len(SupportedSpacings) {
		t.Errorf("unexpected supported list: %v", target.Supported)
	}
}

func TestHeatOutputMissingArgument(t *testing.T) {
	room := 20.0
	for _, temps := range []Temperatures{{}, {Room: &room}} {
		_, err := HeatOutput(150, 0.10, temps)
		if !errors.Is(err, ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	}
}

func TestNewModelCopiesSet(t *testing.T) {
	set := CoefficientSet{
		125: {Slope: Quadratic{C: 2}, Offset: Quadratic{C: 4}},
	}
	m, err := NewModel(set)
	if err != nil {
		t.Fatal(err)
	}
	set[125] = Coefficients{}

	q, err := m.HeatOutput(125, 0.3, DeltaT(10))
	if err != nil {
		t.Fatal(err)
	}
	if q != 16 {
		t.Errorf("got %v, want 16", q)
	}
	if _, err := m.HeatOutput(150, 0, DeltaT(10)); err == nil {
		t.Error("expected error for spacing outside the custom set")
	}
}

func TestNewModelRejectsEmptySet(t *testing.T) {
	if _, err := NewModel(CoefficientSet{}); err == nil {
		t.Error("expected error")
	}
}

func TestCurve(t *testing.T) {
	pts, err := Default().Curve(150, 0.1, 0, 40, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(pts) != 5 || pts[0].DeltaT != 0 || pts[4].DeltaT != 40 {
		t.Fatalf("unexpected curve: %+v", pts)
	}
	for _, p := range pts {
		q, _ := HeatOutput(150, 0.1, DeltaT(p.DeltaT))
		if q != p.Output {
			t.Errorf("dT=%v: curve %v, direct %v", p.DeltaT, p.Output, q)
		}
	}
	if _, err := Default().Curve(150, 0.1, 0, 40, 1); err == nil {
		t.Error("expected error for a single point")
	}
}

func TestCoefficientsRoundTrip(t *testing.T) {
	set := BuiltinCoefficients()
	set[100] = Coefficients{
		Slope:  Quadratic{A: 1.0 / 3, B: -math.Pi, C: math.Nextafter(6.66, 7)},
		Offset: Quadratic{A: 1e-17, B: -197.8043, C: 33.31581},
	}

	var buf bytes.Buffer
	if err := WriteCoefficients(&buf, set); err != nil {
		t.Fatal(err)
	}
	got, err := ReadCoefficients(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(set) {
		t.Fatalf("got %d spacings, want %d", len(got), len(set))
	}
	for k, v := range set {
		if got[k] != v {
			t.Errorf("%v: got %+v, want %+v", k, got[k], v)
		}
	}

	path := filepath.Join(t.TempDir(), "coefficients.yaml")
	if err := SaveCoefficientsFile(path, set); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadCoefficientsFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded[100] != set[100] {
		t.Errorf("file round trip: got %+v, want %+v", loaded[100], set[100])
	}
}

func TestReadCoefficientsEmpty(t *testing.T) {
	if _, err := ReadCoefficients(bytes.NewBufferString("spacings: {}\n")); err == nil {
		t.Error("expected error")
	}
}
