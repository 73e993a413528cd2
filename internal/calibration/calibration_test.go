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

package calibration

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/antst/ufhout/internal/reference"
	"github.com/antst/ufhout/internal/store"
	"github.com/antst/ufhout/pkg/heatoutput"

	"github.com/pkg/errors"
)

func writeTable(t *testing.T, grid reference.Grid, set heatoutput.CoefficientSet, drop string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("flow_temp,room_temp")
	for _, r := range grid.RValues {
		for _, s := range grid.Spacings {
			prefix, _ := reference.ColumnPrefix(r, s)
			for _, suffix := range []string{"_output", "_temp"} {
				name := prefix + suffix
				if name == drop {
					name = "unused"
				}
				fmt.Fprintf(&b, ",%s", name)
			}
		}
	}
	b.WriteString("\n")
	for _, f := range []float64{35, 45, 55} {
		for _, rm := range []float64{18, 22} {
			fmt.Fprintf(&b, "%g,%g", f, rm)
			for _, r := range grid.RValues {
				for _, s := range grid.Spacings {
					m, c := set[s].At(r)
					q := m*(f-rm) - c
					fmt.Fprintf(&b, ",%s,%.1f", strconv.FormatFloat(q, 'g', -1, 64), rm+q/9)
				}
			}
			b.WriteString("\n")
		}
	}

	path := filepath.Join(t.TempDir(), "table.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

type memStore struct {
	runs []*store.Run
}

func (m *memStore) SaveRun(_ context.Context, run *store.Run) error {
	m.runs = append(m.runs, run)
	return nil
}

func TestRun(t *testing.T) {
	grid := reference.DefaultGrid()
	builtin := heatoutput.BuiltinCoefficients()
	coeffPath := filepath.Join(t.TempDir(), "coefficients.yaml")
	st := &memStore{}
	var report bytes.Buffer

	res, err := Run(context.Background(), Options{
		TablePath:        writeTable(t, grid, builtin, ""),
		Grid:             grid,
		TolerancePercent: 2,
		CoefficientsFile: coeffPath,
	}, st, &report)
	if err != nil {
		t.Fatal(err)
	}

	if len(st.runs) != 1 || st.runs[0] != res.Run {
		t.Fatalf("run not stored: %+v", st.runs)
	}
	if len(res.Run.Linear) != len(grid.RValues)*len(grid.Spacings) {
		t.Errorf("got %d linear fits", len(res.Run.Linear))
	}

	saved, err := heatoutput.LoadCoefficientsFile(coeffPath)
	if err != nil {
		t.Fatal(err)
	}
	for k, v := range res.Run.Coefficients {
		if saved[k] != v {
			t.Errorf("%v: file %+v, run %+v", k, saved[k], v)
		}
	}

	model, err := heatoutput.NewModel(saved)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range grid.Spacings {
		got, _ := model.HeatOutput(s, 0.07, heatoutput.DeltaT(27))
		want, _ := heatoutput.HeatOutput(s, 0.07, heatoutput.DeltaT(27))
		if d := got - want; d > 1e-6 || d < -1e-6 {
			t.Errorf("%v: recalibrated model %v, builtin %v", s, got, want)
		}
	}

	out := report.String()
	for _, want := range []string{
		"=== Quadratic fit for spacing=150 ===",
		"R=0.10, spacing=150:  m_i=",
		"Quadratic for m(R):\nm = 86.6934*R*R + -31.5422*R + 5.74376",
		"Verification: 24 samples",
		"Full precision:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report lacks %q:\n%s", want, out)
		}
	}
}

func TestRunMissingColumnPublishesNothing(t *testing.T) {
	grid := reference.DefaultGrid()
	coeffPath := filepath.Join(t.TempDir(), "coefficients.yaml")
	st := &memStore{}

	_, err := Run(context.Background(), Options{
		TablePath:        writeTable(t, grid, heatoutput.BuiltinCoefficients(), "015_250_output"),
		Grid:             grid,
		TolerancePercent: 2,
		CoefficientsFile: coeffPath,
	}, st, &bytes.Buffer{})

	var target *reference.MissingColumnError
	if !errors.As(err, &target) {
		t.Fatalf("expected MissingColumnError, got %v", err)
	}
	if len(st.runs) != 0 {
		t.Error("no run may be stored")
	}
	if _, err := os.Stat(coeffPath); !os.IsNotExist(err) {
		t.Error("no coefficient file may be written")
	}
}

func TestRunWithSQLiteStore(t *testing.T) {
	grid := reference.Grid{RValues: []float64{0, 0.05, 0.10, 0.15}, Spacings: []heatoutput.PipeSpacing{200}}
	st, err := store.Open(filepath.Join(t.TempDir(), "ufhout.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	res, err := Run(context.Background(), Options{
		TablePath:        writeTable(t, grid, heatoutput.BuiltinCoefficients(), ""),
		Grid:             grid,
		TolerancePercent: 2,
	}, st, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}

	set, err := st.LatestCoefficients(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if set[200] != res.Run.Coefficients[200] {
		t.Errorf("stored %+v, computed %+v", set[200], res.Run.Coefficients[200])
	}
}
