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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/antst/ufhout/pkg/heatoutput"

	"github.com/pkg/errors"
)

func smallGrid() Grid {
	return Grid{RValues: []float64{0.00, 0.10}, Spacings: []heatoutput.PipeSpacing{100, 150}}
}

func buildCSV(grid Grid, flows, rooms []float64, output func(r float64, s heatoutput.PipeSpacing, dT float64) string) string {
	var b strings.Builder
	b.WriteString("flow_temp,room_temp")
	for _, r := range grid.RValues {
		for _, s := range grid.Spacings {
			prefix, _ := ColumnPrefix(r, s)
			fmt.Fprintf(&b, ",%s_output,%s_temp", prefix, prefix)
		}
	}
	b.WriteString("\n")
	for _, f := range flows {
		for _, rm := range rooms {
			fmt.Fprintf(&b, "%g,%g", f, rm)
			for _, r := range grid.RValues {
				for _, s := range grid.Spacings {
					fmt.Fprintf(&b, ",%s,%g", output(r, s, f-rm), rm+3)
				}
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func linearOutput(r float64, s heatoutput.PipeSpacing, dT float64) string {
	return fmt.Sprintf("%g", float64(s)/10*dT-r*100)
}

func TestColumnPrefix(t *testing.T) {
	cases := []struct {
		r       float64
		spacing heatoutput.PipeSpacing
		want    string
	}{
		{0.10, 150, "010_150"},
		{0.00, 100, "000_100"},
		{0.15, 300, "015_300"},
		{0.05, 250, "005_250"},
	}
	for _, c := range cases {
		got, err := ColumnPrefix(c.r, c.spacing)
		if err != nil {
			t.Fatal(err)
		}
		if got != c.want {
			t.Errorf("ColumnPrefix(%v, %v) = %q, want %q", c.r, c.spacing, got, c.want)
		}
	}
}

func TestRPercentRejectsUnaligned(t *testing.T) {
	for _, r := range []float64{0.075, -0.05, 0.001, math.NaN()} {
		_, err := RPercent(r)
		var target *UnalignedRValueError
		if !errors.As(err, &target) {
			t.Errorf("R=%v: expected UnalignedRValueError, got %v", r, err)
		}
	}
}

func TestLoad(t *testing.T) {
	grid := smallGrid()
	src := buildCSV(grid, []float64{35, 45}, []float64{18, 20, 22}, linearOutput)

	tbl, err := Load(strings.NewReader(src), grid)
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Len() != 2*3*4 {
		t.Errorf("got %d samples, want 24", tbl.Len())
	}

	rd, ok := tbl.Lookup(0.10, 150, 45, 20)
	if !ok {
		t.Fatal("expected a reading at R=0.10, 150mm, 45/20")
	}
	if rd.WattOutput != 15*25-10 || rd.SurfaceTemp != 23 {
		t.Errorf("unexpected reading: %+v", rd)
	}

	series := tbl.Series(0.00, 100)
	if len(series) != 6 {
		t.Fatalf("got %d samples, want 6", len(series))
	}
	if series[0].FlowTemp != 35 || series[0].RoomTemp != 18 || series[5].FlowTemp != 45 || series[5].RoomTemp != 22 {
		t.Errorf("series not in row order: %+v", series)
	}
	if series[1].DeltaT() != 15 {
		t.Errorf("unexpected dT: %v", series[1].DeltaT())
	}

	if _, ok := tbl.Lookup(0.05, 150, 45, 20); ok {
		t.Error("lookup outside the grid must miss")
	}
}

func TestLoadMissingColumn(t *testing.T) {
	grid := smallGrid()
	src := buildCSV(grid, []float64{35}, []float64{20}, linearOutput)
	src = strings.Replace(src, "010_150_temp", "010_150_surface", 1)

	_, err := Load(strings.NewReader(src), grid)
	var target *MissingColumnError
	if !errors.As(err, &target) {
		t.Fatalf("expected MissingColumnError, got %v", err)
	}
	if target.Column != "010_150_temp" || target.Spacing != 150 || target.RValue != 0.10 {
		t.Errorf("unexpected error details: %+v", target)
	}
}

func TestLoadMissingTemperatureColumn(t *testing.T) {
	_, err := Load(strings.NewReader("flow,room_temp\n35,20\n"), smallGrid())
	var target *MissingColumnError
	if !errors.As(err, &target) || target.Column != "flow_temp" {
		t.Fatalf("expected MissingColumnError for flow_temp, got %v", err)
	}
}

func TestLoadSkipsEmptyCells(t *testing.T) {
	grid := Grid{RValues: []float64{0.10}, Spacings: []heatoutput.PipeSpacing{200}}
	src := "flow_temp,room_temp,010_200_output,010_200_temp\n" +
		"35,20,30.5,24.1\n" +
		"40,20,,\n" +
		"45,20,51.0,\n" +
		",,1,1\n"
	tbl, err := Load(strings.NewReader(src), grid)
	if err != nil {
		t.Fatal(err)
	}
	series := tbl.Series(0.10, 200)
	if len(series) != 2 {
		t.Fatalf("got %d samples, want 2", len(series))
	}
	if !math.IsNaN(series[1].SurfaceTemp) {
		t.Errorf("missing surface temperature should be NaN, got %v", series[1].SurfaceTemp)
	}
}

func TestLoadBadNumber(t *testing.T) {
	grid := Grid{RValues: []float64{0.10}, Spacings: []heatoutput.PipeSpacing{200}}
	src := "flow_temp,room_temp,010_200_output,010_200_temp\n35,20,abc,24\n"
	if _, err := Load(strings.NewReader(src), grid); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadRejectsBadGrid(t *testing.T) {
	grids := []Grid{
		{RValues: []float64{0.075}, Spacings: []heatoutput.PipeSpacing{100}},
		{RValues: []float64{0.10, 0.10}, Spacings: []heatoutput.PipeSpacing{100}},
		{RValues: []float64{0.10}, Spacings: []heatoutput.PipeSpacing{100, 100}},
		{RValues: []float64{0.10}},
	}
	for _, g := range grids {
		if _, err := Load(strings.NewReader("flow_temp,room_temp\n"), g); err == nil {
			t.Errorf("grid %+v: expected error", g)
		}
	}
}

func TestLoadFile(t *testing.T) {
	grid := smallGrid()
	path := filepath.Join(t.TempDir(), "table.csv")
	if err := os.WriteFile(path, []byte(buildCSV(grid, []float64{40}, []float64{20}, linearOutput)), 0o644); err != nil {
		t.Fatal(err)
	}
	tbl, err := LoadFile(path, grid)
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Len() != 4 {
		t.Errorf("got %d samples, want 4", tbl.Len())
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.csv"), grid); err == nil {
		t.Error("expected error for absent file")
	}
}
