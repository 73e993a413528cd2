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
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/antst/ufhout/internal/logger"
	"github.com/antst/ufhout/pkg/heatoutput"

	"github.com/pkg/errors"
)

const (
	flowTempColumn = "flow_temp"
	roomTempColumn = "room_temp"
	outputSuffix   = "_output"
	surfaceSuffix  = "_temp"
)

// MissingColumnError reports a column the grid requires but the source lacks.
type MissingColumnError struct {
	Column  string
	RValue  float64
	Spacing heatoutput.PipeSpacing
}

func (e *MissingColumnError) Error() string {
	if e.Spacing == 0 {
		return fmt.Sprintf("missing column `%s`", e.Column)
	}
	return fmt.Sprintf("missing column `%s` for R=%.2f, spacing=%v", e.Column, e.RValue, e.Spacing)
}

type columnPair struct {
	rValue   float64
	rPercent int
	spacing  heatoutput.PipeSpacing
	output   int
	surface  int
}

// LoadFile loads a reference table from a CSV file.
func LoadFile(path string, grid Grid) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open reference table")
	}
	defer f.Close()

	t, err := Load(f, grid)
	if err != nil {
		return nil, errors.WithMessage(err, path)
	}
	return t, nil
}

// Load reads a reference table in CSV form. Every (R, spacing) pair of grid
// must have both its output and surface temperature column. Empty output
// cells are skipped.
func Load(r io.Reader, grid Grid) (*Table, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read header")
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}

	flowIdx, ok := cols[flowTempColumn]
	if !ok {
		return nil, &MissingColumnError{Column: flowTempColumn}
	}
	roomIdx, ok := cols[roomTempColumn]
	if !ok {
		return nil, &MissingColumnError{Column: roomTempColumn}
	}

	pairs := make([]columnPair, 0, len(grid.RValues)*len(grid.Spacings))
	for _, rv := range grid.RValues {
		p, _ := RPercent(rv)
		for _, s := range grid.Spacings {
			prefix, _ := ColumnPrefix(rv, s)
			out, ok := cols[prefix+outputSuffix]
			if !ok {
				return nil, &MissingColumnError{Column: prefix + outputSuffix, RValue: rv, Spacing: s}
			}
			surf, ok := cols[prefix+surfaceSuffix]
			if !ok {
				return nil, &MissingColumnError{Column: prefix + surfaceSuffix, RValue: rv, Spacing: s}
			}
			pairs = append(pairs, columnPair{rValue: rv, rPercent: p, spacing: s, output: out, surface: surf})
		}
	}

	t := newTable(grid)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read row %d", line)
		}

		flow, okF, err := parseCell(rec, flowIdx)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d, column `%s`", line, flowTempColumn)
		}
		room, okR, err := parseCell(rec, roomIdx)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d, column `%s`", line, roomTempColumn)
		}
		if !okF || !okR {
			logger.L().Debugf("Skipping row %d without flow/room temperature", line)
			continue
		}

		for _, cp := range pairs {
			out, ok, err := parseCell(rec, cp.output)
			if err != nil {
				return nil, errors.Wrapf(err, "row %d, column `%s`", line, header[cp.output])
			}
			if !ok {
				continue
			}
			surf, ok, err := parseCell(rec, cp.surface)
			if err != nil {
				return nil, errors.Wrapf(err, "row %d, column `%s`", line, header[cp.surface])
			}
			if !ok {
				surf = math.NaN()
			}
			t.add(cp.rPercent, Sample{
				RValue:   cp.rValue,
				Spacing:  cp.spacing,
				FlowTemp: flow,
				RoomTemp: room,
				Reading:  Reading{WattOutput: out, SurfaceTemp: surf},
			})
		}
	}

	logger.L().Debugf("Loaded %d reference samples", t.Len())
	return t, nil
}

func parseCell(rec []string, idx int) (float64, bool, error) {
	s := strings.TrimSpace(rec[idx])
	if s == "" || strings.EqualFold(s, "nan") {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}
