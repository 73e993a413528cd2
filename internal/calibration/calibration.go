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

// Package calibration is the offline job that regenerates the heat output
// coefficients from a reference table.
package calibration

import (
	"context"
	"io"

	"github.com/antst/ufhout/internal/logger"
	"github.com/antst/ufhout/internal/reference"
	"github.com/antst/ufhout/internal/regression"
	"github.com/antst/ufhout/internal/store"
	"github.com/antst/ufhout/pkg/heatoutput"

	"github.com/pkg/errors"
)

type Options struct {
	TablePath        string
	Grid             reference.Grid
	TolerancePercent float64
	// CoefficientsFile is written when not empty.
	CoefficientsFile string
}

// RunStore persists finished calibrations.
type RunStore interface {
	SaveRun(ctx context.Context, run *store.Run) error
}

type Result struct {
	Calibration  *regression.Calibration
	Verification []regression.Verification
	Run          *store.Run
}

// Run loads the table, fits every spacing, verifies the fit against the
// table and writes the report to w. Nothing is persisted unless every
// spacing fitted.
func Run(ctx context.Context, opts Options, st RunStore, w io.Writer) (*Result, error) {
	logger.L().Infof("Loading reference table `%s`", opts.TablePath)
	table, err := reference.LoadFile(opts.TablePath, opts.Grid)
	if err != nil {
		return nil, err
	}
	return runTable(ctx, opts, table, st, w)
}

func runTable(ctx context.Context, opts Options, table *reference.Table, st RunStore, w io.Writer) (*Result, error) {
	cal, err := regression.Calibrate(table, opts.Grid)
	if err != nil {
		return nil, err
	}
	model, err := cal.Model()
	if err != nil {
		return nil, err
	}
	ver, err := regression.Verify(table, model)
	if err != nil {
		return nil, errors.WithMessage(err, "verification failed")
	}

	for _, v := range ver {
		if v.MaxRelError > opts.TolerancePercent {
			logger.L().Warnf(
				"Spacing %v: max relative error %.2f%% exceeds %.2f%% at R=%.2f, flow=%g, room=%g (table %.1f, model %.1f)",
				v.Spacing, v.MaxRelError, opts.TolerancePercent, v.Worst.RValue, v.Worst.FlowTemp, v.Worst.RoomTemp,
				v.Worst.WattOutput, v.WorstModel,
			)
		}
	}

	if err := WriteReport(w, cal, ver); err != nil {
		return nil, errors.Wrap(err, "failed to write report")
	}

	res := &Result{Calibration: cal, Verification: ver, Run: store.NewRun(opts.TablePath, cal)}

	if opts.CoefficientsFile != "" {
		if err := heatoutput.SaveCoefficientsFile(opts.CoefficientsFile, res.Run.Coefficients); err != nil {
			return nil, err
		}
		logger.L().Infof("Coefficients written to `%s`", opts.CoefficientsFile)
	}
	if st != nil {
		if err := st.SaveRun(ctx, res.Run); err != nil {
			return nil, err
		}
		logger.L().Infof("Calibration run %s stored", res.Run.ID)
	}
	return res, nil
}
