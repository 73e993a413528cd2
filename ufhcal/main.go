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

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/antst/ufhout/internal/calibration"
	"github.com/antst/ufhout/internal/config"
	"github.com/antst/ufhout/internal/logger"
	"github.com/antst/ufhout/internal/store"

	"github.com/pborman/getopt/v2"
)

// Build version, overridden with flag during build.
var version = "devel"

func main() {
	listRuns := getopt.BoolLong("list-runs", 'r', "list stored calibration runs and exit")
	cfg := config.Get()
	defer logger.Close()

	logger.L().Infof("UFH heat output calibration, version: %+v", version)

	st, err := store.Open(cfg.DBFile)
	if err != nil {
		logger.L().Fatal(err)
	}
	defer st.Close()

	ctx := context.Background()
	if *listRuns {
		if err := printRuns(ctx, st); err != nil {
			logger.L().Fatal(err)
		}
		return
	}

	opts := calibration.Options{
		TablePath:        cfg.Calibration.Table,
		Grid:             cfg.Calibration.Grid(),
		TolerancePercent: *cfg.Calibration.TolerancePercent,
		CoefficientsFile: cfg.CoefficientsFile,
	}
	res, err := calibration.Run(ctx, opts, st, os.Stdout)
	if err != nil {
		logger.L().Fatalf("Calibration failed: %+v", err)
	}
	logger.L().Infof("Stored calibration run %v", res.Run.ID)
}

func printRuns(ctx context.Context, st *store.Store) error {
	runs, err := st.ListRuns(ctx)
	if err != nil {
		return err
	}
	for _, r := range runs {
		spacings := make([]string, len(r.Spacings))
		for i, s := range r.Spacings {
			spacings[i] = s.String()
		}
		fmt.Printf("%v  %s  %s  R=%v  [%s]\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.TablePath, r.RValues, strings.Join(spacings, " "))
	}
	return nil
}
