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

package store

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/antst/ufhout/internal/regression"
	"github.com/antst/ufhout/pkg/heatoutput"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Run is one persisted calibration.
type Run struct {
	ID           uuid.UUID
	CreatedAt    time.Time
	TablePath    string
	RValues      []float64
	Spacings     []heatoutput.PipeSpacing
	Linear       []regression.LinearFit
	Coefficients heatoutput.CoefficientSet
}

// NewRun captures a calibration result under a fresh ID.
func NewRun(tablePath string, cal *regression.Calibration) *Run {
	r := &Run{
		ID:           uuid.New(),
		CreatedAt:    time.Now().UTC(),
		TablePath:    tablePath,
		RValues:      append([]float64(nil), cal.Grid.RValues...),
		Spacings:     append([]heatoutput.PipeSpacing(nil), cal.Grid.Spacings...),
		Coefficients: cal.CoefficientSet(),
	}
	for _, s := range cal.Spacings {
		r.Linear = append(r.Linear, s.Linear...)
	}
	return r
}

type runRow struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	TablePath string    `db:"table_path"`
	RValues   string    `db:"r_values"`
	Spacings  string    `db:"spacings"`
}

type linearRow struct {
	RunID    uuid.UUID `db:"run_id"`
	Spacing  int       `db:"spacing"`
	RValue   float64   `db:"r_value"`
	Slope    float64   `db:"slope"`
	Offset   float64   `db:"offset_ci"`
	RSquared float64   `db:"r_squared"`
	Points   int       `db:"points"`
}

type coefficientRow struct {
	RunID   uuid.UUID `db:"run_id"`
	Spacing int       `db:"spacing"`
	SlopeA  float64   `db:"slope_a"`
	SlopeB  float64   `db:"slope_b"`
	SlopeC  float64   `db:"slope_c"`
	OffsetA float64   `db:"offset_a"`
	OffsetB float64   `db:"offset_b"`
	OffsetC float64   `db:"offset_c"`
}

func (r coefficientRow) coefficients() heatoutput.Coefficients {
	return heatoutput.Coefficients{
		Slope:  heatoutput.Quadratic{A: r.SlopeA, B: r.SlopeB, C: r.SlopeC},
		Offset: heatoutput.Quadratic{A: r.OffsetA, B: r.OffsetB, C: r.OffsetC},
	}
}

func joinFloats(v []float64) string {
	s := make([]string, len(v))
	for i, f := range v {
		s[i] = strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strings.Join(s, ",")
}

func splitFloats(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ret := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, err
		}
		ret[i] = v
	}
	return ret, nil
}

func joinSpacings(v []heatoutput.PipeSpacing) string {
	s := make([]string, len(v))
	for i, sp := range v {
		s[i] = strconv.Itoa(int(sp))
	}
	return strings.Join(s, ",")
}

func splitSpacings(s string) ([]heatoutput.PipeSpacing, error) {
	f, err := splitFloats(s)
	if err != nil {
		return nil, err
	}
	ret := make([]heatoutput.PipeSpacing, len(f))
	for i, v := range f {
		ret[i] = heatoutput.PipeSpacing(v)
	}
	return ret, nil
}

// SaveRun stores a run with all its fits in one transaction.
func (s *Store) SaveRun(ctx context.Context, run *Run) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO calibration_runs (id, created_at, table_path, r_values, spacings)
		VALUES (:id, :created_at, :table_path, :r_values, :spacings)`,
		runRow{
			ID:        run.ID,
			CreatedAt: run.CreatedAt,
			TablePath: run.TablePath,
			RValues:   joinFloats(run.RValues),
			Spacings:  joinSpacings(run.Spacings),
		},
	); err != nil {
		return errors.Wrap(err, "failed to insert calibration run")
	}

	for _, lf := range run.Linear {
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO linear_fits (run_id, spacing, r_value, slope, offset_ci, r_squared, points)
			VALUES (:run_id, :spacing, :r_value, :slope, :offset_ci, :r_squared, :points)`,
			linearRow{
				RunID:    run.ID,
				Spacing:  int(lf.Spacing),
				RValue:   lf.RValue,
				Slope:    lf.Slope,
				Offset:   lf.Offset,
				RSquared: lf.RSquared,
				Points:   lf.Points,
			},
		); err != nil {
			return errors.Wrapf(err, "failed to insert linear fit %v R=%.2f", lf.Spacing, lf.RValue)
		}
	}

	for _, sp := range run.Coefficients.Spacings() {
		c := run.Coefficients[sp]
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO coefficients (run_id, spacing, slope_a, slope_b, slope_c, offset_a, offset_b, offset_c)
			VALUES (:run_id, :spacing, :slope_a, :slope_b, :slope_c, :offset_a, :offset_b, :offset_c)`,
			coefficientRow{
				RunID:   run.ID,
				Spacing: int(sp),
				SlopeA:  c.Slope.A, SlopeB: c.Slope.B, SlopeC: c.Slope.C,
				OffsetA: c.Offset.A, OffsetB: c.Offset.B, OffsetC: c.Offset.C,
			},
		); err != nil {
			return errors.Wrapf(err, "failed to insert coefficients for %v", sp)
		}
	}

	return errors.Wrap(tx.Commit(), "failed to commit calibration run")
}

// ListRuns returns run headers, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	var rows []runRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT id, created_at, table_path, r_values, spacings FROM calibration_runs ORDER BY rowid DESC`,
	); err != nil {
		return nil, errors.Wrap(err, "failed to list calibration runs")
	}
	ret := make([]Run, 0, len(rows))
	for _, row := range rows {
		r, err := row.run()
		if err != nil {
			return nil, err
		}
		ret = append(ret, *r)
	}
	return ret, nil
}

func (row runRow) run() (*Run, error) {
	rv, err := splitFloats(row.RValues)
	if err != nil {
		return nil, errors.Wrapf(err, "run %s: bad r_values", row.ID)
	}
	sp, err := splitSpacings(row.Spacings)
	if err != nil {
		return nil, errors.Wrapf(err, "run %s: bad spacings", row.ID)
	}
	return &Run{ID: row.ID, CreatedAt: row.CreatedAt, TablePath: row.TablePath, RValues: rv, Spacings: sp}, nil
}

// GetRun loads a full run.
func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	var row runRow
	if err := s.db.GetContext(ctx, &row, `
		SELECT id, created_at, table_path, r_values, spacings FROM calibration_runs WHERE id = ?`, id,
	); err != nil {
		return nil, notFound(err)
	}
	return s.fillRun(ctx, row)
}

// LatestRun loads the most recently saved run.
func (s *Store) LatestRun(ctx context.Context) (*Run, error) {
	var row runRow
	if err := s.db.GetContext(ctx, &row, `
		SELECT id, created_at, table_path, r_values, spacings FROM calibration_runs ORDER BY rowid DESC LIMIT 1`,
	); err != nil {
		return nil, notFound(err)
	}
	return s.fillRun(ctx, row)
}

// LatestCoefficients returns the coefficient set of the newest run.
func (s *Store) LatestCoefficients(ctx context.Context) (heatoutput.CoefficientSet, error) {
	run, err := s.LatestRun(ctx)
	if err != nil {
		return nil, err
	}
	return run.Coefficients, nil
}

func (s *Store) fillRun(ctx context.Context, row runRow) (*Run, error) {
	run, err := row.run()
	if err != nil {
		return nil, err
	}

	var lin []linearRow
	if err := s.db.SelectContext(ctx, &lin, `
		SELECT run_id, spacing, r_value, slope, offset_ci, r_squared, points
		FROM linear_fits WHERE run_id = ? ORDER BY rowid`, row.ID,
	); err != nil {
		return nil, errors.Wrap(err, "failed to load linear fits")
	}
	for _, l := range lin {
		run.Linear = append(run.Linear, regression.LinearFit{
			Spacing:  heatoutput.PipeSpacing(l.Spacing),
			RValue:   l.RValue,
			Slope:    l.Slope,
			Offset:   l.Offset,
			RSquared: l.RSquared,
			Points:   l.Points,
		})
	}

	var coeffs []coefficientRow
	if err := s.db.SelectContext(ctx, &coeffs, `
		SELECT run_id, spacing, slope_a, slope_b, slope_c, offset_a, offset_b, offset_c
		FROM coefficients WHERE run_id = ?`, row.ID,
	); err != nil {
		return nil, errors.Wrap(err, "failed to load coefficients")
	}
	run.Coefficients = make(heatoutput.CoefficientSet, len(coeffs))
	for _, c := range coeffs {
		run.Coefficients[heatoutput.PipeSpacing(c.Spacing)] = c.coefficients()
	}
	return run, nil
}
