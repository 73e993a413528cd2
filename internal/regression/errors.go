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
	"strings"

	"github.com/antst/ufhout/pkg/heatoutput"
)

const (
	StageLinear    = "linear"
	StageQuadratic = "quadratic"
)

// FitError reports an underdetermined or rank-deficient fit. Spacing and
// RValue are filled in when the failing fit is tied to a table location.
type FitError struct {
	Stage   string
	Spacing heatoutput.PipeSpacing
	RValue  *float64
	Reason  string
	Err     error
}

func (e *FitError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s fit failed", e.Stage)
	if e.Spacing != 0 {
		fmt.Fprintf(&b, " for spacing=%v", e.Spacing)
	}
	if e.RValue != nil {
		fmt.Fprintf(&b, " R=%.2f", *e.RValue)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *FitError) Unwrap() error {
	return e.Err
}

func locate(err error, spacing heatoutput.PipeSpacing, rValue *float64) error {
	fe, ok := err.(*FitError)
	if !ok {
		return err
	}
	located := *fe
	located.Spacing = spacing
	if rValue != nil {
		r := *rValue
		located.RValue = &r
	}
	return &located
}

func distinct(x []float64) int {
	seen := make(map[float64]struct{}, len(x))
	for _, v := range x {
		seen[v] = struct{}{}
	}
	return len(seen)
}
