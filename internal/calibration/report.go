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
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/antst/ufhout/internal/regression"
	"github.com/antst/ufhout/pkg/heatoutput"
)

func full(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func fullQuadratic(name string, q heatoutput.Quadratic) string {
	return fmt.Sprintf("%s = %s*R*R + %s*R + %s", name, full(q.A), full(q.B), full(q.C))
}

// WriteReport prints the per-spacing fits. The rounded lines are for
// reading, the full-precision lines are the values to keep.
func WriteReport(w io.Writer, cal *regression.Calibration, ver []regression.Verification) error {
	bw := bufio.NewWriter(w)
	byspacing := make(map[heatoutput.PipeSpacing]regression.Verification, len(ver))
	for _, v := range ver {
		byspacing[v.Spacing] = v
	}

	for _, sf := range cal.Spacings {
		fmt.Fprintf(bw, "\n=== Quadratic fit for spacing=%d ===\n", int(sf.Spacing))
		for _, lf := range sf.Linear {
			fmt.Fprintf(
				bw, "R=%0.2f, spacing=%d:  m_i=%8.4f,  c_i=%8.4f  (r2=%.4f, n=%d)\n",
				lf.RValue, int(lf.Spacing), lf.Slope, lf.Offset, lf.RSquared, lf.Points,
			)
		}

		fmt.Fprintf(bw, "\nQuadratic for m(R):\nm = %s\n", sf.Coefficients.Slope)
		fmt.Fprintf(bw, "\nQuadratic for c(R):\nc = %s\n", sf.Coefficients.Offset)
		fmt.Fprintf(bw, "\nFull precision:\n%s\n%s\n",
			fullQuadratic("m", sf.Coefficients.Slope), fullQuadratic("c", sf.Coefficients.Offset))

		if v, ok := byspacing[sf.Spacing]; ok {
			fmt.Fprintf(
				bw, "\nVerification: %d samples, max abs error %.3f W/m², max rel error %.2f%%, rms %.3f W/m²\n",
				v.Samples, v.MaxAbsError, v.MaxRelError, v.RMSError,
			)
		}
	}
	return bw.Flush()
}
