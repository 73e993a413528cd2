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
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type coefficientFile struct {
	Spacings map[PipeSpacing]Coefficients `yaml:"spacings"`
}

// WriteCoefficients encodes set as YAML. Floats are written with full
// precision so that a read returns bit-identical values.
func WriteCoefficients(w io.Writer, set CoefficientSet) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(coefficientFile{Spacings: set}); err != nil {
		return errors.Wrap(err, "failed to encode coefficients")
	}
	return enc.Close()
}

// ReadCoefficients decodes a set written by WriteCoefficients.
func ReadCoefficients(r io.Reader) (CoefficientSet, error) {
	var f coefficientFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, errors.Wrap(err, "failed to decode coefficients")
	}
	if len(f.Spacings) == 0 {
		return nil, errors.New("no spacings in coefficient file")
	}
	return CoefficientSet(f.Spacings), nil
}

// SaveCoefficientsFile writes set to path, replacing any existing file.
func SaveCoefficientsFile(path string, set CoefficientSet) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrap(err, "failed to create coefficient file")
	}
	if err := WriteCoefficients(f, set); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, "failed to close coefficient file")
	}
	return errors.Wrap(os.Rename(tmp, path), "failed to replace coefficient file")
}

// LoadCoefficientsFile reads a coefficient file from path.
func LoadCoefficientsFile(path string) (CoefficientSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open coefficient file")
	}
	defer f.Close()
	return ReadCoefficients(f)
}
