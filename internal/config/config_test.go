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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/antst/ufhout/pkg/heatoutput"

	"go.uber.org/zap/zapcore"
)

const sampleConfig = `
log_level: debug
db_file: /var/lib/ufhout/ufhout.db
calibration:
  table: tables/solid.csv
  r_values: [0.15, 0.10, 0.05, 0.00]
mqtt:
  url: tcp://broker:1883
zones:
  lounge:
    pipe_spacing: 150
    r_value: 0.1
    area: 22.5
    flow_sensors:
      - topic: boiler/flow
        json_entry: temperature
    room_sensors:
      - topic: lounge/temp
        offset: -0.5
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != zapcore.DebugLevel {
		t.Errorf("log level: %v", cfg.LogLevel)
	}
	if cfg.DBFile != "/var/lib/ufhout/ufhout.db" || cfg.CoefficientsFile != defaultCoefficientsFile {
		t.Errorf("files: %v %v", cfg.DBFile, cfg.CoefficientsFile)
	}
	if cfg.MQTTConfig.URL != "tcp://broker:1883" || cfg.MQTTConfig.ControlTopic != defaultControlTopic {
		t.Errorf("mqtt: %+v", cfg.MQTTConfig)
	}

	grid := cfg.Calibration.Grid()
	if len(grid.RValues) != 4 || grid.RValues[0] != 0.15 || grid.RValues[3] != 0 {
		t.Errorf("R-value declaration order not kept: %v", grid.RValues)
	}
	if len(grid.Spacings) != len(heatoutput.SupportedSpacings) {
		t.Errorf("default spacings not filled: %v", grid.Spacings)
	}
	if *cfg.Calibration.TolerancePercent != defaultTolerance {
		t.Errorf("tolerance: %v", *cfg.Calibration.TolerancePercent)
	}

	z, ok := cfg.Zones["lounge"]
	if !ok {
		t.Fatal("zone lounge missing")
	}
	if z.PipeSpacing != 150 || *z.RValue != 0.1 || *z.Area != 22.5 || z.SensorsAverageType != DefaultAverageType {
		t.Errorf("zone: %+v", z)
	}
	if *z.FlowSensors[0].JSONEntry != "temperature" || *z.FlowSensors[0].Scale != 1 {
		t.Errorf("flow sensor: %+v", z.FlowSensors[0])
	}
	if *z.RoomSensors[0].Offset != -0.5 || *z.RoomSensors[0].Weight != 1 {
		t.Errorf("room sensor: %+v", z.RoomSensors[0])
	}
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Calibration.Table != defaultTable || cfg.DBFile != defaultDBFile {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.Calibration.Grid().Validate(); err != nil {
		t.Errorf("default grid invalid: %v", err)
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("zones: [1, 2"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error")
	}
}

func TestNewZoneConfig(t *testing.T) {
	z := NewZoneConfig()
	if *z.RValue != 0 || *z.Area != zoneDefaultArea || z.SensorsAverageType != DefaultAverageType {
		t.Errorf("unexpected defaults: %+v", z)
	}
}
