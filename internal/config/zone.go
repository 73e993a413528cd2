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

const (
	zoneDefaultArea = 1.0
)

// ZoneConfig describes one heated floor area.
type ZoneConfig struct {
	PipeSpacing        int             `yaml:"pipe_spacing"`
	RValue             *float64        `yaml:"r_value"`
	Area               *float64        `yaml:"area"`
	SensorsAverageType string          `yaml:"sensors_average_type"`
	FlowSensors        []*SensorConfig `yaml:"flow_sensors"`
	RoomSensors        []*SensorConfig `yaml:"room_sensors"`
	OutputTopic        string          `yaml:"output_topic,omitempty"`
}

func (z *ZoneConfig) FillDefaults() {
	if z.SensorsAverageType == "" {
		z.SensorsAverageType = DefaultAverageType
	}
	if z.RValue == nil {
		z.RValue = GetPTR(0.0)
	}
	if z.Area == nil {
		z.Area = GetPTR(zoneDefaultArea)
	}
	for _, s := range z.FlowSensors {
		s.FillDefaults()
	}
	for _, s := range z.RoomSensors {
		s.FillDefaults()
	}
}

func NewZoneConfig() *ZoneConfig {
	z := &ZoneConfig{
		FlowSensors: make([]*SensorConfig, 0),
		RoomSensors: make([]*SensorConfig, 0),
	}
	z.FillDefaults()
	return z
}
