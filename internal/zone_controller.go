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

package internal

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/antst/ufhout/internal/config"
	"github.com/antst/ufhout/internal/logger"
	"github.com/antst/ufhout/internal/safe_mqtt"
	"github.com/antst/ufhout/pkg/heatoutput"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	paramRValue      = "r_value"
	paramPipeSpacing = "pipe_spacing"
	paramArea        = "area"
	paramAverageType = "sensors_average_type"
)

// ZoneReport is published on the zone output topic.
type ZoneReport struct {
	Zone        string  `json:"zone"`
	PipeSpacing int     `json:"pipe_spacing"`
	RValue      float64 `json:"r_value"`
	Area        float64 `json:"area"`
	FlowTemp    float64 `json:"flow_temp"`
	RoomTemp    float64 `json:"room_temp"`
	DeltaT      float64 `json:"delta_t"`
	WattPerM2   float64 `json:"watt_per_m2"`
	Watts       float64 `json:"watts"`
}

type ZoneController struct {
	name          string
	mu            sync.RWMutex
	cfg           *config.ZoneConfig
	mqtt          safe_mqtt.MqttClient
	state         stateStore
	model         *heatoutput.Model
	flowSensors   []*SensorController
	roomSensors   []*SensorController
	flowTemp      float64
	flowTimestamp time.Time
	roomTemp      float64
	roomTimestamp time.Time
	averageFunc   func([]*SensorController) (float64, time.Time)
	outputTopic   string
	controlChan   chan<- *ZoneController
	childChan     chan bool
}

func (z *ZoneController) childProcessor() {
	for range z.childChan {
		z.updateAverage()
	}
}

func (z *ZoneController) LinkAverageFun() {
	if z.cfg.SensorsAverageType == config.DefaultAverageType {
		z.averageFunc = sensorsMean
	} else {
		logger.L().Errorf("Unknown average function type: %v", z.cfg.SensorsAverageType)
		logger.L().Error("Reverting to the `mean`")
		z.cfg.SensorsAverageType = config.DefaultAverageType
		z.averageFunc = sensorsMean
	}
}

func newZoneController(
	_name string, _cfg *config.ZoneConfig, _mqttCfg *config.MQTTConfig, _client safe_mqtt.MqttClient,
	_state stateStore, _model *heatoutput.Model, _controlChan chan<- *ZoneController,
) *ZoneController {
	z := &ZoneController{
		name:          _name,
		cfg:           _cfg,
		mqtt:          _client,
		state:         _state,
		model:         _model,
		flowTimestamp: zeroTS,
		roomTimestamp: zeroTS,
		outputTopic:   _cfg.OutputTopic,
		controlChan:   _controlChan,
		childChan:     make(chan bool, childChanBuffer),
	}

	zoneMQTTgroup := _mqttCfg.ControlTopic + "/zone/" + z.name + "/"
	if z.outputTopic == "" {
		z.outputTopic = zoneMQTTgroup + "output"
	}

	z.LinkAverageFun()
	z.readState()

	z.mqtt.SafeSubscribe(zoneMQTTgroup+paramRValue, mqttQoS, z.controlUpdateHandler)
	z.mqtt.SafeSubscribe(zoneMQTTgroup+paramPipeSpacing, mqttQoS, z.controlUpdateHandler)
	z.mqtt.SafeSubscribe(zoneMQTTgroup+paramArea, mqttQoS, z.controlUpdateHandler)
	z.mqtt.SafeSubscribe(zoneMQTTgroup+paramAverageType, mqttQoS, z.controlUpdateHandler)

	z.flowSensors = z.newSensors("flow", z.cfg.FlowSensors, _mqttCfg)
	z.roomSensors = z.newSensors("room", z.cfg.RoomSensors, _mqttCfg)

	go z.childProcessor()
	z.updateAverage()

	return z
}

func (z *ZoneController) newSensors(kind string, cfgs []*config.SensorConfig, mqttCfg *config.MQTTConfig) []*SensorController {
	ret := make([]*SensorController, len(cfgs))
	for i, sensor := range cfgs {
		sName := "zone-" + z.name + "-" + kind + "-"
		if sensor.Name == "" {
			sName += strconv.Itoa(i + 1)
		} else {
			sName += sensor.Name
		}
		ret[i] = NewSensorController(sName, sensor, mqttCfg, z.mqtt, z.state, z.childChan)
	}
	return ret
}

func (z *ZoneController) updateAverage() {
	z.mu.RLock()
	avg := z.averageFunc
	z.mu.RUnlock()

	flow, ft := avg(z.flowSensors)
	room, rt := avg(z.roomSensors)
	if !ft.After(zeroTS) && !rt.After(zeroTS) {
		return
	}

	z.mu.Lock()
	if ft.After(zeroTS) {
		z.flowTemp, z.flowTimestamp = flow, ft
	}
	if rt.After(zeroTS) {
		z.roomTemp, z.roomTimestamp = room, rt
	}
	z.mu.Unlock()
	z.controlChan <- z
}

// report evaluates the zone. ok is false until both temperatures are known.
func (z *ZoneController) report() (ZoneReport, bool, error) {
	z.mu.RLock()
	defer z.mu.RUnlock()

	if !z.flowTimestamp.After(zeroTS) || !z.roomTimestamp.After(zeroTS) {
		return ZoneReport{}, false, nil
	}

	r := ZoneReport{
		Zone:        z.name,
		PipeSpacing: z.cfg.PipeSpacing,
		RValue:      *z.cfg.RValue,
		Area:        *z.cfg.Area,
		FlowTemp:    z.flowTemp,
		RoomTemp:    z.roomTemp,
		DeltaT:      z.flowTemp - z.roomTemp,
	}
	q, err := z.model.HeatOutput(
		heatoutput.PipeSpacing(r.PipeSpacing), r.RValue, heatoutput.FlowRoom(z.flowTemp, z.roomTemp),
	)
	if err != nil {
		return ZoneReport{}, false, err
	}
	r.WattPerM2 = q
	r.Watts = q * r.Area
	return r, true, nil
}

func (z *ZoneController) stateKey(param string) string {
	return "zone/" + z.name + "/" + param
}

func (z *ZoneController) writeState(param, value string) error {
	return z.state.UpsertControllerValue(context.Background(), z.stateKey(param), value)
}

func (z *ZoneController) readState() {
	for _, param := range []string{paramRValue, paramPipeSpacing, paramArea} {
		val, err := z.state.GetControllerValue(context.Background(), z.stateKey(param))
		if err != nil {
			continue
		}
		if err := z.apply(param, val); err != nil {
			logger.L().Warnf("Ignoring stored %s for zone %v: %v", param, z.name, err)
			continue
		}
		logger.L().Debugf("Loaded previous %s from DB for zone %v: %v", param, z.name, val)
	}
}

func (z *ZoneController) apply(param, payload string) error {
	switch param {
	case paramRValue, paramArea:
		value, err := strconv.ParseFloat(payload, 64)
		if err != nil {
			return err
		}
		z.mu.Lock()
		if param == paramRValue {
			z.cfg.RValue = &value
		} else {
			z.cfg.Area = &value
		}
		z.mu.Unlock()
	case paramPipeSpacing:
		value, err := strconv.Atoi(payload)
		if err != nil {
			return err
		}
		z.mu.Lock()
		z.cfg.PipeSpacing = value
		z.mu.Unlock()
	case paramAverageType:
		z.mu.Lock()
		z.cfg.SensorsAverageType = payload
		z.LinkAverageFun()
		z.mu.Unlock()
	}
	return nil
}

func (z *ZoneController) controlUpdateHandler(client mqtt.Client, message mqtt.Message) {
	topic := lastTopicElement(message.Topic())
	payload := string(message.Payload())
	logger.L().Infof("Zone %v got MQTT control request: %v : %v", z.name, topic, payload)

	switch topic {
	case paramRValue, paramPipeSpacing, paramArea, paramAverageType:
		if err := z.apply(topic, payload); err != nil {
			logger.L().Error(err)
			return
		}
		if topic != paramAverageType {
			if err := z.writeState(topic, payload); err != nil {
				logger.L().Error(err)
			}
		}
		logger.L().Infof("Updated %s for zone `%v` to %v", topic, z.name, payload)
	default:
		logger.L().Errorf("Unknown control topic: %s", topic)
		return
	}
	z.childChan <- true
}
