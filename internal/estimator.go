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
	"encoding/json"
	"os"
	"sort"
	"time"

	"github.com/antst/ufhout/internal/config"
	"github.com/antst/ufhout/internal/logger"
	"github.com/antst/ufhout/internal/safe_mqtt"
	"github.com/antst/ufhout/internal/store"
	"github.com/antst/ufhout/pkg/heatoutput"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
)

const (
	timerDuration  = 50 * time.Millisecond
	tickerDuration = 30 * time.Second
	zoneChanBuffer = 100
)

const (
	ModelSourceFile    = "file"
	ModelSourceStore   = "store"
	ModelSourceBuiltin = "builtin"
)

// Estimator publishes the heat output of every configured zone.
type Estimator struct {
	cfg       *config.Config
	mqtt      safe_mqtt.MqttClient
	model     *heatoutput.Model
	zones     map[string]*ZoneController
	zoneChan  chan *ZoneController
	updateMap map[*ZoneController]bool
}

// runStore is the part of the store the model lookup needs.
type runStore interface {
	LatestCoefficients(ctx context.Context) (heatoutput.CoefficientSet, error)
}

// LoadModel picks the coefficient set: the coefficient file, then the newest
// stored calibration, then the built-in set.
func LoadModel(ctx context.Context, cfg *config.Config, st runStore) (*heatoutput.Model, string, error) {
	if cfg.CoefficientsFile != "" {
		set, err := heatoutput.LoadCoefficientsFile(cfg.CoefficientsFile)
		switch {
		case err == nil:
			m, err := heatoutput.NewModel(set)
			return m, ModelSourceFile, err
		case errors.Is(err, os.ErrNotExist):
			logger.L().Debugf("No coefficient file `%s`", cfg.CoefficientsFile)
		default:
			return nil, "", err
		}
	}

	if st != nil {
		set, err := st.LatestCoefficients(ctx)
		switch {
		case err == nil:
			m, err := heatoutput.NewModel(set)
			return m, ModelSourceStore, err
		case errors.Is(err, store.ErrNotFound):
			logger.L().Debug("No stored calibration run")
		default:
			return nil, "", err
		}
	}

	return heatoutput.Default(), ModelSourceBuiltin, nil
}

func NewEstimator(
	cfg *config.Config, client safe_mqtt.MqttClient, state stateStore, model *heatoutput.Model,
) *Estimator {
	e := &Estimator{
		cfg:       cfg,
		mqtt:      client,
		model:     model,
		zones:     make(map[string]*ZoneController),
		zoneChan:  make(chan *ZoneController, zoneChanBuffer),
		updateMap: make(map[*ZoneController]bool),
	}

	e.mqtt.SafeSubscribe(cfg.MQTTConfig.ControlTopic+"/log_level", mqttQoS, e.controlUpdateHandler)

	for _, name := range unsupportedZones(cfg, model) {
		logger.L().Warnf(
			"Zone %v: pipe spacing %v is not covered by the model, supported: %v",
			name, heatoutput.PipeSpacing(cfg.Zones[name].PipeSpacing), model.Spacings(),
		)
	}

	for name, zcfg := range cfg.Zones {
		zone := newZoneController(name, zcfg, cfg.MQTTConfig, client, state, model, e.zoneChan)
		e.zones[name] = zone
		e.updateMap[zone] = false
	}
	return e
}

// unsupportedZones lists the zones, sorted by name, whose pipe spacing the
// model cannot evaluate.
func unsupportedZones(cfg *config.Config, model *heatoutput.Model) []string {
	var ret []string
	for name, zcfg := range cfg.Zones {
		if _, ok := model.Coefficients(heatoutput.PipeSpacing(zcfg.PipeSpacing)); !ok {
			ret = append(ret, name)
		}
	}
	sort.Strings(ret)
	return ret
}

// Run processes zone updates until ctx is done, then disconnects from the
// broker.
func (e *Estimator) Run(ctx context.Context) {
	timer := time.NewTimer(timerDuration)
	ticker := time.NewTicker(tickerDuration)
	defer ticker.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			e.shutdown()
			return
		case zone := <-e.zoneChan:
			e.updateMap[zone] = true
			resetTimer(timer)
		case <-timer.C:
			e.handleUpdate()
		case <-ticker.C:
			for _, zone := range e.zones {
				e.publish(zone)
			}
		}
	}
}

// shutdown closes the MQTT client while still draining zone updates, so
// callbacks in flight during the disconnect never block.
func (e *Estimator) shutdown() {
	done := make(chan struct{})
	go func() {
		e.mqtt.Close()
		close(done)
	}()
	for {
		select {
		case <-done:
			logger.L().Info("Disconnected from MQTT broker")
			return
		case <-e.zoneChan:
		}
	}
}

func resetTimer(timer *time.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	timer.Reset(timerDuration)
}

func (e *Estimator) handleUpdate() {
	for zone, needsUpdate := range e.updateMap {
		if !needsUpdate {
			continue
		}
		e.updateMap[zone] = false
		e.publish(zone)
	}
}

func (e *Estimator) publish(zone *ZoneController) {
	r, ok, err := zone.report()
	if err != nil {
		logger.L().Errorf("Zone %v: %v", zone.name, err)
		return
	}
	if !ok {
		logger.L().Debugf("Zone %v: waiting for flow and room temperature", zone.name)
		return
	}

	payload, err := json.Marshal(r)
	if err != nil {
		logger.L().Error(err)
		return
	}
	logger.L().Debugf(
		"Zone %v: dT=%.2f, %v, R=%.2f -> %.1f W/m², %.0f W",
		r.Zone, r.DeltaT, heatoutput.PipeSpacing(r.PipeSpacing), r.RValue, r.WattPerM2, r.Watts,
	)
	if token := e.mqtt.SafePublish(zone.outputTopic, mqttQoS, true, payload); token.Wait() && token.Error() != nil {
		logger.L().Error(token.Error())
	}
}

func (e *Estimator) controlUpdateHandler(client mqtt.Client, message mqtt.Message) {
	topic := lastTopicElement(message.Topic())
	logger.L().Infof("main: Got MQTT control request: %v : %v", topic, string(message.Payload()))
	switch topic {
	case "log_level":
		if err := e.cfg.LogLevel.Set(string(message.Payload())); err != nil {
			logger.L().Errorf("Wrong log level `%v`", string(message.Payload()))
		} else {
			logger.SetLogLevel(e.cfg.LogLevel)
			logger.L().Infof("Updated loglevel to `%v`", e.cfg.LogLevel.String())
		}
	}
}
