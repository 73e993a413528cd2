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
	"os"
	"os/signal"
	"syscall"

	"github.com/antst/ufhout/internal"
	"github.com/antst/ufhout/internal/config"
	"github.com/antst/ufhout/internal/logger"
	"github.com/antst/ufhout/internal/safe_mqtt"
	"github.com/antst/ufhout/internal/store"

	"github.com/google/uuid"
)

// Build version, overridden with flag during build.
var version = "devel"

func main() {
	cfg := config.Get()
	defer logger.Close()

	logger.L().Warnf("UFH zone heat output estimator, version: %+v", version)

	st, err := store.Open(cfg.DBFile)
	if err != nil {
		logger.L().Fatal(err)
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	model, source, err := internal.LoadModel(ctx, cfg, st)
	if err != nil {
		logger.L().Fatalf("Failed to load coefficients: %+v", err)
	}
	logger.L().Infof("Using %s coefficients for spacings %v", source, model.Spacings())

	// the estimator owns the client and closes it on shutdown
	client := safe_mqtt.InitMQTTClient(cfg.MQTTConfig, "ufhout-"+uuid.NewString())
	e := internal.NewEstimator(cfg, client, st, model)
	e.Run(ctx)
	logger.L().Info("Shutting down")
}
