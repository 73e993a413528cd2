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
	"fmt"
	"io"
	"log"
	"os"

	"github.com/antst/ufhout/internal/logger"
	"github.com/antst/ufhout/internal/reference"
	"github.com/antst/ufhout/pkg/heatoutput"

	"github.com/pborman/getopt/v2"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	defaultMQTTURL          = "tcp://127.0.0.1:1883"
	defaultControlTopic     = "ufhout/control"
	defaultDBFile           = "~/.ufhout.db"
	defaultConfigFile       = "config.yaml"
	defaultCoefficientsFile = "coefficients.yaml"
	defaultTable            = "mcs-solid-16mm-table.csv"
	defaultTolerance        = 2.0
	DefaultAverageType      = "mean"
)

type MQTTConfig struct {
	URL          string `yaml:"url"`
	ControlTopic string `yaml:"control_topic"`
	Username     string `yaml:"username,omitempty"`
	Password     string `yaml:"password,omitempty"`
}

func NewMQTTConfig() *MQTTConfig {
	return &MQTTConfig{URL: defaultMQTTURL, ControlTopic: defaultControlTopic}
}

type CalibrationConfig struct {
	Table            string    `yaml:"table"`
	RValues          []float64 `yaml:"r_values"`
	PipeSpacings     []int     `yaml:"pipe_spacings"`
	TolerancePercent *float64  `yaml:"tolerance_percent"`
}

func NewCalibrationConfig() *CalibrationConfig {
	cfg := &CalibrationConfig{Table: defaultTable}
	cfg.FillDefaults()
	return cfg
}

func (c *CalibrationConfig) FillDefaults() {
	def := reference.DefaultGrid()
	if len(c.RValues) == 0 {
		c.RValues = def.RValues
	}
	if len(c.PipeSpacings) == 0 {
		for _, s := range def.Spacings {
			c.PipeSpacings = append(c.PipeSpacings, int(s))
		}
	}
	if c.TolerancePercent == nil {
		c.TolerancePercent = GetPTR(defaultTolerance)
	}
}

// Grid returns the calibration grid in declaration order.
func (c *CalibrationConfig) Grid() reference.Grid {
	g := reference.Grid{RValues: append([]float64(nil), c.RValues...)}
	for _, s := range c.PipeSpacings {
		g.Spacings = append(g.Spacings, heatoutput.PipeSpacing(s))
	}
	return g
}

type Config struct {
	LogLevel         zapcore.Level          `yaml:"log_level"`
	DBFile           string                 `yaml:"db_file"`
	CoefficientsFile string                 `yaml:"coefficients_file"`
	Calibration      *CalibrationConfig     `yaml:"calibration"`
	MQTTConfig       *MQTTConfig            `yaml:"mqtt"`
	Zones            map[string]*ZoneConfig `yaml:"zones"`
}

func defConfig() *Config {
	return &Config{
		LogLevel:         zapcore.InfoLevel,
		DBFile:           defaultDBFile,
		CoefficientsFile: defaultCoefficientsFile,
		Calibration:      NewCalibrationConfig(),
		MQTTConfig:       NewMQTTConfig(),
		Zones:            make(map[string]*ZoneConfig),
	}
}

func prettyPrint(cfg *Config) {
	d, err := yaml.Marshal(cfg)
	if err != nil {
		logger.L().Error("Failed to marshal config for pretty print", err)
		return
	}
	logger.L().Debugf("--- Config ---\n%s\n\n", string(d))
}

func (cfg *Config) FillDefaults() {
	if cfg.Calibration == nil {
		cfg.Calibration = NewCalibrationConfig()
	}
	cfg.Calibration.FillDefaults()
	if cfg.MQTTConfig == nil {
		cfg.MQTTConfig = NewMQTTConfig()
	}
	if cfg.Zones == nil {
		cfg.Zones = make(map[string]*ZoneConfig)
	}
	for _, v := range cfg.Zones {
		v.FillDefaults()
	}
}

// Load reads configFile over the defaults. A missing file is not an error.
func Load(configFile string) (*Config, error) {
	cfg := defConfig()
	if err := readFile(cfg, configFile); err != nil {
		return nil, err
	}
	cfg.FillDefaults()
	return cfg, nil
}

func Get() *Config {
	logLevel := getopt.StringLong("log-level", 'l', "", "log levels: debug, info, warn, error, dpanic, panic, fatal")
	configFile := getopt.StringLong("config", 'c', defaultConfigFile, "config file pathname")
	dbFile := getopt.StringLong("db", 'd', "", "DB file pathname")
	table := getopt.StringLong("table", 't', "", "reference table pathname (CSV)")
	coefficients := getopt.StringLong("coefficients", 'o', "", "coefficient file pathname (YAML)")
	help := getopt.BoolLong("help", 'h', "display help")

	getopt.Parse()
	if *help {
		getopt.Usage()
		os.Exit(0)
	}

	cfg, err := Load(*configFile)
	if err != nil {
		log.Panicf("GetConfig: %v", err)
	}
	logger.L().Infof("Using config file `%v`", *configFile)

	if *dbFile != "" {
		cfg.DBFile = *dbFile
	}
	logger.L().Infof("Using DB file `%v`", cfg.DBFile)
	if *table != "" {
		cfg.Calibration.Table = *table
	}
	if *coefficients != "" {
		cfg.CoefficientsFile = *coefficients
	}

	if *logLevel != "" {
		if err := cfg.LogLevel.Set(*logLevel); err != nil {
			logger.L().Errorf("Wrong log level `%v`: %v", *logLevel, err)
		}
	}
	logger.SetLogLevel(cfg.LogLevel)

	prettyPrint(cfg)

	return cfg
}

func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	return err == nil && !info.IsDir()
}

func readFile(cfg *Config, configFileName string) error {
	if !fileExists(configFileName) {
		return nil
	}

	f, err := os.Open(configFileName)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	return nil
}

func GetPTR[T any](v T) *T {
	return &v
}
