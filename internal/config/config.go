package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

type Application struct {
	Listen   string   `koanf:"listen"`
	Logging  Logging  `koanf:"log"`
	Database Database `koanf:"db"`
	Load     Load     `koanf:"load"`
	Sync     Sync     `koanf:"sync"`
}

type Logging struct {
	Level  string `koanf:"level"`
	File   string `koanf:"file"`
	Stdout bool   `koanf:"stdout"`
	JSON   bool   `koanf:"json"`
}

type Database struct {
	Path string `koanf:"path"`
}

// Load configures the training load calculator. Weighting is a policy
// parameter, one of "linear" or "squared".
type Load struct {
	Weighting string `koanf:"weighting"`
}

// Sync points at the remote journal endpoint. An empty BaseURL disables
// the sync routes.
type Sync struct {
	BaseURL string `koanf:"baseurl"`
	Token   string `koanf:"token"`
}

func LoadConfig(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(Application{
		Listen: ":8181",
		Logging: Logging{
			Level:  "info",
			Stdout: true,
		},
		Database: Database{
			Path: "dojolog.db",
		},
		Load: Load{
			Weighting: "linear",
		},
	}, "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: "DOJOLOG_",
		TransformFunc: func(k, v string) (string, any) {
			// Transform the key.
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, "DOJOLOG_")), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	return app, nil
}
