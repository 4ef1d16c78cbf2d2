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
	Addr     string   `koanf:"addr"`
	Feed     Feed     `koanf:"feed"`
	Team     Team     `koanf:"team"`
	Venue    Venue    `koanf:"venue"`
	Database Database `koanf:"db"`
	Refresh  Refresh  `koanf:"refresh"`
}

type Feed struct {
	Url    string `koanf:"url"`
	Format string `koanf:"format"` // "csv" or "ical"
	MaxAge string `koanf:"maxage"` // duration string, e.g. "24h"
}

type Team struct {
	Name string `koanf:"name"`
}

type Venue struct {
	Name     string `koanf:"name"`
	Timezone string `koanf:"timezone"` // IANA zone name
}

type Database struct {
	Path string `koanf:"path"`
}

type Refresh struct {
	Schedule string `koanf:"schedule"` // cron expression, empty disables background refresh
	Throttle string `koanf:"throttle"` // minimum age before /refresh acts again
}

func Load(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(Application{
		Addr: ":8181",
		Feed: Feed{
			Format: "csv",
			MaxAge: "24h",
		},
		Team: Team{
			Name: "Giants",
		},
		Venue: Venue{
			Name:     "AT&T Park",
			Timezone: "America/Los_Angeles",
		},
		Database: Database{
			Path: "quietday.db",
		},
		Refresh: Refresh{
			Throttle: "10s",
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
		Prefix: "QUIETDAY_",
		TransformFunc: func(k, v string) (string, any) {
			// Transform the key.
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, "QUIETDAY_")), "_", ".")
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
