// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ecs-project/ecs/cmd/ecs/cli"
	"github.com/ecs-project/ecs/lib/bus"
	"github.com/ecs-project/ecs/lib/clock"
	"github.com/ecs-project/ecs/lib/config"
	"github.com/ecs-project/ecs/lib/elastic"
	"github.com/ecs-project/ecs/lib/replay"
)

// defaultProfilePath is read when --config is not given and the file
// exists.
const defaultProfilePath = "log_controller.conf"

type replayParams struct {
	Config     string `flag:"config,c" desc:"backend profile, an INI file with an [ELK] section (default ./log_controller.conf when present)"`
	IP         string `flag:"ip,i" desc:"backend address"`
	Port       int    `flag:"port,p" desc:"backend port (default 9200)"`
	Time       string `flag:"time,t" desc:"timestamp option: no_update, now, or a start time 'Y-m-d H:M:S.f' (default no_update)"`
	Index      string `flag:"index,n" desc:"index to upload documents to"`
	Username   string `flag:"username" desc:"backend username"`
	Password   string `flag:"password" desc:"backend password"`
	Secure     bool   `flag:"secure,s" desc:"use https; certificate errors are ignored"`
	Delay      bool   `flag:"delay,d" desc:"pace uploads by the original timestamps instead of one bulk write"`
	File       string `flag:"file,f" desc:"log dump to replay (.json, optionally .gz, .zst, or .lz4 compressed)"`
	ClearIndex string `flag:"clear-index" desc:"delete this index before replaying"`
	Verbose    bool   `flag:"verbose,v" desc:"print progress messages"`
}

// profileFlags maps profile keys to the flags that override them.
var profileFlags = map[string]string{
	elastic.KeyIP:       "ip",
	elastic.KeyPort:     "port",
	elastic.KeyTime:     "time",
	elastic.KeyIndex:    "index",
	elastic.KeyUsername: "username",
	elastic.KeyPassword: "password",
	elastic.KeySecurity: "secure",
	elastic.KeyDelay:    "delay",
}

func replayCommand(stdout io.Writer) *cli.Command {
	var (
		params  replayParams
		flagSet *pflag.FlagSet
	)

	return &cli.Command{
		Name:    "replay",
		Summary: "Replay a recorded log dump into the backend",
		Description: `Forward host and network logs from a previously executed experiment
to an Elasticsearch-compatible backend, outside of a console session.

Backend settings come from a profile file (an INI file with an [ELK]
section holding ip, port, time, index, username, password, security,
and delay). Without --config, ./log_controller.conf is used when it
exists. Command line flags override the profile.

With --clear-index the named index is deleted first. --file may then
be omitted to only clear.`,
		Usage: "ecs replay -f DUMP [flags]",
		Examples: []cli.Example{
			{
				Description: "Replay with timestamps shifted to start now",
				Command:     "ecs replay -c lab.conf -f zeek.json -t now -v",
			},
			{
				Description: "Replay paced by the original timestamps",
				Command:     "ecs replay -i 10.0.0.2 -n zeek --username elastic --password changeme -f zeek.json.gz -d",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet = cli.FlagsFromParams("replay", &params)
			return flagSet
		},
		Run: func(ctx context.Context, _ []string, logger *slog.Logger) error {
			cfg, err := config.Resolve("")
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			profile, err := resolveProfile(params.Config, flagSet, cfg.Replay.DefaultPort)
			if err != nil {
				return err
			}
			if params.File == "" && params.ClearIndex == "" {
				return errors.New("provide a log file with --file")
			}
			if replay.IsAllIndexes(params.ClearIndex) {
				return fmt.Errorf("--clear-index %q is only meaningful inside a console session", params.ClearIndex)
			}

			logger.Debug("replay profile resolved",
				"backend", profile.BaseURL(),
				"index", profile.Index,
				"time", profile.Time,
				"delay", profile.Delay,
			)

			eventBus := bus.New(clock.Real())
			settings := replay.Settings{
				Bus:            eventBus,
				RequestTimeout: cfg.RequestTimeout(),
				BulkTimeout:    cfg.BulkTimeout(),
				Logger:         logger,
			}

			var controllers []*replay.Controller
			if params.ClearIndex != "" {
				controllers = append(controllers, replay.NewProfileController(replay.Job{
					Name:    replay.ClearPrefix + params.ClearIndex,
					Profile: profile,
					Clear:   params.ClearIndex,
				}, settings))
			}
			if params.File != "" {
				controllers = append(controllers, replay.NewProfileController(replay.Job{
					Name:    params.File,
					File:    params.File,
					Profile: profile,
				}, settings))
			}
			return runControllers(ctx, eventBus, stdout, params.Verbose, controllers)
		},
	}
}

// resolveProfile merges the profile file, the flags the operator set,
// and defaults, in that order of precedence from lowest to highest:
// defaults, file, flags.
func resolveProfile(path string, flagSet *pflag.FlagSet, defaultPort int) (elastic.Profile, error) {
	v := elastic.NewViper()
	v.SetDefault(elastic.Key(elastic.KeyPort), defaultPort)
	v.SetDefault(elastic.Key(elastic.KeyTime), replay.OptionNoUpdate)
	v.SetDefault(elastic.Key(elastic.KeySecurity), false)
	v.SetDefault(elastic.Key(elastic.KeyDelay), false)

	source := "command line"
	if path == "" {
		if _, err := os.Stat(defaultProfilePath); err == nil {
			path = defaultProfilePath
		}
	}
	if path != "" {
		if err := readProfileFile(v, path); err != nil {
			return elastic.Profile{}, err
		}
		source = path
	}

	// Unset flags leave the file and defaults in charge.
	for key, flagName := range profileFlags {
		flag := flagSet.Lookup(flagName)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(elastic.Key(key), flag); err != nil {
			return elastic.Profile{}, fmt.Errorf("binding --%s: %w", flagName, err)
		}
	}

	return elastic.ReadProfile(v, source)
}

func readProfileFile(v *viper.Viper, path string) error {
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading profile %s: %w", path, err)
	}
	if !v.InConfig(elastic.Section) {
		return fmt.Errorf("%s: %w", path, elastic.ErrMissingSection)
	}
	return nil
}
