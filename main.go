// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package main

import (
	"fmt"
	"os"

	"github.com/mstarongithub/wayspace/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	flagConfig   string
	flagBackend  string
	flagLogLevel string
	flagNoRepl   bool
	flagWatch    bool

	rootCmd = &cobra.Command{
		Use:   "wayspace",
		Short: "wayspace - a small Wayland compositor",
		Long: `wayspace is a minimal Wayland compositor. It stacks client windows
in one global space spanning all outputs and routes input to them.
Without a display it runs headless, with simulated clients driven from the console.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := loadConfig()
			if err != nil {
				return err
			}
			return wlMain(cmd.Context(), conf)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to the config file. Searched for in the xdg config dirs if empty")
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "Backend to run on, either wlr or headless. Overrides the config")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level, like debug or info. Overrides the config")
	rootCmd.Flags().BoolVar(&flagNoRepl, "no-repl", false, "Don't start the console on stdin, even if the config asks for it")
	rootCmd.Flags().BoolVar(&flagWatch, "watch", false, "Print what changes in the compositor to the console")

	rootCmd.AddCommand(toolCmd)
}

// loadConfig reads the config and applies the flags on top of it.
// A broken config file only gets a warning, the defaults are used instead
func loadConfig() (*config.Config, error) {
	conf, err := config.Load(flagConfig)
	if err != nil {
		logrus.WithError(err).Warnln("Failed to load config, using defaults")
	}
	if flagBackend != "" {
		conf.Backend = flagBackend
	}
	if flagLogLevel != "" {
		conf.LogLevel = flagLogLevel
	}
	if err = conf.Validate(); err != nil {
		return nil, err
	}

	level, err := logrus.ParseLevel(conf.LogLevel)
	if err != nil {
		return nil, err
	}
	logrus.SetLevel(level)
	return conf, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
