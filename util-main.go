// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package main

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/mstarongithub/wayspace/common/ipc"
	"github.com/mstarongithub/wayspace/compositor"
	"github.com/mstarongithub/wayspace/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	outputSelection string

	toolCmd = &cobra.Command{
		Use:   "tool",
		Short: "Tools for figuring out configurations",
		Long: `In tool mode, wayspace starts its backend just long enough to look at it
and prints what it found as JSON.`,
	}

	toolOutputsCmd = &cobra.Command{
		Use:   "outputs",
		Short: "List available outputs and where they'd be placed",
		RunE: func(_ *cobra.Command, _ []string) error {
			return utilMain(ipc.OutputRequest{})
		},
	}

	toolModesCmd = &cobra.Command{
		Use:   "modes",
		Short: "List the modes an output supports",
		RunE: func(_ *cobra.Command, _ []string) error {
			if outputSelection == "" {
				return errors.New("output has to be specified with --output")
			}
			return utilMain(ipc.OutputRequest{
				IncludeModes:    true,
				SpecifiesOutput: true,
				TargetOutput:    outputSelection,
			})
		},
	}
)

func init() {
	toolModesCmd.Flags().StringVar(&outputSelection, "output", "", "Output to list the modes of")
	toolCmd.AddCommand(toolOutputsCmd, toolModesCmd)
}

func utilMain(req ipc.OutputRequest) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}
	// Tools never run the start command
	toolConf := *conf
	toolConf.StartType = config.START_NONE

	c, err := startCompositor(&toolConf)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			logrus.WithError(err).Warnln("Closing compositor failed")
		}
	}()
	// Outputs show up as events, one round maps them all
	if err = c.Iterate(0); err != nil {
		return err
	}

	resp, err := compositor.OutputReport(c.Backend(), c.Space(), req)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
