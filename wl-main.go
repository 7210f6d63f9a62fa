// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mstarongithub/wayspace/backend"
	"github.com/mstarongithub/wayspace/backend/headless"
	"github.com/mstarongithub/wayspace/backend/wlr"
	"github.com/mstarongithub/wayspace/compositor"
	"github.com/mstarongithub/wayspace/config"
	"github.com/sirupsen/logrus"
)

func newBackend(conf *config.Config) (backend.Backend, error) {
	switch conf.Backend {
	case "headless":
		return headless.New(headless.OptionsFromConfig(conf.Headless)), nil
	case "wlr":
		return wlr.New(wlr.Options{
			Layout:      conf.Keyboard.Layout,
			Variant:     conf.Keyboard.Variant,
			Options:     conf.Keyboard.Options,
			RepeatRate:  int32(conf.Keyboard.RepeatRate),
			RepeatDelay: int32(conf.Keyboard.RepeatDelay),
		})
	default:
		return nil, fmt.Errorf("%w: %s", backend.ErrUnknownBackend, conf.Backend)
	}
}

// startCompositor creates the backend and a compositor on it and starts both
func startCompositor(conf *config.Config) (*compositor.Compositor, error) {
	b, err := newBackend(conf)
	if err != nil {
		return nil, fmt.Errorf("creating backend: %w", err)
	}
	c, err := compositor.New(b, conf)
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("creating compositor: %w", err)
	}
	if err = c.Start(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("starting compositor: %w", err)
	}
	return c, nil
}

func wlMain(ctx context.Context, conf *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := startCompositor(conf)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			logrus.WithError(err).Warnln("Closing compositor failed")
		}
	}()

	if conf.StartType == config.START_REPL && !flagNoRepl {
		go replRunner(ctx, c)
	}

	if err = c.Run(ctx); err != nil {
		return fmt.Errorf("running compositor: %w", err)
	}
	logrus.Infoln("Compositor stopped")
	return nil
}
