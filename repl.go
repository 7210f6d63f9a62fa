// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mstarongithub/wayspace/compositor"
	"github.com/mstarongithub/wayspace/repl"
	"github.com/mstarongithub/wayspace/util/wrappers"
	"github.com/sirupsen/logrus"
)

// replRunner reads console commands from stdin and runs them on the compositor loop
func replRunner(ctx context.Context, c *compositor.Compositor) {
	log := logrus.WithField("component", "repl")
	// Give repl some wrappers around stdin and stdout so that it closes those instead of stdin & stdout themselves
	out := wrappers.NewWriterWrapper(os.Stdout)
	commandRepl := repl.NewRepl(wrappers.NewReaderWrapper(os.Stdin), out)
	commandRepl.Prompt = "wayspace> "
	log.Debugln("Starting repl")

	if flagWatch {
		notices, err := c.Subscribe("repl")
		if err != nil {
			log.WithError(err).Warnln("Can't watch the compositor")
		} else {
			defer c.Unsubscribe("repl")
			go func() {
				for n := range notices {
					if _, err := fmt.Fprintf(out, "* %s\n", n.Text); err != nil {
						return
					}
				}
			}()
		}
	}

	err := commandRepl.Run(func(input string, _ *repl.Repl) (string, error) {
		res, err := c.Execute(ctx, input)
		switch {
		case errors.Is(err, compositor.ErrStopped), errors.Is(err, context.Canceled):
			return "Compositor stopped", repl.ErrStop
		case err != nil:
			return "", err
		case input == "quit":
			return res, repl.ErrStop
		}
		return res, nil
	})
	if err != nil {
		log.WithError(err).Warnln("Repl stopped")
		return
	}
	log.Debugln("Repl done")
}
