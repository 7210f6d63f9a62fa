// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package repl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// ErrStop is returned by a handler to end the repl after writing its result
var ErrStop = errors.New("repl stop requested")

type MessageHandler func(string, *Repl) (string, error)

// ReadCloser combines the Reader and Closer interfaces
type ReadCloser interface {
	io.Reader
	io.Closer
}

type Repl struct {
	Input  ReadCloser
	Output io.WriteCloser
	// Written before every line is read. Empty means no prompt
	Prompt string

	scanner   *bufio.Scanner
	writer    *bufio.Writer
	closeOnce sync.Once
	closeErr  error
}

// Creates a new repl
// If no input is given, stdin will be used
// If no output is given, stdout will be used
// Note: The given reader and writer will be closed once the repl stops
func NewRepl(in ReadCloser, out io.WriteCloser) *Repl {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &Repl{
		Input:   in,
		Output:  out,
		scanner: bufio.NewScanner(in),
		writer:  bufio.NewWriter(out),
	}
}

// Starts the repl
// Blocks execution until the input runs out or the handler returns ErrStop
// Blank lines are skipped, any other line is passed to the handler with surrounding spaces trimmed.
// Handler errors other than ErrStop are written out and the repl carries on
func (r *Repl) Run(onMessage MessageHandler) error {
	defer r.Close()
	for {
		if err := r.write(r.Prompt); err != nil {
			return err
		}
		if !r.scanner.Scan() {
			break
		}
		line := strings.TrimSpace(r.scanner.Text())
		if line == "" {
			continue
		}

		res, err := onMessage(line, r)
		if errors.Is(err, ErrStop) {
			if res == "" {
				return nil
			}
			return r.write(res + "\n")
		}
		if err != nil {
			res = "error: " + err.Error()
		}
		if err = r.write(res + "\n"); err != nil {
			return err
		}
	}
	if err := r.scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}

func (r *Repl) write(s string) error {
	if s == "" {
		return nil
	}
	if _, err := r.writer.WriteString(s); err != nil {
		return fmt.Errorf("failed to write \"%s\": %w", s, err)
	}
	if err := r.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush writer: %w", err)
	}
	return nil
}

// Close stops the repl if it was still running
// This will also close the reader and writer. Only the first call does anything
func (r *Repl) Close() error {
	r.closeOnce.Do(func() {
		r.closeErr = errors.Join(r.Input.Close(), r.Output.Close())
	})
	return r.closeErr
}
