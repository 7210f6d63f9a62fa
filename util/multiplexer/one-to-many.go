// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package multiplexer

import (
	"errors"
	"sync"
)

var ErrReceiverExists = errors.New("receiver with that name already exists")

// A one to many multiplexer, copying every message to all receivers
// Sending never blocks: a receiver that can't keep up misses messages instead of stalling the sender
type OneToMany[T any] struct {
	lock     sync.Mutex
	outbound map[string]chan T // Use map here to give names to outbound channels
	buffer   int
	closed   bool
}

// NewOneToMany creates a new OneToMany multiplexer
// Every receiver gets a channel buffering up to buffer messages
func NewOneToMany[T any](buffer int) *OneToMany[T] {
	return &OneToMany[T]{
		outbound: make(map[string]chan T),
		buffer:   buffer,
	}
}

// Create a new receiver for the multiplexer to send messages to.
// Please do not close this manually, instead use the CloseReceiver func
func (o *OneToMany[T]) MakeReceiver(name string) (<-chan T, error) {
	o.lock.Lock()
	defer o.lock.Unlock()
	if o.closed {
		return nil, ErrClosed
	}
	if _, ok := o.outbound[name]; ok {
		return nil, ErrReceiverExists
	}
	rec := make(chan T, o.buffer)
	o.outbound[name] = rec
	return rec, nil
}

// Closes a receiver channel with the given name and removes it from the multiplexer
func (o *OneToMany[T]) CloseReceiver(name string) {
	o.lock.Lock()
	defer o.lock.Unlock()
	if val, ok := o.outbound[name]; ok {
		close(val)
		delete(o.outbound, name)
	}
}

// Send copies msg to every receiver with room left and returns how many receivers missed it
func (o *OneToMany[T]) Send(msg T) (dropped int) {
	o.lock.Lock()
	defer o.lock.Unlock()
	for _, c := range o.outbound {
		select {
		case c <- msg:
		default:
			dropped++
		}
	}
	return dropped
}

// Receivers returns how many receivers are attached
func (o *OneToMany[T]) Receivers() int {
	o.lock.Lock()
	defer o.lock.Unlock()
	return len(o.outbound)
}

// Close closes all receivers, no new ones can be made afterwards
// Closing twice does nothing
func (o *OneToMany[T]) Close() {
	o.lock.Lock()
	defer o.lock.Unlock()
	if o.closed {
		return
	}
	for name, c := range o.outbound {
		close(c)
		delete(o.outbound, name)
	}
	o.closed = true
}
