// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package util

// Unpack copies the leading elements of a slice into the given variables, like
// tuple unpacking. Variables without a matching element keep their value,
// elements without a variable are ignored. Returns how many were copied
func Unpack[T any](toUnpack []T, unpackInto ...*T) int {
	n := min(len(toUnpack), len(unpackInto))
	for i := range n {
		*unpackInto[i] = toUnpack[i]
	}
	return n
}
