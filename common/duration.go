// Copyright 2016 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package common holds small helpers shared across the tree that
// don't deserve a package of their own.
package common

import "time"

// PrettyDuration is a time.Duration that Stringifies with at most one
// fractional digit, the way disconnect/shutdown logging wants it
// ("1.2s" rather than "1.234291827s").
type PrettyDuration time.Duration

func (d PrettyDuration) String() string {
	return trimFraction(time.Duration(d).String())
}

// trimFraction shortens a time.Duration string's fractional part to a
// single digit, e.g. "1.234291827s" -> "1.2s", leaving the trailing
// unit letters ("s", "ms", "µs"...) intact.
func trimFraction(s string) string {
	dot := -1
	for i, r := range s {
		if r == '.' {
			dot = i
			break
		}
	}
	if dot < 0 {
		return s
	}
	unitStart := len(s)
	for unitStart > 0 && (s[unitStart-1] < '0' || s[unitStart-1] > '9') {
		unitStart--
	}
	cut := dot + 2
	if cut >= unitStart {
		return s
	}
	return s[:cut] + s[unitStart:]
}
