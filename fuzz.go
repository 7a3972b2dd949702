// Copyright 2024 pmatkit. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pmat

// Fuzz is a go-fuzz entry point: it round-trips data through NewBytes
// and Parse, returning 1 for a successful decode, 0 otherwise (both an
// error return and a panic recovered as a failed run).
func Fuzz(data []byte) (ret int) {
	defer func() {
		if recover() != nil {
			ret = 0
		}
	}()

	f, err := NewBytes(data, &Options{})
	if err != nil {
		return 0
	}
	if err := f.Parse(); err != nil {
		return 0
	}
	return 1
}
