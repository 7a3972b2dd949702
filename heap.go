// Copyright 2024 pmatkit. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pmat

// readHeap decodes object records into t until an END tag is seen. MAGIC
// records and skipped unknown-but-shaped tags are discarded; everything
// else is interned.
func (d *Decoder) readHeap(t *ObjectTable) error {
	for {
		sv, end, err := d.readSV()
		if err != nil {
			return err
		}
		if end {
			return nil
		}
		if sv == nil {
			continue
		}
		t.Add(sv)
	}
}
