// Copyright 2024 pmatkit. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestFilterSuppressesBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewFilter(NewStdLogger(&buf), FilterLevel(LevelWarn))
	h := NewHelper(logger)

	h.Debugf("should not appear")
	h.Infof("should not appear either")
	h.Warnf("warn line")
	h.Errorf("error line")

	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Errorf("filter let a below-level message through:\n%s", out)
	}
	if !strings.Contains(out, "warn line") || !strings.Contains(out, "error line") {
		t.Errorf("filter dropped an at-or-above-level message:\n%s", out)
	}
}

func TestHelperNilLoggerIsNoOp(t *testing.T) {
	h := NewHelper(nil)
	h.Infof("this must not panic")
}

func TestLevelString(t *testing.T) {
	cases := map[Level]string{
		LevelDebug: "DEBUG",
		LevelInfo:  "INFO",
		LevelWarn:  "WARN",
		LevelError: "ERROR",
	}
	for level, want := range cases {
		if got := level.String(); got != want {
			t.Errorf("Level(%d).String() = %q, want %q", level, got, want)
		}
	}
}
