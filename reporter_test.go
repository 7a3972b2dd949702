// Copyright 2024 pmatkit. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pmat

import "testing"

func TestBuildReportTotalsAndOrdering(t *testing.T) {
	stats := newStats()
	stats.CountByType[SVScalar] = 3
	stats.SizeByType[SVScalar] = 72
	stats.CountByType[SVArray] = 1
	stats.SizeByType[SVArray] = 200
	stats.CountByBlessedType[BlessedKey{Type: SVHash, Name: "Foo::Bar"}] = 2
	stats.SizeByBlessedType[BlessedKey{Type: SVHash, Name: "Foo::Bar"}] = 48

	report := BuildReport(stats)

	if len(report.Rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(report.Rows))
	}
	if report.Rows[0].Type != "ARRAY" || report.Rows[0].Bytes != 200 {
		t.Errorf("first row = %+v, want ARRAY with 200 bytes (largest first)", report.Rows[0])
	}
	if report.Total.Count != 6 || report.Total.Bytes != 320 {
		t.Errorf("got total %+v, want count=6 bytes=320", report.Total)
	}
}

func TestBuildReportEmpty(t *testing.T) {
	report := BuildReport(newStats())
	if len(report.Rows) != 0 {
		t.Errorf("got %d rows, want 0", len(report.Rows))
	}
	if report.Total.Count != 0 || report.Total.Bytes != 0 {
		t.Errorf("got total %+v, want zero", report.Total)
	}
}

func TestReportTextContainsHeaderAndTotal(t *testing.T) {
	stats := newStats()
	stats.CountByType[SVScalar] = 1
	stats.SizeByType[SVScalar] = 24
	report := BuildReport(stats)

	text := report.Text()
	if len(text) == 0 {
		t.Fatal("Text() returned empty output")
	}
	if !containsAll(text, "Type", "SVs", "Bytes", "Total", "SCALAR") {
		t.Errorf("report text missing expected columns/rows:\n%s", text)
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !contains(s, sub) {
			return false
		}
	}
	return true
}

func contains(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
