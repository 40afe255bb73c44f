// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"testing"
)

func TestProgress(t *testing.T) {
	goal := func(v int64) sql.NullInt64 { return sql.NullInt64{Int64: v, Valid: true} }

	tests := []struct {
		name    string
		current int64
		goal    sql.NullInt64
		wantPct float64
		wantOK  bool
	}{
		{"quarter", 25000, goal(100000), 25, true},
		{"capped at 100", 120000, goal(100000), 100, true},
		{"exact goal", 100000, goal(100000), 100, true},
		{"nothing raised", 0, goal(100000), 0, true},
		{"no goal", 5000, sql.NullInt64{}, 0, false},
		{"zero goal", 5000, goal(0), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pct, ok := Progress(tt.current, tt.goal)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if pct != tt.wantPct {
				t.Errorf("pct = %v, want %v", pct, tt.wantPct)
			}
		})
	}
}

func TestParseSuggestedAmounts(t *testing.T) {
	got, err := ParseSuggestedAmounts(" 25, 50,,100 ")
	if err != nil {
		t.Fatalf("ParseSuggestedAmounts() error: %v", err)
	}
	if len(got) != 3 || got[0] != 25 || got[1] != 50 || got[2] != 100 {
		t.Errorf("ParseSuggestedAmounts() = %v", got)
	}
	if FormatSuggestedAmounts(got) != "25,50,100" {
		t.Errorf("FormatSuggestedAmounts() = %q", FormatSuggestedAmounts(got))
	}

	for _, bad := range []string{"abc", "10,-5", "0", "12.5"} {
		if _, err := ParseSuggestedAmounts(bad); err == nil {
			t.Errorf("ParseSuggestedAmounts(%q) expected error", bad)
		}
	}

	empty, err := ParseSuggestedAmounts("")
	if err != nil || empty != nil {
		t.Errorf("ParseSuggestedAmounts(\"\") = %v, %v", empty, err)
	}
}
