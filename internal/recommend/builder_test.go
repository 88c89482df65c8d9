// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

package recommend

import (
	"errors"
	"math"
	"testing"
)

func TestBuildMatrix_Accumulation(t *testing.T) {
	records := []Interaction{
		{UserID: "alice", ItemID: "x", Signal: 1},
		{UserID: "bob", ItemID: "y", Signal: 2},
		{UserID: "alice", ItemID: "x", Signal: 3},
		{UserID: "alice", ItemID: "z", Signal: 0},
	}

	m, idx := mustBuild(t, records)

	rows, cols := m.Dims()
	if rows != 2 || cols != 3 {
		t.Fatalf("Dims() = (%d, %d), want (2, 3)", rows, cols)
	}

	alice, _ := idx.UserRow("alice")
	bob, _ := idx.UserRow("bob")
	x, _ := idx.ItemCol("x")
	y, _ := idx.ItemCol("y")
	z, ok := idx.ItemCol("z")
	if !ok {
		t.Fatal("zero-signal item z should still be indexed")
	}

	if got := m.At(alice, x); got != 4 {
		t.Errorf("At(alice, x) = %v, want 4", got)
	}
	if got := m.At(bob, y); got != 2 {
		t.Errorf("At(bob, y) = %v, want 2", got)
	}
	if got := m.At(alice, z); got != 0 {
		t.Errorf("At(alice, z) = %v, want 0", got)
	}
	if m.NNZ() != 2 {
		t.Errorf("NNZ() = %d, want 2 (zero cells are not stored)", m.NNZ())
	}
}

func TestBuildMatrix_SumMatchesSignals(t *testing.T) {
	records := blockRecords()
	records = append(records, records[:5]...)

	var want float64
	for _, r := range records {
		want += r.Signal
	}

	m, _ := mustBuild(t, records)
	if got := m.Sum(); got != want {
		t.Errorf("Sum() = %v, want %v", got, want)
	}
}

func TestBuildMatrix_FirstSeenOrder(t *testing.T) {
	records := []Interaction{
		{UserID: "carol", ItemID: "p3", Signal: 1},
		{UserID: "alice", ItemID: "p1", Signal: 1},
		{UserID: "bob", ItemID: "p3", Signal: 1},
		{UserID: "alice", ItemID: "p2", Signal: 1},
	}

	_, idx := mustBuild(t, records)

	wantUsers := []string{"carol", "alice", "bob"}
	wantItems := []string{"p3", "p1", "p2"}
	for i, u := range wantUsers {
		if got := idx.UserAt(i); got != u {
			t.Errorf("UserAt(%d) = %q, want %q", i, got, u)
		}
	}
	for i, it := range wantItems {
		if got := idx.ItemAt(i); got != it {
			t.Errorf("ItemAt(%d) = %q, want %q", i, got, it)
		}
	}
}

func TestBuildMatrix_SortedIndex(t *testing.T) {
	records := []Interaction{
		{UserID: "carol", ItemID: "p3", Signal: 1},
		{UserID: "alice", ItemID: "p1", Signal: 2},
		{UserID: "bob", ItemID: "p2", Signal: 3},
	}

	m, idx := mustBuild(t, records, WithSortedIndex())

	for i, u := range []string{"alice", "bob", "carol"} {
		if got := idx.UserAt(i); got != u {
			t.Errorf("UserAt(%d) = %q, want %q", i, got, u)
		}
	}
	for i, it := range []string{"p1", "p2", "p3"} {
		if got := idx.ItemAt(i); got != it {
			t.Errorf("ItemAt(%d) = %q, want %q", i, got, it)
		}
	}
	if got := m.At(1, 1); got != 3 {
		t.Errorf("At(bob, p2) = %v, want 3", got)
	}
}

func TestBuildMatrix_Deterministic(t *testing.T) {
	for _, opts := range [][]BuildOption{nil, {WithSortedIndex()}} {
		m1, idx1 := mustBuild(t, blockRecords(), opts...)
		m2, idx2 := mustBuild(t, blockRecords(), opts...)

		if !m1.Equal(m2) {
			t.Error("identical records produced different matrices")
		}
		for i := 0; i < idx1.NumUsers(); i++ {
			if idx1.UserAt(i) != idx2.UserAt(i) {
				t.Errorf("user %d differs: %q vs %q", i, idx1.UserAt(i), idx2.UserAt(i))
			}
		}
		for i := 0; i < idx1.NumItems(); i++ {
			if idx1.ItemAt(i) != idx2.ItemAt(i) {
				t.Errorf("item %d differs: %q vs %q", i, idx1.ItemAt(i), idx2.ItemAt(i))
			}
		}
	}
}

func TestBuildMatrix_Malformed(t *testing.T) {
	tests := []struct {
		name      string
		record    Interaction
		wantField string
	}{
		{"missing user", Interaction{ItemID: "x", Signal: 1}, "user_id"},
		{"missing item", Interaction{UserID: "u", Signal: 1}, "item_id"},
		{"negative signal", Interaction{UserID: "u", ItemID: "x", Signal: -1}, "signal"},
		{"NaN signal", Interaction{UserID: "u", ItemID: "x", Signal: math.NaN()}, "signal"},
		{"infinite signal", Interaction{UserID: "u", ItemID: "x", Signal: math.Inf(1)}, "signal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := []Interaction{
				{UserID: "ok", ItemID: "ok", Signal: 1},
				tt.record,
			}

			_, _, err := BuildMatrix(records)
			if !errors.Is(err, ErrMalformedRecord) {
				t.Fatalf("BuildMatrix() error = %v, want ErrMalformedRecord", err)
			}

			var mre *MalformedRecordError
			if !errors.As(err, &mre) {
				t.Fatalf("error %T is not *MalformedRecordError", err)
			}
			if mre.Index != 1 {
				t.Errorf("Index = %d, want 1", mre.Index)
			}
			if mre.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", mre.Field, tt.wantField)
			}
		})
	}
}

func TestBuildMatrix_Empty(t *testing.T) {
	m, idx := mustBuild(t, nil)

	rows, cols := m.Dims()
	if rows != 0 || cols != 0 {
		t.Errorf("Dims() = (%d, %d), want (0, 0)", rows, cols)
	}
	if idx.NumUsers() != 0 || idx.NumItems() != 0 {
		t.Errorf("index not empty: %d users, %d items", idx.NumUsers(), idx.NumItems())
	}
}

func TestNewIndex_Duplicates(t *testing.T) {
	if _, err := NewIndex([]string{"a", "a"}, nil); err == nil {
		t.Error("expected error for duplicate user id")
	}
	if _, err := NewIndex(nil, []string{"x", "x"}); err == nil {
		t.Error("expected error for duplicate item id")
	}

	idx, err := NewIndex([]string{"a", "b"}, []string{"x"})
	if err != nil {
		t.Fatalf("NewIndex() error = %v", err)
	}
	if _, ok := idx.UserRow("missing"); ok {
		t.Error("UserRow(missing) reported ok")
	}
	users := idx.Users()
	users[0] = "mutated"
	if idx.UserAt(0) != "a" {
		t.Error("Users() must return a copy")
	}
}
