// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

package recommend

import (
	"fmt"
	"math"
	"sort"
)

// Index is a bijection between external identifiers and dense matrix
// positions. It is fixed for the lifetime of the matrix it was built with.
type Index struct {
	userRows map[string]int
	itemCols map[string]int
	users    []string
	items    []string
}

// NewIndex builds an Index from ordered user and item identifiers.
// Identifiers must be unique within each list.
func NewIndex(users, items []string) (*Index, error) {
	idx := &Index{
		userRows: make(map[string]int, len(users)),
		itemCols: make(map[string]int, len(items)),
		users:    append([]string(nil), users...),
		items:    append([]string(nil), items...),
	}
	for i, u := range idx.users {
		if _, dup := idx.userRows[u]; dup {
			return nil, fmt.Errorf("duplicate user id %q", u)
		}
		idx.userRows[u] = i
	}
	for i, it := range idx.items {
		if _, dup := idx.itemCols[it]; dup {
			return nil, fmt.Errorf("duplicate item id %q", it)
		}
		idx.itemCols[it] = i
	}
	return idx, nil
}

// UserRow returns the row assigned to a user.
func (x *Index) UserRow(userID string) (int, bool) {
	r, ok := x.userRows[userID]
	return r, ok
}

// ItemCol returns the column assigned to an item.
func (x *Index) ItemCol(itemID string) (int, bool) {
	c, ok := x.itemCols[itemID]
	return c, ok
}

// UserAt returns the user identifier at a row.
func (x *Index) UserAt(row int) string {
	return x.users[row]
}

// ItemAt returns the item identifier at a column.
func (x *Index) ItemAt(col int) string {
	return x.items[col]
}

// NumUsers returns the number of indexed users.
func (x *Index) NumUsers() int {
	return len(x.users)
}

// NumItems returns the number of indexed items.
func (x *Index) NumItems() int {
	return len(x.items)
}

// Users returns a copy of the user identifiers in row order.
func (x *Index) Users() []string {
	return append([]string(nil), x.users...)
}

// Items returns a copy of the item identifiers in column order.
func (x *Index) Items() []string {
	return append([]string(nil), x.items...)
}

// BuildOption configures BuildMatrix.
type BuildOption func(*buildOptions)

type buildOptions struct {
	sorted bool
}

// WithSortedIndex assigns rows and columns in ascending identifier order
// instead of first-seen order.
func WithSortedIndex() BuildOption {
	return func(o *buildOptions) {
		o.sorted = true
	}
}

// BuildMatrix folds interaction records into a sparse users x items matrix.
//
// Duplicate (user, item) records accumulate by addition. Positions are
// assigned in first-seen order unless WithSortedIndex is given; either way,
// identical input produces identical output.
func BuildMatrix(records []Interaction, opts ...BuildOption) (*InteractionMatrix, *Index, error) {
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}

	for i := range records {
		if err := validateRecord(i, &records[i]); err != nil {
			return nil, nil, err
		}
	}

	users, items := collectIdentifiers(records)
	if o.sorted {
		sort.Strings(users)
		sort.Strings(items)
	}

	idx, err := NewIndex(users, items)
	if err != nil {
		return nil, nil, err
	}

	rows := make([]map[int]float64, len(users))
	for i := range records {
		rec := &records[i]
		r := idx.userRows[rec.UserID]
		c := idx.itemCols[rec.ItemID]
		if rows[r] == nil {
			rows[r] = make(map[int]float64)
		}
		rows[r][c] += rec.Signal
	}

	return newMatrixFromRows(len(users), len(items), rows), idx, nil
}

// validateRecord checks the required fields of one record.
func validateRecord(i int, rec *Interaction) error {
	switch {
	case rec.UserID == "":
		return &MalformedRecordError{Index: i, Field: "user_id", Reason: "missing"}
	case rec.ItemID == "":
		return &MalformedRecordError{Index: i, Field: "item_id", Reason: "missing"}
	case math.IsNaN(rec.Signal) || math.IsInf(rec.Signal, 0):
		return &MalformedRecordError{Index: i, Field: "signal", Reason: "not a finite number"}
	case rec.Signal < 0:
		return &MalformedRecordError{Index: i, Field: "signal", Reason: fmt.Sprintf("negative value %g", rec.Signal)}
	}
	return nil
}

// collectIdentifiers returns distinct users and items in first-seen order.
func collectIdentifiers(records []Interaction) (users, items []string) {
	seenUsers := make(map[string]struct{})
	seenItems := make(map[string]struct{})
	for i := range records {
		if _, ok := seenUsers[records[i].UserID]; !ok {
			seenUsers[records[i].UserID] = struct{}{}
			users = append(users, records[i].UserID)
		}
		if _, ok := seenItems[records[i].ItemID]; !ok {
			seenItems[records[i].ItemID] = struct{}{}
			items = append(items, records[i].ItemID)
		}
	}
	return users, items
}
