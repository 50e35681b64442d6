// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package boundedlist implements a fixed-capacity, doubly-linked list, backed
// by an arena of slots, addressed by generation-checked handles.
//
// The list never grows, and never evicts: once full, PushTail fails with
// [ErrCapacityExceeded]. Removal by handle is O(1), and positional lookup
// ([List.Get]) is O(n).
package boundedlist
