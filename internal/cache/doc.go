// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

/*
Package cache provides a generic, thread-safe LRU cache with TTL support.

# Use Cases

  - Ranked recommendation lists keyed by (model version, user, size),
    cleared whenever a new model is published
  - Event ID deduplication in the interaction event consumer

# Usage Example

	lists := cache.NewLRU[string, []recommend.Recommendation](10000, 5*time.Minute)
	lists.Add("v3:alice:10", recs)

	if recs, ok := lists.Get("v3:alice:10"); ok {
	    // serve from cache
	}

	seen := cache.NewLRU[string, struct{}](50000, time.Hour)
	if _, dup := seen.Get(eventID); dup {
	    // redelivery of an event already recorded
	}
	// after the write succeeds
	seen.Add(eventID, struct{}{})

# Expiration

Entries expire lazily: Get drops an expired entry when it touches it, and
CleanupExpired sweeps the whole list. Len counts expired
entries that have not been swept yet.

# Thread Safety

All methods are safe for concurrent use. Get mutates recency order, so every
operation takes the same exclusive lock.
*/
package cache
