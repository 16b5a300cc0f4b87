package cache

import "time"

// clockNow is overridden in tests to produce deterministic LRU orderings.
var clockNow = time.Now
