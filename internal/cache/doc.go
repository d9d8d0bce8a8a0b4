// Package cache provides the memory-budgeted resource cache.
//
// Entries are kept in recency order (container/list, front = most recently
// used) and indexed by resource id. Insertion always succeeds and is followed
// by budget enforcement:
//
//   - while the cache holds more bytes than its budget, or more entries than
//     its entry cap, the least recently used entry that is neither pinned nor
//     High/Critical priority is evicted
//   - if no such victim exists the newest insertion is evicted, so the budget
//     is never exceeded after enforcement
//
// Evicted bytes are returned through the configured free function. Hit, miss,
// insertion, removal and eviction events are reported to a Recorder.
package cache
