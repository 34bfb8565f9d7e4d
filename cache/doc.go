// Package cache provides the sharded map used for glyph records and scaled
// glyph bitmaps.
//
// A Sharded cache with a positive per-shard capacity evicts least recently
// used entries. A capacity of zero keeps every entry for the lifetime of the
// cache, which is what the glyph store needs: codepoints are never reused.
//
//	records := cache.NewSharded[rune, *glyph.Record](0, cache.RuneHasher)
//	if !records.PutIfAbsent(cp, rec) {
//	    // codepoint already taken
//	}
//
// Sharded is safe for concurrent use and must not be copied after creation.
package cache
