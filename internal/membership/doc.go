// Package membership provides the fixed-size probabilistic filter that gates
// admission into a crawl frontier.
//
// A Filter answers "have I seen this key before?" with one-sided error: a key
// recorded with Add is always reported by Contains (until a Remove clears a
// shared bit), while a key never recorded may be reported as present with a
// probability that grows with the number of recorded keys relative to the
// filter capacity.
//
// # Modes
//
// ModeSingleBit reproduces the historical behaviour bit for bit: the key's
// first four UTF-8 bytes seed a chain of k FNV-1a applications, and exactly one
// bit is read or written per call. Keys that share a four byte prefix always
// land on the same bit. The index is stable, so a persisted bit array stays
// readable across releases.
//
// ModeMultiProbe is a textbook Bloom filter: k independent indices are derived
// from seeded murmur3 hashes of the whole key and all k bits are touched per
// call. This is the mode the crawler uses by default, because URLs of a single
// site nearly always share their first four bytes ("http").
//
// # Usage
//
//	f, err := membership.New(200, 40, membership.WithMode(membership.ModeMultiProbe))
//	if err != nil {
//		return err
//	}
//	if !f.Contains(link) {
//		f.Add(link)
//	}
//
// A Filter is not safe for concurrent use. Each crawl session owns its own.
package membership
