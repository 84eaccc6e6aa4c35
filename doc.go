// Package tiercache implements a two-tier cache: a fast process-local tier
// (L1) layered in front of a shared, authoritative key/value tier (L2), kept
// coherent across processes by broadcast invalidation.
//
// Components:
//   - local.Store: in-process byte store with TTL (e.g. Ristretto, BigCache).
//   - remote.Store: shared byte store holding each value together with its
//     expiration metadata (Redis implementation provided).
//   - bus.Bus: publish/subscribe invalidation transport (Redis pub/sub).
//   - codec.Codec: wire codec for invalidation messages (msgpack default).
//
// Keys: every L1/L2 access uses <name> + <key>, so instances constructed
// with different names are isolated even on a shared Redis connection.
// Invalidation messages carry the raw key; receivers re-apply their own
// prefix.
//
// Coherence:
//
//	Get    - L1 hit returns immediately; on miss the remote entry is
//	         fetched under a per-key in-process lock and L1 repopulated
//	         with the policy reconstructed from L2 metadata.
//	Set    - writes L2, then L1, then broadcasts so peers drop stale copies.
//	Remove - deletes both tiers and broadcasts.
//
// Entries with sliding expiration are never placed in L1: their TTL renews
// on each authoritative read, and a local copy would stop that clock.
package tiercache
