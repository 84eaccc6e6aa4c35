package tiercache

import (
	"time"

	"github.com/unkn0wn-root/tiercache/remote"
)

// ExpirationPolicy describes when an entry stops being valid. Zero values
// mean "unset"; all three fields unset means the entry never expires on its
// own.
//
// AbsoluteExpiration and AbsoluteExpirationRelativeToNow both pin a fixed
// deadline; when both are set the relative one wins (it was computed
// against a fresher clock). SlidingExpiration renews on each authoritative
// read; entries with a sliding window are never materialized in the local
// tier.
type ExpirationPolicy struct {
	AbsoluteExpiration              time.Time
	AbsoluteExpirationRelativeToNow time.Duration
	SlidingExpiration               time.Duration
}

// HasSliding reports whether the policy carries a sliding window.
func (p ExpirationPolicy) HasSliding() bool { return p.SlidingExpiration > 0 }

// absoluteAt resolves the fixed deadline against now.
// Returns the zero time when no absolute component is set.
func (p ExpirationPolicy) absoluteAt(now time.Time) time.Time {
	if p.AbsoluteExpirationRelativeToNow > 0 {
		return now.Add(p.AbsoluteExpirationRelativeToNow)
	}
	return p.AbsoluteExpiration
}

// metadata converts the policy into the wire form persisted next to the
// value in the remote tier.
func (p ExpirationPolicy) metadata(now time.Time) remote.Metadata {
	m := remote.None()
	if abs := p.absoluteAt(now); !abs.IsZero() {
		m.AbsoluteUnixMilli = abs.UnixMilli()
	}
	if p.HasSliding() {
		m.SlidingMillis = p.SlidingExpiration.Milliseconds()
	}
	return m
}

// localTTL derives the local-tier lifetime for an entry under this policy.
// ok=false means the policy pins no deadline and the caller should apply
// its own staleness bound.
func (p ExpirationPolicy) localTTL(now time.Time) (ttl time.Duration, ok bool) {
	abs := p.absoluteAt(now)
	if abs.IsZero() {
		return 0, false
	}
	return abs.Sub(now), true
}

// policyFromMetadata reconstructs the policy an entry was written with.
// The relative-to-now component cannot be recovered; it collapses into the
// absolute deadline it produced at write time.
func policyFromMetadata(m remote.Metadata) ExpirationPolicy {
	var p ExpirationPolicy
	if m.HasAbsolute() {
		p.AbsoluteExpiration = m.Absolute()
	}
	if m.HasSliding() {
		p.SlidingExpiration = m.Sliding()
	}
	return p
}
