// Package ids implements content-addressed ID generation and partial-ID
// resolution against hex-encoded SHA-256 digests.
package ids

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/mrorigo/pearls/internal/errs"
	"github.com/mrorigo/pearls/internal/model"
)

const prefix = "prl-"

// minLen/maxLen bound the hex suffix length the grammar allows.
const minLen = 6
const maxLen = 8

// Generate computes a content-addressed ID from (title, author, timestamp,
// nonce): SHA-256 over their canonical concatenation, take the first 6 hex
// characters. Deterministic for a fixed input tuple. Generate itself never
// extends the length; GenerateUnique does that on collision.
func Generate(title, author string, timestamp int64, nonce int) string {
	return GenerateWithLength(title, author, timestamp, nonce, minLen)
}

// GenerateWithLength is Generate with an explicit hex-suffix length in
// [minLen, maxLen], used when extending past 6 characters on collision.
func GenerateWithLength(title, author string, timestamp int64, nonce, length int) string {
	if length < minLen {
		length = minLen
	}
	if length > maxLen {
		length = maxLen
	}
	content := fmt.Sprintf("%s|%s|%d|%d", title, author, timestamp, nonce)
	sum := sha256.Sum256([]byte(content))
	return prefix + hex.EncodeToString(sum[:])[:length]
}

// Exists reports id-set membership, used by GenerateUnique to detect collisions.
type Exists func(id string) bool

// GenerateUnique generates an ID for (title, author, timestamp), retrying
// with an incrementing nonce on collision against the active+archive ID set,
// and extending the hex suffix from 6 to 8 characters if nonces alone do not
// clear a collision within a handful of attempts.
func GenerateUnique(title, author string, timestamp int64, exists Exists) string {
	length := minLen
	nonce := 0
	for {
		id := GenerateWithLength(title, author, timestamp, nonce, length)
		if !exists(id) {
			return id
		}
		nonce++
		if nonce%8 == 0 && length < maxLen {
			length++
		}
	}
}

// Validate reports whether id matches the ID grammar, anchored.
func Validate(id string) error {
	if !model.ValidID(id) {
		return errs.New(errs.InvalidRecord, "invalid id format %q: must match prl-[0-9a-f]{6,8}", id)
	}
	return nil
}

// normalize strips a leading "prl-" so bare-prefix lookups work the same as
// full-prefix ones.
func normalize(partial string) string {
	return strings.TrimPrefix(partial, prefix)
}

// Resolve resolves a partial ID (>= 3 characters, with or without the
// "prl-" prefix) against ids, a set of full candidate IDs. A unique match
// returns that full ID; zero matches returns NotFound with up to
// maxSuggestions near-miss candidates ranked by shared-prefix length;
// multiple matches returns Ambiguous listing every candidate.
func Resolve(partial string, ids []string) (string, error) {
	return ResolveN(partial, ids, 5)
}

const minPartialLen = 3

func ResolveN(partial string, ids []string, maxSuggestions int) (string, error) {
	bare := normalize(partial)
	if len(bare) < minPartialLen {
		return "", errs.New(errs.NotFound, "partial id %q must be at least %d characters", partial, minPartialLen)
	}

	var matches []string
	for _, id := range ids {
		if strings.HasPrefix(normalize(id), bare) {
			matches = append(matches, id)
		}
	}

	switch len(matches) {
	case 0:
		return "", errs.NotFoundErr(partial, nearMisses(bare, ids, maxSuggestions))
	case 1:
		return matches[0], nil
	default:
		sort.Strings(matches)
		return "", errs.AmbiguousErr(partial, matches)
	}
}

// nearMisses ranks candidates by longest shared prefix with bare, descending,
// breaking ties lexically, and returns up to n of them.
func nearMisses(bare string, ids []string, n int) []string {
	type scored struct {
		id    string
		score int
	}
	scoredIDs := make([]scored, 0, len(ids))
	for _, id := range ids {
		scoredIDs = append(scoredIDs, scored{id, sharedPrefixLen(bare, normalize(id))})
	}
	sort.Slice(scoredIDs, func(i, j int) bool {
		if scoredIDs[i].score != scoredIDs[j].score {
			return scoredIDs[i].score > scoredIDs[j].score
		}
		return scoredIDs[i].id < scoredIDs[j].id
	})
	out := make([]string, 0, n)
	for _, s := range scoredIDs {
		if s.score == 0 || len(out) >= n {
			break
		}
		out = append(out, s.id)
	}
	return out
}

func sharedPrefixLen(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}
