// Package dedup provides the finding index that enforces at-most-once
// emission per listing. CheckAndInsert is the single linearization point: the
// engine only notifies for findings this index reports as new.
package dedup

import (
	"context"

	"github.com/tkivela/dealwatch/app/alert"
)

type Index interface {
	// CheckAndInsert records the finding unless its fingerprint was already
	// seen. Returns true when the finding is new. Safe for concurrent use
	// across alert evaluations.
	CheckAndInsert(ctx context.Context, f alert.Finding) (bool, error)

	// Recent returns up to limit findings, most recently emitted first.
	Recent(ctx context.Context, limit int) ([]alert.Finding, error)

	Count(ctx context.Context) (int, error)
}

// Fingerprint derives the stable identity of a listing: the source identifier
// plus the source-local id, falling back to the canonical URL. Two fetches of
// the same listing always produce the same fingerprint.
func Fingerprint(source, sourceID, url string) string {
	id := sourceID
	if id == "" {
		id = url
	}
	return source + "#" + id
}
