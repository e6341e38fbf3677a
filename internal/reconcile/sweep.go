// Package reconcile refreshes persisted access request records against the
// authoritative IGA status and notifies requesters of changes.
package reconcile

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/providentiaww/iga-slack-bridge/internal/models"
	"github.com/providentiaww/iga-slack-bridge/internal/platform"
)

const (
	// queryLimit is how many records one sweep reads from the store.
	queryLimit = 200
	// maxResults caps the returned request list.
	maxResults = 25
)

// StatusFetcher looks up the authoritative status for a request. ok=false
// means no status is available (unconfigured integration or a failed
// lookup); the fetcher never returns an error.
type StatusFetcher interface {
	GetRequestStatus(ctx context.Context, requestID string) (status string, ok bool)
}

// Deduper decides whether a status-change notification should be sent.
type Deduper interface {
	ShouldNotify(ctx context.Context, requestID, status string) bool
}

// Sweep reconciles a user's persisted requests with the IGA backend.
type Sweep struct {
	records   platform.RecordStore
	statuses  StatusFetcher
	messenger platform.Messenger
	dedupe    Deduper
	now       func() time.Time
}

// New creates a sweep. dedupe may be nil, in which case every observed
// transition notifies (the at-least-once reference behavior).
func New(records platform.RecordStore, statuses StatusFetcher, messenger platform.Messenger, dedupe Deduper) *Sweep {
	return &Sweep{
		records:   records,
		statuses:  statuses,
		messenger: messenger,
		dedupe:    dedupe,
		now:       time.Now,
	}
}

// Reconcile loads the user's request records, refreshes each against the IGA
// backend, persists and announces status changes, and returns the user's
// requests sorted most recent first, capped at 25. Per-record failures are
// swallowed; only a record-store query failure propagates.
func (s *Sweep) Reconcile(ctx context.Context, userID string) ([]models.AccessRequestRecord, error) {
	all, err := s.records.Query(ctx, queryLimit)
	if err != nil {
		return nil, fmt.Errorf("unable to query request records: %w", err)
	}

	var refreshed []models.AccessRequestRecord
	for _, record := range all {
		if record.RequesterUserID != userID {
			continue
		}
		refreshed = append(refreshed, s.refreshRecord(ctx, record))
	}

	sortByRequestedAt(refreshed)
	if len(refreshed) > maxResults {
		refreshed = refreshed[:maxResults]
	}
	return refreshed, nil
}

// refreshRecord applies one record's remote status. Any failure carries the
// original record forward unmodified; there are no retries within a sweep.
func (s *Sweep) refreshRecord(ctx context.Context, record models.AccessRequestRecord) models.AccessRequestRecord {
	status, ok := s.statuses.GetRequestStatus(ctx, record.ID)
	if !ok {
		// No status available; leave the record untouched.
		return record
	}

	syncedAt := s.now().UTC().Format(time.RFC3339)
	if status == record.Status {
		record.LastSyncedAt = syncedAt
		return record
	}

	updated := record
	updated.Status = status
	updated.LastSyncedAt = syncedAt
	if err := s.records.Put(ctx, updated); err != nil {
		log.Printf("Error: unable to persist refreshed status for %s: %v", record.ID, err)
		return record
	}

	if s.dedupe == nil || s.dedupe.ShouldNotify(ctx, record.ID, status) {
		text := fmt.Sprintf("Request *%s* (%s) is now *%s*.", record.CatalogItemLabel, record.ID, status)
		if err := s.messenger.SendDM(ctx, record.RequesterUserID, text); err != nil {
			log.Printf("Error: unable to notify %s about %s: %v", record.RequesterUserID, record.ID, err)
		}
	}
	return updated
}

// sortByRequestedAt orders records newest first. Records whose requestedAt
// does not parse sort after all parsable ones, keeping their relative order.
func sortByRequestedAt(records []models.AccessRequestRecord) {
	type key struct {
		at    time.Time
		valid bool
	}
	keys := make(map[string]key, len(records))
	for _, record := range records {
		at, err := time.Parse(time.RFC3339, record.RequestedAt)
		keys[record.ID] = key{at: at, valid: err == nil}
	}
	sort.SliceStable(records, func(i, j int) bool {
		a, b := keys[records[i].ID], keys[records[j].ID]
		if a.valid != b.valid {
			return a.valid
		}
		return a.at.After(b.at)
	})
}
