// Package sync drains the offline transaction queue against the remote
// submission interface whenever connectivity allows.
package sync

import (
	"context"
	"sync/atomic"

	"github.com/eparkir/setoran/internal/logging"
	"github.com/eparkir/setoran/internal/models"
	"github.com/eparkir/setoran/internal/photo"
	"github.com/eparkir/setoran/internal/queue"
	"github.com/eparkir/setoran/internal/submit"
)

// SaveStatus reports how a deposit was persisted.
type SaveStatus string

const (
	// StatusSubmitted means the deposit reached the server directly.
	StatusSubmitted SaveStatus = "submitted"
	// StatusQueued means the deposit was saved offline for a later pass.
	StatusQueued SaveStatus = "queued"
)

// Result summarizes one sync pass.
type Result struct {
	Submitted     int
	Retained      int
	PhotosDropped int
}

// Engine orchestrates offline saves and queue drains.
//
// At most one sync pass runs at a time: the guard collapses overlapping
// triggers (network-online event, app start, manual retry) into a single
// pass, and a trigger arriving mid-pass is a no-op. A pass always runs to
// completion over its snapshot; there is no mid-pass cancellation beyond
// the context the submitter honors per item.
type Engine struct {
	queue     *queue.Store
	submitter submit.Submitter
	codec     *photo.Codec

	syncing atomic.Bool
	online  atomic.Bool
}

// NewEngine creates an Engine. It starts in the offline state until the
// connectivity watcher reports otherwise.
func NewEngine(q *queue.Store, s submit.Submitter, c *photo.Codec) *Engine {
	return &Engine{queue: q, submitter: s, codec: c}
}

// Online reports the last known connectivity state.
func (e *Engine) Online() bool {
	return e.online.Load()
}

// Syncing reports whether a pass is currently running.
func (e *Engine) Syncing() bool {
	return e.syncing.Load()
}

// Pending returns the externally observable pending count.
func (e *Engine) Pending() int {
	n, err := e.queue.Count()
	if err != nil {
		logging.Error("Failed to read pending count", err, nil)
		return 0
	}
	return n
}

// SetOnline records a connectivity change. A transition to online starts a
// sync pass in the caller's goroutine.
func (e *Engine) SetOnline(ctx context.Context, online bool) {
	was := e.online.Swap(online)
	if was == online {
		return
	}

	logging.Info("Connectivity changed", logging.Fields{"online": online})

	if online {
		if _, err := e.SyncNow(ctx); err != nil {
			logging.Error("Sync pass after reconnect failed", err, nil)
		}
	}
}

// Save persists one deposit: submitted directly when online, compressed and
// queued when offline. Failures on this path are the caller's to surface —
// the collector is actively waiting — including QUOTA_EXCEEDED from the
// durable store.
func (e *Engine) Save(ctx context.Context, rec models.DepositRecord) (SaveStatus, error) {
	if err := rec.Validate(); err != nil {
		return "", err
	}

	if e.online.Load() {
		if err := e.submitter.Submit(ctx, rec); err != nil {
			return "", err
		}
		return StatusSubmitted, nil
	}

	payload := models.QueuedPayload{
		CollectorRef:  rec.CollectorRef,
		CollectorName: rec.CollectorName,
		Shift:         rec.Shift,
		StreetName:    rec.StreetName,
		LocationName:  rec.LocationName,
		Amount:        rec.Amount,
	}

	if rec.Photo != nil && !rec.Photo.Empty() {
		dataURI, err := e.codec.Compress(rec.Photo.Reader())
		if err != nil {
			return "", err
		}
		payload.PhotoDataURI = dataURI
		payload.PhotoName = rec.Photo.Name
	}

	if err := e.queue.Enqueue(models.NewPendingTransaction(payload)); err != nil {
		return "", err
	}
	return StatusQueued, nil
}

// SyncNow drains a snapshot of the queue, one item at a time in FIFO order.
// Succeeded items are dropped; failed items are retained in their original
// relative order for the next pass. One item's failure never aborts the
// batch. Calling SyncNow while a pass is active, or while offline, is a
// no-op.
func (e *Engine) SyncNow(ctx context.Context) (Result, error) {
	if !e.online.Load() {
		return Result{}, nil
	}
	if !e.syncing.CompareAndSwap(false, true) {
		return Result{}, nil
	}
	defer e.syncing.Store(false)

	snapshot, err := e.queue.Snapshot()
	if err != nil {
		return Result{}, err
	}
	if len(snapshot) == 0 {
		return Result{}, nil
	}

	logging.Info("Sync pass started", logging.Fields{"pending": len(snapshot)})

	var result Result
	retained := make([]models.PendingTransaction, 0, len(snapshot))

	for _, tx := range snapshot {
		rec := tx.Payload.Record()

		if tx.Payload.PhotoDataURI != "" {
			file, err := e.codec.Decode(tx.Payload.PhotoDataURI, tx.Payload.PhotoName)
			if err != nil {
				// Unparsable evidence degrades to a photo-less submission.
				result.PhotosDropped++
				logging.Warn("Dropping unreadable photo from queued transaction", logging.Fields{
					"id":    tx.ID,
					"error": err.Error(),
				})
			}
			if !file.Empty() {
				rec.Photo = &file
			}
		}

		if err := e.submitter.Submit(ctx, rec); err != nil {
			logging.Warn("Queued transaction failed to sync, keeping it", logging.Fields{
				"id":    tx.ID,
				"error": err.Error(),
			})
			retained = append(retained, tx)
			continue
		}
		result.Submitted++
	}

	result.Retained = len(retained)

	if err := e.queue.Reconcile(snapshot, retained); err != nil {
		return result, err
	}

	logging.Info("Sync pass finished", logging.Fields{
		"submitted":      result.Submitted,
		"retained":       result.Retained,
		"photos_dropped": result.PhotosDropped,
	})

	return result, nil
}
