// Package models defines the data model for deposit collection.
package models

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/eparkir/setoran/internal/apperr"
)

// Shift identifies the work period a deposit is attributed to.
type Shift string

const (
	ShiftMorning Shift = "Pagi"
	ShiftNight   Shift = "Malam"
)

// Valid reports whether the shift is one of the known work periods.
func (s Shift) Valid() bool {
	return s == ShiftMorning || s == ShiftNight
}

// CurrentShift returns the shift active at the given time.
// Morning runs 07:00 to 17:59; everything else is the night shift.
func CurrentShift(t time.Time) Shift {
	hour := t.Hour()
	if hour >= 7 && hour < 18 {
		return ShiftMorning
	}
	return ShiftNight
}

// PhotoFile is a decoded photo evidence payload.
type PhotoFile struct {
	Name string
	MIME string
	Data []byte
}

// Empty reports whether the photo carries no payload.
func (p PhotoFile) Empty() bool {
	return len(p.Data) == 0
}

// Reader returns a reader over the photo payload.
func (p PhotoFile) Reader() io.Reader {
	return bytes.NewReader(p.Data)
}

// DepositRecord is one recorded cash deposit, either live or queued.
// Descriptive strings are copied from the selection context and not
// re-validated here; the server is the authority.
type DepositRecord struct {
	CollectorRef  string     `json:"collector_ref"`
	CollectorName string     `json:"collector_name"`
	Shift         Shift      `json:"shift"`
	StreetName    string     `json:"street_name"`
	LocationName  string     `json:"location_name"`
	Amount        int64      `json:"amount"`
	Photo         *PhotoFile `json:"-"`
}

// Validate rejects records that must never reach the queue or the server.
func (r DepositRecord) Validate() error {
	if r.CollectorRef == "" {
		return apperr.New(apperr.ErrInvalid, "collector reference is required")
	}
	if !r.Shift.Valid() {
		return apperr.New(apperr.ErrInvalid, fmt.Sprintf("unknown shift %q", r.Shift))
	}
	if r.Amount <= 0 {
		return apperr.New(apperr.ErrInvalid, "amount must be a positive integer")
	}
	return nil
}

// QueuedPayload is the durable form of a DepositRecord. The photo is held as
// a compressed data-URI string plus a filename, since only encodable
// primitives may be persisted.
type QueuedPayload struct {
	CollectorRef  string `json:"collector_ref"`
	CollectorName string `json:"collector_name"`
	Shift         Shift  `json:"shift"`
	StreetName    string `json:"street_name"`
	LocationName  string `json:"location_name"`
	Amount        int64  `json:"amount"`
	PhotoDataURI  string `json:"photo_data_uri,omitempty"`
	PhotoName     string `json:"photo_name,omitempty"`
}

// Record rebuilds the live deposit record without the photo attached.
func (p QueuedPayload) Record() DepositRecord {
	return DepositRecord{
		CollectorRef:  p.CollectorRef,
		CollectorName: p.CollectorName,
		Shift:         p.Shift,
		StreetName:    p.StreetName,
		LocationName:  p.LocationName,
		Amount:        p.Amount,
	}
}

// PendingTransaction is the unit of the offline queue.
type PendingTransaction struct {
	ID         string        `json:"id"`
	EnqueuedAt int64         `json:"enqueued_at"`
	Payload    QueuedPayload `json:"payload"`
}

// NewPendingTransaction assigns a process-unique identifier and timestamp.
// IDs combine the enqueue time with a random suffix and are never reused.
func NewPendingTransaction(payload QueuedPayload) PendingTransaction {
	now := time.Now()
	return PendingTransaction{
		ID:         fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.NewString()[:8]),
		EnqueuedAt: now.UnixMilli(),
		Payload:    payload,
	}
}
