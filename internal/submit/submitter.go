// Package submit sends deposit records to the remote backend.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/eparkir/setoran/internal/apperr"
	"github.com/eparkir/setoran/internal/logging"
	"github.com/eparkir/setoran/internal/models"
)

// Submitter persists one deposit remotely. The pipeline treats it as a
// single opaque operation that may fail; no failure is considered permanent.
type Submitter interface {
	Submit(ctx context.Context, rec models.DepositRecord) error
}

// HTTPSubmitter posts deposits to the backend REST surface. Photo evidence
// is uploaded first and its storage path attached to the row; an upload
// failure is tolerated and the row is submitted without a photo path.
type HTTPSubmitter struct {
	client  *http.Client
	baseURL string
	token   string
}

// NewHTTPSubmitter creates a submitter against baseURL.
func NewHTTPSubmitter(baseURL string, timeout time.Duration) *HTTPSubmitter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPSubmitter{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				MaxIdleConnsPerHost: 10,
			},
		},
		baseURL: baseURL,
	}
}

// SetToken sets the bearer token attached to subsequent requests.
func (s *HTTPSubmitter) SetToken(token string) {
	s.token = token
}

type transactionRow struct {
	CollectorRef  string `json:"jukir_id"`
	CollectorName string `json:"jukir_name"`
	Shift         string `json:"shift"`
	Amount        int64  `json:"amount"`
	StreetName    string `json:"street_name"`
	LocationName  string `json:"location_name"`
	ImagePath     string `json:"image_path,omitempty"`
}

// Submit validates the record, uploads its photo if present and posts the
// transaction row.
func (s *HTTPSubmitter) Submit(ctx context.Context, rec models.DepositRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	imagePath := ""
	if rec.Photo != nil && !rec.Photo.Empty() {
		uploaded, err := s.uploadPhoto(ctx, rec.CollectorRef, *rec.Photo)
		if err != nil {
			// The deposit still counts without its evidence.
			logging.Warn("Photo upload failed, submitting without evidence", logging.Fields{
				"collector_ref": rec.CollectorRef,
				"photo":         rec.Photo.Name,
				"error":         err.Error(),
			})
		} else {
			imagePath = uploaded
		}
	}

	row := transactionRow{
		CollectorRef:  rec.CollectorRef,
		CollectorName: rec.CollectorName,
		Shift:         string(rec.Shift),
		Amount:        rec.Amount,
		StreetName:    rec.StreetName,
		LocationName:  rec.LocationName,
		ImagePath:     imagePath,
	}

	body, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to encode transaction: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/transactions", bytes.NewReader(body))
	if err != nil {
		return apperr.Wrap(apperr.ErrSubmitFailed, "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	s.authorize(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.ErrSubmitFailed, "transaction request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperr.New(apperr.ErrSubmitFailed,
			fmt.Sprintf("server rejected transaction with status %d", resp.StatusCode))
	}

	return nil
}

// uploadPhoto stores the evidence file and returns its storage path.
// A random element in the path prevents filename collisions.
func (s *HTTPSubmitter) uploadPhoto(ctx context.Context, collectorRef string, photo models.PhotoFile) (string, error) {
	ext := path.Ext(photo.Name)
	if ext == "" {
		ext = ".jpg"
	}
	storagePath := fmt.Sprintf("uploads/%d_%s_%s%s",
		time.Now().UnixMilli(), uuid.NewString()[:7], collectorRef, ext)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/evidence/"+storagePath, bytes.NewReader(photo.Data))
	if err != nil {
		return "", err
	}
	if photo.MIME != "" {
		req.Header.Set("Content-Type", photo.MIME)
	}
	s.authorize(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("upload rejected with status %d", resp.StatusCode)
	}

	return storagePath, nil
}

func (s *HTTPSubmitter) authorize(req *http.Request) {
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
}
