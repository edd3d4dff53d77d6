package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"safestreet/metrics"
	"safestreet/models"

	"github.com/apex/log"
	"github.com/golang/geo/s2"
	"github.com/google/uuid"
)

const earthRadiusKm = 6371.0

// ErrReportNotFound is returned when a referenced upload id does not
// exist.
var ErrReportNotFound = errors.New("report not found")

// Geocoder resolves free-form location text into coordinates.
type Geocoder interface {
	ForwardGeocode(ctx context.Context, query string) (float64, float64, error)
}

// UploadService persists submitted defect reports and drives their
// lifecycle.
type UploadService struct {
	db       *sql.DB
	geocoder Geocoder
}

// NewUploadService creates a new upload service instance
func NewUploadService(db *sql.DB, geocoder Geocoder) *UploadService {
	return &UploadService{db: db, geocoder: geocoder}
}

// SaveUpload persists a finalized submission. Geocoding the location
// text is best-effort: on failure the report is stored with null
// coordinates rather than rejected.
func (s *UploadService) SaveUpload(ctx context.Context, userID, location, summaryText, imageURL string) (*models.Upload, error) {
	var latitude, longitude *float64
	lat, lon, err := s.geocoder.ForwardGeocode(ctx, location)
	if err != nil {
		log.WithError(err).Warnf("Failed to geocode location %q, storing without coordinates", location)
		metrics.GeocodeFailuresTotal.Inc()
	} else {
		latitude, longitude = &lat, &lon
	}

	upload := &models.Upload{
		ID:        uuid.New().String(),
		UserID:    userID,
		ImageURL:  imageURL,
		Location:  location,
		Summary:   summaryText,
		Latitude:  latitude,
		Longitude: longitude,
		Status:    models.StatusPending,
		CreatedAt: time.Now().UTC(),
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO uploads (id, user_id, image_url, location, summary, latitude, longitude, status, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		upload.ID, upload.UserID, upload.ImageURL, upload.Location, upload.Summary,
		upload.Latitude, upload.Longitude, upload.Status, upload.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert upload: %w", err)
	}

	return upload, nil
}

// Resolve transitions an upload from Pending to Resolved. Resolving an
// already resolved report is a no-op; an unknown id is ErrReportNotFound.
func (s *UploadService) Resolve(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE uploads SET status = ? WHERE id = ? AND status = ?",
		models.StatusResolved, id, models.StatusPending)
	if err != nil {
		return fmt.Errorf("failed to resolve upload: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected > 0 {
		return nil
	}

	// Nothing updated: either the id is unknown or a concurrent resolve
	// already won, which counts as success.
	var exists bool
	err = s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM uploads WHERE id = ?)", id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to query upload: %w", err)
	}
	if !exists {
		return ErrReportNotFound
	}
	return nil
}

// ListUploads returns all submitted reports, newest first.
func (s *UploadService) ListUploads(ctx context.Context) ([]models.Upload, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, user_id, image_url, location, summary, latitude, longitude, status, created_at FROM uploads ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query uploads: %w", err)
	}
	defer rows.Close()

	return scanUploads(rows)
}

// ListNearby returns reports with known coordinates within radiusKm of
// the given point, newest first.
func (s *UploadService) ListNearby(ctx context.Context, lat, lon, radiusKm float64) ([]models.Upload, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, user_id, image_url, location, summary, latitude, longitude, status, created_at FROM uploads WHERE latitude IS NOT NULL AND longitude IS NOT NULL ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query uploads: %w", err)
	}
	defer rows.Close()

	uploads, err := scanUploads(rows)
	if err != nil {
		return nil, err
	}

	center := s2.LatLngFromDegrees(lat, lon)
	nearby := make([]models.Upload, 0, len(uploads))
	for _, u := range uploads {
		point := s2.LatLngFromDegrees(*u.Latitude, *u.Longitude)
		if center.Distance(point).Radians()*earthRadiusKm <= radiusKm {
			nearby = append(nearby, u)
		}
	}
	return nearby, nil
}

func scanUploads(rows *sql.Rows) ([]models.Upload, error) {
	uploads := []models.Upload{}
	for rows.Next() {
		var u models.Upload
		if err := rows.Scan(&u.ID, &u.UserID, &u.ImageURL, &u.Location, &u.Summary,
			&u.Latitude, &u.Longitude, &u.Status, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan upload: %w", err)
		}
		uploads = append(uploads, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read uploads: %w", err)
	}
	return uploads, nil
}
