package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"safestreet/geocode"
	"safestreet/models"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jknair0/beforeeach"
)

var (
	db   *sql.DB
	mock sqlmock.Sqlmock
)

func setUp() {
	db, mock, _ = sqlmock.New()
}

func tearDown() {
	db.Close()
}

var it = beforeeach.Create(setUp, tearDown)

type fakeGeocoder struct {
	lat, lon float64
	err      error
}

func (g *fakeGeocoder) ForwardGeocode(ctx context.Context, query string) (float64, float64, error) {
	return g.lat, g.lon, g.err
}

func TestSaveUpload(t *testing.T) {
	it(func() {
		s := NewUploadService(db, &fakeGeocoder{lat: 39.78, lon: -89.65})

		mock.ExpectExec("INSERT INTO uploads").
			WithArgs(sqlmock.AnyArg(), "user-1", "/uploads/1-a.jpg", "Main St, Springfield",
				"Pothole", sqlmock.AnyArg(), sqlmock.AnyArg(), models.StatusPending, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		upload, err := s.SaveUpload(context.Background(), "user-1", "Main St, Springfield", "Pothole", "/uploads/1-a.jpg")
		if err != nil {
			t.Fatalf("SaveUpload: %v", err)
		}
		if upload.Latitude == nil || *upload.Latitude != 39.78 {
			t.Errorf("latitude = %v", upload.Latitude)
		}
		if upload.Status != models.StatusPending {
			t.Errorf("status = %q", upload.Status)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Error(err)
		}
	})
}

func TestSaveUploadGeocodeFailureStoresNullCoordinates(t *testing.T) {
	it(func() {
		s := NewUploadService(db, &fakeGeocoder{err: geocode.ErrNotFound})

		mock.ExpectExec("INSERT INTO uploads").
			WithArgs(sqlmock.AnyArg(), "user-1", "/uploads/1-a.jpg", "somewhere vague",
				"Pothole", nil, nil, models.StatusPending, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		upload, err := s.SaveUpload(context.Background(), "user-1", "somewhere vague", "Pothole", "/uploads/1-a.jpg")
		if err != nil {
			t.Fatalf("SaveUpload should succeed despite geocode failure: %v", err)
		}
		if upload.Latitude != nil || upload.Longitude != nil {
			t.Errorf("coordinates = (%v, %v), want nils", upload.Latitude, upload.Longitude)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Error(err)
		}
	})
}

func TestResolve(t *testing.T) {
	it(func() {
		s := NewUploadService(db, &fakeGeocoder{})

		mock.ExpectExec("UPDATE uploads SET status = (.+) WHERE id = (.+) AND status = (.+)").
			WithArgs(models.StatusResolved, "up-1", models.StatusPending).
			WillReturnResult(sqlmock.NewResult(0, 1))

		if err := s.Resolve(context.Background(), "up-1"); err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Error(err)
		}
	})
}

func TestResolveAlreadyResolvedIsNoOp(t *testing.T) {
	it(func() {
		s := NewUploadService(db, &fakeGeocoder{})

		mock.ExpectExec("UPDATE uploads SET status = (.+)").
			WithArgs(models.StatusResolved, "up-1", models.StatusPending).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("up-1").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		if err := s.Resolve(context.Background(), "up-1"); err != nil {
			t.Fatalf("resolving a resolved report should be a no-op, got %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Error(err)
		}
	})
}

func TestResolveUnknownID(t *testing.T) {
	it(func() {
		s := NewUploadService(db, &fakeGeocoder{})

		mock.ExpectExec("UPDATE uploads SET status = (.+)").
			WithArgs(models.StatusResolved, "missing", models.StatusPending).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		if err := s.Resolve(context.Background(), "missing"); !errors.Is(err, ErrReportNotFound) {
			t.Fatalf("err = %v, want ErrReportNotFound", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Error(err)
		}
	})
}

func uploadColumns() []string {
	return []string{"id", "user_id", "image_url", "location", "summary", "latitude", "longitude", "status", "created_at"}
}

func TestListUploads(t *testing.T) {
	it(func() {
		s := NewUploadService(db, &fakeGeocoder{})

		mock.ExpectQuery("SELECT (.+) FROM uploads ORDER BY created_at DESC").
			WillReturnRows(sqlmock.NewRows(uploadColumns()).
				AddRow("up-2", "user-1", "/uploads/2-b.jpg", "Elm St", "Crack", 40.0, -89.0, "Pending", time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)).
				AddRow("up-1", "user-1", "/uploads/1-a.jpg", "Main St", "Pothole", nil, nil, "Resolved", time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)))

		uploads, err := s.ListUploads(context.Background())
		if err != nil {
			t.Fatalf("ListUploads: %v", err)
		}
		if len(uploads) != 2 {
			t.Fatalf("len = %d", len(uploads))
		}
		if uploads[0].ID != "up-2" {
			t.Errorf("order: first id = %q, want newest first", uploads[0].ID)
		}
		if uploads[1].Latitude != nil {
			t.Errorf("null latitude scanned as %v", uploads[1].Latitude)
		}
	})
}

func TestListNearbyFiltersByDistance(t *testing.T) {
	it(func() {
		s := NewUploadService(db, &fakeGeocoder{})

		// Springfield IL vs Chicago: ~280 km apart.
		mock.ExpectQuery("SELECT (.+) FROM uploads WHERE latitude IS NOT NULL").
			WillReturnRows(sqlmock.NewRows(uploadColumns()).
				AddRow("near", "user-1", "/uploads/1.jpg", "Main St", "Pothole", 39.7820, -89.6500, "Pending", time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)).
				AddRow("far", "user-1", "/uploads/2.jpg", "Michigan Ave", "Crack", 41.8781, -87.6298, "Pending", time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC)))

		uploads, err := s.ListNearby(context.Background(), 39.7817, -89.6501, 5.0)
		if err != nil {
			t.Fatalf("ListNearby: %v", err)
		}
		if len(uploads) != 1 || uploads[0].ID != "near" {
			t.Fatalf("uploads = %+v, want only the nearby report", uploads)
		}
	})
}
