package workers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"deluxe-isa/models"
	"deluxe-isa/repository"
	"deluxe-isa/services"
	"deluxe-isa/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func strPtr(s string) *string { return &s }

func TestSyncOnceMirrorsProfilesAndEnsuresProgression(t *testing.T) {
	db := testutil.NewDB(t)
	log := zaptest.NewLogger(t)
	testutil.SeedUser(t, db, "existing", 700)

	updated := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var gotSince, gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/public/profiles", r.URL.Path)
		gotSince = r.URL.Query().Get("since")
		gotToken = r.Header.Get("X-Service-Token")
		_ = json.NewEncoder(w).Encode(GetUserChangesResponse{Users: []RemoteProfile{
			{ExternalID: "new-user", Username: "maria", FirstName: strPtr("Maria"), LastName: strPtr("Silva"), UpdatedAt: updated},
			{ExternalID: "existing", Username: "joao", ProfilePictureURL: strPtr("https://cdn/joao.png"), UpdatedAt: updated},
			{ExternalID: "", Username: "broken"},
		}})
	}))
	defer srv.Close()

	progression := services.NewProgressionService(db, nil, log)
	w := NewProfileSyncWorker(db, progression, log, srv.URL, "/api/v1/public/profiles", "svc-token", time.Minute)

	n, err := w.SyncOnce(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "svc-token", gotToken)
	assert.Equal(t, "0001-01-01T00:00:00Z", gotSince)

	var maria models.Profile
	require.NoError(t, db.Where("external_user_id = ?", "new-user").First(&maria).Error)
	assert.Equal(t, "Maria Silva", maria.DisplayName)

	var joao models.Profile
	require.NoError(t, db.Where("external_user_id = ?", "existing").First(&joao).Error)
	assert.Equal(t, "joao", joao.DisplayName)
	require.NotNil(t, joao.ProfileImage)

	view, err := progression.GetProgression(context.Background(), "new-user")
	require.NoError(t, err)
	assert.Equal(t, int64(0), view.TotalXP)

	view, err = progression.GetProgression(context.Background(), "existing")
	require.NoError(t, err)
	assert.Equal(t, int64(700), view.TotalXP)

	// A second sync updates the mirror in place.
	_, err = w.SyncOnce(context.Background(), updated)
	require.NoError(t, err)
	var count int64
	require.NoError(t, db.Model(&models.Profile{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestSyncOnceReportsServiceErrors(t *testing.T) {
	db := testutil.NewDB(t)
	log := zaptest.NewLogger(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	w := NewProfileSyncWorker(db, services.NewProgressionService(db, nil, log), log, srv.URL, "/profiles", "t", 0)
	_, err := w.SyncOnce(context.Background(), time.Time{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestSyncOnceKeepsCursorWhenProgressionFails(t *testing.T) {
	db := testutil.NewDB(t)
	log := zaptest.NewLogger(t)
	ctx := context.Background()

	updated := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(GetUserChangesResponse{Users: []RemoteProfile{
			{ExternalID: "ana", Username: "ana", UpdatedAt: updated},
		}})
	}))
	defer srv.Close()

	progression := services.NewProgressionService(db, nil, log)
	w := NewProfileSyncWorker(db, progression, log, srv.URL, "/profiles", "t", time.Minute)

	require.NoError(t, db.Migrator().DropTable(&models.UserProgression{}))

	n, err := w.SyncOnce(ctx, time.Time{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ana")
	assert.Equal(t, 0, n)

	cursor, err := repository.NewProfileRepository(db).LastUpdatedAt(ctx)
	require.NoError(t, err)
	assert.True(t, cursor.IsZero(), "cursor moved past a profile without progression")

	// Once the store recovers the same profile is picked up again.
	require.NoError(t, db.AutoMigrate(&models.UserProgression{}))
	n, err = w.SyncOnce(ctx, cursor)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = progression.GetProgression(ctx, "ana")
	require.NoError(t, err)
	cursor, err = repository.NewProfileRepository(db).LastUpdatedAt(ctx)
	require.NoError(t, err)
	assert.True(t, cursor.Equal(updated))
}
