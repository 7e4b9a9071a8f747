// workers/profile_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"deluxe-isa/models"
	"deluxe-isa/repository"
	"deluxe-isa/services"
	"deluxe-isa/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RemoteProfile matches one entry of the profile service's change feed.
type RemoteProfile struct {
	ID                string    `json:"id"`
	ExternalID        string    `json:"external_id"`
	Username          string    `json:"username"`
	FirstName         *string   `json:"first_name,omitempty"`
	LastName          *string   `json:"last_name,omitempty"`
	Bio               *string   `json:"bio,omitempty"`
	ProfilePictureURL *string   `json:"profile_picture_url,omitempty"`
	AccountStatus     string    `json:"account_status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// GetUserChangesResponse is the top-level structure of the sync service response.
type GetUserChangesResponse struct {
	Users []RemoteProfile `json:"users"`
}

func (p RemoteProfile) displayName() string {
	var parts []string
	for _, s := range []*string{p.FirstName, p.LastName} {
		if s != nil && strings.TrimSpace(*s) != "" {
			parts = append(parts, strings.TrimSpace(*s))
		}
	}
	if len(parts) == 0 {
		return p.Username
	}
	return strings.Join(parts, " ")
}

// ProfileSyncWorker mirrors profile changes from the profile service and makes sure every
// account it sees has a progression record.
type ProfileSyncWorker struct {
	db           *gorm.DB
	progression  *services.ProgressionService
	log          *zap.Logger
	interval     time.Duration
	baseURL      string // e.g., "http://localhost:8500"
	endpointPath string // e.g., "/api/v1/public/profiles"
	serviceToken string
	httpClient   *http.Client
}

func NewProfileSyncWorker(db *gorm.DB, progression *services.ProgressionService, log *zap.Logger,
	baseURL, endpointPath, serviceToken string, interval time.Duration) *ProfileSyncWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ProfileSyncWorker{
		db:           db,
		progression:  progression,
		log:          log,
		interval:     interval,
		baseURL:      baseURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
		httpClient:   utils.HTTPClient,
	}
}

func (w *ProfileSyncWorker) Start(ctx context.Context) {
	w.log.Info("🔁 Starting Profile Sync Worker (profile-service → profiles)…")
	go w.run(ctx)
}

func (w *ProfileSyncWorker) run(ctx context.Context) {
	// Initial sync backfills from the beginning of time.
	if _, err := w.SyncOnce(ctx, time.Time{}); err != nil {
		w.log.Warn("⚠️ Initial profile sync failed", zap.Error(err))
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			since, err := repository.NewProfileRepository(w.db).LastUpdatedAt(ctx)
			if err != nil {
				w.log.Error("❌ Failed to read last profile sync time", zap.Error(err))
				continue
			}
			if _, err := w.SyncOnce(ctx, since); err != nil {
				w.log.Error("❌ Profile sync batch failed", zap.Error(err))
			}
		case <-ctx.Done():
			w.log.Info("⏹️ Profile Sync Worker stopped")
			return
		}
	}
}

// SyncOnce pulls every profile changed since the given time, creates missing progression
// records and upserts the mirror. It returns how many profiles were mirrored. Profiles whose
// progression record could not be created, and any changed at or after the earliest such
// failure, are left out of the mirror so the next tick fetches them again; their errors are
// joined into the returned error.
func (w *ProfileSyncWorker) SyncOnce(ctx context.Context, since time.Time) (int, error) {
	remote, err := w.fetch(ctx, since)
	if err != nil {
		return 0, err
	}
	if len(remote) == 0 {
		w.log.Debug("[SYNC] ✅ No profile changes", zap.Time("since", since))
		return 0, nil
	}

	profiles := make([]models.Profile, 0, len(remote))
	for _, r := range remote {
		if r.ExternalID == "" {
			w.log.Warn("[SYNC] ⚠️ Skipping profile without external_id", zap.String("id", r.ID))
			continue
		}
		profiles = append(profiles, models.Profile{
			ExternalUserID: r.ExternalID,
			Username:       r.Username,
			DisplayName:    r.displayName(),
			ProfileImage:   r.ProfilePictureURL,
			Bio:            r.Bio,
			CreatedAt:      r.CreatedAt,
			UpdatedAt:      r.UpdatedAt,
		})
	}

	// Progression records go first. The mirror's newest updated_at is the next cursor, so a
	// profile is only mirrored once it and every older change have a progression record.
	var (
		created  int
		failures []error
		cutoff   time.Time
	)
	ok := make([]bool, len(profiles))
	for i, p := range profiles {
		_, isNew, err := w.progression.EnsureUser(ctx, p.ExternalUserID)
		if err != nil {
			w.log.Warn("[SYNC] ⚠️ Failed to ensure progression",
				zap.String("user_id", p.ExternalUserID), zap.Error(err))
			failures = append(failures, fmt.Errorf("ensure progression for %s: %w", p.ExternalUserID, err))
			if cutoff.IsZero() || p.UpdatedAt.Before(cutoff) {
				cutoff = p.UpdatedAt
			}
			continue
		}
		ok[i] = true
		if isNew {
			created++
		}
	}

	mirrored := make([]models.Profile, 0, len(profiles))
	for i, p := range profiles {
		if !ok[i] {
			continue
		}
		if len(failures) > 0 && !p.UpdatedAt.Before(cutoff) {
			continue
		}
		mirrored = append(mirrored, p)
	}

	if len(mirrored) > 0 {
		if err := repository.NewProfileRepository(w.db).Upsert(ctx, mirrored); err != nil {
			return 0, errors.Join(append(failures, err)...)
		}
	}

	w.log.Info("[SYNC] ✅ Profiles synced",
		zap.Int("profiles", len(mirrored)),
		zap.Int("new_progressions", created),
		zap.Int("errors", len(failures)),
	)
	if len(failures) > 0 {
		return len(mirrored), fmt.Errorf("profile sync: %d of %d profiles failed: %w",
			len(failures), len(profiles), errors.Join(failures...))
	}
	return len(mirrored), nil
}

func (w *ProfileSyncWorker) fetch(ctx context.Context, since time.Time) ([]RemoteProfile, error) {
	base, err := url.Parse(w.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base sync service URL '%s': %w", w.baseURL, err)
	}

	endpointURL := base.JoinPath(w.endpointPath)
	q := endpointURL.Query()
	q.Set("since", since.UTC().Format(time.RFC3339))
	endpointURL.RawQuery = q.Encode()
	finalURL := endpointURL.String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request to %s: %w", finalURL, err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request to sync service failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("sync service non-200 response: %d: %s", resp.StatusCode, string(body))
	}

	var response GetUserChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode sync service response: %w", err)
	}
	return response.Users, nil
}
