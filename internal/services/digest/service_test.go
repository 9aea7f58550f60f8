package digest

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/taskpulse/internal/common"
	"github.com/ternarybob/taskpulse/internal/interfaces"
	"github.com/ternarybob/taskpulse/internal/models"
	"github.com/ternarybob/taskpulse/internal/storage/badger"
)

// recordingNotifier captures dispatched notifications.
type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
	users    []string
}

func (r *recordingNotifier) Notify(ctx context.Context, user *models.User, notifType string, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, user.ID)
	r.messages = append(r.messages, message)
	return nil
}

func newTestDigest(t *testing.T) (*Service, interfaces.StorageManager, *recordingNotifier) {
	t.Helper()
	logger := common.GetLogger()

	storage, err := badger.NewManager(logger, &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })

	notifier := &recordingNotifier{}
	cfg := &common.DigestConfig{Enabled: true, IntervalHours: 168}
	return NewService(storage, notifier, cfg, logger), storage, notifier
}

func storeDigestUser(t *testing.T, storage interfaces.StorageManager, id string, optIn bool, lastSent *time.Time) *models.User {
	t.Helper()
	user := &models.User{
		ID:     id,
		Name:   "Ana",
		Email:  id + "@example.com",
		Role:   models.RoleUser,
		Status: models.UserStatusActive,
		Preferences: models.NotificationPreferences{
			InApp:        true,
			WeeklyDigest: optIn,
		},
		DigestLastSentAt: lastSent,
	}
	require.NoError(t, storage.UserStorage().StoreUser(context.Background(), user))
	return user
}

func TestProcessDueSendsToOptedInUsers(t *testing.T) {
	svc, storage, notifier := newTestDigest(t)
	ctx := context.Background()
	now := time.Now().UTC()

	storeDigestUser(t, storage, "u1", true, nil)

	task := &models.Task{
		ID:          "t1",
		ProjectID:   "p1",
		Title:       "Ship beta",
		Status:      models.TaskStatusInProgress,
		Priority:    models.PriorityHigh,
		AssigneeIDs: []string{"u1"},
		CreatedAt:   now.Add(-24 * time.Hour),
		UpdatedAt:   now.Add(-time.Hour),
	}
	require.NoError(t, storage.TaskStorage().StoreTask(ctx, task))

	require.NoError(t, svc.ProcessDue(ctx, now))

	require.Len(t, notifier.users, 1)
	assert.Equal(t, "u1", notifier.users[0])
	assert.True(t, strings.Contains(notifier.messages[0], "Ship beta"))
	assert.True(t, strings.Contains(notifier.messages[0], "1 total"))

	// The send timestamp is recorded so the next pass skips the user.
	stored, err := storage.UserStorage().GetUser(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, stored.DigestLastSentAt)

	require.NoError(t, svc.ProcessDue(ctx, now.Add(time.Minute)))
	assert.Len(t, notifier.users, 1)
}

func TestProcessDueSkipsNonOptedUsers(t *testing.T) {
	svc, storage, notifier := newTestDigest(t)
	ctx := context.Background()
	now := time.Now().UTC()

	storeDigestUser(t, storage, "no-digest", false, nil)

	recent := now.Add(-time.Hour)
	storeDigestUser(t, storage, "too-recent", true, &recent)

	inactive := storeDigestUser(t, storage, "inactive", true, nil)
	inactive.Status = models.UserStatusInactive
	require.NoError(t, storage.UserStorage().StoreUser(ctx, inactive))

	require.NoError(t, svc.ProcessDue(ctx, now))
	assert.Empty(t, notifier.users)
}

func TestProcessDueSendsWhenIntervalElapsed(t *testing.T) {
	svc, storage, notifier := newTestDigest(t)
	ctx := context.Background()
	now := time.Now().UTC()

	lastSent := now.Add(-200 * time.Hour)
	storeDigestUser(t, storage, "u1", true, &lastSent)

	require.NoError(t, svc.ProcessDue(ctx, now))
	assert.Equal(t, []string{"u1"}, notifier.users)
}

func TestProcessDueDisabled(t *testing.T) {
	svc, storage, notifier := newTestDigest(t)
	svc.cfg.Enabled = false

	storeDigestUser(t, storage, "u1", true, nil)

	require.NoError(t, svc.ProcessDue(context.Background(), time.Now().UTC()))
	assert.Empty(t, notifier.users)
}
