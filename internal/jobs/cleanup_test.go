package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cannaconvert/account-server-go/internal/model"
)

type mockSessionRepo struct {
	deleteExpiredCount int64
	deleteExpiredCalls atomic.Int32
}

func (m *mockSessionRepo) Create(ctx context.Context, params model.CreateAdminSessionParams) (*model.AdminSession, error) {
	return nil, nil
}

func (m *mockSessionRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.AdminSession, error) {
	return nil, nil
}

func (m *mockSessionRepo) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	return nil
}

func (m *mockSessionRepo) DeleteByAdminID(ctx context.Context, adminID string) (int64, error) {
	return 0, nil
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	m.deleteExpiredCalls.Add(1)
	return m.deleteExpiredCount, nil
}

func TestCleanupJob(t *testing.T) {
	t.Run("creates job with correct interval", func(t *testing.T) {
		job := NewCleanupJob(nil, 5*time.Minute)

		assert.NotNil(t, job)
		assert.Equal(t, 5*time.Minute, job.interval)
	})

	t.Run("runs cleanup on start and stops cleanly", func(t *testing.T) {
		repo := &mockSessionRepo{deleteExpiredCount: 2}

		job := NewCleanupJob(repo, 1*time.Hour)
		job.Start()

		assert.Eventually(t, func() bool {
			return repo.deleteExpiredCalls.Load() >= 1
		}, time.Second, 5*time.Millisecond)

		job.Stop()
	})
}
