package service

import (
	"context"
	"testing"
	"time"

	"subpay/internal/core/domain"
	"subpay/internal/core/ports"
	"subpay/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestAuditService_Record(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockAuditLogRepository(ctrl)
	svc := NewAuditService(repo, zerolog.Nop())

	userID := uuid.New()
	done := make(chan *domain.AuditLog, 1)
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, record *domain.AuditLog) error {
			done <- record
			return nil
		})

	svc.Record(context.Background(), ports.AuditEntry{
		UserID:       &userID,
		Action:       domain.AuditActionCreateSubscription,
		ResourceType: "subscription",
		ResourceID:   "sub-1",
		IPAddress:    "203.0.113.7",
	})

	select {
	case record := <-done:
		assert.Equal(t, domain.AuditActionCreateSubscription, record.Action)
		assert.Equal(t, &userID, record.UserID)
		assert.Equal(t, "203.0.113.7", record.IPAddress)
		assert.NotEqual(t, uuid.Nil, record.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("audit record was not persisted")
	}
}

func TestAuditService_Record_NilRepoOnlyLogs(t *testing.T) {
	svc := NewAuditService(nil, zerolog.Nop())

	// Must not panic; nothing to assert beyond completion.
	svc.Record(context.Background(), ports.AuditEntry{Action: domain.AuditActionLogin})
	time.Sleep(10 * time.Millisecond)
}
