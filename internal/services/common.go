package services

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/maia-backend/internal/data/repos"
	"github.com/yungbote/maia-backend/internal/platform/apierr"
	"github.com/yungbote/maia-backend/internal/platform/dbctx"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Clock is injectable for tests.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

// linkChecker adapts LinkRepo to policy.LinkChecker, reusing the caller's
// transaction when there is one.
type linkChecker struct {
	links repos.LinkRepo
	tx    *gorm.DB
}

func (c linkChecker) HasAcceptedLink(ctx context.Context, therapistID, patientID uuid.UUID) (bool, error) {
	return c.links.HasAcceptedLink(dbctx.Context{Ctx: ctx, Tx: c.tx}, therapistID, patientID)
}

// chatServiceError maps a conversational service failure to InvalidRequest.
// Errors already in the taxonomy and context cancellation pass through.
func chatServiceError(err error) error {
	if err == nil {
		return nil
	}
	var ae *apierr.Error
	if errors.As(err, &ae) || errors.Is(err, context.Canceled) {
		return err
	}
	return apierr.InvalidRequest("Chat service error: %v", err)
}
