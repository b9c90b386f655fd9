package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/maia-backend/internal/domain"
)

func SeedTherapist(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	return seedUser(tb, ctx, tx, email, types.RoleTherapist)
}

// SeedPatient creates a patient user and its Patient profile.
func SeedPatient(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) (*types.User, *types.Patient) {
	tb.Helper()
	u := seedUser(tb, ctx, tx, email, types.RolePatient)
	short := u.ID.String()[:8]
	p := &types.Patient{
		ID:             uuid.New(),
		UserID:         u.ID,
		AssistantID:    "asst-" + short,
		ThreadID:       "thread-" + short,
		ReportThreadID: "report-" + short,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed patient: %v", err)
	}
	return u, p
}

func SeedLink(tb testing.TB, ctx context.Context, tx *gorm.DB, patientID, therapistID uuid.UUID, status types.LinkStatus) *types.PatientLink {
	tb.Helper()
	now := time.Now().UTC()
	l := &types.PatientLink{
		ID:          uuid.New(),
		PatientID:   patientID,
		TherapistID: therapistID,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed link: %v", err)
	}
	return l
}

func SeedAlert(tb testing.TB, ctx context.Context, tx *gorm.DB, patientID uuid.UUID, therapistID *uuid.UUID, level types.RiskLevel, at time.Time) *types.Alert {
	tb.Helper()
	a := &types.Alert{
		ID:          uuid.New(),
		PatientID:   patientID,
		TherapistID: therapistID,
		RiskLevel:   level,
		Cause:       "seeded",
		CreatedAt:   at,
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed alert: %v", err)
	}
	return a
}

func seedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string, role types.Role) *types.User {
	u := &types.User{
		ID:          uuid.New(),
		Email:       email,
		Password:    "pw",
		FullName:    "Test " + string(role),
		PhoneNumber: "555-0100",
		Role:        role,
		IsActive:    true,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}
