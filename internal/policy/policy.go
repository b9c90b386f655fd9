// Package policy holds the access decisions for every protected operation.
// It is pure: no logging, no writes. Link lookups go through LinkChecker.
package policy

import (
	"context"
	"strings"

	"github.com/google/uuid"

	types "github.com/yungbote/maia-backend/internal/domain"
	"github.com/yungbote/maia-backend/internal/platform/apierr"
	"github.com/yungbote/maia-backend/internal/platform/ctxutil"
)

// Caller is the authenticated principal of a request.
type Caller struct {
	UserID   uuid.UUID
	Email    string
	Role     types.Role
	ThreadID string
}

// CallerFrom reads the principal attached by the auth middleware.
func CallerFrom(ctx context.Context) (Caller, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return Caller{}, apierr.Unauthorized("not authenticated")
	}
	return Caller{
		UserID:   rd.UserID,
		Email:    rd.Email,
		Role:     types.Role(rd.Role),
		ThreadID: rd.ThreadID,
	}, nil
}

type LinkChecker interface {
	HasAcceptedLink(ctx context.Context, therapistID, patientID uuid.UUID) (bool, error)
}

func RequireTherapist(c Caller) error {
	switch c.Role {
	case types.RoleTherapist:
		return nil
	case types.RolePatient:
		return apierr.PermissionDenied("only therapists can perform this action")
	default:
		return apierr.PermissionDenied("unknown role")
	}
}

func RequirePatient(c Caller) error {
	switch c.Role {
	case types.RolePatient:
		return nil
	case types.RoleTherapist:
		return apierr.PermissionDenied("only patients can perform this action")
	default:
		return apierr.PermissionDenied("unknown role")
	}
}

// CanMessage allows chat only for patients holding a thread.
func CanMessage(c Caller) error {
	switch c.Role {
	case types.RolePatient:
	case types.RoleTherapist:
		return apierr.PermissionDenied("therapists cannot chat")
	default:
		return apierr.PermissionDenied("unknown role")
	}
	if strings.TrimSpace(c.ThreadID) == "" {
		return apierr.InvalidRequest("no thread id found for user")
	}
	return nil
}

// CanViewPatient requires a therapist caller with an accepted link to exactly
// this patient. Pending, denied and absent links are all denied.
func CanViewPatient(ctx context.Context, c Caller, links LinkChecker, patientID uuid.UUID) error {
	if err := RequireTherapist(c); err != nil {
		return err
	}
	ok, err := links.HasAcceptedLink(ctx, c.UserID, patientID)
	if err != nil {
		return err
	}
	if !ok {
		return apierr.PermissionDenied("not linked to this patient")
	}
	return nil
}

// CanActOnPatient gates writes (reports, notes). Same rule as viewing.
func CanActOnPatient(ctx context.Context, c Caller, links LinkChecker, patientID uuid.UUID) error {
	return CanViewPatient(ctx, c, links, patientID)
}

// CanAcceptLink requires the caller to be the patient named on the link.
func CanAcceptLink(c Caller, link *types.PatientLink) error {
	if err := RequirePatient(c); err != nil {
		return err
	}
	if link == nil {
		return apierr.InvalidRequest("link not found")
	}
	if link.PatientID != c.UserID {
		return apierr.PermissionDenied("link belongs to another patient")
	}
	return nil
}
