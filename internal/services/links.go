package services

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/maia-backend/internal/data/db"
	"github.com/yungbote/maia-backend/internal/data/repos"
	types "github.com/yungbote/maia-backend/internal/domain"
	"github.com/yungbote/maia-backend/internal/platform/apierr"
	"github.com/yungbote/maia-backend/internal/platform/dbctx"
	"github.com/yungbote/maia-backend/internal/platform/logger"
	"github.com/yungbote/maia-backend/internal/policy"
)

// LinkRequest is a link as seen by one side: the counterpart's identity and
// the link status.
type LinkRequest struct {
	FriendUserID uuid.UUID        `json:"friend_user_id"`
	Status       types.LinkStatus `json:"status"`
	Name         string           `json:"name"`
	Email        string           `json:"email"`
	PhoneNumber  string           `json:"phone_number"`
}

type LinkService interface {
	Request(dbc dbctx.Context, patientEmail string) (*types.PatientLink, error)
	Accept(dbc dbctx.Context, therapistID uuid.UUID) error
	List(dbc dbctx.Context, status string) ([]*LinkRequest, error)
}

type linkService struct {
	db    *gorm.DB
	log   *logger.Logger
	users repos.UserRepo
	links repos.LinkRepo
}

func NewLinkService(db *gorm.DB, baseLog *logger.Logger, users repos.UserRepo, links repos.LinkRepo) LinkService {
	return &linkService{
		db:    db,
		log:   baseLog.With("service", "LinkService"),
		users: users,
		links: links,
	}
}

func (s *linkService) Request(dbc dbctx.Context, patientEmail string) (*types.PatientLink, error) {
	caller, err := policy.CallerFrom(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	if err := policy.RequireTherapist(caller); err != nil {
		return nil, apierr.PermissionDenied("patients cannot send link requests")
	}
	if strings.TrimSpace(patientEmail) == "" {
		return nil, apierr.InvalidRequest("patient_email is required")
	}

	var link *types.PatientLink
	err = s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbc.WithTx(tx)
		patient, err := s.users.GetByEmail(inner, patientEmail)
		if err != nil {
			return err
		}
		if patient == nil {
			return apierr.NotFound("patient with email %s does not exist", repos.NormalizeEmail(patientEmail))
		}
		if patient.Role != types.RolePatient {
			return apierr.InvalidRequest("user is not a patient")
		}
		existing, err := s.links.Get(inner, patient.ID, caller.UserID)
		if err != nil {
			return err
		}
		if existing != nil {
			return apierr.InvalidRequest("link already exists with status %s", existing.Status)
		}
		link = &types.PatientLink{
			ID:          uuid.New(),
			PatientID:   patient.ID,
			TherapistID: caller.UserID,
			Status:      types.LinkPending,
		}
		return s.links.Create(inner, link)
	})
	if db.IsUniqueViolation(err) {
		return nil, apierr.InvalidRequest("link already exists")
	}
	if err != nil {
		return nil, err
	}
	s.log.Info("link requested", "therapist_id", caller.UserID, "patient_id", link.PatientID)
	return link, nil
}

func (s *linkService) Accept(dbc dbctx.Context, therapistID uuid.UUID) error {
	caller, err := policy.CallerFrom(dbc.Ctx)
	if err != nil {
		return err
	}
	if err := policy.RequirePatient(caller); err != nil {
		return apierr.PermissionDenied("therapists cannot accept link requests")
	}
	return s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbc.WithTx(tx)
		link, err := s.links.Get(inner, caller.UserID, therapistID)
		if err != nil {
			return err
		}
		if link == nil {
			return apierr.InvalidRequest("invalid link request")
		}
		if err := policy.CanAcceptLink(caller, link); err != nil {
			return err
		}
		switch link.Status {
		case types.LinkAccepted:
			return nil
		case types.LinkPending:
			if err := s.links.UpdateStatus(inner, link.ID, types.LinkAccepted); err != nil {
				return err
			}
			s.log.Info("link accepted", "therapist_id", therapistID, "patient_id", caller.UserID)
			return nil
		default:
			return apierr.InvalidRequest("link is %s and cannot be accepted", link.Status)
		}
	})
}

func (s *linkService) List(dbc dbctx.Context, status string) ([]*LinkRequest, error) {
	caller, err := policy.CallerFrom(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	var filter *types.LinkStatus
	if strings.TrimSpace(status) != "" {
		st, err := types.ParseLinkStatus(status)
		if err != nil {
			return nil, apierr.InvalidRequest("invalid status: %s", status)
		}
		filter = &st
	}
	switch caller.Role {
	case types.RolePatient, types.RoleTherapist:
	default:
		return nil, apierr.PermissionDenied("invalid role")
	}

	links, err := s.links.ListForUser(dbc, caller.UserID, caller.Role, filter)
	if err != nil {
		return nil, err
	}
	out := make([]*LinkRequest, 0, len(links))
	for _, l := range links {
		other := l.Patient
		if caller.Role == types.RolePatient {
			other = l.Therapist
		}
		if other == nil {
			continue
		}
		out = append(out, &LinkRequest{
			FriendUserID: other.ID,
			Status:       l.Status,
			Name:         other.FullName,
			Email:        other.Email,
			PhoneNumber:  other.PhoneNumber,
		})
	}
	return out, nil
}
