package domain

import (
	"github.com/yungbote/maia-backend/internal/domain/care"
	"github.com/yungbote/maia-backend/internal/domain/user"
)

type (
	Role    = user.Role
	User    = user.User
	Patient = user.Patient

	LinkStatus     = care.LinkStatus
	PatientLink    = care.PatientLink
	RiskLevel      = care.RiskLevel
	Alert          = care.Alert
	AlertView      = care.AlertView
	Report         = care.Report
	PatientNote    = care.PatientNote
	Document       = care.Document
	DocumentSource = care.DocumentSource
)

const (
	RolePatient   = user.RolePatient
	RoleTherapist = user.RoleTherapist

	LinkPending  = care.LinkPending
	LinkAccepted = care.LinkAccepted
	LinkDenied   = care.LinkDenied

	RiskLow    = care.RiskLow
	RiskMedium = care.RiskMedium
	RiskHigh   = care.RiskHigh

	SourceKnowledgeBase = care.SourceKnowledgeBase
	SourcePatientNote   = care.SourcePatientNote
)

// Models lists every persisted type in migration order.
func Models() []any {
	return []any{
		&user.User{},
		&user.Patient{},
		&care.PatientLink{},
		&care.Alert{},
		&care.Report{},
		&care.PatientNote{},
		&care.Document{},
	}
}

var (
	ParseRole       = user.ParseRole
	ParseLinkStatus = care.ParseLinkStatus
	ParseRiskLevel  = care.ParseRiskLevel
)
