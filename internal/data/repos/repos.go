package repos

import (
	"github.com/yungbote/maia-backend/internal/data/repos/care"
	"github.com/yungbote/maia-backend/internal/data/repos/user"
)

type UserRepo = user.UserRepo
type PatientRepo = user.PatientRepo

type LinkRepo = care.LinkRepo
type AlertRepo = care.AlertRepo
type ReportRepo = care.ReportRepo
type NoteRepo = care.NoteRepo
type DocumentRepo = care.DocumentRepo

var (
	NewUserRepo     = user.NewUserRepo
	NewPatientRepo  = user.NewPatientRepo
	NewLinkRepo     = care.NewLinkRepo
	NewAlertRepo    = care.NewAlertRepo
	NewReportRepo   = care.NewReportRepo
	NewNoteRepo     = care.NewNoteRepo
	NewDocumentRepo = care.NewDocumentRepo

	NormalizeEmail = user.NormalizeEmail
)
