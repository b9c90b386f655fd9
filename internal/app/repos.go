package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/maia-backend/internal/data/repos"
	"github.com/yungbote/maia-backend/internal/platform/logger"
)

type Repos struct {
	User     repos.UserRepo
	Patient  repos.PatientRepo
	Link     repos.LinkRepo
	Alert    repos.AlertRepo
	Report   repos.ReportRepo
	Note     repos.NoteRepo
	Document repos.DocumentRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:     repos.NewUserRepo(db, log),
		Patient:  repos.NewPatientRepo(db, log),
		Link:     repos.NewLinkRepo(db, log),
		Alert:    repos.NewAlertRepo(db, log),
		Report:   repos.NewReportRepo(db, log),
		Note:     repos.NewNoteRepo(db, log),
		Document: repos.NewDocumentRepo(db, log),
	}
}
