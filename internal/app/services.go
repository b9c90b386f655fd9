package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/maia-backend/internal/observability"
	"github.com/yungbote/maia-backend/internal/platform/logger"
	"github.com/yungbote/maia-backend/internal/services"
)

type Services struct {
	Auth      services.AuthService
	Links     services.LinkService
	Guardian  services.GuardianService
	Chat      services.ChatService
	Reports   services.ReportService
	Therapist services.TherapistService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	prov, err := services.LoadProvisioning(cfg.SystemPromptPath, cfg.KnowledgeDocsDir)
	if err != nil {
		return Services{}, fmt.Errorf("load provisioning: %w", err)
	}
	log.Info("Loaded patient provisioning", "knowledge_docs", len(prov.KnowledgeDocs))

	guardian := services.NewGuardianService(db, log, repos.Link, repos.Alert, metrics)
	return Services{
		Auth: services.NewAuthService(
			db, log,
			repos.User, repos.Patient, repos.Document,
			clients.Assistant, prov,
			cfg.JWTSecretKey, cfg.AccessTokenTTL,
		),
		Links:    services.NewLinkService(db, log, repos.User, repos.Link),
		Guardian: guardian,
		Chat:     services.NewChatService(log, clients.Assistant, guardian, metrics),
		Reports:  services.NewReportService(db, log, repos.Patient, repos.Link, repos.Report, clients.Assistant, metrics),
		Therapist: services.NewTherapistService(
			db, log,
			repos.User, repos.Patient, repos.Link, repos.Alert, repos.Note, repos.Document,
			clients.Assistant, metrics,
		),
	}, nil
}
