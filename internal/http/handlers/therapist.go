package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/maia-backend/internal/domain"
	"github.com/yungbote/maia-backend/internal/http/response"
	"github.com/yungbote/maia-backend/internal/platform/apierr"
	"github.com/yungbote/maia-backend/internal/platform/dbctx"
	"github.com/yungbote/maia-backend/internal/services"
)

type TherapistHandler struct {
	therapists services.TherapistService
	reports    services.ReportService
}

func NewTherapistHandler(therapists services.TherapistService, reports services.ReportService) *TherapistHandler {
	return &TherapistHandler{therapists: therapists, reports: reports}
}

type patientOut struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	Role        types.Role `json:"role"`
	FullName    string     `json:"full_name"`
	PhoneNumber string     `json:"phone_number"`
}

func toPatientOut(u *types.User) patientOut {
	return patientOut{ID: u.ID, Email: u.Email, Role: u.Role, FullName: u.FullName, PhoneNumber: u.PhoneNumber}
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.RespondAPIError(c, apierr.InvalidRequest("invalid %s", name))
		return uuid.Nil, false
	}
	return id, true
}

// GET /therapists/patients
func (h *TherapistHandler) ListPatients(c *gin.Context) {
	users, err := h.therapists.ListPatients(dbctx.Context{Ctx: c.Request.Context()})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	out := make([]patientOut, 0, len(users))
	for _, u := range users {
		out = append(out, toPatientOut(u))
	}
	response.RespondOK(c, out)
}

// GET /therapists/patients/:patient_id
func (h *TherapistHandler) GetPatient(c *gin.Context) {
	patientID, ok := pathUUID(c, "patient_id")
	if !ok {
		return
	}
	u, err := h.therapists.GetPatient(dbctx.Context{Ctx: c.Request.Context()}, patientID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, toPatientOut(u))
}

// POST /therapists/patients/:patient_id/reports
func (h *TherapistHandler) GenerateReport(c *gin.Context) {
	patientID, ok := pathUUID(c, "patient_id")
	if !ok {
		return
	}
	report, err := h.reports.Generate(dbctx.Context{Ctx: c.Request.Context()}, patientID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, report)
}

// GET /therapists/patients/:patient_id/reports
func (h *TherapistHandler) ListReports(c *gin.Context) {
	patientID, ok := pathUUID(c, "patient_id")
	if !ok {
		return
	}
	reports, err := h.reports.List(dbctx.Context{Ctx: c.Request.Context()}, patientID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, reports)
}

// GET /therapists/patients/:patient_id/reports/:report_id
func (h *TherapistHandler) GetReport(c *gin.Context) {
	patientID, ok := pathUUID(c, "patient_id")
	if !ok {
		return
	}
	reportID, ok := pathUUID(c, "report_id")
	if !ok {
		return
	}
	report, err := h.reports.Get(dbctx.Context{Ctx: c.Request.Context()}, patientID, reportID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, report)
}

// GET /therapists/alerts
func (h *TherapistHandler) ListAlerts(c *gin.Context) {
	alerts, err := h.therapists.ListAlerts(dbctx.Context{Ctx: c.Request.Context()})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, alerts)
}

// GET /therapists/patients/:patient_id/alerts
func (h *TherapistHandler) ListPatientAlerts(c *gin.Context) {
	patientID, ok := pathUUID(c, "patient_id")
	if !ok {
		return
	}
	alerts, err := h.therapists.ListPatientAlerts(dbctx.Context{Ctx: c.Request.Context()}, patientID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, alerts)
}

// POST /therapists/patients/:patient_id/notes (multipart "file")
func (h *TherapistHandler) UploadNote(c *gin.Context) {
	patientID, ok := pathUUID(c, "patient_id")
	if !ok {
		return
	}
	// Bound the body slightly above the cap so multipart overhead still fits.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, services.MaxNoteBytes+1<<20)
	fh, err := c.FormFile("file")
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			response.RespondAPIError(c, apierr.InvalidRequest("file exceeds the 5 MB limit"))
			return
		}
		response.RespondAPIError(c, apierr.InvalidRequest("multipart field \"file\" is required"))
		return
	}
	if fh.Size > services.MaxNoteBytes {
		response.RespondAPIError(c, apierr.InvalidRequest("file exceeds the 5 MB limit"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, services.MaxNoteBytes+1))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	note, err := h.therapists.UploadNote(dbctx.Context{Ctx: c.Request.Context()}, patientID, fh.Filename, data)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.JSON(http.StatusCreated, note)
}

// GET /therapists/patients/:patient_id/notes
func (h *TherapistHandler) ListNotes(c *gin.Context) {
	patientID, ok := pathUUID(c, "patient_id")
	if !ok {
		return
	}
	notes, err := h.therapists.ListNotes(dbctx.Context{Ctx: c.Request.Context()}, patientID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, notes)
}
