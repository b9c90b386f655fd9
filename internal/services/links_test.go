package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/maia-backend/internal/data/repos"
	"github.com/yungbote/maia-backend/internal/data/repos/testutil"
	types "github.com/yungbote/maia-backend/internal/domain"
	"github.com/yungbote/maia-backend/internal/platform/apierr"
	"github.com/yungbote/maia-backend/internal/platform/dbctx"
)

func newLinkSvc(t *testing.T) (*world, LinkService) {
	t.Helper()
	w := newWorld(t)
	return w, NewLinkService(w.db, testutil.Logger(t), w.users, w.links)
}

func TestLinkRequestCreatesPending(t *testing.T) {
	w, svc := newLinkSvc(t)
	ctx := context.Background()
	therapist := testutil.SeedTherapist(t, ctx, w.db, "t@example.com")
	patient, _ := testutil.SeedPatient(t, ctx, w.db, "p@example.com")

	link, err := svc.Request(callerCtx(therapist, ""), "  P@Example.com ")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if link.Status != types.LinkPending {
		t.Fatalf("status: want=pending got=%s", link.Status)
	}
	if link.PatientID != patient.ID || link.TherapistID != therapist.ID {
		t.Fatalf("link pair mismatch: %+v", link)
	}

	_, err = svc.Request(callerCtx(therapist, ""), "p@example.com")
	if !errors.Is(err, apierr.ErrInvalidRequest) {
		t.Fatalf("duplicate request: want invalid_request got %v", err)
	}
	if n := testutil.Count(t, w.db, &types.PatientLink{}); n != 1 {
		t.Fatalf("links: want=1 got=%d", n)
	}
}

func TestLinkRequestDuplicateIsInvalidRequest(t *testing.T) {
	for _, status := range []types.LinkStatus{types.LinkPending, types.LinkDenied} {
		t.Run(string(status), func(t *testing.T) {
			w, svc := newLinkSvc(t)
			ctx := context.Background()
			therapist := testutil.SeedTherapist(t, ctx, w.db, "t@example.com")
			patient, _ := testutil.SeedPatient(t, ctx, w.db, "p@example.com")
			testutil.SeedLink(t, ctx, w.db, patient.ID, therapist.ID, status)

			_, err := svc.Request(callerCtx(therapist, ""), "p@example.com")
			if !errors.Is(err, apierr.ErrInvalidRequest) {
				t.Fatalf("want invalid_request got %v", err)
			}
			if n := testutil.Count(t, w.db, &types.PatientLink{}); n != 1 {
				t.Fatalf("links: want=1 got=%d", n)
			}
		})
	}
}

// unseenLinkRepo hides existing rows from Get so Create races into the
// unique index.
type unseenLinkRepo struct {
	repos.LinkRepo
}

func (unseenLinkRepo) Get(dbctx.Context, uuid.UUID, uuid.UUID) (*types.PatientLink, error) {
	return nil, nil
}

func TestLinkRequestUniqueViolationIsInvalidRequest(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	svc := NewLinkService(w.db, testutil.Logger(t), w.users, unseenLinkRepo{LinkRepo: w.links})
	therapist := testutil.SeedTherapist(t, ctx, w.db, "t@example.com")
	patient, _ := testutil.SeedPatient(t, ctx, w.db, "p@example.com")
	testutil.SeedLink(t, ctx, w.db, patient.ID, therapist.ID, types.LinkPending)

	_, err := svc.Request(callerCtx(therapist, ""), "p@example.com")
	if !errors.Is(err, apierr.ErrInvalidRequest) {
		t.Fatalf("want invalid_request got %v", err)
	}
	if n := testutil.Count(t, w.db, &types.PatientLink{}); n != 1 {
		t.Fatalf("links: want=1 got=%d", n)
	}
}

func TestLinkRequestUnknownEmailWritesNothing(t *testing.T) {
	w, svc := newLinkSvc(t)
	therapist := testutil.SeedTherapist(t, context.Background(), w.db, "t@example.com")

	_, err := svc.Request(callerCtx(therapist, ""), "ghost@example.com")
	if !errors.Is(err, apierr.ErrNotFound) {
		t.Fatalf("want not_found got %v", err)
	}
	if n := testutil.Count(t, w.db, &types.PatientLink{}); n != 0 {
		t.Fatalf("links: want=0 got=%d", n)
	}
}

func TestLinkRequestRejectsNonPatientTarget(t *testing.T) {
	w, svc := newLinkSvc(t)
	ctx := context.Background()
	therapist := testutil.SeedTherapist(t, ctx, w.db, "t@example.com")
	testutil.SeedTherapist(t, ctx, w.db, "other@example.com")

	_, err := svc.Request(callerCtx(therapist, ""), "other@example.com")
	if !errors.Is(err, apierr.ErrInvalidRequest) {
		t.Fatalf("want invalid_request got %v", err)
	}
}

func TestLinkRequestByPatientDenied(t *testing.T) {
	w, svc := newLinkSvc(t)
	ctx := context.Background()
	patient, p := testutil.SeedPatient(t, ctx, w.db, "p@example.com")
	testutil.SeedPatient(t, ctx, w.db, "q@example.com")

	_, err := svc.Request(callerCtx(patient, p.ThreadID), "q@example.com")
	if !errors.Is(err, apierr.ErrPermissionDenied) {
		t.Fatalf("want permission_denied got %v", err)
	}
}

func TestLinkAccept(t *testing.T) {
	w, svc := newLinkSvc(t)
	ctx := context.Background()
	therapist := testutil.SeedTherapist(t, ctx, w.db, "t@example.com")
	patient, p := testutil.SeedPatient(t, ctx, w.db, "p@example.com")
	testutil.SeedLink(t, ctx, w.db, patient.ID, therapist.ID, types.LinkPending)

	if err := svc.Accept(callerCtx(patient, p.ThreadID), therapist.ID); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	got, err := w.links.Get(callerCtx(patient, ""), patient.ID, therapist.ID)
	if err != nil || got == nil {
		t.Fatalf("Get: %v %v", got, err)
	}
	if got.Status != types.LinkAccepted {
		t.Fatalf("status: want=accepted got=%s", got.Status)
	}

	// Accepting again is a no-op.
	if err := svc.Accept(callerCtx(patient, p.ThreadID), therapist.ID); err != nil {
		t.Fatalf("second Accept: %v", err)
	}
}

func TestLinkAcceptWrongCallerDoesNotMutate(t *testing.T) {
	w, svc := newLinkSvc(t)
	ctx := context.Background()
	therapist := testutil.SeedTherapist(t, ctx, w.db, "t@example.com")
	patient, _ := testutil.SeedPatient(t, ctx, w.db, "p@example.com")
	other, op := testutil.SeedPatient(t, ctx, w.db, "o@example.com")
	testutil.SeedLink(t, ctx, w.db, patient.ID, therapist.ID, types.LinkPending)

	err := svc.Accept(callerCtx(other, op.ThreadID), therapist.ID)
	if !errors.Is(err, apierr.ErrInvalidRequest) {
		t.Fatalf("other patient: want invalid_request got %v", err)
	}
	err = svc.Accept(callerCtx(therapist, ""), therapist.ID)
	if !errors.Is(err, apierr.ErrPermissionDenied) {
		t.Fatalf("therapist: want permission_denied got %v", err)
	}

	got, _ := w.links.Get(callerCtx(patient, ""), patient.ID, therapist.ID)
	if got.Status != types.LinkPending {
		t.Fatalf("status changed to %s", got.Status)
	}
}

func TestLinkAcceptDeniedIsRejected(t *testing.T) {
	w, svc := newLinkSvc(t)
	ctx := context.Background()
	therapist := testutil.SeedTherapist(t, ctx, w.db, "t@example.com")
	patient, p := testutil.SeedPatient(t, ctx, w.db, "p@example.com")
	testutil.SeedLink(t, ctx, w.db, patient.ID, therapist.ID, types.LinkDenied)

	err := svc.Accept(callerCtx(patient, p.ThreadID), therapist.ID)
	if !errors.Is(err, apierr.ErrInvalidRequest) {
		t.Fatalf("want invalid_request got %v", err)
	}
}

func TestLinkListProjectsCounterpart(t *testing.T) {
	w, svc := newLinkSvc(t)
	ctx := context.Background()
	therapist := testutil.SeedTherapist(t, ctx, w.db, "t@example.com")
	p1, pp1 := testutil.SeedPatient(t, ctx, w.db, "p1@example.com")
	p2, _ := testutil.SeedPatient(t, ctx, w.db, "p2@example.com")
	testutil.SeedLink(t, ctx, w.db, p1.ID, therapist.ID, types.LinkAccepted)
	testutil.SeedLink(t, ctx, w.db, p2.ID, therapist.ID, types.LinkPending)

	all, err := svc.List(callerCtx(therapist, ""), "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("therapist links: want=2 got=%d", len(all))
	}

	pending, err := svc.List(callerCtx(therapist, ""), "pending")
	if err != nil {
		t.Fatalf("List pending: %v", err)
	}
	if len(pending) != 1 || pending[0].FriendUserID != p2.ID {
		t.Fatalf("pending: %+v", pending)
	}

	mine, err := svc.List(callerCtx(p1, pp1.ThreadID), "")
	if err != nil {
		t.Fatalf("patient List: %v", err)
	}
	if len(mine) != 1 || mine[0].FriendUserID != therapist.ID || mine[0].Email != therapist.Email {
		t.Fatalf("patient view: %+v", mine)
	}

	if _, err := svc.List(callerCtx(therapist, ""), "maybe"); !errors.Is(err, apierr.ErrInvalidRequest) {
		t.Fatalf("bad status: want invalid_request got %v", err)
	}
}

func TestLinkListUnauthenticated(t *testing.T) {
	_, svc := newLinkSvc(t)
	_, err := svc.List(callerCtx(&types.User{ID: uuid.Nil}, ""), "")
	if !errors.Is(err, apierr.ErrUnauthorized) {
		t.Fatalf("want unauthorized got %v", err)
	}
}
