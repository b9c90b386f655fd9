package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/maia-backend/internal/data/repos/testutil"
	types "github.com/yungbote/maia-backend/internal/domain"
	"github.com/yungbote/maia-backend/internal/platform/apierr"
	"github.com/yungbote/maia-backend/internal/platform/ctxutil"
	"github.com/yungbote/maia-backend/internal/platform/dbctx"
)

const testSecret = "test-secret"

func newAuthSvc(t *testing.T) (*world, *fakeAssistant, *authService) {
	t.Helper()
	w := newWorld(t)
	fake := newFakeAssistant()
	prov := Provisioning{
		SystemPrompt: "be kind",
		KnowledgeDocs: []KnowledgeDoc{
			{Name: "coping.md", Data: []byte("breathe")},
			{Name: "sleep.md", Data: []byte("rest")},
		},
	}
	svc := NewAuthService(w.db, testutil.Logger(t), w.users, w.patients, w.documents, fake, prov, testSecret, time.Hour).(*authService)
	return w, fake, svc
}

func signupInput(email, role string) SignupInput {
	return SignupInput{Email: email, Password: "correct-horse", FullName: "Sam Doe", PhoneNumber: "555-0101", Role: role}
}

func TestSignupPatientProvisions(t *testing.T) {
	w, fake, svc := newAuthSvc(t)
	ctx := context.Background()

	token, err := svc.Signup(ctx, signupInput("Pat@Example.com", "patient"))
	require.NoError(t, err)
	require.NotEmpty(t, token)

	authed, err := svc.SetContextFromToken(ctx, token)
	require.NoError(t, err)
	rd := ctxutil.GetRequestData(authed)
	require.NotNil(t, rd)
	assert.Equal(t, "pat@example.com", rd.Email)
	assert.Equal(t, string(types.RolePatient), rd.Role)
	assert.NotEmpty(t, rd.ThreadID)

	p, err := w.patients.GetByUserID(dbctx.Of(ctx), rd.UserID)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, rd.ThreadID, p.ThreadID)
	assert.NotEqual(t, p.ThreadID, p.ReportThreadID)
	assert.Len(t, fake.created, 1)
	assert.ElementsMatch(t, []string{"coping.md", "sleep.md"}, fake.uploads)

	docs, err := w.documents.ListByOwner(dbctx.Of(ctx), rd.UserID)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestSignupTherapistSkipsProvisioning(t *testing.T) {
	w, fake, svc := newAuthSvc(t)
	token, err := svc.Signup(context.Background(), signupInput("doc@example.com", "therapist"))
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Empty(t, fake.created)
	assert.Equal(t, int64(0), testutil.Count(t, w.db, &types.Patient{}))
}

func TestSignupDuplicateEmailConflict(t *testing.T) {
	_, _, svc := newAuthSvc(t)
	ctx := context.Background()
	_, err := svc.Signup(ctx, signupInput("dup@example.com", "therapist"))
	require.NoError(t, err)

	_, err = svc.Signup(ctx, signupInput("DUP@example.com", "patient"))
	assert.True(t, errors.Is(err, apierr.ErrConflict), "got %v", err)
}

func TestSignupValidation(t *testing.T) {
	_, _, svc := newAuthSvc(t)
	for _, in := range []SignupInput{
		signupInput("not-an-email", "patient"),
		signupInput("a@example.com", "admin"),
		{Email: "a@example.com", Password: "short", FullName: "A", Role: "patient"},
	} {
		_, err := svc.Signup(context.Background(), in)
		assert.True(t, errors.Is(err, apierr.ErrInvalidRequest), "input %+v: got %v", in, err)
	}
}

func TestSignupProvisioningFailureWritesNothing(t *testing.T) {
	w, fake, svc := newAuthSvc(t)
	fake.threadErr = errors.New("provider down")

	_, err := svc.Signup(context.Background(), signupInput("p@example.com", "patient"))
	require.Error(t, err)
	assert.Equal(t, int64(0), testutil.Count(t, w.db, &types.User{}))
}

func TestLogin(t *testing.T) {
	_, _, svc := newAuthSvc(t)
	ctx := context.Background()
	_, err := svc.Signup(ctx, signupInput("p@example.com", "patient"))
	require.NoError(t, err)

	token, err := svc.Login(ctx, " P@example.com", "correct-horse")
	require.NoError(t, err)
	authed, err := svc.SetContextFromToken(ctx, token)
	require.NoError(t, err)
	assert.NotEmpty(t, ctxutil.GetRequestData(authed).ThreadID)

	me, err := svc.Me(dbctx.Of(authed))
	require.NoError(t, err)
	assert.Equal(t, "p@example.com", me.Email)

	_, err = svc.Login(ctx, "p@example.com", "wrong")
	assert.True(t, errors.Is(err, apierr.ErrUnauthorized))
	_, err = svc.Login(ctx, "nobody@example.com", "correct-horse")
	assert.True(t, errors.Is(err, apierr.ErrUnauthorized))
}

func TestSetContextFromTokenRejects(t *testing.T) {
	_, _, svc := newAuthSvc(t)
	ctx := context.Background()

	_, err := svc.SetContextFromToken(ctx, "")
	assert.True(t, errors.Is(err, apierr.ErrUnauthorized))

	_, err = svc.SetContextFromToken(ctx, "garbage")
	assert.True(t, errors.Is(err, apierr.ErrUnauthorized))

	// Wrong key.
	other := jwt.NewWithClaims(jwt.SigningMethodHS256, JWTClaims{UserID: "x", Role: "patient"})
	signed, err := other.SignedString([]byte("another-secret"))
	require.NoError(t, err)
	_, err = svc.SetContextFromToken(ctx, signed)
	assert.True(t, errors.Is(err, apierr.ErrUnauthorized))

	// Expired.
	_, err = svc.Signup(ctx, signupInput("t@example.com", "therapist"))
	require.NoError(t, err)
	token, err := svc.Login(ctx, "t@example.com", "correct-horse")
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.SetContextFromToken(ctx, token)
	assert.True(t, errors.Is(err, apierr.ErrUnauthorized))
}
