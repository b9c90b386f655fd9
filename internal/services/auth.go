package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/maia-backend/internal/data/db"
	"github.com/yungbote/maia-backend/internal/data/repos"
	types "github.com/yungbote/maia-backend/internal/domain"
	"github.com/yungbote/maia-backend/internal/platform/apierr"
	"github.com/yungbote/maia-backend/internal/platform/assistant"
	"github.com/yungbote/maia-backend/internal/platform/ctxutil"
	"github.com/yungbote/maia-backend/internal/platform/dbctx"
	"github.com/yungbote/maia-backend/internal/platform/logger"
	"github.com/yungbote/maia-backend/internal/policy"
)

type SignupInput struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	FullName    string `json:"full_name" validate:"required,max=200"`
	PhoneNumber string `json:"phone_number" validate:"max=32"`
	Role        string `json:"role" validate:"required,oneof=patient therapist"`
}

type JWTClaims struct {
	Email    string `json:"email"`
	UserID   string `json:"user_id"`
	Role     string `json:"role"`
	ThreadID string `json:"thread_id,omitempty"`
	jwt.RegisteredClaims
}

type AuthService interface {
	Signup(ctx context.Context, in SignupInput) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
	Me(dbc dbctx.Context) (*types.User, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	db           *gorm.DB
	log          *logger.Logger
	users        repos.UserRepo
	patients     repos.PatientRepo
	documents    repos.DocumentRepo
	assistant    assistant.Client
	provisioning Provisioning
	jwtSecretKey string
	accessTTL    time.Duration
	now          Clock
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	users repos.UserRepo,
	patients repos.PatientRepo,
	documents repos.DocumentRepo,
	client assistant.Client,
	provisioning Provisioning,
	jwtSecretKey string,
	accessTTL time.Duration,
) AuthService {
	if accessTTL <= 0 {
		accessTTL = 30 * time.Minute
	}
	return &authService{
		db:           db,
		log:          log.With("service", "AuthService"),
		users:        users,
		patients:     patients,
		documents:    documents,
		assistant:    client,
		provisioning: provisioning,
		jwtSecretKey: jwtSecretKey,
		accessTTL:    accessTTL,
		now:          systemClock,
	}
}

// provisioned is the external state created for a new patient.
type provisioned struct {
	patient *types.Patient
	docs    []*types.Document
}

func (as *authService) Signup(ctx context.Context, in SignupInput) (string, error) {
	if err := validate.Struct(in); err != nil {
		return "", apierr.InvalidRequest("invalid signup: %v", err)
	}
	role, err := types.ParseRole(in.Role)
	if err != nil {
		return "", apierr.InvalidRequest("%v", err)
	}
	email := repos.NormalizeEmail(in.Email)
	exists, err := as.users.EmailExists(dbctx.Of(ctx), email)
	if err != nil {
		return "", err
	}
	if exists {
		return "", apierr.Conflict("email already registered")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	user := &types.User{
		ID:          uuid.New(),
		Email:       email,
		Password:    string(hashed),
		FullName:    in.FullName,
		PhoneNumber: in.PhoneNumber,
		Role:        role,
		IsActive:    true,
		CreatedAt:   as.now(),
	}

	var prov *provisioned
	if role == types.RolePatient {
		prov, err = as.provisionPatient(ctx, user.ID)
		if err != nil {
			as.log.Error("patient provisioning failed", "user_id", user.ID, "error", err)
			return "", chatServiceError(err)
		}
	}

	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := as.users.Create(dbc, []*types.User{user}); err != nil {
			return err
		}
		if prov == nil {
			return nil
		}
		if err := as.patients.Create(dbc, prov.patient); err != nil {
			return err
		}
		return as.documents.Create(dbc, prov.docs)
	})
	if db.IsUniqueViolation(err) {
		return "", apierr.Conflict("email already registered")
	}
	if err != nil {
		if prov != nil {
			as.log.Warn("signup rolled back after provisioning", "assistant_id", prov.patient.AssistantID)
		}
		return "", fmt.Errorf("create user: %w", err)
	}

	threadID := ""
	if prov != nil {
		threadID = prov.patient.ThreadID
	}
	as.log.Info("user signed up", "user_id", user.ID, "role", role)
	return as.generateAccessToken(user, threadID)
}

// provisionPatient creates the patient's assistant, uploads the knowledge
// base, then opens the chat and report threads concurrently.
func (as *authService) provisionPatient(ctx context.Context, userID uuid.UUID) (*provisioned, error) {
	asst, err := as.assistant.CreateAssistant(ctx, "user-"+userID.String(), as.provisioning.SystemPrompt, assistant.DefaultTools())
	if err != nil {
		return nil, fmt.Errorf("create assistant: %w", err)
	}

	docs := make([]*types.Document, len(as.provisioning.KnowledgeDocs))
	g, gctx := errgroup.WithContext(ctx)
	for i, kd := range as.provisioning.KnowledgeDocs {
		g.Go(func() error {
			up, err := as.assistant.UploadDocument(gctx, asst.AssistantID, kd.Name, kd.Data)
			if err != nil {
				return fmt.Errorf("upload %s: %w", kd.Name, err)
			}
			docs[i] = &types.Document{
				ID:                 uuid.New(),
				OwnerUserID:        userID,
				AssistantID:        asst.AssistantID,
				Source:             types.SourceKnowledgeBase,
				FileName:           kd.Name,
				ProviderDocumentID: up.DocumentID,
				Metadata:           datatypes.JSON(fmt.Sprintf(`{"size_bytes":%d}`, len(kd.Data))),
			}
			return nil
		})
	}
	var chatThread, reportThread *assistant.Thread
	g.Go(func() error {
		t, err := as.assistant.CreateThread(gctx, asst.AssistantID)
		if err != nil {
			return fmt.Errorf("create chat thread: %w", err)
		}
		chatThread = t
		return nil
	})
	g.Go(func() error {
		t, err := as.assistant.CreateThread(gctx, asst.AssistantID)
		if err != nil {
			return fmt.Errorf("create report thread: %w", err)
		}
		reportThread = t
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &provisioned{
		patient: &types.Patient{
			ID:             uuid.New(),
			UserID:         userID,
			AssistantID:    asst.AssistantID,
			ThreadID:       chatThread.ThreadID,
			ReportThreadID: reportThread.ThreadID,
		},
		docs: docs,
	}, nil
}

func (as *authService) Login(ctx context.Context, email, password string) (string, error) {
	dbc := dbctx.Of(ctx)
	user, err := as.users.GetByEmail(dbc, email)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", apierr.Unauthorized("incorrect email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", apierr.Unauthorized("incorrect email or password")
	}
	if !user.IsActive {
		return "", apierr.Unauthorized("account is disabled")
	}
	threadID := ""
	if user.Role == types.RolePatient {
		p, err := as.patients.GetByUserID(dbc, user.ID)
		if err != nil {
			return "", err
		}
		if p != nil {
			threadID = p.ThreadID
		}
	}
	return as.generateAccessToken(user, threadID)
}

func (as *authService) Me(dbc dbctx.Context) (*types.User, error) {
	caller, err := policy.CallerFrom(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	u, err := as.users.GetByID(dbc, caller.UserID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apierr.NotFound("user not found")
	}
	return u, nil
}

func (as *authService) generateAccessToken(user *types.User, threadID string) (string, error) {
	now := as.now()
	claims := JWTClaims{
		Email:    user.Email,
		UserID:   user.ID.String(),
		Role:     string(user.Role),
		ThreadID: threadID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, apierr.Unauthorized("missing token")
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(as.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ctx, apierr.Unauthorized("token expired")
		}
		return ctx, apierr.Unauthorized("could not validate credentials")
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return ctx, apierr.Unauthorized("could not validate credentials")
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return ctx, apierr.Unauthorized("invalid user id in token")
	}
	if _, err := types.ParseRole(claims.Role); err != nil {
		return ctx, apierr.Unauthorized("invalid role in token")
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      userID,
		Email:       claims.Email,
		Role:        claims.Role,
		ThreadID:    claims.ThreadID,
	}), nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}
