package service

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"classhub/backend/config"
	"classhub/backend/internal/dto"
	"classhub/backend/internal/model"
	"classhub/backend/internal/repository"
	pkgerrors "classhub/backend/pkg/errors"
	"classhub/backend/pkg/jwt"
)

// ── auth business errors ──

var (
	ErrInvalidCredentials = pkgerrors.New(pkgerrors.KindUnauthorized, 11001, "invalid email or password")
	ErrUserNotFound       = pkgerrors.New(pkgerrors.KindNotFound, 11002, "user not found")
	ErrInvalidToken       = pkgerrors.New(pkgerrors.KindUnauthorized, 11003, "invalid or expired token")
	ErrTokenRevoked       = pkgerrors.New(pkgerrors.KindUnauthorized, 11004, "token has been revoked")
	ErrEmailTaken         = pkgerrors.New(pkgerrors.KindConflict, 11005, "email is already registered")
	ErrInvitationInvalid  = pkgerrors.New(pkgerrors.KindBadRequest, 11006, "invitation code is invalid")
	ErrInvitationUsed     = pkgerrors.New(pkgerrors.KindConflict, 11007, "invitation code has already been used")
	ErrInvitationExpired  = pkgerrors.New(pkgerrors.KindConflict, 11008, "invitation code has expired")
	ErrInvalidRole        = pkgerrors.New(pkgerrors.KindBadRequest, 11009, "invalid role")
)

const (
	inviteCodeLength  = 10
	inviteCodeRetries = 3
	defaultInviteTTL  = 7 * 24 * time.Hour
)

// TokenBlacklist revoked token ids; nil when redis is unavailable
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// AuthService authentication and invitations
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.TokenResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	// Logout revokes the access token and, when given, the refresh token
	Logout(ctx context.Context, claims *jwt.Claims, refreshToken string) error
	Me(ctx context.Context, userID string) (*dto.UserResponse, error)
	// CreateUser bootstraps ADMIN / TEACHER accounts outside the invitation flow
	CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserResponse, error)

	CreateInvitation(ctx context.Context, p Principal, req *dto.CreateInvitationRequest) (*dto.InvitationResponse, error)
	ValidateInvitation(ctx context.Context, code string) (*dto.InvitationValidateResponse, error)
	ListInvitations(ctx context.Context, p Principal) ([]dto.InvitationResponse, error)
}

type authService struct {
	cfg       *config.Config
	repo      *repository.Repository
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist
	logger    *zap.Logger
}

// NewAuthService creates an AuthService
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:       cfg,
		repo:      repo,
		jwtMgr:    jwtMgr,
		blacklist: blacklist,
		logger:    logger,
	}
}

// ────────────────────── Register ──────────────────────

// Register consumes an invitation code under a row lock and creates the account.
// An ASSISTANT invitation also links the new user to the inviting teacher.
func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.TokenResponse, error) {
	email := normalizeEmail(req.Email)

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash password", zap.Error(err))
		return nil, err
	}

	var user *model.User
	err = s.repo.RunInTx(ctx, func(txRepo *repository.Repository) error {
		inv, err := txRepo.Invitation.GetByCodeForUpdate(ctx, strings.TrimSpace(req.InviteCode))
		if err != nil {
			if isNotFound(err) {
				return ErrInvitationInvalid
			}
			return err
		}
		if inv.UsedAt != nil {
			return ErrInvitationUsed
		}
		if !time.Now().Before(inv.ExpiresAt) {
			return ErrInvitationExpired
		}

		exists, err := txRepo.User.ExistsByEmail(ctx, email)
		if err != nil {
			return err
		}
		if exists {
			return ErrEmailTaken
		}

		user = &model.User{
			Name:         req.Name,
			Email:        email,
			Phone:        req.Phone,
			PasswordHash: string(hash),
			Role:         inv.Role,
			BranchID:     inv.BranchID,
		}
		if err := txRepo.User.Create(ctx, user); err != nil {
			if isDuplicate(err) {
				return ErrEmailTaken
			}
			return err
		}

		if err := txRepo.Invitation.MarkUsed(ctx, inv.InvitationID, user.UserID); err != nil {
			return err
		}

		if inv.Role == model.RoleAssistant {
			link := &model.TeacherAssistant{TeacherID: inv.TeacherID, AssistantID: user.UserID}
			if err := txRepo.TeacherAssistant.Create(ctx, link); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var appErr *pkgerrors.Error
		if !errors.As(err, &appErr) {
			s.logger.Error("failed to register user", zap.String("email", email), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("user registered", zap.String("user_id", user.UserID), zap.String("role", user.Role))
	return s.issueTokens(user, false)
}

// ────────────────────── Login ──────────────────────

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := s.repo.User.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("failed to load user", zap.Error(err))
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(user, req.RememberMe)
}

// ────────────────────── RefreshToken ──────────────────────

// RefreshToken rotates the pair; the presented refresh token is revoked
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseToken(refreshToken)
	if err != nil || claims.TokenType != "refresh" {
		return nil, ErrInvalidToken
	}

	if s.blacklist != nil {
		revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			s.logger.Warn("blacklist lookup failed", zap.Error(err))
		} else if revoked {
			return nil, ErrTokenRevoked
		}
	}

	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidToken
		}
		s.logger.Error("failed to load user", zap.String("user_id", claims.UserID), zap.Error(err))
		return nil, err
	}

	s.revoke(ctx, claims)
	return s.issueTokens(user, claims.RememberMe)
}

// ────────────────────── Logout ──────────────────────

func (s *authService) Logout(ctx context.Context, claims *jwt.Claims, refreshToken string) error {
	if s.blacklist == nil {
		return nil
	}
	if claims == nil {
		return ErrInvalidToken
	}
	s.revoke(ctx, claims)
	if refreshToken != "" {
		if rc, err := s.jwtMgr.ParseToken(refreshToken); err == nil && rc.UserID == claims.UserID {
			s.revoke(ctx, rc)
		}
	}
	return nil
}

// ────────────────────── Me ──────────────────────

func (s *authService) Me(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("failed to load user", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

// ────────────────────── CreateUser ──────────────────────

func (s *authService) CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserResponse, error) {
	if req.Role != model.RoleAdmin && req.Role != model.RoleTeacher {
		return nil, ErrInvalidRole
	}
	email := normalizeEmail(req.Email)

	exists, err := s.repo.User.ExistsByEmail(ctx, email)
	if err != nil {
		s.logger.Error("failed to check email", zap.Error(err))
		return nil, err
	}
	if exists {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:         req.Name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         req.Role,
		BranchID:     req.BranchID,
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		if isDuplicate(err) {
			return nil, ErrEmailTaken
		}
		s.logger.Error("failed to create user", zap.Error(err))
		return nil, err
	}

	resp := toUserResponse(user)
	return &resp, nil
}

// ────────────────────── Invitations ──────────────────────

func (s *authService) CreateInvitation(ctx context.Context, p Principal, req *dto.CreateInvitationRequest) (*dto.InvitationResponse, error) {
	if p.Role != model.RoleTeacher {
		return nil, ErrForbidden
	}
	if req.Role != model.RoleAssistant && req.Role != model.RoleStudent {
		return nil, ErrInvalidRole
	}

	if req.BranchID != nil {
		if _, err := s.repo.Branch.GetByID(ctx, *req.BranchID); err != nil {
			if isNotFound(err) {
				return nil, ErrBranchNotFound
			}
			return nil, err
		}
	}

	ttl := s.cfg.Auth.InvitationTTL
	if req.ExpiresDays > 0 {
		ttl = time.Duration(req.ExpiresDays) * 24 * time.Hour
	}
	if ttl <= 0 {
		ttl = defaultInviteTTL
	}

	inv := &model.Invitation{
		TeacherID: p.UserID,
		BranchID:  req.BranchID,
		Role:      req.Role,
		ExpiresAt: time.Now().Add(ttl),
	}

	// codes are random; retry the rare collision with the unique index
	var err error
	for attempt := 0; attempt < inviteCodeRetries; attempt++ {
		if inv.Code, err = generateInviteCode(inviteCodeLength); err != nil {
			return nil, err
		}
		if err = s.repo.Invitation.Create(ctx, inv); err == nil || !isDuplicate(err) {
			break
		}
	}
	if err != nil {
		s.logger.Error("failed to create invitation", zap.String("teacher_id", p.UserID), zap.Error(err))
		return nil, err
	}

	return toInvitationResponse(inv), nil
}

// ValidateInvitation never errors on a bad code; it reports Valid=false instead
func (s *authService) ValidateInvitation(ctx context.Context, code string) (*dto.InvitationValidateResponse, error) {
	inv, err := s.repo.Invitation.GetByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		if isNotFound(err) {
			return &dto.InvitationValidateResponse{Valid: false}, nil
		}
		s.logger.Error("failed to load invitation", zap.Error(err))
		return nil, err
	}
	if inv.UsedAt != nil || !time.Now().Before(inv.ExpiresAt) {
		return &dto.InvitationValidateResponse{Valid: false}, nil
	}
	return &dto.InvitationValidateResponse{
		Valid:     true,
		Role:      inv.Role,
		ExpiresAt: formatTime(inv.ExpiresAt),
	}, nil
}

func (s *authService) ListInvitations(ctx context.Context, p Principal) ([]dto.InvitationResponse, error) {
	invs, err := s.repo.Invitation.ListByTeacher(ctx, p.UserID)
	if err != nil {
		s.logger.Error("failed to list invitations", zap.String("teacher_id", p.UserID), zap.Error(err))
		return nil, err
	}

	list := make([]dto.InvitationResponse, 0, len(invs))
	for i := range invs {
		list = append(list, *toInvitationResponse(&invs[i]))
	}
	return list, nil
}

// ── helpers ──

func (s *authService) issueTokens(user *model.User, rememberMe bool) (*dto.TokenResponse, error) {
	accessToken, err := s.jwtMgr.GenerateAccessToken(user.UserID, user.Role)
	if err != nil {
		s.logger.Error("failed to sign access token", zap.Error(err))
		return nil, err
	}
	refreshToken, err := s.jwtMgr.GenerateRefreshToken(user.UserID, user.Role, rememberMe)
	if err != nil {
		s.logger.Error("failed to sign refresh token", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.jwtMgr.AccessTokenTTL().Seconds()),
		User:         toUserResponse(user),
	}, nil
}

// revoke blacklists a token id until the token would have expired anyway
func (s *authService) revoke(ctx context.Context, claims *jwt.Claims) {
	if s.blacklist == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return
	}
	if err := s.blacklist.BlacklistToken(ctx, claims.ID, ttl); err != nil {
		s.logger.Warn("failed to blacklist token", zap.String("jti", claims.ID), zap.Error(err))
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// generateInviteCode uppercase letters and digits without look-alikes (0/O, 1/I/L)
func generateInviteCode(length int) (string, error) {
	const alphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", err
		}
		code[i] = alphabet[n.Int64()]
	}
	return string(code), nil
}

func toUserResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:       u.UserID,
		Name:     u.Name,
		Email:    u.Email,
		Phone:    u.Phone,
		Role:     u.Role,
		BranchID: u.BranchID,
	}
}

func toInvitationResponse(inv *model.Invitation) *dto.InvitationResponse {
	return &dto.InvitationResponse{
		Code:      inv.Code,
		Role:      inv.Role,
		BranchID:  inv.BranchID,
		ExpiresAt: formatTime(inv.ExpiresAt),
		Used:      inv.UsedAt != nil,
	}
}
