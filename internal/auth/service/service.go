package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	authdomain "github.com/mmdba/supmmdba/internal/auth/domain"
	"github.com/mmdba/supmmdba/internal/clock"
	"github.com/mmdba/supmmdba/internal/config"
	"github.com/mmdba/supmmdba/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Cfg   config.Config
	Repo  authdomain.Repository
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       authdomain.Repository
	sessionTTL time.Duration
}

func New(p Params) authdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("auth.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		sessionTTL: p.Cfg.SessionTTL,
	}
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *Service) Login(ctx context.Context, req authdomain.LoginRequest) (*authdomain.LoginResult, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, authdomain.ErrInvalidCredentials
	}

	user, err := s.repo.FindUserByUsername(ctx, s.db, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, authdomain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, authdomain.ErrInvalidCredentials
	}

	token := uuid.NewString()
	now := s.clock.Now().UTC()
	session := &authdomain.Session{
		ID:        s.genID.Generate(),
		UserID:    user.ID,
		TokenHash: hashToken(token),
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
	}
	if err := s.repo.CreateSession(ctx, s.db, session); err != nil {
		return nil, err
	}

	s.log.Info("operator logged in", zap.String("username", username))
	return &authdomain.LoginResult{
		Token:     token,
		Username:  user.Username,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

func (s *Service) Authenticate(ctx context.Context, token string) (*authdomain.Session, error) {
	if strings.TrimSpace(token) == "" {
		return nil, authdomain.ErrInvalidSession
	}

	session, err := s.repo.FindSessionByTokenHash(ctx, s.db, hashToken(token))
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, authdomain.ErrInvalidSession
	}
	if s.clock.Now().UTC().After(session.ExpiresAt) {
		return nil, authdomain.ErrSessionExpired
	}
	return session, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	return s.repo.DeleteSession(ctx, s.db, hashToken(token))
}

func (s *Service) EnsureUser(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return authdomain.ErrInvalidCredentials
	}

	existing, err := s.repo.FindUserByUsername(ctx, s.db, username)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := &authdomain.User{
		ID:           s.genID.Generate(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    s.clock.Now().UTC(),
	}
	if err := s.repo.CreateUser(ctx, s.db, user); err != nil {
		// concurrent seeding of the same username is fine
		if db.IsDuplicateKeyErr(err) {
			return authdomain.ErrUserExists
		}
		return err
	}
	s.log.Info("operator account created", zap.String("username", username))
	return nil
}
