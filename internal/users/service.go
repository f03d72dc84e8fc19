package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrInvalidSlackID indicates the caller supplied an empty Slack user id.
var ErrInvalidSlackID = errors.New("users: invalid slack id")

// ServiceConfig describes the dependencies required for identity resolution.
type ServiceConfig struct {
	Database *gorm.DB
	Logger   *zap.Logger
}

// Service resolves Slack user ids to internal identities.
//
// Lookup and creation are deliberately separate steps: the slash-command
// handler has a response deadline and may acknowledge the request before
// creation completes.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewService constructs the identity service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("users: database connection required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: cfg.Database, logger: logger}, nil
}

// FindBySlackID returns the identity mapped to the Slack id, or nil when
// no mapping exists yet. Absence is not an error.
func (s *Service) FindBySlackID(ctx context.Context, slackID string) (*Identity, error) {
	trimmed := strings.TrimSpace(slackID)
	if trimmed == "" {
		return nil, ErrInvalidSlackID
	}

	var identity Identity
	err := s.db.WithContext(ctx).
		Where("slack_id = ?", trimmed).
		First(&identity).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("users: find %q: %w", trimmed, err)
	}
	return &identity, nil
}

// Create registers a new identity for the Slack id with a generated
// credential. Callers are expected to have checked for an existing mapping
// first; a concurrent duplicate surfaces as a store error through the
// unique index on slack_id.
func (s *Service) Create(ctx context.Context, slackID string) (Identity, error) {
	trimmed := strings.TrimSpace(slackID)
	if trimmed == "" {
		return Identity{}, ErrInvalidSlackID
	}

	identity := Identity{
		ID:      uuid.NewString(),
		SlackID: trimmed,
		Secret:  uuid.NewString(),
	}
	if err := s.db.WithContext(ctx).Create(&identity).Error; err != nil {
		return Identity{}, fmt.Errorf("users: create %q: %w", trimmed, err)
	}

	s.logger.Info("created user", zap.String("user_id", identity.ID), zap.String("slack_id", trimmed))
	return identity, nil
}
