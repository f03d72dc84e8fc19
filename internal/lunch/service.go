package lunch

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrNoPlaces indicates a proposal was requested while no places are stored.
	ErrNoPlaces = errors.New("lunch: no places available")
	// ErrPlaceNotFound indicates a proposal references a place that no longer resolves.
	ErrPlaceNotFound = errors.New("lunch: place not found")
	// ErrProposalNotFound indicates an update targeted a proposal that was never saved.
	ErrProposalNotFound = errors.New("lunch: proposal not found")

	errMissingDatabase   = errors.New("lunch: database handle is required")
	errMissingIDProvider = errors.New("lunch: id provider is required")
	errMissingActor      = errors.New("lunch: actor user id is required")
)

// IDProvider issues identifiers for new records.
type IDProvider interface {
	NewID() (string, error)
}

// ProposalHook runs after a proposal write is confirmed by the store. The
// previous version is nil on first creation and non-nil on updates.
type ProposalHook func(ctx context.Context, proposal Proposal, previous *Proposal)

// ServiceConfig describes the dependencies required by the lunch service.
type ServiceConfig struct {
	Database   *gorm.DB
	IDProvider IDProvider
	// Pick selects an index in [0, n). Defaults to a uniform random pick.
	Pick   func(n int) int
	Logger *zap.Logger
}

// Service owns the place list and the proposal lifecycle. Every operation
// runs as a resolved internal user; the store isolates data per application
// namespace, the actor id scopes queries logically and feeds the logs.
type Service struct {
	db         *gorm.DB
	idProvider IDProvider
	pick       func(n int) int
	logger     *zap.Logger
	hooks      []ProposalHook
}

// NewService constructs the lunch service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	if cfg.IDProvider == nil {
		return nil, errMissingIDProvider
	}
	pick := cfg.Pick
	if pick == nil {
		pick = rand.Intn
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		db:         cfg.Database,
		idProvider: cfg.IDProvider,
		pick:       pick,
		logger:     logger,
	}, nil
}

// OnProposalSaved registers a hook invoked after every proposal write.
// Hooks must be registered during wiring, before the service handles traffic.
func (s *Service) OnProposalSaved(hook ProposalHook) {
	s.hooks = append(s.hooks, hook)
}

// AddPlace stores a place under the given name unless one already exists.
// The boolean reports whether a new place was created.
//
// Check-then-insert leaves a window where two concurrent adds of the same
// name both observe zero matches; the unique index on name turns the loser
// into a store error rather than a duplicate row.
func (s *Service) AddPlace(ctx context.Context, actorID, name string) (Place, bool, error) {
	if actorID == "" {
		return Place{}, false, errMissingActor
	}

	var matches []Place
	err := s.db.WithContext(ctx).
		Where("name = ?", name).
		Find(&matches).
		Error
	if err != nil {
		return Place{}, false, fmt.Errorf("lunch: query place %q: %w", name, err)
	}
	if len(matches) > 0 {
		s.logger.Debug("place already exists",
			zap.String("name", name),
			zap.String("actor_id", actorID))
		return matches[0], false, nil
	}

	id, err := s.idProvider.NewID()
	if err != nil {
		return Place{}, false, fmt.Errorf("lunch: new place id: %w", err)
	}
	place := Place{ID: PlaceID(id), Name: name}
	if err := s.db.WithContext(ctx).Create(&place).Error; err != nil {
		return Place{}, false, fmt.Errorf("lunch: save place %q: %w", name, err)
	}

	s.logger.Info("created lunch place",
		zap.String("place_id", place.ID.String()),
		zap.String("name", name),
		zap.String("actor_id", actorID))
	return place, true, nil
}

// ListPlaces returns every stored place in store order.
func (s *Service) ListPlaces(ctx context.Context, actorID string) ([]Place, error) {
	if actorID == "" {
		return nil, errMissingActor
	}

	var places []Place
	if err := s.db.WithContext(ctx).Find(&places).Error; err != nil {
		return nil, fmt.Errorf("lunch: list places: %w", err)
	}

	s.logger.Debug("listed lunch places",
		zap.Int("count", len(places)),
		zap.String("actor_id", actorID))
	return places, nil
}

// FindPlace resolves a typed place reference.
func (s *Service) FindPlace(ctx context.Context, actorID string, id PlaceID) (Place, error) {
	if actorID == "" {
		return Place{}, errMissingActor
	}

	var place Place
	err := s.db.WithContext(ctx).
		Where("id = ?", id.String()).
		First(&place).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Place{}, fmt.Errorf("%w: %s", ErrPlaceNotFound, id)
	}
	if err != nil {
		return Place{}, fmt.Errorf("lunch: find place %s: %w", id, err)
	}
	return place, nil
}

// Propose picks one stored place uniformly at random and saves a proposal
// referencing it. The channel, when non-empty, is captured on the proposal
// for the announcement to use. Registered hooks run after the save with a
// nil previous version.
func (s *Service) Propose(ctx context.Context, actorID, channel string) (Proposal, error) {
	if actorID == "" {
		return Proposal{}, errMissingActor
	}

	var places []Place
	if err := s.db.WithContext(ctx).Find(&places).Error; err != nil {
		return Proposal{}, fmt.Errorf("lunch: list places: %w", err)
	}
	if len(places) == 0 {
		s.logger.Warn("no lunch places stored", zap.String("actor_id", actorID))
		return Proposal{}, ErrNoPlaces
	}

	place := places[s.pick(len(places))]
	s.logger.Info("picked lunch place",
		zap.String("place_id", place.ID.String()),
		zap.String("name", place.Name),
		zap.String("actor_id", actorID))

	id, err := s.idProvider.NewID()
	if err != nil {
		return Proposal{}, fmt.Errorf("lunch: new proposal id: %w", err)
	}
	proposal := Proposal{
		ID:      id,
		PlaceID: place.ID,
		Channel: channel,
	}
	if err := s.db.WithContext(ctx).Create(&proposal).Error; err != nil {
		return Proposal{}, fmt.Errorf("lunch: save proposal: %w", err)
	}

	s.fireProposalSaved(ctx, proposal, nil)
	return proposal, nil
}

// UpdateProposal rewrites an existing proposal. Hooks receive the prior
// version and treat the write as already announced.
func (s *Service) UpdateProposal(ctx context.Context, actorID string, proposal Proposal) (Proposal, error) {
	if actorID == "" {
		return Proposal{}, errMissingActor
	}

	var previous Proposal
	err := s.db.WithContext(ctx).
		Where("id = ?", proposal.ID).
		First(&previous).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Proposal{}, fmt.Errorf("%w: %s", ErrProposalNotFound, proposal.ID)
	}
	if err != nil {
		return Proposal{}, fmt.Errorf("lunch: find proposal %s: %w", proposal.ID, err)
	}

	if err := s.db.WithContext(ctx).Save(&proposal).Error; err != nil {
		return Proposal{}, fmt.Errorf("lunch: update proposal %s: %w", proposal.ID, err)
	}

	s.fireProposalSaved(ctx, proposal, &previous)
	return proposal, nil
}

func (s *Service) fireProposalSaved(ctx context.Context, proposal Proposal, previous *Proposal) {
	for _, hook := range s.hooks {
		hook(ctx, proposal, previous)
	}
}
