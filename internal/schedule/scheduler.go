package schedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/MarcoPoloResearchLab/lunchbot/internal/lunch"
	"github.com/MarcoPoloResearchLab/lunchbot/internal/users"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var (
	// ErrSystemUserMissing indicates the configured default user has never been created.
	ErrSystemUserMissing = errors.New("schedule: default system user does not exist")

	errMissingUserService  = errors.New("schedule: user service is required")
	errMissingLunchService = errors.New("schedule: lunch service is required")
	errMissingSystemUser   = errors.New("schedule: default system user is required")
)

// Proposer is the slice of the lunch service the scheduler invokes.
type Proposer interface {
	Propose(ctx context.Context, actorID, channel string) (lunch.Proposal, error)
}

// IdentityFinder looks up the internal identity for a Slack user name.
type IdentityFinder interface {
	FindBySlackID(ctx context.Context, slackID string) (*users.Identity, error)
}

// SchedulerConfig describes the dependencies of the lunch scheduler.
type SchedulerConfig struct {
	// Schedule is a six-field cron expression with a leading seconds field.
	Schedule    string
	DefaultUser string
	Users       IdentityFinder
	Lunch       Proposer
	Logger      *zap.Logger
}

// Scheduler proposes a lunch place on a recurring cron schedule, running as
// the default system user. Tick failures are logged and dropped: a missed
// tick simply produces no proposal that cycle.
type Scheduler struct {
	cron        *cron.Cron
	defaultUser string
	userService IdentityFinder
	lunch       Proposer
	logger      *zap.Logger
}

// NewScheduler constructs the scheduler and registers the proposal job.
func NewScheduler(cfg SchedulerConfig) (*Scheduler, error) {
	if cfg.Users == nil {
		return nil, errMissingUserService
	}
	if cfg.Lunch == nil {
		return nil, errMissingLunchService
	}
	if cfg.DefaultUser == "" {
		return nil, errMissingSystemUser
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	scheduler := &Scheduler{
		cron:        cron.New(cron.WithSeconds()),
		defaultUser: cfg.DefaultUser,
		userService: cfg.Users,
		lunch:       cfg.Lunch,
		logger:      logger,
	}

	if _, err := scheduler.cron.AddFunc(cfg.Schedule, scheduler.tick); err != nil {
		return nil, fmt.Errorf("schedule: invalid cron expression %q: %w", cfg.Schedule, err)
	}

	return scheduler, nil
}

// Start begins firing the schedule in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running tick to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) tick() {
	if err := s.ProposeNow(context.Background()); err != nil {
		s.logger.Error("scheduled lunch proposal failed", zap.Error(err))
	}
}

// ProposeNow runs one scheduled proposal: resolve the default system user
// (which must already exist; scheduled runs never create users) and propose
// with no channel so the announcement falls through to the override/default
// channel policy.
func (s *Scheduler) ProposeNow(ctx context.Context) error {
	system, err := s.userService.FindBySlackID(ctx, s.defaultUser)
	if err != nil {
		return fmt.Errorf("schedule: resolve default user: %w", err)
	}
	if system == nil {
		return fmt.Errorf("%w: %q", ErrSystemUserMissing, s.defaultUser)
	}

	if _, err := s.lunch.Propose(ctx, system.ID, ""); err != nil {
		return fmt.Errorf("schedule: propose: %w", err)
	}

	s.logger.Info("scheduled lunch proposal saved", zap.String("actor_id", system.ID))
	return nil
}
