package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/MarcoPoloResearchLab/lunchbot/internal/lunch"
	"github.com/MarcoPoloResearchLab/lunchbot/internal/users"
	"go.uber.org/zap"
)

var (
	errMissingWebhook     = errors.New("notify: webhook is required")
	errMissingUserService = errors.New("notify: user service is required")
	errMissingPlaceFinder = errors.New("notify: place finder is required")
	errMissingSystemUser  = errors.New("notify: default system user is required")
)

// Sender delivers a message to the chat platform.
type Sender interface {
	Send(ctx context.Context, text, channel string)
}

// PlaceFinder resolves a typed place reference as a given internal user.
type PlaceFinder interface {
	FindPlace(ctx context.Context, actorID string, id lunch.PlaceID) (lunch.Place, error)
}

// IdentityFinder looks up the internal identity for a Slack user name.
type IdentityFinder interface {
	FindBySlackID(ctx context.Context, slackID string) (*users.Identity, error)
}

// AnnouncerConfig describes the dependencies of the proposal announcer.
type AnnouncerConfig struct {
	Webhook         Sender
	Users           IdentityFinder
	Places          PlaceFinder
	ChannelOverride string
	DefaultUser     string
	Logger          *zap.Logger
}

// Announcer is the proposal after-save hook. It announces a proposal to
// Slack exactly once, on the first persistence of the record; updates carry
// a prior version and are ignored.
type Announcer struct {
	webhook         Sender
	users           IdentityFinder
	places          PlaceFinder
	channelOverride string
	defaultUser     string
	logger          *zap.Logger
}

// NewAnnouncer constructs the announcer.
func NewAnnouncer(cfg AnnouncerConfig) (*Announcer, error) {
	if cfg.Webhook == nil {
		return nil, errMissingWebhook
	}
	if cfg.Users == nil {
		return nil, errMissingUserService
	}
	if cfg.Places == nil {
		return nil, errMissingPlaceFinder
	}
	if cfg.DefaultUser == "" {
		return nil, errMissingSystemUser
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Announcer{
		webhook:         cfg.Webhook,
		users:           cfg.Users,
		places:          cfg.Places,
		channelOverride: cfg.ChannelOverride,
		defaultUser:     cfg.DefaultUser,
		logger:          logger,
	}, nil
}

// HandleProposalSaved implements lunch.ProposalHook. Failures are logged and
// end the announcement; there is no retry and no secondary delivery path.
func (a *Announcer) HandleProposalSaved(ctx context.Context, proposal lunch.Proposal, previous *lunch.Proposal) {
	if previous != nil {
		// Update to an existing proposal, already announced.
		return
	}

	system, err := a.users.FindBySlackID(ctx, a.defaultUser)
	if err != nil {
		a.logger.Error("failed to resolve default system user", zap.Error(err))
		return
	}
	if system == nil {
		a.logger.Error("default system user does not exist", zap.String("slack_id", a.defaultUser))
		return
	}

	place, err := a.places.FindPlace(ctx, system.ID, proposal.PlaceID)
	if err != nil {
		a.logger.Error("unable to find the lunch place referenced in the proposal",
			zap.String("place_id", proposal.PlaceID.String()),
			zap.Error(err))
		return
	}

	text := fmt.Sprintf("Let's go have lunch at %s.", place.Name)
	a.webhook.Send(ctx, text, a.selectChannel(proposal))
}

// selectChannel applies the channel policy: a configured override always
// wins, then the channel captured on the proposal, then the webhook's own
// default target (empty channel).
func (a *Announcer) selectChannel(proposal lunch.Proposal) string {
	if a.channelOverride != "" {
		return a.channelOverride
	}
	return proposal.Channel
}
