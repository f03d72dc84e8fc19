package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MarcoPoloResearchLab/lunchbot/internal/lunch"
	"github.com/MarcoPoloResearchLab/lunchbot/internal/users"
	"go.uber.org/zap"
)

// ErrReservedUser rejects commands from the reserved admin name before any
// store access happens.
var ErrReservedUser = errors.New("commands: reserved user name")

var errMissingLunchService = errors.New("commands: lunch service is required")

const (
	reservedUserName      = "admin"
	messageNewPlace       = "New lunch place! Thank you for your suggestion."
	messageDuplicatePlace = "This lunch place already exists."
	messageProposalDone   = "done"
)

var helpText = strings.Join([]string{
	"help - for this help",
	"add <lunch place> - to add a new place to eat",
	"list - to list places to eat",
	"suggest - to pick place to eat",
}, "\n")

// Result is the synchronous reply to a routed command.
type Result struct {
	Text string `json:"text"`
}

// LunchService is the slice of the lunch service the router dispatches to.
type LunchService interface {
	AddPlace(ctx context.Context, actorID, name string) (lunch.Place, bool, error)
	ListPlaces(ctx context.Context, actorID string) ([]lunch.Place, error)
	Propose(ctx context.Context, actorID, channel string) (lunch.Proposal, error)
}

// RouterConfig describes the dependencies required by the command router.
type RouterConfig struct {
	Lunch  LunchService
	Logger *zap.Logger
}

// Router parses free-text slash-command input and dispatches it.
type Router struct {
	lunch  LunchService
	logger *zap.Logger
}

// NewRouter constructs the command router.
func NewRouter(cfg RouterConfig) (*Router, error) {
	if cfg.Lunch == nil {
		return nil, errMissingLunchService
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{lunch: cfg.Lunch, logger: logger}, nil
}

// Route splits the command text on the first space into verb and remainder
// and runs the matching action. Unknown verbs, and empty input, fall through
// to the proposal action.
func (r *Router) Route(ctx context.Context, user users.Identity, channel, text string) (Result, error) {
	if user.SlackID == reservedUserName {
		return Result{}, fmt.Errorf("%w: %q", ErrReservedUser, user.SlackID)
	}

	r.logger.Info("received command",
		zap.String("slack_id", user.SlackID),
		zap.String("text", text))

	fields := strings.SplitN(text, " ", 2)
	remainder := ""
	if len(fields) == 2 {
		remainder = fields[1]
	}

	switch fields[0] {
	case "help":
		return Result{Text: helpText}, nil
	case "add":
		return r.addPlace(ctx, user.ID, remainder)
	case "list":
		return r.listPlaces(ctx, user.ID)
	default:
		// "suggest" and every unrecognized verb propose a place.
		return r.propose(ctx, user.ID, channel)
	}
}

func (r *Router) addPlace(ctx context.Context, actorID, name string) (Result, error) {
	_, created, err := r.lunch.AddPlace(ctx, actorID, name)
	if err != nil {
		return Result{}, err
	}
	if !created {
		return Result{Text: messageDuplicatePlace}, nil
	}
	return Result{Text: messageNewPlace}, nil
}

func (r *Router) listPlaces(ctx context.Context, actorID string) (Result, error) {
	places, err := r.lunch.ListPlaces(ctx, actorID)
	if err != nil {
		return Result{}, err
	}

	var content strings.Builder
	for _, place := range places {
		content.WriteString(place.Name)
		content.WriteString("\n")
	}
	return Result{Text: content.String()}, nil
}

func (r *Router) propose(ctx context.Context, actorID, channel string) (Result, error) {
	if _, err := r.lunch.Propose(ctx, actorID, channel); err != nil {
		return Result{}, err
	}
	return Result{Text: messageProposalDone}, nil
}
