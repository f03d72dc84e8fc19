package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/MarcoPoloResearchLab/lunchbot/internal/commands"
	"github.com/MarcoPoloResearchLab/lunchbot/internal/users"
	"github.com/gin-gonic/gin"
	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

var (
	errMissingUserService   = errors.New("user service dependency required")
	errMissingCommandRouter = errors.New("command router dependency required")
	errMissingCommandToken  = errors.New("slash command token required")
)

const (
	fallbackText = "Unable to fulfil your request"
	interimText  = "thinking..."
)

// IdentityService resolves and creates Slack user identities.
type IdentityService interface {
	FindBySlackID(ctx context.Context, slackID string) (*users.Identity, error)
	Create(ctx context.Context, slackID string) (users.Identity, error)
}

// CommandRouter dispatches slash-command text to an action.
type CommandRouter interface {
	Route(ctx context.Context, user users.Identity, channel, text string) (commands.Result, error)
}

// Responder delivers a delayed result to a response webhook URL.
type Responder func(ctx context.Context, responseURL string, result commands.Result) error

// Dependencies describes what the HTTP handler needs.
type Dependencies struct {
	Users        IdentityService
	Router       CommandRouter
	CommandToken string
	// Responder is used for delayed delivery; defaults to a Slack webhook post.
	Responder Responder
	Logger    *zap.Logger
}

// NewHTTPHandler builds the gin handler exposing the slash-command endpoint.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Users == nil {
		return nil, errMissingUserService
	}
	if deps.Router == nil {
		return nil, errMissingCommandRouter
	}
	if deps.CommandToken == "" {
		return nil, errMissingCommandToken
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	responder := deps.Responder
	if responder == nil {
		responder = postToResponseURL
	}

	handler := &httpHandler{
		users:        deps.Users,
		router:       deps.Router,
		commandToken: deps.CommandToken,
		responder:    responder,
		logger:       logger,
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.POST("/slash-command", handler.handleSlashCommand)

	return engine, nil
}

type httpHandler struct {
	users        IdentityService
	router       CommandRouter
	commandToken string
	responder    Responder
	logger       *zap.Logger
}

// handleSlashCommand processes one inbound slash command. When the invoking
// user does not exist yet and Slack supplied a response URL, the request is
// acknowledged immediately and the command finishes in the background; Slack
// enforces a deadline on the synchronous response that user creation can miss.
func (h *httpHandler) handleSlashCommand(c *gin.Context) {
	command, err := slack.SlashCommandParse(c.Request)
	if err != nil {
		h.logger.Warn("unrecognized slash command payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "unrecognized_request"})
		return
	}

	if !command.ValidateToken(h.commandToken) {
		h.logger.Warn("slash command token does not match expected value")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token_mismatch"})
		return
	}

	ctx := c.Request.Context()
	identity, err := h.users.FindBySlackID(ctx, command.UserID)
	if err != nil {
		h.logger.Error("failed to look up user", zap.String("slack_id", command.UserID), zap.Error(err))
		c.JSON(http.StatusOK, commands.Result{Text: fallbackText})
		return
	}

	if identity == nil {
		h.logger.Info("user does not exist, creating", zap.String("slack_id", command.UserID))

		if command.ResponseURL != "" {
			c.JSON(http.StatusOK, commands.Result{Text: interimText})
			go h.finishInBackground(command)
			return
		}

		created, err := h.users.Create(ctx, command.UserID)
		if err != nil {
			h.logger.Error("failed to create user", zap.String("slack_id", command.UserID), zap.Error(err))
			c.JSON(http.StatusOK, commands.Result{Text: fallbackText})
			return
		}
		identity = &created
	}

	result, err := h.router.Route(ctx, *identity, command.ChannelID, command.Text)
	if err != nil {
		h.logger.Error("error handling slash command", zap.Error(err))
		result = commands.Result{Text: fallbackText}
	}
	c.JSON(http.StatusOK, result)
}

// finishInBackground creates the user and runs the command after the
// synchronous response has been sent, delivering the outcome to the
// response webhook. Best effort: failures are logged and dropped.
func (h *httpHandler) finishInBackground(command slack.SlashCommand) {
	ctx := context.Background()

	identity, err := h.users.Create(ctx, command.UserID)
	if err != nil {
		h.logger.Error("failed to create user", zap.String("slack_id", command.UserID), zap.Error(err))
		h.deliver(ctx, command.ResponseURL, commands.Result{Text: fallbackText})
		return
	}

	result, err := h.router.Route(ctx, identity, command.ChannelID, command.Text)
	if err != nil {
		h.logger.Error("error handling slash command", zap.Error(err))
		result = commands.Result{Text: fallbackText}
	}
	h.deliver(ctx, command.ResponseURL, result)
}

func (h *httpHandler) deliver(ctx context.Context, responseURL string, result commands.Result) {
	if err := h.responder(ctx, responseURL, result); err != nil {
		h.logger.Error("failed to deliver delayed response", zap.Error(err))
	}
}

func postToResponseURL(ctx context.Context, responseURL string, result commands.Result) error {
	client := &http.Client{Timeout: 10 * time.Second}
	message := &slack.WebhookMessage{Text: result.Text}
	return slack.PostWebhookCustomHTTPContext(ctx, responseURL, client, message)
}
