package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/matchasong/PictureShiritori/services"
	"github.com/matchasong/PictureShiritori/storage"

	"github.com/gin-gonic/gin"
	"github.com/slack-go/slack/slackevents"
	"go.uber.org/zap"
)

// submissionTimeout bounds one asynchronous submission, including the
// channel polling.
const submissionTimeout = 5 * time.Minute

const startRejectedText = "Game not started."

type GameHandler struct {
	games       *services.GameService
	starter     *services.StartService
	finisher    *services.FinishService
	results     *services.ResultService
	submissions *services.SubmissionService
	logger      *zap.Logger

	// base outlives individual requests so file submissions can finish after
	// the event has been acknowledged.
	base     context.Context
	inflight sync.WaitGroup
}

func NewGameHandler(
	base context.Context,
	games *services.GameService,
	starter *services.StartService,
	finisher *services.FinishService,
	results *services.ResultService,
	submissions *services.SubmissionService,
	logger *zap.Logger,
) *GameHandler {
	return &GameHandler{
		games:       games,
		starter:     starter,
		finisher:    finisher,
		results:     results,
		submissions: submissions,
		logger:      logger,
		base:        base,
	}
}

// Wait blocks until every accepted submission has been processed.
func (h *GameHandler) Wait() {
	h.inflight.Wait()
}

// StartGame handles the start slash command. Outcomes are announced in the
// game channel; the reply is only seen by the caller.
func (h *GameHandler) StartGame(c *gin.Context) {
	var req services.StartGameRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	game, err := h.starter.Start(c.Request.Context(), req.Text)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{
			"response_type": "ephemeral",
			"text":          "Game " + strconv.FormatUint(uint64(game.ID), 10) + " started.",
		})
	case errors.Is(err, services.ErrInvalidDuration), errors.Is(err, services.ErrGameAlreadyOpen):
		// The reason is already posted to the game channel.
		c.JSON(http.StatusOK, gin.H{"response_type": "ephemeral", "text": startRejectedText})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start game"})
	}
}

// SlackEvents answers the URL verification handshake and queues shared files
// for judging.
func (h *GameHandler) SlackEvents(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event payload"})
		return
	}

	switch event.Type {
	case slackevents.URLVerification:
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid challenge"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"challenge": challenge.Challenge})

	case slackevents.CallbackEvent:
		if shared, ok := event.InnerEvent.Data.(*slackevents.FileSharedEvent); ok {
			h.dispatch(services.SubmissionEvent{
				FileID:    shared.FileID,
				UserID:    shared.UserID,
				ChannelID: shared.ChannelID,
			})
		}
		c.Status(http.StatusOK)

	default:
		c.Status(http.StatusOK)
	}
}

func (h *GameHandler) dispatch(ev services.SubmissionEvent) {
	h.inflight.Add(1)
	go func() {
		defer h.inflight.Done()
		ctx, cancel := context.WithTimeout(h.base, submissionTimeout)
		defer cancel()

		j, err := h.submissions.Process(ctx, ev)
		switch {
		case err == nil:
			h.logger.Info("submission judged",
				zap.String("file_id", ev.FileID),
				zap.Uint("move_id", j.Move.ID),
				zap.String("verdict", j.Verdict.Kind.String()),
			)
		case errors.Is(err, services.ErrDuplicateSubmission),
			errors.Is(err, services.ErrNoGameOpen),
			errors.Is(err, services.ErrFileRejected),
			errors.Is(err, services.ErrOtherChannel):
			h.logger.Info("submission skipped", zap.String("file_id", ev.FileID), zap.Error(err))
		default:
			h.logger.Error("submission failed", zap.String("file_id", ev.FileID), zap.Error(err))
		}
	}()
}

// FinishGame runs one finish sweep. Finding no expired game is a success.
func (h *GameHandler) FinishGame(c *gin.Context) {
	result, err := h.finisher.Finish(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to finish game"})
		return
	}
	if result == nil {
		c.JSON(http.StatusOK, gin.H{"finished": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"finished": true, "result": result})
}

func (h *GameHandler) CurrentGame(c *gin.Context) {
	game, err := h.games.CurrentGame(c.Request.Context())
	if errors.Is(err, services.ErrNoGameOpen) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No game in progress"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load game"})
		return
	}

	state, err := h.results.State(c.Request.Context(), game)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load game"})
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *GameHandler) GameSummary(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid game ID"})
		return
	}

	game, err := h.games.GetGame(c.Request.Context(), uint(id))
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load game"})
		return
	}

	result, err := h.results.Summarize(c.Request.Context(), game.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to summarize game"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"game": game, "result": result})
}
