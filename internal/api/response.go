package api

import (
	"errors"
	"net/http"

	"github.com/UnknownOlympus/helios/internal/models"
	"github.com/UnknownOlympus/helios/internal/score"
	"github.com/UnknownOlympus/helios/internal/session"
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the error body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// MapResponse describes what the map should currently display.
type MapResponse struct {
	models.MapView
	State        string `json:"state"`
	StaticMapURL string `json:"static_map_url"`
}

// ScoreResponse is a light score with its display label and progress value.
type ScoreResponse struct {
	LightScore  float64              `json:"light_score"`
	Label       string               `json:"label"`
	Progress    float64              `json:"progress"`
	Coordinates *models.Coordinates  `json:"coordinates,omitempty"`
	Details     *models.ScoreDetails `json:"details,omitempty"`
}

// SubmitResponse is the state of the latest submission.
type SubmitResponse struct {
	Loading bool           `json:"loading"`
	Result  *ScoreResponse `json:"result,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// SessionResponse is the full state of one form session.
type SessionResponse struct {
	ID      string                  `json:"id"`
	Address models.AddressFragments `json:"address"`
	Map     MapResponse             `json:"map"`
	Score   SubmitResponse          `json:"score"`
}

func newMapResponse(sess *session.Session) MapResponse {
	return MapResponse{
		MapView:      sess.View(),
		State:        sess.LocatorState().String(),
		StaticMapURL: sess.MapURL(),
	}
}

func newScoreResponse(result *models.ScoreResult) *ScoreResponse {
	if result == nil {
		return nil
	}

	return &ScoreResponse{
		LightScore:  result.LightScore,
		Label:       result.Label(),
		Progress:    result.Progress(),
		Coordinates: result.Coordinates,
		Details:     result.Details,
	}
}

func newSessionResponse(sess *session.Session) SessionResponse {
	state := sess.Score()

	resp := SessionResponse{
		ID:      sess.ID().String(),
		Address: sess.Address(),
		Map:     newMapResponse(sess),
		Score: SubmitResponse{
			Loading: state.Loading,
			Result:  newScoreResponse(state.Result),
		},
	}
	if state.Err != nil {
		resp.Score.Error = userMessage(state.Err)
	}

	return resp
}

// userMessage never exposes backend or transport detail.
func userMessage(err error) string {
	var serr *score.Error
	if errors.As(err, &serr) {
		return serr.Message
	}

	return score.MsgFailed
}

func writeError(c *gin.Context, status int, message string, details any) {
	c.JSON(status, ErrorResponse{Error: message, Details: details})
}

// handleError maps domain errors to HTTP responses.
func handleError(c *gin.Context, err error) {
	var serr *score.Error

	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		writeError(c, http.StatusNotFound, "session not found", nil)
	case errors.Is(err, score.ErrSuperseded):
		writeError(c, http.StatusConflict, "superseded by a newer submission", nil)
	case errors.As(err, &serr):
		var details any
		if len(serr.Fields) > 0 {
			details = gin.H{"fields": serr.Fields}
		}
		writeError(c, serr.HTTPStatus(), serr.Message, details)
	default:
		writeError(c, http.StatusInternalServerError, score.MsgFailed, nil)
	}
}
