package httpapi

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spigell/jobmatch/internal/logger"
	"github.com/spigell/jobmatch/internal/recommend"
)

// Messages maps every message code to the text shown to the seeker.
var Messages = map[recommend.MessageCode]string{
	recommend.MessageSuccess:           "Recommendations generated successfully",
	recommend.MessageNoJobsAvailable:   "No new jobs available right now. Check back later.",
	recommend.MessageNoSuitableJobs:    "No jobs match your profile yet. Try adding more skills or experience.",
	recommend.MessageProfileNotFound:   "Create your profile to receive job recommendations.",
	recommend.MessageProfileIncomplete: "Complete your profile to receive job recommendations.",
	recommend.MessageError:             "Unable to generate recommendations right now.",
}

type response struct {
	Recommendations []recommend.Recommendation `json:"recommendations"`
	Count           int                        `json:"count"`
	Message         string                     `json:"message"`
	MessageCode     recommend.MessageCode      `json:"messageCode"`
}

func newResponse(result recommend.Result, code recommend.MessageCode) response {
	recs := result.Recommendations
	if recs == nil {
		recs = []recommend.Recommendation{}
	}
	return response{
		Recommendations: recs,
		Count:           len(recs),
		Message:         Messages[code],
		MessageCode:     code,
	}
}

type recommendationsHandler struct {
	svc          Recommender
	logger       *zap.Logger
	defaultLimit int
	maxLimit     int
}

// get serves GET /api/v1/recommendations. Missing or incomplete profiles are
// not errors for the seeker and are answered with 200.
func (h *recommendationsHandler) get(c *fiber.Ctx) error {
	uid, ok := userID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}

	limit := h.parseLimit(c.Query("limit"))

	result, err := h.svc.GetRecommendations(c.UserContext(), uid, limit)
	switch recommend.Classify(err) {
	case recommend.ClassNone:
		return c.JSON(newResponse(result, result.Message))
	case recommend.ClassPrecondition:
		return c.JSON(newResponse(recommend.Result{}, recommend.CodeFor(err)))
	default:
		h.logger.Error("recommendations failed",
			append(logger.RequestFields(uid, requestID(c)), zap.Error(err))...,
		)
		return c.Status(fiber.StatusInternalServerError).JSON(newResponse(recommend.Result{}, recommend.MessageError))
	}
}

// parseLimit clamps the requested limit to [1, maxLimit]. Anything that is
// not a positive integer yields the default.
func (h *recommendationsHandler) parseLimit(raw string) int {
	if raw == "" {
		return h.defaultLimit
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return h.defaultLimit
	}
	return min(limit, h.maxLimit)
}
