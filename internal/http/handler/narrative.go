package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/devai/internal/adapter"
	"github.com/rohankatakam/devai/internal/errors"
	"github.com/rohankatakam/devai/internal/http/dto"
	"github.com/rohankatakam/devai/internal/models"
	"github.com/rohankatakam/devai/internal/narrative"
	"github.com/rohankatakam/devai/internal/store"
)

type NarrativeHandler struct {
	synthesizer *narrative.Synthesizer
	store       *store.NarrativeStore
	logger      logrus.FieldLogger
}

func NewNarrativeHandler(synthesizer *narrative.Synthesizer, store *store.NarrativeStore, logger logrus.FieldLogger) *NarrativeHandler {
	return &NarrativeHandler{synthesizer: synthesizer, store: store, logger: logger}
}

func (h *NarrativeHandler) Generate(c *gin.Context) {
	var req dto.GenerateNarrativesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	activities := make([]models.TicketActivity, 0, len(req.Tickets))
	diags := []models.Diagnostic{}
	for _, raw := range req.Tickets {
		activity, d := adapter.ParseActivity(raw)
		diags = append(diags, d...)
		activities = append(activities, activity)
	}

	narratives, err := h.generate(activities)
	if err != nil {
		h.logger.WithError(err).WithField("repository", req.Repository).Error("narrative generation failed")
		respondError(c, err)
		return
	}
	h.store.Replace(narratives)

	c.JSON(http.StatusOK, dto.GenerateNarrativesResponse{
		Status:      "success",
		Message:     fmt.Sprintf("Generated narratives for %d tickets", len(narratives)),
		Narratives:  narratives,
		Diagnostics: diags,
	})
}

func (h *NarrativeHandler) generate(activities []models.TicketActivity) (out []models.TicketNarrative, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.InternalErrorf("Failed to generate narratives: %v", r)
		}
	}()
	return h.synthesizer.Generate(activities), nil
}

func (h *NarrativeHandler) List(c *gin.Context) {
	narratives := h.store.List()
	c.JSON(http.StatusOK, dto.ListNarrativesResponse{
		Status:     "success",
		Narratives: narratives,
		Count:      len(narratives),
	})
}

func (h *NarrativeHandler) Get(c *gin.Context) {
	id := c.Param("ticketId")
	n, ok := h.store.Get(id)
	if !ok {
		respondError(c, errors.NotFoundErrorf("Narrative for %s not found", id))
		return
	}
	c.JSON(http.StatusOK, dto.GetNarrativeResponse{Status: "success", Narrative: n})
}
