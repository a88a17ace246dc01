package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/devai/internal/adapter"
	"github.com/rohankatakam/devai/internal/anomaly"
	"github.com/rohankatakam/devai/internal/errors"
	"github.com/rohankatakam/devai/internal/http/dto"
	"github.com/rohankatakam/devai/internal/models"
	"github.com/rohankatakam/devai/internal/store"
)

type AnomalyHandler struct {
	engine *anomaly.Engine
	store  *store.AnomalyStore
	logger logrus.FieldLogger
}

func NewAnomalyHandler(engine *anomaly.Engine, store *store.AnomalyStore, logger logrus.FieldLogger) *AnomalyHandler {
	return &AnomalyHandler{engine: engine, store: store, logger: logger}
}

func (h *AnomalyHandler) Detect(c *gin.Context) {
	var req dto.DetectAnomaliesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	in := anomaly.Input{
		ProjectKey:   req.JiraData.ProjectKey,
		MaxAnomalies: anomaly.DefaultMaxAnomalies,
	}
	if req.MaxAnomalies != nil {
		in.MaxAnomalies = *req.MaxAnomalies
	}

	tickets, issueDiags := adapter.ParseIssues(req.JiraData.Issues)
	in.Tickets = tickets
	diags := append([]models.Diagnostic{}, issueDiags...)
	if req.GitHubData != nil && req.GitHubData.PullRequests != nil {
		prs, prDiags := adapter.ParsePullRequests("github_data.pull_requests", req.GitHubData.PullRequests)
		in.PullRequests = prs
		diags = append(diags, prDiags...)
	}

	result, err := h.detect(in)
	if err != nil {
		h.logger.WithError(err).WithField("project", in.ProjectKey).Error("anomaly detection failed")
		respondError(c, err)
		return
	}
	h.store.Replace(result.Anomalies)

	c.JSON(http.StatusOK, dto.DetectAnomaliesResponse{
		Status:      "success",
		Message:     fmt.Sprintf("Detected %d anomalies", len(result.Anomalies)),
		Anomalies:   result.Anomalies,
		Diagnostics: append(diags, result.Diagnostics...),
	})
}

// detect runs the engine, converting a panic into a batch failure so the
// store keeps its previous contents
func (h *AnomalyHandler) detect(in anomaly.Input) (res anomaly.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.InternalErrorf("Failed to detect anomalies: %v", r)
		}
	}()
	return h.engine.Detect(in), nil
}

func (h *AnomalyHandler) List(c *gin.Context) {
	anomalies := h.store.List()
	c.JSON(http.StatusOK, dto.ListAnomaliesResponse{
		Status:    "success",
		Anomalies: anomalies,
		Count:     len(anomalies),
	})
}

func (h *AnomalyHandler) Get(c *gin.Context) {
	id := c.Param("id")
	a, ok := h.store.Get(id)
	if !ok {
		respondError(c, errors.NotFoundErrorf("Anomaly %s not found", id))
		return
	}
	c.JSON(http.StatusOK, dto.GetAnomalyResponse{Status: "success", Anomaly: a})
}
