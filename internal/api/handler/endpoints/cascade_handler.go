package endpoints

import (
	"cascade"
	"cascade/internal/api/handler/middleware"
	"cascade/internal/api/handler/request"
	"cascade/internal/api/handler/response"
	"cascade/internal/api/service"
	"cascade/internal/engine"
	"cascade/pkg"
	"errors"
	"net/http"

	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type cascadeHandler struct {
	ingestionService *service.IngestionService
	retestService    *service.RetestService
	cascadeService   *service.CascadeService
	logger           zerolog.Logger
	config           cascade.AppConfig
}

func CascadeHandler(router *graceful.Graceful, cascadeService *service.CascadeService) {
	h := &cascadeHandler{
		ingestionService: service.NewIngestionService(cascadeService),
		retestService:    service.NewRetestService(cascadeService),
		cascadeService:   cascadeService,
		logger:           cascade.Logger,
		config:           cascade.GetConfig(),
	}

	ingest := router.Group("/api/v1")
	ingest.Use(middleware.ApiKeyMiddleware(h.config))
	{
		ingest.POST("/ingest", h.ingest)
	}

	protected := router.Group("/api/v1")
	protected.Use(middleware.AuthMiddleware(h.config))
	{
		protected.POST("/cascade/retest", h.retest)
		protected.GET("/workflows/:id/records", h.workflowRecords)
	}
}

func (slf *cascadeHandler) ingest(c *gin.Context) {
	var ingestDTO request.IngestDTO
	if err := pkg.ParseAndValidate(c, &ingestDTO); err != nil {
		slf.logger.Error().Err(err).Msg("Error parsing and validating ingest DTO")
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	key := middleware.ApiKeyFromContext(c)
	if key == nil {
		c.JSON(http.StatusUnauthorized, response.APIError{Message: "API key not authenticated"})
		return
	}

	result, err := slf.ingestionService.Ingest(c.Request.Context(), key, ingestDTO.Data, ingestDTO.Metadata)
	if err != nil {
		slf.respondRunError(c, err, "Error processing submission")
		return
	}

	results := make(map[string]response.IngestNodeResultDTO)
	for nodeID, node := range result.Run.Nodes {
		if node.Evaluation == nil {
			continue
		}
		results[nodeID] = response.IngestNodeResultDTO{
			Output:     node.Output,
			Evaluation: node.Evaluation,
		}
	}

	c.JSON(http.StatusCreated, response.IngestResponseDTO{
		Success:      true,
		SubmissionID: result.SubmissionID,
		WorkflowID:   result.WorkflowID,
		Status:       string(result.Status),
		Cascade: response.CascadeSummaryDTO{
			Executed:        result.Run.Executed,
			Cached:          result.Run.Cached,
			Errored:         result.Run.Errored,
			ExecutionTimeMs: result.Run.Duration.Milliseconds(),
		},
		Results: results,
	})
}

func (slf *cascadeHandler) retest(c *gin.Context) {
	var retestDTO request.RetestDTO
	if err := pkg.ParseAndValidate(c, &retestDTO); err != nil {
		slf.logger.Error().Err(err).Msg("Error parsing and validating retest DTO")
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	result, err := slf.retestService.Retest(c.Request.Context(), retestDTO.CompanyID, retestDTO.WorkflowID, retestDTO.NodeIDs)
	if err != nil {
		slf.respondRunError(c, err, "Error re-testing nodes")
		return
	}

	resp := response.RetestResponseDTO{
		WorkflowID: result.WorkflowID,
		Cascade: response.CascadeSummaryDTO{
			Executed:        result.Run.Executed,
			Cached:          result.Run.Cached,
			Errored:         result.Run.Errored,
			ExecutionTimeMs: result.Run.Duration.Milliseconds(),
		},
	}
	for _, node := range result.Results {
		resp.Results = append(resp.Results, response.RetestNodeDTO{
			NodeID:     node.NodeID,
			Output:     node.Output,
			Cached:     node.Cached,
			ExecutedAt: node.ExecutedAt,
			Error:      node.Error,
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (slf *cascadeHandler) workflowRecords(c *gin.Context) {
	workflowID := c.Param("id")
	workflow, err := slf.cascadeService.WorkflowByID(workflowID)
	if err != nil {
		slf.logger.Error().Err(err).Str("workflowId", workflowID).Msg("Error loading workflow")
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to load workflow"})
		return
	}
	if workflow == nil {
		c.JSON(http.StatusNotFound, response.APIError{Message: "Workflow not found"})
		return
	}

	records, err := slf.cascadeService.Records(workflow.CompanyID, workflow.ID)
	if err != nil {
		slf.logger.Error().Err(err).Str("workflowId", workflowID).Msg("Error listing records")
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to list records"})
		return
	}

	dtos := make([]response.RecordDTO, 0, len(records))
	for _, record := range records {
		payload, err := record.Payload()
		if err != nil {
			slf.logger.Error().Err(err).Str("nodeId", record.NodeID).Msg("Error decoding record payload")
			continue
		}
		dtos = append(dtos, response.RecordDTO{
			NodeID:         record.NodeID,
			NodeType:       string(record.NodeType),
			NodeLabel:      record.NodeLabel,
			Output:         payload.Output,
			Evaluation:     payload.Evaluation,
			Flags:          payload.Flags,
			ContentHash:    record.ContentHash,
			Version:        record.Version,
			LastExecutedAt: record.LastExecutedAt,
		})
	}
	c.JSON(http.StatusOK, dtos)
}

// respondRunError maps cascade errors to HTTP statuses: busy runs conflict,
// missing workflows are 404 and LLM quota errors pass their status through.
func (slf *cascadeHandler) respondRunError(c *gin.Context, err error, logMsg string) {
	slf.logger.Error().Err(err).Msg(logMsg)

	var chatErr *pkg.ChatError
	switch {
	case errors.Is(err, service.ErrNoWorkflow), errors.Is(err, service.ErrWorkflowNotFound):
		c.JSON(http.StatusNotFound, response.APIError{Message: err.Error()})
	case errors.Is(err, engine.ErrCascadeBusy):
		c.JSON(http.StatusConflict, response.APIError{Message: err.Error()})
	case errors.As(err, &chatErr):
		c.JSON(chatErr.StatusCode, response.APIError{Message: chatErr.Message})
	default:
		c.JSON(http.StatusInternalServerError, response.APIError{Message: err.Error()})
	}
}
