package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/PatelJay-25/SlotSwapper-Project/internal/logger"
	"github.com/PatelJay-25/SlotSwapper-Project/internal/services"
)

type SwapHandler struct {
	log         *logger.Logger
	swapService services.SwapService
}

func NewSwapHandler(log *logger.Logger, swapService services.SwapService) *SwapHandler {
	return &SwapHandler{
		log:         log.With("handler", "SwapHandler"),
		swapService: swapService,
	}
}

func (h *SwapHandler) ListSwappable(c *gin.Context) {
	events, err := h.swapService.ListSwappable(c.Request.Context())
	if err != nil {
		h.log.Error("List swappable slots failed", "error", err)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"events": events})
}

func (h *SwapHandler) Propose(c *gin.Context) {
	var req struct {
		MySlotID    string `json:"my_slot_id"`
		TheirSlotID string `json:"their_slot_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION", err)
		return
	}
	if req.MySlotID == "" || req.TheirSlotID == "" {
		RespondError(c, http.StatusBadRequest, "VALIDATION", errMissingSlotIDs)
		return
	}
	mySlotID, err := uuid.Parse(req.MySlotID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION", err)
		return
	}
	theirSlotID, err := uuid.Parse(req.TheirSlotID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION", err)
		return
	}
	swap, err := h.swapService.Propose(c.Request.Context(), mySlotID, theirSlotID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"swap": swap})
}

func (h *SwapHandler) Respond(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("requestId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION", err)
		return
	}
	var req struct {
		Accepted *bool `json:"accepted"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION", err)
		return
	}
	if req.Accepted == nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION", errAcceptedNotBool)
		return
	}
	message, err := h.swapService.Respond(c.Request.Context(), requestID, *req.Accepted)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"success": true, "message": message})
}

func (h *SwapHandler) ListRequests(c *gin.Context) {
	feed, err := h.swapService.ListRequests(c.Request.Context())
	if err != nil {
		h.log.Error("List swap requests failed", "error", err)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, feed)
}

func (h *SwapHandler) Reconcile(c *gin.Context) {
	report, err := h.swapService.Reconcile(c.Request.Context())
	if err != nil {
		h.log.Error("Reconcile sweep failed", "error", err)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, report)
}
