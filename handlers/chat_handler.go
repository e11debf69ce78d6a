package handlers

import (
	"net/http"
	"strings"

	"finpal-backend/logger"
	"finpal-backend/models"
	"finpal-backend/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ChatTypeStockComparison selects the two-instrument comparison pipeline
const ChatTypeStockComparison = "stock_comparison"

// ChatHandler handles HTTP requests for the agent conversation
type ChatHandler struct {
	coordinator    *service.CoordinatorService
	analyst        *service.AnalystService
	coach          *service.CoachService
	profileService *service.ProfileService
	ledger         *service.LedgerService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(
	coordinator *service.CoordinatorService,
	analyst *service.AnalystService,
	coach *service.CoachService,
	profileService *service.ProfileService,
	ledger *service.LedgerService,
) *ChatHandler {
	return &ChatHandler{
		coordinator:    coordinator,
		analyst:        analyst,
		coach:          coach,
		profileService: profileService,
		ledger:         ledger,
	}
}

// ChatRequest represents the request body for POST /api/chat
type ChatRequest struct {
	Message string `json:"message" binding:"required"`
	Type    string `json:"type"`
	Stock1  string `json:"stock1"`
	Stock2  string `json:"stock2"`
}

// StockAnalysisRequest represents the request body for POST /api/chat/stock-analysis
type StockAnalysisRequest struct {
	Symbol string `json:"symbol" binding:"required"`
}

// SpendingAnalysisRequest represents the request body for POST /api/chat/spending-analysis
type SpendingAnalysisRequest struct {
	ItemName  string  `json:"itemName" binding:"required"`
	ItemPrice float64 `json:"itemPrice" binding:"required,gt=0"`
}

// Chat handles POST /api/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Please provide a message")
		return
	}

	ctx := c.Request.Context()
	fc, err := h.profileService.BuildContext(ctx, userID)
	if err != nil {
		respondServiceError(c, err, "CHAT_FAILED")
		return
	}

	var result *models.RoutedResponse
	if req.Type == ChatTypeStockComparison {
		stock1 := strings.ToUpper(strings.TrimSpace(req.Stock1))
		stock2 := strings.ToUpper(strings.TrimSpace(req.Stock2))
		if stock1 == "" || stock2 == "" {
			respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Please provide both stock symbols")
			return
		}
		result = h.coordinator.CompareTwoInstruments(ctx, stock1, stock2, fc)
	} else {
		result = h.coordinator.Route(ctx, req.Message, fc)
	}

	if err := h.ledger.Record(ctx, userID, req.Message, result); err != nil {
		logger.Get().Error("failed to record conversation",
			zap.String("user_id", userID.String()),
			zap.Error(err))
	}

	respondData(c, http.StatusOK, result)
}

// History handles GET /api/chat/history
func (h *ChatHandler) History(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	turns, err := h.ledger.History(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "FETCH_FAILED")
		return
	}

	respondData(c, http.StatusOK, turns)
}

// StockAnalysis handles POST /api/chat/stock-analysis
func (h *ChatHandler) StockAnalysis(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}

	var req StockAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Please provide a stock symbol")
		return
	}

	snapshot := h.analyst.AnalyzeInstrument(c.Request.Context(), strings.ToUpper(strings.TrimSpace(req.Symbol)))
	if snapshot == nil {
		respondError(c, http.StatusNotFound, "STOCK_NOT_FOUND", "Stock not found or unable to fetch data")
		return
	}

	respondData(c, http.StatusOK, snapshot)
}

// SpendingAnalysis handles POST /api/chat/spending-analysis
func (h *ChatHandler) SpendingAnalysis(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req SpendingAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Please provide item name and price")
		return
	}

	ctx := c.Request.Context()
	fc, err := h.profileService.BuildContext(ctx, userID)
	if err != nil {
		respondServiceError(c, err, "ANALYSIS_FAILED")
		return
	}

	analysis := h.coach.EvaluateSpendingDecision(ctx, req.ItemName, req.ItemPrice, fc)
	respondData(c, http.StatusOK, analysis)
}
