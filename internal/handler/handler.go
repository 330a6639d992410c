package handler

import (
	"strconv"

	"pointledger/internal/model"
	"pointledger/internal/service"
	"pointledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// Handler exposes LedgerService over HTTP.
type Handler struct {
	ledger *service.LedgerService
}

func NewHandler(ledger *service.LedgerService) *Handler {
	return &Handler{ledger: ledger}
}

// Page is the envelope data of every list endpoint.
type Page struct {
	Items    interface{} `json:"items"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

func (h *Handler) bindPagination(c *gin.Context) (service.Pagination, bool) {
	var p service.Pagination
	if err := c.ShouldBindQuery(&p); err != nil {
		response.ParamError(c, "invalid pagination: "+err.Error())
		return p, false
	}
	return h.ledger.Normalize(p), true
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.ParamError(c, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

func pageOf(items interface{}, total int64, p service.Pagination) Page {
	return Page{Items: items, Total: total, Page: p.Page, PageSize: p.PageSize}
}

// ============================================================
// User endpoints, acting on the caller's own account
// ============================================================

// GetBalance GET /api/v1/points/balance
func (h *Handler) GetBalance(c *gin.Context) {
	id, _ := identity(c)
	balance, err := h.ledger.GetBalance(c.Request.Context(), id.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{
		"user_id": id.UserID,
		"balance": balance,
	})
}

// ListTransactions GET /api/v1/points/transactions?page=&page_size=
func (h *Handler) ListTransactions(c *gin.Context) {
	id, _ := identity(c)
	p, ok := h.bindPagination(c)
	if !ok {
		return
	}
	list, total, err := h.ledger.ListTransactions(c.Request.Context(), id.UserID, p)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, pageOf(list, total, p))
}

type ChargeRequestBody struct {
	Amount int64 `json:"amount"`
}

// SubmitChargeRequest POST /api/v1/points/charge-requests
func (h *Handler) SubmitChargeRequest(c *gin.Context) {
	id, _ := identity(c)
	var body ChargeRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.ParamError(c, "invalid body: "+err.Error())
		return
	}
	req, err := h.ledger.SubmitChargeRequest(c.Request.Context(), id.UserID, body.Amount)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, req)
}

// ListChargeRequests GET /api/v1/points/charge-requests
func (h *Handler) ListChargeRequests(c *gin.Context) {
	id, _ := identity(c)
	p, ok := h.bindPagination(c)
	if !ok {
		return
	}
	list, total, err := h.ledger.ListUserChargeRequests(c.Request.Context(), id.UserID, p)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, pageOf(list, total, p))
}

type WithdrawRequestBody struct {
	Amount     int64  `json:"amount"`
	BankName   string `json:"bank_name" binding:"required,max=64"`
	AccountNum string `json:"account_num" binding:"required,max=64"`
}

// SubmitWithdrawRequest POST /api/v1/points/withdraw-requests
func (h *Handler) SubmitWithdrawRequest(c *gin.Context) {
	id, _ := identity(c)
	var body WithdrawRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.ParamError(c, "invalid body: "+err.Error())
		return
	}
	req, err := h.ledger.SubmitWithdrawRequest(c.Request.Context(), id.UserID, body.Amount, body.BankName, body.AccountNum)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, req)
}

// ListWithdrawRequests GET /api/v1/points/withdraw-requests
func (h *Handler) ListWithdrawRequests(c *gin.Context) {
	id, _ := identity(c)
	p, ok := h.bindPagination(c)
	if !ok {
		return
	}
	list, total, err := h.ledger.ListUserWithdrawRequests(c.Request.Context(), id.UserID, p)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, pageOf(list, total, p))
}

type SpendBody struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description" binding:"max=256"`
}

// Spend POST /api/v1/points/spend
func (h *Handler) Spend(c *gin.Context) {
	id, _ := identity(c)
	var body SpendBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.ParamError(c, "invalid body: "+err.Error())
		return
	}
	trans, err := h.ledger.RecordSpend(c.Request.Context(), id.UserID, body.Amount, body.Description)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, trans)
}

// ============================================================
// Admin endpoints
// ============================================================

// ListPendingRequests GET /api/v1/admin/points/requests?type=charge|withdraw
func (h *Handler) ListPendingRequests(c *gin.Context) {
	p, ok := h.bindPagination(c)
	if !ok {
		return
	}
	kind := model.RequestKind(c.DefaultQuery("type", string(model.RequestKindCharge)))
	page, err := h.ledger.ListPendingRequests(c.Request.Context(), kind, p)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, page)
}

type RejectBody struct {
	Reason string `json:"reason" binding:"max=256"`
}

func bindReject(c *gin.Context) (RejectBody, bool) {
	var body RejectBody
	if c.Request.ContentLength == 0 {
		return body, true
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.ParamError(c, "invalid body: "+err.Error())
		return body, false
	}
	return body, true
}

// ApproveChargeRequest POST /api/v1/admin/points/charge-requests/:id/approve
func (h *Handler) ApproveChargeRequest(c *gin.Context) {
	admin, _ := identity(c)
	requestID, ok := pathID(c, "id")
	if !ok {
		return
	}
	res, err := h.ledger.ApproveChargeRequest(c.Request.Context(), requestID, admin.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, res)
}

// RejectChargeRequest POST /api/v1/admin/points/charge-requests/:id/reject
func (h *Handler) RejectChargeRequest(c *gin.Context) {
	admin, _ := identity(c)
	requestID, ok := pathID(c, "id")
	if !ok {
		return
	}
	body, ok := bindReject(c)
	if !ok {
		return
	}
	req, err := h.ledger.RejectChargeRequest(c.Request.Context(), requestID, admin.UserID, body.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, req)
}

// ApproveWithdrawRequest POST /api/v1/admin/points/withdraw-requests/:id/approve
func (h *Handler) ApproveWithdrawRequest(c *gin.Context) {
	admin, _ := identity(c)
	requestID, ok := pathID(c, "id")
	if !ok {
		return
	}
	res, err := h.ledger.ApproveWithdrawRequest(c.Request.Context(), requestID, admin.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, res)
}

// RejectWithdrawRequest POST /api/v1/admin/points/withdraw-requests/:id/reject
func (h *Handler) RejectWithdrawRequest(c *gin.Context) {
	admin, _ := identity(c)
	requestID, ok := pathID(c, "id")
	if !ok {
		return
	}
	body, ok := bindReject(c)
	if !ok {
		return
	}
	req, err := h.ledger.RejectWithdrawRequest(c.Request.Context(), requestID, admin.UserID, body.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, req)
}

type AdjustBody struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description" binding:"max=256"`
}

// AdminAdjust POST /api/v1/admin/points/users/:id/adjust
func (h *Handler) AdminAdjust(c *gin.Context) {
	admin, _ := identity(c)
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var body AdjustBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.ParamError(c, "invalid body: "+err.Error())
		return
	}
	trans, err := h.ledger.AdminAdjust(c.Request.Context(), userID, body.Amount, admin.UserID, body.Description)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, trans)
}

// RecordEarn POST /api/v1/admin/points/users/:id/earn
func (h *Handler) RecordEarn(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var body SpendBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.ParamError(c, "invalid body: "+err.Error())
		return
	}
	trans, err := h.ledger.RecordEarn(c.Request.Context(), userID, body.Amount, body.Description)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, trans)
}

// UserBalance GET /api/v1/admin/points/users/:id/balance
func (h *Handler) UserBalance(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}
	check, err := h.ledger.VerifyBalance(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, check)
}

// RequestTransactions GET /api/v1/admin/points/requests/:request_no/transactions
func (h *Handler) RequestTransactions(c *gin.Context) {
	list, err := h.ledger.ListRequestTransactions(c.Request.Context(), c.Param("request_no"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, list)
}

// SearchTransactions GET /api/v1/admin/points/transactions?user_id=&type=
func (h *Handler) SearchTransactions(c *gin.Context) {
	p, ok := h.bindPagination(c)
	if !ok {
		return
	}
	var filter service.TransactionFilter
	if raw := c.Query("user_id"); raw != "" {
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || userID <= 0 {
			response.ParamError(c, "user_id must be a positive integer")
			return
		}
		filter.UserID = userID
	}
	filter.Type = model.TransactionType(c.Query("type"))

	list, total, err := h.ledger.SearchTransactions(c.Request.Context(), filter, p)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, pageOf(list, total, p))
}
