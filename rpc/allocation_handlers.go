package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"aquachain/core/events"
	"aquachain/native/allocation"
)

type allocationStatusResult struct {
	Active       bool   `json:"active"`
	LastBlock    uint64 `json:"lastBlock"`
	CurrentCycle uint64 `json:"currentCycle"`
	Ready        bool   `json:"ready"`
	Height       uint64 `json:"height"`
}

type usageParams struct {
	Account string `json:"account"`
	Cycle   uint64 `json:"cycle"`
}

type usageResult struct {
	Account    string `json:"account"`
	Cycle      uint64 `json:"cycle"`
	Found      bool   `json:"found"`
	Used       uint64 `json:"used,omitempty"`
	ReportedAt uint64 `json:"reportedAt,omitempty"`
}

type totalUsageParams struct {
	Cycle uint64 `json:"cycle"`
}

type totalUsageResult struct {
	Cycle uint64 `json:"cycle"`
	Total uint64 `json:"total"`
}

type estimateResult struct {
	Account  string `json:"account"`
	Cycle    uint64 `json:"cycle"`
	Estimate uint64 `json:"estimate"`
}

type recentEventsParams struct {
	Limit int `json:"limit,omitempty"`
}

type registerParams struct {
	Caller  string `json:"caller"`
	Account string `json:"account"`
}

type reportUsageParams struct {
	Caller  string `json:"caller"`
	Account string `json:"account"`
	Amount  uint64 `json:"amount"`
	Cycle   uint64 `json:"cycle"`
}

type reportUsageResult struct {
	Applied bool `json:"applied"`
}

type callerParams struct {
	Caller string `json:"caller"`
}

type allocateParams struct {
	Caller   string   `json:"caller"`
	Accounts []string `json:"accounts"`
}

type allocateResult struct {
	Cycle    uint64 `json:"cycle"`
	Accounts int    `json:"accounts"`
	Total    uint64 `json:"total"`
}

type setAdminParams struct {
	Caller string `json:"caller"`
	Admin  string `json:"admin"`
}

type emergencyWithdrawParams struct {
	Caller string `json:"caller"`
	Amount uint64 `json:"amount"`
}

func parseAddress(raw string) ([20]byte, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return [20]byte{}, fmt.Errorf("address required")
	}
	if !common.IsHexAddress(trimmed) {
		return [20]byte{}, fmt.Errorf("invalid address %q", trimmed)
	}
	return common.HexToAddress(trimmed), nil
}

func decodeParams(req *RPCRequest, out interface{}) error {
	if len(req.Params) == 0 {
		return nil
	}
	if len(req.Params) != 1 {
		return fmt.Errorf("expected a single parameter object")
	}
	return json.Unmarshal(req.Params[0], out)
}

// writeModuleError maps module sentinel errors onto RPC status/code pairs.
func writeModuleError(w http.ResponseWriter, id interface{}, err error) {
	switch {
	case errors.Is(err, allocation.ErrNotAuthorized):
		writeError(w, http.StatusForbidden, id, codeUnauthorized, err.Error(), nil)
	case errors.Is(err, allocation.ErrNoUsageData):
		writeError(w, http.StatusNotFound, id, codeServerError, err.Error(), nil)
	case errors.Is(err, allocation.ErrCycleNotReady),
		errors.Is(err, allocation.ErrInvalidUserList),
		errors.Is(err, allocation.ErrUserNotRegistered),
		errors.Is(err, allocation.ErrInvalidAllocationFormula),
		errors.Is(err, allocation.ErrOverflow),
		errors.Is(err, allocation.ErrTokenMintFailed),
		errors.Is(err, allocation.ErrTokenBurnFailed),
		errors.Is(err, allocation.ErrModulePaused):
		writeError(w, http.StatusBadRequest, id, codeServerError, err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, id, codeServerError, "internal error", err.Error())
	}
}

func (s *Server) handleAllocationStatus(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	status, err := s.node.AllocationStatus()
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, allocationStatusResult{
		Active:       status.Active,
		LastBlock:    status.LastBlock,
		CurrentCycle: status.CurrentCycle,
		Ready:        status.Ready,
		Height:       s.node.Height(),
	})
}

func (s *Server) handleGetUsage(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params usageParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	account, err := parseAddress(params.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	record, found, err := s.node.Usage(account, params.Cycle)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	result := usageResult{Account: params.Account, Cycle: params.Cycle, Found: found}
	if found {
		result.Used = record.Used
		result.ReportedAt = record.ReportedAt
	}
	writeResult(w, req.ID, result)
}

func (s *Server) handleGetTotalUsage(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params totalUsageParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	total, err := s.node.TotalUsage(params.Cycle)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, totalUsageResult{Cycle: params.Cycle, Total: total})
}

func (s *Server) handleEstimate(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params usageParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	account, err := parseAddress(params.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	estimate, err := s.node.Estimate(account, params.Cycle)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, estimateResult{Account: params.Account, Cycle: params.Cycle, Estimate: estimate})
}

func (s *Server) handleRecentEvents(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params recentEventsParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	entries := s.node.RecentEvents(params.Limit)
	if entries == nil {
		entries = []events.Entry{}
	}
	writeResult(w, req.ID, entries)
}

func (s *Server) handleRegister(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params registerParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	account, err := parseAddress(params.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.Register(caller, account); err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"registered": true})
}

func (s *Server) handleReportUsage(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params reportUsageParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	account, err := parseAddress(params.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	applied, err := s.node.ReportUsage(caller, account, params.Amount, params.Cycle)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, reportUsageResult{Applied: applied})
}

func (s *Server) handleStartCycle(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params callerParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.StartCycle(caller); err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	status, err := s.node.AllocationStatus()
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, allocationStatusResult{
		Active:       status.Active,
		LastBlock:    status.LastBlock,
		CurrentCycle: status.CurrentCycle,
		Ready:        status.Ready,
		Height:       s.node.Height(),
	})
}

func (s *Server) handleFinalizeCycle(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params callerParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.FinalizeCycle(caller); err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	status, err := s.node.AllocationStatus()
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, allocationStatusResult{
		Active:       status.Active,
		LastBlock:    status.LastBlock,
		CurrentCycle: status.CurrentCycle,
		Ready:        status.Ready,
		Height:       s.node.Height(),
	})
}

func (s *Server) handleAllocate(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params allocateParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	accounts := make([][20]byte, 0, len(params.Accounts))
	for _, raw := range params.Accounts {
		account, err := parseAddress(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
		accounts = append(accounts, account)
	}
	total, err := s.node.Allocate(caller, accounts)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	status, err := s.node.AllocationStatus()
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, allocateResult{Cycle: status.CurrentCycle, Accounts: len(accounts), Total: total})
}

func (s *Server) handleSetAdmin(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params setAdminParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	admin, err := parseAddress(params.Admin)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.SetAdmin(caller, admin); err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"admin": params.Admin})
}

func (s *Server) handleEmergencyWithdraw(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params emergencyWithdrawParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.EmergencyWithdraw(caller, params.Amount); err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]uint64{"burned": params.Amount})
}
