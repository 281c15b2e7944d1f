// Package gateway exposes a read-only REST facade over the node for UIs and
// integrations that cannot speak JSON-RPC. All mutating operations stay on
// the authenticated RPC surface.
package gateway

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"aquachain/native/allocation"
)

// NodeView is the read surface the gateway needs from the node.
type NodeView interface {
	Height() uint64
	AllocationStatus() (allocation.Status, error)
	Usage(account [20]byte, cycle uint64) (allocation.UsageRecord, bool, error)
	TotalUsage(cycle uint64) (uint64, error)
	Estimate(account [20]byte, cycle uint64) (uint64, error)
	TokenBalance(addr [20]byte) (*big.Int, error)
	TokenSupply() (*big.Int, error)
}

// New builds the gateway router.
func New(view NodeView, logger *slog.Logger) http.Handler {
	g := &gateway{view: view, logger: logger}
	r := chi.NewRouter()
	r.Use(g.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Route("/v1", func(v1 chi.Router) {
		v1.Get("/allocation/status", g.handleStatus)
		v1.Get("/allocation/cycles/{cycle}/usage/{account}", g.handleUsage)
		v1.Get("/allocation/cycles/{cycle}/total", g.handleTotal)
		v1.Get("/allocation/cycles/{cycle}/estimate/{account}", g.handleEstimate)
		v1.Get("/token/balances/{account}", g.handleBalance)
		v1.Get("/token/supply", g.handleSupply)
	})
	return r
}

type gateway struct {
	view   NodeView
	logger *slog.Logger
}

func (g *gateway) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		if g.logger != nil {
			g.logger.Info("gateway request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Duration("elapsed", time.Since(start)),
			)
		}
	})
}

type statusPayload struct {
	Active       bool   `json:"active"`
	LastBlock    uint64 `json:"lastBlock"`
	CurrentCycle uint64 `json:"currentCycle"`
	Ready        bool   `json:"ready"`
	Height       uint64 `json:"height"`
}

type usagePayload struct {
	Account    string `json:"account"`
	Cycle      uint64 `json:"cycle"`
	Used       uint64 `json:"used"`
	ReportedAt uint64 `json:"reportedAt"`
}

type totalPayload struct {
	Cycle uint64 `json:"cycle"`
	Total uint64 `json:"total"`
}

type estimatePayload struct {
	Account  string `json:"account"`
	Cycle    uint64 `json:"cycle"`
	Estimate uint64 `json:"estimate"`
}

type balancePayload struct {
	Account string `json:"account"`
	Balance string `json:"balance"`
}

type supplyPayload struct {
	Supply string `json:"supply"`
}

type errorPayload struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func cycleParam(r *http.Request) (uint64, error) {
	return strconv.ParseUint(chi.URLParam(r, "cycle"), 10, 64)
}

func accountParam(r *http.Request) ([20]byte, string, error) {
	raw := chi.URLParam(r, "account")
	if !common.IsHexAddress(raw) {
		return [20]byte{}, raw, errors.New("invalid account address")
	}
	return common.HexToAddress(raw), raw, nil
}

func (g *gateway) handleStatus(w http.ResponseWriter, _ *http.Request) {
	status, err := g.view.AllocationStatus()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorPayload{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, statusPayload{
		Active:       status.Active,
		LastBlock:    status.LastBlock,
		CurrentCycle: status.CurrentCycle,
		Ready:        status.Ready,
		Height:       g.view.Height(),
	})
}

func (g *gateway) handleUsage(w http.ResponseWriter, r *http.Request) {
	cycle, err := cycleParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: "invalid cycle"})
		return
	}
	account, raw, err := accountParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: err.Error()})
		return
	}
	record, found, err := g.view.Usage(account, cycle)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorPayload{Error: err.Error()})
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, errorPayload{Error: "no usage record"})
		return
	}
	writeJSON(w, http.StatusOK, usagePayload{Account: raw, Cycle: cycle, Used: record.Used, ReportedAt: record.ReportedAt})
}

func (g *gateway) handleTotal(w http.ResponseWriter, r *http.Request) {
	cycle, err := cycleParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: "invalid cycle"})
		return
	}
	total, err := g.view.TotalUsage(cycle)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorPayload{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, totalPayload{Cycle: cycle, Total: total})
}

func (g *gateway) handleEstimate(w http.ResponseWriter, r *http.Request) {
	cycle, err := cycleParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: "invalid cycle"})
		return
	}
	account, raw, err := accountParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: err.Error()})
		return
	}
	estimate, err := g.view.Estimate(account, cycle)
	if err != nil {
		if errors.Is(err, allocation.ErrNoUsageData) {
			writeJSON(w, http.StatusNotFound, errorPayload{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorPayload{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, estimatePayload{Account: raw, Cycle: cycle, Estimate: estimate})
}

func (g *gateway) handleBalance(w http.ResponseWriter, r *http.Request) {
	account, raw, err := accountParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: err.Error()})
		return
	}
	balance, err := g.view.TokenBalance(account)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorPayload{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, balancePayload{Account: raw, Balance: balance.String()})
}

func (g *gateway) handleSupply(w http.ResponseWriter, _ *http.Request) {
	supply, err := g.view.TokenSupply()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorPayload{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, supplyPayload{Supply: supply.String()})
}
