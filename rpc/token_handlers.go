package rpc

import (
	"math/big"
	"net/http"
)

type tokenBalanceParams struct {
	Address string `json:"address"`
}

type tokenBalanceResult struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
}

type tokenSupplyResult struct {
	Supply string `json:"supply"`
}

func bigIntString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func (s *Server) handleTokenBalance(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params tokenBalanceParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	addr, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	balance, err := s.node.TokenBalance(addr)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, tokenBalanceResult{Address: params.Address, Balance: bigIntString(balance)})
}

func (s *Server) handleTokenSupply(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	supply, err := s.node.TokenSupply()
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, tokenSupplyResult{Supply: bigIntString(supply)})
}
