package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"futurechain/crypto"
	"futurechain/native/common"
	"futurechain/native/futures"
)

const (
	codeFuturesInvalidParams = -32031
	codeFuturesNotFound      = -32032
	codeFuturesForbidden     = -32033
	codeFuturesConflict      = -32034
	codeFuturesInternal      = -32035
)

type futuresCreateParams struct {
	Owner               string `json:"owner"`
	Deliverable         string `json:"deliverable"`
	DeliverableQuantity string `json:"deliverableQuantity"`
	TotalSupply         string `json:"totalSupply"`
	PayToken            string `json:"payToken"`
	Price               string `json:"price"`
	SecurityDeposit     string `json:"securityDeposit"`
	StartTime           int64  `json:"startTime"`
	StartDeliveryTime   int64  `json:"startDeliveryTime"`
	EndTime             int64  `json:"endTime"`
}

type futuresIDParams struct {
	ID uint64 `json:"futureId"`
}

type futuresActorParams struct {
	ID     uint64 `json:"futureId"`
	Caller string `json:"caller"`
}

type futuresQuantityParams struct {
	ID       uint64 `json:"futureId"`
	Caller   string `json:"caller"`
	Quantity string `json:"quantity"`
}

type futuresFeeRateParams struct {
	Caller  string `json:"caller"`
	FeeRate uint32 `json:"feeRate"`
}

type futuresCollectorParams struct {
	Caller    string `json:"caller"`
	Collector string `json:"collector"`
}

type futuresBalanceParams struct {
	ID     uint64 `json:"futureId"`
	Holder string `json:"holder"`
}

type futuresEventsParams struct {
	Limit int `json:"limit"`
}

type balanceParams struct {
	Address string `json:"address"`
	Token   string `json:"token"`
}

type futuresJSON struct {
	ID                  uint64 `json:"futureId"`
	Owner               string `json:"owner"`
	Deliverable         string `json:"deliverable"`
	DeliverableQuantity string `json:"deliverableQuantity"`
	TotalSupply         string `json:"totalSupply"`
	PayToken            string `json:"payToken"`
	Price               string `json:"price"`
	SecurityDeposit     string `json:"securityDeposit"`
	FeeRate             uint32 `json:"feeRate"`
	StartTime           int64  `json:"startTime"`
	StartDeliveryTime   int64  `json:"startDeliveryTime"`
	EndTime             int64  `json:"endTime"`
	CreatedAt           int64  `json:"createdAt"`
	TotalDelivered      string `json:"totalDelivered"`
	TotalClaimed        string `json:"totalClaimed"`
	MintedCount         string `json:"mintedCount"`
	HasDeposit          bool   `json:"hasDeposit"`
	Phase               string `json:"phase"`
}

type deliveryProceedsJSON struct {
	Claimed string `json:"claimed"`
	Fee     string `json:"fee"`
	Net     string `json:"net"`
}

type claimResultJSON struct {
	ClaimCount    string `json:"claimCount"`
	Deliverable   string `json:"deliverable"`
	DepositRefund string `json:"depositRefund"`
	CostRefund    string `json:"costRefund"`
}

type refundResultJSON struct {
	DepositReturned    string `json:"depositReturned"`
	DeliverableSurplus string `json:"deliverableSurplus"`
}

func formatFutureJSON(f *futures.Future) futuresJSON {
	return futuresJSON{
		ID:                  f.ID,
		Owner:               crypto.NewAddress(crypto.FutPrefix, f.Owner[:]).String(),
		Deliverable:         f.Deliverable,
		DeliverableQuantity: f.DeliverableQuantity.String(),
		TotalSupply:         f.TotalSupply.String(),
		PayToken:            f.PayToken,
		Price:               f.Price.String(),
		SecurityDeposit:     f.SecurityDeposit.String(),
		FeeRate:             f.FeeRate,
		StartTime:           f.StartTime,
		StartDeliveryTime:   f.StartDeliveryTime,
		EndTime:             f.EndTime,
		CreatedAt:           f.CreatedAt,
		TotalDelivered:      f.TotalDelivered.String(),
		TotalClaimed:        f.TotalClaimed.String(),
		MintedCount:         f.MintedCount.String(),
		HasDeposit:          f.HasDeposit,
		Phase:               f.Phase(time.Now().Unix()),
	}
}

func parseBech32Address(addr string) ([20]byte, error) {
	trimmed := strings.TrimSpace(addr)
	if trimmed == "" {
		return [20]byte{}, fmt.Errorf("address required")
	}
	decoded, err := crypto.DecodeAddress(trimmed)
	if err != nil {
		return [20]byte{}, err
	}
	var out [20]byte
	copy(out[:], decoded.Bytes())
	return out, nil
}

func parsePositiveBigInt(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("amount required")
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount")
	}
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	return amount, nil
}

func decodeSingleParam(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return fmt.Errorf("exactly one parameter object expected")
	}
	return json.Unmarshal(req.Params[0], out)
}

func writeFuturesError(w http.ResponseWriter, id interface{}, err error) {
	if err == nil {
		return
	}
	status := http.StatusInternalServerError
	code := codeFuturesInternal
	message := "internal_error"
	switch {
	case errors.Is(err, futures.ErrFutureNotFound):
		status = http.StatusNotFound
		code = codeFuturesNotFound
		message = "not_found"
	case errors.Is(err, futures.ErrUnauthorized):
		status = http.StatusForbidden
		code = codeFuturesForbidden
		message = "forbidden"
	case errors.Is(err, futures.ErrInvalidAddress),
		errors.Is(err, futures.ErrInvalidToken),
		errors.Is(err, futures.ErrInvalidFutureTime):
		status = http.StatusBadRequest
		code = codeFuturesInvalidParams
		message = "invalid_params"
	case errors.Is(err, futures.ErrFutureNotActive),
		errors.Is(err, futures.ErrDepositNotPaid),
		errors.Is(err, futures.ErrDepositAlreadyPaid),
		errors.Is(err, futures.ErrInsufficientFuture),
		errors.Is(err, futures.ErrMintingNotEnoughPayToken),
		errors.Is(err, futures.ErrInvalidFutureClaim),
		errors.Is(err, futures.ErrTransferFailed),
		errors.Is(err, common.ErrModulePaused):
		status = http.StatusConflict
		code = codeFuturesConflict
		message = "conflict"
	}
	writeError(w, status, id, code, message, err.Error())
}

func (s *Server) handleFuturesCreate(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params futuresCreateParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeFuturesInvalidParams, "invalid_params", err.Error())
		return
	}
	owner, err := parseBech32Address(params.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeFuturesInvalidParams, "invalid_params", err.Error())
		return
	}
	deliverableQuantity, err := parsePositiveBigInt(params.DeliverableQuantity)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeFuturesInvalidParams, "invalid_params", err.Error())
		return
	}
	totalSupply, err := parsePositiveBigInt(params.TotalSupply)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeFuturesInvalidParams, "invalid_params", err.Error())
		return
	}
	price, err := parsePositiveBigInt(params.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeFuturesInvalidParams, "invalid_params", err.Error())
		return
	}
	securityDeposit, err := parsePositiveBigInt(params.SecurityDeposit)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeFuturesInvalidParams, "invalid_params", err.Error())
		return
	}
	future, err := s.node.FuturesCreate(owner, futures.CreateParams{
		Deliverable:         params.Deliverable,
		DeliverableQuantity: deliverableQuantity,
		TotalSupply:         totalSupply,
		PayToken:            params.PayToken,
		Price:               price,
		SecurityDeposit:     securityDeposit,
		StartTime:           params.StartTime,
		StartDeliveryTime:   params.StartDeliveryTime,
		EndTime:             params.EndTime,
	})
	if err != nil {
		writeFuturesError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatFutureJSON(future))
}

func (s *Server) handleFuturesGet(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params futuresIDParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeFuturesInvalidParams, "invalid_params", err.Error())
		return
	}
	future, err := s.node.FuturesGet(params.ID)
	if err != nil {
		writeFuturesError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatFutureJSON(future))
}

func (s *Server) handleFuturesDeposit(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params futuresActorParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeFuturesInvalidParams, "invalid_params", err.Error())
		return
	}
	from, err := parseBech32Address(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeFuturesInvalidParams, "invalid_params", err.Error())
		return
	}
	if err := s.node.FuturesDeposit(params.ID, from); err != nil {
		writeFuturesError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleFuturesMint(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params futuresQuantityParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeFuturesInvalidParams, "invalid_params", err.Error())
		return
	}
	buyer, err := parseBech32Address(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeFuturesInvalidParams, "invalid_params", err.Error())
		return
	}
	quantity, err := parsePositiveBigInt(params.Quantity)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeFuturesInvalidParams, "invalid_params", err.Error())
		return
	}
	if err := s.node.FuturesMint(params.ID, buyer, quantity); err != nil {
		writeFuturesError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleFuturesDeliver(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params futuresQuantityParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeFuturesInvalidParams, "invalid_params", err.Error())
		return
	}
	from, err := parseBech32Address(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeFuturesInvalidParams, "invalid_params", err.Error())
		return
	}
	quantity, err := parsePositiveBigInt(params.Quantity)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeFuturesInvalidParams, "invalid_params", err.Error())
		return
	}
	if err := s.node.FuturesDeliver(params.ID, from, quantity); err != nil {
		writeFuturesError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleFuturesDeliverClaim(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params futuresActorParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeFuturesInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseBech32Address(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeFuturesInvalidParams, "invalid_params", err.Error())
		return
	}
	proceeds, err := s.node.FuturesDeliverClaim(params.ID, caller)
	if err != nil {
		writeFuturesError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, deliveryProceedsJSON{
		Claimed: proceeds.Claimed.String(),
		Fee:     proceeds.Fee.String(),
		Net:     proceeds.Net.String(),
	})
}

func (s *Server) handleFuturesClaim(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params futuresQuantityParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeFuturesInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseBech32Address(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeFuturesInvalidParams, "invalid_params", err.Error())
		return
	}
	claimCount, err := parsePositiveBigInt(params.Quantity)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeFuturesInvalidParams, "invalid_params", err.Error())
		return
	}
	result, err := s.node.FuturesClaim(params.ID, caller, claimCount)
	if err != nil {
		writeFuturesError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, claimResultJSON{
		ClaimCount:    result.ClaimCount.String(),
		Deliverable:   result.Deliverable.String(),
		DepositRefund: result.DepositRefund.String(),
		CostRefund:    result.CostRefund.String(),
	})
}

func (s *Server) handleFuturesRefund(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params futuresActorParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeFuturesInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseBech32Address(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeFuturesInvalidParams, "invalid_params", err.Error())
		return
	}
	result, err := s.node.FuturesRefund(params.ID, caller)
	if err != nil {
		writeFuturesError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, refundResultJSON{
		DepositReturned:    result.DepositReturned.String(),
		DeliverableSurplus: result.DeliverableSurplus.String(),
	})
}

func (s *Server) handleFuturesSetFeeRate(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params futuresFeeRateParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeFuturesInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseBech32Address(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeFuturesInvalidParams, "invalid_params", err.Error())
		return
	}
	if params.FeeRate > 100 {
		writeError(w, http.StatusBadRequest, req.ID, codeFuturesInvalidParams, "invalid_params", "feeRate must be <= 100")
		return
	}
	if err := s.node.FuturesSetFeeRate(caller, params.FeeRate); err != nil {
		writeFuturesError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleFuturesSetCollector(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params futuresCollectorParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeFuturesInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseBech32Address(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeFuturesInvalidParams, "invalid_params", err.Error())
		return
	}
	collector, err := parseBech32Address(params.Collector)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeFuturesInvalidParams, "invalid_params", err.Error())
		return
	}
	if err := s.node.FuturesSetCollector(caller, collector); err != nil {
		writeFuturesError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleFuturesClaimBalance(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params futuresBalanceParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeFuturesInvalidParams, "invalid_params", err.Error())
		return
	}
	holder, err := parseBech32Address(params.Holder)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeFuturesInvalidParams, "invalid_params", err.Error())
		return
	}
	balance, err := s.node.FuturesClaimBalance(holder, params.ID)
	if err != nil {
		writeFuturesError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"balance": balance.String()})
}

func (s *Server) handleFuturesEvents(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	params := futuresEventsParams{}
	if len(req.Params) == 1 {
		if err := json.Unmarshal(req.Params[0], &params); err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeFuturesInvalidParams, "invalid_params", err.Error())
			return
		}
	}
	writeResult(w, req.ID, s.node.Events(params.Limit))
}

func (s *Server) handleGetBalance(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params balanceParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeFuturesInvalidParams, "invalid_params", err.Error())
		return
	}
	addr, err := parseBech32Address(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeFuturesInvalidParams, "invalid_params", err.Error())
		return
	}
	balance, err := s.node.GetBalance(addr, params.Token)
	if err != nil {
		writeFuturesError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{
		"address": params.Address,
		"token":   strings.ToUpper(strings.TrimSpace(params.Token)),
		"balance": balance.String(),
	})
}
