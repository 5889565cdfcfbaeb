package rpc

import (
	"encoding/json"
	"fmt"
	"math/big"

	"synthd/crypto"
)

func decodeParams(req *RPCRequest, out interface{}) *RPCError {
	if len(req.Params) != 1 {
		return &RPCError{Code: codeInvalidParams, Message: "expected exactly one params object"}
	}
	if err := json.Unmarshal(req.Params[0], out); err != nil {
		return &RPCError{Code: codeInvalidParams, Message: "invalid params", Data: err.Error()}
	}
	return nil
}

func parseAddress(field, value string) (crypto.Address, *RPCError) {
	addr, err := crypto.DecodeAddress(value)
	if err != nil {
		return crypto.Address{}, &RPCError{Code: codeInvalidParams, Message: fmt.Sprintf("invalid %s address", field), Data: err.Error()}
	}
	return addr, nil
}

func parseAmount(field, value string) (*big.Int, *RPCError) {
	amount, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, &RPCError{Code: codeInvalidParams, Message: fmt.Sprintf("invalid %s amount", field), Data: value}
	}
	return amount, nil
}

type depositParams struct {
	Account string `json:"account"`
	Asset   string `json:"asset"`
	Amount  string `json:"amount"`
}

func (s *Server) handleDeposit(req *RPCRequest) (interface{}, *RPCError) {
	var params depositParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	account, rpcErr := parseAddress("account", params.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}
	asset, rpcErr := parseAddress("asset", params.Asset)
	if rpcErr != nil {
		return nil, rpcErr
	}
	amount, rpcErr := parseAmount("amount", params.Amount)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.engine.DepositCollateral(account, asset, amount); err != nil {
		return nil, engineError(err)
	}
	return map[string]string{"status": "ok"}, nil
}

type mintParams struct {
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

func (s *Server) handleMint(req *RPCRequest) (interface{}, *RPCError) {
	var params mintParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	account, rpcErr := parseAddress("account", params.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}
	amount, rpcErr := parseAmount("amount", params.Amount)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.engine.MintDebt(account, amount); err != nil {
		return nil, engineError(err)
	}
	return map[string]string{"status": "ok"}, nil
}

type depositAndMintParams struct {
	Account          string `json:"account"`
	Asset            string `json:"asset"`
	CollateralAmount string `json:"collateralAmount"`
	DebtAmount       string `json:"debtAmount"`
}

func (s *Server) handleDepositAndMint(req *RPCRequest) (interface{}, *RPCError) {
	var params depositAndMintParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	account, rpcErr := parseAddress("account", params.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}
	asset, rpcErr := parseAddress("asset", params.Asset)
	if rpcErr != nil {
		return nil, rpcErr
	}
	collateralAmount, rpcErr := parseAmount("collateralAmount", params.CollateralAmount)
	if rpcErr != nil {
		return nil, rpcErr
	}
	debtAmount, rpcErr := parseAmount("debtAmount", params.DebtAmount)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.engine.DepositAndMint(account, asset, collateralAmount, debtAmount); err != nil {
		return nil, engineError(err)
	}
	return map[string]string{"status": "ok"}, nil
}

func (s *Server) handleBurn(req *RPCRequest) (interface{}, *RPCError) {
	var params mintParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	account, rpcErr := parseAddress("account", params.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}
	amount, rpcErr := parseAmount("amount", params.Amount)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.engine.BurnDebt(account, amount); err != nil {
		return nil, engineError(err)
	}
	return map[string]string{"status": "ok"}, nil
}

func (s *Server) handleRedeem(req *RPCRequest) (interface{}, *RPCError) {
	var params depositParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	account, rpcErr := parseAddress("account", params.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}
	asset, rpcErr := parseAddress("asset", params.Asset)
	if rpcErr != nil {
		return nil, rpcErr
	}
	amount, rpcErr := parseAmount("amount", params.Amount)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.engine.RedeemCollateral(account, asset, amount); err != nil {
		return nil, engineError(err)
	}
	return map[string]string{"status": "ok"}, nil
}

func (s *Server) handleRedeemForBurn(req *RPCRequest) (interface{}, *RPCError) {
	var params depositAndMintParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	account, rpcErr := parseAddress("account", params.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}
	asset, rpcErr := parseAddress("asset", params.Asset)
	if rpcErr != nil {
		return nil, rpcErr
	}
	collateralAmount, rpcErr := parseAmount("collateralAmount", params.CollateralAmount)
	if rpcErr != nil {
		return nil, rpcErr
	}
	debtAmount, rpcErr := parseAmount("debtAmount", params.DebtAmount)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.engine.RedeemForBurn(account, asset, collateralAmount, debtAmount); err != nil {
		return nil, engineError(err)
	}
	return map[string]string{"status": "ok"}, nil
}

type liquidateParams struct {
	Liquidator  string `json:"liquidator"`
	Target      string `json:"target"`
	Asset       string `json:"asset"`
	DebtToCover string `json:"debtToCover"`
}

func (s *Server) handleLiquidate(req *RPCRequest) (interface{}, *RPCError) {
	var params liquidateParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	liquidator, rpcErr := parseAddress("liquidator", params.Liquidator)
	if rpcErr != nil {
		return nil, rpcErr
	}
	target, rpcErr := parseAddress("target", params.Target)
	if rpcErr != nil {
		return nil, rpcErr
	}
	asset, rpcErr := parseAddress("asset", params.Asset)
	if rpcErr != nil {
		return nil, rpcErr
	}
	debtToCover, rpcErr := parseAmount("debtToCover", params.DebtToCover)
	if rpcErr != nil {
		return nil, rpcErr
	}
	seized, err := s.engine.Liquidate(liquidator, target, asset, debtToCover)
	if err != nil {
		return nil, engineError(err)
	}
	return map[string]string{"status": "ok", "seized": seized.String()}, nil
}

type accountParams struct {
	Account string `json:"account"`
}

func (s *Server) handleHealthFactor(req *RPCRequest) (interface{}, *RPCError) {
	var params accountParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	account, rpcErr := parseAddress("account", params.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}
	health, err := s.engine.HealthFactor(account)
	if err != nil {
		return nil, engineError(err)
	}
	return map[string]string{"healthFactor": health.String()}, nil
}

func (s *Server) handleAccountInformation(req *RPCRequest) (interface{}, *RPCError) {
	var params accountParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	account, rpcErr := parseAddress("account", params.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}
	debt, collateralUsd, err := s.engine.AccountInformation(account)
	if err != nil {
		return nil, engineError(err)
	}
	return map[string]string{
		"debtMinted":    debt.String(),
		"collateralUsd": collateralUsd.String(),
	}, nil
}

type collateralBalanceParams struct {
	Account string `json:"account"`
	Asset   string `json:"asset"`
}

func (s *Server) handleCollateralBalance(req *RPCRequest) (interface{}, *RPCError) {
	var params collateralBalanceParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	account, rpcErr := parseAddress("account", params.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}
	asset, rpcErr := parseAddress("asset", params.Asset)
	if rpcErr != nil {
		return nil, rpcErr
	}
	balance, err := s.engine.CollateralBalanceOf(account, asset)
	if err != nil {
		return nil, engineError(err)
	}
	return map[string]string{"balance": balance.String()}, nil
}

type conversionParams struct {
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
}

func (s *Server) handleUsdValue(req *RPCRequest) (interface{}, *RPCError) {
	var params conversionParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	asset, rpcErr := parseAddress("asset", params.Asset)
	if rpcErr != nil {
		return nil, rpcErr
	}
	amount, rpcErr := parseAmount("amount", params.Amount)
	if rpcErr != nil {
		return nil, rpcErr
	}
	value, err := s.engine.UsdValue(asset, amount)
	if err != nil {
		return nil, engineError(err)
	}
	return map[string]string{"usdValue": value.String()}, nil
}

func (s *Server) handleAssetAmountFromUsd(req *RPCRequest) (interface{}, *RPCError) {
	var params conversionParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	asset, rpcErr := parseAddress("asset", params.Asset)
	if rpcErr != nil {
		return nil, rpcErr
	}
	amount, rpcErr := parseAmount("amount", params.Amount)
	if rpcErr != nil {
		return nil, rpcErr
	}
	value, err := s.engine.AssetAmountFromUsd(asset, amount)
	if err != nil {
		return nil, engineError(err)
	}
	return map[string]string{"assetAmount": value.String()}, nil
}

func (s *Server) handleApprovedAssets(req *RPCRequest) (interface{}, *RPCError) {
	assets := s.engine.Registry().ApprovedAssets()
	encoded := make([]string, 0, len(assets))
	for _, asset := range assets {
		encoded = append(encoded, asset.String())
	}
	return map[string][]string{"assets": encoded}, nil
}

func (s *Server) handleTokenBalance(req *RPCRequest) (interface{}, *RPCError) {
	var params accountParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	account, rpcErr := parseAddress("account", params.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}
	balance, err := s.ledger.BalanceOf(account)
	if err != nil {
		return nil, engineError(err)
	}
	return map[string]string{"balance": balance.String()}, nil
}

func (s *Server) handleTokenSupply(req *RPCRequest) (interface{}, *RPCError) {
	supply, err := s.ledger.TotalSupply()
	if err != nil {
		return nil, engineError(err)
	}
	return map[string]string{"totalSupply": supply.String()}, nil
}
