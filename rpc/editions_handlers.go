package rpc

import (
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/rarible/eclipse-program-library/crypto"
	"github.com/rarible/eclipse-program-library/native/editions"
	"github.com/rarible/eclipse-program-library/native/editionscontrols"
)

type recipientShareParam struct {
	Address string `json:"address"`
	Share   uint8  `json:"share"`
}

type royaltyParam struct {
	BasisPoints uint32                `json:"basisPoints"`
	Recipients  []recipientShareParam `json:"recipients"`
}

type platformFeeParam struct {
	Value      uint64                `json:"value"`
	IsFlat     bool                  `json:"isFlat"`
	Recipients []recipientShareParam `json:"recipients"`
}

type metadataParam struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type deployParams struct {
	Caller            string           `json:"caller"`
	Symbol            string           `json:"symbol"`
	CollectionName    string           `json:"collectionName"`
	CollectionURI     string           `json:"collectionUri"`
	ItemName          string           `json:"itemName"`
	ItemURI           string           `json:"itemUri"`
	MaxNumberOfTokens uint64           `json:"maxNumberOfTokens"`
	MaxMintsPerWallet uint64           `json:"maxMintsPerWallet"`
	Treasury          string           `json:"treasury"`
	Cosigner          string           `json:"cosigner,omitempty"`
	FeeAdmin          string           `json:"feeAdmin,omitempty"`
	Royalties         royaltyParam     `json:"royalties"`
	PlatformFee       platformFeeParam `json:"platformFee"`
	ExtraMeta         []metadataParam  `json:"extraMeta,omitempty"`
}

type addPhaseParams struct {
	Caller            string `json:"caller"`
	Symbol            string `json:"symbol"`
	PriceAmount       uint64 `json:"priceAmount"`
	PriceToken        string `json:"priceToken"`
	StartTime         uint64 `json:"startTime"`
	EndTime           uint64 `json:"endTime"`
	MaxMintsPerWallet uint64 `json:"maxMintsPerWallet"`
	MaxMintsTotal     uint64 `json:"maxMintsTotal"`
	MerkleRoot        string `json:"merkleRoot,omitempty"`
}

type mintParams struct {
	Symbol             string   `json:"symbol"`
	PhaseIndex         uint32   `json:"phaseIndex"`
	Minter             string   `json:"minter"`
	Signer             string   `json:"signer,omitempty"`
	AllowlistPrice     uint64   `json:"allowlistPrice,omitempty"`
	AllowlistMaxClaims uint64   `json:"allowlistMaxClaims,omitempty"`
	MerkleProof        []string `json:"merkleProof,omitempty"`
}

type updateRoyaltiesParams struct {
	Caller    string       `json:"caller"`
	Symbol    string       `json:"symbol"`
	Royalties royaltyParam `json:"royalties"`
}

type updatePlatformFeeParams struct {
	Caller      string           `json:"caller"`
	Symbol      string           `json:"symbol"`
	PlatformFee platformFeeParam `json:"platformFee"`
}

type symbolParams struct {
	Symbol string `json:"symbol"`
}

type minterStatsParams struct {
	Symbol     string  `json:"symbol"`
	Wallet     string  `json:"wallet"`
	PhaseIndex *uint32 `json:"phaseIndex,omitempty"`
}

type phaseResult struct {
	PriceAmount       uint64 `json:"priceAmount"`
	PriceToken        string `json:"priceToken"`
	StartTime         uint64 `json:"startTime"`
	EndTime           uint64 `json:"endTime"`
	MaxMintsPerWallet uint64 `json:"maxMintsPerWallet"`
	MaxMintsTotal     uint64 `json:"maxMintsTotal"`
	CurrentMints      uint64 `json:"currentMints"`
	MerkleRoot        string `json:"merkleRoot,omitempty"`
}

type controlsResult struct {
	Symbol            string        `json:"symbol"`
	Creator           string        `json:"creator"`
	Treasury          string        `json:"treasury"`
	MaxMintsPerWallet uint64        `json:"maxMintsPerWallet"`
	RoyaltyBps        uint32        `json:"royaltyBasisPoints"`
	Phases            []phaseResult `json:"phases"`
}

type deploymentResult struct {
	Symbol               string          `json:"symbol"`
	Creator              string          `json:"creator"`
	MaxNumberOfTokens    uint64          `json:"maxNumberOfTokens"`
	NumberOfTokensIssued uint64          `json:"numberOfTokensIssued"`
	CollectionName       string          `json:"collectionName"`
	CollectionURI        string          `json:"collectionUri"`
	ItemName             string          `json:"itemName"`
	ItemURI              string          `json:"itemUri"`
	ExtraMeta            []metadataParam `json:"extraMeta,omitempty"`
}

type mintResult struct {
	Symbol         string `json:"symbol"`
	PhaseIndex     uint32 `json:"phaseIndex"`
	Index          uint64 `json:"index"`
	Name           string `json:"name"`
	URI            string `json:"uri"`
	Minter         string `json:"minter"`
	PricePaid      string `json:"pricePaid"`
	PlatformFee    string `json:"platformFee"`
	RoyaltyTotal   string `json:"royaltyTotal"`
	TreasuryAmount string `json:"treasuryAmount"`
}

type minterStatsResult struct {
	Wallet    string `json:"wallet"`
	MintCount uint64 `json:"mintCount"`
}

func parseAddress(value string) ([20]byte, *RPCError) {
	var out [20]byte
	addr, err := crypto.DecodeAddress(strings.TrimSpace(value))
	if err != nil {
		return out, &RPCError{Code: codeInvalidParams, Message: "invalid address: " + err.Error()}
	}
	return addr.Array(), nil
}

func parseOptionalAddress(value string) ([20]byte, *RPCError) {
	var out [20]byte
	if strings.TrimSpace(value) == "" {
		return out, nil
	}
	return parseAddress(value)
}

func formatAddress(addr [20]byte) string {
	return crypto.MustNewAddress(crypto.EclipsePrefix, addr[:]).String()
}

func parseRecipients(in []recipientShareParam) ([]editionscontrols.RecipientShare, *RPCError) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]editionscontrols.RecipientShare, len(in))
	for i, recipient := range in {
		addr, rpcErr := parseAddress(recipient.Address)
		if rpcErr != nil {
			return nil, rpcErr
		}
		out[i] = editionscontrols.RecipientShare{Address: addr, Share: recipient.Share}
	}
	return out, nil
}

func parseProof(in []string) ([][32]byte, *RPCError) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([][32]byte, len(in))
	for i, step := range in {
		raw, err := hex.DecodeString(strings.TrimPrefix(step, "0x"))
		if err != nil || len(raw) != 32 {
			return nil, &RPCError{Code: codeInvalidParams, Message: "merkle proof steps must be 32-byte hex strings"}
		}
		copy(out[i][:], raw)
	}
	return out, nil
}

func formatPhases(phases []editionscontrols.Phase) []phaseResult {
	out := make([]phaseResult, len(phases))
	for i, phase := range phases {
		out[i] = phaseResult{
			PriceAmount:       phase.PriceAmount,
			PriceToken:        phase.PriceToken,
			StartTime:         phase.StartTime,
			EndTime:           phase.EndTime,
			MaxMintsPerWallet: phase.MaxMintsPerWallet,
			MaxMintsTotal:     phase.MaxMintsTotal,
			CurrentMints:      phase.CurrentMints,
		}
		if phase.Gated() {
			out[i].MerkleRoot = "0x" + hex.EncodeToString(phase.MerkleRoot)
		}
	}
	return out
}

func (s *Server) handleDeploy(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params deployParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, nil)
		return
	}
	creator, rpcErr := parseAddress(params.Caller)
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, nil)
		return
	}
	treasury, rpcErr := parseAddress(params.Treasury)
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, nil)
		return
	}
	cosigner, rpcErr := parseOptionalAddress(params.Cosigner)
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, nil)
		return
	}
	feeAdmin, rpcErr := parseOptionalAddress(params.FeeAdmin)
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, nil)
		return
	}
	royaltyRecipients, rpcErr := parseRecipients(params.Royalties.Recipients)
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, nil)
		return
	}
	feeRecipients, rpcErr := parseRecipients(params.PlatformFee.Recipients)
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, nil)
		return
	}
	extra := make([]editions.MetadataEntry, len(params.ExtraMeta))
	for i, entry := range params.ExtraMeta {
		extra[i] = editions.MetadataEntry{Field: entry.Field, Value: entry.Value}
	}
	controls, err := s.controls.Initialise(editionscontrols.InitialiseConfig{
		Symbol:            params.Symbol,
		Creator:           creator,
		Treasury:          treasury,
		MaxNumberOfTokens: params.MaxNumberOfTokens,
		MaxMintsPerWallet: params.MaxMintsPerWallet,
		CollectionName:    params.CollectionName,
		CollectionURI:     params.CollectionURI,
		ItemName:          params.ItemName,
		ItemURI:           params.ItemURI,
		Cosigner:          cosigner,
		FeeAdmin:          feeAdmin,
		Royalty: editionscontrols.RoyaltyConfig{
			BasisPoints: params.Royalties.BasisPoints,
			Recipients:  royaltyRecipients,
		},
		PlatformFee: editionscontrols.PlatformFeeConfig{
			Value:      params.PlatformFee.Value,
			IsFlat:     params.PlatformFee.IsFlat,
			Recipients: feeRecipients,
		},
		ExtraMetadata: extra,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, formatControls(controls))
}

func formatControls(controls *editionscontrols.Controls) controlsResult {
	return controlsResult{
		Symbol:            controls.Symbol,
		Creator:           formatAddress(controls.Creator),
		Treasury:          formatAddress(controls.Treasury),
		MaxMintsPerWallet: controls.MaxMintsPerWallet,
		RoyaltyBps:        controls.Royalty.BasisPoints,
		Phases:            formatPhases(controls.Phases),
	}
}

func (s *Server) handleAddPhase(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params addPhaseParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, nil)
		return
	}
	caller, rpcErr := parseAddress(params.Caller)
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, nil)
		return
	}
	var root []byte
	if strings.TrimSpace(params.MerkleRoot) != "" {
		raw, err := hex.DecodeString(strings.TrimPrefix(params.MerkleRoot, "0x"))
		if err != nil || len(raw) != 32 {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "merkleRoot must be a 32-byte hex string", nil)
			return
		}
		root = raw
	}
	index, err := s.controls.AddPhase(caller, params.Symbol, editionscontrols.PhaseConfig{
		PriceAmount:       params.PriceAmount,
		PriceToken:        params.PriceToken,
		StartTime:         params.StartTime,
		EndTime:           params.EndTime,
		MaxMintsPerWallet: params.MaxMintsPerWallet,
		MaxMintsTotal:     params.MaxMintsTotal,
		MerkleRoot:        root,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, map[string]uint32{"phaseIndex": index})
}

func (s *Server) handleMint(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	if !s.allowMint(r.RemoteAddr) {
		writeError(w, http.StatusTooManyRequests, req.ID, codeRateLimited, "mint rate limit exceeded", nil)
		return
	}
	var params mintParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, nil)
		return
	}
	minter, rpcErr := parseAddress(params.Minter)
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, nil)
		return
	}
	signer, rpcErr := parseOptionalAddress(params.Signer)
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, nil)
		return
	}
	proof, rpcErr := parseProof(params.MerkleProof)
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, nil)
		return
	}
	input := editionscontrols.MintInput{
		Symbol:     params.Symbol,
		PhaseIndex: params.PhaseIndex,
		Minter:     minter,
		Signer:     signer,
	}
	// A single-entry allowlist proves membership with an empty proof path, so
	// the claim is forwarded whenever any claim field was supplied, not just
	// when proof steps are present.
	if params.MerkleProof != nil || params.AllowlistPrice > 0 || params.AllowlistMaxClaims > 0 {
		input.Claim = &editionscontrols.AllowlistClaim{
			Price:     params.AllowlistPrice,
			MaxClaims: params.AllowlistMaxClaims,
			Proof:     proof,
		}
	}
	receipt, err := s.controls.MintWithControls(input)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, mintResult{
		Symbol:         receipt.Item.Symbol,
		PhaseIndex:     receipt.PhaseIndex,
		Index:          receipt.Item.Index,
		Name:           receipt.Item.Name,
		URI:            receipt.Item.URI,
		Minter:         formatAddress(receipt.Item.Minter),
		PricePaid:      receipt.PricePaid.String(),
		PlatformFee:    receipt.PlatformFee.String(),
		RoyaltyTotal:   receipt.RoyaltyTotal.String(),
		TreasuryAmount: receipt.TreasuryAmount.String(),
	})
}

func (s *Server) handleUpdateRoyalties(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params updateRoyaltiesParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, nil)
		return
	}
	caller, rpcErr := parseAddress(params.Caller)
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, nil)
		return
	}
	recipients, rpcErr := parseRecipients(params.Royalties.Recipients)
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, nil)
		return
	}
	err := s.controls.UpdateRoyalties(caller, params.Symbol, editionscontrols.RoyaltyConfig{
		BasisPoints: params.Royalties.BasisPoints,
		Recipients:  recipients,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleUpdatePlatformFee(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params updatePlatformFeeParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, nil)
		return
	}
	caller, rpcErr := parseAddress(params.Caller)
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, nil)
		return
	}
	recipients, rpcErr := parseRecipients(params.PlatformFee.Recipients)
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, nil)
		return
	}
	err := s.controls.UpdatePlatformFee(caller, params.Symbol, editionscontrols.PlatformFeeConfig{
		Value:      params.PlatformFee.Value,
		IsFlat:     params.PlatformFee.IsFlat,
		Recipients: recipients,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleGetDeployment(w http.ResponseWriter, req *RPCRequest) {
	var params symbolParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, nil)
		return
	}
	deployment, ok, err := s.ledger.Deployment(params.Symbol)
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, err.Error(), nil)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeServerError, "deployment not found", nil)
		return
	}
	metadata, err := s.ledger.Metadata(params.Symbol)
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, err.Error(), nil)
		return
	}
	extra := make([]metadataParam, len(metadata))
	for i, entry := range metadata {
		extra[i] = metadataParam{Field: entry.Field, Value: entry.Value}
	}
	writeResult(w, req.ID, deploymentResult{
		Symbol:               deployment.Symbol,
		Creator:              formatAddress(deployment.Creator),
		MaxNumberOfTokens:    deployment.MaxNumberOfTokens,
		NumberOfTokensIssued: deployment.NumberOfTokensIssued,
		CollectionName:       deployment.CollectionName,
		CollectionURI:        deployment.CollectionURI,
		ItemName:             deployment.ItemName,
		ItemURI:              deployment.ItemURI,
		ExtraMeta:            extra,
	})
}

func (s *Server) handleGetControls(w http.ResponseWriter, req *RPCRequest) {
	var params symbolParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, nil)
		return
	}
	controls, ok, err := s.controls.Controls(params.Symbol)
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, err.Error(), nil)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeServerError, "controls not found", nil)
		return
	}
	writeResult(w, req.ID, formatControls(controls))
}

func (s *Server) handleGetMinterStats(w http.ResponseWriter, req *RPCRequest) {
	var params minterStatsParams
	if rpcErr := decodeSingleParam(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, nil)
		return
	}
	wallet, rpcErr := parseAddress(params.Wallet)
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, nil)
		return
	}
	var stats *editionscontrols.MinterStats
	var err error
	if params.PhaseIndex != nil {
		stats, err = s.controls.MinterStatsPhase(params.Symbol, wallet, *params.PhaseIndex)
	} else {
		stats, err = s.controls.MinterStats(params.Symbol, wallet)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, minterStatsResult{
		Wallet:    formatAddress(stats.Wallet),
		MintCount: stats.MintCount,
	})
}
