package rpc

import (
	"bytes"
	"encoding/hex"
	"encoding/json"

	"github.com/botho-project/botho/botmsg"
	"github.com/botho-project/botho/botutil"
	"github.com/botho-project/botho/clustertag"
	"github.com/botho-project/botho/feecurve"
)

func parseParams(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func parseHash(s string) (botmsg.Hash, error) {
	var h botmsg.Hash
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, err
	}
	if len(b) != botmsg.HashSize {
		return h, newError(ErrCodeInvalidParams, "hash must be 32 bytes")
	}
	copy(h[:], b)
	return h, nil
}

// --- node_getStatus ---------------------------------------------------

type nodeStatusResult struct {
	Network        string `json:"network"`
	Height         uint64 `json:"height"`
	TipHash        string `json:"tipHash"`
	Synced         bool   `json:"synced"`
	MempoolSize    int    `json:"mempoolSize"`
	UptimeSeconds  int64  `json:"uptimeSeconds"`
	ProtocolVersion string `json:"protocolVersion"`
}

func handleNodeGetStatus(s *Server, params json.RawMessage) (interface{}, error) {
	cs, _, err := s.Ledger.ChainState()
	if err != nil {
		return nil, err
	}
	return nodeStatusResult{
		Network:         s.Params.Name,
		Height:          cs.Height,
		TipHash:         cs.TipHash.String(),
		Synced:          true, // no sync-manager state in scope; a single node is its own tip
		MempoolSize:     s.Mempool.Len(),
		UptimeSeconds:   int64(timeSinceSeconds(s.StartTime)),
		ProtocolVersion: protocolVersionString(s.Params),
	}, nil
}

// --- getChainInfo -------------------------------------------------------

type chainInfoResult struct {
	Network         string `json:"network"`
	Height          uint64 `json:"height"`
	TipHash         string `json:"tipHash"`
	TipTimestamp    int64  `json:"tipTimestamp"`
	Difficulty      uint32 `json:"difficulty"`
	EmissionEpoch   uint64 `json:"emissionEpoch"`
	CurrentReward   uint64 `json:"currentBlockReward"`
}

func handleGetChainInfo(s *Server, params json.RawMessage) (interface{}, error) {
	cs, _, err := s.Ledger.ChainState()
	if err != nil {
		return nil, err
	}
	return chainInfoResult{
		Network:       s.Params.Name,
		Height:        cs.Height,
		TipHash:       cs.TipHash.String(),
		TipTimestamp:  cs.TipTimestamp,
		Difficulty:    cs.Difficulty,
		EmissionEpoch: cs.EmissionEpoch,
		CurrentReward: cs.CurrentBlockReward,
	}, nil
}

// --- getSupplyInfo --------------------------------------------------------

type supplyInfoResult struct {
	TotalMined      uint64  `json:"totalMined"`
	TotalFeesBurned uint64  `json:"totalFeesBurned"`
	CirculatingSupply uint64 `json:"circulatingSupply"`
	TailEmission    bool    `json:"tailEmission"`
	TailReward      *uint64 `json:"tailReward,omitempty"`
}

func handleGetSupplyInfo(s *Server, params json.RawMessage) (interface{}, error) {
	cs, _, err := s.Ledger.ChainState()
	if err != nil {
		return nil, err
	}
	result := supplyInfoResult{
		TotalMined:        cs.TotalMined,
		TotalFeesBurned:   cs.TotalFeesBurned,
		CirculatingSupply: cs.TotalMined - cs.TotalFeesBurned,
	}
	if s.Controller != nil {
		result.TailEmission = s.Controller.InPhase2(cs.Height)
		result.TailReward = s.Controller.TailReward
	}
	return result, nil
}

// --- getBlockByHeight -----------------------------------------------------

type getBlockByHeightParams struct {
	Height uint64 `json:"height"`
}

func handleGetBlockByHeight(s *Server, params json.RawMessage) (interface{}, error) {
	var p getBlockByHeightParams
	if err := parseParams(params, &p); err != nil {
		return nil, newError(ErrCodeInvalidParams, "invalid params: "+err.Error())
	}
	block, err := s.Ledger.GetBlock(p.Height)
	if err != nil {
		return nil, newError(ErrCodeInvalidParams, "no block at that height")
	}
	return blockToWire(block)
}

// --- getMempoolInfo -------------------------------------------------------

type mempoolInfoResult struct {
	Size        int   `json:"size"`
	LastUpdated int64 `json:"lastUpdated"`
}

func handleGetMempoolInfo(s *Server, params json.RawMessage) (interface{}, error) {
	return mempoolInfoResult{
		Size:        s.Mempool.Len(),
		LastUpdated: s.Mempool.LastUpdated().Unix(),
	}, nil
}

// --- estimateFee ----------------------------------------------------------

type clusterContributionParam struct {
	ClusterID uint64 `json:"clusterId"`
	Weight    uint32 `json:"weight"`
}

type estimateFeeParams struct {
	BackgroundWeight uint32                      `json:"backgroundWeight"`
	Contributions    []clusterContributionParam `json:"contributions"`
	Basis            uint64                      `json:"basis"`
}

type estimateFeeResult struct {
	EffectiveRateBps float64 `json:"effectiveRateBps"`
	NominalFee       uint64  `json:"nominalFee"`
}

func handleEstimateFee(s *Server, params json.RawMessage) (interface{}, error) {
	var p estimateFeeParams
	if err := parseParams(params, &p); err != nil {
		return nil, newError(ErrCodeInvalidParams, "invalid params: "+err.Error())
	}
	contributions := make([]feecurve.ClusterContribution, 0, len(p.Contributions))
	for _, c := range p.Contributions {
		wealth, err := s.Ledger.ClusterWealth(clustertag.ClusterID(c.ClusterID))
		if err != nil {
			return nil, err
		}
		contributions = append(contributions, feecurve.ClusterContribution{
			ClusterID: clustertag.ClusterID(c.ClusterID),
			Weight:    clustertag.TagWeight(c.Weight),
			Wealth:    wealth,
		})
	}
	rate := s.Params.FeeCurve.EffectiveRateBps(clustertag.TagWeight(p.BackgroundWeight), contributions)
	fee := s.Params.FeeCurve.NominalFee(rate, p.Basis)
	return estimateFeeResult{EffectiveRateBps: rate, NominalFee: fee}, nil
}

// --- cluster_getWealth --------------------------------------------------

type clusterGetWealthParams struct {
	ClusterID uint64 `json:"clusterId"`
}

type clusterGetWealthResult struct {
	Wealth uint64 `json:"wealth"`
}

// handleClusterGetWealth exposes the same per-cluster wealth figure
// estimateFee reads internally, so a wallet computing its own fee preview
// client-side (txbuilder.DecoyPool.ClusterWealth) has an RPC method to call
// rather than needing to reimplement estimateFee's cluster loop.
func handleClusterGetWealth(s *Server, params json.RawMessage) (interface{}, error) {
	var p clusterGetWealthParams
	if err := parseParams(params, &p); err != nil {
		return nil, newError(ErrCodeInvalidParams, "invalid params: "+err.Error())
	}
	wealth, err := s.Ledger.ClusterWealth(clustertag.ClusterID(p.ClusterID))
	if err != nil {
		return nil, err
	}
	return clusterGetWealthResult{Wealth: wealth}, nil
}

// --- chain_getOutputs -------------------------------------------------------

type chainGetOutputsParams struct {
	From uint64 `json:"from"`
	To   uint64 `json:"to"`
}

type outputEntry struct {
	TxHash      string `json:"txHash"`
	OutputIndex uint32 `json:"outputIndex"`
	Amount      uint64 `json:"amount"`
	TargetKey   string `json:"targetKey"`
	PublicKey   string `json:"publicKey"`
	CreatedAt   uint64 `json:"createdAtHeight"`
}

// handleChainGetOutputs scans blocks [from, to] and returns every output
// they created, the wallet-sync primitive spec.md §6 names. It walks the
// blocks table rather than the utxos table because the utxos table has no
// height-range index and (per spec §3) never loses an entry on spend, so
// scanning confirmed blocks is the only way to bound the result to a
// requested height window.
func handleChainGetOutputs(s *Server, params json.RawMessage) (interface{}, error) {
	var p chainGetOutputsParams
	if err := parseParams(params, &p); err != nil {
		return nil, newError(ErrCodeInvalidParams, "invalid params: "+err.Error())
	}
	if p.To < p.From {
		return nil, newError(ErrCodeInvalidParams, "to must be >= from")
	}

	var entries []outputEntry
	for h := p.From; h <= p.To; h++ {
		block, err := s.Ledger.GetBlock(h)
		if err != nil {
			break // past the current tip; stop rather than error on an open-ended range
		}
		for _, tx := range block.AllTransactions() {
			txHash, err := tx.Hash()
			if err != nil {
				return nil, err
			}
			for idx, out := range tx.Outputs {
				entries = append(entries, outputEntry{
					TxHash:      txHash.String(),
					OutputIndex: uint32(idx),
					Amount:      out.Amount,
					TargetKey:   hex.EncodeToString(out.TargetKey[:]),
					PublicKey:   hex.EncodeToString(out.PublicKey[:]),
					CreatedAt:   h,
				})
			}
		}
	}
	return entries, nil
}

// --- tx_submit --------------------------------------------------------------

type txSubmitParams struct {
	Hex string `json:"hex"`
}

type txSubmitResult struct {
	Hash string `json:"hash"`
}

func handleTxSubmit(s *Server, params json.RawMessage) (interface{}, error) {
	var p txSubmitParams
	if err := parseParams(params, &p); err != nil {
		return nil, newError(ErrCodeInvalidParams, "invalid params: "+err.Error())
	}
	raw, err := hex.DecodeString(p.Hex)
	if err != nil {
		return nil, newError(ErrCodeInvalidParams, "invalid hex: "+err.Error())
	}
	tx, err := botmsg.DecodeTransaction(bytes.NewReader(raw))
	if err != nil {
		return nil, newError(ErrCodeInvalidParams, "malformed transaction: "+err.Error())
	}
	if err := s.Mempool.Accept(tx); err != nil {
		return nil, newError(ErrCodeServer, "rejected: "+err.Error())
	}
	hash, err := tx.Hash()
	if err != nil {
		return nil, err
	}
	return txSubmitResult{Hash: hash.String()}, nil
}

// --- tx_get / tx_getStatus --------------------------------------------------

type txHashParams struct {
	Hash string `json:"hash"`
}

type txResult struct {
	Hash            string `json:"hash"`
	Fee             uint64 `json:"fee"`
	TombstoneBlock  uint64 `json:"tombstoneBlock"`
	InputCount      int    `json:"inputCount"`
	OutputCount     int    `json:"outputCount"`
}

func txToResult(hash botmsg.Hash, tx *botmsg.Transaction) txResult {
	return txResult{
		Hash:           hash.String(),
		Fee:            tx.Fee,
		TombstoneBlock: tx.TombstoneBlock,
		InputCount:     len(tx.Inputs),
		OutputCount:    len(tx.Outputs),
	}
}

func handleTxGet(s *Server, params json.RawMessage) (interface{}, error) {
	var p txHashParams
	if err := parseParams(params, &p); err != nil {
		return nil, newError(ErrCodeInvalidParams, "invalid params: "+err.Error())
	}
	hash, err := parseHash(p.Hash)
	if err != nil {
		return nil, newError(ErrCodeInvalidParams, "invalid hash: "+err.Error())
	}
	if tx, ok := s.Mempool.Get(hash); ok {
		return txToResult(hash, tx), nil
	}
	loc, found, err := s.Ledger.TxIndex(hash)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, newError(ErrCodeInvalidParams, "unknown transaction")
	}
	block, err := s.Ledger.GetBlock(loc.Height)
	if err != nil {
		return nil, err
	}
	all := block.AllTransactions()
	if int(loc.Index) >= len(all) {
		return nil, newError(ErrCodeServer, "tx index out of range for its recorded block")
	}
	return txToResult(hash, all[loc.Index]), nil
}

type txStatusResult struct {
	Status        string `json:"status"` // "mempool", "confirmed", "unknown"
	Confirmations uint64 `json:"confirmations"`
	Height        uint64 `json:"height,omitempty"`
}

func handleTxGetStatus(s *Server, params json.RawMessage) (interface{}, error) {
	var p txHashParams
	if err := parseParams(params, &p); err != nil {
		return nil, newError(ErrCodeInvalidParams, "invalid params: "+err.Error())
	}
	hash, err := parseHash(p.Hash)
	if err != nil {
		return nil, newError(ErrCodeInvalidParams, "invalid hash: "+err.Error())
	}
	if s.Mempool.Has(hash) {
		return txStatusResult{Status: "mempool"}, nil
	}
	loc, found, err := s.Ledger.TxIndex(hash)
	if err != nil {
		return nil, err
	}
	if !found {
		return txStatusResult{Status: "unknown"}, nil
	}
	cs, _, err := s.Ledger.ChainState()
	if err != nil {
		return nil, err
	}
	confirmations := uint64(0)
	if cs.Height >= loc.Height {
		confirmations = cs.Height - loc.Height + 1
	}
	return txStatusResult{Status: "confirmed", Confirmations: confirmations, Height: loc.Height}, nil
}

// --- address_validate -------------------------------------------------------

type addressValidateParams struct {
	Address string `json:"address"`
}

type addressValidateResult struct {
	Valid bool   `json:"valid"`
	Kind  string `json:"kind,omitempty"`
}

func handleAddressValidate(s *Server, params json.RawMessage) (interface{}, error) {
	var p addressValidateParams
	if err := parseParams(params, &p); err != nil {
		return nil, newError(ErrCodeInvalidParams, "invalid params: "+err.Error())
	}
	versions := botutil.Versions{
		Classical:       s.Params.AddressVersions.Classical,
		QuantumExtended: s.Params.AddressVersions.QuantumExtended,
	}
	addr, err := botutil.Decode(p.Address, versions)
	if err != nil {
		return addressValidateResult{Valid: false}, nil
	}
	kind := "classical"
	if addr.Kind == botutil.QuantumExtended {
		kind = "quantum_extended"
	}
	return addressValidateResult{Valid: true, Kind: kind}, nil
}

// --- minting_getStatus -------------------------------------------------------

type mintingStatusResult struct {
	Height        uint64 `json:"height"`
	BlockReward   uint64 `json:"blockReward"`
	Difficulty    uint32 `json:"difficulty"`
	Phase         int    `json:"phase"` // 1 = halving, 2 = tail emission
	TailReward    *uint64 `json:"tailReward,omitempty"`
}

func handleMintingGetStatus(s *Server, params json.RawMessage) (interface{}, error) {
	if s.Controller == nil {
		return nil, newError(ErrCodeServer, "monetary controller unavailable")
	}
	cs, _, err := s.Ledger.ChainState()
	if err != nil {
		return nil, err
	}
	phase := 1
	if s.Controller.InPhase2(cs.Height) {
		phase = 2
	}
	return mintingStatusResult{
		Height:      cs.Height,
		BlockReward: s.Controller.BlockReward(cs.Height),
		Difficulty:  cs.Difficulty,
		Phase:       phase,
		TailReward:  s.Controller.TailReward,
	}, nil
}

// --- network_getInfo / network_getPeers -------------------------------------

type networkInfoResult struct {
	ProtocolVersion string `json:"protocolVersion"`
	PeerCount       int    `json:"peerCount"`
	DefaultP2PPort  string `json:"defaultP2PPort"`
}

func handleNetworkGetInfo(s *Server, params json.RawMessage) (interface{}, error) {
	return networkInfoResult{
		ProtocolVersion: protocolVersionString(s.Params),
		PeerCount:       len(s.Peers.Peers()),
		DefaultP2PPort:  s.Params.DefaultP2PPort,
	}, nil
}

func handleNetworkGetPeers(s *Server, params json.RawMessage) (interface{}, error) {
	return s.Peers.Peers(), nil
}

// --- exchange_registerViewKey -----------------------------------------------

type registerViewKeyParams struct {
	ViewKey string `json:"viewKey"`
	Label   string `json:"label"`
}

type registerViewKeyResult struct {
	Registered bool `json:"registered"`
}

// handleExchangeRegisterViewKey records a view key for an out-of-scope
// scanning/exchange-deposit service to poll against; this server only
// validates shape and keeps the registration in memory for the process
// lifetime.
func handleExchangeRegisterViewKey(s *Server, params json.RawMessage) (interface{}, error) {
	var p registerViewKeyParams
	if err := parseParams(params, &p); err != nil {
		return nil, newError(ErrCodeInvalidParams, "invalid params: "+err.Error())
	}
	raw, err := hex.DecodeString(p.ViewKey)
	if err != nil || len(raw) != 32 {
		return nil, newError(ErrCodeInvalidParams, "viewKey must be 32 bytes hex")
	}

	s.mu.Lock()
	s.viewKeys = append(s.viewKeys, viewKeyRegistration{ViewKeyHex: p.ViewKey, Label: p.Label})
	s.mu.Unlock()

	return registerViewKeyResult{Registered: true}, nil
}
