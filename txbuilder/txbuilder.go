// Package txbuilder assembles signed Botho transactions: input selection,
// decoy-ring filling via package decoy, the single merged cluster-tag
// vector every output shares, change construction, fee computation against
// package feecurve, and the blueprint -> unsigned -> signed pipeline
// (spec.md §2 row 12). Grounded on the teacher's mining.go TxDesc/selection
// style and rpcclient-side transaction-construction helpers, restructured
// around narrow capability interfaces (MemoBuilder, RingSigner) rather than
// the trait objects of the source material, per Design Notes §9.
package txbuilder

import (
	"github.com/botho-project/botho/botmsg"
	"github.com/botho-project/botho/clustertag"
	"github.com/botho-project/botho/decoy"
	"github.com/botho-project/botho/feecurve"
	"github.com/botho-project/botho/ringsig"
	"github.com/pkg/errors"
)

// SpendableInput is one of the sender's own outputs eligible to fund a
// transaction: enough to derive its key image and sign a ring containing
// it.
type SpendableInput struct {
	UtxoId     botmsg.UtxoId
	PrivateKey *ringsig.PrivateScalar
	TargetKey  *ringsig.PublicPoint
	Amount     uint64
	Age        uint64
	Tags       clustertag.Vector
}

// Recipient is one payment destination within a blueprint.
type Recipient struct {
	Address ringsig.Subaddress
	Amount  uint64
}

// DecoyPool supplies ring-filling candidates for a spend and resolves a
// UtxoId to the on-chain output needed to place it in a ring (spec §4.5:
// decoy selection needs the full candidate pool's ages and cluster
// factors, not just their ids).
type DecoyPool interface {
	DecoyCandidates(real decoy.Candidate) ([]decoy.Candidate, error)
	Resolve(id botmsg.UtxoId) (botmsg.TxOut, error)
	ClusterWealth(c clustertag.ClusterID) (uint64, error)
}

// MemoBuilder narrow-interfaces memo construction so a blueprint can bind
// an application-defined memo to a recipient output without txbuilder
// depending on any concrete memo scheme (Design Notes §9: capability
// interfaces instead of trait objects).
type MemoBuilder interface {
	BuildMemo(r Recipient) (*[32]byte, error)
}

// RingSigner narrow-interfaces the signing step, so a hardware wallet or
// remote signer can stand in for ringsig.Sign's direct-private-key path.
type RingSigner interface {
	Sign(msg []byte, ring []*ringsig.PublicPoint, secretIndex int, input SpendableInput, keyImage *ringsig.PublicPoint) (*ringsig.Signature, error)
}

// directSigner invokes ringsig.Sign using the input's own in-memory
// private key, the ordinary hot-wallet path.
type directSigner struct{}

func (directSigner) Sign(msg []byte, ring []*ringsig.PublicPoint, secretIndex int, input SpendableInput, keyImage *ringsig.PublicPoint) (*ringsig.Signature, error) {
	return ringsig.Sign(msg, ring, secretIndex, input.PrivateKey, keyImage)
}

// DirectSigner returns a RingSigner that signs with SpendableInput's own
// private key in-process.
func DirectSigner() RingSigner { return directSigner{} }

// Config bounds transaction construction.
type Config struct {
	RingSize       int
	TagDecayRate   uint32 // fed to clustertag.MergeWeighted; 0 disables decay
	Decoy          decoy.Config
	FeeCurve       feecurve.Config
	TombstoneDelta uint64 // blocks beyond Height; 0 disables the tombstone
}

// DefaultConfig returns Botho's reference builder parameters.
func DefaultConfig() Config {
	return Config{
		RingSize: ringsig.DefaultRingSize,
		Decoy:    decoy.DefaultConfig(),
		FeeCurve: feecurve.DefaultConfig(),
	}
}

// Blueprint is the sender's unsigned spend request.
type Blueprint struct {
	Inputs        []SpendableInput
	Recipients    []Recipient
	ChangeAddress ringsig.Subaddress
	Height        uint64 // current chain height, stamped as CreatedAtHeight
}

var (
	// ErrNoInputs is returned when a blueprint selects no inputs.
	ErrNoInputs = errors.New("txbuilder: blueprint has no inputs")
	// ErrInsufficientFunds is returned when inputs cannot cover recipients
	// plus the required fee.
	ErrInsufficientFunds = errors.New("txbuilder: inputs do not cover recipients plus fee")
)

// Build runs the full blueprint -> unsigned -> signed pipeline: merges the
// inputs' cluster tags into the single vector every output will carry,
// fills a decoy ring per input, computes the progressive fee, constructs
// recipient and change outputs, and signs every input's ring.
func Build(bp Blueprint, pool DecoyPool, cfg Config, signer RingSigner, memos MemoBuilder, rng decoy.Stream) (*botmsg.Transaction, error) {
	if len(bp.Inputs) == 0 {
		return nil, ErrNoInputs
	}

	mergedTags := mergeInputTags(bp.Inputs, cfg.TagDecayRate)

	var totalIn, totalOut uint64
	for _, in := range bp.Inputs {
		totalIn += in.Amount
	}
	for _, r := range bp.Recipients {
		totalOut += r.Amount
	}

	fee, err := computeFee(pool, mergedTags, cfg.FeeCurve, totalOut)
	if err != nil {
		return nil, err
	}
	if totalIn < totalOut+fee {
		return nil, ErrInsufficientFunds
	}
	change := totalIn - totalOut - fee

	outputs := make([]botmsg.TxOut, 0, len(bp.Recipients)+1)
	for _, r := range bp.Recipients {
		out, err := buildOutput(r, mergedTags, memos)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, out)
	}
	if change > 0 {
		changeOut, err := buildOutput(Recipient{Address: bp.ChangeAddress, Amount: change}, mergedTags, nil)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, changeOut)
	}

	tombstone := uint64(0)
	if cfg.TombstoneDelta > 0 {
		tombstone = bp.Height + cfg.TombstoneDelta
	}

	inputs := make([]botmsg.TxIn, len(bp.Inputs))
	ringMembers := make([][]*ringsig.PublicPoint, len(bp.Inputs))
	secretIndexes := make([]int, len(bp.Inputs))
	keyImagePoints := make([]*ringsig.PublicPoint, len(bp.Inputs))
	for i, in := range bp.Inputs {
		ring, secretIndex, pubKeys, err := buildRing(in, pool, cfg, rng)
		if err != nil {
			return nil, errors.Wrapf(err, "txbuilder: building ring for input %d", i)
		}
		keyImage := ringsig.KeyImage(in.PrivateKey, in.TargetKey)
		inputs[i] = botmsg.TxIn{Ring: ring, KeyImage: hashFromPoint(keyImage)}
		ringMembers[i] = pubKeys
		secretIndexes[i] = secretIndex
		keyImagePoints[i] = keyImage
	}

	tx := &botmsg.Transaction{
		Inputs:          inputs,
		Outputs:         outputs,
		Fee:             fee,
		TombstoneBlock:  tombstone,
		CreatedAtHeight: bp.Height,
	}

	signingHash, err := tx.SigningHash()
	if err != nil {
		return nil, err
	}

	if signer == nil {
		signer = DirectSigner()
	}
	for i, in := range bp.Inputs {
		sig, err := signer.Sign(signingHash[:], ringMembers[i], secretIndexes[i], in, keyImagePoints[i])
		if err != nil {
			return nil, errors.Wrapf(err, "txbuilder: signing input %d", i)
		}
		tx.Inputs[i].Signature = sig.Encode()
	}

	return tx, nil
}

// mergeInputTags derives the single cluster-tag vector every output of
// this transaction will carry (Open Question decision, see DESIGN.md:
// ring signatures hide which input is the real spender, so validators
// read this vector back off any one output rather than the inputs
// themselves).
func mergeInputTags(inputs []SpendableInput, decayRate uint32) clustertag.Vector {
	weighted := make([]clustertag.WeightedInput, len(inputs))
	for i, in := range inputs {
		weighted[i] = clustertag.WeightedInput{Tags: in.Tags, Value: in.Amount}
	}
	return clustertag.MergeWeighted(weighted, decayRate)
}

// computeFee evaluates the progressive cluster-tax curve (spec §4.2) over
// mergedTags, pulling each explicit cluster's current global wealth from
// pool.
func computeFee(pool DecoyPool, tags clustertag.Vector, cfg feecurve.Config, basis uint64) (uint64, error) {
	entries := tags.Entries()
	contributions := make([]feecurve.ClusterContribution, 0, len(entries))
	for _, e := range entries {
		wealth, err := pool.ClusterWealth(e.ClusterID)
		if err != nil {
			return 0, err
		}
		contributions = append(contributions, feecurve.ClusterContribution{
			ClusterID: e.ClusterID,
			Weight:    e.Weight,
			Wealth:    wealth,
		})
	}
	rate := cfg.EffectiveRateBps(tags.Background(), contributions)
	return cfg.NominalFee(rate, basis), nil
}

// buildOutput derives a fresh stealth one-time key for r.Address and
// packages it as a TxOut carrying the transaction's shared cluster tags
// and an optional memo.
func buildOutput(r Recipient, tags clustertag.Vector, memos MemoBuilder) (botmsg.TxOut, error) {
	oneTime, _, err := ringsig.DeriveOneTimeKey(r.Address)
	if err != nil {
		return botmsg.TxOut{}, err
	}
	out := botmsg.TxOut{
		Amount:      r.Amount,
		TargetKey:   ringsig.EncodePoint(oneTime.TargetKey),
		PublicKey:   ringsig.EncodePoint(oneTime.TxPub),
		ClusterTags: tags,
	}
	if memos != nil {
		memo, err := memos.BuildMemo(r)
		if err != nil {
			return botmsg.TxOut{}, err
		}
		out.Memo = memo
	}
	return out, nil
}

// buildRing assembles a ring for in: the real UtxoId plus cfg.RingSize-1
// decoys chosen by package decoy's fee-inflation-aware OSPEAD sampler,
// real placed at a pseudorandom position in the final order.
func buildRing(in SpendableInput, pool DecoyPool, cfg Config, rng decoy.Stream) ([]botmsg.UtxoId, int, []*ringsig.PublicPoint, error) {
	real := decoy.Candidate{UtxoId: in.UtxoId, Age: in.Age, ClusterFactor: in.Tags.ClusterFactor()}
	candidatePool, err := pool.DecoyCandidates(real)
	if err != nil {
		return nil, 0, nil, err
	}

	decoyCfg := cfg.Decoy
	decoyCfg.RingSize = cfg.RingSize
	result, err := decoy.SelectDecoys(real, candidatePool, decoyCfg, rng)
	if err != nil {
		return nil, 0, nil, err
	}

	n := len(result.Decoys) + 1
	secretIndex := int(rng.Uint64() % uint64(n))
	ids := make([]botmsg.UtxoId, n)
	pubKeys := make([]*ringsig.PublicPoint, n)
	ids[secretIndex] = in.UtxoId
	pubKeys[secretIndex] = in.TargetKey

	di := 0
	for i := 0; i < n; i++ {
		if i == secretIndex {
			continue
		}
		d := result.Decoys[di]
		di++
		out, err := pool.Resolve(d.UtxoId)
		if err != nil {
			return nil, 0, nil, err
		}
		p, err := ringsig.ParsePoint(out.TargetKey[:])
		if err != nil {
			return nil, 0, nil, err
		}
		ids[i] = d.UtxoId
		pubKeys[i] = p
	}
	return ids, secretIndex, pubKeys, nil
}

func hashFromPoint(p *ringsig.PublicPoint) botmsg.Hash {
	return botmsg.Hash(ringsig.EncodePoint(p))
}
