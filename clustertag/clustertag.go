// Package clustertag implements the cluster-tag algebra at the heart of
// Botho's progressive taxation model: a fixed-capacity, sorted vector
// attributing a UTXO's value to the minting clusters that funded it.
package clustertag

import (
	"encoding/binary"
	"sort"

	"github.com/pkg/errors"
)

const (
	// TagWeightScale is the fixed-point denominator representing 100% of
	// a UTXO's value attribution.
	TagWeightScale uint32 = 1_000_000

	// MaxTags is the maximum number of explicit cluster entries a vector
	// may carry. Anything beyond this is folded into the implicit
	// background weight.
	MaxTags = 8

	// BackgroundClusterID is the reserved id for the diffused, untraceable
	// residue. It is never stored explicitly in a vector.
	BackgroundClusterID ClusterID = 0
)

// ClusterID identifies a minting cluster. Zero is reserved for background.
type ClusterID uint64

// TagWeight is a fixed-point share of TagWeightScale.
type TagWeight uint32

// entry is one (cluster, weight) pair of a vector.
type entry struct {
	id     ClusterID
	weight TagWeight
}

// Vector is an ordered, deduplicated set of cluster attributions. The zero
// value is the empty (100% background) vector.
type Vector struct {
	entries []entry
}

// Empty returns the zero vector: 100% background, fully anonymous.
func Empty() Vector {
	return Vector{}
}

// WithFullAttribution returns a vector asserting 100% attribution to
// cluster c. It fails if c is the reserved background id.
func WithFullAttribution(c ClusterID) (Vector, error) {
	if c == BackgroundClusterID {
		return Vector{}, errors.New("clustertag: cannot assert full attribution to the background cluster")
	}
	return Vector{entries: []entry{{id: c, weight: TagWeight(TagWeightScale)}}}, nil
}

// Len returns the number of explicit cluster entries.
func (v Vector) Len() int {
	return len(v.entries)
}

// Entry is a read-only (ClusterID, TagWeight) pair returned by iteration.
type Entry struct {
	ClusterID ClusterID
	Weight    TagWeight
}

// Entries returns the vector's explicit entries, ascending by cluster id.
func (v Vector) Entries() []Entry {
	out := make([]Entry, len(v.entries))
	for i, e := range v.entries {
		out[i] = Entry{ClusterID: e.id, Weight: e.weight}
	}
	return out
}

// Background returns the implicit background weight:
// TagWeightScale - sum(explicit weights), clamped to zero.
func (v Vector) Background() TagWeight {
	total := v.TotalAttributed()
	if uint32(total) >= TagWeightScale {
		return 0
	}
	return TagWeight(TagWeightScale - uint32(total))
}

// TotalAttributed returns the sum of explicit entry weights.
func (v Vector) TotalAttributed() TagWeight {
	var sum uint64
	for _, e := range v.entries {
		sum += uint64(e.weight)
	}
	return TagWeight(sum)
}

// WeightOf returns the explicit weight attributed to cluster c (0 if
// absent).
func (v Vector) WeightOf(c ClusterID) TagWeight {
	for _, e := range v.entries {
		if e.id == c {
			return e.weight
		}
	}
	return 0
}

// WeightedInput is one input to MergeWeighted: a tag vector and the value
// (e.g. spent amount) it contributes.
type WeightedInput struct {
	Tags  Vector
	Value uint64
}

// MergeWeighted implements the central cluster-tag algebra (spec §4.1):
// value-weighted attribution merge, decay, cluster-0 drop, top-MaxTags
// truncation (ties broken by smaller cluster id), zero-entry drop, and a
// final ascending sort by cluster id.
//
// decayRate is expressed in the same fixed-point units as TagWeight: a
// decayRate of TagWeightScale/10 decays every accumulated weight by 10%.
func MergeWeighted(inputs []WeightedInput, decayRate uint32) Vector {
	var totalValue uint64
	for _, in := range inputs {
		totalValue += in.Value
	}
	if totalValue == 0 {
		return Vector{}
	}

	acc := make(map[ClusterID]uint64, MaxTags*2)
	for _, in := range inputs {
		if in.Value == 0 {
			continue
		}
		for _, e := range in.Tags.entries {
			// w * v_i / V, rounding toward zero.
			contribution := (uint64(e.weight) * in.Value) / totalValue
			if contribution == 0 {
				continue
			}
			acc[e.id] += contribution
		}
	}

	if decayRate > 0 {
		retain := uint64(TagWeightScale) - uint64(decayRate)
		for id, w := range acc {
			acc[id] = (w * retain) / uint64(TagWeightScale)
		}
	}

	// Cluster 0 (background) is never emitted explicitly; its decayed
	// weight simply isn't re-added, i.e. it flows back to the implicit
	// background by omission.
	delete(acc, BackgroundClusterID)

	entries := make([]entry, 0, len(acc))
	for id, w := range acc {
		if w == 0 {
			continue
		}
		entries = append(entries, entry{id: id, weight: TagWeight(w)})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].weight != entries[j].weight {
			return entries[i].weight > entries[j].weight
		}
		// Deterministic tie-break: smaller cluster id wins.
		return entries[i].id < entries[j].id
	})

	if len(entries) > MaxTags {
		entries = entries[:MaxTags]
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].id < entries[j].id
	})

	return Vector{entries: entries}
}

// Decay multiplies every weight by (TagWeightScale-rate)/TagWeightScale,
// dropping any entry that rounds to zero. rate is expressed in the same
// fixed-point units as TagWeight.
func (v Vector) Decay(rate uint32) Vector {
	if rate == 0 {
		return v
	}
	if rate >= TagWeightScale {
		return Vector{}
	}
	retain := uint64(TagWeightScale) - uint64(rate)
	out := make([]entry, 0, len(v.entries))
	for _, e := range v.entries {
		w := (uint64(e.weight) * retain) / uint64(TagWeightScale)
		if w == 0 {
			continue
		}
		out = append(out, entry{id: e.id, weight: TagWeight(w)})
	}
	return Vector{entries: out}
}

// Validate checks the structural invariants of spec §3: sorted, no
// duplicate ids, no zero-weight entries, sum <= TagWeightScale.
func (v Vector) Validate() error {
	if len(v.entries) > MaxTags {
		return errors.Errorf("clustertag: vector has %d entries, exceeds MaxTags=%d", len(v.entries), MaxTags)
	}
	var sum uint64
	for i, e := range v.entries {
		if e.weight == 0 {
			return errors.Errorf("clustertag: entry %d has zero weight", i)
		}
		if e.id == BackgroundClusterID {
			return errors.New("clustertag: explicit entry for background cluster 0 is forbidden")
		}
		if i > 0 && v.entries[i-1].id >= e.id {
			return errors.Errorf("clustertag: entries not strictly ascending at index %d", i)
		}
		sum += uint64(e.weight)
	}
	if sum > uint64(TagWeightScale) {
		return errors.Errorf("clustertag: total weight %d exceeds scale %d", sum, TagWeightScale)
	}
	return nil
}

// ClusterFactor derives the local (non-wealth-weighted) cluster factor in
// [1.0, 6.0] from the vector's total attributed weight, per spec §4.1.
func (v Vector) ClusterFactor() float64 {
	frac := float64(v.TotalAttributed()) / float64(TagWeightScale)
	return 1.0 + 5.0*frac
}

// MarshalBinary encodes the vector as: uint8 count, then count pairs of
// (uint64 ClusterID LE, uint32 TagWeight LE), ascending by id. This layout
// is consensus-critical (spec §4.1: "the sort order is the serialization
// order").
func (v Vector) MarshalBinary() ([]byte, error) {
	if len(v.entries) > 255 {
		return nil, errors.New("clustertag: too many entries to encode")
	}
	buf := make([]byte, 1+len(v.entries)*12)
	buf[0] = byte(len(v.entries))
	off := 1
	for _, e := range v.entries {
		binary.LittleEndian.PutUint64(buf[off:], uint64(e.id))
		binary.LittleEndian.PutUint32(buf[off+8:], uint32(e.weight))
		off += 12
	}
	return buf, nil
}

// UnmarshalBinary decodes the format written by MarshalBinary.
func (v *Vector) UnmarshalBinary(data []byte) error {
	if len(data) < 1 {
		return errors.New("clustertag: short buffer")
	}
	count := int(data[0])
	if count > MaxTags {
		return errors.Errorf("clustertag: encoded count %d exceeds MaxTags=%d", count, MaxTags)
	}
	want := 1 + count*12
	if len(data) < want {
		return errors.New("clustertag: truncated buffer")
	}
	entries := make([]entry, count)
	off := 1
	for i := 0; i < count; i++ {
		id := ClusterID(binary.LittleEndian.Uint64(data[off:]))
		w := TagWeight(binary.LittleEndian.Uint32(data[off+8:]))
		entries[i] = entry{id: id, weight: w}
		off += 12
	}
	result := Vector{entries: entries}
	if err := result.Validate(); err != nil {
		return err
	}
	*v = result
	return nil
}
