package dataset

import (
	"fmt"
	"io"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/zstd"
)

// Sample is the persisted result of feature computation for one page:
// feature matrix, label vector, edge list and the classification-target
// mask. Written once per page unless invalidated; read-only afterward.
type Sample struct {
	// X is the node-by-feature matrix, node order matching Y.
	X [][]float64 `json:"x"`

	// Y holds one label id per node.
	Y []int `json:"y"`

	// Edges holds source and target dataset indices in two parallel
	// columns: all child edges first, then all parent edges.
	Edges [2][]int `json:"edges"`

	// TargetMask marks classification-target (text) nodes.
	TargetMask []bool `json:"target_mask,omitempty"`

	// Columns describes each feature column, for diagnosis.
	Columns []string `json:"columns,omitempty"`
}

// Encode serializes the sample as zstd-compressed JSON.
func (s *Sample) Encode() ([]byte, error) {
	raw, err := sonic.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode sample: %w", err)
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(raw, make([]byte, 0, len(raw)/2)), nil
}

// DecodeSample reads a sample previously produced by Encode.
func DecodeSample(data []byte) (*Sample, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	raw, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress sample: %w", err)
	}
	var s Sample
	if err := sonic.Unmarshal(raw, &s); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("decode sample: truncated data")
		}
		return nil, fmt.Errorf("decode sample: %w", err)
	}
	return &s, nil
}
