package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
)

// ParamsFileName is the extraction-parameter document inside the data dir.
const ParamsFileName = "params.json"

// Params are the extraction parameters that must stay identical between the
// run that prepared a root context and every run that computes against it.
// They persist as JSON beside the data; environment configuration never
// overrides them.
type Params struct {
	// LabelKeys restricts extraction to these gold fields; empty means all
	// fields the dataset declares.
	LabelKeys []string `json:"label_keys"`

	// PropagateLabels expands each labeled node to its leaf descendants.
	PropagateLabels bool `json:"propagate_labels"`

	// ClassifyOnlyTextNodes restricts the target mask to text nodes.
	ClassifyOnlyTextNodes bool `json:"classify_only_text_nodes"`

	FriendCycles        bool `json:"friend_cycles"`
	MaxFriends          int  `json:"max_friends"`
	MaxAncestorDistance int  `json:"max_ancestor_distance"`

	VisualNeighbors  bool   `json:"visual_neighbors"`
	NNeighbors       int    `json:"n_neighbors"`
	NeighborDistance string `json:"neighbor_distance"`

	LoadVisuals  bool `json:"load_visuals"`
	RequireBoxes bool `json:"require_boxes"`

	CutoffWords      int `json:"cutoff_words"`
	CutoffWordLength int `json:"cutoff_word_length"`

	// Features names the feature set in computation order.
	Features []string `json:"features"`
}

// DefaultParams returns the standard extraction parameters.
func DefaultParams() Params {
	return Params{
		PropagateLabels:       true,
		ClassifyOnlyTextNodes: true,
		FriendCycles:          true,
		MaxFriends:            10,
		MaxAncestorDistance:   5,
		VisualNeighbors:       true,
		NNeighbors:            4,
		NeighborDistance:      "rect",
		LoadVisuals:           true,
		CutoffWords:           15,
		CutoffWordLength:      10,
		Features: []string{
			"depth",
			"is_leaf",
			"char_categories",
			"visuals",
			"word_identifiers",
			"char_identifiers",
		},
	}
}

// LoadParams reads the parameter document from dataDir, creating it with
// defaults on first use so the effective parameters are always on disk.
func LoadParams(dataDir string) (Params, error) {
	path := filepath.Join(dataDir, ParamsFileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		params := DefaultParams()
		if err := SaveParams(dataDir, params); err != nil {
			return Params{}, err
		}
		return params, nil
	}
	if err != nil {
		return Params{}, err
	}
	var params Params
	if err := sonic.Unmarshal(data, &params); err != nil {
		return Params{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return params, nil
}

// SaveParams writes the parameter document atomically.
func SaveParams(dataDir string, params Params) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}
	data, err := sonic.MarshalIndent(params, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(dataDir, ParamsFileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
