package dom

import "sort"

// FriendOptions controls friend-cycle computation.
type FriendOptions struct {
	// MaxAncestorDistance bounds how far up two text nodes may share an
	// ancestor to count as friends.
	MaxAncestorDistance int

	// MaxFriends truncates each node's friend set to the closest N by
	// DeepIndex distance.
	MaxFriends int

	// OnlyVariableText narrows candidates to text nodes marked variable
	// across pages of the same site.
	OnlyVariableText bool
}

// DefaultFriendOptions mirror the SimpDOM setup.
func DefaultFriendOptions() FriendOptions {
	return FriendOptions{MaxAncestorDistance: 5, MaxFriends: 10}
}

// ComputeFriendCycles finds friends and a partner for each candidate text
// node. Two candidates are friends when they share an ancestor within
// MaxAncestorDistance. A candidate's partner is the other member of an
// ancestor's candidate set of exactly two; ancestors are visited nearest to
// farthest and a later (farther) qualifying ancestor overwrites the partner.
func (t *Tree) ComputeFriendCycles(opts FriendOptions) {
	var candidates []*Node
	for _, n := range t.Nodes {
		if !n.IsText() {
			continue
		}
		if opts.OnlyVariableText && !n.IsVariableText {
			continue
		}
		candidates = append(candidates, n)
	}

	descendants := make(map[*Node][]*Node)
	for _, node := range candidates {
		for _, ancestor := range node.Ancestors(opts.MaxAncestorDistance) {
			descendants[ancestor] = append(descendants[ancestor], node)
		}
	}

	for _, node := range candidates {
		ancestors := node.Ancestors(opts.MaxAncestorDistance)
		friendSet := make(map[*Node]bool)
		for _, ancestor := range ancestors {
			desc := descendants[ancestor]
			if len(desc) == 2 {
				if desc[0] == node {
					node.Partner = desc[1]
				} else {
					node.Partner = desc[0]
				}
			}
			for _, d := range desc {
				friendSet[d] = true
			}
		}

		// The node itself is a descendant of its own ancestors but must not
		// be its own friend.
		delete(friendSet, node)

		friends := make([]*Node, 0, len(friendSet))
		for f := range friendSet {
			friends = append(friends, f)
		}

		if len(friends) > opts.MaxFriends {
			target := node
			sort.Slice(friends, func(i, j int) bool {
				di, dj := friends[i].DistanceTo(target), friends[j].DistanceTo(target)
				if di != dj {
					return di < dj
				}
				return friends[i].DeepIndex < friends[j].DeepIndex
			})
			friends = friends[:opts.MaxFriends]
		}

		sort.Slice(friends, func(i, j int) bool {
			return friends[i].DeepIndex < friends[j].DeepIndex
		})
		node.Friends = friends
	}

	t.FriendCyclesComputed = true
}
