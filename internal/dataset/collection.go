package dataset

// Split is one named subset of a collection's pages (train, val, test).
type Split struct {
	Name  string
	Pages []Page
}

// Collection groups the splits that share one label map. The map is built
// from the first split added; every later split's field names must already
// be present, otherwise label ids would drift between splits.
type Collection struct {
	Labels *LabelMap

	splits []*Split
}

// NewCollection creates an empty collection with no label map yet.
func NewCollection() *Collection {
	return &Collection{}
}

// AddSplit registers a split. The first split builds the label map; later
// splits are validated against it and a new field name is fatal.
func (c *Collection) AddSplit(name string, pages []Page) (*Split, error) {
	if c.Labels == nil {
		c.Labels = NewLabelMap()
		for _, p := range pages {
			for _, field := range p.Fields() {
				c.Labels.AddField(field)
			}
		}
	} else {
		for _, p := range pages {
			for _, field := range p.Fields() {
				if _, ok := c.Labels.ID(field); !ok {
					return nil, &LabelMapMismatchError{
						Split: name,
						Page:  p.Identifier(),
						Field: field,
					}
				}
			}
		}
	}

	split := &Split{Name: name, Pages: pages}
	c.splits = append(c.splits, split)
	return split, nil
}

// Split returns a registered split by name, or nil.
func (c *Collection) Split(name string) *Split {
	for _, s := range c.splits {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Splits returns all registered splits in registration order.
func (c *Collection) Splits() []*Split {
	return c.splits
}
