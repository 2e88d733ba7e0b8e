package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelMapReservesZeroForUnlabeled(t *testing.T) {
	m := NewLabelMap()
	assert.Equal(t, 1, m.Len())

	id, ok := m.ID("")
	require.True(t, ok)
	assert.Equal(t, 0, id)

	field, ok := m.Field(0)
	require.True(t, ok)
	assert.Equal(t, "", field)
}

func TestLabelMapAddField(t *testing.T) {
	m := NewLabelMap()
	m.AddField("name")
	m.AddField("price")
	m.AddField("name")

	assert.Equal(t, 3, m.Len())
	id, ok := m.ID("name")
	require.True(t, ok)
	assert.Equal(t, 1, id)
	id, ok = m.ID("price")
	require.True(t, ok)
	assert.Equal(t, 2, id)

	_, ok = m.ID("unknown")
	assert.False(t, ok)
	_, ok = m.Field(9)
	assert.False(t, ok)
}

func TestLabelMapLabelOf(t *testing.T) {
	m := NewLabelMap()
	m.AddField("price")

	id, err := m.LabelOf(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, id)

	id, err = m.LabelOf([]string{"price"})
	require.NoError(t, err)
	assert.Equal(t, 1, id)

	_, err = m.LabelOf([]string{"nope"})
	require.Error(t, err)
}

func TestCollectionBuildsLabelMapFromFirstSplit(t *testing.T) {
	train := []Page{
		newFakePage("p1", "<html><body><p>a</p></body></html>", map[string]string{"name": "a"}),
		newFakePage("p2", "<html><body><p>b</p></body></html>", map[string]string{"price": "b"}),
	}
	c := NewCollection()
	split, err := c.AddSplit("train", train)
	require.NoError(t, err)
	assert.Equal(t, "train", split.Name)
	assert.Equal(t, 3, c.Labels.Len())

	assert.Same(t, split, c.Split("train"))
	assert.Nil(t, c.Split("nope"))
	assert.Len(t, c.Splits(), 1)
}

func TestCollectionRejectsNewFieldsInLaterSplits(t *testing.T) {
	train := []Page{
		newFakePage("p1", "<html><body><p>a</p></body></html>", map[string]string{"name": "a", "price": "x"}),
	}
	test := []Page{
		newFakePage("p2", "<html><body><p>b</p></body></html>", map[string]string{"shortDescription": "b"}),
	}

	c := NewCollection()
	_, err := c.AddSplit("train", train)
	require.NoError(t, err)

	_, err = c.AddSplit("test", test)
	var mismatch *LabelMapMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "test", mismatch.Split)
	assert.Equal(t, "shortDescription", mismatch.Field)
}
