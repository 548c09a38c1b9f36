package retention

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tree = map[string][]string{
	"cat":   {"sub", "f1"},
	"sub":   {"f2"},
	"f1":    {"r1", "r2"},
	"f2":    {"r3"},
	"other": {"r9"},
}

func children(id string) ([]string, error) { return tree[id], nil }

func TestWalk_BreadthFirst(t *testing.T) {
	var order []string
	err := Walk("cat", children, func(id string) (bool, error) {
		order = append(order, id)
		return true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"cat", "sub", "f1", "f2", "r1", "r2", "r3"}, order)
}

func TestWalk_SkipSubtree(t *testing.T) {
	var order []string
	err := Walk("cat", children, func(id string) (bool, error) {
		order = append(order, id)
		return id != "sub", nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"cat", "sub", "f1", "r1", "r2"}, order)
}

func TestWalk_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	visited := 0
	err := Walk("cat", children, func(id string) (bool, error) {
		visited++
		if id == "f1" {
			return false, boom
		}
		return true, nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, visited)
}

func TestNearest(t *testing.T) {
	values := map[string]int{"cat": 1, "root": 2}
	lookup := func(id string) (int, bool, error) {
		v, ok := values[id]
		return v, ok, nil
	}

	v, src, err := Nearest([]string{"rec", "folder", "cat", "root"}, lookup)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.Equal(t, "cat", src)

	values["rec"] = 0
	v, src, err = Nearest([]string{"rec", "folder", "cat", "root"}, lookup)
	require.NoError(t, err)
	assert.Equal(t, 0, v, "explicit zero value at the node wins")
	assert.Equal(t, "rec", src)

	_, src, err = Nearest([]string{"x"}, lookup)
	require.NoError(t, err)
	assert.Empty(t, src)
}
