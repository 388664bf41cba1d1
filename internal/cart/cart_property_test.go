//go:build property

package cart

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestProperty_AddIsAdditive(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("adding the same product twice sums quantities", prop.ForAll(
		func(id int64, a, b int) bool {
			lines := Add(Add(nil, id, a), id, b)
			return len(lines) == 1 && lines[0].Quantity == a+b
		},
		gen.Int64Range(1, 1000),
		gen.IntRange(1, 100),
		gen.IntRange(1, 100),
	))

	properties.TestingRun(t)
}

func TestProperty_SetReplaces(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("set stores the last quantity", prop.ForAll(
		func(id int64, a, b int) bool {
			lines := Set(Add(nil, id, a), id, b)
			return len(lines) == 1 && Quantity(lines, id) == b
		},
		gen.Int64Range(1, 1000),
		gen.IntRange(1, 100),
		gen.IntRange(1, 100),
	))

	properties.TestingRun(t)
}

func TestProperty_ProductIDsStayUnique(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("no duplicate product ids after any sequence of adds and sets", prop.ForAll(
		func(ids []int64) bool {
			var lines []Line
			for i, id := range ids {
				if i%2 == 0 {
					lines = Add(lines, id, 1)
				} else {
					lines = Set(lines, id, 2)
				}
			}
			seen := make(map[int64]bool)
			for _, l := range lines {
				if seen[l.ProductID] {
					return false
				}
				seen[l.ProductID] = true
			}
			return true
		},
		gen.SliceOf(gen.Int64Range(1, 10)),
	))

	properties.TestingRun(t)
}
