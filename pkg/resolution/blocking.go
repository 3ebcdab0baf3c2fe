package resolution

import (
	"sort"

	"github.com/restinspect/platform/pkg/common/models"
)

const zipBlockLen = 5

// BlockKey groups records sharing a zip prefix and a name initial.
type BlockKey struct {
	Zip     string
	Initial string
}

func KeyFor(r models.Restaurant) BlockKey {
	return BlockKey{Zip: prefix(r.Zip, zipBlockLen), Initial: prefix(r.Name, 1)}
}

type Blocks map[BlockKey][]models.Restaurant

// BuildBlocks partitions records by KeyFor. Members keep their input order.
func BuildBlocks(records []models.Restaurant) Blocks {
	blocks := make(Blocks)
	for _, r := range records {
		key := KeyFor(r)
		blocks[key] = append(blocks[key], r)
	}
	return blocks
}

// Keys returns block keys ordered by zip prefix then initial.
func (b Blocks) Keys() []BlockKey {
	keys := make([]BlockKey, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Zip != keys[j].Zip {
			return keys[i].Zip < keys[j].Zip
		}
		return keys[i].Initial < keys[j].Initial
	})
	return keys
}

func prefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
