package artifact

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/nlpodyssey/gopickle/pickle"
	"github.com/nlpodyssey/gopickle/types"

	"github.com/atalyaalon/patents-topic-modeling/internal/vecindex"
)

// ReadPatentToIdx reads a pickled dict mapping patent number to embedding row.
// Keys may be pickled as strings or integers.
func ReadPatentToIdx(path string) (map[string]int, error) {
	obj, err := pickle.Load(path)
	if err != nil {
		return nil, fmt.Errorf("unpickling %s: %w", path, err)
	}

	dict, ok := obj.(*types.Dict)
	if !ok {
		return nil, fmt.Errorf("%s: expected a dict, got %T", path, obj)
	}

	out := make(map[string]int, dict.Len())
	for _, k := range dict.Keys() {
		v, _ := dict.Get(k)

		key, err := pickleString(k)
		if err != nil {
			return nil, fmt.Errorf("%s: key: %w", path, err)
		}
		row, err := pickleInt(v)
		if err != nil {
			return nil, fmt.Errorf("%s: value of %s: %w", path, key, err)
		}
		out[key] = row
	}
	return out, nil
}

func pickleString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	default:
		return "", fmt.Errorf("unsupported type %T", v)
	}
}

func pickleInt(v any) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

// LegacyIDs orders patent numbers by their embedding row.
// Rows without a patent number get the placeholder "#<row>".
func LegacyIDs(patentToIdx map[string]int, rows int) ([]string, error) {
	ids := make([]string, rows)
	// Sorted keys keep error messages stable.
	keys := make([]string, 0, len(patentToIdx))
	for k := range patentToIdx {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		row := patentToIdx[k]
		if row < 0 || row >= rows {
			return nil, fmt.Errorf("patent %s maps to row %d, outside 0..%d", k, row, rows-1)
		}
		if ids[row] != "" {
			return nil, fmt.Errorf("patents %s and %s share row %d", ids[row], k, row)
		}
		ids[row] = k
	}
	for i := range ids {
		if ids[i] == "" {
			ids[i] = "#" + strconv.Itoa(i)
		}
	}
	return ids, nil
}

// ImportLegacy rebuilds a cosine similarity index from the legacy
// embeddings_normalized.npy and patent_to_idx.pkl in d.
// dims is only consulted when the npy array is one-dimensional.
func ImportLegacy(d Dir, dims int) (*vecindex.Index, error) {
	mapping, err := ReadPatentToIdx(d.Path(KeyPatentToIdx))
	if err != nil {
		return nil, err
	}

	vectors, err := ReadEmbeddings(d.Path(KeyEmbeddings), dims)
	if err != nil {
		return nil, fmt.Errorf("reading legacy embeddings: %w", err)
	}

	ids, err := LegacyIDs(mapping, len(vectors))
	if err != nil {
		return nil, err
	}

	return vecindex.Build(ids, vectors, vecindex.MetricCosine)
}
