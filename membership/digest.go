package membership

import (
	"github.com/twmb/murmur3"

	"github.com/maxpoletaev/rollcall/internal/generic"
)

// Digest returns a hash of the membership view that changes whenever a row is
// added, removed or changes its status. Heartbeats do not affect it. The order
// of rows does not matter.
func Digest(rows []Row) uint64 {
	entries := make([]string, len(rows))

	for i, row := range rows {
		entries[i] = row.Key().String() + "#" + row.Status.String()
	}

	generic.SortSlice(entries, false)

	h := murmur3.New64()
	for _, entry := range entries {
		_, _ = h.Write([]byte(entry))
		_, _ = h.Write([]byte{0})
	}

	return h.Sum64()
}
