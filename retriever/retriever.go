package retriever

import (
	"context"

	"github.com/w-h-a/medichat/store"
)

// Retriever finds stored chunks relevant to a query, restricted to the
// owner's rows plus globally shared rows. Retrieval is best-effort context
// augmentation: implementations degrade to an empty result on backend
// failure rather than surfacing an error.
type Retriever interface {
	Retrieve(ctx context.Context, query string, ownerId string) []store.Record
}
