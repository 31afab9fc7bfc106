package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/crm-console/internal/ui/screens"
)

// Every key a screen can send must be understood by the local store,
// otherwise filters would silently do nothing offline.
func TestScreenKeysAreWhitelisted(t *testing.T) {
	for _, s := range screens.Schemas() {
		spec, err := lookupResource(s.Resource)
		require.NoError(t, err, s.Resource)

		for _, opt := range s.FilterOptions {
			_, ok := spec.filters[opt.Key]
			assert.True(t, ok, "%s: filter %q not handled", s.Resource, opt.Key)
		}
		for _, opt := range s.SortOptions {
			_, ok := spec.sortable[opt.Key]
			assert.True(t, ok, "%s: sort %q not handled", s.Resource, opt.Key)
		}
	}
}
