package migrate

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListMigrations(t *testing.T) {
	files, err := listMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, files)

	assert.True(t, sort.StringsAreSorted(files), "migrations must apply in filename order")
	for _, f := range files {
		assert.True(t, strings.HasSuffix(f, ".sql"), f)
		b, err := migrations.ReadFile(f)
		require.NoError(t, err, f)
		assert.NotEmpty(t, b, f)
	}
}
