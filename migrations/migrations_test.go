package migrations

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFS_ContainsProductsSchema(t *testing.T) {
	names, err := fs.Glob(FS, "*.up.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "001_create_products.up.sql", names[0])

	body, err := fs.ReadFile(FS, names[0])
	require.NoError(t, err)
	assert.Contains(t, string(body), "CREATE TABLE IF NOT EXISTS products")
}
