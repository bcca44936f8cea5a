package chatvault

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/chatvault/load"
	"github.com/poiesic/chatvault/pipeline"
)

const vaultTestExport = `{
	"user_id": "u-self",
	"conversations": {
		"conv-1": {
			"display_name": "Plans",
			"messages": [
				{"id": "m-1", "timestamp": "2024-03-01T10:00:00Z", "sender_id": "u-self", "sender_name": "Alice", "content": "hello"}
			]
		}
	}
}`

func openTestVault(t *testing.T) *Vault {
	t.Helper()
	vault, err := Open("", filepath.Join(t.TempDir(), "vault_test.db"), WithInMemoryCheckpoints())
	require.NoError(t, err)
	t.Cleanup(func() { vault.Close() })
	return vault
}

func TestVaultOpenAndAccessors(t *testing.T) {
	vault := openTestVault(t)

	assert.NotNil(t, vault.RawStorage())
	assert.NotNil(t, vault.CheckpointStore())
	assert.NotNil(t, vault.DB())
	assert.NotNil(t, vault.Registry())
}

func TestVaultPipelineIngest(t *testing.T) {
	vault := openTestVault(t)
	ctx := context.Background()

	source := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, os.WriteFile(source, []byte(vaultTestExport), 0o644))

	pipe, err := vault.NewPipeline(nil, nil, nil)
	require.NoError(t, err)

	result, err := pipe.Run(ctx, source, "Alice", nil)
	require.NoError(t, err)
	assert.Equal(t, pipeline.StatusCompleted, result.Status)

	var n int64
	require.NoError(t, vault.DB().Model(&load.MessageRow{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)

	// The audit copy is retrievable through the facade's raw store.
	var anchor load.RawExportRow
	require.NoError(t, vault.DB().First(&anchor).Error)
	payload, meta, err := vault.RawStorage().Get(ctx, anchor.ExportID)
	require.NoError(t, err)
	assert.JSONEq(t, vaultTestExport, string(payload))
	assert.Equal(t, "u-self", meta.UserID)
}
