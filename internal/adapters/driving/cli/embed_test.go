package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fernwood-labs/recall-cli/internal/core/ports/driving"
)

func TestEmbedCmd_Executes(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	mock := embedService.(*mockEmbedService)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"embed"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.False(t, mock.lastOpts.Reset)
	assert.Contains(t, buf.String(), "Updated 5 embeddings")
	assert.NotContains(t, buf.String(), "failed")
}

func TestEmbedCmd_ResetFlag(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	mock := embedService.(*mockEmbedService)

	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"embed", "--reset"})
	defer func() {
		rootCmd.SetArgs(nil)
		embedReset = false
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.True(t, mock.lastOpts.Reset)
}

func TestEmbedCmd_ReportsFailedBatches(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	embedService.(*mockEmbedService).report = driving.EmbedReport{Updated: 3, FailedBatches: 1}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"embed"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Updated 3 embeddings")
	assert.Contains(t, buf.String(), "1 batches failed")
}

func TestEmbedCmd_ServiceError(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	embedService.(*mockEmbedService).err = errService

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"embed"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "embedding update failed")
}
