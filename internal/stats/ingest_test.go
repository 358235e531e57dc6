// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package stats_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ionovox/server/internal/apperror"
	"github.com/ionovox/server/internal/stats"
)

const validCSV = `Username,Characters Learned,Time Per Character,Features Unlocked,EmailAdress
w1aw,a b c,1 2 3,morse cw,w1aw@example.com
`

func TestIngestAcceptsValidCSV(t *testing.T) {
	rows, err := stats.Ingest(strings.NewReader(validCSV))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "w1aw", rows[0].Username)
	assert.Equal(t, "w1aw@example.com", rows[0].EmailAddress)
}

func TestIngestRejectsMissingHeaderToken(t *testing.T) {
	const csv = `Username,Characters Learned,Features Unlocked,EmailAdress
w1aw,a b c,morse cw,w1aw@example.com
`
	_, err := stats.Ingest(strings.NewReader(csv))
	require.Error(t, err)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestIngestRejectsTokenCountMismatch(t *testing.T) {
	const csv = `Username,Characters Learned,Time Per Character,Features Unlocked,EmailAdress
w1aw,a b c,1 2,morse cw,w1aw@example.com
`
	_, err := stats.Ingest(strings.NewReader(csv))
	require.Error(t, err)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestIngestHeaderIsCaseInsensitive(t *testing.T) {
	const csv = `USERNAME,characters LEARNED,Time per Character,features unlocked,EMAILADRESS
w1aw,a b,1 2,morse,w1aw@example.com
`
	rows, err := stats.Ingest(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestScanDirIngestsPerUserFiles(t *testing.T) {
	root := t.TempDir()
	userDir := filepath.Join(root, "w1aw")
	require.NoError(t, os.MkdirAll(userDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(userDir, "session1.csv"), []byte(validCSV), 0o644))

	badDir := filepath.Join(root, "ve3xyz")
	require.NoError(t, os.MkdirAll(badDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(badDir, "broken.csv"), []byte("not,a,valid,header\n"), 0o644))

	files, err := stats.ScanDir(root)
	require.NoError(t, err)
	require.Len(t, files, 1, "the malformed upload under ve3xyz should be skipped, not fatal")
	assert.Equal(t, "w1aw", files[0].Username)
	assert.Equal(t, "session1.csv", files[0].Name)
	require.Len(t, files[0].Rows, 1)
}
