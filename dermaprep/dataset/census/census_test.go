package census

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mu-hashmi/dermaprep/dermaprep/dataset/common"
	"github.com/mu-hashmi/dermaprep/dermaprep/dataset/options"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildProcessedDir(t *testing.T, classes map[string]int) string {
	t.Helper()
	root := t.TempDir()
	for label, n := range classes {
		classDir := filepath.Join(root, label)
		require.NoError(t, os.MkdirAll(classDir, 0o755))
		for i := 0; i < n; i++ {
			name := filepath.Join(classDir, "img_"+label+"_"+string(rune('a'+i))+".jpg")
			require.NoError(t, os.WriteFile(name, []byte("pixels"), 0o644))
		}
	}
	return root
}

func TestCountPerClass(t *testing.T) {
	root := buildProcessedDir(t, map[string]int{"mel": 3, "nv": 5, "bcc": 1})

	report, err := Count(context.Background(), root, options.DefaultCensusOptions())
	require.NoError(t, err)

	require.Len(t, report.Counts, 3)
	assert.Equal(t, 9, report.Total)

	// Sorted alphabetically by class name
	assert.Equal(t, "bcc", report.Counts[0].Label)
	assert.Equal(t, 1, report.Counts[0].Images)
	assert.Equal(t, "mel", report.Counts[1].Label)
	assert.Equal(t, 3, report.Counts[1].Images)
	assert.Equal(t, "nv", report.Counts[2].Label)
	assert.Equal(t, 5, report.Counts[2].Images)
}

func TestCountMissingDirectory(t *testing.T) {
	_, err := Count(context.Background(), filepath.Join(t.TempDir(), "nope"), options.DefaultCensusOptions())

	require.Error(t, err)
	var missingErr *common.MissingInputError
	assert.True(t, errors.As(err, &missingErr))
}

func TestCountEmptyDirectory(t *testing.T) {
	report, err := Count(context.Background(), t.TempDir(), options.DefaultCensusOptions())
	require.NoError(t, err)

	assert.Empty(t, report.Counts)
	assert.Equal(t, 0, report.Total)
}

func TestCountIgnoresTopLevelFiles(t *testing.T) {
	root := buildProcessedDir(t, map[string]int{"mel": 2})
	require.NoError(t, os.WriteFile(filepath.Join(root, "stray.txt"), []byte("x"), 0o644))

	report, err := Count(context.Background(), root, options.DefaultCensusOptions())
	require.NoError(t, err)

	require.Len(t, report.Counts, 1)
	assert.Equal(t, 2, report.Total)
}

func TestCountIgnoresNestedDirectories(t *testing.T) {
	root := buildProcessedDir(t, map[string]int{"mel": 2})
	require.NoError(t, os.MkdirAll(filepath.Join(root, "mel", "nested"), 0o755))

	report, err := Count(context.Background(), root, options.DefaultCensusOptions())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Counts[0].Images)
}

func TestCountVerifyEXIF(t *testing.T) {
	// Plain text files carry no decodable EXIF metadata
	root := buildProcessedDir(t, map[string]int{"mel": 2})

	opts := options.DefaultCensusOptions()
	opts.VerifyEXIF = true

	report, err := Count(context.Background(), root, opts)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Counts[0].Images)
	assert.Equal(t, 2, report.Counts[0].Unreadable)
}

func TestBalance(t *testing.T) {
	root := buildProcessedDir(t, map[string]int{"mel": 2, "nv": 6, "bcc": 4})

	report, err := Count(context.Background(), root, options.DefaultCensusOptions())
	require.NoError(t, err)

	balance := report.Balance()
	assert.Equal(t, 3, balance.Classes)
	assert.Equal(t, 12, balance.TotalImages)
	assert.InDelta(t, 4.0, balance.Mean, 1e-9)
	assert.InDelta(t, 2.0, balance.StdDev, 1e-9)
	assert.Equal(t, "mel", balance.SmallestClass)
	assert.Equal(t, "nv", balance.LargestClass)
	assert.InDelta(t, 3.0, balance.ImbalanceRatio, 1e-9)
}

func TestBalanceEmptyReport(t *testing.T) {
	report := &Report{}
	balance := report.Balance()
	assert.Equal(t, 0, balance.Classes)
	assert.Zero(t, balance.ImbalanceRatio)
}

func TestRender(t *testing.T) {
	root := buildProcessedDir(t, map[string]int{"mel": 3, "nv": 1})

	report, err := Count(context.Background(), root, options.DefaultCensusOptions())
	require.NoError(t, err)

	rendered := report.Render(false)
	assert.True(t, strings.Contains(rendered, "mel"))
	assert.True(t, strings.Contains(rendered, "nv"))
	assert.True(t, strings.Contains(rendered, "Total"))
	assert.True(t, strings.Contains(rendered, "4"))
}
