package organizer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mu-hashmi/dermaprep/dermaprep/dataset/common"
	"github.com/mu-hashmi/dermaprep/dermaprep/dataset/fileops"
	"github.com/mu-hashmi/dermaprep/dermaprep/dataset/options"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	org      *Organizer
	root     string
	staging  string
	dest     string
	metadata string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	return &fixture{
		org:      New(fileops.NewFileOps()),
		root:     root,
		staging:  filepath.Join(root, "combined"),
		dest:     filepath.Join(root, "processed"),
		metadata: filepath.Join(root, "metadata.csv"),
	}
}

func (f *fixture) writeMetadata(t *testing.T, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(f.metadata, []byte(content), 0o644))
}

func (f *fixture) stageImage(t *testing.T, name string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(f.staging, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(f.staging, name), []byte(name), 0o644))
}

func (f *fixture) sourceImage(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(f.root, dir)
	require.NoError(t, os.MkdirAll(path, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(path, name), []byte(content), 0o644))
	return path
}

func TestOrganizeAllPresent(t *testing.T) {
	f := newFixture(t)
	f.writeMetadata(t, "image_id,dx\na,mel\nb,nv\nc,mel\n")
	f.stageImage(t, "a.jpg")
	f.stageImage(t, "b.jpg")
	f.stageImage(t, "c.jpg")

	summary, err := f.org.Organize(context.Background(), f.staging, f.dest, f.metadata, options.DefaultOrganizeOptions())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Moved)
	assert.Equal(t, 0, summary.Missing)
	assert.NotEqual(t, uuid.Nil, summary.RunID)
	assert.Equal(t, []string{"mel", "nv"}, summary.Labels)

	assert.FileExists(t, filepath.Join(f.dest, "mel", "a.jpg"))
	assert.FileExists(t, filepath.Join(f.dest, "nv", "b.jpg"))
	assert.FileExists(t, filepath.Join(f.dest, "mel", "c.jpg"))
}

func TestOrganizeMixedPresence(t *testing.T) {
	// Staging holds a.jpg and b.jpg; metadata references a, b and c
	f := newFixture(t)
	f.writeMetadata(t, "image_id,dx\na,cat\nb,dog\nc,cat\n")
	f.stageImage(t, "a.jpg")
	f.stageImage(t, "b.jpg")

	summary, err := f.org.Organize(context.Background(), f.staging, f.dest, f.metadata, options.DefaultOrganizeOptions())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Moved)
	assert.Equal(t, 1, summary.Missing)

	assert.FileExists(t, filepath.Join(f.dest, "cat", "a.jpg"))
	assert.FileExists(t, filepath.Join(f.dest, "dog", "b.jpg"))
	assert.NoFileExists(t, filepath.Join(f.dest, "cat", "c.jpg"))
}

func TestOrganizeAllMissing(t *testing.T) {
	f := newFixture(t)
	f.writeMetadata(t, "image_id,dx\nx,mel\ny,nv\n")
	require.NoError(t, os.MkdirAll(f.staging, 0o755))

	summary, err := f.org.Organize(context.Background(), f.staging, f.dest, f.metadata, options.DefaultOrganizeOptions())
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Moved)
	assert.Equal(t, 2, summary.Missing)

	// No class directories created for missing files
	assert.NoDirExists(t, filepath.Join(f.dest, "mel"))
	assert.NoDirExists(t, filepath.Join(f.dest, "nv"))
}

func TestOrganizeDestinationInvariant(t *testing.T) {
	f := newFixture(t)
	f.writeMetadata(t, "image_id,dx\na,mel\nb,nv\nc,bcc\nd,mel\n")
	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg"} {
		f.stageImage(t, name)
	}

	_, err := f.org.Organize(context.Background(), f.staging, f.dest, f.metadata, options.DefaultOrganizeOptions())
	require.NoError(t, err)

	// Every file in a class directory maps back to a metadata record whose
	// label equals the directory name and identifier equals the base name
	want := map[string]string{"a": "mel", "b": "nv", "c": "bcc", "d": "mel"}
	classDirs, err := os.ReadDir(f.dest)
	require.NoError(t, err)
	for _, classDir := range classDirs {
		require.True(t, classDir.IsDir())
		files, err := os.ReadDir(filepath.Join(f.dest, classDir.Name()))
		require.NoError(t, err)
		for _, file := range files {
			id := file.Name()[:len(file.Name())-len(".jpg")]
			assert.Equal(t, want[id], classDir.Name())
		}
	}
}

func TestOrganizeMissingMetadata(t *testing.T) {
	f := newFixture(t)
	f.stageImage(t, "a.jpg")

	_, err := f.org.Organize(context.Background(), f.staging, f.dest, f.metadata, options.DefaultOrganizeOptions())

	require.Error(t, err)
	var missingErr *common.MissingInputError
	assert.True(t, errors.As(err, &missingErr))

	// Nothing moved
	assert.FileExists(t, filepath.Join(f.staging, "a.jpg"))
}

func TestOrganizeSchemaErrorBeforeMoves(t *testing.T) {
	f := newFixture(t)
	f.writeMetadata(t, "image_id,age\na,50\n")
	f.stageImage(t, "a.jpg")

	_, err := f.org.Organize(context.Background(), f.staging, f.dest, f.metadata, options.DefaultOrganizeOptions())

	require.Error(t, err)
	var schemaErr *common.SchemaError
	assert.True(t, errors.As(err, &schemaErr))

	// The staged file is untouched and no destination was created
	assert.FileExists(t, filepath.Join(f.staging, "a.jpg"))
	assert.NoDirExists(t, f.dest)
}

func TestOrganizeDuplicateFail(t *testing.T) {
	f := newFixture(t)
	f.writeMetadata(t, "image_id,dx\na,cat\na,dog\n")
	f.stageImage(t, "a.jpg")

	_, err := f.org.Organize(context.Background(), f.staging, f.dest, f.metadata, options.DefaultOrganizeOptions())

	require.Error(t, err)
	var dupErr *common.DuplicateError
	require.True(t, errors.As(err, &dupErr))
	assert.Equal(t, []string{"a"}, dupErr.IDs)
	assert.True(t, errors.Is(err, common.ErrDuplicateRecords))

	// Failed before any move
	assert.FileExists(t, filepath.Join(f.staging, "a.jpg"))
}

func TestOrganizeDuplicateLastWins(t *testing.T) {
	f := newFixture(t)
	f.writeMetadata(t, "image_id,dx\na,cat\na,dog\n")
	f.stageImage(t, "a.jpg")

	opts := options.DefaultOrganizeOptions()
	opts.OnDuplicate = options.DuplicateLastWins

	summary, err := f.org.Organize(context.Background(), f.staging, f.dest, f.metadata, opts)
	require.NoError(t, err)

	// The first record consumes the file; the later one counts as missing
	assert.Equal(t, 1, summary.Moved)
	assert.Equal(t, 1, summary.Missing)
	assert.Equal(t, []string{"a"}, summary.Duplicates)
	assert.FileExists(t, filepath.Join(f.dest, "cat", "a.jpg"))
	assert.NoDirExists(t, filepath.Join(f.dest, "dog"))
}

func TestOrganizeStagingCleanup(t *testing.T) {
	f := newFixture(t)
	f.writeMetadata(t, "image_id,dx\na,mel\n")
	f.stageImage(t, "a.jpg")

	summary, err := f.org.Organize(context.Background(), f.staging, f.dest, f.metadata, options.DefaultOrganizeOptions())
	require.NoError(t, err)

	// Staging became empty, so it was removed
	assert.True(t, summary.StagingRemoved)
	assert.NoDirExists(t, f.staging)
}

func TestOrganizeStagingKeptWhenNotEmpty(t *testing.T) {
	f := newFixture(t)
	f.writeMetadata(t, "image_id,dx\na,mel\n")
	f.stageImage(t, "a.jpg")
	require.NoError(t, os.WriteFile(filepath.Join(f.staging, "notes.txt"), []byte("unrelated"), 0o644))

	summary, err := f.org.Organize(context.Background(), f.staging, f.dest, f.metadata, options.DefaultOrganizeOptions())
	require.NoError(t, err)

	assert.False(t, summary.StagingRemoved)
	assert.DirExists(t, f.staging)
	assert.FileExists(t, filepath.Join(f.staging, "notes.txt"))
}

func TestOrganizeDryRun(t *testing.T) {
	f := newFixture(t)
	f.writeMetadata(t, "image_id,dx\na,mel\nb,nv\n")
	f.stageImage(t, "a.jpg")

	opts := options.DefaultOrganizeOptions()
	opts.DryRun = true

	summary, err := f.org.Organize(context.Background(), f.staging, f.dest, f.metadata, opts)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Moved)
	assert.Equal(t, 1, summary.Missing)

	// Nothing actually moved
	assert.FileExists(t, filepath.Join(f.staging, "a.jpg"))
	assert.NoDirExists(t, f.dest)
}

func TestConsolidateMissingSources(t *testing.T) {
	f := newFixture(t)

	result, err := f.org.Consolidate(context.Background(),
		[]string{filepath.Join(f.root, "nope_1"), filepath.Join(f.root, "nope_2")},
		f.staging, options.DefaultConsolidateOptions())
	require.NoError(t, err)

	assert.Equal(t, 0, result.Moved)
	assert.Len(t, result.SkippedDirs, 2)
}

func TestConsolidateMovesMatchingFiles(t *testing.T) {
	f := newFixture(t)
	part1 := f.sourceImage(t, "part_1", "a.jpg", "a")
	f.sourceImage(t, "part_1", "readme.txt", "not an image")
	part2 := f.sourceImage(t, "part_2", "b.jpg", "b")

	result, err := f.org.Consolidate(context.Background(), []string{part1, part2}, f.staging, options.DefaultConsolidateOptions())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Moved)
	assert.FileExists(t, filepath.Join(f.staging, "a.jpg"))
	assert.FileExists(t, filepath.Join(f.staging, "b.jpg"))

	// Non-matching files are untouched; the source directory survives
	assert.FileExists(t, filepath.Join(part1, "readme.txt"))
	assert.NoFileExists(t, filepath.Join(part1, "a.jpg"))
}

func TestConsolidateLastWriterWins(t *testing.T) {
	f := newFixture(t)
	part1 := f.sourceImage(t, "part_1", "x.jpg", "first")
	part2 := f.sourceImage(t, "part_2", "x.jpg", "second")

	result, err := f.org.Consolidate(context.Background(), []string{part1, part2}, f.staging, options.DefaultConsolidateOptions())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Moved)

	entries, err := os.ReadDir(f.staging)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	content, err := os.ReadFile(filepath.Join(f.staging, "x.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(content))
}

func TestConsolidateHonorsIgnoreFile(t *testing.T) {
	f := newFixture(t)
	part1 := f.sourceImage(t, "part_1", "a.jpg", "a")
	f.sourceImage(t, "part_1", "skipme.jpg", "skip")
	require.NoError(t, os.WriteFile(filepath.Join(part1, ".dermaprep-ignore"), []byte("skipme.jpg\n"), 0o644))

	result, err := f.org.Consolidate(context.Background(), []string{part1}, f.staging, options.DefaultConsolidateOptions())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Moved)
	assert.Equal(t, 1, result.Ignored)
	assert.FileExists(t, filepath.Join(part1, "skipme.jpg"))
	assert.NoFileExists(t, filepath.Join(f.staging, "skipme.jpg"))
}

func TestConsolidateDryRun(t *testing.T) {
	f := newFixture(t)
	part1 := f.sourceImage(t, "part_1", "a.jpg", "a")

	opts := options.DefaultConsolidateOptions()
	opts.DryRun = true

	result, err := f.org.Consolidate(context.Background(), []string{part1}, f.staging, opts)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Moved)
	assert.FileExists(t, filepath.Join(part1, "a.jpg"))
	assert.NoDirExists(t, f.staging)
}

func TestRunFullSequence(t *testing.T) {
	f := newFixture(t)
	part1 := f.sourceImage(t, "part_1", "a.jpg", "a")
	part2 := f.sourceImage(t, "part_2", "b.jpg", "b")
	f.writeMetadata(t, "image_id,dx\na,mel\nb,nv\nc,mel\n")

	summary, err := f.org.Run(context.Background(), []string{part1, part2}, f.staging, f.dest, f.metadata,
		options.DefaultConsolidateOptions(), options.DefaultOrganizeOptions())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Moved)
	assert.Equal(t, 1, summary.Missing)
	assert.FileExists(t, filepath.Join(f.dest, "mel", "a.jpg"))
	assert.FileExists(t, filepath.Join(f.dest, "nv", "b.jpg"))
	assert.True(t, summary.StagingRemoved)
}

func TestRunMetadataFailureKeepsConsolidation(t *testing.T) {
	// Consolidation moves are independent and not rolled back when the
	// metadata table turns out to be missing
	f := newFixture(t)
	part1 := f.sourceImage(t, "part_1", "a.jpg", "a")

	_, err := f.org.Run(context.Background(), []string{part1}, f.staging, f.dest, f.metadata,
		options.DefaultConsolidateOptions(), options.DefaultOrganizeOptions())

	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrMetadataNotFound))
	assert.FileExists(t, filepath.Join(f.staging, "a.jpg"))
}

func TestOrganizeCancelledContext(t *testing.T) {
	f := newFixture(t)
	f.writeMetadata(t, "image_id,dx\na,mel\n")
	f.stageImage(t, "a.jpg")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.org.Organize(ctx, f.staging, f.dest, f.metadata, options.DefaultOrganizeOptions())
	assert.ErrorIs(t, err, context.Canceled)
}
