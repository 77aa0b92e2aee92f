package drive

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	files   []*File
	content map[string]string
	fail    string
}

func (f *fakeSource) ListFiles(context.Context, string) ([]*File, error) {
	return f.files, nil
}

func (f *fakeSource) DownloadFile(_ context.Context, id string, w io.Writer) error {
	if id == f.fail {
		return errors.New("quota exceeded")
	}
	_, err := io.WriteString(w, f.content[id])
	return err
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		files: []*File{
			{ID: "1", Name: "history.csv"},
			{ID: "2", Name: "notes.txt"},
			{ID: "3", Name: "demand.XLSX"},
		},
		content: map[string]string{"1": "period,material\n", "3": "xlsx-bytes"},
	}
}

func TestDownloadFolder_SkipsUnsupported(t *testing.T) {
	dir := t.TempDir()

	paths, err := NewDownloader(newFakeSource()).DownloadFolder(context.Background(), DownloadOptions{DownloadDir: dir})
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(dir, "history.csv"), filepath.Join(dir, "demand.XLSX")}, paths)
	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Equal(t, "period,material\n", string(data))
}

func TestDownloadFolder_Names(t *testing.T) {
	paths, err := NewDownloader(newFakeSource()).DownloadFolder(context.Background(), DownloadOptions{
		DownloadDir: t.TempDir(),
		Names:       []string{"demand.XLSX"},
	})
	require.NoError(t, err)

	require.Len(t, paths, 1)
	assert.Equal(t, "demand.XLSX", filepath.Base(paths[0]))
}

func TestDownloadFolder_Errors(t *testing.T) {
	_, err := NewDownloader(newFakeSource()).DownloadFolder(context.Background(), DownloadOptions{})
	assert.ErrorContains(t, err, "download dir")

	src := newFakeSource()
	src.fail = "1"
	dir := t.TempDir()
	_, err = NewDownloader(src).DownloadFolder(context.Background(), DownloadOptions{DownloadDir: dir})
	assert.ErrorContains(t, err, "history.csv")

	leftovers, _ := filepath.Glob(filepath.Join(dir, "*.part"))
	assert.Empty(t, leftovers)
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("a.csv"))
	assert.True(t, Supported("a.Xlsx"))
	assert.False(t, Supported("a.xls"))
}
