package ticket

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPDFIssuer(t *testing.T) {
	tk := Ticket{
		EventName: "Concert",
		Date:      float64(time.Date(2030, 1, 1, 20, 0, 0, 0, time.UTC).Unix()),
		Price:     100.5,
		Email:     "a@b.com",
		Barcode:   12345678,
	}

	t.Run("writes one pdf per ticket", func(t *testing.T) {
		dir := t.TempDir()
		issuer := NewPDFIssuer(dir, zap.NewNop())
		require.NoError(t, issuer.Issue(context.Background(), tk))

		path := filepath.Join(dir, fmt.Sprintf("%d_%d_%s.pdf", tk.Barcode, int64(tk.Date), tk.Email))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.NotEmpty(t, data)
		assert.Equal(t, "%PDF", string(data[:4]))
	})

	t.Run("creates the output directory on first use", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "tickets")
		issuer := NewPDFIssuer(dir, zap.NewNop())
		require.NoError(t, issuer.Issue(context.Background(), tk))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}

func TestBarcodeImage(t *testing.T) {
	img, err := barcodeImage(12345678)
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 60, img.Bounds().Dy())
}

func TestEventDateString(t *testing.T) {
	d := time.Date(2030, 1, 1, 20, 30, 0, 0, time.Local)
	assert.Equal(t, "2030-01-01 20:30", EventDateString(float64(d.Unix())))
}
