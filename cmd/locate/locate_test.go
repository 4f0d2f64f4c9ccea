package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/lora-locator/internal/domain"
)

const testExport = `message_id,received_at,gateway_id,rx_lat,rx_lng,rssi,snr
1,2024-12-13T12:00:01Z,gw-a,52.0,4.0,-80,5
1,2024-12-13T12:00:01Z,gw-b,52.01,4.02,-60,10
2,2024-12-13T12:05:00Z,gw-a,NA,4.0,-75,3
3,2024-12-13T12:06:00Z,gw-c,51.95,4.10,-101,-2.25
`

func writeExport(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "receptions.csv")
	require.NoError(t, os.WriteFile(path, []byte(testExport), 0o600))
	return path
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestEstimateCommand_CSV(t *testing.T) {
	out, err := execute(t, newEstimateCmd(), writeExport(t), "--format", "csv")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "message_id,device_lat,device_lng,receivers,mode,place_name", lines[0])
	assert.Equal(t, "1,52.009079,4.018157,2,weighted,", lines[1])
	assert.Equal(t, "3,51.950000,4.100000,1,weighted,", lines[2])
}

func TestEstimateCommand_RankedTable(t *testing.T) {
	out, err := execute(t, newEstimateCmd(), writeExport(t), "--rank", "--mode", "unweighted")
	require.NoError(t, err)

	assert.Contains(t, out, "RANK")
	assert.Contains(t, out, "mean position:")
	assert.Contains(t, out, `failed: message "2": empty group`)
}

func TestEstimateCommand_OutputFile(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "positions.geojson")
	out, err := execute(t, newEstimateCmd(), writeExport(t), "--format", "geojson", "-o", dest)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"FeatureCollection"`)
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("writes content", func(t *testing.T) {
		path := filepath.Join(dir, "ok.csv")
		require.NoError(t, writeFile(path, func(w io.Writer) error {
			_, err := io.WriteString(w, "message_id\n")
			return err
		}))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "message_id\n", string(data))
	})

	t.Run("write error wins", func(t *testing.T) {
		boom := errors.New("disk full")
		err := writeFile(filepath.Join(dir, "fail.csv"), func(io.Writer) error { return boom })
		assert.ErrorIs(t, err, boom)
	})

	t.Run("close error reported", func(t *testing.T) {
		err := writeFile(filepath.Join(dir, "closed.csv"), func(w io.Writer) error {
			return w.(*os.File).Close()
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrClosed)
		assert.Contains(t, err.Error(), "close output")
	})

	t.Run("create error", func(t *testing.T) {
		err := writeFile(filepath.Join(dir, "missing", "out.csv"), func(io.Writer) error { return nil })
		assert.ErrorContains(t, err, "create output")
	})
}

func TestEstimateCommand_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want error
	}{
		{"unknown mode", []string{"--mode", "median"}, domain.ErrInvalidInput},
		{"unknown format", []string{"--format", "kml"}, domain.ErrInvalidInput},
		{"reference out of range", []string{"--rank", "--ref-lat", "91"}, domain.ErrInvalidInput},
		{"non-positive rssi scale", []string{"--rssi-scale", "0"}, domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, newEstimateCmd(), append([]string{writeExport(t)}, tt.args...)...)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := execute(t, newEstimateCmd(), filepath.Join(t.TempDir(), "absent.csv"))
		assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
	})
}

func TestExtractCommand(t *testing.T) {
	out, err := execute(t, newExtractCmd(), writeExport(t))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "received_at,rx_lat,rx_lng", lines[0])
	assert.Equal(t, "2024-12-13T12:05:00Z,NA,4", lines[3])
}
