package commands

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// transferLine returns a transfer-summary line moving nbytes in ten seconds.
func transferLine(dest, typ string, nbytes int64, streams int) string {
	return fmt.Sprintf("[24512] Thu Aug 17 06:29:49 2017 :: Transfer stats: DATE=20170817062949.888844 HOST=gridftp01.example.org PROG=globus-gridftp-server NL.EVNT=FTP_INFO START=20170817062939.888844 USER=atlas FILE=/data/file.root BUFFER=87380 BLOCK=262144 NBYTES=%d VOLUME=/ STREAMS=%d STRIPES=1 DEST=[%s] TYPE=%s CODE=226",
		nbytes, streams, dest, typ)
}

// goodLog has three records to two destinations, one listing and one comment.
var goodLog = strings.Join([]string{
	"# Section A",
	transferLine("192.0.2.10", "RETR", 10_000_000_000, 4),
	transferLine("192.0.2.10", "STOR", 5_000_000_000, 2),
	"[24512] Thu Aug 17 06:29:50 2017 :: Closed connection from 192.0.2.10",
	transferLine("192.0.2.10", "MLSD", 1000, 1),
	transferLine("198.51.100.7", "RETR", 20_000_000_000, 8),
	"",
}, "\n")

// badLog has one record and one line without NBYTES.
var badLog = strings.Join([]string{
	transferLine("192.0.2.10", "RETR", 10_000_000_000, 4),
	strings.Replace(transferLine("192.0.2.10", "RETR", 1, 4), "NBYTES=1 ", "", 1),
	"",
}, "\n")

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

// runCommand executes cmd with args and returns its stdout and stderr.
func runCommand(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}
