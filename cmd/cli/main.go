// gridstat - GridFTP Transfer Statistics
//
// gridstat reads GridFTP server logs and reports throughput, file size and
// stream counts for every transfer, grouped by destination.
package main

import (
	"os"

	"github.com/ccollicutt/gridstat/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
