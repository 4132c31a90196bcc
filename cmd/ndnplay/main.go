package main

import (
	"os"

	"github.com/named-data/ndnplay/cmd"
)

func main() {
	if err := cmd.CmdNDNPlay.Execute(); err != nil {
		os.Exit(1)
	}
}
