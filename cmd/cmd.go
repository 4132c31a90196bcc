package cmd

import (
	"github.com/named-data/ndnplay/std/utils"
	"github.com/named-data/ndnplay/tools"
	"github.com/spf13/cobra"
)

const banner = `
             _
  _ __   __| |_ __  _ __ | | __ _ _   _
 | '_ \ / _  | '_ \| '_ \| |/ _  | | | |
 | | | | (_| | | | | |_) | | (_| | |_| |
 |_| |_|\____|_| |_| .__/|_|\____|\__, |
                   |_|            |___/

Adaptive media retrieval over Named Data Networking
`

var CmdNDNPlay = &cobra.Command{
	Use:     "ndnplay",
	Short:   "Adaptive media retrieval over NDN",
	Long:    banner[1:],
	Version: utils.NDNPlayVersion,
}

func init() {
	cobra.EnableCommandSorting = false
	CmdNDNPlay.Root().CompletionOptions.HiddenDefaultCmd = true
	CmdNDNPlay.PersistentFlags().BoolP("help", "h", false, "Print usage")
	CmdNDNPlay.PersistentFlags().Lookup("help").Hidden = true

	CmdNDNPlay.AddGroup(&cobra.Group{ID: "daemons", Title: "Daemons"})
	CmdNDNPlay.AddCommand(tools.CmdGateway)

	CmdNDNPlay.AddGroup(&cobra.Group{ID: "tools", Title: "Tools"})
	CmdNDNPlay.AddCommand(tools.CmdCatChunks)
}
