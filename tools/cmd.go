package tools

import "github.com/spf13/cobra"

var toolCat = CatChunks{}
var CmdCatChunks = &cobra.Command{
	GroupID: "tools",
	Use:     "fetch NAME...",
	Short:   "Retrieve media objects by name",
	Long: `Retrieve one or more objects with the specified names.
Versions are discovered with the naming convention or RDR metadata.
A single object is written to stdout, several need --out.`,
	Args:    cobra.MinimumNArgs(1),
	Example: `  ndnplay fetch /my/video/init.mp4 > init.mp4
  ndnplay fetch --out media /my/video/seg-1.m4s /my/video/seg-2.m4s`,
	Run: toolCat.run,
}

var toolGateway = Gateway{}
var CmdGateway = &cobra.Command{
	GroupID: "daemons",
	Use:     "gateway [CONFIG-FILE]",
	Short:   "Serve NDN objects to players over HTTP",
	Long: `Start the HTTP gateway for media players.
Objects are served under /ndn/<name>; see the configuration file for options.`,
	Args:    cobra.MaximumNArgs(1),
	Example: `  ndnplay gateway ndnplay.yml`,
	Run:     toolGateway.run,
}

func init() {
	CmdCatChunks.Flags().StringVarP(&toolCat.outDir, "out", "o", "", "output directory")
	CmdCatChunks.Flags().StringVarP(&toolCat.class, "type", "t", "", "request class (manifest, segment, ...)")
	CmdCatChunks.Flags().IntVarP(&toolCat.concurrency, "concurrency", "j", 4, "concurrent fetches")
	CmdCatChunks.Flags().StringVar(&toolCat.algorithm, "cc", "cubic", "congestion control (cubic, aimd, fixed)")
	CmdCatChunks.Flags().IntVar(&toolCat.window, "window", 4, "initial congestion window")
	CmdCatChunks.Flags().StringArrayVar(&toolCat.hints, "hint", nil, "forwarding hint PREFIX=HINT")
	CmdCatChunks.Flags().BoolVar(&toolCat.insecure, "insecure", false, "skip WebTransport certificate verification")
}
