// Command furycut-gamepack validates a games.json and prints its shape.
// With no -file it checks the pack embedded in the binary
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Scotts-Thoughts/fury-cutter/internal/core/gamepack"
)

func main() {
	var (
		file    = flag.String("file", "", "games.json to validate; empty checks the embedded pack")
		verbose = flag.Bool("v", false, "print per-key labels and multipliers")
	)
	flag.Parse()

	var (
		pack *gamepack.Pack
		err  error
		src  = "embedded"
	)
	if *file != "" {
		src = *file
		var raw []byte
		if raw, err = os.ReadFile(*file); err == nil {
			pack, err = gamepack.FromJSON(raw)
		}
	} else {
		pack, err = gamepack.Load()
	}
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("pack ok: %s (version %d, default label %q)\n", src, pack.Version, pack.DefaultLabel)
	for _, id := range pack.GameIDs() {
		g, _ := pack.Game(id)
		fmt.Printf("  %-12s gen %d  %-3s  profile=%-8s  keys=%d\n",
			g.ID, g.Generation, g.Platform, g.Profile, len(g.Keys))
		if !*verbose {
			continue
		}
		for _, k := range g.Keys {
			m, _ := g.Matcher(k)
			fmt.Printf("    %-24s label=%-16s multiplier=%d\n", k, pack.Label(k), m.Multiplier)
		}
	}
}
