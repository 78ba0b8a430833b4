// mapgen renders a saved dungeon layout as ASCII.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/lawnchairsociety/dungeongen/internal/layout"
)

func main() {
	inputFile := flag.String("input", "data/dungeon.yaml", "Path to dungeon layout YAML file")
	outputFile := flag.String("output", "", "Output file (empty for stdout)")
	showLegend := flag.Bool("legend", true, "Show legend")
	flag.Parse()

	data, err := layout.Load(*inputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading layout: %v\n", err)
		os.Exit(1)
	}

	output := layout.RenderASCII(data, *showLegend)
	output += fmt.Sprintf("\nFingerprint: %s\nGenerated: %s\n", data.Fingerprint, data.GeneratedAt.Format("2006-01-02 15:04:05"))

	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, []byte(output), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Map written to %s\n", *outputFile)
	} else {
		fmt.Print(output)
	}
}
