// Package main implements the terravc-cover debug tool. It prints the
// index-probe terms generated for a bounds string, which is useful when
// diagnosing why an object was or was not included by the cell strategy.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/terravc/terravc/internal/cover"
	"github.com/terravc/terravc/internal/geo"
)

func main() {
	var (
		bounds   string
		maxCells int
		maxLevel int
		strip    bool
	)
	flag.StringVar(&bounds, "bounds", "", "query bounds: <lng_w>,<lat_s>,<lng_e>,<lat_n>")
	flag.IntVar(&maxCells, "max-cells", 25, "cell budget for the covering")
	flag.IntVar(&maxLevel, "max-level", 15, "maximum cell-decomposition level")
	flag.BoolVar(&strip, "strip", false, "strip ancestor markers, as done before probing the index")
	flag.Parse()

	rect, err := geo.ParseRect(bounds)
	if err != nil {
		fmt.Fprintf(os.Stderr, "terravc-cover: %v\n", err)
		os.Exit(2)
	}

	terms := cover.QueryTerms(rect, cover.Options{MaxCells: maxCells, MaxLevel: maxLevel})
	for _, term := range terms {
		if strip {
			term = cover.StripMarker(term)
		}
		fmt.Println(term)
	}
	fmt.Fprintf(os.Stderr, "%d terms for %s\n", len(terms), rect)
}
