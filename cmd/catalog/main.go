package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"projmap/internal/catalog"
	"projmap/internal/optics"
)

func main() {
	file := flag.String("file", "", "Catalog YAML (default: embedded)")
	brand := flag.String("brand", "", "Only models of this brand")
	search := flag.String("search", "", "Only models matching this text")
	lenses := flag.Bool("lenses", false, "List every lens instead of models")
	flag.Parse()

	cat := catalog.Default()
	if *file != "" {
		var err error
		cat, err = catalog.Load(*file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if *lenses {
		for _, l := range cat.Lenses() {
			printLens(l, "")
		}
		return
	}

	n := 0
	for _, m := range cat.Search(*search) {
		if *brand != "" && !strings.EqualFold(m.Brand, *brand) {
			continue
		}
		n++
		fmt.Printf("%s  %s %s  %.0f lm  %s\n", m.ID, m.Brand, m.Name, m.Lumens, m.Resolution)
		ls, err := cat.CompatibleLenses(m.ID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		for _, l := range ls {
			mark := " "
			if l.ID == m.DefaultLens {
				mark = "*"
			}
			printLens(l, "  "+mark)
		}
	}
	if n == 0 {
		fmt.Println("No models match.")
		os.Exit(1)
	}
	fmt.Printf("\n%d models, brands: %s\n", n, strings.Join(cat.Brands(), ", "))
}

// printLens shows the throw range and the horizontal FOV it spans.
func printLens(l *catalog.Lens, prefix string) {
	wide, _ := optics.ThrowRatioToFOV(l.ThrowMin)
	tele, _ := optics.ThrowRatioToFOV(l.ThrowMax)
	throw := fmt.Sprintf("%.2f-%.2f:1", l.ThrowMin, l.ThrowMax)
	fov := fmt.Sprintf("%.1f°-%.1f°", tele, wide)
	if l.Fixed {
		throw = fmt.Sprintf("%.2f:1", l.ThrowMin)
		fov = fmt.Sprintf("%.1f°", wide)
	}
	fmt.Printf("%s %-24s %-14s FOV %-14s shift V%+.0f/%+.0f H%+.0f/%+.0f\n",
		prefix, l.ID, throw, fov, l.ShiftV[0], l.ShiftV[1], l.ShiftH[0], l.ShiftH[1])
}
