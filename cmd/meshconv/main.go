// meshconv triangulates the soil height points of a resources file into the
// triangle dataset demovm reads from terrain.dataset.
package main

import (
	"fmt"
	"os"

	"github.com/farmdemo/server/internal/config"
	"github.com/farmdemo/server/internal/data"
	"github.com/farmdemo/server/internal/terrain"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "Usage: meshconv <resources.yaml> <output.json>")
		os.Exit(1)
	}

	// Bed geometry comes from the demo config (FARMDEMO_CONFIG).
	cfg, err := config.Load(config.Path())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	res, err := data.LoadResources(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	points := res.SoilHeightPoints()

	surface, err := terrain.ComputeSurface(data.SoilVertices(points), cfg.Geometry())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	triangles := surface.Triangles()

	raw, err := terrain.Encode(triangles)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := os.WriteFile(os.Args[2], raw, 0o644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %d triangles from %d soil height points to %s\n", len(triangles), len(points), os.Args[2])
}
