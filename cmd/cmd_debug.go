// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/jcodagnone/trackeval/projection"
	"github.com/jcodagnone/trackeval/spatial"
	"github.com/spf13/cobra"
)

// isTerminal reports whether f is a character device. When Stat fails
// we say that it isn't.
func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}

	return (info.Mode() & os.ModeCharDevice) != 0
}

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Dev tools",
}

var debugProjectCmd = &cobra.Command{
	Use:   "project",
	Short: "Projects coordinates into the planar system and back",
	Long: `Lee un par "longitud latitud" por línea, e imprime el punto proyectado
seguido del punto reconstruido y el error de ida y vuelta en metros.

$ echo "-56.1645 -34.9011" | trackeval debug project --crs epsg:4326
-56.1645 -34.9011	x=-56.16 y=-34.90	POINT(-56.1645 -34.9011)	0.000
	`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		proj, err := projection.New(cfg.CRS)
		if err != nil {
			return err
		}

		input := os.Stdin
		if isTerminal(input) {
			fmt.Fprintln(os.Stderr, "Ingrese coordenadas \"longitud latitud\", una por línea…")
		}

		return projectLines(proj, input, os.Stdout)
	},
}

func projectLines(proj projection.Projector, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()

		var lng, lat float64
		if _, err := fmt.Sscanf(line, "%f %f", &lng, &lat); err != nil {
			fmt.Fprintf(w, "%s\t%q\n", line, err)

			continue
		}

		p := spatial.NewPoint(lng, lat)

		projected, err := proj.ToProjected(p)
		if err != nil {
			fmt.Fprintf(w, "%s\t%q\n", line, err)

			continue
		}

		back, err := proj.ToGeographic(projected)
		if err != nil {
			fmt.Fprintf(w, "%s\t%q\n", line, err)

			continue
		}

		fmt.Fprintf(w, "%s\tx=%.2f y=%.2f\t%s\t%.3f\n", line, projected[0], projected[1], back, spatial.Haversine(p, back))
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	return nil
}

func init() {
	rootCmd.AddCommand(debugCmd)
	debugCmd.AddCommand(debugProjectCmd)
}
