// Kernel preview tool - interactive plot of the fluid kernels with sliders.
//
// Usage: go run ./cmd/kernelpreview [-config file.yaml]
package main

import (
	"flag"
	"fmt"
	"log"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/pbd/config"
)

const (
	windowWidth  = 1000
	windowHeight = 620
	plotSize     = 512
	panelWidth   = windowWidth - plotSize - 50
	samples      = 128
)

var (
	colorPoly6   = rl.Color{R: 40, G: 110, B: 220, A: 255}
	colorSpiky   = rl.Color{R: 220, G: 80, B: 60, A: 255}
	colorTensile = rl.Color{R: 60, G: 170, B: 80, A: 255}
)

type slider struct {
	label    string
	min, max float32
	value    *float32
	format   string
}

func main() {
	configPath := flag.String("config", "", "Config YAML file (empty = use defaults)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	initial := ParamsFromConfig(cfg)
	params := initial

	rl.InitWindow(windowWidth, windowHeight, "Kernel Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	sliders := []slider{
		{"Interaction radius h", 0.02, 0.3, &params.Radius, "%.3f"},
		{"Lattice spacing", 0.01, 0.2, &params.Spacing, "%.3f"},
		{"Tensile k", 0, 0.01, &params.TensileK, "%.5f"},
		{"Tensile n", 1, 8, &params.TensileN, "%.1f"},
		{"Tensile dq (fraction of h)", 0.05, 0.95, &params.TensileDQ, "%.2f"},
	}

	curves := SampleCurves(params, samples)
	needsRegen := false

	for !rl.WindowShouldClose() {
		if needsRegen {
			curves = SampleCurves(params, samples)
			needsRegen = false
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		drawPlot(10, 10, curves, params)

		statsY := int32(plotSize + 25)
		rho := RestDensity(params)
		rl.DrawText(fmt.Sprintf("Lattice density: %.1f  (configured rest density %.1f)", rho, cfg.Fluid.RestDensity), 15, statsY, 16, rl.DarkGray)
		rl.DrawText(fmt.Sprintf("Neighbors within h: %d   peak W: %.4g   peak |grad|: %.4g", NeighborCount(params), curves.PeakW, curves.PeakGrad), 15, statsY+20, 16, rl.DarkGray)
		drawLegend(15, statsY+45)

		panelX := float32(plotSize + 30)
		panelY := float32(10)
		rl.DrawText("Fluid Kernel Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		for _, s := range sliders {
			rl.DrawText(s.label, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 18
			v := gui.SliderBar(
				rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
				"", "", *s.value, s.min, s.max,
			)
			rl.DrawText(fmt.Sprintf(s.format, *s.value), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
			if v != *s.value {
				*s.value = v
				needsRegen = true
			}
			panelY += 35
		}

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Reset All") {
			params = initial
			needsRegen = true
		}
		panelY += 45

		rl.DrawText("YAML Config:", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 25
		snippet := fluidYAML(params, rho)
		rl.DrawText(snippet, int32(panelX), int32(panelY), 14, rl.Gray)

		rl.DrawText("Press C to copy YAML to clipboard", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(snippet)
		}

		rl.EndDrawing()
	}
}

// fluidYAML renders the edited values as a fluid config block, with the
// rest density set to the lattice density.
func fluidYAML(p KernelParams, rho float32) string {
	block := struct {
		Fluid struct {
			RestDensity  float32 `yaml:"rest_density"`
			KernelParams `yaml:",inline"`
		} `yaml:"fluid"`
	}{}
	block.Fluid.RestDensity = rho
	block.Fluid.KernelParams = p
	data, err := yaml.Marshal(block)
	if err != nil {
		return err.Error()
	}
	return string(data)
}

func drawPlot(x, y int32, c Curves, p KernelParams) {
	rl.DrawRectangle(x, y, plotSize, plotSize, rl.White)
	rl.DrawRectangleLines(x, y, plotSize, plotSize, rl.DarkGray)

	// Grid lines at quarters of h
	for i := int32(1); i < 4; i++ {
		gx := x + i*plotSize/4
		rl.DrawLine(gx, y, gx, y+plotSize, rl.LightGray)
		rl.DrawText(fmt.Sprintf("%.2fh", float32(i)/4), gx-14, y+plotSize-16, 12, rl.Gray)
	}

	// Reference distance for the tensile term
	qx := x + int32(p.TensileDQ*plotSize)
	rl.DrawLine(qx, y, qx, y+plotSize, colorTensile)

	drawCurve(x, y, c.R, c.Poly6, p.Radius, colorPoly6)
	drawCurve(x, y, c.R, c.Spiky, p.Radius, colorSpiky)
	drawCurve(x, y, c.R, c.Tensile, p.Radius, colorTensile)
}

func drawCurve(x, y int32, r, v []float32, h float32, color rl.Color) {
	toScreen := func(i int) rl.Vector2 {
		return rl.Vector2{
			X: float32(x) + r[i]/h*plotSize,
			Y: float32(y+plotSize) - v[i]*(plotSize-20),
		}
	}
	for i := 1; i < len(r); i++ {
		rl.DrawLineEx(toScreen(i-1), toScreen(i), 2, color)
	}
}

func drawLegend(x, y int32) {
	entries := []struct {
		label string
		color rl.Color
	}{
		{"poly6 W", colorPoly6},
		{"|grad W spiky|", colorSpiky},
		{"tensile (W/W(dq))^n", colorTensile},
	}
	for _, e := range entries {
		rl.DrawRectangle(x, y+3, 12, 12, e.color)
		rl.DrawText(e.label, x+18, y, 16, rl.DarkGray)
		x += 30 + int32(rl.MeasureText(e.label, 16))
	}
}
