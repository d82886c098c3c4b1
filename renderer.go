package main

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"snake-evo/evo"
	"snake-evo/game"
)

const (
	maxChartPoints = 200
	borderPadding  = 10
)

// Renderer draws the whole population into one shared grid, with a stats
// panel and best-score chart on the right.
type Renderer struct {
	cellSize        int32
	screenWidth     int32
	screenHeight    int32
	chartHeight     int32
	chartWidth      int32
	gameWidth       int32
	gameHeight      int32
	statsPanel      int32
	totalGridWidth  int32
	totalGridHeight int32
	offsetX         int32
	offsetY         int32
}

func NewRenderer() *Renderer {
	r := &Renderer{}
	r.UpdateDimensions()
	return r
}

func (r *Renderer) UpdateDimensions() {
	r.screenWidth = int32(rl.GetScreenWidth())
	r.screenHeight = int32(rl.GetScreenHeight())

	r.statsPanel = r.screenWidth / 4
	r.gameWidth = r.screenWidth - r.statsPanel
	r.gameHeight = r.screenHeight

	r.chartWidth = r.statsPanel - 20
	r.chartHeight = r.screenHeight / 5
}

func minI32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

func (r *Renderer) layoutGrid(w, h int) {
	availableWidth := r.gameWidth - borderPadding*2
	availableHeight := r.gameHeight - borderPadding*2
	r.cellSize = minI32(availableWidth/int32(w), availableHeight/int32(h))
	if r.cellSize < 1 {
		r.cellSize = 1
	}
	r.totalGridWidth = r.cellSize * int32(w)
	r.totalGridHeight = r.cellSize * int32(h)
	r.offsetX = borderPadding
	r.offsetY = (r.screenHeight - r.totalGridHeight) / 2
}

func (r *Renderer) cellRect(p game.Point) (int32, int32) {
	return r.offsetX + int32(p.X)*r.cellSize, r.offsetY + int32(p.Y)*r.cellSize
}

// DrawTraining renders the evolutionary view: every live snake in its slot
// color, apples, and the trainer stats panel.
func (r *Renderer) DrawTraining(t *evo.Trainer, showOnlyBest bool, showHelp bool) {
	r.UpdateDimensions()
	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)

	pop := t.Population()
	if len(pop.Games) == 0 {
		rl.EndDrawing()
		return
	}
	w, h := pop.Games[0].Width(), pop.Games[0].Height()
	r.layoutGrid(w, h)

	rl.DrawRectangle(r.offsetX-1, r.offsetY-1, r.totalGridWidth+2, r.totalGridHeight+2, rl.DarkGray)
	rl.DrawRectangle(r.offsetX, r.offsetY, r.totalGridWidth, r.totalGridHeight, rl.Black)

	bestIdx := 0
	for i, sc := range pop.Scores {
		if sc > pop.Scores[bestIdx] {
			bestIdx = i
		}
	}

	for i := range pop.Games {
		if showOnlyBest && i != bestIdx {
			continue
		}
		r.drawSnake(pop.Games[i], pop.Colors[i], i == bestIdx)
	}

	r.drawTrainerPanel(t, bestIdx, showOnlyBest)
	if showHelp {
		r.drawHelp()
	}
	rl.EndDrawing()
}

// DrawManual renders a single manually played game.
func (r *Renderer) DrawManual(g *game.Game, showHelp bool) {
	r.UpdateDimensions()
	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)

	r.layoutGrid(g.Width(), g.Height())
	rl.DrawRectangle(r.offsetX-1, r.offsetY-1, r.totalGridWidth+2, r.totalGridHeight+2, rl.DarkGray)
	rl.DrawRectangle(r.offsetX, r.offsetY, r.totalGridWidth, r.totalGridHeight, rl.Black)

	r.drawSnake(g, evo.Color{R: 100, G: 220, B: 100}, true)

	statsX := r.gameWidth + 5
	fontSize := r.fontSize()
	rl.DrawRectangle(statsX-5, 0, r.statsPanel+5, r.screenHeight, rl.DarkGray)
	rl.DrawText("MANUAL PLAY", statsX, 10, fontSize, rl.White)
	rl.DrawText(fmt.Sprintf("Score: %d", g.Score()), statsX, 10+r.lineHeight(), fontSize, rl.White)
	if !g.Alive() {
		rl.DrawText("GAME OVER (R to restart)", statsX, 10+2*r.lineHeight(), fontSize, rl.Red)
	} else if g.Paused() {
		rl.DrawText("PAUSED", statsX, 10+2*r.lineHeight(), fontSize, rl.Yellow)
	}
	if showHelp {
		r.drawHelp()
	}
	rl.EndDrawing()
}

func (r *Renderer) drawSnake(g *game.Game, c evo.Color, highlight bool) {
	if !g.Alive() {
		return
	}
	alpha := uint8(160)
	if highlight {
		alpha = 255
	}
	body := g.Body()
	color := rl.Color{R: c.R, G: c.G, B: c.B, A: alpha}
	head := rl.Color{
		R: boostChannel(c.R),
		G: boostChannel(c.G),
		B: boostChannel(c.B),
		A: alpha,
	}
	for j := len(body) - 1; j >= 0; j-- {
		x, y := r.cellRect(body[j])
		cellColor := color
		if j == 0 {
			cellColor = head
		}
		rl.DrawRectangle(x, y, r.cellSize, r.cellSize, cellColor)
	}

	ax, ay := r.cellRect(g.Apple())
	appleColor := rl.Color{R: 230, G: 40, B: 40, A: alpha}
	rl.DrawRectangle(ax, ay, r.cellSize, r.cellSize, appleColor)
}

func boostChannel(v uint8) uint8 {
	boosted := int(float32(v) * 1.3)
	if boosted > 255 {
		boosted = 255
	}
	return uint8(boosted)
}

func (r *Renderer) fontSize() int32 {
	return minI32(r.screenHeight/45, r.statsPanel/12)
}

func (r *Renderer) lineHeight() int32 {
	return minI32(r.screenHeight/35, r.statsPanel/10)
}

func (r *Renderer) drawTrainerPanel(t *evo.Trainer, bestIdx int, showOnlyBest bool) {
	statsX := r.gameWidth + 5
	statsY := int32(10)
	fontSize := r.fontSize()
	lineHeight := r.lineHeight()

	rl.DrawRectangle(statsX-5, 0, r.statsPanel+5, r.screenHeight, rl.DarkGray)

	mode := "tabular"
	if b := t.Backend(); b != nil {
		mode = b.Name()
	}
	state := "IDLE"
	if t.Training() {
		state = "TRAINING"
	}
	if t.Solved() {
		state = "SOLVED"
	}

	lines := []string{
		fmt.Sprintf("State: %s", state),
		fmt.Sprintf("Policy: %s", mode),
		fmt.Sprintf("Epoch: %d", t.Epoch()),
		fmt.Sprintf("Steps: %d / %d", t.StepsTaken(), t.StepLimit()),
		fmt.Sprintf("Speed: %d steps/frame", t.StepsPerFrame()),
		fmt.Sprintf("Best now: %d", t.Population().Scores[bestIdx]),
		fmt.Sprintf("Champion: %d (epoch %d)", t.ChampionScore(), t.ChampionEpoch()),
		fmt.Sprintf("Target: %d", t.TargetScore()),
		fmt.Sprintf("Stagnation: %d", t.EpochsWithoutImprove()),
		fmt.Sprintf("Restarts: %d", t.RestartCount()),
	}
	if t.WrapWorld() {
		lines = append(lines, "Walls: wrap")
	} else {
		lines = append(lines, "Walls: solid")
	}
	if showOnlyBest {
		lines = append(lines, "View: best only")
	}
	for _, line := range lines {
		rl.DrawText(line, statsX, statsY, fontSize, rl.White)
		statsY += lineHeight
	}

	if t.LeaderProtected() {
		rl.DrawText("LEADER: protected", statsX, statsY, fontSize, rl.Green)
		statsY += lineHeight
	}

	r.drawScoreChart(t, statsX, fontSize)
}

// drawScoreChart plots the last epochs' best scores.
func (r *Renderer) drawScoreChart(t *evo.Trainer, chartX, fontSize int32) {
	chartY := r.screenHeight - r.chartHeight - fontSize*2
	rl.DrawRectangleLines(chartX, chartY, r.chartWidth, r.chartHeight, rl.White)
	rl.DrawText("Best score per epoch", chartX, chartY-fontSize-5, fontSize, rl.White)

	scores := t.EpochBest()
	if len(scores) > maxChartPoints {
		scores = scores[len(scores)-maxChartPoints:]
	}
	if len(scores) < 2 {
		return
	}
	maxScore := 1
	for _, sc := range scores {
		if sc > maxScore {
			maxScore = sc
		}
	}
	for j := 1; j < len(scores); j++ {
		x1 := chartX + int32(float32(r.chartWidth)*float32(j-1)/float32(maxChartPoints))
		y1 := chartY + r.chartHeight - int32(float32(r.chartHeight)*float32(scores[j-1])/float32(maxScore))
		x2 := chartX + int32(float32(r.chartWidth)*float32(j)/float32(maxChartPoints))
		y2 := chartY + r.chartHeight - int32(float32(r.chartHeight)*float32(scores[j])/float32(maxScore))
		rl.DrawLine(x1, y1, x2, y2, rl.Green)
	}
}

func (r *Renderer) drawHelp() {
	fontSize := r.fontSize()
	lineHeight := r.lineHeight()
	lines := []string{
		"E  toggle evolution training",
		"P  pause manual game",
		"R  reset manual game",
		"S  save champion",
		"L  load champion into population",
		"B  show only the best agent",
		"U  ultra fast (skip redraws)",
		"W  toggle wrap/solid walls",
		"N  toggle neural-net policy",
		"J  toggle DQN (solid walls)",
		"K  toggle ONNX policy",
		"O  tabular backend",
		"+/- training speed",
		"H  hide this help",
	}
	boxH := int32(len(lines))*lineHeight + 20
	boxW := r.gameWidth / 2
	x := r.offsetX + 10
	y := r.offsetY + 10
	rl.DrawRectangle(x-5, y-5, boxW, boxH, rl.Color{R: 0, G: 0, B: 0, A: 220})
	for _, line := range lines {
		rl.DrawText(line, x, y, fontSize, rl.White)
		y += lineHeight
	}
}
