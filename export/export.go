// Package export renders leaderboards and player histories as files.
package export

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"github.com/xuri/excelize/v2"

	"github.com/padraicbc/footy/models"
	"github.com/padraicbc/footy/standings"
)

const (
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	PNGContentType  = "image/png"
)

var header = []string{"Rank", "Player", "Played", "Won", "Drawn", "Lost", "Points", "Averages", "Stalwart", "Responses", "Speedy", "Pub"}

func row(r standings.Row, table models.Table) []any {
	var rank any = ""
	if n := r.Rank(table); n != nil {
		rank = *n
	}
	var speedy any = ""
	if r.Speedy != nil {
		speedy = *r.Speedy
	}
	return []any{rank, r.Name, r.Played, r.Won, r.Drawn, r.Lost, r.Points, r.Averages, r.Stalwart, r.Responses, speedy, r.Pub}
}

// TableXLSX writes the qualified rows of view to a sheet named after the
// table, and the unqualified rows below a blank line.
func TableXLSX(view *standings.View) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := fmt.Sprintf("%s %d", view.Table, view.Year)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	write := func(line int, values []any) error {
		cell, err := excelize.CoordinatesToCellName(1, line)
		if err != nil {
			return err
		}
		return f.SetSheetRow(sheet, cell, &values)
	}

	hdr := make([]any, len(header))
	for i, h := range header {
		hdr[i] = h
	}
	if err := write(1, hdr); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return nil, err
	}

	line := 2
	for _, r := range view.Qualified {
		if err := write(line, row(r, view.Table)); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", line, err)
		}
		line++
	}
	if len(view.Unqualified) > 0 {
		line++
		for _, r := range view.Unqualified {
			if err := write(line, row(r, view.Table)); err != nil {
				return nil, fmt.Errorf("failed to write row %d: %w", line, err)
			}
			line++
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	barColor  = drawing.ColorFromHex("2e7d32")
	textColor = drawing.ColorFromHex("212121")
)

// PointsChartPNG draws one bar per year of points. A player with no records
// gets a placeholder image.
func PointsChartPNG(records []models.PlayerRecord) ([]byte, error) {
	if len(records) == 0 {
		return noData()
	}
	recs := append([]models.PlayerRecord(nil), records...)
	sort.Slice(recs, func(i, j int) bool { return recs[i].Year < recs[j].Year })

	bars := make([]chart.Value, len(recs))
	for i, r := range recs {
		bars[i] = chart.Value{
			Label: strconv.Itoa(r.Year),
			Value: float64(r.Points),
			Style: chart.Style{FillColor: barColor, StrokeColor: barColor},
		}
	}

	graph := chart.BarChart{
		Title:    "Points per year",
		Width:    800,
		Height:   400,
		BarWidth: 40,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		XAxis: chart.Style{FontColor: textColor},
		YAxis: chart.YAxis{
			Style: chart.Style{FontColor: textColor},
			// Equal bars would otherwise give a zero-width range.
			Range: &chart.ContinuousRange{Min: 0, Max: max(maxValue(bars), 1)},
		},
		Bars: bars,
	}

	buf := bytes.NewBuffer(nil)
	if err := graph.Render(chart.PNG, buf); err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return buf.Bytes(), nil
}

func maxValue(bars []chart.Value) float64 {
	m := 0.0
	for _, b := range bars {
		m = max(m, b.Value)
	}
	return m
}

func noData() ([]byte, error) {
	graph := chart.BarChart{
		Title:    "No games recorded",
		Width:    400,
		Height:   200,
		BarWidth: 40,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		XAxis: chart.Style{FontColor: textColor},
		YAxis: chart.YAxis{
			Style: chart.Style{FontColor: textColor},
			Range: &chart.ContinuousRange{Min: 0, Max: 1},
		},
		Bars: []chart.Value{{Label: "-", Value: 0}},
	}
	buf := bytes.NewBuffer(nil)
	if err := graph.Render(chart.PNG, buf); err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return buf.Bytes(), nil
}
