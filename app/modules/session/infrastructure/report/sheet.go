// Package sessionreport renders session reports as HTML, XLSX and PNG.
// Every renderer works from a Sheet built out of a read-only report.
package sessionreport

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	sessiontypes "github.com/Black-And-White-Club/tarok-bot/app/modules/session/domain/types"
	taroktypes "github.com/Black-And-White-Club/tarok-bot/app/modules/tarok/domain/types"
	sharedtypes "github.com/Black-And-White-Club/tarok-bot/app/shared/types"
)

// CSS classes marking the extremes of a row.
const (
	ClassBiggest  = "biggest"
	ClassSmallest = "smallest"
)

// Cell is one score cell. A nil Value is a round the player sat out.
type Cell struct {
	Value *int
	Class string
}

// Text is the cell as displayed.
func (c Cell) Text() string {
	if c.Value == nil {
		return ""
	}
	return strconv.Itoa(*c.Value)
}

// Sheet is a report laid out as a table: one column per player in join order.
type Sheet struct {
	Mode    sessiontypes.Mode
	Players []string
	Rows    [][]Cell
	Totals  []Cell
	Stats   []sharedtypes.Stats
	// Radlci is the radlc summary per player; tarok only.
	Radlci []string
	// Resources is the raw radlc ledger per player; tarok only.
	Resources [][]taroktypes.ResourceToken
	// Running holds cumulative totals per player starting at 0.
	Running [][]int
}

// FromReport lays out r.
func FromReport(r sessiontypes.Report) Sheet {
	players := r.Players()
	scores := r.Scores()
	stats := r.Stats()

	s := Sheet{
		Mode:    r.Mode,
		Players: make([]string, len(players)),
		Rows:    make([][]Cell, r.Rounds),
		Totals:  make([]Cell, len(players)),
		Stats:   make([]sharedtypes.Stats, len(players)),
		Running: make([][]int, len(players)),
	}

	for i, p := range players {
		s.Players[i] = p.Name
		s.Stats[i] = stats[p.ID]
		sum := stats[p.ID].Sum
		s.Totals[i] = Cell{Value: &sum}
		s.Running[i] = append([]int{0}, sharedtypes.RunningTotals(scores[p.ID])...)
	}

	for round := 0; round < r.Rounds; round++ {
		row := make([]Cell, len(players))
		for i, p := range players {
			history := scores[p.ID]
			if round < len(history) && history[round] != nil {
				v := *history[round]
				row[i] = Cell{Value: &v}
			}
		}
		markExtremes(row)
		s.Rows[round] = row
	}
	markExtremes(s.Totals)

	if r.Tarok != nil {
		s.Resources = make([][]taroktypes.ResourceToken, len(players))
		s.Radlci = make([]string, len(players))
		for i, p := range players {
			tokens := r.Tarok.Resources[p.ID]
			s.Resources[i] = tokens
			s.Radlci[i] = radlcSummary(tokens)
		}
	}
	return s
}

// markExtremes classes the highest and lowest filled cells. Rows where every
// filled cell is equal are left unmarked.
func markExtremes(row []Cell) {
	maxIdx, minIdx := -1, -1
	for i, c := range row {
		if c.Value == nil {
			continue
		}
		if maxIdx < 0 || *c.Value > *row[maxIdx].Value {
			maxIdx = i
		}
		if minIdx < 0 || *c.Value < *row[minIdx].Value {
			minIdx = i
		}
	}
	if maxIdx < 0 || *row[maxIdx].Value == *row[minIdx].Value {
		return
	}
	for i := range row {
		if row[i].Value == nil {
			continue
		}
		switch *row[i].Value {
		case *row[maxIdx].Value:
			row[i].Class = ClassBiggest
		case *row[minIdx].Value:
			row[i].Class = ClassSmallest
		}
	}
}

// radlcSummary draws available radlci as filled and used ones as hollow circles.
func radlcSummary(tokens []taroktypes.ResourceToken) string {
	var b strings.Builder
	for _, t := range tokens {
		switch t {
		case taroktypes.ResourceAvailable:
			b.WriteString("●")
		case taroktypes.ResourceUsed:
			b.WriteString("○")
		}
	}
	return b.String()
}

// FileName names a rendered report, e.g. 2026_10_14_18_30_00_UTC_tarok.html.
func FileName(mode sessiontypes.Mode, at time.Time, ext string) string {
	return fmt.Sprintf("%s_UTC_%s.%s", at.UTC().Format("2006_01_02_15_04_05"), mode, strings.TrimPrefix(ext, "."))
}
