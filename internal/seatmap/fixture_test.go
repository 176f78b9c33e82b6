package seatmap

import (
	"fmt"

	"github.com/iliyamo/venue-seatmap/internal/model"
)

// makeSection builds a section with rows×perRow available seats; IDs
// look like "<section>-<row><n>".
func makeSection(id string, x, y, w, h float64, rows, perRow int) model.Section {
	sec := model.Section{ID: id, Name: "Section " + id, Price: 50, X: x, Y: y, Width: w, Height: h}
	for r := 0; r < rows; r++ {
		label := model.RowLabel(r)
		for n := 1; n <= perRow; n++ {
			sec.Seats = append(sec.Seats, model.Seat{
				ID:        fmt.Sprintf("%s-%s%d", id, label, n),
				SectionID: id,
				RowNumber: label,
				SeatInRow: n,
				Status:    model.SeatAvailable,
			})
		}
	}
	return sec
}

func setStatus(sec *model.Section, status model.SeatStatus, ids ...string) {
	for i := range sec.Seats {
		for _, id := range ids {
			if sec.Seats[i].ID == id {
				sec.Seats[i].Status = status
			}
		}
	}
}

func commandsFor(s Scene, op Op, target Target) []Command {
	var out []Command
	for _, c := range s.Commands {
		if c.Op == op && c.Target == target {
			out = append(out, c)
		}
	}
	return out
}
