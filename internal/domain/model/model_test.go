package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/scoretable/internal/domain/event"
	"github.com/okian/scoretable/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func sampleGrid() model.Grid {
	return model.Grid{
		Header: []string{"Points", "100m", "LJ", "Marathon"},
		Rows: [][]string{
			{"900", "12.00", "7.00", "NaN"},
			{"1000.0", "11.00", "7.45", "1900-01-01 02:08:30"},
			{"950", "11.50", "-", "02:15:00.000000"},
			{"n/a", "10.00", "8.00", "2:00:00"},
			{"", "10.00", "8.00", "2:00:00"},
		},
	}
}

func TestBuild(t *testing.T) {
	Convey("Given a raw grid", t, func() {
		loaded := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
		tbl, err := model.Build("MEN", sampleGrid(), model.WithSource("MEN_2024.csv"), model.WithClock(func() time.Time { return loaded }))

		Convey("Then the table is built", func() {
			So(err, ShouldBeNil)
			So(tbl.Category, ShouldEqual, "MEN")
			So(tbl.Source, ShouldEqual, "MEN_2024.csv")
			So(tbl.LoadedAt, ShouldEqual, loaded)
			So(tbl.PointsLabel, ShouldEqual, "Points")
		})

		Convey("Then rows without numeric points are dropped and the rest sorted", func() {
			So(tbl.Stats.Rows, ShouldEqual, 3)
			So(tbl.Stats.DroppedRows, ShouldEqual, 2)
			So(tbl.Rows[0].Score, ShouldEqual, 1000)
			So(tbl.Rows[1].Score, ShouldEqual, 950)
			So(tbl.Rows[2].Score, ShouldEqual, 900)
		})

		Convey("Then events are classified in header order", func() {
			So(len(tbl.Events), ShouldEqual, 3)
			So(tbl.Events[0].Kind, ShouldEqual, event.KindShortTime)
			So(tbl.Events[1].Kind, ShouldEqual, event.KindField)
			So(tbl.Events[2].Kind, ShouldEqual, event.KindLongTime)
		})

		Convey("Then cells are cleaned and absent cells skipped", func() {
			So(tbl.Rows[0].Records["Marathon"].Cleaned, ShouldEqual, "2:08:30")
			So(tbl.Rows[1].Records["Marathon"].Cleaned, ShouldEqual, "2:15:00")
			So(tbl.Rows[1].Records["LJ"].Valid, ShouldBeFalse)

			lj, err := tbl.Column("LJ")
			So(err, ShouldBeNil)
			So(lj.Len(), ShouldEqual, 2)
			So(lj.Monotonic, ShouldBeTrue)

			marathon, _ := tbl.Column("Marathon")
			So(marathon.Len(), ShouldEqual, 2)
			So(marathon.Entries[0].Record.Value, ShouldEqual, 7710.0)
		})

		Convey("Then the repair counts are collected", func() {
			So(tbl.Stats.Repairs.Cells, ShouldEqual, 9)
			So(tbl.Stats.Repairs.DateFixed, ShouldEqual, 1)
			So(tbl.Stats.Repairs.MicrosecondFixed, ShouldEqual, 1)
			So(tbl.Stats.Repairs.Absent, ShouldEqual, 2)
			So(tbl.Stats.NonMonotonic, ShouldBeEmpty)
		})

		Convey("Then identifiers match ignoring case and spaces", func() {
			col, err := tbl.Column(" lj ")
			So(err, ShouldBeNil)
			So(col.Event.ID, ShouldEqual, "LJ")

			_, err = tbl.Column("Triple Jump")
			So(errors.Is(err, model.ErrUnknownEvent), ShouldBeTrue)
		})

		Convey("Then Columns follows the header", func() {
			cols := tbl.Columns()
			So(len(cols), ShouldEqual, 3)
			So(cols[2].Event.ID, ShouldEqual, "Marathon")
		})
	})
}

func TestBuild_Errors(t *testing.T) {
	Convey("Given malformed grids", t, func() {
		Convey("When no points column exists", func() {
			_, err := model.Build("X", model.Grid{Header: []string{"100m"}, Rows: [][]string{{"10.0"}}})
			So(errors.Is(err, model.ErrNoPointsColumn), ShouldBeTrue)
		})

		Convey("When a header repeats", func() {
			g := model.Grid{Header: []string{"pts", "100m", "100m"}, Rows: [][]string{{"1000", "10.0", "10.0"}}}
			_, err := model.Build("X", g)
			So(errors.Is(err, model.ErrDuplicateHeader), ShouldBeTrue)
		})

		Convey("When headers differ only in case or spacing", func() {
			for _, header := range [][]string{{"pts", "LJ", "lj"}, {"pts", "100m", "100 M"}} {
				g := model.Grid{Header: header, Rows: [][]string{{"1000", "7.0", "7.0"}}}
				_, err := model.Build("X", g)
				So(errors.Is(err, model.ErrDuplicateHeader), ShouldBeTrue)
			}
		})

		Convey("When every row lacks points", func() {
			g := model.Grid{Header: []string{"Score", "100m"}, Rows: [][]string{{"", "10.0"}}}
			_, err := model.Build("X", g)
			So(errors.Is(err, model.ErrEmptyTable), ShouldBeTrue)
		})
	})
}

func TestBuild_NonMonotonic(t *testing.T) {
	Convey("Given a column that gets faster as the score drops", t, func() {
		g := model.Grid{
			Header: []string{"Points", "100m", "Garbage"},
			Rows: [][]string{
				{"1000", "11.00", "abc"},
				{"950", "10.80", "xyz"},
				{"900", "12.00", "-"},
			},
		}

		Convey("Then the column is flagged", func() {
			tbl, err := model.Build("X", g)
			So(err, ShouldBeNil)
			So(tbl.Stats.NonMonotonic, ShouldResemble, []string{"100m"})
			col, _ := tbl.Column("100m")
			So(col.Monotonic, ShouldBeFalse)
		})

		Convey("Then unparsable text is counted but not fatal", func() {
			tbl, err := model.Build("X", g)
			So(err, ShouldBeNil)
			So(tbl.Stats.Unparsable, ShouldEqual, 2)
			col, _ := tbl.Column("Garbage")
			So(col.Len(), ShouldEqual, 0)
			So(col.Unparsable, ShouldEqual, 2)
		})

		Convey("Then rejection can be enabled", func() {
			_, err := model.Build("X", g, model.WithRejectNonMonotonic(true))
			So(errors.Is(err, model.ErrNonMonotonic), ShouldBeTrue)
		})
	})
}

func TestCleanGrid(t *testing.T) {
	Convey("Given a raw grid", t, func() {
		out, report, err := model.CleanGrid(sampleGrid())

		Convey("Then points become integers and rows are sorted", func() {
			So(err, ShouldBeNil)
			So(out.Header, ShouldResemble, []string{"Points", "100m", "LJ", "Marathon"})
			So(len(out.Rows), ShouldEqual, 3)
			So(out.Rows[0], ShouldResemble, []string{"1000", "11.00", "7.45", "2:08:30"})
			So(out.Rows[1], ShouldResemble, []string{"950", "11.50", "-", "2:15:00"})
			So(out.Rows[2], ShouldResemble, []string{"900", "12.00", "7.00", "-"})
		})

		Convey("Then the report matches the table build", func() {
			So(report.Cells, ShouldEqual, 9)
			So(report.Absent, ShouldEqual, 2)
		})

		Convey("Then cleaning a clean grid changes nothing", func() {
			again, _, err := model.CleanGrid(out)
			So(err, ShouldBeNil)
			So(again.Rows, ShouldResemble, out.Rows)
		})

		Convey("Then the dropped rows are counted", func() {
			So(sampleGrid().DroppedRows(), ShouldEqual, 2)
		})
	})

	Convey("Given score as the points alias", t, func() {
		g := model.Grid{Header: []string{"100m", "SCORE"}}
		idx, err := g.PointsIndex()
		So(err, ShouldBeNil)
		So(idx, ShouldEqual, 1)
	})
}
