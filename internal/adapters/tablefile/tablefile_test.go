package tablefile_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/okian/scoretable/internal/adapters/tablefile"
	"github.com/okian/scoretable/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestReadCSV(t *testing.T) {
	Convey("Given a CSV with a BOM and blank lines", t, func() {
		in := "\xEF\xBB\xBFPoints,100m,LJ\n\n1000,10.50,7.45\n950,10.80\n,,\n"

		Convey("When it is read", func() {
			g, err := tablefile.ReadCSV(strings.NewReader(in))

			Convey("Then the header is clean and ragged rows are kept", func() {
				So(err, ShouldBeNil)
				So(g.Header, ShouldResemble, []string{"Points", "100m", "LJ"})
				So(len(g.Rows), ShouldEqual, 2)
				So(g.Rows[1], ShouldResemble, []string{"950", "10.80"})
			})
		})
	})

	Convey("Given an empty CSV", t, func() {
		_, err := tablefile.ReadCSV(strings.NewReader("\n\n"))
		So(errors.Is(err, tablefile.ErrEmptyFile), ShouldBeTrue)
	})
}

func TestReadXLSX(t *testing.T) {
	Convey("Given a workbook with time serials", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "M_2024.xlsx")
		f := excelize.NewFile()
		So(f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Points", "Marathon"}), ShouldBeNil)
		So(f.SetSheetRow("Sheet1", "A2", &[]interface{}{1000, 0.0421}), ShouldBeNil)
		So(f.SaveAs(path), ShouldBeNil)
		So(f.Close(), ShouldBeNil)

		Convey("When it is read through ReadFile", func() {
			g, err := tablefile.ReadFile(path)

			Convey("Then raw values come through for the cleaner", func() {
				So(err, ShouldBeNil)
				So(g.Header, ShouldResemble, []string{"Points", "Marathon"})
				So(g.Rows[0][0], ShouldEqual, "1000")
				So(g.Rows[0][1], ShouldEqual, "0.0421")

				tbl, err := model.Build("M", g)
				So(err, ShouldBeNil)
				So(tbl.Rows[0].Records["Marathon"].Cleaned, ShouldEqual, "1:00:37")
			})
		})
	})

	Convey("Given bytes that are not a workbook", t, func() {
		_, err := tablefile.ReadXLSX(strings.NewReader("not a zip"))
		So(errors.Is(err, tablefile.ErrMalformedFile), ShouldBeTrue)
	})
}

func TestDiscovery(t *testing.T) {
	Convey("Given a data directory with several tables", t, func() {
		dir := t.TempDir()
		writeFile(t, dir, "M_2023.csv", "Points\n")
		writeFile(t, dir, "M_2024.xlsx", "")
		writeFile(t, dir, "M_2025.txt", "")
		writeFile(t, dir, "W_2024.csv", "Points\n")
		writeFile(t, dir, "README.md", "")
		So(os.Mkdir(filepath.Join(dir, "X_2099.csv"), 0o755), ShouldBeNil)

		d := tablefile.NewDiscovery(dir, "")

		Convey("Then the greatest supported name wins", func() {
			path, err := d.Latest("M")
			So(err, ShouldBeNil)
			So(filepath.Base(path), ShouldEqual, "M_2024.xlsx")
		})

		Convey("Then a missing category is reported", func() {
			_, err := d.Latest("U20")
			So(errors.Is(err, tablefile.ErrNoTableFile), ShouldBeTrue)
		})

		Convey("Then categories are listed once each", func() {
			cats, err := d.Categories()
			So(err, ShouldBeNil)
			So(cats, ShouldResemble, []string{"M", "W"})
		})

		Convey("Then a custom pattern narrows the search", func() {
			path, err := tablefile.NewDiscovery(dir, "{category}_2023*").Latest("M")
			So(err, ShouldBeNil)
			So(filepath.Base(path), ShouldEqual, "M_2023.csv")
		})
	})
}

func TestWriteCSV(t *testing.T) {
	Convey("Given a cleaned grid", t, func() {
		g := model.Grid{Header: []string{"Points", "100m"}, Rows: [][]string{{"1000", "10.50"}, {"950", "-"}}}
		var buf bytes.Buffer

		Convey("Then it is written with a BOM and reads back identically", func() {
			So(tablefile.WriteCSV(&buf, g), ShouldBeNil)
			So(bytes.HasPrefix(buf.Bytes(), []byte{0xEF, 0xBB, 0xBF}), ShouldBeTrue)

			back, err := tablefile.ReadCSV(&buf)
			So(err, ShouldBeNil)
			So(back, ShouldResemble, g)
		})
	})

	Convey("Given a timestamp near midnight UTC", t, func() {
		now := time.Date(2024, 3, 31, 20, 0, 0, 0, time.UTC)
		loc, err := tablefile.Location("")
		So(err, ShouldBeNil)

		Convey("Then the name is dated in Tokyo", func() {
			So(tablefile.OutputName("m", now, loc), ShouldEqual, "M_ALL_20240401.csv")
			So(tablefile.OutputName("m", now, nil), ShouldEqual, "M_ALL_20240331.csv")
		})
	})

	Convey("Given input file names", t, func() {
		So(tablefile.Prefix("data/M_ALL_FINAL.csv"), ShouldEqual, "M")
		So(tablefile.Prefix("women.xlsx"), ShouldEqual, "women")
	})
}
