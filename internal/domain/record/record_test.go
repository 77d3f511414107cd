package record_test

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"testing"

	"github.com/okian/scoretable/internal/domain/event"
	"github.com/okian/scoretable/internal/domain/record"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClean(t *testing.T) {
	Convey("Given raw spreadsheet cells", t, func() {
		Convey("When a time carries microseconds", func() {
			out, fired := record.Clean("03:34:32.960000")

			Convey("Then the fraction is cut to hundredths and the leading zero trimmed", func() {
				So(out, ShouldEqual, "3:34:32.96")
				So(fired.Has(record.RepairMicrosecond), ShouldBeTrue)
				So(fired.Has(record.RepairFormat), ShouldBeTrue)
			})
		})

		Convey("When the microseconds are all zero", func() {
			out, _ := record.Clean("01:00:00.000000")
			So(out, ShouldEqual, "1:00:00")
		})

		Convey("When the fraction would round up", func() {
			out, _ := record.Clean("10.239999")

			Convey("Then it is truncated, not rounded", func() {
				So(out, ShouldEqual, "10.23")
			})
		})

		Convey("When five or seven fractional digits are present", func() {
			five, _ := record.Clean("10.23456")
			seven, _ := record.Clean("10.2345678")
			So(five, ShouldEqual, "10.23456")
			So(seven, ShouldEqual, "10.2345678")
		})

		Convey("When a time carries the 1900 epoch date", func() {
			out, fired := record.Clean("1900-01-01 02:08:30")
			So(out, ShouldEqual, "2:08:30")
			So(fired.Has(record.RepairDate), ShouldBeTrue)
		})

		Convey("When a date appears without 1900", func() {
			out, fired := record.Clean("2024-05-01 10.5")
			So(out, ShouldEqual, "2024-05-01 10.5")
			So(fired.Has(record.RepairDate), ShouldBeFalse)
		})

		Convey("When an Excel day fraction is exported", func() {
			half, fired := record.Clean("0.5")
			So(half, ShouldEqual, "12:00:00")
			So(fired.Has(record.RepairSerial), ShouldBeTrue)

			// 0.0421 * 86400 = 3637.44 -> 3637 s
			hour, _ := record.Clean("0.0421")
			So(hour, ShouldEqual, "1:00:37")

			// 0.0025 * 86400 = 216 s
			short, _ := record.Clean("0.0025")
			So(short, ShouldEqual, "3:36")
		})

		Convey("When the fraction is outside the serial window", func() {
			tiny, _ := record.Clean("0.00001")
			big, _ := record.Clean("0.9995")
			So(tiny, ShouldEqual, "0.00001")
			So(big, ShouldEqual, "0.9995")
		})

		Convey("When a serial has six fractional digits", func() {
			// 0.123456 -> 0.12 -> 0.12 * 86400 = 10368 s
			out, fired := record.Clean("0.123456")
			So(out, ShouldEqual, "2:52:48")
			So(fired.Has(record.RepairMicrosecond), ShouldBeTrue)
			So(fired.Has(record.RepairSerial), ShouldBeTrue)
		})

		Convey("When a clock is zero padded", func() {
			out, _ := record.Clean("03:45:00")
			So(out, ShouldEqual, "3:45:00")

			double, _ := record.Clean("00:45.12")
			So(double, ShouldEqual, "0:45.12")
		})

		Convey("When a field distance is already canonical", func() {
			out, fired := record.Clean("7.45")
			So(out, ShouldEqual, "7.45")
			So(fired, ShouldEqual, record.Repairs(0))
		})

		Convey("When the cell is missing or a placeholder", func() {
			for _, raw := range []string{"", "   ", "-", " - ", "NaN", "nan", "N/A", "#N/A", "null", "None"} {
				out, fired := record.Clean(raw)
				So(out, ShouldEqual, record.Absent)
				So(fired.Has(record.RepairAbsent), ShouldBeTrue)
				_, ok := record.Parse(out)
				So(ok, ShouldBeFalse)
			}
		})

		Convey("When the only content is a zero fraction", func() {
			out, _ := record.Clean(".000000")
			So(out, ShouldEqual, record.Absent)
		})
	})
}

func TestClean_Idempotent(t *testing.T) {
	Convey("Given a mix of noisy inputs", t, func() {
		inputs := []string{
			"03:34:32.960000", "01:00:00.000000", "1900-01-01 03:34:32.960000",
			"1900-01-01 1900-01-01 10.5", "0.5", "0.0421", "0.123456", "0.9995",
			"00:45.12", "03:45:00", "7.45", "10.239999", ".000000", "", "NaN",
			"abc", "12:00:00", "0:05", "1900", "0.000000",
			"191900-01-01 00-01-01 5:00", "000 .000000", "1.123456 .000000",
			"1.000000.000000", "1900-01-01 NaN", "1900-01-01 -",
		}

		Convey("Then cleaning twice equals cleaning once", func() {
			for _, in := range inputs {
				once, _ := record.Clean(in)
				twice, _ := record.Clean(once)
				So(twice, ShouldEqual, once)
			}
		})
	})
}

func FuzzClean(f *testing.F) {
	for _, seed := range []string{
		"03:34:32.960000", "1900-01-01 03:34:32.960000", "0.0421", "00:45.12",
		"191900-01-01 00-01-01 5:00", "000 .000000", "NaN", "",
	} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, in string) {
		once, _ := record.Clean(in)
		twice, fired := record.Clean(once)
		if twice != once {
			t.Fatalf("Clean(%q) = %q, cleaned again = %q", in, once, twice)
		}
		if once != record.Absent && fired != 0 {
			t.Fatalf("Clean(%q) = %q still fires %b", in, once, fired)
		}
	})
}

func TestParse(t *testing.T) {
	Convey("Given canonical record strings", t, func() {
		Convey("Then bare numbers parse as-is", func() {
			v, ok := record.Parse("10.23")
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 10.23)
		})

		Convey("Then one colon is minutes and seconds", func() {
			v, ok := record.Parse("3:45.67")
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 225.67)
		})

		Convey("Then two colons are hours, minutes and seconds", func() {
			v, ok := record.Parse("1:02:03.45")
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 3723.45)
		})

		Convey("Then garbage and the absent token are not values", func() {
			for _, s := range []string{"-", "", "abc", "1:xx", "1:2:3:4", "NaN", "Inf", "12.3.4"} {
				_, ok := record.Parse(s)
				So(ok, ShouldBeFalse)
			}
		})
	})
}

func TestFormat_RoundTrip(t *testing.T) {
	Convey("Given canonical strings of every kind", t, func() {
		cases := []struct {
			in   string
			kind event.Kind
			want string
		}{
			{"10.23", event.KindShortTime, "10.23"},
			{"3:45.67", event.KindMiddleTime, "3:45.67"},
			{"3:05", event.KindMiddleTime, "3:05"},
			{"1:02:03.45", event.KindLongTime, "1:02:03.45"},
			{"2:08:30", event.KindLongTime, "2:08:30"},
			{"7.45", event.KindField, "7.45"},
			{"8500", event.KindScore, "8500"},
		}

		Convey("Then parse, format, parse reproduces the value", func() {
			for _, c := range cases {
				v, ok := record.Parse(c.in)
				So(ok, ShouldBeTrue)
				out := record.Format(v, c.kind)
				So(out, ShouldEqual, c.want)
				back, ok := record.Parse(out)
				So(ok, ShouldBeTrue)
				So(math.Abs(back-v), ShouldBeLessThan, 0.005)
			}
		})
	})
}

func TestCompose(t *testing.T) {
	Convey("Given multi-field input", t, func() {
		So(record.Compose(7, 45, 100), ShouldEqual, 7.45)
		So(record.Compose(7, 45, 0), ShouldEqual, float64(7))
		So(record.ComposeClock(1, 2, 3, 45), ShouldEqual, 3723.45)
		So(record.ComposeClock(0, 0, 10, 5), ShouldEqual, 10.05)
	})
}

func TestCompose_MatchesParse(t *testing.T) {
	Convey("Given every mark a form can express", t, func() {
		Convey("Then meters and centimeters equal the parsed decimal exactly", func() {
			var misses []string
			for m := 0; m < 100; m++ {
				for cm := 0; cm < 100; cm++ {
					text := fmt.Sprintf("%d.%02d", m, cm)
					v, ok := record.Parse(text)
					if !ok || record.Compose(float64(m), float64(cm), 100) != v {
						misses = append(misses, text)
					}
				}
			}
			So(misses, ShouldBeEmpty)
		})

		Convey("Then clock fields, clock text and the plain decimal agree exactly", func() {
			var misses []string
			for m := 0; m < 15; m++ {
				for sec := 0; sec < 60; sec++ {
					for hh := 0; hh < 100; hh++ {
						clock := fmt.Sprintf("%d:%02d.%02d", m, sec, hh)
						parsed, ok := record.Parse(clock)
						composed := record.ComposeClock(0, float64(m), float64(sec), float64(hh))
						decimal, err := strconv.ParseFloat(fmt.Sprintf("%d.%02d", m*60+sec, hh), 64)
						if !ok || err != nil || parsed != composed || parsed != decimal {
							misses = append(misses, clock)
						}
					}
				}
			}
			So(misses, ShouldBeEmpty)
		})

		Convey("Then hour clocks agree too", func() {
			parsed, ok := record.Parse("2:08:30.47")
			So(ok, ShouldBeTrue)
			So(parsed, ShouldEqual, record.ComposeClock(2, 8, 30, 47))
			So(parsed, ShouldEqual, 7710.47)
		})

		Convey("Then odd clock fields still parse by addition", func() {
			v, ok := record.Parse("1:1e1")
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 70.0)
		})
	})
}

func TestCleaner_Report(t *testing.T) {
	Convey("Given a cleaner", t, func() {
		c := record.NewCleaner()
		for _, raw := range []string{"03:34:32.960000", "1900-01-01 2:08:30", "0.5", "-", "7.45"} {
			c.Clean(raw)
		}
		r := c.Report()

		Convey("Then every rule is counted", func() {
			So(r.Cells, ShouldEqual, 5)
			So(r.MicrosecondFixed, ShouldEqual, 1)
			So(r.FormatFixed, ShouldEqual, 1)
			So(r.DateFixed, ShouldEqual, 1)
			So(r.SerialFixed, ShouldEqual, 1)
			So(r.Absent, ShouldEqual, 1)
			So(r.Repaired(), ShouldEqual, 4)
			So(r.Counts()["serial_fixed"], ShouldEqual, 1)
		})

		Convey("Then reports merge", func() {
			var total record.Report
			total.Merge(r)
			total.Merge(r)
			So(total.Cells, ShouldEqual, 10)
			So(total.SerialFixed, ShouldEqual, 2)
		})
	})
}

func TestFromComponents(t *testing.T) {
	Convey("Given input fields per kind", t, func() {
		Convey("Then each kind combines them into its base unit", func() {
			v, err := record.FromComponents(event.KindField, map[string]float64{"meters": 7, "centimeters": 45})
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 7.45)

			v, err = record.FromComponents(event.KindMiddleTime, map[string]float64{"minutes": 3, "seconds": 45, "hundredths": 67})
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 225.67)

			v, err = record.FromComponents(event.KindLongTime, map[string]float64{"hours": 2, "minutes": 8, "seconds": 30})
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 7710.0)

			v, err = record.FromComponents(event.KindShortTime, map[string]float64{"seconds": 10})
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 10.0)

			v, err = record.FromComponents(event.KindScore, map[string]float64{"points": 8250})
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 8250.0)
		})

		Convey("Then fields foreign to the kind are rejected", func() {
			_, err := record.FromComponents(event.KindField, map[string]float64{"seconds": 10})
			So(errors.Is(err, record.ErrUnknownComponent), ShouldBeTrue)
		})

		Convey("Then negative fields are rejected", func() {
			_, err := record.FromComponents(event.KindField, map[string]float64{"meters": -1})
			So(err, ShouldNotBeNil)
		})
	})
}
