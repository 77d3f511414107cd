package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/scoretable/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func tinyTable(category string) *model.Table {
	g := model.Grid{Header: []string{"Points", "100m"}, Rows: [][]string{{"1000", "10.50"}}}
	t, err := model.Build(category, g)
	if err != nil {
		panic(err)
	}
	return t
}

func TestTableCache_Get(t *testing.T) {
	Convey("Given a cache over a counting loader", t, func() {
		var loads atomic.Int32
		loader := LoaderFunc(func(ctx context.Context, category string) (*model.Table, error) {
			loads.Add(1)
			if category == "missing" {
				return nil, ErrTableNotFound
			}
			return tinyTable(category), nil
		})
		cache := NewTableCache(loader)
		ctx := context.Background()

		Convey("When a category is read twice", func() {
			first, err := cache.Get(ctx, "M")
			So(err, ShouldBeNil)
			second, err := cache.Get(ctx, "M")
			So(err, ShouldBeNil)

			Convey("Then it is loaded once and the same table is returned", func() {
				So(loads.Load(), ShouldEqual, 1)
				So(second, ShouldEqual, first)
				So(cache.Len(), ShouldEqual, 1)
				So(cache.Categories(), ShouldResemble, []string{"M"})
			})
		})

		Convey("When a category does not exist", func() {
			_, err := cache.Get(ctx, "missing")

			Convey("Then the error is returned and nothing is cached", func() {
				So(errors.Is(err, ErrTableNotFound), ShouldBeTrue)
				So(cache.Len(), ShouldEqual, 0)
			})
		})

		Convey("When categories are loaded and evicted", func() {
			_, _ = cache.Get(ctx, "W")
			_, _ = cache.Get(ctx, "M")
			So(cache.Categories(), ShouldResemble, []string{"M", "W"})
			So(cache.Evict("M"), ShouldBeTrue)
			So(cache.Evict("M"), ShouldBeFalse)
			So(cache.Categories(), ShouldResemble, []string{"W"})
		})
	})
}

func TestTableCache_Coalescing(t *testing.T) {
	Convey("Given a slow loader", t, func() {
		var loads atomic.Int32
		release := make(chan struct{})
		loader := LoaderFunc(func(ctx context.Context, category string) (*model.Table, error) {
			loads.Add(1)
			<-release
			return tinyTable(category), nil
		})
		cache := NewTableCache(loader)

		Convey("When many readers miss at once", func() {
			var wg sync.WaitGroup
			results := make([]*model.Table, 16)
			for i := range results {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					results[i], _ = cache.Get(context.Background(), "M")
				}(i)
			}
			time.Sleep(50 * time.Millisecond)
			close(release)
			wg.Wait()

			Convey("Then the file is read once and everyone sees the same table", func() {
				So(loads.Load(), ShouldEqual, 1)
				for _, r := range results {
					So(r, ShouldEqual, results[0])
				}
			})
		})
	})
}

func TestTableCache_Reload(t *testing.T) {
	Convey("Given a cached table", t, func() {
		var fail atomic.Bool
		loader := LoaderFunc(func(ctx context.Context, category string) (*model.Table, error) {
			if fail.Load() {
				return nil, errors.New("disk gone")
			}
			return tinyTable(category), nil
		})
		cache := NewTableCache(loader)
		ctx := context.Background()
		old, err := cache.Get(ctx, "M")
		So(err, ShouldBeNil)

		Convey("When it is reloaded", func() {
			fresh, err := cache.Reload(ctx, "M")

			Convey("Then the new table replaces the old one", func() {
				So(err, ShouldBeNil)
				So(fresh.ID, ShouldNotEqual, old.ID)
				current, _ := cache.Peek("M")
				So(current, ShouldEqual, fresh)
			})
		})

		Convey("When a reload fails", func() {
			fail.Store(true)
			_, err := cache.Reload(ctx, "M")

			Convey("Then the previous table stays in place", func() {
				So(err, ShouldNotBeNil)
				current, ok := cache.Peek("M")
				So(ok, ShouldBeTrue)
				So(current, ShouldEqual, old)
			})
		})
	})
}

func TestTableCache_FirstLoadRacingReload(t *testing.T) {
	Convey("Given a first load that stalls while a reload completes", t, func() {
		var calls atomic.Int32
		started := make(chan struct{})
		release := make(chan struct{})
		loader := LoaderFunc(func(ctx context.Context, category string) (*model.Table, error) {
			if calls.Add(1) == 1 {
				close(started)
				<-release
			}
			return tinyTable(category), nil
		})
		cache := NewTableCache(loader)
		ctx := context.Background()

		got := make(chan *model.Table, 1)
		go func() {
			tbl, _ := cache.Get(ctx, "M")
			got <- tbl
		}()
		<-started

		fresh, err := cache.Reload(ctx, "M")
		So(err, ShouldBeNil)
		close(release)
		var stale *model.Table
		select {
		case stale = <-got:
		case <-time.After(time.Second):
			t.Fatal("first load did not finish")
		}

		Convey("Then the older load does not replace the reloaded table", func() {
			current, ok := cache.Peek("M")
			So(ok, ShouldBeTrue)
			So(current, ShouldEqual, fresh)
			So(stale, ShouldEqual, fresh)
			So(calls.Load(), ShouldEqual, 2)
		})
	})
}

func TestFileLoader(t *testing.T) {
	Convey("Given a data directory", t, func() {
		dir := t.TempDir()
		write := func(name, content string) {
			So(os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644), ShouldBeNil)
		}
		write("M_2023.csv", "Points,100m\n1000,10.80\n")
		write("M_2024.csv", "Points,100m,LJ\n1000,10.50,7.45\n900,11.50,7.00\n")
		write("W_2024.csv", "100m\n11.50\n")
		write("X_2024.csv", "Points,100m\n1000,10.0\n900,9.0\n")

		loader := NewFileLoader(dir)
		ctx := context.Background()

		Convey("Then the newest file is built", func() {
			tbl, err := loader.Load(ctx, "M")
			So(err, ShouldBeNil)
			So(tbl.Source, ShouldEqual, "M_2024.csv")
			So(tbl.Stats.Rows, ShouldEqual, 2)
			So(len(tbl.Events), ShouldEqual, 2)
		})

		Convey("Then an absent category maps to ErrTableNotFound", func() {
			_, err := loader.Load(ctx, "U20")
			So(errors.Is(err, ErrTableNotFound), ShouldBeTrue)
		})

		Convey("Then unsafe names are rejected", func() {
			for _, name := range []string{"../M", "M*", "", "M_2024"} {
				_, err := loader.Load(ctx, name)
				So(errors.Is(err, ErrInvalidCategory), ShouldBeTrue)
			}
		})

		Convey("Then a table without points fails to build", func() {
			_, err := loader.Load(ctx, "W")
			So(errors.Is(err, model.ErrNoPointsColumn), ShouldBeTrue)
		})

		Convey("Then build options are passed through", func() {
			_, err := NewFileLoader(dir, WithBuildOptions(model.WithRejectNonMonotonic(true))).Load(ctx, "X")
			So(errors.Is(err, model.ErrNonMonotonic), ShouldBeTrue)
		})

		Convey("Then a custom pattern narrows discovery", func() {
			tbl, err := NewFileLoader(dir, WithFilePattern("{category}_2023*")).Load(ctx, "M")
			So(err, ShouldBeNil)
			So(tbl.Source, ShouldEqual, "M_2023.csv")
		})

		Convey("Then the cache serves loader results", func() {
			cache := NewTableCache(loader)
			tbl, err := cache.Get(ctx, "M")
			So(err, ShouldBeNil)
			So(tbl.Category, ShouldEqual, "M")
		})
	})
}
