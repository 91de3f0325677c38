package main

/*
This application renders a detection waterfall for segments collected with
sigsift into a sqlite DB: one column per segment row position within the
sample buffer, one image row per time bucket, colored by peak segment power.

It currently only supports data collected into sqlite.
*/

import (
	"database/sql"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"strings"
	"time"

	"github.com/golang/glog"

	// Blind import support for sqlite3.
	_ "github.com/mattn/go-sqlite3"
)

// Flags
var (
	sqliteFile   = flag.String("sqliteFile", "/tmp/sigsift", "File path of the sqlite DB file to use.")
	identifier   = flag.String("id", "%", "Select segments of this capture identifier (sqlite LIKE pattern).")
	startTimeRaw = flag.String("startTime", "2000-01-02T15:04:05", "Select segments collected after this time. Format: 2006-01-02T15:04:05")
	endTimeRaw   = flag.String("endTime", "2100-01-02T15:04:05", "Select segments collected before this time. Format: 2006-01-02T15:04:05")
	imgPath      = flag.String("imgPath", "/tmp/out.png", "Path where the rendered image should be written to.")
	imgHeight    = flag.Int("imgHeight", 480, "Height of output image in pixels (time buckets).")
)

var (
	// Colors defining the gradient in the heatmap. The higher the index, the warmer.
	colors = map[int]color.RGBA{
		0: {0, 0, 0, 255},       // black
		1: {0, 0, 255, 255},     // blue
		2: {0, 255, 255, 255},   // cyan
		3: {0, 255, 0, 255},     // green
		4: {255, 255, 0, 255},   // yellow
		5: {255, 0, 0, 255},     // red
		6: {255, 255, 255, 255}, // white
	}
)

const (
	timeFmt = "2006-01-02T15:04:05"

	getRowCountTmpl = `SELECT
		COALESCE(MAX(Row), -1) + 1
	FROM
		segments
	WHERE
		Identifier LIKE ?
		AND Start >= ?
		AND Start <= ?;`
	getImgDataTmpl = `SELECT
		Row,
		MAX(DBHigh),
		TimeBucket
	FROM (
		SELECT
			Row,
			DBHigh,
			NTILE (?) OVER (ORDER BY Start) TimeBucket
		FROM
			segments
		WHERE
			Identifier LIKE ?
			AND Start >= ?
			AND Start <= ?
	)
	GROUP BY TimeBucket, Row;`
)

// getColor determines the color of a pixel based on a color gradient and a pixel "level":
// linear interpolation between the two anchor colors bracketing the level.
// http://www.andrewnoske.com/wiki/Code_-_heatmaps_and_color_gradients
func getColor(lvl uint16) color.RGBA {
	step := math.MaxUint16 / float64(len(colors))
	for i := 1; i < len(colors); i++ {
		currV := float64(i) * step
		if float64(lvl) >= currV {
			continue
		}
		prevC := colors[i-1]
		currC := colors[i]
		fract := (float64(lvl) - (currV - step)) / step
		lerp := func(a, b uint8) uint8 {
			return uint8(float64(a) + (float64(b)-float64(a))*fract)
		}
		return color.RGBA{
			lerp(prevC.R, currC.R),
			lerp(prevC.G, currC.G),
			lerp(prevC.B, currC.B),
			lerp(prevC.A, currC.A),
		}
	}
	return colors[len(colors)-1]
}

func main() {
	// Set defaults for glog flags. Can be overridden via cmdline.
	flag.Set("logtostderr", "false")
	flag.Set("stderrthreshold", "WARNING")
	flag.Set("v", "1")
	// Parse flags globally.
	flag.Parse()

	startTime, err := time.Parse(timeFmt, *startTimeRaw)
	if err != nil {
		glog.Fatalf("unable to parse startTime (value: %q, format: %q): %s", *startTimeRaw, timeFmt, err)
	}
	endTime, err := time.Parse(timeFmt, *endTimeRaw)
	if err != nil {
		glog.Fatalf("unable to parse endTime (value: %q, format: %q): %s", *endTimeRaw, timeFmt, err)
	}

	db, err := sql.Open("sqlite3", *sqliteFile)
	if err != nil {
		glog.Fatalf("unable to open sqlite DB %q: %s", *sqliteFile, err)
	}

	var imgWidth int
	if err := db.QueryRow(getRowCountTmpl, *identifier, startTime.UnixMilli(), endTime.UnixMilli()).Scan(&imgWidth); err != nil {
		glog.Fatal(err)
	}
	if imgWidth == 0 {
		glog.Exit("no segments match the given filters")
	}

	statement, err := db.Prepare(getImgDataTmpl)
	if err != nil {
		glog.Fatal(err)
	}
	imgData, err := statement.Query(*imgHeight, *identifier, startTime.UnixMilli(), endTime.UnixMilli())
	if err != nil {
		glog.Fatal(err)
	}

	globalMinDB := float32(1000)  // assuming no dB value will be higher than this so it constantly gets corrected downwards
	globalMaxDB := float32(-1000) // assuming no dB value will be lower than this so it constantly gets corrected upwards

	img := map[int]map[int]float32{}
	for imgData.Next() {
		var rowPos int
		var db float32
		var timeBucket int
		if err := imgData.Scan(&rowPos, &db, &timeBucket); err != nil {
			glog.Warningf("unable to get segment from DB: %s\n", err)
			continue
		}

		if db < globalMinDB {
			globalMinDB = db
		}
		if db > globalMaxDB {
			globalMaxDB = db
		}

		if _, ok := img[timeBucket]; !ok {
			img[timeBucket] = map[int]float32{}
		}
		img[timeBucket][rowPos] = db
	}
	imgData.Close()

	fmt.Printf("Rendering image (%d x %d)\n", imgWidth, *imgHeight)
	canvas := image.NewRGBA(image.Rectangle{
		Min: image.Point{0, 0},
		Max: image.Point{imgWidth, *imgHeight},
	})
	dbRange := globalMaxDB - globalMinDB
	if dbRange == 0 {
		dbRange = 1
	}
	for rowIdx, row := range img {
		for columnIdx, db := range row {
			lvl := uint16((db - globalMinDB) * math.MaxUint16 / dbRange)
			canvas.SetRGBA(columnIdx, rowIdx, getColor(lvl))
		}
	}

	fmt.Printf("Writing image to %q\n", *imgPath)
	f, err := os.Create(*imgPath)
	if err != nil {
		glog.Fatalf("unable to create %q: %s", *imgPath, err)
	}
	defer f.Close()
	switch {
	case strings.HasSuffix(*imgPath, ".png"):
		png.Encode(f, canvas)
	case strings.HasSuffix(*imgPath, ".jpg"):
		jpeg.Encode(f, canvas, &jpeg.Options{Quality: jpeg.DefaultQuality})
	}
}
