package main

import (
	"context"
	"database/sql"
	"flag"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-sql-driver/mysql"
	"github.com/golang/glog"

	"github.com/hb9tf/sigsift/export"
	"github.com/hb9tf/sigsift/sdr"

	// Blind import support for sqlite3 used by the sqlite exporter.
	_ "github.com/mattn/go-sqlite3"
)

// Flags
var (
	listen   = flag.String("listen", ":8443", "address and port to listen on")
	certFile = flag.String("certFile", "", "Path of the file containing the certificate (including the chained intermediates and root) for the TLS connection.")
	keyFile  = flag.String("keyFile", "", "Path of the file containing the key for the TLS connection.")
	output   = flag.String("output", "", "Export mechanism to use (one of: csv, iq, sqlite, mysql)")

	// IQ writer
	outputPath = flag.String("outputPath", "recordings", "Output folder for IQ segment files.")
	label      = flag.String("label", "collected", "Label for IQ segment files.")

	// SQLite
	sqliteFile = flag.String("sqliteFile", "/tmp/sigsift", "File path of the sqlite DB file to use.")

	// MySQL
	mysqlServer       = flag.String("mysqlServer", "127.0.0.1:3306", "MySQL TCP server endpoint to connect to (IP/DNS and port).")
	mysqlUser         = flag.String("mysqlUser", "", "MySQL DB user.")
	mysqlPasswordFile = flag.String("mysqlPasswordFile", "", "Path to the file containing the password for the MySQL user.")
	mysqlDBName       = flag.String("mysqlDBName", "sigsift", "Name of the DB to use.")
)

const collectEndpoint = "/sigsift/v1/collect"

type collectServer struct {
	segments chan sdr.Segment
}

func (s *collectServer) collectHandler(c *gin.Context) {
	batch := []export.WireSegment{}
	if err := c.BindJSON(&batch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": err.Error()})
		return
	}
	accepted := 0
	for _, w := range batch {
		segment, err := export.FromWire(w)
		if err != nil {
			glog.Warningf("dropping malformed segment (%s/%s seq %d row %d): %s\n", w.Source, w.Identifier, w.Sequence, w.Row, err)
			continue
		}
		s.segments <- segment
		accepted++
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "segmentCount": accepted})
}

func main() {
	ctx := context.Background()
	// Set defaults for glog flags. Can be overridden via cmdline.
	flag.Set("logtostderr", "false")
	flag.Set("stderrthreshold", "WARNING")
	flag.Set("v", "1")
	// Parse flags globally.
	flag.Parse()

	// Exporter setup
	var exporter export.Exporter
	switch strings.ToLower(*output) {
	case "csv":
		exporter = &export.CSV{}
	case "iq":
		exporter = &export.IQWriter{
			Dir:   *outputPath,
			Label: *label,
		}
	case "sqlite":
		db, err := sql.Open("sqlite3", *sqliteFile)
		if err != nil {
			glog.Exitf("unable to open sqlite DB %q: %s", *sqliteFile, err)
		}
		exporter = &export.SQLite{
			DB: db,
		}
	case "mysql":
		pass, err := os.ReadFile(*mysqlPasswordFile)
		if err != nil {
			glog.Exitf("unable to read MySQL password file %q: %s\n", *mysqlPasswordFile, err)
		}
		cfg := mysql.Config{
			User:   *mysqlUser,
			Passwd: strings.TrimSpace(string(pass)),
			Net:    "tcp",
			Addr:   *mysqlServer,
			DBName: *mysqlDBName,
		}
		db, err := sql.Open("mysql", cfg.FormatDSN())
		if err != nil {
			glog.Exitf("unable to open MySQL DB %q: %s", *mysqlServer, err)
		}
		db.SetConnMaxLifetime(3 * time.Minute)
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		exporter = &export.MySQL{
			DB: db,
		}
	default:
		glog.Exitf("%q is not a supported export method, pick one of: csv, iq, sqlite, mysql", *output)
	}

	// Export segments.
	segments := make(chan sdr.Segment, 100)
	go func() {
		if err := exporter.Write(ctx, segments); err != nil {
			glog.Fatal(err)
		}
	}()

	// Configure and run webserver.
	s := &collectServer{segments: segments}
	router := gin.Default()
	router.POST(collectEndpoint, s.collectHandler)
	if *certFile != "" || *keyFile != "" {
		glog.Fatal(router.RunTLS(*listen, *certFile, *keyFile))
	} else {
		glog.Infoln("Resorting to serving HTTP because there was no certificate and key defined.")
		glog.Fatal(router.Run(*listen))
	}

	glog.Flush()
}
