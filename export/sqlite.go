package export

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/golang/glog"

	"github.com/hb9tf/sigsift/sdr"
	"github.com/hb9tf/sigsift/stats"
)

const (
	sqliteSegmentCountInfo = 100

	sqliteCreateTableTmpl = `CREATE TABLE IF NOT EXISTS segments (
		"ID"           INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
		"Identifier"   TEXT NOT NULL,
		"Source"       TEXT NOT NULL,
		"Sequence"     INTEGER,
		"Row"          INTEGER,
		"FreqCenter"   INTEGER,
		"SampleRate"   INTEGER,
		"DBAvg"        REAL,
		"DBHigh"       REAL,
		"Start"        INTEGER,
		"IQ"           BLOB
	);`
	sqliteInsertSegmentTmpl = `INSERT INTO segments (
		Identifier,
		Source,
		Sequence,
		Row,
		FreqCenter,
		SampleRate,
		DBAvg,
		DBHigh,
		Start,
		IQ
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`
)

// SQLite indexes segment metadata and the raw cf32 payload in a sqlite DB.
type SQLite struct {
	DB *sql.DB
}

func (s *SQLite) Write(ctx context.Context, segments <-chan sdr.Segment) error {
	if err := sqliteCreateTableIfNotExists(s.DB); err != nil {
		return fmt.Errorf("unable to create table: %s", err)
	}

	counts := map[string]int{
		"error":   0,
		"success": 0,
		"total":   0,
	}
	for segment := range segments {
		counts["total"] += 1
		if err := sqliteInsertSegment(s.DB, segment); err != nil {
			counts["error"] += 1
			glog.Warningf("error storing in sqlite DB: %s\n", err)
			continue
		}
		counts["success"] += 1
		stats.SegmentsExported.Inc()
		if counts["total"]%sqliteSegmentCountInfo == 0 {
			glog.Infof("Segment export counts: %+v\n", counts)
		}
	}

	return nil
}

func sqliteCreateTableIfNotExists(db *sql.DB) error {
	statement, err := db.Prepare(sqliteCreateTableTmpl)
	if err != nil {
		return err
	}
	if _, err := statement.Exec(); err != nil {
		return err
	}

	return nil
}

func sqliteInsertSegment(db *sql.DB, s sdr.Segment) error {
	statement, err := db.Prepare(sqliteInsertSegmentTmpl)
	if err != nil {
		return err
	}
	raw := sdr.EncodeCF32(make([]byte, 0, 8*len(s.IQ)), s.IQ)
	if _, err := statement.Exec(s.Identifier, s.Source, s.Sequence, s.Row, s.FreqCenter, s.SampleRate, s.DBAvg, s.DBHigh, s.Start.UnixMilli(), raw); err != nil {
		return err
	}

	return nil
}
