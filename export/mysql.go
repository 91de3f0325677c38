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
	mysqlSegmentCountInfo = 100

	mysqlCreateTableTmpl = "CREATE TABLE IF NOT EXISTS segments (" +
		"`ID`          BIGINT NOT NULL PRIMARY KEY AUTO_INCREMENT," +
		"`Identifier`  VARCHAR(64) NOT NULL," +
		"`Source`      VARCHAR(32) NOT NULL," +
		"`Sequence`    BIGINT," +
		"`SegRow`      INTEGER," +
		"`FreqCenter`  BIGINT," +
		"`SampleRate`  BIGINT," +
		"`DBAvg`       DOUBLE," +
		"`DBHigh`      DOUBLE," +
		"`Start`       BIGINT," +
		"`IQ`          MEDIUMBLOB" +
		");"
	mysqlInsertSegmentTmpl = "INSERT INTO segments (" +
		"Identifier, Source, Sequence, SegRow, FreqCenter, SampleRate, DBAvg, DBHigh, Start, IQ" +
		") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);"
)

// MySQL indexes segment metadata and the raw cf32 payload in a MySQL DB.
type MySQL struct {
	DB *sql.DB
}

func (m *MySQL) Write(ctx context.Context, segments <-chan sdr.Segment) error {
	if err := mysqlCreateTableIfNotExists(m.DB); err != nil {
		return fmt.Errorf("unable to create table: %s", err)
	}

	counts := map[string]int{
		"error":   0,
		"success": 0,
		"total":   0,
	}
	for segment := range segments {
		counts["total"] += 1
		if err := mysqlInsertSegment(m.DB, segment); err != nil {
			counts["error"] += 1
			glog.Warningf("error storing in MySQL DB: %s\n", err)
			continue
		}
		counts["success"] += 1
		stats.SegmentsExported.Inc()
		if counts["total"]%mysqlSegmentCountInfo == 0 {
			glog.Infof("Segment export counts: %+v\n", counts)
		}
	}

	return nil
}

func mysqlCreateTableIfNotExists(db *sql.DB) error {
	statement, err := db.Prepare(mysqlCreateTableTmpl)
	if err != nil {
		return err
	}
	if _, err := statement.Exec(); err != nil {
		return err
	}

	return nil
}

func mysqlInsertSegment(db *sql.DB, s sdr.Segment) error {
	statement, err := db.Prepare(mysqlInsertSegmentTmpl)
	if err != nil {
		return err
	}
	raw := sdr.EncodeCF32(make([]byte, 0, 8*len(s.IQ)), s.IQ)
	if _, err := statement.Exec(s.Identifier, s.Source, s.Sequence, s.Row, s.FreqCenter, s.SampleRate, s.DBAvg, s.DBHigh, s.Start.UnixMilli(), raw); err != nil {
		return err
	}

	return nil
}
