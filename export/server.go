package export

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/hb9tf/sigsift/sdr"
	"github.com/hb9tf/sigsift/stats"
)

const (
	contentType              = "application/json"
	collectEndpoint          = "sigsift/v1/collect"
	defaultSendSegmentAmount = 10
)

// WireSegment is the JSON representation of a segment sent to a sigsift
// collection server. The IQ payload is base64-encoded cf32.
type WireSegment struct {
	Identifier     string  `json:"identifier"`
	Source         string  `json:"source"`
	Sequence       int64   `json:"sequence"`
	Row            int     `json:"row"`
	FreqCenter     int64   `json:"freqCenter"`
	SampleRate     int64   `json:"sampleRate"`
	DBAvg          float64 `json:"dbAvg"`
	DBHigh         float64 `json:"dbHigh"`
	StartUnixMilli int64   `json:"startUnixMilli"`
	IQ             string  `json:"iq"`
}

// ToWire converts a segment into its wire form.
func ToWire(s sdr.Segment) WireSegment {
	return WireSegment{
		Identifier:     s.Identifier,
		Source:         s.Source,
		Sequence:       s.Sequence,
		Row:            s.Row,
		FreqCenter:     s.FreqCenter,
		SampleRate:     s.SampleRate,
		DBAvg:          s.DBAvg,
		DBHigh:         s.DBHigh,
		StartUnixMilli: s.Start.UnixMilli(),
		IQ:             base64.StdEncoding.EncodeToString(sdr.EncodeCF32(nil, s.IQ)),
	}
}

// FromWire converts a wire segment back, decoding the IQ payload.
func FromWire(w WireSegment) (sdr.Segment, error) {
	raw, err := base64.StdEncoding.DecodeString(w.IQ)
	if err != nil {
		return sdr.Segment{}, fmt.Errorf("unable to decode IQ payload: %s", err)
	}
	iq, err := sdr.DecodeCF32(raw)
	if err != nil {
		return sdr.Segment{}, err
	}
	return sdr.Segment{
		Identifier: w.Identifier,
		Source:     w.Source,
		Sequence:   w.Sequence,
		Row:        w.Row,
		FreqCenter: w.FreqCenter,
		SampleRate: w.SampleRate,
		DBAvg:      w.DBAvg,
		DBHigh:     w.DBHigh,
		Start:      time.UnixMilli(w.StartUnixMilli),
		IQ:         iq,
	}, nil
}

// Server batches segments and POSTs them as JSON to a sigsift collection
// server.
type Server struct {
	// Server is the URL scheme, address and port of the collection server.
	Server string
	// SendSegmentsAmount defines how many segments are sent per request.
	SendSegmentsAmount int
}

func (s *Server) Write(ctx context.Context, segments <-chan sdr.Segment) error {
	type collectResponse struct {
		Status       string `json:"status"`
		SegmentCount int    `json:"segmentCount"`
	}

	sendSegmentsAmount := defaultSendSegmentAmount
	if s.SendSegmentsAmount > 0 {
		sendSegmentsAmount = s.SendSegmentsAmount
	}

	var batch []WireSegment
	for segment := range segments {
		batch = append(batch, ToWire(segment))
		if len(batch) < sendSegmentsAmount {
			continue // we haven't collected enough segments to send yet
		}

		body, err := json.Marshal(batch)
		if err != nil {
			glog.Warningf("error marshalling segments to JSON: %s\n", err)
			continue
		}

		resp, err := http.Post(fmt.Sprintf("%s/%s", strings.TrimRight(s.Server, "/"), collectEndpoint), contentType, bytes.NewBuffer(body))
		if err != nil {
			glog.Warningf("error POSTing segments: %s\n", err)
			continue
		}
		collectResponseBody := collectResponse{}
		json.NewDecoder(resp.Body).Decode(&collectResponseBody)
		resp.Body.Close()
		glog.Infof("submitted %v segments to server %s", collectResponseBody.SegmentCount, s.Server)
		stats.SegmentsExported.Add(float64(len(batch)))

		batch = nil
	}

	return nil
}
