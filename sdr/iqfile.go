package sdr

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

const fileSourceName = "iqfile"

// FileSource replays a recording of interleaved little-endian complex64
// samples (cf32), the format the IQ exporter writes.
type FileSource struct {
	Path string
	// Loop restarts from the beginning of the file on EOF instead of ending
	// the stream.
	Loop bool

	f *os.File
	r *bufio.Reader
}

func (s *FileSource) Name() string {
	return fileSourceName
}

func (s *FileSource) Read(ctx context.Context, buf []complex64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.f == nil {
		f, err := os.Open(s.Path)
		if err != nil {
			return fmt.Errorf("unable to open IQ file %q: %s", s.Path, err)
		}
		s.f = f
		s.r = bufio.NewReaderSize(f, 1<<20)
	}

	raw := make([]byte, 8) // 2 x float32 per sample
	for i := range buf {
		rewound := false
		for {
			_, err := io.ReadFull(s.r, raw)
			if err == nil {
				break
			}
			if err != io.EOF && err != io.ErrUnexpectedEOF {
				return err
			}
			if !s.Loop || rewound {
				return io.EOF
			}
			if _, err := s.f.Seek(0, io.SeekStart); err != nil {
				return err
			}
			s.r.Reset(s.f)
			rewound = true
		}
		re := math.Float32frombits(binary.LittleEndian.Uint32(raw[0:4]))
		im := math.Float32frombits(binary.LittleEndian.Uint32(raw[4:8]))
		buf[i] = complex(re, im)
	}
	return nil
}

func (s *FileSource) Close() error {
	if s.f == nil {
		return nil
	}
	return s.f.Close()
}
