package sdr

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/golang/glog"
)

const (
	rtlSourceName = "rtl_sdr"
	rtlCommand    = "rtl_sdr"

	// Number of buffers the reader goroutine may queue before it starts
	// dropping. Kept small so a slow consumer surfaces as an overflow
	// instead of unbounded latency.
	rtlQueueDepth = 4
)

// RTLSDR streams complex baseband samples from an RTL-SDR dongle by running
// the rtl_sdr command and reading its unsigned 8-bit IQ output from stdout.
//
// A goroutine drains the command's stdout into a small queue of fixed-size
// blocks. When the consumer falls behind and the queue is full, blocks are
// discarded and the next Read reports ErrOverflow for the dropped interval.
type RTLSDR struct {
	FreqCenter int64
	SampleRate int64
	// Gain is the tuner gain in dB, or "agc" for automatic gain.
	Gain string

	cmd    *exec.Cmd
	blocks chan []byte

	mu      sync.Mutex
	dropped bool
}

func (s *RTLSDR) Name() string {
	return rtlSourceName
}

// args builds the rtl_sdr command line. Flags and their values are separate
// argv tokens so the command's flag parsing never sees embedded whitespace.
func (s *RTLSDR) args() []string {
	args := []string{
		"-f", fmt.Sprintf("%d", s.FreqCenter),
		"-s", fmt.Sprintf("%d", s.SampleRate),
	}
	if s.Gain != "" && s.Gain != "agc" {
		args = append(args, "-g", s.Gain)
	}
	return append(args, "-") // dump samples to stdout
}

func (s *RTLSDR) start(bufLen int) error {
	cmd := exec.Command(rtlCommand, s.args()...)
	out, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	// Start() executes command asynchronically.
	glog.Infof("Running RTL SDR capture: %q\n", cmd)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("unable to start capture: %s", err)
	}
	s.cmd = cmd
	s.blocks = make(chan []byte, rtlQueueDepth)

	go func() {
		defer close(s.blocks)
		for {
			block := make([]byte, 2*bufLen) // one u8 pair per sample
			if _, err := io.ReadFull(out, block); err != nil {
				if err != io.EOF && err != io.ErrUnexpectedEOF {
					glog.Warningf("error reading from %s: %s\n", rtlCommand, err)
				}
				return
			}
			select {
			case s.blocks <- block:
			default:
				s.mu.Lock()
				s.dropped = true
				s.mu.Unlock()
			}
		}
	}()
	go func() {
		if err := cmd.Wait(); err != nil {
			glog.Warningf("capture command ended with error: %s\n", err)
		} else {
			glog.Info("capture command ended")
		}
	}()
	return nil
}

func (s *RTLSDR) Read(ctx context.Context, buf []complex64) error {
	if s.cmd == nil {
		if err := s.start(len(buf)); err != nil {
			return err
		}
	}

	s.mu.Lock()
	dropped := s.dropped
	s.dropped = false
	s.mu.Unlock()
	if dropped {
		return ErrOverflow
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case block, ok := <-s.blocks:
		if !ok {
			return io.EOF
		}
		for i := range buf {
			re := (float32(block[2*i]) - 127.5) / 127.5
			im := (float32(block[2*i+1]) - 127.5) / 127.5
			buf[i] = complex(re, im)
		}
		return nil
	}
}

func (s *RTLSDR) Close() error {
	if s.cmd == nil {
		return nil
	}
	return s.cmd.Process.Kill()
}
