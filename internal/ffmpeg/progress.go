package ffmpeg

import (
	"bytes"
	"math"
	"strconv"
	"strings"
)

// progressWriter consumes `-progress` key=value lines and reports the
// encoded output position in seconds.
type progressWriter struct {
	buf    []byte
	onTime func(seconds float64)
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.buf = append(p.buf, b...)
	for {
		i := bytes.IndexByte(p.buf, '\n')
		if i < 0 {
			break
		}
		p.line(string(p.buf[:i]))
		p.buf = p.buf[i+1:]
	}
	return len(b), nil
}

func (p *progressWriter) line(l string) {
	key, value, ok := strings.Cut(strings.TrimSpace(l), "=")
	if !ok {
		return
	}
	// out_time_ms is microseconds too, despite its name.
	if key != "out_time_us" && key != "out_time_ms" {
		return
	}
	us, err := strconv.ParseInt(value, 10, 64)
	if err != nil || us < 0 {
		return
	}
	p.onTime(float64(us) / 1e6)
}

// chunkCounter turns output positions into monotonically increasing
// audio chunk counts.
type chunkCounter struct {
	chunk  float64 // seconds per chunk
	total  int
	done   int
	report func(done, total int)
}

func newChunkCounter(duration float64, samples, sampleRate int, report func(done, total int)) *chunkCounter {
	chunk := float64(samples) / float64(sampleRate)
	total := int(math.Ceil(duration / chunk))
	if total < 1 {
		total = 1
	}
	return &chunkCounter{chunk: chunk, total: total, report: report}
}

func (c *chunkCounter) at(seconds float64) {
	done := int(seconds / c.chunk)
	if done > c.total {
		done = c.total
	}
	if done <= c.done {
		return
	}
	c.done = done
	c.report(done, c.total)
}

func (c *chunkCounter) finish() {
	if c.done < c.total {
		c.done = c.total
		c.report(c.total, c.total)
	}
}
