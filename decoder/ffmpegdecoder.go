package decoder

import (
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/acoliver/soundcore/internal/logging"
)

// FFmpegDecoder decodes an arbitrary media file into raw 16-bit PCM by
// piping it through an ffmpeg subprocess, grounded directly on the
// Input/Output/WithOutput/Compile pipeline in audio/ffmpegbase.go, but
// adapted from that file's push-into-a-channel shape into the pull-based
// Decode([]byte) the streaming engine calls synchronously.
//
// Seeking and rewinding restart the subprocess at a new -ss offset since
// ffmpeg's pipe output can't seek backward once bytes have been written.
type FFmpegDecoder struct {
	path       string
	freq       uint32
	channels   int
	ffmpegPath string

	mu         sync.Mutex
	cmd        *exec.Cmd
	pipeReader io.ReadCloser
	posMS      uint32
	lengthSec  float32
	looping    bool
	err        error
}

// NewFFmpegDecoder opens path for decoding at freq/channels (both fixed —
// ffmpeg resamples/remixes as needed, matching the spec's delegation of
// format/rate conversion to the backend's concerns, done here by ffmpeg
// instead since this decoder targets software mixing). lengthSec may be
// 0 if unknown; it is only used for Length().
func NewFFmpegDecoder(path string, freq uint32, channels int, lengthSec float32, ffmpegPath string) (*FFmpegDecoder, error) {
	d := &FFmpegDecoder{
		path:       path,
		freq:       freq,
		channels:   channels,
		lengthSec:  lengthSec,
		ffmpegPath: ffmpegPath,
	}
	if err := d.startAt(0); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *FFmpegDecoder) startAt(posMS uint32) error {
	if d.cmd != nil {
		d.killLocked()
	}

	pipeReader, pipeWriter := io.Pipe()
	d.pipeReader = pipeReader

	inputArgs := ffmpeg.KwArgs{}
	if posMS > 0 {
		inputArgs["ss"] = fmt.Sprintf("%.3f", float64(posMS)/1000)
	}
	outputArgs := ffmpeg.KwArgs{
		"f":             "s16le",
		"c:a":           "pcm_s16le",
		"ar":            fmt.Sprintf("%d", d.freq),
		"ac":            fmt.Sprintf("%d", d.channels),
		"flush_packets": "1",
	}

	node := ffmpeg.Input(d.path, inputArgs)
	cmdBuilder := node.Output("pipe:", outputArgs).WithOutput(pipeWriter).ErrorToStdOut()
	if d.ffmpegPath != "" {
		cmdBuilder.SetFfmpegPath(d.ffmpegPath)
	}
	d.cmd = cmdBuilder.Compile()

	log := logging.WithOp(logging.Logger(), "decoder.ffmpeg.start")
	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg decoder: start %s: %w", d.path, err)
	}

	go func() {
		err := d.cmd.Wait()
		if err != nil && !strings.Contains(err.Error(), "signal: killed") {
			log.Warn("ffmpeg process exited with error", "path", d.path, "err", err)
		}
		pipeWriter.Close()
	}()

	d.posMS = posMS
	d.err = nil
	return nil
}

func (d *FFmpegDecoder) killLocked() {
	if d.cmd != nil && d.cmd.Process != nil {
		_ = d.cmd.Process.Kill()
	}
	if d.pipeReader != nil {
		d.pipeReader.Close()
	}
}

func (d *FFmpegDecoder) Decode(out []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.err == ErrEndOfFile {
		return 0, ErrEndOfFile
	}

	n, err := io.ReadFull(d.pipeReader, out)
	bytesPerSecond := float64(d.freq) * float64(d.channels) * 2
	if n > 0 && bytesPerSecond > 0 {
		d.posMS += uint32(float64(n) / bytesPerSecond * 1000)
	}

	switch {
	case err == nil:
		return n, nil
	case err == io.ErrUnexpectedEOF || err == io.EOF:
		if d.looping {
			// Restart the subprocess at the beginning rather than reporting
			// EndOfFile, mirroring MemDecoder's pos-reset-and-continue loop.
			if startErr := d.startAt(0); startErr != nil {
				d.err = startErr
				return n, startErr
			}
			return n, nil
		}
		d.err = ErrEndOfFile
		return n, ErrEndOfFile
	default:
		d.err = err
		return n, err
	}
}

func (d *FFmpegDecoder) DecodeAll() ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	data, err := io.ReadAll(d.pipeReader)
	d.err = ErrEndOfFile
	if err != nil {
		return data, err
	}
	return data, nil
}

func (d *FFmpegDecoder) Rewind() error {
	_, err := d.Seek(0)
	return err
}

func (d *FFmpegDecoder) Seek(posMS uint32) (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.startAt(posMS); err != nil {
		return 0, err
	}
	return posMS, nil
}

func (d *FFmpegDecoder) GetTime() float32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return float32(d.posMS) / 1000
}

func (d *FFmpegDecoder) Length() float32    { return d.lengthSec }
func (d *FFmpegDecoder) Frequency() uint32   { return d.freq }
func (d *FFmpegDecoder) Format() Format      { return Format{Bits: 16, Channels: d.channels} }

func (d *FFmpegDecoder) Looping() bool     { d.mu.Lock(); defer d.mu.Unlock(); return d.looping }
func (d *FFmpegDecoder) SetLooping(v bool) { d.mu.Lock(); d.looping = v; d.mu.Unlock() }

func (d *FFmpegDecoder) Error() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

func (d *FFmpegDecoder) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.killLocked()
	return nil
}
