// Package ffmpeg invokes the ffmpeg binary for the two transforms the
// stitching pipeline cannot do natively: sample-rate conversion and output
// format encoding. Both run under the request's context with scoped temp
// files that are removed on every exit path.
package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-shellwords"

	"github.com/ambiware-labs/voxweld/internal/audio"
	"github.com/ambiware-labs/voxweld/internal/config"
)

type Transcoder struct {
	path      string
	extraArgs []string
	timeout   time.Duration
	log       *slog.Logger
}

func New(cfg config.FFmpegConfig, log *slog.Logger) (*Transcoder, error) {
	var extra []string
	if strings.TrimSpace(cfg.ExtraArgs) != "" {
		parser := shellwords.NewParser()
		args, err := parser.Parse(cfg.ExtraArgs)
		if err != nil {
			return nil, fmt.Errorf("parse ffmpeg extra args: %w", err)
		}
		extra = args
	}
	return &Transcoder{
		path:      cfg.Path,
		extraArgs: extra,
		timeout:   time.Duration(cfg.TimeoutMS) * time.Millisecond,
		log:       log.With(slog.String("component", "transcoder")),
	}, nil
}

// Resample converts a waveform to the target sample rate and channel
// count, preserving its duration in seconds.
func (t *Transcoder) Resample(ctx context.Context, w audio.Waveform, rate, channels int) (audio.Waveform, error) {
	in, err := audio.EncodeWAV(w)
	if err != nil {
		return audio.Waveform{}, fmt.Errorf("%w: %v", ErrResample, err)
	}

	args := []string{"-ar", strconv.Itoa(rate)}
	if channels > 0 && channels != w.Channels {
		args = append(args, "-ac", strconv.Itoa(channels))
	}
	out, err := t.run(ctx, in, args, ".wav")
	if err != nil {
		return audio.Waveform{}, fmt.Errorf("%w: %v", ErrResample, err)
	}

	resampled, err := audio.DecodeWAV(out)
	if err != nil {
		return audio.Waveform{}, fmt.Errorf("%w: decode output: %v", ErrResample, err)
	}
	t.log.Debug("resampled waveform",
		slog.Int("from_rate", w.SampleRate),
		slog.Int("to_rate", resampled.SampleRate),
		slog.Int("frames", resampled.Frames()))
	return resampled, nil
}

// Encode converts the final waveform into the requested container/codec.
// The wav target is a plain container write with no external call.
func (t *Transcoder) Encode(ctx context.Context, w audio.Waveform, format string) ([]byte, error) {
	if format == "wav" {
		data, err := audio.EncodeWAV(w)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEncode, err)
		}
		return data, nil
	}

	args, ext, err := encodeArgs(format)
	if err != nil {
		return nil, err
	}

	in, err := audio.EncodeWAV(w)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	out, err := t.run(ctx, in, args, ext)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return out, nil
}

// encodeArgs maps an output format to its codec configuration and output
// file extension.
func encodeArgs(format string) ([]string, string, error) {
	switch format {
	case "mp3":
		return []string{"-codec:a", "libmp3lame", "-q:a", "2"}, ".mp3", nil
	case "opus":
		return []string{"-codec:a", "libopus", "-b:a", "128k"}, ".opus", nil
	case "flac":
		return []string{"-codec:a", "flac"}, ".flac", nil
	case "aac":
		return []string{"-codec:a", "aac"}, ".aac", nil
	case "pcm":
		// Raw little-endian samples; ffmpeg cannot infer that from an
		// extension.
		return []string{"-f", "s16le", "-codec:a", "pcm_s16le"}, ".pcm", nil
	default:
		return nil, "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// run writes input to a temp wav, executes ffmpeg with the given output
// args, and returns the output file's bytes. Temp files never outlive the
// call.
func (t *Transcoder) run(ctx context.Context, input []byte, outputArgs []string, outExt string) ([]byte, error) {
	inFile, err := os.CreateTemp("", "voxweld_in_*.wav")
	if err != nil {
		return nil, fmt.Errorf("temp file: %w", err)
	}
	inPath := inFile.Name()
	defer os.Remove(inPath)

	if _, err := inFile.Write(input); err != nil {
		inFile.Close()
		return nil, fmt.Errorf("write temp input: %w", err)
	}
	if err := inFile.Close(); err != nil {
		return nil, fmt.Errorf("close temp input: %w", err)
	}

	outPath := strings.TrimSuffix(inPath, ".wav") + "_out" + outExt
	defer os.Remove(outPath)

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	args := []string{"-y", "-i", inPath}
	args = append(args, t.extraArgs...)
	args = append(args, outputArgs...)
	args = append(args, outPath)

	cmd := exec.CommandContext(ctx, t.path, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("ffmpeg: %w", ctxErr)
		}
		return nil, fmt.Errorf("ffmpeg: %w: %s", err, lastLine(stderr.String()))
	}

	out, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("read ffmpeg output: %w", err)
	}
	return out, nil
}

// lastLine trims ffmpeg's banner noise down to the line that usually
// carries the actual failure.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
