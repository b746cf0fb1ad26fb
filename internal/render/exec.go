package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sync"

	"github.com/mattn/go-shellwords"

	"github.com/ambiware-labs/voxweld/internal/audio"
)

// execRenderer shells out to a local synthesis command. The command
// receives a JSON request on stdin and must write a complete WAV file to
// stdout.
type execRenderer struct {
	cmd []string
	mu  sync.Mutex
}

type execRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

func NewExecRenderer(command string) (Renderer, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse backend command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("backend command empty")
	}
	return &execRenderer{cmd: args}, nil
}

func (e *execRenderer) Render(ctx context.Context, text, voice string) (audio.Waveform, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	payload, err := json.Marshal(execRequest{Text: text, Voice: voice})
	if err != nil {
		return audio.Waveform{}, fmt.Errorf("%w: %v", ErrBackend, err)
	}

	base := e.cmd[0]
	args := append([]string{}, e.cmd[1:]...)
	cmd := exec.CommandContext(ctx, base, args...)
	cmd.Stdin = bytes.NewReader(payload)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return audio.Waveform{}, fmt.Errorf("%w: %v: %s", ErrBackend, err, stderr.String())
	}

	w, err := audio.DecodeWAV(stdout.Bytes())
	if err != nil {
		return audio.Waveform{}, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	if len(w.Samples) == 0 {
		return audio.Waveform{}, ErrEmptySynthesis
	}
	return w, nil
}
