// Package voice transcodes upstream voice-note audio into Opus, the
// only codec the messaging platform accepts for voice messages.
package voice

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// FFmpegTranscoder shells out to ffmpeg, reading the source over HTTP
// and writing an Ogg/Opus stream to stdout.
type FFmpegTranscoder struct {
	// Binary overrides the ffmpeg path. Empty means "ffmpeg" on PATH.
	Binary string
}

// Transcode fetches and converts the audio at audioURL.
func (t *FFmpegTranscoder) Transcode(ctx context.Context, audioURL string) ([]byte, error) {
	binary := t.Binary
	if binary == "" {
		binary = "ffmpeg"
	}

	var out, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary,
		"-hide_banner", "-loglevel", "error",
		"-i", audioURL,
		"-c:a", "libopus", "-b:a", "32k",
		"-f", "ogg", "-",
	)
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("transcode %s: %w (%s)", audioURL, err, strings.TrimSpace(stderr.String()))
	}
	if out.Len() == 0 {
		return nil, fmt.Errorf("transcode %s: empty output", audioURL)
	}
	return out.Bytes(), nil
}
