package voice

import (
	"encoding/binary"
	"fmt"
	"io"
	"os/exec"

	"layeh.com/gopus"
)

// openPCM spawns ffmpeg decoding the stream URL into raw s16le PCM.
func openPCM(streamURL string) (io.ReadCloser, func(), error) {
	cmd := exec.Command("ffmpeg",
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_delay_max", "5",
		"-i", streamURL,
		"-f", "s16le",
		"-ar", fmt.Sprintf("%d", sampleRate),
		"-ac", fmt.Sprintf("%d", channels),
		"-loglevel", "warning",
		"pipe:1",
	)

	reader, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("stdout pipe error: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("command start error: %w", err)
	}

	cleanup := func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	}

	return reader, cleanup, nil
}

// encodeLoop reads PCM frames, encodes them to opus and feeds the voice
// connection until the stream ends or stop is closed. Returns io.EOF (or
// ErrUnexpectedEOF on a truncated last frame) for a natural end.
func (a *AudioSession) encodeLoop(pcm io.ReadCloser, stop <-chan struct{}) error {
	encoder, err := gopus.NewEncoder(sampleRate, channels, gopus.Audio)
	if err != nil {
		return fmt.Errorf("encoder error: %w", err)
	}

	defer pcm.Close()

	pcmBuf := make([]byte, frameSize*channels*2)
	intBuf := make([]int16, frameSize*channels)

	for {
		select {
		case <-stop:
			return nil
		default:
		}

		if _, err := io.ReadFull(pcm, pcmBuf); err != nil {
			return err
		}

		for i := range intBuf {
			intBuf[i] = int16(binary.LittleEndian.Uint16(pcmBuf[i*2 : i*2+2]))
		}

		opus, err := encoder.Encode(intBuf, frameSize, len(pcmBuf))
		if err != nil {
			return fmt.Errorf("encode error: %w", err)
		}

		select {
		case a.vc.OpusSend <- opus:
		case <-stop:
			return nil
		}
	}
}
