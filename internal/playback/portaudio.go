package playback

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// PortAudioPlayer renders PCM16LE mono WAV payloads to the default output
// device. One stream is opened per prompt; prompts are short.
type PortAudioPlayer struct {
	FramesPerBuffer int
}

func (p *PortAudioPlayer) Play(ctx context.Context, audio []byte) error {
	rate, pcm, err := parseWAV(audio)
	if err != nil {
		return err
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initialize portaudio: %w", err)
	}
	defer portaudio.Terminate()

	frames := p.FramesPerBuffer
	if frames <= 0 {
		frames = 1024
	}
	buf := make([]int16, frames)
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(rate), frames, buf)
	if err != nil {
		return fmt.Errorf("open output stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("start output stream: %w", err)
	}
	defer stream.Stop()

	for off := 0; off < len(pcm); off += frames * 2 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		for i := range buf {
			idx := off + i*2
			if idx+1 < len(pcm) {
				buf[i] = int16(binary.LittleEndian.Uint16(pcm[idx:]))
			} else {
				buf[i] = 0
			}
		}
		if err := stream.Write(); err != nil {
			return fmt.Errorf("write output stream: %w", err)
		}
	}
	return nil
}

// parseWAV extracts the sample rate and PCM body from a canonical RIFF
// header. Only PCM16 mono is accepted.
func parseWAV(audio []byte) (rate int, pcm []byte, err error) {
	if len(audio) < 44 || string(audio[0:4]) != "RIFF" || string(audio[8:12]) != "WAVE" {
		return 0, nil, fmt.Errorf("payload is not a RIFF/WAVE container")
	}
	if format := binary.LittleEndian.Uint16(audio[20:22]); format != 1 {
		return 0, nil, fmt.Errorf("unsupported WAV format %d", format)
	}
	if channels := binary.LittleEndian.Uint16(audio[22:24]); channels != 1 {
		return 0, nil, fmt.Errorf("unsupported channel count %d", channels)
	}
	if bits := binary.LittleEndian.Uint16(audio[34:36]); bits != 16 {
		return 0, nil, fmt.Errorf("unsupported bit depth %d", bits)
	}
	rate = int(binary.LittleEndian.Uint32(audio[24:28]))
	size := int(binary.LittleEndian.Uint32(audio[40:44]))
	body := audio[44:]
	if size > len(body) {
		size = len(body)
	}
	return rate, body[:size], nil
}
