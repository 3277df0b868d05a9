package audio

import (
	"context"

	"github.com/hajimehoshi/oto"
	"github.com/jsphweid/seqconv/util"
	"github.com/pkg/errors"
)

// bytes of audio handed to the device per write
const playChunk = 8192

// pcm16 interleaves p as signed 16 bit little endian samples.
func pcm16(p pcm) []byte {
	buf := make([]byte, len(p.data)*2)
	for i, s := range p.data {
		v := int16(scale(s, p.bitDepth, 16))
		buf[i*2] = byte(v)
		buf[i*2+1] = byte(v >> 8)
	}
	return buf
}

// Play sends a wav to the default audio device. It returns once every
// sample was written or ctx is done.
func Play(ctx context.Context, path string) error {
	p, err := read(path)
	if err != nil {
		return err
	}
	buf := pcm16(p)

	otoCtx, err := oto.NewContext(p.sampleRate, p.channels, 2, playChunk)
	if err != nil {
		return errors.Wrap(err, "could not open audio device")
	}
	defer otoCtx.Close()
	player := otoCtx.NewPlayer()
	defer player.Close()

	for off := 0; off < len(buf); off += playChunk {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := util.Min(off+playChunk, len(buf))
		if _, err := player.Write(buf[off:end]); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}
