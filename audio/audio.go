package audio

import (
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/jsphweid/seqconv/errs"
	"github.com/jsphweid/seqconv/util"
	"github.com/pkg/errors"
)

// how much of a sound's tail is repeated when it has to be stretched
const DefaultLoopSeconds = 0.370

const outputBitDepth = 16

type pcm struct {
	data       []int
	sampleRate int
	channels   int
	bitDepth   int
}

func (p pcm) frames() int {
	if p.channels == 0 {
		return 0
	}
	return len(p.data) / p.channels
}

func (p pcm) seconds() float64 {
	if p.sampleRate == 0 {
		return 0
	}
	return float64(p.frames()) / float64(p.sampleRate)
}

func openDecoder(path string) (*os.File, *wav.Decoder, error) {
	resolved, ok := util.FindPath(path)
	if !ok {
		return nil, nil, errs.MissingDataf("could not find sound file %v", path)
	}
	f, err := os.Open(resolved)
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}
	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		f.Close()
		return nil, nil, errs.Formatf("%v is not a wav file", path)
	}
	return f, d, nil
}

// Duration in seconds of a wav file.
func Duration(path string) (float64, error) {
	f, d, err := openDecoder(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	dur, err := d.Duration()
	if err != nil {
		return 0, errors.Wrap(err, "could not read duration of "+path)
	}
	return dur.Seconds(), nil
}

func read(path string) (pcm, error) {
	f, d, err := openDecoder(path)
	if err != nil {
		return pcm{}, err
	}
	defer f.Close()

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return pcm{}, errors.Wrap(err, "could not decode "+path)
	}
	return pcm{
		data:       buf.Data,
		sampleRate: int(d.SampleRate),
		channels:   int(d.NumChans),
		bitDepth:   int(d.BitDepth),
	}, nil
}

func write(path string, p pcm) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, p.sampleRate, p.bitDepth, p.channels, 1)
	buf := &audio.IntBuffer{
		Data:           p.data,
		Format:         &audio.Format{SampleRate: p.sampleRate, NumChannels: p.channels},
		SourceBitDepth: p.bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(enc.Close())
}

// Clip writes the first seconds of in to out. Sounds shorter than that are
// stretched by repeating their last DefaultLoopSeconds.
func Clip(in, out string, seconds float64) error {
	src, err := read(in)
	if err != nil {
		return err
	}
	ch := src.channels
	target := int(math.Round(seconds * float64(src.sampleRate)))
	loop := int(math.Round(DefaultLoopSeconds * float64(src.sampleRate)))

	data := src.data
	if len(data) == 0 {
		data = make([]int, target*ch)
	}
	for len(data)/ch < target {
		var tail []int
		if len(data)/ch < loop {
			tail = append(tail, data...)
		} else {
			tail = append(tail, data[len(data)-loop*ch:]...)
		}
		data = append(data, tail...)
	}

	src.data = data[:target*ch]
	return write(out, src)
}

func scale(sample, fromDepth, toDepth int) int {
	if fromDepth == toDepth || fromDepth == 0 {
		return sample
	}
	if fromDepth > toDepth {
		return sample >> (fromDepth - toDepth)
	}
	return sample << (toDepth - fromDepth)
}

type Placement struct {
	Path    string
	Seconds float64
}

// MixBGM lays the clips over silence at their start times and writes a 16 bit
// wav at least end seconds long.
func MixBGM(clips []Placement, end float64, out string) error {
	var sources []pcm
	sampleRate := 0
	channels := 1
	longest := end

	for _, c := range clips {
		p, err := read(c.Path)
		if err != nil {
			return err
		}
		if sampleRate == 0 {
			sampleRate = p.sampleRate
		} else if p.sampleRate != sampleRate {
			return errs.Formatf("bgm clip %v is %d Hz, expected %d Hz", c.Path, p.sampleRate, sampleRate)
		}
		if p.channels > channels {
			channels = p.channels
		}
		if d := c.Seconds + p.seconds(); d > longest {
			longest = d
		}
		sources = append(sources, p)
	}
	if sampleRate == 0 {
		sampleRate = 48000
	}

	frames := int(math.Ceil(longest * float64(sampleRate)))
	mixed := make([]int, frames*channels)
	for i, p := range sources {
		offset := int(math.Round(clips[i].Seconds * float64(sampleRate)))
		for f := 0; f < p.frames(); f++ {
			if offset+f >= frames {
				break
			}
			for c := 0; c < channels; c++ {
				s := p.data[f*p.channels+(c%p.channels)]
				mixed[(offset+f)*channels+c] += scale(s, p.bitDepth, outputBitDepth)
			}
		}
	}

	limit := 1<<(outputBitDepth-1) - 1
	for i, v := range mixed {
		if v > limit {
			mixed[i] = limit
		} else if v < -limit-1 {
			mixed[i] = -limit - 1
		}
	}

	return write(out, pcm{data: mixed, sampleRate: sampleRate, channels: channels, bitDepth: outputBitDepth})
}
