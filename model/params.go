package model

import (
	"log"
)

type OutputFile struct {
	Name string
	Data []byte
	// set.def collects every part so it is appended rather than replaced
	Append bool
}

type Params struct {
	Input        string
	InputFormat  string
	Output       string
	OutputFormat string
	// part -> difficulty -> path, for formats that ship one file per chart
	InputSplit map[string]map[string]string

	Parts        []string
	Difficulty   []string
	MergeGuitars bool

	MusicID     int
	MusicDB     string
	SongInfo    *SongInfo
	SoundFolder string
	Sounds      SoundMetadata
	EventFile   string

	DTXPadStart     int
	DTXPadEnd       int
	DTXFakeTimesigs bool

	NoSounds       bool
	SingleThreaded bool

	Warn func(err error)
}

func (p *Params) Report(err error) {
	if err == nil {
		return
	}
	if p == nil || p.Warn == nil {
		log.Printf("WARNING: %v", err)
		return
	}
	p.Warn(err)
}

func (p *Params) HasPart(part string) bool {
	if p == nil || len(p.Parts) == 0 {
		return true
	}
	for _, v := range p.Parts {
		if v == part || v == "all" {
			return true
		}
	}
	return false
}

func (p *Params) Split(part, difficulty string) (string, bool) {
	if p == nil || p.InputSplit == nil {
		return "", false
	}
	path, ok := p.InputSplit[part][difficulty]
	return path, ok && path != ""
}
