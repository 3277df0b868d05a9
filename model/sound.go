package model

const FlagNoFilename = "NoFilename"

// sounds at or above this id are "mutable": a new one cuts off the last
const MutableSoundID = 100

type SoundEntry struct {
	SoundID  int      `json:"sound_id"`
	Filename string   `json:"filename,omitempty"`
	Volume   int      `json:"volume"`
	Pan      int      `json:"pan"`
	Duration float64  `json:"duration,omitempty"`
	Flags    []string `json:"flags,omitempty"`
	Clipped  bool     `json:"clipped,omitempty"`
}

func (e SoundEntry) NoFilename() bool {
	for _, f := range e.Flags {
		if f == FlagNoFilename {
			return true
		}
	}
	return e.Filename == ""
}

type SoundBank struct {
	Type          string         `json:"type,omitempty"`
	Version       int            `json:"version,omitempty"`
	GdxTypeUnk1   int            `json:"gdx_type_unk1"`
	GdxVolumeFlag int            `json:"gdx_volume_flag"`
	Defaults      map[string]int `json:"defaults,omitempty"`
	Entries       []SoundEntry   `json:"entries"`
}

func (b *SoundBank) Entry(id int) (SoundEntry, bool) {
	if b == nil {
		return SoundEntry{}, false
	}
	for _, e := range b.Entries {
		if e.SoundID == id {
			return e, true
		}
	}
	return SoundEntry{}, false
}

type SoundMetadata struct {
	Guitar *SoundBank `json:"guitar"`
	Drum   *SoundBank `json:"drum"`
}

func (m SoundMetadata) For(g GameType) *SoundBank {
	if g.IsDrum() {
		return m.Drum
	}
	return m.Guitar
}

type BGMClip struct {
	Filename  string  `json:"filename"`
	Timestamp float64 `json:"timestamp"`
}

type BGM struct {
	End  float64   `json:"end"`
	Data []BGMClip `json:"data"`
}
