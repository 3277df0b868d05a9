package model

// SongInfo is one music database record.
type SongInfo struct {
	Title  string
	Artist string
	BPM    float64
	BPM2   float64
	// drum, guitar then bass, five difficulties each
	Difficulty []int
	// classics difficulties, four per game type starting with drum
	ClassicsDifficulty []int
}

// Level for a part and difficulty, 0 when unknown.
func (s SongInfo) Level(g GameType, difficulty int) int {
	idx := int(g)*5 + difficulty
	if g > GameBass || idx < 0 || idx >= len(s.Difficulty) {
		return 0
	}
	return s.Difficulty[idx]
}

func (s SongInfo) ClassicsLevel(g GameType, difficulty int) int {
	idx := int(g)*4 + difficulty
	if idx < 0 || idx >= len(s.ClassicsDifficulty) {
		return 0
	}
	return s.ClassicsDifficulty[idx]
}

// Classics returns a copy whose levels are the classics ones, for formats
// that only ship the four classics difficulties.
func (s SongInfo) Classics() SongInfo {
	res := s
	res.Difficulty = make([]int, 15)
	for g := GameDrum; g <= GameBass; g++ {
		for diff := 0; diff < 4; diff++ {
			res.Difficulty[int(g)*5+diff] = s.ClassicsLevel(g, diff)
		}
	}
	return res
}
