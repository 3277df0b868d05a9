package constants

import "os"

func GetOutDir() string {
	path := os.Getenv("SEQCONV_OUT_PATH")
	if path != "" {
		return path
	}
	return "./out"
}

func GetSoundDir() string {
	return os.Getenv("SEQCONV_SOUND_PATH")
}

func GetServeAddr() string {
	addr := os.Getenv("SEQCONV_ADDR")
	if addr != "" {
		return addr
	}
	return ":8080"
}

const (
	GuitarSoundMetadataFilename = "g_metadata.json"
	DrumSoundMetadataFilename   = "d_metadata.json"
	ManifestFilename            = "package.json"
)

// music databases given as a folder are read from this file in it
// TODO: read the music csv location from the environment as well
const MusicCSVFilename = "gitadora_music.csv"

// music databases named "dynamodb:<table>" are read from this endpoint
func GetDynamoEndpoint() string {
	endpoint := os.Getenv("SEQCONV_DYNAMO_ENDPOINT")
	if endpoint != "" {
		return endpoint
	}
	return "http://localhost:8000"
}

const DynamoPrefix = "dynamodb:"
