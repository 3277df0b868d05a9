// Package seqp reads and writes the SEQP container shared by the SQ2 and
// SQ3 formats, and prepares canonical songs for either encoder.
package seqp

import (
	"bytes"
	"encoding/binary"

	"github.com/jsphweid/seqconv/errs"
)

const (
	Magic           = "SEQP"
	ContainerHeader = 0x20
	ChunkHeader     = 0x10
	ChartHeader     = 0x20
)

// Layout holds the flag bytes that differ between container revisions.
type Layout struct {
	Version byte // 0x04
	Flag06  byte
	Flag0A  byte
	// SQ3 writes the header size at 0x10, a marker at 0x1c and a chunk flag
	Extended bool
}

var (
	LayoutSQ2 = Layout{Flag06: 0x02, Flag0A: 0x01}
	LayoutSQ3 = Layout{Version: 0x01, Flag06: 0x01, Flag0A: 0x03, Extended: true}
)

const extendedMarker = 0x12345678

// Read splits a container into its chart blobs.
func Read(data []byte) (musicID int, charts [][]byte, err error) {
	if len(data) < ContainerHeader || !bytes.Equal(data[0:4], []byte(Magic)) {
		return 0, nil, errs.Formatf("not a SEQP container")
	}

	offset := int(binary.LittleEndian.Uint32(data[0x10:0x14]))
	if offset == 0 {
		offset = ContainerHeader
	}
	musicID = int(binary.LittleEndian.Uint32(data[0x14:0x18]))
	count := int(binary.LittleEndian.Uint32(data[0x18:0x1c]))

	for i := 0; i < count; i++ {
		if offset+ChunkHeader > len(data) {
			return 0, nil, errs.Formatf("chart %d of %d starts past the end of the file", i+1, count)
		}
		size := int(binary.LittleEndian.Uint32(data[offset : offset+4]))
		if size < ChunkHeader || offset+size > len(data) {
			return 0, nil, errs.Formatf("chart %d has a corrupt size %#x", i+1, size)
		}
		charts = append(charts, data[offset+ChunkHeader:offset+size])
		offset += size
	}
	return musicID, charts, nil
}

// Write packs chart blobs into a container.
func Write(l Layout, musicID int, charts [][]byte) []byte {
	size := ContainerHeader + ChunkHeader*len(charts)
	for _, c := range charts {
		size += len(c)
	}

	out := make([]byte, ContainerHeader, size)
	copy(out[0:4], Magic)
	out[0x04] = l.Version
	out[0x06] = l.Flag06
	out[0x0a] = l.Flag0A
	binary.LittleEndian.PutUint32(out[0x0c:0x10], uint32(size))
	if l.Extended {
		binary.LittleEndian.PutUint32(out[0x10:0x14], ContainerHeader)
		binary.LittleEndian.PutUint32(out[0x1c:0x20], extendedMarker)
	}
	binary.LittleEndian.PutUint32(out[0x14:0x18], uint32(musicID))
	binary.LittleEndian.PutUint32(out[0x18:0x1c], uint32(len(charts)))

	for _, c := range charts {
		chunk := make([]byte, ChunkHeader)
		binary.LittleEndian.PutUint32(chunk[0:4], uint32(len(c)+ChunkHeader))
		if l.Extended {
			chunk[0x04] = 0x10
		}
		out = append(out, chunk...)
		out = append(out, c...)
	}
	return out
}

// Header is the 0x20 byte header of a SEQT or SQ3T chart.
type Header struct {
	Magic        string
	Flag06       byte
	Flag0A       byte
	HeaderSize   int
	Count        int
	UnkSys       byte
	IsMetadata   byte
	Difficulty   byte
	GameType     byte
	TimeDivision uint16
	BeatDivision uint16
	EntrySize    uint32
}

func ParseHeader(data []byte, magic string) (Header, error) {
	var h Header
	if len(data) < ChartHeader || !bytes.Equal(data[0:4], []byte(magic)) {
		return h, errs.Formatf("not a valid %v chart", magic)
	}
	h.Magic = magic
	h.Flag06 = data[0x06]
	h.Flag0A = data[0x0a]
	h.HeaderSize = int(binary.LittleEndian.Uint32(data[0x0c:0x10]))
	h.Count = int(binary.LittleEndian.Uint32(data[0x10:0x14]))
	h.UnkSys, h.IsMetadata, h.Difficulty, h.GameType = data[0x14], data[0x15], data[0x16], data[0x17]
	h.TimeDivision = binary.LittleEndian.Uint16(data[0x18:0x1a])
	h.BeatDivision = binary.LittleEndian.Uint16(data[0x1a:0x1c])
	h.EntrySize = binary.LittleEndian.Uint32(data[0x1c:0x20])
	return h, nil
}

// Records slices out count fixed size records, failing on a short chart.
func (h Header) Records(data []byte, size int) ([][]byte, error) {
	if h.HeaderSize < ChartHeader {
		return nil, errs.Formatf("%v header size %#x is too small", h.Magic, h.HeaderSize)
	}
	if size <= 0 {
		return nil, errs.Formatf("%v record size %d is not positive", h.Magic, size)
	}
	if h.HeaderSize > len(data) {
		return nil, errs.Formatf("%v header size %#x runs past the chart", h.Magic, h.HeaderSize)
	}
	// checked by division so a huge count cannot overflow
	if held := (len(data) - h.HeaderSize) / size; h.Count < 0 || h.Count > held {
		return nil, errs.Formatf("%v claims %d records but holds %d", h.Magic, h.Count, held)
	}
	res := make([][]byte, 0, h.Count)
	for i := 0; i < h.Count; i++ {
		off := h.HeaderSize + i*size
		res = append(res, data[off:off+size])
	}
	return res, nil
}

func (h Header) Bytes() []byte {
	out := make([]byte, ChartHeader)
	copy(out[0:4], h.Magic)
	out[0x06] = h.Flag06
	out[0x0a] = h.Flag0A
	binary.LittleEndian.PutUint32(out[0x0c:0x10], ChartHeader)
	binary.LittleEndian.PutUint32(out[0x10:0x14], uint32(h.Count))
	out[0x14], out[0x15], out[0x16], out[0x17] = h.UnkSys, h.IsMetadata, h.Difficulty, h.GameType
	binary.LittleEndian.PutUint16(out[0x18:0x1a], h.TimeDivision)
	binary.LittleEndian.PutUint16(out[0x1a:0x1c], h.BeatDivision)
	binary.LittleEndian.PutUint32(out[0x1c:0x20], h.EntrySize)
	return out
}
