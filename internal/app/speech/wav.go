package speech

import (
	"bytes"
	"encoding/binary"

	"github.com/PabloGalante/englishmaster/internal/domain"
)

const bitsPerSample = 16

// EncodeWAV wraps 16-bit little-endian PCM in a canonical RIFF/WAVE header.
func EncodeWAV(a *domain.Audio) []byte {
	channels := a.Channels
	if channels <= 0 {
		channels = 1
	}
	blockAlign := channels * bitsPerSample / 8
	byteRate := a.SampleRate * blockAlign
	dataLen := len(a.PCM)

	var buf bytes.Buffer
	buf.Grow(44 + dataLen)

	buf.WriteString("RIFF")
	le32(&buf, uint32(36+dataLen))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	le32(&buf, 16)
	le16(&buf, 1) // PCM
	le16(&buf, uint16(channels))
	le32(&buf, uint32(a.SampleRate))
	le32(&buf, uint32(byteRate))
	le16(&buf, uint16(blockAlign))
	le16(&buf, bitsPerSample)

	buf.WriteString("data")
	le32(&buf, uint32(dataLen))
	buf.Write(a.PCM)

	return buf.Bytes()
}

func le16(buf *bytes.Buffer, v uint16) {
	buf.Write(binary.LittleEndian.AppendUint16(nil, v))
}

func le32(buf *bytes.Buffer, v uint32) {
	buf.Write(binary.LittleEndian.AppendUint32(nil, v))
}
