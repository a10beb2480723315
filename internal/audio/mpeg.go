package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

var (
	mpeg1L3Bitrates = [16]int{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0}
	mpeg2L3Bitrates = [16]int{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0}
	sampleRates     = [4][3]int{
		{11025, 12000, 8000},  // MPEG 2.5
		{},                    // reserved
		{22050, 24000, 16000}, // MPEG 2
		{44100, 48000, 32000}, // MPEG 1
	}
)

const (
	mpegScanLimit  = 64 * 1024
	mpegFrameSample = 32
)

var errNoMPEGFrame = errors.New("no mpeg audio frame found")

type mpegFrame struct {
	mpeg1    bool
	mono     bool
	bitrate  int
	length   int
	position int
}

func parseMPEGHeader(b []byte) (mpegFrame, bool) {
	if len(b) < 4 || b[0] != 0xFF || b[1]&0xE0 != 0xE0 {
		return mpegFrame{}, false
	}
	version := (b[1] >> 3) & 0x03
	layer := (b[1] >> 1) & 0x03
	if version == 1 || layer != 1 {
		return mpegFrame{}, false
	}
	bitrateIndex := b[2] >> 4
	rateIndex := (b[2] >> 2) & 0x03
	if bitrateIndex == 0 || bitrateIndex == 15 || rateIndex == 3 {
		return mpegFrame{}, false
	}
	padding := int((b[2] >> 1) & 0x01)
	frame := mpegFrame{mpeg1: version == 3, mono: b[3]>>6 == 3}
	sampleRate := sampleRates[version][rateIndex]
	if frame.mpeg1 {
		frame.bitrate = mpeg1L3Bitrates[bitrateIndex]
		frame.length = 144*frame.bitrate*1000/sampleRate + padding
	} else {
		frame.bitrate = mpeg2L3Bitrates[bitrateIndex]
		frame.length = 72*frame.bitrate*1000/sampleRate + padding
	}
	return frame, frame.length > 4
}

func (f mpegFrame) sideInfoSize() int {
	switch {
	case f.mpeg1 && f.mono:
		return 17
	case f.mpeg1:
		return 32
	case f.mono:
		return 9
	default:
		return 17
	}
}

// ReadMPEGMode determines the bitrate mode of an MP3 stream. A Xing or VBRI
// header marks VBR and an Info header marks CBR; otherwise the first frames
// are compared. The returned bitrate is that of the first frame in kbps.
func ReadMPEGMode(r io.ReadSeeker) (BitrateMode, int, error) {
	start, err := id3v2Size(r)
	if err != nil {
		return BitrateUnknown, 0, err
	}
	if _, err := r.Seek(start, io.SeekStart); err != nil {
		return BitrateUnknown, 0, err
	}
	buf := make([]byte, mpegScanLimit)
	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return BitrateUnknown, 0, err
	}
	buf = buf[:n]

	first, ok := findFrame(buf, 0)
	if !ok {
		return BitrateUnknown, 0, errNoMPEGFrame
	}
	if header := xingOffset(buf, first); header != "" {
		switch header {
		case "Info":
			return BitrateCBR, first.bitrate, nil
		default:
			return BitrateVBR, first.bitrate, nil
		}
	}

	pos := first.position
	seen := 0
	for seen < mpegFrameSample {
		frame, ok := parseMPEGHeader(buf[pos:])
		if !ok {
			break
		}
		if frame.bitrate != first.bitrate {
			return BitrateVBR, first.bitrate, nil
		}
		seen++
		pos += frame.length
		if pos+4 > len(buf) {
			break
		}
	}
	return BitrateCBR, first.bitrate, nil
}

func findFrame(buf []byte, from int) (mpegFrame, bool) {
	for i := from; i+4 <= len(buf); i++ {
		frame, ok := parseMPEGHeader(buf[i:])
		if !ok {
			continue
		}
		frame.position = i
		return frame, true
	}
	return mpegFrame{}, false
}

func xingOffset(buf []byte, frame mpegFrame) string {
	end := frame.position + frame.length
	if end > len(buf) {
		end = len(buf)
	}
	payload := buf[frame.position:end]
	xing := 4 + frame.sideInfoSize()
	if len(payload) >= xing+4 {
		marker := string(payload[xing : xing+4])
		if marker == "Xing" || marker == "Info" {
			return marker
		}
	}
	if len(payload) >= 36+4 && bytes.Equal(payload[36:40], []byte("VBRI")) {
		return "VBRI"
	}
	return ""
}

// id3v2Size returns the byte length of a leading ID3v2 tag, or 0.
func id3v2Size(r io.ReadSeeker) (int64, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	header := make([]byte, 10)
	if _, err := io.ReadFull(r, header); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return 0, nil
		}
		return 0, err
	}
	if string(header[:3]) != "ID3" {
		return 0, nil
	}
	raw := binary.BigEndian.Uint32(header[6:10])
	size := int64(raw&0x7F) | int64(raw>>8&0x7F)<<7 | int64(raw>>16&0x7F)<<14 | int64(raw>>24&0x7F)<<21
	size += 10
	if header[5]&0x10 != 0 {
		size += 10
	}
	return size, nil
}
