package synth

import (
	"fmt"
	"time"
)

// MPEG Layer III bitrate tables, kbps, indexed by the header's bitrate
// field. Index 0 (free) and 15 (bad) are unusable.
var (
	bitratesV1 = [16]int{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0}
	bitratesV2 = [16]int{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0}

	sampleRates = map[byte][3]int{
		3: {44100, 48000, 32000}, // MPEG1
		2: {22050, 24000, 16000}, // MPEG2
		0: {11025, 12000, 8000},  // MPEG2.5
	}
)

// One MPEG-1 Layer III frame at 64 kbps, 44.1 kHz spans 1152 samples in
// 208 bytes. A frame with zeroed side info and main data decodes as
// silence.
const (
	silentFrameLen     = 208
	silentFrameSamples = 1152
	silentSampleRate   = 44100
)

// silentFrames renders seconds of silence as zeroed MPEG frames. Being
// real frames, they play back as silence and count toward the walked
// duration like any other audio.
func silentFrames(seconds int) []byte {
	if seconds <= 0 {
		return nil
	}
	frames := (seconds*silentSampleRate + silentFrameSamples - 1) / silentFrameSamples
	buf := make([]byte, frames*silentFrameLen)
	for i := 0; i < len(buf); i += silentFrameLen {
		buf[i] = 0xff
		buf[i+1] = 0xfb
		buf[i+2] = 0x50
	}
	return buf
}

// mp3Duration walks the MPEG frame headers of an MP3 stream and sums the
// per-frame durations. The duration is exact for the synthesized bytes,
// unlike estimates derived from text length or byte rate.
func mp3Duration(data []byte) (time.Duration, error) {
	// Skip a leading ID3v2 tag (synchsafe 28-bit size at bytes 6-9).
	if len(data) > 10 && data[0] == 'I' && data[1] == 'D' && data[2] == '3' {
		size := int(data[6]&0x7f)<<21 | int(data[7]&0x7f)<<14 | int(data[8]&0x7f)<<7 | int(data[9]&0x7f)
		if 10+size < len(data) {
			data = data[10+size:]
		}
	}

	var seconds float64
	frames := 0
	for i := 0; i+4 <= len(data); {
		if data[i] != 0xff || data[i+1]&0xe0 != 0xe0 {
			i++
			continue
		}
		version := (data[i+1] >> 3) & 3
		layer := (data[i+1] >> 1) & 3
		bitrateIdx := data[i+2] >> 4
		srIdx := (data[i+2] >> 2) & 3
		padding := int((data[i+2] >> 1) & 1)

		rates, ok := sampleRates[version]
		if !ok || layer != 1 || bitrateIdx == 0 || bitrateIdx == 15 || srIdx == 3 {
			i++
			continue
		}
		sampleRate := rates[srIdx]

		var kbps, samples, frameLen int
		if version == 3 {
			kbps = bitratesV1[bitrateIdx]
			samples = 1152
			frameLen = 144000*kbps/sampleRate + padding
		} else {
			kbps = bitratesV2[bitrateIdx]
			samples = 576
			frameLen = 72000*kbps/sampleRate + padding
		}
		if frameLen <= 0 {
			i++
			continue
		}

		seconds += float64(samples) / float64(sampleRate)
		frames++
		i += frameLen
	}

	if frames == 0 {
		return 0, fmt.Errorf("no MPEG audio frames found in %d bytes", len(data))
	}
	return time.Duration(seconds * float64(time.Second)), nil
}
