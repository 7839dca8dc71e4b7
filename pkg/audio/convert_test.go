package audio_test

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/MrWong99/tutor/pkg/audio"
)

func samplesToBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}

func bytesToSamples(b []byte) []int16 {
	samples := make([]int16, len(b)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(b[i*2:]))
	}
	return samples
}

func TestStereoToMono(t *testing.T) {
	stereo := samplesToBytes([]int16{100, 200, -100, -200})
	got := bytesToSamples(audio.StereoToMono(stereo))
	want := []int16{150, -150}
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestStereoToMono_NoOverflow(t *testing.T) {
	stereo := samplesToBytes([]int16{32767, 32767, -32768, -32768})
	got := bytesToSamples(audio.StereoToMono(stereo))
	if got[0] != 32767 || got[1] != -32768 {
		t.Errorf("got %v, want [32767 -32768]", got)
	}
}

func TestResampleMono16(t *testing.T) {
	tests := []struct {
		name    string
		src     int
		dst     int
		samples int
		want    int
	}{
		{name: "downsample 48k to 16k", src: 48000, dst: 16000, samples: 480, want: 160},
		{name: "upsample 8k to 16k", src: 8000, dst: 16000, samples: 80, want: 160},
		{name: "same rate", src: 16000, dst: 16000, samples: 100, want: 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pcm := make([]byte, tt.samples*2)
			got := audio.ResampleMono16(pcm, tt.src, tt.dst)
			if len(got)/2 != tt.want {
				t.Errorf("samples = %d, want %d", len(got)/2, tt.want)
			}
		})
	}
}

func TestResampleMono16_ConstantSignal(t *testing.T) {
	in := make([]int16, 300)
	for i := range in {
		in[i] = 1000
	}
	got := bytesToSamples(audio.ResampleMono16(samplesToBytes(in), 48000, 16000))
	for i, s := range got {
		if s != 1000 {
			t.Fatalf("sample %d = %d, want 1000", i, s)
		}
	}
}

func TestNormalize(t *testing.T) {
	stereo48 := audio.Format{SampleRate: 48000, Channels: 2}
	pcm := make([]byte, 4800*4) // 100ms of stereo at 48kHz

	got := audio.Normalize(pcm, stereo48, audio.SpeechFormat)
	if want := 1600 * 2; len(got) != want {
		t.Errorf("len = %d, want %d", len(got), want)
	}
}

func TestNormalize_DropsOddByte(t *testing.T) {
	got := audio.Normalize([]byte{1, 2, 3}, audio.SpeechFormat, audio.SpeechFormat)
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
}

func TestFormat_Duration(t *testing.T) {
	if got := audio.SpeechFormat.Duration(32000); got != time.Second {
		t.Errorf("Duration = %v, want 1s", got)
	}
	if got := (audio.Format{}).Duration(100); got != 0 {
		t.Errorf("invalid format Duration = %v, want 0", got)
	}
}

func TestFormat_String(t *testing.T) {
	tests := map[audio.Format]string{
		{SampleRate: 16000, Channels: 1}: "16000Hz mono",
		{SampleRate: 48000, Channels: 2}: "48000Hz stereo",
		{SampleRate: 44100, Channels: 6}: "44100Hz 6ch",
	}
	for f, want := range tests {
		if got := f.String(); got != want {
			t.Errorf("%+v.String() = %q, want %q", f, got, want)
		}
	}
}
