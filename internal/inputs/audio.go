package inputs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrAudioDirMissing is returned when the audio directory does not exist.
var ErrAudioDirMissing = errors.New("audio directory does not exist")

// AudioFile is one transcription input. Seconds is -1 when the length could
// not be determined.
type AudioFile struct {
	Name    string
	Path    string
	Seconds float64
}

// DiscoverAudio lists the regular files directly inside dir, sorted by name.
// An existing but empty directory yields an empty slice and no error.
func DiscoverAudio(dir string) ([]AudioFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrAudioDirMissing, dir)
		}
		return nil, fmt.Errorf("read audio dir %s: %w", dir, err)
	}

	var files []AudioFile
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		seconds := -1.0
		if strings.EqualFold(filepath.Ext(entry.Name()), ".wav") {
			if s, err := ProbeWAVSeconds(path); err == nil {
				seconds = s
			}
		}
		files = append(files, AudioFile{Name: entry.Name(), Path: path, Seconds: seconds})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// ProbeWAVSeconds returns the playback length of a PCM WAV file by counting
// its decoded frames.
func ProbeWAVSeconds(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return 0, errors.New("invalid wav file")
	}
	dec.ReadInfo()
	if dec.SampleRate == 0 || dec.NumChans == 0 || dec.BitDepth == 0 {
		return 0, errors.New("invalid wav header")
	}

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: int(dec.NumChans), SampleRate: int(dec.SampleRate)},
		Data:           make([]int, int(dec.SampleRate)*int(dec.NumChans)),
		SourceBitDepth: int(dec.BitDepth),
	}
	var samples int
	for {
		n, err := dec.PCMBuffer(buf)
		samples += n
		if err == io.EOF || (err == nil && n == 0) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("decode wav: %w", err)
		}
	}
	frames := samples / int(dec.NumChans)
	return float64(frames) / float64(dec.SampleRate), nil
}
