package media

import (
	"os"
	"path/filepath"
	"testing"
)

// id3v2Stub is a minimal empty ID3v2.3 tag followed by frame sync bytes,
// enough header for format identification.
func id3v2Stub() []byte {
	return []byte{'I', 'D', '3', 3, 0, 0, 0, 0, 0, 0, 0xff, 0xfb, 0x90, 0x00}
}

func writeTempAudio(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestSniffAudioIdentifiesMP3(t *testing.T) {
	path := writeTempAudio(t, "clip.bin", id3v2Stub())

	format, err := SniffAudio(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if format != "MP3" {
		t.Fatalf("expected MP3, got %q", format)
	}
}

func TestSniffAudioUnknownHeader(t *testing.T) {
	path := writeTempAudio(t, "clip.bin", []byte("not an audio header"))

	if _, err := SniffAudio(path); err == nil {
		t.Fatal("expected an error for an unrecognized header")
	}
}

func TestSniffAudioMissingFile(t *testing.T) {
	if _, err := SniffAudio(filepath.Join(t.TempDir(), "missing.bin")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestAudioExtension(t *testing.T) {
	cases := map[string]string{
		"MP3":  ".mp3",
		"FLAC": ".flac",
		"OGG":  ".ogg",
		"M4A":  ".m4a",
		"ALAC": ".m4a",
		"":     ".audio",
		"WAV":  ".audio",
	}
	for format, want := range cases {
		if got := AudioExtension(format); got != want {
			t.Fatalf("format %q: expected %q, got %q", format, want, got)
		}
	}
}
