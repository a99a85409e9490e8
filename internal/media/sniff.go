package media

import (
	"fmt"
	"os"

	"github.com/dhowden/tag"
)

// SniffAudio identifies the container format of an audio file from its
// header. The preview pipeline names staged sources by the result; many
// generated effect files carry no metadata, so callers treat an error as
// unknown rather than fatal.
func SniffAudio(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("sniff audio %s: %w", path, err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return "", fmt.Errorf("sniff audio %s: %w", path, err)
	}

	return string(m.FileType()), nil
}

// AudioExtension maps a sniffed file type to a filename extension. Unknown
// types keep the neutral marker; the engine probes content rather than
// trusting names, so the extension only has to be right when the sniff is.
func AudioExtension(fileType string) string {
	switch tag.FileType(fileType) {
	case tag.MP3:
		return ".mp3"
	case tag.FLAC:
		return ".flac"
	case tag.OGG:
		return ".ogg"
	case tag.M4A, tag.M4B, tag.M4P, tag.ALAC:
		return ".m4a"
	default:
		return ".audio"
	}
}
