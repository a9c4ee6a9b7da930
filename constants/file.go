package constants

import "strings"

// ImageExtensions holds the ticket image extensions accepted for OCR.
var ImageExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"tif":  {},
	"tiff": {},
	"bmp":  {},
}

// TextExtensions holds extensions whose content is used as OCR text verbatim.
var TextExtensions = map[string]struct{}{
	"txt": {},
}

// AudioExtensions holds the extensions accepted for transcription.
var AudioExtensions = map[string]struct{}{
	"mp3":  {},
	"m4a":  {},
	"wav":  {},
	"webm": {},
	"ogg":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsImage reports whether ext names a supported ticket image.
func IsImage(ext string) bool {
	_, ok := ImageExtensions[NormalizeExt(ext)]
	return ok
}

// IsText reports whether ext names a plain text input.
func IsText(ext string) bool {
	_, ok := TextExtensions[NormalizeExt(ext)]
	return ok
}

// IsAudio reports whether ext names a supported audio clip.
func IsAudio(ext string) bool {
	_, ok := AudioExtensions[NormalizeExt(ext)]
	return ok
}
