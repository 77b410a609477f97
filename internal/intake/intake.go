package intake

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"vid2manga/internal/services"
)

const videoPrefix = "video/"

// videoExtensions covers containers missing from minimal system mime tables.
var videoExtensions = map[string]string{
	".3gp":  "video/3gpp",
	".avi":  "video/x-msvideo",
	".flv":  "video/x-flv",
	".m4v":  "video/x-m4v",
	".mkv":  "video/x-matroska",
	".mov":  "video/quicktime",
	".mp4":  "video/mp4",
	".mpeg": "video/mpeg",
	".mpg":  "video/mpeg",
	".ogv":  "video/ogg",
	".ts":   "video/mp2t",
	".webm": "video/webm",
	".wmv":  "video/x-ms-wmv",
}

// Inspect stats path and builds a Candidate with its declared media type.
// The file is not validated; call Validate before handing it on.
func Inspect(path string, source Source) (Candidate, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return Candidate{}, errors.New("inspect file: path is empty")
	}
	absolute, err := filepath.Abs(trimmed)
	if err != nil {
		return Candidate{}, fmt.Errorf("inspect file: %w", err)
	}
	info, err := os.Stat(absolute)
	if err != nil {
		return Candidate{}, fmt.Errorf("inspect file: %w", err)
	}
	if info.IsDir() {
		return Candidate{}, fmt.Errorf("inspect file: %s is a directory", absolute)
	}
	if source == "" {
		source = SourcePicker
	}
	mediaType, err := DeclaredType(absolute)
	if err != nil {
		return Candidate{}, err
	}
	return Candidate{
		Path:      absolute,
		Name:      info.Name(),
		MediaType: mediaType,
		Size:      info.Size(),
		Source:    source,
	}, nil
}

// DeclaredType derives a media type from the file extension, falling back to
// content sniffing when the extension is unknown.
func DeclaredType(path string) (string, error) {
	if ext := strings.ToLower(filepath.Ext(path)); ext != "" {
		if known, ok := videoExtensions[ext]; ok {
			return known, nil
		}
		if byExt := mime.TypeByExtension(ext); byExt != "" && baseType(byExt) != "application/octet-stream" {
			return baseType(byExt), nil
		}
	}
	detected, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("detect media type: %w", err)
	}
	return baseType(detected.String()), nil
}

// Validate enforces the video-only acceptance rule.
func Validate(c Candidate) error {
	if c.IsZero() {
		return services.Wrap(services.ErrInvalidFileType, "intake", "validate", "no file selected", nil)
	}
	if !IsVideo(c.MediaType) {
		return services.Wrap(services.ErrInvalidFileType, "intake", "validate",
			fmt.Sprintf("%s has media type %q", c.Name, c.MediaType), nil)
	}
	return nil
}

// Accept inspects and validates in one step.
func Accept(path string, source Source) (Candidate, error) {
	candidate, err := Inspect(path, source)
	if err != nil {
		return Candidate{}, err
	}
	if err := Validate(candidate); err != nil {
		return Candidate{}, err
	}
	return candidate, nil
}

// IsVideo reports whether mediaType belongs to the video category.
func IsVideo(mediaType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mediaType)), videoPrefix)
}

func baseType(value string) string {
	if parsed, _, err := mime.ParseMediaType(value); err == nil {
		return parsed
	}
	return strings.ToLower(strings.TrimSpace(value))
}
