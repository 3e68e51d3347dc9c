package tui

import (
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/entrhq/tabpilot/pkg/types"
)

// maxAttachmentBytes caps the size of a single attached file.
const maxAttachmentBytes = 10 << 20

// loadAttachment reads a local file and turns it into an attachment. Images
// and binary files are sent as data URLs, text files as raw content.
func loadAttachment(path string) (types.Attachment, error) {
	path = expandHome(strings.Trim(path, `"'`))

	info, err := os.Stat(path)
	if err != nil {
		return types.Attachment{}, err
	}
	if info.IsDir() {
		return types.Attachment{}, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > maxAttachmentBytes {
		return types.Attachment{}, fmt.Errorf("%s is larger than %d MB", filepath.Base(path), maxAttachmentBytes>>20)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return types.Attachment{}, err
	}

	name := filepath.Base(path)
	mimeType := detectMime(name, data)

	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return types.Attachment{Type: types.AttachmentImage, Name: name, MimeType: mimeType, Content: dataURL(mimeType, data)}, nil
	case strings.HasPrefix(mimeType, "text/") || (mimeType == "application/json" && utf8.Valid(data)):
		return types.Attachment{Type: types.AttachmentText, Name: name, MimeType: mimeType, Content: string(data)}, nil
	default:
		return types.Attachment{Type: types.AttachmentFile, Name: name, MimeType: mimeType, Content: dataURL(mimeType, data)}, nil
	}
}

// detectMime prefers the extension and falls back to content sniffing.
func detectMime(name string, data []byte) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); t != "" {
		if base, _, err := mime.ParseMediaType(t); err == nil {
			return base
		}
	}
	t := http.DetectContentType(data)
	if base, _, err := mime.ParseMediaType(t); err == nil {
		return base
	}
	return "application/octet-stream"
}

func dataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
