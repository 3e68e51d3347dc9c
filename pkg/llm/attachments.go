package llm

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/entrhq/tabpilot/pkg/types"
)

var pdfcpuOnce sync.Once

// SplitDataURL returns the MIME type and base64 payload of a data URL.
// Plain base64 is returned with fallbackMime.
func SplitDataURL(s, fallbackMime string) (mime, data string) {
	if !strings.HasPrefix(s, "data:") {
		return fallbackMime, s
	}
	header, payload, ok := strings.Cut(s, ",")
	if !ok {
		return fallbackMime, ""
	}
	mime = strings.TrimPrefix(header, "data:")
	mime, _, _ = strings.Cut(mime, ";")
	if mime == "" {
		mime = fallbackMime
	}
	return mime, payload
}

// DecodeDataURL returns the decoded bytes of a data URL or raw base64 string.
func DecodeDataURL(s, fallbackMime string) (mime string, data []byte, err error) {
	mime, payload := SplitDataURL(s, fallbackMime)
	if payload == "" {
		return mime, nil, fmt.Errorf("empty data payload")
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return mime, nil, fmt.Errorf("decode base64: %w", err)
	}
	return mime, data, nil
}

// ImageAttachments returns the image attachments among atts.
func ImageAttachments(atts []types.Attachment) []types.Attachment {
	var out []types.Attachment
	for _, a := range atts {
		if a.IsImage() {
			out = append(out, a)
		}
	}
	return out
}

// AttachmentText renders non-image attachments as text appended to the user
// turn. Images are left to the adapter; when omitImages is set they become a
// textual notice instead, for text-only vendors.
func AttachmentText(atts []types.Attachment, omitImages bool) string {
	var b strings.Builder
	for _, a := range atts {
		switch a.Type {
		case types.AttachmentImage:
			if omitImages {
				fmt.Fprintf(&b, "\n\n[Image attachment omitted: %s]", a.Name)
			}
		case types.AttachmentText:
			fmt.Fprintf(&b, "\n\n[Attached file: %s]\n```\n%s\n```", a.Name, a.Content)
		default:
			fmt.Fprintf(&b, "\n\n%s", describeFile(a))
		}
	}
	return b.String()
}

func describeFile(a types.Attachment) string {
	mime := a.MimeType
	if mime == "" {
		mime = "application/octet-stream"
	}
	if mime != "application/pdf" {
		return fmt.Sprintf("[Attached file: %s (%s)]", a.Name, mime)
	}

	pages, err := PDFPageCount(a.Content)
	if err != nil {
		return fmt.Sprintf("[Attached file: %s (%s)]", a.Name, mime)
	}
	return fmt.Sprintf("[Attached file: %s (%s, %d pages)]", a.Name, mime, pages)
}

// PDFPageCount returns the number of pages of a base64 or data-URL encoded PDF.
func PDFPageCount(content string) (int, error) {
	pdfcpuOnce.Do(api.DisableConfigDir)

	_, data, err := DecodeDataURL(content, "application/pdf")
	if err != nil {
		return 0, err
	}
	n, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return 0, fmt.Errorf("read pdf: %w", err)
	}
	return n, nil
}
