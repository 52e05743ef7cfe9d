package chat

import (
	"mime"
	"net/url"
	"path"
	"strings"
)

// PreviewKind is how a file message is previewed
type PreviewKind int

const (
	PreviewLink PreviewKind = iota
	PreviewImage
	PreviewVideo
	PreviewPDF
)

// FileIconKind is the icon shown next to generic file links
type FileIconKind int

const (
	IconGeneric FileIconKind = iota
	IconDocument
	IconChart
	IconPresentation
)

// String returns a short name for the icon
func (i FileIconKind) String() string {
	switch i {
	case IconDocument:
		return "document"
	case IconChart:
		return "chart"
	case IconPresentation:
		return "presentation"
	default:
		return "file"
	}
}

// Extension returns the lower-cased extension of name without the dot
func Extension(name string) string {
	ext := path.Ext(strings.TrimSpace(name))
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// FileIcon picks the icon for a filename by extension
func FileIcon(name string) FileIconKind {
	switch Extension(name) {
	case "pdf", "doc", "docx", "txt":
		return IconDocument
	case "xls", "xlsx", "csv":
		return IconChart
	case "ppt", "pptx":
		return IconPresentation
	default:
		return IconGeneric
	}
}

// MimeTypeFor guesses a MIME type from a filename
func MimeTypeFor(name string) string {
	if t := mime.TypeByExtension(path.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}

// ClassifyAttachment chooses the preview for a file message. The MIME type wins; the
// filename extension is the fallback when the type is missing or generic.
func ClassifyAttachment(msg Message) PreviewKind {
	mt := strings.ToLower(msg.MimeType)
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	if mt == "" || mt == "application/octet-stream" {
		mt = strings.ToLower(MimeTypeFor(msg.FileName))
		if i := strings.Index(mt, ";"); i >= 0 {
			mt = mt[:i]
		}
	}
	switch {
	case strings.HasPrefix(mt, "image/"):
		return PreviewImage
	case strings.HasPrefix(mt, "video/"):
		return PreviewVideo
	case mt == "application/pdf":
		return PreviewPDF
	}
	if Extension(msg.FileName) == "pdf" {
		return PreviewPDF
	}
	return PreviewLink
}

// PDFThumbnailURL returns a first-page image URL for a hosted PDF.
// Cloudinary-style "/upload/" URLs get a page transformation; others get a thumbnail query flag.
func PDFThumbnailURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	if idx := strings.Index(u.Path, "/upload/"); idx >= 0 {
		head := u.Path[:idx+len("/upload/")]
		tail := u.Path[idx+len("/upload/"):]
		if ext := path.Ext(tail); ext != "" {
			tail = strings.TrimSuffix(tail, ext) + ".jpg"
		}
		u.Path = head + "pg_1,w_200,f_jpg/" + tail
		return u.String()
	}
	q := u.Query()
	q.Set("thumbnail", "1")
	u.RawQuery = q.Encode()
	return u.String()
}
