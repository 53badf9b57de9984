package extract

import (
	"mime"
	"net/url"
	"path"
	"strings"
)

// Kind is the content family of a fetched resource.
type Kind int

const (
	// KindUnknown is content no extractor handles.
	KindUnknown Kind = iota
	// KindHTML is an HTML or XHTML page.
	KindHTML
	// KindPDF is a PDF document.
	KindPDF
	// KindImage is a raster image.
	KindImage
)

// String returns the lowercase name used in logs and metrics labels.
func (k Kind) String() string {
	switch k {
	case KindHTML:
		return "html"
	case KindPDF:
		return "pdf"
	case KindImage:
		return "image"
	default:
		return "unknown"
	}
}

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// Detect classifies a resource by its Content-Type, falling back to the URL
// path extension when the header is missing or generic. Pages served without
// any recognizable type are treated as HTML, which is what hosting
// platforms almost always mean.
func Detect(contentType, rawURL string) Kind {
	mediaType := ""
	if contentType != "" {
		if mt, _, err := mime.ParseMediaType(contentType); err == nil {
			mediaType = strings.ToLower(mt)
		} else {
			mediaType = strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
		}
	}

	switch {
	case mediaType == "text/html", mediaType == "application/xhtml+xml":
		return KindHTML
	case mediaType == "application/pdf", mediaType == "application/x-pdf":
		return KindPDF
	case strings.HasPrefix(mediaType, "image/"):
		return KindImage
	}

	ext := ""
	if u, err := url.Parse(rawURL); err == nil {
		ext = strings.ToLower(path.Ext(u.Path))
	}

	switch {
	case ext == ".pdf":
		return KindPDF
	case imageExtensions[ext]:
		return KindImage
	case mediaType == "" || mediaType == "text/plain" || mediaType == "application/octet-stream":
		return KindHTML
	default:
		return KindUnknown
	}
}
