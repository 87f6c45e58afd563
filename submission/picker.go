package submission

import (
	"mime"
	"slices"
	"strings"

	"github.com/eringen/codecrafters/asset"
)

// VideoMaxSize is the largest video the video picker accepts, in bytes.
const VideoMaxSize = 10_000_000

// Rejection reasons reported by a Picker.
const (
	ReasonType     = "file-invalid-type"
	ReasonTooLarge = "file-too-large"
	ReasonTooMany  = "too-many-files"
)

// Rejected is a file the picker refused, with the reason.
type Rejected struct {
	File   asset.File
	Reason string
}

// Picker filters candidate attachments the way a drop zone does: by MIME
// type and extension, by size, and by count.
type Picker struct {
	// Accept maps a MIME type to the extensions allowed for it.
	Accept   map[string][]string
	Multiple bool
	MaxSize  int64 // 0 means unlimited
}

// ImagePicker accepts any number of jpeg, png and webp images.
func ImagePicker() Picker {
	return Picker{
		Accept: map[string][]string{
			"image/jpeg": {".jpg", ".jpeg"},
			"image/png":  {".png"},
			"image/webp": {".webp"},
		},
		Multiple: true,
	}
}

// VideoPicker accepts a single mp4 or mkv video up to VideoMaxSize bytes.
func VideoPicker() Picker {
	return Picker{
		Accept: map[string][]string{
			"video/mp4":        {".mp4"},
			"video/mkv":        {".mkv"},
			"video/x-matroska": {".mkv"},
		},
		Multiple: false,
		MaxSize:  VideoMaxSize,
	}
}

// Pick splits files into accepted and rejected. A single-file picker given
// more than one acceptable file rejects all of them.
func (p Picker) Pick(files []asset.File) (accepted []asset.File, rejected []Rejected) {
	for _, f := range files {
		switch {
		case !p.accepts(f):
			rejected = append(rejected, Rejected{File: f, Reason: ReasonType})
		case p.MaxSize > 0 && f.Size > p.MaxSize:
			rejected = append(rejected, Rejected{File: f, Reason: ReasonTooLarge})
		default:
			accepted = append(accepted, f)
		}
	}
	if !p.Multiple && len(accepted) > 1 {
		for _, f := range accepted {
			rejected = append(rejected, Rejected{File: f, Reason: ReasonTooMany})
		}
		accepted = nil
	}
	return accepted, rejected
}

// accepts requires every signal the file carries to be on the list: the
// extension when the name has one, and the MIME type unless it is empty or
// generic. A file carrying neither is refused.
func (p Picker) accepts(f asset.File) bool {
	ext := f.Ext()
	mediaType := ""
	if f.ContentType != "" {
		if mt, _, err := mime.ParseMediaType(f.ContentType); err == nil {
			mediaType = strings.ToLower(mt)
		}
	}
	if mediaType == "application/octet-stream" {
		mediaType = ""
	}
	if ext == "" && mediaType == "" {
		return false
	}
	extOK, typeOK := ext == "", mediaType == ""
	for mt, exts := range p.Accept {
		if mediaType == mt {
			typeOK = true
		}
		if slices.Contains(exts, ext) {
			extOK = true
		}
	}
	return extOK && typeOK
}
