package upload

import (
	"io"
	"path"
	"strings"

	"github.com/op/go-logging"
	"github.com/richardlehane/siegfried"
	"github.com/tunevault/library-services/constants"
)

// FormatIdentifier determines the content type of an uploaded file so
// the object store serves it with the right mime type. It identifies
// by signature using Siegfried's PRONOM matcher when a signature file
// is configured, falling back to extension mapping when it isn't or
// when the signature match comes up empty.
type FormatIdentifier struct {
	sf     *siegfried.Siegfried
	logger *logging.Logger
}

// NewFormatIdentifier loads the Siegfried signature file at sigFile.
// An empty path or a load failure is not fatal: identification
// degrades to extension mapping, which is good enough to serve audio.
func NewFormatIdentifier(sigFile string, logger *logging.Logger) *FormatIdentifier {
	fi := &FormatIdentifier{logger: logger}
	if sigFile == "" {
		logger.Warning("No Siegfried signature file configured; identifying formats by extension only")
		return fi
	}
	sf, err := siegfried.Load(sigFile)
	if err != nil {
		logger.Warningf("Could not load Siegfried signatures from %s: %v. Identifying formats by extension only.", sigFile, err)
		return fi
	}
	fi.sf = sf
	return fi
}

// Identify returns the mime type for the content in reader, which
// holds the leading bytes of the upload. This never fails; unknown
// content comes back as application/octet-stream.
func (fi *FormatIdentifier) Identify(reader io.Reader, filename string) string {
	if fi.sf != nil {
		if mimeType := fi.identifyBySignature(reader, filename); mimeType != "" {
			return mimeType
		}
	}
	return fi.identifyByExtension(filename)
}

func (fi *FormatIdentifier) identifyBySignature(reader io.Reader, filename string) string {
	ids, err := fi.sf.Identify(reader, filename, "")
	if err != nil {
		fi.logger.Warningf("Siegfried could not identify %s: %v", filename, err)
		return ""
	}
	// The default signature file has a single PRONOM identifier, so
	// every identification shares the first field list.
	fields := fi.sf.Fields()
	if len(fields) == 0 {
		return ""
	}
	for _, id := range ids {
		if !id.Known() {
			continue
		}
		values := id.Values()
		for i, field := range fields[0] {
			if field == "mime" && i < len(values) && values[i] != "" {
				return values[i]
			}
		}
	}
	return ""
}

func (fi *FormatIdentifier) identifyByExtension(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if mimeType, found := constants.AudioMimeTypes[ext]; found {
		return mimeType
	}
	return constants.ContentTypeBinary
}
