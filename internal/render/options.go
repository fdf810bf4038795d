package render

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidOptions marks render option validation failures.
var ErrInvalidOptions = errors.New("invalid render options")

// Format identifies the container produced by a render.
type Format string

const (
	FormatMP4         Format = "mp4"
	FormatWebM        Format = "webm"
	FormatGIF         Format = "gif"
	FormatMOV         Format = "mov"
	FormatPNGSequence Format = "png-sequence"
)

// Codec identifies the video codec used by a render.
type Codec string

const (
	CodecH264   Codec = "h264"
	CodecH265   Codec = "h265"
	CodecVP8    Codec = "vp8"
	CodecVP9    Codec = "vp9"
	CodecProRes Codec = "prores"
)

// Quality selects an encoder quality preset.
type Quality string

const (
	QualityLow      Quality = "low"
	QualityMedium   Quality = "medium"
	QualityHigh     Quality = "high"
	QualityLossless Quality = "lossless"
)

var formatSet = map[Format]struct{}{
	FormatMP4:         {},
	FormatWebM:        {},
	FormatGIF:         {},
	FormatMOV:         {},
	FormatPNGSequence: {},
}

var codecSet = map[Codec]struct{}{
	CodecH264:   {},
	CodecH265:   {},
	CodecVP8:    {},
	CodecVP9:    {},
	CodecProRes: {},
}

var qualitySet = map[Quality]struct{}{
	QualityLow:      {},
	QualityMedium:   {},
	QualityHigh:     {},
	QualityLossless: {},
}

// FrameRange restricts a render to a span of frames.
type FrameRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Options configures one render request. Zero-valued fields fall back to
// defaults during normalization; CRF, Bitrate, and FrameRange stay optional.
type Options struct {
	Format     Format      `json:"format"`
	Codec      Codec       `json:"codec"`
	Quality    Quality     `json:"quality"`
	CRF        int         `json:"crf,omitempty"`
	Bitrate    string      `json:"bitrate,omitempty"`
	FrameRange *FrameRange `json:"frameRange,omitempty"`
}

// DefaultOptions returns the repository default render settings.
func DefaultOptions() Options {
	return Options{
		Format:  FormatMP4,
		Codec:   CodecH264,
		Quality: QualityHigh,
	}
}

// Normalize fills empty fields with defaults and lowercases enum values.
func (o Options) Normalize() Options {
	out := o
	out.Format = Format(strings.ToLower(strings.TrimSpace(string(o.Format))))
	out.Codec = Codec(strings.ToLower(strings.TrimSpace(string(o.Codec))))
	out.Quality = Quality(strings.ToLower(strings.TrimSpace(string(o.Quality))))
	defaults := DefaultOptions()
	if out.Format == "" {
		out.Format = defaults.Format
	}
	if out.Codec == "" {
		out.Codec = defaults.Codec
	}
	if out.Quality == "" {
		out.Quality = defaults.Quality
	}
	out.Bitrate = strings.TrimSpace(o.Bitrate)
	if o.FrameRange != nil {
		fr := *o.FrameRange
		out.FrameRange = &fr
	}
	return out
}

// Validate checks option values against the supported sets. Callers should
// normalize first; Validate does not mutate.
func (o Options) Validate() error {
	if _, ok := formatSet[o.Format]; !ok {
		return fmt.Errorf("%w: unsupported format %q", ErrInvalidOptions, o.Format)
	}
	if _, ok := codecSet[o.Codec]; !ok {
		return fmt.Errorf("%w: unsupported codec %q", ErrInvalidOptions, o.Codec)
	}
	if _, ok := qualitySet[o.Quality]; !ok {
		return fmt.Errorf("%w: unsupported quality %q", ErrInvalidOptions, o.Quality)
	}
	if o.CRF < 0 {
		return fmt.Errorf("%w: crf must not be negative", ErrInvalidOptions)
	}
	if o.FrameRange != nil {
		if o.FrameRange.Start < 0 {
			return fmt.Errorf("%w: frame range start must not be negative", ErrInvalidOptions)
		}
		if o.FrameRange.End <= o.FrameRange.Start {
			return fmt.Errorf("%w: frame range end must exceed start", ErrInvalidOptions)
		}
	}
	return nil
}
