package postprocess

import (
	"fmt"

	"github.com/labelkit/go-labelkit"
	"github.com/labelkit/go-labelkit/preprocess"
)

// DefaultFloorConfidence is the decoder-level confidence floor.  It only
// bounds the amount of work handed to suppression and is independent of
// the user-facing thresholds.
const DefaultFloorConfidence = 0.01

// normalizedCoordLimit is the cutoff for guessing that a model emitted
// normalized coordinates rather than model input pixels.
const normalizedCoordLimit = 1.05

// Decoder interprets one raw output tensor according to a declared or
// auto-detected YOLO format and produces detection candidates in source
// image pixel space.
type Decoder struct {
	// Params are the decoder configuration parameters
	Params DecoderParams
}

// DecoderParams defines the configuration for decoding model output
// tensors.
type DecoderParams struct {
	// Format is the declared model family, FormatAuto to detect it from
	// the tensor shape
	Format Format
	// ClassCount is the number of classes the model was trained with
	ClassCount int
	// FloorConfidence drops rows before suppression to bound work
	FloorConfidence float32
}

// DefaultDecoderParams returns decoder parameters for the given format
// and class count with the standard confidence floor.
func DefaultDecoderParams(format Format, classCount int) DecoderParams {
	return DecoderParams{
		Format:          format,
		ClassCount:      classCount,
		FloorConfidence: DefaultFloorConfidence,
	}
}

// NewDecoder returns a decoder configured with the given parameters.
func NewDecoder(p DecoderParams) *Decoder {
	if p.FloorConfidence <= 0 {
		p.FloorConfidence = DefaultFloorConfidence
	}
	return &Decoder{Params: p}
}

// raw is one decoded row in model input space, corner coordinates.
type raw struct {
	class          int
	conf           float32
	x0, y0, x1, y1 float32
}

// Decode interprets the tensor and returns candidates in source image
// pixel space, mapped through the letterbox transform.  Candidates keep
// decode order.  The transform carries the source image dimensions the
// tensor's coordinates are mapped back to.
func (d *Decoder) Decode(t *Tensor, tr *preprocess.Transform) ([]Candidate, error) {

	if t == nil || t.Rows() == 0 {
		return nil, nil
	}

	t, format, err := d.orient(t)

	if err != nil {
		return nil, err
	}

	var rows []raw

	switch format {

	case FormatV5:
		rows = d.decodeV5(t)

	case FormatV8:
		rows = d.decodeV8(t)

	case FormatV26:
		rows = d.decodeV26(t)
	}

	return d.mapToSource(rows, format, tr), nil
}

// rowWidth returns the expected row width of a format for the decoder's
// class count.
func (d *Decoder) rowWidth(f Format) int {
	switch f {
	case FormatV5:
		return 5 + d.Params.ClassCount
	case FormatV8:
		return 4 + d.Params.ClassCount
	case FormatV26:
		return v26RowWidth
	}
	return 0
}

// orient resolves the format and returns the tensor in [boxes,
// attributes] order.  Models exported attribute-major have their row
// width on the row axis instead and are transposed.  Column matches win
// over row matches so square exports stay untouched.
func (d *Decoder) orient(t *Tensor) (*Tensor, Format, error) {

	if f := d.Params.Format; f != FormatAuto {

		// the class-count layouts are meaningless without classes, and
		// decoding them would read past the 4/5 base columns
		if (f == FormatV5 || f == FormatV8) && d.Params.ClassCount <= 0 {
			return nil, f, fmt.Errorf("%w: %v needs a positive class count",
				labelkit.ErrUnknownFormat, f)
		}

		want := d.rowWidth(f)

		if t.Cols() == want {
			return t, f, nil
		}

		if t.Rows() == want {
			return t.Transposed(), f, nil
		}

		return nil, f, fmt.Errorf("%w: %v needs a %d wide axis, tensor is %dx%d",
			labelkit.ErrUnknownFormat, f, want, t.Rows(), t.Cols())
	}

	if f, err := DetectFormat(t.Cols(), d.Params.ClassCount); err == nil {
		return t, f, nil
	}

	if f, err := DetectFormat(t.Rows(), d.Params.ClassCount); err == nil {
		return t.Transposed(), f, nil
	}

	return nil, FormatAuto, fmt.Errorf("%w: no layout matches %dx%d tensor for %d classes",
		labelkit.ErrUnknownFormat, t.Rows(), t.Cols(), d.Params.ClassCount)
}

// mapToSource converts decoded rows from model space to source image
// pixel space, undoing normalized output and letterbox padding.
func (d *Decoder) mapToSource(rows []raw, format Format,
	tr *preprocess.Transform) []Candidate {

	if len(rows) == 0 {
		return nil
	}

	// guess whether the model emitted normalized coordinates: every
	// surviving coordinate at or below the limit means normalized output
	normalized := true

scan:
	for _, r := range rows {
		for _, v := range [4]float32{r.x0, r.y0, r.x1, r.y1} {
			if v > normalizedCoordLimit {
				normalized = false
				break scan
			}
		}
	}

	destW := float32(tr.DestWidth())
	destH := float32(tr.DestHeight())
	srcW := float32(tr.SrcWidth())
	srcH := float32(tr.SrcHeight())

	out := make([]Candidate, 0, len(rows))

	for _, r := range rows {

		if normalized {
			r.x0 *= destW
			r.x1 *= destW
			r.y0 *= destH
			r.y1 *= destH
		}

		x0, y0 := tr.ToSource(r.x0, r.y0)
		x1, y1 := tr.ToSource(r.x1, r.y1)

		out = append(out, Candidate{
			Class:      r.class,
			Confidence: r.conf,
			Rect: labelkit.Rect{
				X0: float64(clamp32(x0, 0, srcW)),
				Y0: float64(clamp32(y0, 0, srcH)),
				X1: float64(clamp32(x1, 0, srcW)),
				Y1: float64(clamp32(y1, 0, srcH)),
			},
			Format: format,
		})
	}

	return out
}

// clamp32 restricts val to the range [min, max]
func clamp32(val, min, max float32) float32 {

	if val < min {
		return min
	}

	if val > max {
		return max
	}

	return val
}
