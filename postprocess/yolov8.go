package postprocess

// decodeV8 decodes YOLOv8/v11 rows [cx cy w h class scores...].  There
// is no separate objectness column, row confidence is the best class
// score.  Rows under the confidence floor are dropped.
func (d *Decoder) decodeV8(t *Tensor) []raw {

	rows := make([]raw, 0, t.Rows())

	for i := 0; i < t.Rows(); i++ {

		row := t.Row(i)

		maxClassProb := row[4]
		maxClassID := 0

		for k := 1; k < d.Params.ClassCount; k++ {
			if row[4+k] > maxClassProb {
				maxClassProb = row[4+k]
				maxClassID = k
			}
		}

		if maxClassProb < d.Params.FloorConfidence {
			continue
		}

		cx, cy, w, h := row[0], row[1], row[2], row[3]

		rows = append(rows, raw{
			class: maxClassID,
			conf:  maxClassProb,
			x0:    cx - w/2,
			y0:    cy - h/2,
			x1:    cx + w/2,
			y1:    cy + h/2,
		})
	}

	return rows
}
