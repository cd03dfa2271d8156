package postprocess

// decodeV5 decodes YOLOv5 rows [cx cy w h objectness class scores...].
// Row confidence is objectness times the best class score, the class is
// the argmax over class scores.  Rows under the confidence floor are
// dropped.
func (d *Decoder) decodeV5(t *Tensor) []raw {

	rows := make([]raw, 0, t.Rows())

	for i := 0; i < t.Rows(); i++ {

		row := t.Row(i)
		objectness := row[4]

		maxClassProb := row[5]
		maxClassID := 0

		for k := 1; k < d.Params.ClassCount; k++ {
			if row[5+k] > maxClassProb {
				maxClassProb = row[5+k]
				maxClassID = k
			}
		}

		conf := objectness * maxClassProb

		if conf < d.Params.FloorConfidence {
			continue
		}

		cx, cy, w, h := row[0], row[1], row[2], row[3]

		rows = append(rows, raw{
			class: maxClassID,
			conf:  conf,
			x0:    cx - w/2,
			y0:    cy - h/2,
			x1:    cx + w/2,
			y1:    cy + h/2,
		})
	}

	return rows
}
