package postprocess

// decodeV26 decodes the NMS-free family.  Rows already represent final
// boxes [x1 y1 x2 y2 confidence class] in corner coordinates, so only
// the confidence floor applies; downstream IOU suppression is bypassed
// through the candidate format tag.
func (d *Decoder) decodeV26(t *Tensor) []raw {

	rows := make([]raw, 0, t.Rows())

	for i := 0; i < t.Rows(); i++ {

		row := t.Row(i)
		conf := row[4]

		if conf < d.Params.FloorConfidence {
			continue
		}

		class := int(row[5])

		if class < 0 || class >= d.Params.ClassCount {
			continue
		}

		rows = append(rows, raw{
			class: class,
			conf:  conf,
			x0:    row[0],
			y0:    row[1],
			x1:    row[2],
			y1:    row[3],
		})
	}

	return rows
}
