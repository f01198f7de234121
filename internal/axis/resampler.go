// SPDX-License-Identifier: MIT
package axis

// Resampler projects a spectrum onto an index table. It holds no per-frame
// state and never allocates.
type Resampler struct {
	Indices []float32
	Mode    Interpolation
}

// Curve fills dst with one sample per index. dst must hold len(Indices) values.
func (r Resampler) Curve(dst, spectrum []float32) {
	if r.Mode == Lanczos {
		for i, x := range r.Indices {
			dst[i] = LanczosSample(spectrum, float64(x))
		}
		return
	}
	for i, x := range r.Indices {
		dst[i] = spectrum[int(x)]
	}
}

// Bars fills dst with len(Indices)-1 bucket averages. Bucket i covers the
// bins from Indices[i] up to, but not including, Indices[i+1], and always
// contains at least one sample.
func (r Resampler) Bars(dst, spectrum []float32) {
	n := len(r.Indices) - 1
	if r.Mode == Lanczos {
		for i := range n {
			pos, stop := float64(r.Indices[i]), float64(r.Indices[i+1])
			var sum float64
			count := 0
			for {
				sum += float64(LanczosSample(spectrum, pos))
				count++
				pos++
				if pos >= stop {
					break
				}
			}
			dst[i] = float32(sum / float64(count))
		}
		return
	}

	last := len(spectrum) - 1
	for i := range n {
		pos, stop := int(r.Indices[i]), int(r.Indices[i+1])
		var sum float64
		count := 0
		for {
			sum += float64(spectrum[min(pos, last)])
			count++
			pos++
			if pos >= stop {
				break
			}
		}
		dst[i] = float32(sum / float64(count))
	}
}

// Outputs returns the number of values Curve or Bars produce for the table.
func (r Resampler) Outputs(bars bool) int {
	if bars {
		return max(len(r.Indices)-1, 0)
	}
	return len(r.Indices)
}
