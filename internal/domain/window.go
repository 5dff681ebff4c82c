package domain

type sample struct {
	ts    int64
	price float64
}

// priceWindow is a bounded time-ordered sequence of samples. The bound
// is a fixed span: appending evicts everything older than span relative
// to the newest sample. Callers hold the cache lock.
type priceWindow struct {
	samples []sample
	span    int64 // ms
}

func (w *priceWindow) append(ts int64, price float64) {
	w.samples = append(w.samples, sample{ts: ts, price: price})

	newest := w.samples[len(w.samples)-1].ts
	cutoff := newest - w.span
	i := 0
	for i < len(w.samples) && w.samples[i].ts < cutoff {
		i++
	}
	if i > 0 {
		w.samples = append(w.samples[:0], w.samples[i:]...)
	}
}

func (w *priceWindow) volatility() float64 {
	if len(w.samples) < 2 {
		return 0
	}
	cutoff := w.samples[len(w.samples)-1].ts - w.span

	var min, max float64
	n := 0
	for _, s := range w.samples {
		if s.ts < cutoff {
			continue
		}
		if n == 0 || s.price < min {
			min = s.price
		}
		if n == 0 || s.price > max {
			max = s.price
		}
		n++
	}
	if n < 2 || min <= 0 {
		return 0
	}
	return (max - min) / min * 100
}
