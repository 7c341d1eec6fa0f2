package engine

// HistoryLimit is the number of evaluations kept in the rolling history.
const HistoryLimit = 5

// history is a fixed-capacity buffer, oldest first. It is an array so that
// copying a Calculator copies its history.
type history struct {
	items [HistoryLimit]Evaluation
	n     int
}

func (h *history) push(e Evaluation) {
	if h.n == HistoryLimit {
		copy(h.items[:], h.items[1:])
		h.n--
	}
	h.items[h.n] = e
	h.n++
}

func (h *history) reset() { *h = history{} }

func (h *history) len() int { return h.n }

func (h *history) entries() []Evaluation {
	out := make([]Evaluation, h.n)
	copy(out, h.items[:h.n])
	return out
}
