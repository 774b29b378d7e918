package pipeline

import (
	"math"
	"strconv"
)

// Status tells whether a Result carries a score.
type Status int

const (
	// StatusOK means Score holds the spectral angle similarity.
	StatusOK Status = iota
	// StatusUndefined means a weighted spectrum was all zero.
	StatusUndefined
	// StatusUnavailable means a spectrum or precursor for the pair is missing.
	StatusUnavailable
	// StatusInvalid means the peaks could not be matched (unsorted input).
	StatusInvalid
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusUndefined:
		return "undefined"
	case StatusUnavailable:
		return "unavailable"
	case StatusInvalid:
		return "invalid"
	default:
		return "Status(" + strconv.Itoa(int(s)) + ")"
	}
}

// Result is the similarity record of one candidate pair.
type Result struct {
	A, B         int
	NameA, NameB string
	MassA, MassB float64
	RetentionA   float64
	RetentionB   float64
	Score        float64 // NaN unless Status is StatusOK
	Status       Status
}

// OK reports whether the result carries a score.
func (r Result) OK() bool { return r.Status == StatusOK }

func unscored(r Result, s Status) Result {
	r.Score = math.NaN()
	r.Status = s
	return r
}
