package engine

// Optional holds a value that an engine may not be able to report.
type Optional[T any] struct {
	value T
	ok    bool
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, ok: true}
}

// None returns an empty Optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.ok
}

// ValueOr returns the value if present, otherwise def.
func (o Optional[T]) ValueOr(def T) T {
	if o.ok {
		return o.value
	}
	return def
}

// Present reports whether a value is held.
func (o Optional[T]) Present() bool {
	return o.ok
}

// Stats is the engine's statistics report. Each metric is optional
// because availability depends on which components are running.
type Stats struct {
	OutputRmsDbfs             Optional[int]
	VoiceDetected             Optional[bool]
	EchoReturnLoss            Optional[float64]
	EchoReturnLossEnhancement Optional[float64]
	DivergentFilterFraction   Optional[float64]
	DelayMedianMs             Optional[int]
	DelayStandardDeviationMs  Optional[int]
	ResidualEchoLikelihood    Optional[float64]

	ResidualEchoLikelihoodRecentMax Optional[float64]
	DelayMs                         Optional[int]
}
