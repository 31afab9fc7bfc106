package listing

// Presentation is one of the three mutually exclusive states of a list screen.
type Presentation int

const (
	// HasData shows the list.
	HasData Presentation = iota
	// EmptyFiltered means filters are active and nothing matches, although
	// the unfiltered dataset has rows.
	EmptyFiltered
	// EmptyAbsolute means there is nothing to show and nothing to broaden.
	EmptyAbsolute
)

func (p Presentation) String() string {
	switch p {
	case HasData:
		return "has_data"
	case EmptyFiltered:
		return "empty_filtered"
	default:
		return "empty_absolute"
	}
}

// Decide picks the presentation for a screen. originalLen is the size of
// the unfiltered dataset.
func Decide(dataLen int, hasActiveFilters bool, originalLen int) Presentation {
	switch {
	case dataLen > 0:
		return HasData
	case hasActiveFilters && originalLen > 0:
		return EmptyFiltered
	default:
		return EmptyAbsolute
	}
}
