package match

import "errors"

// Unknown is the name reported by Identify when no identity passes the
// threshold.
const Unknown = "Unknown"

// ErrUserNotFound is returned by Verify for a claimed identity that was never
// registered. It wraps store.ErrNotFound.
var ErrUserNotFound = errors.New("match: user not found")

// Verification is the outcome of a 1:1 check.
type Verification struct {
	Name      string
	Match     bool
	Score     float64
	Threshold float64
}

// Identification is the outcome of a 1:N search. Found is false, Name is
// Unknown and Score is 0 when no identity passes the threshold.
type Identification struct {
	Name  string
	Score float64
	Found bool
}

// Candidate is one ranked FindSimilar entry.
type Candidate struct {
	Name  string
	Score float64
}
