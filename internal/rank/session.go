package rank

import (
	"fmt"
)

// Outcome is the result of one pairwise comparison, reported by the user.
type Outcome string

// Comparison outcomes.
const (
	// OutcomePeerWins means the existing item was preferred; the candidate
	// belongs below the probed position.
	OutcomePeerWins Outcome = "peer_wins"
	// OutcomeCandidateWins means the new item was preferred; the candidate
	// belongs above the probed position.
	OutcomeCandidateWins Outcome = "candidate_wins"
	// OutcomeTooClose means the user could not decide. Placement terminates
	// immediately just below the probed peer's neighbour.
	OutcomeTooClose Outcome = "too_close"
)

// Valid reports whether o is a known outcome.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomePeerWins, OutcomeCandidateWins, OutcomeTooClose:
		return true
	}
	return false
}

// Session is the serializable state of one binary-search placement over a
// band of peers. Peers are ordered top rank first and fixed for the whole
// session. Advancing the search never mutates the receiver; Step returns
// the successor state, so a session survives a marshal round trip at any
// point.
type Session struct {
	Left    int      `json:"left"`
	Right   int      `json:"right"`
	Mid     int      `json:"mid"`
	PeerIDs []string `json:"peerIds"`
	Done    bool     `json:"done"`
	Rank    int      `json:"rank"`
}

// NewSession starts a placement over the given peers. An empty band needs
// no comparisons: the session starts done with rank 0.
func NewSession(peerIDs []string) Session {
	if len(peerIDs) == 0 {
		return Session{Done: true, Rank: 0}
	}
	s := Session{
		Left:    0,
		Right:   len(peerIDs) - 1,
		PeerIDs: peerIDs,
	}
	s.Mid = (s.Left + s.Right) / 2
	return s
}

// CurrentPeerID returns the peer the candidate should be compared against
// next, or "" when the session is done.
func (s Session) CurrentPeerID() string {
	if s.Done || s.Mid < 0 || s.Mid >= len(s.PeerIDs) {
		return ""
	}
	return s.PeerIDs[s.Mid]
}

// Step advances the search with one comparison outcome and returns the
// successor state. Calling Step on a done session is an error.
func (s Session) Step(o Outcome) (Session, error) {
	if s.Done {
		return s, fmt.Errorf("placement already complete at rank %d", s.Rank)
	}
	if !o.Valid() {
		return s, fmt.Errorf("unknown comparison outcome %q", o)
	}

	next := s
	switch o {
	case OutcomeTooClose:
		// Land just below the probed peer's lower neighbour. The insert
		// clamps ranks past the end of the band.
		next.Rank = next.Mid + 2
		next.Done = true
		return next, nil
	case OutcomePeerWins:
		next.Left = next.Mid + 1
	case OutcomeCandidateWins:
		next.Right = next.Mid - 1
	}

	if next.Left > next.Right {
		next.Rank = next.Left
		next.Done = true
		return next, nil
	}
	next.Mid = (next.Left + next.Right) / 2
	return next, nil
}

// Remaining returns an upper bound on the comparisons left, used to tell
// the client how long the flow can still run.
func (s Session) Remaining() int {
	if s.Done {
		return 0
	}
	n := s.Right - s.Left + 1
	count := 0
	for n > 0 {
		count++
		n /= 2
	}
	return count
}
