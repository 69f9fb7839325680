package rank

import (
	"encoding/json/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func peers(n int) []string {
	out := make([]string, n)
	for i := range n {
		out[i] = string(rune('a' + i))
	}
	return out
}

func TestNewSession_EmptyBandCompletesImmediately(t *testing.T) {
	s := NewSession(nil)
	assert.True(t, s.Done)
	assert.Equal(t, 0, s.Rank)
	assert.Empty(t, s.CurrentPeerID())
}

func TestSession_CandidateWinsEverything(t *testing.T) {
	s := NewSession(peers(7))
	comparisons := 0
	for !s.Done {
		var err error
		s, err = s.Step(OutcomeCandidateWins)
		require.NoError(t, err)
		comparisons++
	}
	assert.Equal(t, 0, s.Rank)
	assert.Equal(t, 3, comparisons, "binary search over 7 peers takes 3 comparisons")
}

func TestSession_PeerWinsEverything(t *testing.T) {
	s := NewSession(peers(7))
	for !s.Done {
		var err error
		s, err = s.Step(OutcomePeerWins)
		require.NoError(t, err)
	}
	assert.Equal(t, 7, s.Rank, "losing every comparison lands below all peers")
}

func TestSession_FindsEveryRank(t *testing.T) {
	// For each target rank, answer comparisons as a user whose true
	// preference places the candidate exactly there would.
	const n = 9
	for target := 0; target <= n; target++ {
		s := NewSession(peers(n))
		for !s.Done {
			var err error
			if target <= s.Mid {
				s, err = s.Step(OutcomeCandidateWins)
			} else {
				s, err = s.Step(OutcomePeerWins)
			}
			require.NoError(t, err)
		}
		assert.Equal(t, target, s.Rank, "target rank %d", target)
	}
}

func TestSession_TooCloseTerminates(t *testing.T) {
	s := NewSession(peers(5))
	require.Equal(t, 2, s.Mid)

	s, err := s.Step(OutcomeTooClose)
	require.NoError(t, err)
	assert.True(t, s.Done)
	assert.Equal(t, 4, s.Rank, "too close lands at mid+2")
}

func TestSession_TooCloseAtLastPeerLandsPastEnd(t *testing.T) {
	s := NewSession(peers(1))
	s, err := s.Step(OutcomeTooClose)
	require.NoError(t, err)
	assert.True(t, s.Done)
	// Rank 2 in a band of one; the insert clamps this to an append.
	assert.Equal(t, 2, s.Rank)
}

func TestSession_StepAfterDoneFails(t *testing.T) {
	s := NewSession(nil)
	_, err := s.Step(OutcomeCandidateWins)
	assert.Error(t, err)
}

func TestSession_RejectsUnknownOutcome(t *testing.T) {
	s := NewSession(peers(3))
	_, err := s.Step(Outcome("shrug"))
	assert.Error(t, err)
}

func TestSession_SurvivesSerialization(t *testing.T) {
	s := NewSession(peers(8))
	s, err := s.Step(OutcomePeerWins)
	require.NoError(t, err)

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var restored Session
	require.NoError(t, json.Unmarshal(data, &restored))

	// Both copies must converge on the same rank given the same answers.
	for !s.Done {
		s, err = s.Step(OutcomeCandidateWins)
		require.NoError(t, err)
		restored, err = restored.Step(OutcomeCandidateWins)
		require.NoError(t, err)
	}
	assert.Equal(t, s.Rank, restored.Rank)
}

func TestSession_Remaining(t *testing.T) {
	s := NewSession(peers(8))
	assert.Equal(t, 4, s.Remaining())

	done := NewSession(nil)
	assert.Equal(t, 0, done.Remaining())
}
