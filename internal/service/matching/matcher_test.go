package matching

import (
	"fmt"
	"testing"

	"github.com/casaiglesia/casa-server/internal/constants"
	"github.com/casaiglesia/casa-server/internal/domain"
	"go.uber.org/zap"
)

func makeParticipants(hosts []int, guestCount int) []*domain.Participant {
	participants := make([]*domain.Participant, 0)
	for i, capacity := range hosts {
		participants = append(participants, &domain.Participant{
			ID:           fmt.Sprintf("host-%d", i),
			Name:         fmt.Sprintf("Host %d", i),
			IsHost:       true,
			HostCapacity: capacity,
		})
	}
	for i := 0; i < guestCount; i++ {
		participants = append(participants, &domain.Participant{
			ID:   fmt.Sprintf("guest-%d", i),
			Name: fmt.Sprintf("Guest %d", i),
		})
	}
	return participants
}

func TestMatchPlacesEveryoneExactlyOnce(t *testing.T) {
	m := NewMatcher(zap.NewNop())
	participants := makeParticipants([]int{5, 5, 4}, 11)

	round, err := m.Match(participants, nil, "ronda 1", 42)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}

	seen := make(map[string]int)
	for _, g := range round.Groups {
		seen[g.HostID]++
		for _, id := range g.MemberIDs {
			seen[id]++
		}
	}

	if len(seen) != len(participants) {
		t.Errorf("placed %d distinct people, want %d", len(seen), len(participants))
	}
	for id, count := range seen {
		if count != 1 {
			t.Errorf("participant %s placed %d times", id, count)
		}
	}
}

func TestMatchRespectsSizeBounds(t *testing.T) {
	m := NewMatcher(zap.NewNop())
	participants := makeParticipants([]int{12, 6}, 10)

	round, err := m.Match(participants, nil, "ronda", 7)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}

	for _, g := range round.Groups {
		size := 1 + len(g.MemberIDs)
		if size > constants.MatchingConfig.MaxGroupSize {
			t.Errorf("group %s has %d people, max is %d", g.ID, size, constants.MatchingConfig.MaxGroupSize)
		}
		if size < constants.MatchingConfig.MinGroupSize {
			t.Errorf("group %s has %d people, min is %d", g.ID, size, constants.MatchingConfig.MinGroupSize)
		}
	}
}

func TestMatchHostCapacityNotExceeded(t *testing.T) {
	m := NewMatcher(zap.NewNop())
	participants := makeParticipants([]int{3, 3, 3}, 7)

	round, err := m.Match(participants, nil, "ronda", 1)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}

	capacities := map[string]int{"host-0": 3, "host-1": 3, "host-2": 3}
	for _, g := range round.Groups {
		if max, ok := capacities[g.HostID]; ok && len(g.MemberIDs) > max {
			t.Errorf("host %s seats %d guests, capacity %d", g.HostID, len(g.MemberIDs), max)
		}
	}
}

func TestMatchAvoidsRepeatPairs(t *testing.T) {
	m := NewMatcher(zap.NewNop())
	participants := makeParticipants([]int{4, 4}, 6)

	// guest-0 has eaten with host-0 twice already; with zero history against
	// host-1's table they should land there.
	history := map[[2]string]int{
		pairKeyForTest("guest-0", "host-0"): 2,
	}

	round, err := m.Match(participants, history, "ronda", 3)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}

	for _, g := range round.Groups {
		if g.HostID != "host-0" {
			continue
		}
		for _, id := range g.MemberIDs {
			if id == "guest-0" {
				t.Error("guest-0 rematched with host-0 despite alternatives")
			}
		}
	}
}

func TestMatchDeterministicForSeed(t *testing.T) {
	m := NewMatcher(zap.NewNop())
	participants := makeParticipants([]int{5, 5}, 8)

	first, err := m.Match(participants, nil, "ronda", 99)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	second, err := m.Match(participants, nil, "ronda", 99)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}

	if len(first.Groups) != len(second.Groups) {
		t.Fatalf("group counts differ: %d vs %d", len(first.Groups), len(second.Groups))
	}
	for i := range first.Groups {
		a, b := first.Groups[i], second.Groups[i]
		if a.HostID != b.HostID {
			t.Errorf("group %d host differs: %s vs %s", i, a.HostID, b.HostID)
		}
		if len(a.MemberIDs) != len(b.MemberIDs) {
			t.Fatalf("group %d member counts differ", i)
		}
		for j := range a.MemberIDs {
			if a.MemberIDs[j] != b.MemberIDs[j] {
				t.Errorf("group %d member %d differs: %s vs %s", i, j, a.MemberIDs[j], b.MemberIDs[j])
			}
		}
	}
}

func TestMatchRejectsOverflow(t *testing.T) {
	m := NewMatcher(zap.NewNop())
	participants := makeParticipants([]int{2}, 10)

	_, err := m.Match(participants, nil, "ronda", 1)
	if err == nil {
		t.Fatal("expected capacity error")
	}
	if _, ok := err.(*InsufficientCapacityError); !ok {
		t.Errorf("error type = %T, want *InsufficientCapacityError", err)
	}
}

func TestMatchRejectsHostlessPool(t *testing.T) {
	m := NewMatcher(zap.NewNop())
	participants := makeParticipants(nil, 6)

	if _, err := m.Match(participants, nil, "ronda", 1); err == nil {
		t.Fatal("expected error when nobody can host")
	}
}

func pairKeyForTest(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}
