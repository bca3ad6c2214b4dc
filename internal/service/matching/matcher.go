package matching

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/casaiglesia/casa-server/internal/constants"
	"github.com/casaiglesia/casa-server/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Matcher builds dinner rounds from the current sign-ups. Groups are seeded
// from hosts (largest tables first), then guests are placed one by one into
// the table that minimizes repeat pairings against past rounds. The guest
// order is shuffled with the round seed, so a given seed always produces the
// same grouping.
type Matcher struct {
	logger *zap.Logger
}

type InsufficientCapacityError struct {
	Guests int
	Seats  int
}

func (e *InsufficientCapacityError) Error() string {
	return fmt.Sprintf("not enough host capacity: %d guests for %d seats", e.Guests, e.Seats)
}

func NewMatcher(logger *zap.Logger) *Matcher {
	return &Matcher{logger: logger}
}

type table struct {
	host     *domain.Participant
	capacity int
	members  []string
}

func (t *table) size() int {
	return 1 + len(t.members)
}

func (t *table) hasRoom() bool {
	return len(t.members) < t.capacity && t.size() < constants.MatchingConfig.MaxGroupSize
}

// Match computes a round over participants. history counts how many times
// each unordered pair has already shared a table.
func (m *Matcher) Match(participants []*domain.Participant, history map[[2]string]int, label string, seed int64) (*domain.DinnerRound, error) {
	if len(participants) < constants.MatchingConfig.MinGroupSize {
		return nil, fmt.Errorf("need at least %d participants, have %d",
			constants.MatchingConfig.MinGroupSize, len(participants))
	}

	hosts := make([]*domain.Participant, 0)
	guests := make([]*domain.Participant, 0)
	for _, p := range participants {
		if p.IsHost && p.HostCapacity > 0 {
			hosts = append(hosts, p)
		} else {
			guests = append(guests, p)
		}
	}

	if len(hosts) == 0 {
		return nil, fmt.Errorf("no hosts among %d participants", len(participants))
	}

	sort.Slice(hosts, func(i, j int) bool {
		if hosts[i].HostCapacity != hosts[j].HostCapacity {
			return hosts[i].HostCapacity > hosts[j].HostCapacity
		}
		return hosts[i].ID < hosts[j].ID
	})

	tables, guests, err := m.seedTables(hosts, guests)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(seed))
	shuffled := make([]*domain.Participant, len(guests))
	copy(shuffled, guests)
	sort.Slice(shuffled, func(i, j int) bool { return shuffled[i].ID < shuffled[j].ID })
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	for _, guest := range shuffled {
		best := m.pickTable(tables, guest, history)
		if best == nil {
			return nil, &InsufficientCapacityError{
				Guests: len(shuffled),
				Seats:  totalSeats(tables),
			}
		}
		best.members = append(best.members, guest.ID)
	}

	round := &domain.DinnerRound{
		ID:        uuid.NewString(),
		Label:     label,
		MatchedAt: time.Now(),
		Groups:    make([]*domain.DinnerGroup, 0, len(tables)),
	}
	for _, t := range tables {
		round.Groups = append(round.Groups, &domain.DinnerGroup{
			ID:        uuid.NewString(),
			RoundID:   round.ID,
			HostID:    t.host.ID,
			MemberIDs: t.members,
		})
	}

	m.logger.Info("Dinner round matched",
		zap.String("label", label),
		zap.Int("participants", len(participants)),
		zap.Int("groups", len(round.Groups)),
		zap.Int64("seed", seed),
	)

	return round, nil
}

// seedTables opens the fewest tables (largest first) that can seat everyone.
// Hosts left over join the guest pool, which keeps small sign-up pools from
// fragmenting into sub-minimum groups.
func (m *Matcher) seedTables(hosts, guests []*domain.Participant) ([]*table, []*domain.Participant, error) {
	tables := make([]*table, 0, len(hosts))
	pool := append([]*domain.Participant{}, guests...)

	remainingHosts := hosts
	for len(remainingHosts) > 0 {
		// Hosts not given their own table dine as guests, so they need seats.
		if len(tables) > 0 && totalSeats(tables) >= len(pool)+len(remainingHosts) {
			break
		}

		h := remainingHosts[0]
		remainingHosts = remainingHosts[1:]

		seats := h.HostCapacity
		if seats > constants.MatchingConfig.MaxGroupSize-1 {
			seats = constants.MatchingConfig.MaxGroupSize - 1
		}
		tables = append(tables, &table{host: h, capacity: seats})
	}

	// Surplus hosts dine as guests this round.
	pool = append(pool, remainingHosts...)

	if totalSeats(tables) < len(pool) {
		return nil, nil, &InsufficientCapacityError{Guests: len(pool), Seats: totalSeats(tables)}
	}

	// Shrink the table count while average size would drop below minimum.
	for len(tables) > 1 {
		people := len(pool) + len(tables)
		if people/len(tables) >= constants.MatchingConfig.MinGroupSize {
			break
		}
		last := tables[len(tables)-1]
		candidate := tables[:len(tables)-1]
		if totalSeats(candidate) < len(pool)+1 {
			break
		}
		tables = candidate
		pool = append(pool, last.host)
	}

	return tables, pool, nil
}

// pickTable returns the open table where guest meets the fewest familiar
// faces, preferring emptier tables on ties.
func (m *Matcher) pickTable(tables []*table, guest *domain.Participant, history map[[2]string]int) *table {
	var best *table
	bestCost := -1

	for _, t := range tables {
		if !t.hasRoom() {
			continue
		}

		cost := pairCost(history, guest.ID, t.host.ID)
		for _, memberID := range t.members {
			cost += pairCost(history, guest.ID, memberID)
		}

		if best == nil || cost < bestCost || (cost == bestCost && t.size() < best.size()) {
			best = t
			bestCost = cost
		}
	}

	return best
}

func pairCost(history map[[2]string]int, a, b string) int {
	if a > b {
		a, b = b, a
	}
	return history[[2]string{a, b}]
}

func totalSeats(tables []*table) int {
	seats := 0
	for _, t := range tables {
		seats += t.capacity
	}
	return seats
}
