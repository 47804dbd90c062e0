package services

import (
	"testing"

	"github.com/google/uuid"

	"github.com/aisleron/aisleron-server/internal/domain"
)

func TestClampRank(t *testing.T) {
	cases := []struct {
		in, want int
	}{
		{-5, 1},
		{0, 1},
		{1, 1},
		{7, 7},
	}
	for _, c := range cases {
		if got := clampRank(c.in); got != c.want {
			t.Fatalf("clampRank(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestSiblingsToShift(t *testing.T) {
	target := uuid.New()
	a := &domain.Aisle{ID: uuid.New(), Rank: 1}
	b := &domain.Aisle{ID: uuid.New(), Rank: 2}
	c := &domain.Aisle{ID: target, Rank: 3}
	d := &domain.Aisle{ID: uuid.New(), Rank: 4}

	shift := siblingsToShift([]*domain.Aisle{a, b, c, d},
		func(x *domain.Aisle) uuid.UUID { return x.ID },
		func(x *domain.Aisle) int { return x.Rank },
		target, 2)

	if len(shift) != 2 {
		t.Fatalf("shift count = %d, want 2", len(shift))
	}
	// Siblings at rank >= 2 shift; the target itself never does.
	if shift[0].ID != b.ID || shift[1].ID != d.ID {
		t.Fatalf("shifted wrong siblings: %v", shift)
	}
}

func TestSiblingsToShift_AppendShiftsNobody(t *testing.T) {
	a := &domain.Aisle{ID: uuid.New(), Rank: 1}
	b := &domain.Aisle{ID: uuid.New(), Rank: 2}

	shift := siblingsToShift([]*domain.Aisle{a, b},
		func(x *domain.Aisle) uuid.UUID { return x.ID },
		func(x *domain.Aisle) int { return x.Rank },
		uuid.New(), 3)
	if len(shift) != 0 {
		t.Fatalf("append shifted %d siblings, want 0", len(shift))
	}
}
