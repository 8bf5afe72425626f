package engine

import "testing"

func TestTerritory_SoloSnakeOwnsEverythingReachable(t *testing.T) {
	n, err := NewNode(eleven(0, vertical("me", 100, 5, 5, 3)))
	if err != nil {
		t.Fatalf("NewNode: %v", err)
	}

	terr := n.Territory(TieBreakNeutral)

	// 121 interior cells, minus the two trailing body segments still
	// occupied at turn 0, minus the head cell (owned but never counted).
	want := int32(BoardSize*BoardSize - 3)
	if terr[0] != want {
		t.Fatalf("solo territory=%d want=%d", terr[0], want)
	}
	for i := 1; i < MaxSnakes; i++ {
		if terr[i] != 0 {
			t.Fatalf("phantom snake %d scored %d", i, terr[i])
		}
	}
}

func TestTerritory_MirroredHeadsScoreEqual(t *testing.T) {
	state := eleven(0,
		vertical("me", 100, 2, 5, 1),
		vertical("other", 100, 8, 5, 1),
	)
	n, err := NewNode(state)
	if err != nil {
		t.Fatalf("NewNode: %v", err)
	}

	for _, tb := range []TieBreak{TieBreakNeutral, TieBreakScanOrder} {
		terr := n.Territory(tb)
		if tb == TieBreakNeutral && terr[0] != terr[1] {
			t.Errorf("neutral tie-break: mirrored heads score %d vs %d", terr[0], terr[1])
		}
		// Scan-order tie-break may hand every contested cell to one side,
		// but never more than the contested frontier's worth.
		if diff := terr[0] - terr[1]; diff > BoardSize || diff < -BoardSize {
			t.Errorf("tie-break %v: scores %d vs %d diverge beyond one frontier", tb, terr[0], terr[1])
		}
	}
}

func TestTerritory_NearbyHeadsSplitBoardEvenly(t *testing.T) {
	// Heads one free cell apart; the equidistant column between them is
	// contested and credited to nobody under the neutral policy.
	state := eleven(0,
		vertical("me", 100, 4, 5, 1),
		vertical("other", 100, 6, 5, 1),
	)
	n, err := NewNode(state)
	if err != nil {
		t.Fatalf("NewNode: %v", err)
	}

	terr := n.Territory(TieBreakNeutral)
	diff := terr[0] - terr[1]
	if diff < 0 {
		diff = -diff
	}
	if diff > 1 {
		t.Fatalf("adjacent heads split %d vs %d, want at most one cell apart", terr[0], terr[1])
	}
	if terr[0] == 0 || terr[1] == 0 {
		t.Fatalf("degenerate split %d vs %d", terr[0], terr[1])
	}
}

func TestTerritory_SumBoundedByFreeCells(t *testing.T) {
	state := eleven(12,
		vertical("me", 100, 3, 7, 4),
		vertical("other", 100, 7, 3, 4),
	)
	n, err := NewNode(state)
	if err != nil {
		t.Fatalf("NewNode: %v", err)
	}

	free := int32(0)
	for y := int32(0); y < BoardSize; y++ {
		for x := int32(0); x < BoardSize; x++ {
			if n.Occ.Get(x, y) <= n.Turn {
				free++
			}
		}
	}
	// Heads sit on free (re-stamped) cells but are never counted.
	free -= int32(n.Snakes)

	for _, tb := range []TieBreak{TieBreakNeutral, TieBreakScanOrder} {
		terr := n.Territory(tb)
		sum := int32(0)
		for i := 0; i < n.Snakes; i++ {
			sum += terr[i]
		}
		if sum > free {
			t.Errorf("tie-break %v: territory sum %d exceeds %d free cells", tb, sum, free)
		}
		if sum < free/2 {
			t.Errorf("tie-break %v: territory sum %d suspiciously low for %d free cells", tb, sum, free)
		}
	}
}

func TestTerritory_ScanOrderClaimsContestedCells(t *testing.T) {
	state := eleven(0,
		vertical("me", 100, 4, 5, 1),
		vertical("other", 100, 6, 5, 1),
	)
	n, err := NewNode(state)
	if err != nil {
		t.Fatalf("NewNode: %v", err)
	}

	neutral := n.Territory(TieBreakNeutral)
	scan := n.Territory(TieBreakScanOrder)

	// The x=5 column is equidistant from both heads. Neutral leaves it
	// unclaimed; scan-order awards it, so the totals must differ.
	nSum := neutral[0] + neutral[1]
	sSum := scan[0] + scan[1]
	if sSum <= nSum {
		t.Fatalf("scan-order total %d not above neutral total %d", sSum, nSum)
	}
	if neutral[0] != neutral[1] {
		t.Fatalf("neutral split asymmetric: %d vs %d", neutral[0], neutral[1])
	}
}
