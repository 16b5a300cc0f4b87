package threats

import "testing"

func TestDetect_EmitsOnlyKnownThreatFamilies(t *testing.T) {
	// An Italian-game position: whatever Detect finds here, every tag must
	// belong to one of the four threat families.
	fen := "r1bqk2r/pppp1ppp/2n5/2b1p3/2B1P3/5N2/PPPP1PPP/RNBQK2R w KQkq - 4 4"
	got, err := Detect(fen, "white")
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}
	for _, tag := range got {
		if tag.Name != "tag.threat.fork" && tag.Name != "tag.threat.pin" &&
			tag.Name != "tag.threat.skewer" && tag.Name != "tag.threat.discovered_attack" {
			t.Errorf("unexpected threat tag name %q", tag.Name)
		}
	}
}

func TestDetect_NoThreatsOnEmptyBoardCorners(t *testing.T) {
	fen := "4k3/8/8/8/8/8/8/4K3 w - - 0 1"
	got, err := Detect(fen, "white")
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no threats with only kings on the board, got %d", len(got))
	}
}
