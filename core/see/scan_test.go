package see

import (
	"testing"

	"boardsense.dev/sentinel/core/rules"
)

func TestScan_MateInOneIsReported(t *testing.T) {
	// Back-rank mate-in-1: Rd8#.
	fen := "6k1/5ppp/8/8/8/8/8/3R2K1 w - - 0 1"
	res, err := Scan(fen, "white")
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	found := false
	for _, m := range res.Checkmates {
		if m == "Rd8#" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected Rd8# among checkmates, got %v", res.Checkmates)
	}
	if !res.HasMateThreat {
		t.Errorf("expected HasMateThreat true")
	}
}

func TestScan_NoTacticsOnBareKings(t *testing.T) {
	fen := "4k3/8/8/8/8/8/8/4K3 w - - 0 1"
	res, err := Scan(fen, "white")
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if res.HasWinningTactic || res.HasMateThreat || res.HasPromotionThreat {
		t.Errorf("expected no threats on a bare-king position, got %+v", res)
	}
}

func TestStaticExchange_WinningCaptureIsPositive(t *testing.T) {
	// White rook takes an undefended black knight on d5.
	fen := "4k3/8/8/3n4/8/8/8/3R2K1 w - - 0 1"
	g, err := rules.Board(fen)
	if err != nil {
		t.Fatalf("rulesBoard error: %v", err)
	}
	net, err := SEENetAfterMove(g, "Rxd5", "white")
	if err != nil {
		t.Fatalf("SEENetAfterMove error: %v", err)
	}
	if net <= 0 {
		t.Errorf("expected a positive net from capturing an undefended knight, got %d", net)
	}
}
