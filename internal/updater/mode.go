package updater

import (
	"fmt"
	"strings"
)

// Mode selects which instruments a run fetches.
type Mode string

const (
	// ModeUpdate fetches yesterday for known instruments and backfills a
	// capped batch of new ones.
	ModeUpdate Mode = "update"

	// ModeRebuild discards the stored catalog and backfills the whole universe.
	ModeRebuild Mode = "rebuild"

	// ModeFill backfills every unknown instrument without the per-run cap
	// and leaves known ones alone.
	ModeFill Mode = "fill"
)

// Modes lists the accepted modes.
var Modes = []Mode{ModeUpdate, ModeRebuild, ModeFill}

func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if strings.EqualFold(s, string(m)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown mode %q (want update, rebuild or fill)", s)
}
