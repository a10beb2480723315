package validation

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"centrifuge/internal/release"
)

// TracksPerDisc counts readable tracks on each disc.
func TracksPerDisc(rel *release.Release) map[int]int {
	counts := map[int]int{}
	for _, track := range rel.Readable() {
		counts[track.Disc()]++
	}
	return counts
}

func contiguous(numbers []int) bool {
	slices.Sort(numbers)
	numbers = slices.Compact(numbers)
	for i, n := range numbers {
		if n != i+1 {
			return false
		}
	}
	return true
}

func structureRules() []Rule {
	return []Rule{
		newCheck(CodeDuplicateTracks, func(_ context.Context, rel *release.Release, _ Oracle) (string, bool) {
			seen := map[[2]int]string{}
			for _, track := range rel.Readable() {
				if track.TrackNumber <= 0 {
					continue
				}
				key := [2]int{track.Disc(), track.TrackNumber}
				if other, ok := seen[key]; ok {
					return fmt.Sprintf("Disc %d track %d appears twice: %s and %s", key[0], key[1], other, track.Path), true
				}
				seen[key] = track.Path
			}
			return "", false
		}),
		newCheck(CodeMissingTracks, func(_ context.Context, rel *release.Release, _ Oracle) (string, bool) {
			byDisc := map[int][]int{}
			for _, track := range rel.Readable() {
				if track.TrackNumber <= 0 {
					return fmt.Sprintf("Track number missing in %s", track.Path), true
				}
				byDisc[track.Disc()] = append(byDisc[track.Disc()], track.TrackNumber)
			}
			for _, disc := range rel.Discs() {
				numbers := byDisc[disc]
				if !contiguous(numbers) {
					return fmt.Sprintf("Disc %d track numbers are not contiguous from 1: %s", disc, joinInts(numbers)), true
				}
			}
			return "", false
		}),
		newCheck(CodeTotalTracks, func(_ context.Context, rel *release.Release, _ Oracle) (string, bool) {
			counts := TracksPerDisc(rel)
			for _, track := range rel.Readable() {
				if track.TrackTotal > 0 && track.TrackTotal != counts[track.Disc()] {
					return fmt.Sprintf("Track total %d in %s should be %d", track.TrackTotal, track.Path, counts[track.Disc()]), true
				}
			}
			return "", false
		}),
		newCheck(CodeMissingDiscs, func(_ context.Context, rel *release.Release, _ Oracle) (string, bool) {
			discs := rel.Discs()
			if contiguous(slices.Clone(discs)) {
				return "", false
			}
			return "Disc numbers are not contiguous from 1: " + joinInts(discs), true
		}),
		newCheck(CodeTotalDiscs, func(_ context.Context, rel *release.Release, _ Oracle) (string, bool) {
			discs := len(rel.Discs())
			for _, track := range rel.Readable() {
				if track.DiscTotal > 0 && track.DiscTotal != discs {
					return fmt.Sprintf("Disc total %d in %s should be %d", track.DiscTotal, track.Path, discs), true
				}
			}
			return "", false
		}),
	}
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
