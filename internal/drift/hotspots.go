// SPDX-License-Identifier: AGPL-3.0-or-later
package drift

import "sort"

// commandOutputBucket collects score from findings with no file attribution.
const commandOutputBucket = "(command-output)"

// maxHotspots bounds the ranking output.
const maxHotspots = 10

// RankHotspots attributes each finding's score evenly across its files and
// returns the top files by (score desc, count desc, path asc).
func RankHotspots(findings []Finding) []Hotspot {
	scores := make(map[string]float64)
	counts := make(map[string]int)

	for _, f := range findings {
		files := f.Files
		if len(files) == 0 {
			files = []string{commandOutputBucket}
		}
		share := f.Score / float64(len(files))
		for _, file := range files {
			scores[file] += share
			counts[file]++
		}
	}

	hotspots := make([]Hotspot, 0, len(scores))
	for file, score := range scores {
		hotspots = append(hotspots, Hotspot{File: file, Score: score, Findings: counts[file]})
	}
	sort.Slice(hotspots, func(i, j int) bool {
		if hotspots[i].Score != hotspots[j].Score {
			return hotspots[i].Score > hotspots[j].Score
		}
		if hotspots[i].Findings != hotspots[j].Findings {
			return hotspots[i].Findings > hotspots[j].Findings
		}
		return hotspots[i].File < hotspots[j].File
	})

	if len(hotspots) > maxHotspots {
		hotspots = hotspots[:maxHotspots]
	}
	return hotspots
}
