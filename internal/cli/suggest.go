package cli

// suggestID suggests a known tree id close to the given one. Known ids are
// those in the local registry: owned, collected and recently opened.
func (c *Commands) suggestID(id string) string {
	var known []string
	if owned, err := c.app.Registry.Owned(); err == nil {
		known = append(known, owned...)
	}
	if collected, err := c.app.Registry.Collected(); err == nil {
		for _, t := range collected {
			known = append(known, t.ID)
		}
	}
	if history, err := c.app.Registry.History(); err == nil {
		for _, h := range history {
			known = append(known, h.ID)
		}
	}

	bestMatch := ""
	minDistance := len(id) + 1
	for _, candidate := range known {
		if candidate == id {
			continue
		}
		distance := levenshteinDistance(id, candidate)
		if distance < minDistance && distance <= 3 {
			minDistance = distance
			bestMatch = candidate
		}
	}
	return bestMatch
}

func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	matrix := make([][]int, len(s1)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(s2)+1)
		matrix[i][0] = i
	}
	for j := 0; j <= len(s2); j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len(s1); i++ {
		for j := 1; j <= len(s2); j++ {
			cost := 0
			if s1[i-1] != s2[j-1] {
				cost = 1
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[len(s1)][len(s2)]
}
