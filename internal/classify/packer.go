// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

// Batch submission defaults. The token budget stays well under the
// Batches API input ceiling; the item cap bounds the size of the result
// stream handled per job.
const (
	DefaultBatchTokenBudget = 1_000_000
	DefaultBatchMaxItems    = 10_000

	bytesPerToken = 4
)

// EstimateTokens approximates the token count of content for packing
// purposes.
func EstimateTokens(content string) int {
	return len(content) / bytesPerToken
}

// Pack groups units into submission-sized batches, greedily accumulating
// until adding the next unit would exceed the estimated token budget or
// the item cap. A unit whose own estimate exceeds the budget ships alone
// as a singleton rather than being dropped or blocking smaller units
// behind it. Zero or negative limits select the defaults.
func Pack(units []*Unit, tokenBudget, maxItems int) [][]*Unit {
	if tokenBudget <= 0 {
		tokenBudget = DefaultBatchTokenBudget
	}
	if maxItems <= 0 {
		maxItems = DefaultBatchMaxItems
	}

	var (
		batches   [][]*Unit
		current   []*Unit
		curTokens int
	)

	flush := func() {
		if len(current) > 0 {
			batches = append(batches, current)
			current = nil
			curTokens = 0
		}
	}

	for _, u := range units {
		t := EstimateTokens(u.Content)

		if t > tokenBudget {
			flush()
			batches = append(batches, []*Unit{u})
			continue
		}

		if len(current) >= maxItems || curTokens+t > tokenBudget {
			flush()
		}

		current = append(current, u)
		curTokens += t
	}
	flush()

	return batches
}
