package versions

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/scribehub/scribe-server/internal/models"
)

func TestLengthDeltaProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("total equals absolute length difference",
		prop.ForAll(
			func(previous, current string) bool {
				stats := lengthDelta(previous, current)
				diff := len(current) - len(previous)
				if diff < 0 {
					diff = -diff
				}
				return stats.TotalChanges == diff
			},
			gen.AnyString(),
			gen.AnyString(),
		))

	properties.Property("at most one direction is nonzero",
		prop.ForAll(
			func(previous, current string) bool {
				stats := lengthDelta(previous, current)
				return stats.CharsAdded == 0 || stats.CharsDeleted == 0
			},
			gen.AnyString(),
			gen.AnyString(),
		))

	properties.Property("stats are never negative and sum to total",
		prop.ForAll(
			func(previous, current string) bool {
				stats := lengthDelta(previous, current)
				return stats.CharsAdded >= 0 && stats.CharsDeleted >= 0 &&
					stats.CharsAdded+stats.CharsDeleted == stats.TotalChanges
			},
			gen.AnyString(),
			gen.AnyString(),
		))

	properties.Property("identical content reports zero change",
		prop.ForAll(
			func(content string) bool {
				return lengthDelta(content, content) == models.ChangeStats{}
			},
			gen.AnyString(),
		))

	properties.TestingRun(t)
}
