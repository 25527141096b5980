package rollcal

import (
	"fmt"

	"github.com/wonny/rollstitch/backend/internal/contracts"
	"github.com/wonny/rollstitch/backend/internal/dates"
)

// Check validates a (possibly persisted) schedule against price data and
// returns every issue found. An empty result means the schedule is usable.
func Check(schedule *contracts.RollSchedule, prices contracts.ContractPrices) []string {
	issues := make([]string, 0)

	if schedule.Empty() {
		return append(issues, "roll calendar is empty")
	}

	if err := schedule.Validate(); err != nil {
		issues = append(issues, err.Error())
	}

	for _, e := range schedule.Events {
		day := e.RollDate.Format(dates.Layout)

		cur, ok := prices[e.Current]
		if !ok || cur.Empty() {
			issues = append(issues, fmt.Sprintf("missing price data for current contract %s", e.Current))
			continue
		}
		nxt, ok := prices[e.Next]
		if !ok || nxt.Empty() {
			issues = append(issues, fmt.Sprintf("missing price data for next contract %s", e.Next))
			continue
		}

		if !cur.HasDate(e.RollDate) {
			issues = append(issues, fmt.Sprintf("no price for %s on roll date %s", e.Current, day))
		}
		if !nxt.HasDate(e.RollDate) {
			issues = append(issues, fmt.Sprintf("no price for %s on roll date %s", e.Next, day))
		}
		if e.Carry == e.Current {
			issues = append(issues, fmt.Sprintf("carry contract equals held contract %s on %s", e.Current, day))
		}
	}

	return issues
}
