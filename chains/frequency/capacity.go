package frequency

import (
	"fmt"

	"provider-dashboard/models/submodel"
	"provider-dashboard/utils"
)

const capacityUnit = "CAP"

// CapacityView is the capacity ledger of a provider as the dashboard shows it.
type CapacityView struct {
	*submodel.Capacity
	Remaining       string `json:"remaining"`
	TotalIssued     string `json:"totalIssued"`
	LastReplenished string `json:"lastReplenished"`
	StakedToken     string `json:"stakedToken"`
}

func FormatCapacity(c *submodel.Capacity, decimals uint32, token string) *CapacityView {
	return &CapacityView{
		Capacity:        c,
		Remaining:       fmt.Sprintf("Remaining: %s", utils.FormatBalance(c.RemainingCapacity, decimals, capacityUnit)),
		TotalIssued:     fmt.Sprintf("Total Issued: %s", utils.FormatBalance(c.TotalCapacityIssued, decimals, capacityUnit)),
		LastReplenished: fmt.Sprintf("Last Replenished: Epoch %d", c.LastReplenishedEpoch),
		StakedToken:     fmt.Sprintf("Staked Token: %s", utils.FormatBalance(c.TotalTokensStaked, decimals, token)),
	}
}
