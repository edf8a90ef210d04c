package motion

import (
	"slices"
	"strings"
)

// DefaultSafeZ is the device axis order policy that routes every move over
// the safe height.
const DefaultSafeZ = "safe_z"

// AddDefaults appends the device default axis order to a body that does not
// choose one itself. policy is "safe_z", "<grouping>;<route>" or empty.
func AddDefaults(body []Item, policy string) []Item {
	for _, item := range body {
		if item.Kind == KindSafeZ || item.Kind == KindAxisOrder {
			return body
		}
	}
	policy = strings.TrimSpace(policy)
	switch policy {
	case "":
		return body
	case DefaultSafeZ:
		return append(slices.Clip(body), Item{Kind: KindSafeZ})
	}
	grouping, route, _ := strings.Cut(policy, ";")
	return append(slices.Clip(body), Item{
		Kind: KindAxisOrder,
		Args: ItemArgs{Grouping: grouping, Route: Route(route)},
	})
}
