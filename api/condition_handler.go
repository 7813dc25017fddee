package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/grant/condition"
)

func (a *API) registerConditionRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("conditions"))

	return g.GET("/conditions", a.listConditions,
		forge.WithSummary("List conditions"),
		forge.WithDescription("Lists the registered permission conditions."),
		forge.WithOperationID("listConditions"),
		forge.WithRequestSchema(ListConditionsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Condition list", ListResponse[condition.Condition]{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) listConditions(ctx forge.Context, req *ListConditionsRequest) (*ListResponse[condition.Condition], error) {
	items := filterConditions(a.conditions, req.Category)
	resp := &ListResponse[condition.Condition]{Items: items, Total: int64(len(items)), Limit: len(items)}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func filterConditions(reg *condition.Registry, category string) []condition.Condition {
	if reg == nil {
		return []condition.Condition{}
	}
	out := make([]condition.Condition, 0, reg.Size())
	for _, c := range reg.Values() {
		if category == "" || c.Category == category {
			out = append(out, c)
		}
	}
	return out
}
