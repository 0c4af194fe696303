package http

import (
	"net/http"

	"github.com/cimillas/seatlease/internal/app"
	"github.com/cimillas/seatlease/internal/domain"
	"github.com/gin-gonic/gin"
)

type recommendRequest struct {
	PartySize int                `json:"party_size"`
	Filters   domain.ZoneFilters `json:"filters"`
	Limit     int                `json:"limit"`
}

func handleRecommend(svc RecommendationAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req recommendRequest
		if !bindJSON(c, &req) {
			return
		}
		suggestions, err := svc.Recommend(c.Request.Context(), app.RecommendInput{
			EventID:   c.Param("eventID"),
			SessionID: identityFrom(c).SessionID,
			PartySize: req.PartySize,
			Filters:   req.Filters,
			Limit:     req.Limit,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		out := make([]suggestionResponse, 0, len(suggestions))
		for _, s := range suggestions {
			out = append(out, suggestionResponse{Rank: s.Rank, Reason: s.Reason, Zone: s.Zone})
		}
		c.JSON(http.StatusOK, out)
	}
}
