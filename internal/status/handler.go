package status

import (
	"encoding/json"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/busfleet/opsproxy/pkg"
)

// Handler serves the unauthenticated health endpoint the dashboard's
// system status card polls.
type Handler struct {
	upstreamKeyPresent bool
	syncEnabled        bool
	versionInfo        string
}

func NewHandler(upstreamKeyPresent, syncEnabled bool, versionInfo string) *Handler {
	return &Handler{
		upstreamKeyPresent: upstreamKeyPresent,
		syncEnabled:        syncEnabled,
		versionInfo:        versionInfo,
	}
}

type healthResponse struct {
	Status             string          `json:"status"`
	Timestamp          time.Time       `json:"timestamp"`
	UpstreamKeyPresent bool            `json:"upstreamKeyPresent"`
	Features           map[string]bool `json:"features"`
	Version            string          `json:"version,omitempty"`
}

func (handler *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	resp, err := json.Marshal(healthResponse{
		Status:             "ok",
		Timestamp:          time.Now().UTC(),
		UpstreamKeyPresent: handler.upstreamKeyPresent,
		Features: map[string]bool{
			"dailySync": handler.syncEnabled,
		},
		Version: handler.versionInfo,
	})
	if err != nil {
		log.Errorf("marshal health response: %s", err)
		pkg.WriteJSONError(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, resp)
}
