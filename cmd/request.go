package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/respondhq/respond/core/dispatch"
	"github.com/respondhq/respond/core/eta"
	"github.com/respondhq/respond/core/events"
	"github.com/respondhq/respond/core/geo"
	"github.com/respondhq/respond/core/model"
	"github.com/respondhq/respond/infra/logger"
	"github.com/respondhq/respond/internal/eventbus"
)

var (
	reqType string
	reqDesc string
	reqLat  float64
	reqLng  float64
)

var requestCmd = &cobra.Command{
	Use:   "request",
	Short: "Inject a test emergency request and print its lifecycle",
	RunE:  injectRequest,
}

func init() {
	requestCmd.Flags().StringVar(&reqType, "type", string(model.RequestMedical), "request type")
	requestCmd.Flags().StringVar(&reqDesc, "description", "test request", "request description")
	requestCmd.Flags().Float64Var(&reqLat, "lat", 51.505, "request latitude")
	requestCmd.Flags().Float64Var(&reqLng, "lng", -0.09, "request longitude")
	rootCmd.AddCommand(requestCmd)
}

func injectRequest(cmd *cobra.Command, args []string) error {
	logg := logger.New("request-command")
	bus := eventbus.New[events.Event]()
	defer bus.Close()
	store := dispatch.New(bus, nil, eta.NewRandomEstimator(2, 12), logg)

	user := model.User{ID: "cli-user", Name: "CLI User", Email: "cli@example.com", UserType: model.UserClient}
	loc := &geo.Point{Lat: reqLat, Lng: reqLng}
	req, err := store.Create(user, loc, model.RequestType(reqType), reqDesc)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	logg.Infof("created request %s (%s) at %.4f,%.4f", req.ID, req.Type, req.Location.Lat, req.Location.Lng)

	accepted, err := store.Accept(req.ID, "cli-driver", "CLI Driver", &geo.Point{Lat: reqLat + 0.01, Lng: reqLng})
	if err != nil {
		return fmt.Errorf("accept request: %w", err)
	}
	logg.Infof("accepted by %s, eta %d min", accepted.DriverName, accepted.ETAMinutes)

	if _, err := store.Complete(req.ID); err != nil {
		return fmt.Errorf("complete request: %w", err)
	}
	final, _ := store.Get(req.ID)
	logg.Infof("request %s finished with status %s and %d messages", final.ID, final.Status, len(final.Messages))
	return nil
}
