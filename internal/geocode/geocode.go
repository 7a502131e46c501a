// README: Reverse-geocoding collaborator backed by the Google Maps API.
package geocode

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"
)

// Service resolves coordinates to a display address string. The core
// only ever stores the resulting string; nothing else is modeled.
type Service struct {
	client *maps.Client
}

func NewService(apiKey string) (*Service, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &Service{client: client}, nil
}

// ReverseGeocode returns the formatted address of the first result, or
// empty when the location resolves to nothing.
func (s *Service) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	results, err := s.client.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng: &maps.LatLng{Lat: lat, Lng: lng},
	})
	if err != nil {
		return "", fmt.Errorf("reverse geocode: %w", err)
	}
	if len(results) == 0 {
		return "", nil
	}
	return results[0].FormattedAddress, nil
}
