package api

import (
	"errors"
	"net/http"

	"github.com/DamianAcri/menulink-sub001/internal/domain"
	"github.com/DamianAcri/menulink-sub001/internal/store"
)

// APIKeyHeader carries the restaurant API key on owner endpoints.
const APIKeyHeader = "X-Api-Key"

type ownerHandler func(w http.ResponseWriter, r *http.Request, restaurant domain.Restaurant)

// owner authenticates the restaurant in the {rid} path segment by its API
// key. Unknown restaurants and bad keys both answer 401.
func (s *Server) owner(h ownerHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(APIKeyHeader)
		if key == "" {
			s.writeError(w, r, errUnauthorized)
			return
		}
		restaurant, err := s.store.GetRestaurant(r.Context(), r.PathValue("rid"))
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, r, errUnauthorized)
			return
		}
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if err := s.signer.Verify(restaurant.APIKeyHash, key); err != nil {
			s.writeError(w, r, errUnauthorized)
			return
		}
		h(w, r, restaurant)
	})
}
