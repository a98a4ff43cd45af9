package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"p9e.in/fuelnet/config"
	"p9e.in/fuelnet/models"
	"p9e.in/fuelnet/pkg/monitoring"
)

// ScopeMiddleware resolves the authenticated caller to the set of trading
// points they may touch and stashes it in the request context. Admins get
// an elevated, unrestricted scope; managers get every trading point of
// their network; operators get exactly their own trading point.
//
// Must run after JWTMiddleware.
func ScopeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUser(r)
		scope, err := ResolveScope(&user)
		if err != nil {
			http.Error(w, "could not resolve access scope", http.StatusInternalServerError)
			return
		}
		ctx := context.WithValue(r.Context(), scopeKey, scope)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ResolveScope maps a user to their trading-point window.
func ResolveScope(user *models.User) (monitoring.Scope, error) {
	if user.IsElevated() {
		return monitoring.Scope{Elevated: true}, nil
	}

	if user.TradingPointID != nil {
		return monitoring.Scope{TradingPointIDs: []uuid.UUID{*user.TradingPointID}}, nil
	}

	if user.NetworkID != nil {
		var ids []uuid.UUID
		err := config.DB.Model(&models.TradingPoint{}).
			Where("network_id = ?", *user.NetworkID).
			Pluck("id", &ids).Error
		if err != nil {
			return monitoring.Scope{}, err
		}
		return monitoring.Scope{TradingPointIDs: ids}, nil
	}

	// No binding at all: an empty, non-elevated scope that admits nothing.
	return monitoring.Scope{}, nil
}

// GetScope pulls the resolved scope out of the request context.
func GetScope(r *http.Request) monitoring.Scope {
	if s, ok := r.Context().Value(scopeKey).(monitoring.Scope); ok {
		return s
	}
	return monitoring.Scope{}
}
