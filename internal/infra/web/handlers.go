package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"quokka-directory/internal/domain"
	"quokka-directory/internal/domain/model"
	"quokka-directory/internal/usecase"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeDomainError maps the domain sentinels onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		http.Error(w, "Invalid request", http.StatusBadRequest)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrAlreadyExists):
		http.Error(w, "Already exists", http.StatusConflict)
	case errors.Is(err, domain.ErrPromoInactive),
		errors.Is(err, domain.ErrPromoExpired),
		errors.Is(err, domain.ErrPromoExhausted),
		errors.Is(err, domain.ErrPromoNotForCaller):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"reason": err.Error()})
	default:
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}

// ===== Public directory =====

func (s *Server) directoryListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := model.DirectoryFilter{
			NameContains: r.URL.Query().Get("name"),
			OwnerID:      r.URL.Query().Get("owner"),
		}
		listings, err := s.directoryUC.ListRanked(r.Context(), filter)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		response := struct {
			Data []*model.RankedListing `json:"data"`
		}{Data: listings}
		writeJSON(w, http.StatusOK, response)
	}
}

func (s *Server) directoryGetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listing, err := s.directoryUC.GetListing(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, listing)
	}
}

func (s *Server) viewHandler() http.HandlerFunc {
	type viewRequest struct {
		UserID string `json:"user_id"` // empty for anonymous views
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req viewRequest
		if r.Body != nil {
			json.NewDecoder(r.Body).Decode(&req) // body is optional
		}
		if err := s.directoryUC.RecordView(r.Context(), chi.URLParam(r, "id"), req.UserID); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) engagementHandler(record func(ctx context.Context, listingID string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := record(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ===== Promo codes =====

func (s *Server) promoValidateHandler() http.HandlerFunc {
	type validateRequest struct {
		Code      string `json:"code"`
		UserID    string `json:"user_id"`
		ListingID string `json:"listing_id"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req validateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		discount, err := s.promoUC.Validate(r.Context(), req.Code, req.UserID, req.ListingID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, discount)
	}
}

func (s *Server) promoRedeemHandler() http.HandlerFunc {
	type redeemRequest struct {
		Code string `json:"code"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req redeemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if err := s.promoUC.Redeem(r.Context(), req.Code); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) promoCreateHandler() http.HandlerFunc {
	type promoCreateRequest struct {
		Code            string     `json:"code"`
		IsActive        bool       `json:"is_active"`
		DiscountType    string     `json:"discount_type"`
		DiscountValue   int64      `json:"discount_value"`
		TargetUserID    *string    `json:"target_user_id"`
		TargetListingID *string    `json:"target_listing_id"`
		MaxUses         *int       `json:"max_uses"`
		ExpiresAt       *time.Time `json:"expires_at"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req promoCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		code, err := s.promoUC.Create(r.Context(), usecase.CreatePromoInput{
			Code:            req.Code,
			IsActive:        req.IsActive,
			DiscountType:    model.DiscountType(req.DiscountType),
			DiscountValue:   req.DiscountValue,
			TargetUserID:    req.TargetUserID,
			TargetListingID: req.TargetListingID,
			MaxUses:         req.MaxUses,
			ExpiresAt:       req.ExpiresAt,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, code)
	}
}

func (s *Server) promoListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		codes, err := s.promoUC.List(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		response := struct {
			Data []*model.PromoCode `json:"data"`
		}{Data: codes}
		writeJSON(w, http.StatusOK, response)
	}
}

func (s *Server) promoSetActiveHandler() http.HandlerFunc {
	type setActiveRequest struct {
		IsActive bool `json:"is_active"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req setActiveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if err := s.promoUC.SetActive(r.Context(), chi.URLParam(r, "code"), req.IsActive); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ===== Payments =====

func (s *Server) paymentCreateHandler() http.HandlerFunc {
	type paymentCreateRequest struct {
		CheckoutSessionID string     `json:"checkout_session_id"`
		PaymentIntentID   *string    `json:"payment_intent_id"`
		UserID            string     `json:"user_id"`
		ListingID         string     `json:"listing_id"`
		Tier              string     `json:"tier"`
		AmountCents       int64      `json:"amount_cents"`
		PlannedStartDate  *time.Time `json:"planned_start_date"`
		DurationDays      *int       `json:"duration_days"`
		DurationHours     *int       `json:"duration_hours"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req paymentCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		err := s.paymentUC.CreatePending(r.Context(), usecase.CreatePendingInput{
			CheckoutSessionID: req.CheckoutSessionID,
			PaymentIntentID:   req.PaymentIntentID,
			UserID:            req.UserID,
			ListingID:         req.ListingID,
			Tier:              model.Tier(req.Tier),
			AmountCents:       req.AmountCents,
			PlannedStartDate:  req.PlannedStartDate,
			DurationDays:      req.DurationDays,
			DurationHours:     req.DurationHours,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}
}

func (s *Server) paymentCompleteHandler() http.HandlerFunc {
	type completeRequest struct {
		CheckoutSessionID string  `json:"checkout_session_id"`
		PaymentIntentID   *string `json:"payment_intent_id"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req completeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		params, err := s.paymentUC.Complete(r.Context(), req.CheckoutSessionID, req.PaymentIntentID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		response := struct {
			Materialized bool                     `json:"materialized"`
			Entitlement  *model.EntitlementParams `json:"entitlement,omitempty"`
		}{Materialized: params != nil, Entitlement: params}
		writeJSON(w, http.StatusOK, response)
	}
}

func (s *Server) paymentBySessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := s.paymentUC.GetByCheckoutSession(r.Context(), chi.URLParam(r, "sid"))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		response := struct {
			Payment        *model.Payment `json:"payment"`
			OrderReference string         `json:"order_reference"`
		}{Payment: p, OrderReference: p.OrderReference()}
		writeJSON(w, http.StatusOK, response)
	}
}

func (s *Server) paymentWindowHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		win, err := s.paymentUC.GetEntitlementWindow(r.Context(), chi.URLParam(r, "sid"))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		response := struct {
			Start time.Time `json:"start"`
			End   time.Time `json:"end"`
		}{Start: win.Start, End: win.End}
		writeJSON(w, http.StatusOK, response)
	}
}

func (s *Server) userPaymentsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payments, err := s.paymentUC.ListUserPayments(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		response := struct {
			Data []*model.Payment `json:"data"`
		}{Data: payments}
		writeJSON(w, http.StatusOK, response)
	}
}

func (s *Server) userPaymentGetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := s.paymentUC.GetPayment(r.Context(), chi.URLParam(r, "pid"), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

// ===== Admin =====

func (s *Server) loginHandler() http.HandlerFunc {
	type loginRequest struct {
		Secret string `json:"secret"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if !s.auth.CheckSecret(req.Secret) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		token, err := s.auth.Mint(w)
		if err != nil {
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"token": token})
	}
}

func (s *Server) logoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.auth.Clear(w)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) giftHandler() http.HandlerFunc {
	type giftRequest struct {
		UserID        string    `json:"user_id"`
		ListingID     string    `json:"listing_id"`
		Tier          string    `json:"tier"`
		StartDate     time.Time `json:"start_date"`
		EndDate       time.Time `json:"end_date"`
		DurationDays  *int      `json:"duration_days"`
		DurationHours *int      `json:"duration_hours"`
		PremiumSlot   *string   `json:"premium_slot"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req giftRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		result, err := s.giftUC.IssueGift(r.Context(), usecase.GiftInput{
			UserID:             req.UserID,
			ListingID:          req.ListingID,
			Tier:               model.Tier(req.Tier),
			PromotionStartDate: req.StartDate,
			PromotionEndDate:   req.EndDate,
			DurationDays:       req.DurationDays,
			DurationHours:      req.DurationHours,
			PremiumSlot:        req.PremiumSlot,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, result)
	}
}

func (s *Server) listingCreateHandler() http.HandlerFunc {
	type listingCreateRequest struct {
		UserID      string  `json:"user_id"`
		Name        string  `json:"name"`
		Description string  `json:"description"`
		InviteLink  *string `json:"invite_link"`
		IsPublic    bool    `json:"is_public"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req listingCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		listing, err := s.directoryUC.CreateListing(r.Context(), usecase.CreateListingInput{
			UserID:      req.UserID,
			Name:        req.Name,
			Description: req.Description,
			InviteLink:  req.InviteLink,
			IsPublic:    req.IsPublic,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, listing)
	}
}

func (s *Server) listingVisibilityHandler() http.HandlerFunc {
	type visibilityRequest struct {
		IsVisible bool `json:"is_visible"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req visibilityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if err := s.directoryUC.SetVisible(r.Context(), chi.URLParam(r, "id"), req.IsVisible); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) subscriptionListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subs, err := s.subUC.ListAll(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		response := struct {
			Data []*model.Subscription `json:"data"`
		}{Data: subs}
		writeJSON(w, http.StatusOK, response)
	}
}

func (s *Server) listingSubscriptionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subs, err := s.subUC.ListForListing(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		response := struct {
			Data []*model.Subscription `json:"data"`
		}{Data: subs}
		writeJSON(w, http.StatusOK, response)
	}
}

func (s *Server) ownerSubscriptionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subs, err := s.subUC.ListForOwner(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		response := struct {
			Data []*model.Subscription `json:"data"`
		}{Data: subs}
		writeJSON(w, http.StatusOK, response)
	}
}

func (s *Server) subscriptionCreateHandler() http.HandlerFunc {
	type subscriptionCreateRequest struct {
		ListingID string    `json:"listing_id"`
		Tier      string    `json:"tier"`
		StartDate time.Time `json:"start_date"`
		EndDate   time.Time `json:"end_date"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req subscriptionCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		err := s.subUC.CreateRange(r.Context(), req.ListingID, model.Tier(req.Tier), req.StartDate, req.EndDate)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}
}

func (s *Server) subscriptionRevokeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.subUC.Revoke(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) adminPaymentListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payments, err := s.paymentUC.ListAllPayments(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		response := struct {
			Data []*model.Payment `json:"data"`
		}{Data: payments}
		writeJSON(w, http.StatusOK, response)
	}
}

func (s *Server) adminPaymentDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.paymentUC.DeletePayment(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) promotionWindowHandler() http.HandlerFunc {
	type windowRequest struct {
		Start time.Time `json:"start"`
		End   time.Time `json:"end"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req windowRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		err := s.paymentUC.SetPromotionWindow(r.Context(), chi.URLParam(r, "sid"), req.Start, req.End)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
