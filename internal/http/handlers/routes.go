package handlers

import (
	"github.com/go-chi/chi/v5"

	"github.com/bookline/bookline-api/pkg/middleware"
)

// Routes mounts one subrouter per entity family under /api. The idempotency
// store guards booking creation against duplicate submissions.
func (h *Handlers) Routes(r chi.Router, idempotencyStore middleware.IdempotencyStore) {
	r.Route("/api/users", func(r chi.Router) {
		r.Post("/", h.Register)
		r.Post("/token", h.Token)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireAuth)
			r.Get("/", h.ListUsers)
			r.Get("/me", h.Me)
			r.Put("/me/password", h.ChangePassword)
			r.Get("/{id}", h.GetUser)
			r.Put("/{id}", h.UpdateUser)
			r.Delete("/{id}", h.DeactivateUser)

			r.Post("/me/addresses", h.CreateUserAddress)
			r.Get("/me/addresses", h.ListUserAddresses)
			r.Put("/me/addresses/{addressID}", h.UpdateUserAddress)
			r.Delete("/me/addresses/{addressID}", h.DeleteUserAddress)
		})
	})

	r.Route("/api/businesses", func(r chi.Router) {
		r.Get("/", h.ListBusinesses)
		r.Get("/{id}", h.GetBusiness)
		r.Get("/{id}/addresses", h.ListBusinessAddresses)
		r.Get("/{id}/hours", h.ListBusinessHours)
		r.Get("/{id}/reviews", h.ListBusinessReviews)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireAuth)
			r.Post("/", h.CreateBusiness)
			r.Get("/mine", h.ListMyBusinesses)
			r.Put("/{id}", h.UpdateBusiness)
			r.Delete("/{id}", h.CloseBusiness)

			r.Post("/{id}/addresses", h.CreateBusinessAddress)
			r.Put("/{id}/addresses/{addressID}", h.UpdateBusinessAddress)
			r.Delete("/{id}/addresses/{addressID}", h.DeleteBusinessAddress)
			r.Put("/{id}/hours", h.UpsertBusinessHours)

			r.Get("/{id}/bookings", h.ListBusinessBookings)
			r.Get("/{id}/reviews/all", h.ListAllBusinessReviews)
		})
	})

	r.Route("/api/categories", func(r chi.Router) {
		r.Get("/", h.ListCategories)
		r.Get("/{id}", h.GetCategory)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireAuth)
			r.Post("/", h.CreateCategory)
			r.Put("/{id}", h.UpdateCategory)
			r.Delete("/{id}", h.DeleteCategory)
		})
	})

	r.Route("/api/services", func(r chi.Router) {
		r.Get("/", h.ListServices)
		r.Get("/{id}", h.GetService)
		r.Get("/{id}/pricing", h.ListPricing)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireAuth)
			r.Post("/", h.CreateService)
			r.Put("/{id}", h.UpdateService)
			r.Delete("/{id}", h.DeleteService)

			r.Post("/{id}/pricing", h.CreatePricing)
			r.Put("/{id}/pricing/{pricingID}", h.UpdatePricing)
			r.Delete("/{id}/pricing/{pricingID}", h.DeletePricing)
		})
	})

	r.Route("/api/resources", func(r chi.Router) {
		r.Get("/", h.ListResources)
		r.Get("/{id}", h.GetResource)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireAuth)
			r.Post("/", h.CreateResource)
			r.Put("/{id}", h.UpdateResource)
			r.Delete("/{id}", h.DeleteResource)
		})
	})

	r.Route("/api/availability", func(r chi.Router) {
		r.Get("/slots", h.ListSlots)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireAuth)
			r.Post("/templates", h.CreateTemplate)
			r.Get("/templates", h.ListTemplates)
			r.Put("/templates/{id}", h.UpdateTemplate)
			r.Delete("/templates/{id}", h.DeleteTemplate)

			r.Post("/slots", h.CreateSlot)
			r.Post("/slots/generate", h.GenerateSlots)
			r.Put("/slots/{id}", h.UpdateSlot)
			r.Delete("/slots/{id}", h.DeleteSlot)

			r.Post("/blocked", h.CreateBlockedTime)
			r.Get("/blocked", h.ListBlockedTimes)
			r.Put("/blocked/{id}", h.UpdateBlockedTime)
			r.Delete("/blocked/{id}", h.DeleteBlockedTime)
		})
	})

	r.Route("/api/bookings", func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.With(middleware.IdempotencyMiddleware(idempotencyStore)).Post("/", h.CreateBooking)
		r.Get("/", h.ListMyBookings)
		r.Get("/lookup", h.GetBookingByReference)
		r.Get("/{id}", h.GetBooking)
		r.Put("/{id}", h.UpdateBooking)
		r.Post("/{id}/cancel", h.CancelBooking)
		r.Get("/{id}/history", h.ListBookingHistory)

		r.Post("/{id}/participants", h.AddParticipant)
		r.Get("/{id}/participants", h.ListParticipants)
		r.Put("/{id}/participants/{participantID}", h.UpdateParticipant)
		r.Delete("/{id}/participants/{participantID}", h.RemoveParticipant)

		r.Get("/{id}/payments", h.ListBookingPayments)
	})

	r.Route("/api/payments", func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Post("/methods", h.CreatePaymentMethod)
		r.Get("/methods", h.ListPaymentMethods)
		r.Put("/methods/{methodID}", h.UpdatePaymentMethod)
		r.Delete("/methods/{methodID}", h.DeletePaymentMethod)

		r.Post("/", h.CreatePayment)
		r.Get("/{id}", h.GetPayment)
		r.Put("/{id}", h.UpdatePayment)
		r.Post("/{id}/refunds", h.CreateRefund)
		r.Get("/{id}/refunds", h.ListRefunds)
		r.Post("/refunds/{refundID}/complete", h.CompleteRefund)
	})

	r.Route("/api/promotions", func(r chi.Router) {
		r.Get("/", h.ListPromotions)
		r.Get("/{id}", h.GetPromotion)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireAuth)
			r.Post("/", h.CreatePromotion)
			r.Put("/{id}", h.UpdatePromotion)
			r.Delete("/{id}", h.DeletePromotion)
			r.Post("/validate", h.ValidatePromotion)
			r.Post("/{id}/apply", h.ApplyPromotion)
			r.Get("/{id}/usage", h.ListPromotionUsage)
		})
	})

	r.Route("/api/reviews", func(r chi.Router) {
		r.Get("/{id}", h.GetReview)
		r.Get("/{id}/response", h.GetReviewResponse)
		r.Post("/{id}/helpful", h.MarkReviewHelpful)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireAuth)
			r.Post("/", h.CreateReview)
			r.Get("/mine", h.ListMyReviews)
			r.Put("/{id}", h.UpdateReview)
			r.Delete("/{id}", h.DeleteReview)
			r.Post("/{id}/moderate", h.ModerateReview)
			r.Post("/{id}/response", h.RespondToReview)
			r.Put("/{id}/response", h.UpdateReviewResponse)
		})
	})
}
