// Huddle - Professional Networking and Booking Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/huddle

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/huddle/internal/auth"
	"github.com/tomtom215/huddle/internal/config"
	"github.com/tomtom215/huddle/internal/middleware"
	"github.com/tomtom215/huddle/internal/realtime"
)

// Router assembles the full HTTP surface.
type Router struct {
	handler       *Handler
	authMW        *auth.Middleware
	chiMiddleware *ChiMiddleware
	wsHandler     *realtime.ConnectionHandler
}

// NewRouter wires handlers, authentication, and the realtime entry point.
func NewRouter(cfg *config.Config, handler *Handler, jwtManager *auth.JWTManager, wsHandler *realtime.ConnectionHandler) *Router {
	return &Router{
		handler:       handler,
		authMW:        auth.NewMiddleware(jwtManager),
		chiMiddleware: NewChiMiddleware(&cfg.Security),
		wsHandler:     wsHandler,
	}
}

// Setup builds the Chi route tree.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order. CORS must be
	// global so OPTIONS preflights reach it.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	// Health and metrics, permissively rate limited for monitoring.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Credential endpoints, strictly rate limited against brute force.
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitAuth())
		r.Post("/register", router.handler.Register)
		r.Post("/login", router.handler.Login)
	})

	// The realtime entry point authenticates through its own gate, not
	// the bearer middleware: browsers cannot set headers on WebSocket
	// handshakes.
	r.Method(http.MethodGet, "/api/v1/ws", router.wsHandler)

	// Everything else requires a valid bearer token.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(middleware.PrometheusMetrics)
		r.Use(router.authMW.Authenticate)

		r.Get("/me", router.handler.Me)
		r.Get("/users/{userID}", router.handler.GetUser)
		r.Get("/presence", router.handler.Presence)

		r.Route("/connections", func(r chi.Router) {
			r.Get("/", router.handler.ListConnections)
			r.Post("/", router.handler.CreateConnection)
			r.Post("/{connectionID}/respond", router.handler.RespondConnection)
		})

		r.Route("/messages", func(r chi.Router) {
			r.Post("/", router.handler.SendMessage)
			r.Get("/unread", router.handler.UnreadMessages)
			r.Get("/{userID}", router.handler.Conversation)
			r.Post("/{userID}/read", router.handler.MarkConversationRead)
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Get("/", router.handler.ListBookings)
			r.Post("/", router.handler.CreateBooking)
			r.Get("/{bookingID}", router.handler.GetBooking)
			r.Patch("/{bookingID}/status", router.handler.UpdateBookingStatus)
		})

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", router.handler.Feed)
			r.Post("/", router.handler.CreatePost)
			r.Get("/{postID}", router.handler.GetPost)
			r.Post("/{postID}/like", router.handler.LikePost)
			r.Post("/{postID}/comments", router.handler.CommentPost)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", router.handler.ListNotifications)
			r.Get("/unread", router.handler.UnreadNotifications)
			r.Post("/read-all", router.handler.MarkAllNotificationsRead)
			r.Post("/{notificationID}/read", router.handler.MarkNotificationRead)
		})
	})

	return r
}
