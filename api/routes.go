package api

import (
	"github.com/gorilla/mux"

	"github.com/homefax/homefax/internal/config"
	"github.com/homefax/homefax/internal/db"
	"github.com/homefax/homefax/internal/repository/sqlite"
	"github.com/homefax/homefax/internal/storage"
	"github.com/homefax/homefax/internal/workflow"
	"github.com/homefax/homefax/pkg/models"
)

func SetupRoutes(cfg *config.Config, version, buildTime string, database *db.DB, presigner storage.Presigner) *mux.Router {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)

	// Repository
	repo := sqlite.New(database, logger)
	svc := workflow.New(repo, logger)

	// Create handlers
	authHandler := NewAuthHandler(repo, repo, cfg.JWTSecret, cfg.TokenDuration)
	homesHandler := NewHomesHandler(repo, repo, repo, repo)
	invitationsHandler := NewInvitationsHandler(svc, repo)
	connectionsHandler := NewConnectionsHandler(repo)
	requestsHandler := NewRequestsHandler(svc, repo, repo)
	recordsHandler := NewRecordsHandler(svc, repo, repo, repo)
	warrantiesHandler := NewWarrantiesHandler(svc, repo, repo)
	messagesHandler := NewMessagesHandler(repo, repo, repo)
	remindersHandler := NewRemindersHandler(repo, repo)
	transfersHandler := NewTransfersHandler(svc)
	uploadsHandler := NewUploadsHandler(presigner, repo, repo, repo, repo, repo, repo, repo)
	adminHandler := NewAdminHandler(repo, repo, repo, svc, cfg.JWTSecret, cfg.TokenDuration)

	// Open endpoints
	r.HandleFunc("/version", VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", HealthHandler).Methods("GET")
	r.HandleFunc("/v1/auth/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/v1/auth/signin", authHandler.Signin).Methods("POST")
	r.HandleFunc("/v1/auth/pro-apply", authHandler.ProApply).Methods("POST")

	// API v1 Protected routes
	apiV1 := r.PathPrefix("/v1").Subrouter()
	apiV1.Use(JWTAuthMiddleware(cfg.JWTSecret, repo))

	// Auth endpoints
	authV1 := apiV1.PathPrefix("/auth").Subrouter()
	authV1.HandleFunc("/signout", authHandler.Signout).Methods("POST")
	authV1.HandleFunc("/me", authHandler.Me).Methods("GET")

	// Homes
	apiV1.HandleFunc("/homes", homesHandler.CreateHome).Methods("POST")
	apiV1.HandleFunc("/homes", homesHandler.ListHomes).Methods("GET")
	apiV1.HandleFunc("/homes/{id:[0-9]+}", homesHandler.GetHome).Methods("GET")
	apiV1.HandleFunc("/homes/{id:[0-9]+}/timeline", homesHandler.HomeTimeline).Methods("GET")
	apiV1.HandleFunc("/homes/{id:[0-9]+}/warranties", warrantiesHandler.ListHomeWarranties).Methods("GET")
	apiV1.HandleFunc("/homes/{id:[0-9]+}/reminders", remindersHandler.ListHomeReminders).Methods("GET")

	// Invitations
	apiV1.HandleFunc("/invitations", invitationsHandler.CreateInvitation).Methods("POST")
	apiV1.HandleFunc("/invitations", invitationsHandler.ListInvitations).Methods("GET")
	apiV1.HandleFunc("/invitations/accept", invitationsHandler.AcceptInvitation).Methods("POST")
	apiV1.HandleFunc("/invitations/decline", invitationsHandler.DeclineInvitation).Methods("POST")
	apiV1.HandleFunc("/invitations/{id:[0-9]+}/resend", invitationsHandler.ResendInvitation).Methods("POST")
	apiV1.HandleFunc("/invitations/{id:[0-9]+}/cancel", invitationsHandler.CancelInvitation).Methods("POST")

	// Connections
	apiV1.HandleFunc("/connections", connectionsHandler.ListConnections).Methods("GET")
	apiV1.HandleFunc("/connections/{id:[0-9]+}", connectionsHandler.GetConnection).Methods("GET")
	apiV1.HandleFunc("/connections/{id:[0-9]+}/archive", connectionsHandler.ArchiveConnection).Methods("POST")
	apiV1.HandleFunc("/connections/{id:[0-9]+}/thread", messagesHandler.OpenThread).Methods("POST")

	// Service requests and quotes
	apiV1.HandleFunc("/requests", requestsHandler.CreateRequest).Methods("POST")
	apiV1.HandleFunc("/requests", requestsHandler.ListRequests).Methods("GET")
	apiV1.HandleFunc("/requests/{id:[0-9]+}", requestsHandler.GetRequest).Methods("GET")
	apiV1.HandleFunc("/requests/{id:[0-9]+}/quote", requestsHandler.SubmitQuote).Methods("POST")
	apiV1.HandleFunc("/requests/{id:[0-9]+}/decline", requestsHandler.DeclineRequest).Methods("POST")
	apiV1.HandleFunc("/requests/{id:[0-9]+}/cancel", requestsHandler.CancelRequest).Methods("POST")
	apiV1.HandleFunc("/requests/{id:[0-9]+}/start", requestsHandler.StartWork).Methods("POST")
	apiV1.HandleFunc("/requests/{id:[0-9]+}/complete", requestsHandler.CompleteWork).Methods("POST")
	apiV1.HandleFunc("/requests/{id:[0-9]+}/attachments", uploadsHandler.PatchRequestAttachments).Methods("PATCH")
	apiV1.HandleFunc("/quotes/{quoteId:[0-9]+}", requestsHandler.UpdateQuote).Methods("PUT")
	apiV1.HandleFunc("/quotes/{quoteId:[0-9]+}/accept", requestsHandler.AcceptQuote).Methods("POST")

	// Service records
	apiV1.HandleFunc("/records", recordsHandler.CreateRecord).Methods("POST")
	apiV1.HandleFunc("/records", recordsHandler.ListMyRecords).Methods("GET")
	apiV1.HandleFunc("/records/{id:[0-9]+}", recordsHandler.GetRecord).Methods("GET")
	apiV1.HandleFunc("/records/{id:[0-9]+}/approve", recordsHandler.ApproveRecord).Methods("POST")
	apiV1.HandleFunc("/records/{id:[0-9]+}/reject", recordsHandler.RejectRecord).Methods("POST")
	apiV1.HandleFunc("/records/{id:[0-9]+}/attachments", uploadsHandler.PatchRecordAttachments).Methods("PATCH")

	// Warranties
	apiV1.HandleFunc("/warranties", warrantiesHandler.CreateWarranty).Methods("POST")
	apiV1.HandleFunc("/warranties/{id:[0-9]+}/accept", warrantiesHandler.AcceptWarranty).Methods("POST")
	apiV1.HandleFunc("/warranties/{id:[0-9]+}/reject", warrantiesHandler.RejectWarranty).Methods("POST")

	// Messaging
	apiV1.HandleFunc("/threads", messagesHandler.ListThreads).Methods("GET")
	apiV1.HandleFunc("/threads/{id:[0-9]+}/messages", messagesHandler.ListMessages).Methods("GET")
	apiV1.HandleFunc("/threads/{id:[0-9]+}/messages", messagesHandler.PostMessage).Methods("POST")
	apiV1.HandleFunc("/threads/{id:[0-9]+}/read", messagesHandler.MarkRead).Methods("POST")

	// Reminders
	apiV1.HandleFunc("/reminders", remindersHandler.CreateReminder).Methods("POST")
	apiV1.HandleFunc("/reminders", remindersHandler.ListMyReminders).Methods("GET")
	apiV1.HandleFunc("/reminders/{id:[0-9]+}/status", remindersHandler.SetReminderStatus).Methods("PUT")

	// Home transfers
	apiV1.HandleFunc("/transfers", transfersHandler.CreateTransfer).Methods("POST")
	apiV1.HandleFunc("/transfers/accept", transfersHandler.AcceptTransfer).Methods("POST")
	apiV1.HandleFunc("/transfers/{id:[0-9]+}/cancel", transfersHandler.CancelTransfer).Methods("POST")

	// Uploads
	apiV1.HandleFunc("/uploads/presign", uploadsHandler.Presign).Methods("POST")

	// Admin
	adminV1 := apiV1.PathPrefix("/admin").Subrouter()
	adminV1.Use(RequireRole(models.RoleAdmin))
	adminV1.HandleFunc("/users", adminHandler.ListUsers).Methods("GET")
	adminV1.HandleFunc("/contractors", adminHandler.ListContractors).Methods("GET")
	adminV1.HandleFunc("/homes", adminHandler.ListHomes).Methods("GET")
	adminV1.HandleFunc("/transfers", adminHandler.ListTransfers).Methods("GET")
	adminV1.HandleFunc("/stats", adminHandler.Stats).Methods("GET")
	adminV1.HandleFunc("/pros/{id:[0-9]+}/approve", adminHandler.ApprovePro).Methods("POST")
	adminV1.HandleFunc("/pros/{id:[0-9]+}/reject", adminHandler.RejectPro).Methods("POST")
	adminV1.HandleFunc("/users/{id:[0-9]+}/suspend", adminHandler.SuspendUser).Methods("POST")
	adminV1.HandleFunc("/users/{id:[0-9]+}/unsuspend", adminHandler.UnsuspendUser).Methods("POST")
	adminV1.HandleFunc("/users/{id:[0-9]+}/impersonate", adminHandler.Impersonate).Methods("POST")
	adminV1.HandleFunc("/transfers/{id:[0-9]+}/cancel", adminHandler.CancelTransfer).Methods("POST")

	return r
}
