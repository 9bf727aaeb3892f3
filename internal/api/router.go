package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"attendance.service/internal/api/handler"
	"attendance.service/internal/api/middleware"
	"attendance.service/internal/core/model"
)

const banner = "Servidor backend de YURAQ WASI en funcionamiento"

// Deps holds what the router needs to build its handlers.
type Deps struct {
	Auth       handler.AuthService
	Attendance handler.AttendanceService
	Users      handler.UserService
	Tokens     middleware.TokenParser
	Exports    *handler.ExportHandler
	// Live serves the admin websocket feed. Nil disables the route.
	Live    http.HandlerFunc
	Origins middleware.OriginPolicy
}

// NewRouter sets up the gorilla/mux router and defines all API routes.
func NewRouter(d Deps) http.Handler {
	authHandler := handler.AuthHandler{Service: d.Auth}
	attendanceHandler := handler.AttendanceHandler{Service: d.Attendance}
	usersHandler := handler.UsersHandler{Service: d.Users, Attendance: d.Attendance}
	exports := d.Exports
	if exports == nil {
		exports = &handler.ExportHandler{Attendance: d.Attendance, Users: d.Users}
	}

	r := mux.NewRouter()

	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(banner))
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("Service is operational."))
	}).Methods(http.MethodGet)

	api.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/register", authHandler.Register).Methods(http.MethodPost)

	requireAuth := middleware.AuthJWT(d.Tokens)
	adminOnly := middleware.RequireRoles(model.RoleAdmin)

	asistencias := api.PathPrefix("/asistencias").Subrouter()
	asistencias.Use(requireAuth)
	asistencias.HandleFunc("", attendanceHandler.Record).Methods(http.MethodPost)
	asistencias.HandleFunc("", attendanceHandler.List).Methods(http.MethodGet)
	asistencias.HandleFunc("/turnos", attendanceHandler.Shifts).Methods(http.MethodGet)
	asistencias.HandleFunc("/export/{format}", exports.Own).Methods(http.MethodGet)
	if d.Live != nil {
		asistencias.Handle("/live", adminOnly(d.Live)).Methods(http.MethodGet)
	}
	asistencias.Handle("/{id:[0-9]+}", adminOnly(http.HandlerFunc(attendanceHandler.Delete))).Methods(http.MethodDelete)

	usuarios := api.PathPrefix("/usuarios").Subrouter()
	usuarios.Use(requireAuth, adminOnly)
	usuarios.HandleFunc("", usersHandler.List).Methods(http.MethodGet)
	usuarios.HandleFunc("", usersHandler.Create).Methods(http.MethodPost)
	usuarios.HandleFunc("/{id:[0-9]+}", usersHandler.Update).Methods(http.MethodPut)
	usuarios.HandleFunc("/{id:[0-9]+}", usersHandler.Delete).Methods(http.MethodDelete)
	usuarios.HandleFunc("/{id:[0-9]+}/turnos", usersHandler.Shifts).Methods(http.MethodGet)
	usuarios.HandleFunc("/{id:[0-9]+}/export/{format}", exports.ForUser).Methods(http.MethodGet)

	return middleware.CORS(d.Origins)(middleware.RequestLogger(r))
}
