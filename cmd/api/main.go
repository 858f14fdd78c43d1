package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"github.com/munitax/fraccionamiento/pkg/cache"
	"github.com/munitax/fraccionamiento/pkg/logging"
	"github.com/munitax/fraccionamiento/pkg/plan"
	"github.com/munitax/fraccionamiento/pkg/store"
)

// Server holds the plan service and its storage.
type Server struct {
	service *plan.Service
	storage store.Storage
}

func NewServer(s store.Storage, c cache.Cache) *Server {
	return &Server{
		service: plan.New(s, c),
		storage: s,
	}
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()

	// Billing-system integration surface: candidate debts.
	router.HandleFunc("/deudas", s.createDebtHandler).Methods("POST")
	router.HandleFunc("/contribuyentes/{codigo}/deudas", s.listTaxpayerDebtsHandler).Methods("GET")

	// Fraccionamiento lifecycle.
	router.HandleFunc("/solicitudes", s.createSolicitudHandler).Methods("POST")
	router.HandleFunc("/solicitudes", s.listPlansHandler).Methods("GET")
	router.HandleFunc("/solicitudes/estadisticas", s.statisticsHandler).Methods("GET")
	router.HandleFunc("/solicitudes/codigo/{codigo}", s.getPlanByCodeHandler).Methods("GET")
	router.HandleFunc("/solicitudes/{id}", s.getPlanHandler).Methods("GET")
	router.HandleFunc("/solicitudes/{id}/aprobar", s.approveHandler).Methods("PUT")
	router.HandleFunc("/solicitudes/{id}/rechazar", s.rejectHandler).Methods("PUT")
	router.HandleFunc("/solicitudes/{id}/cancelar", s.cancelHandler).Methods("PUT")
	router.HandleFunc("/solicitudes/{id}/cronograma/generar", s.generateScheduleHandler).Methods("POST")
	router.HandleFunc("/solicitudes/{id}/cronograma", s.getCronogramaHandler).Methods("GET")
	router.HandleFunc("/solicitudes/{id}/cuotas/{cuotaId}/pagar", s.registerPaymentHandler).Methods("PUT")

	return router
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	logging.Setup()

	dbPath := getEnv("DB_PATH", "fraccionamiento.db")
	addr := getEnv("ADDR", ":8080")

	sqliteStore, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		slog.Error("failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer sqliteStore.Close()
	slog.Info("storage initialized", "database", dbPath)

	var c cache.Cache
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		c = cache.NewRedisCache(redisAddr)
		slog.Info("statistics cache enabled", "redis", redisAddr)
	}

	server := NewServer(sqliteStore, c)

	slog.Info("server starting", "addr", addr)
	if err := http.ListenAndServe(addr, server.routes()); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
