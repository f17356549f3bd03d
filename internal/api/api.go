package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/IlyasAtabaev731/atm-server/internal/config"
	"github.com/IlyasAtabaev731/atm-server/internal/domain/models"
	"github.com/IlyasAtabaev731/atm-server/internal/lib/validate"
	"github.com/IlyasAtabaev731/atm-server/internal/operations"
	"github.com/IlyasAtabaev731/atm-server/internal/users"
	"github.com/gorilla/mux"
)

type IdentityResolver interface {
	Resolve(r *http.Request) (*models.User, error)
}

type UserService interface {
	Login(ctx context.Context, req users.LoginRequest) (*users.LoginResult, error)
	Profile(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, update models.ProfileUpdate) (*models.User, error)
}

type OperationService interface {
	Deposit(ctx context.Context, userID string, req operations.DepositRequest) (*operations.Result, error)
	Withdraw(ctx context.Context, userID string, req operations.WithdrawRequest) (*operations.Result, error)
	Transfer(ctx context.Context, userID string, req operations.TransferRequest) (*operations.TransferResult, error)
}

type TransactionHistory interface {
	History(ctx context.Context, userID string) []models.Transaction
}

type APIServer struct {
	config     *config.Config
	logger     *slog.Logger
	server     *http.Server
	resolver   IdentityResolver
	users      UserService
	operations OperationService
	history    TransactionHistory
	validator  *validate.Validator
}

func New(
	config *config.Config,
	logger *slog.Logger,
	resolver IdentityResolver,
	users UserService,
	operations OperationService,
	history TransactionHistory,
) *APIServer {
	s := &APIServer{
		config: config,
		logger: logger,
		server: &http.Server{
			Addr: config.ApiHost + ":" + strconv.Itoa(config.ApiPort),
		},
		resolver:   resolver,
		users:      users,
		operations: operations,
		history:    history,
		validator:  validate.New(),
	}

	s.configureRouter()

	return s
}

func (s *APIServer) Start() error {
	s.logger.Info("Starting server", slog.String("addr", s.server.Addr))

	return s.server.ListenAndServe()
}

func (s *APIServer) MustStart() {
	err := s.Start()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic("Failed to start server: " + err.Error())
	}
}

func (s *APIServer) Stop(ctx context.Context) error {
	defer s.logger.Info("Server successfully stopped")
	return s.server.Shutdown(ctx)
}

// Handler is the fully wrapped router.
func (s *APIServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *APIServer) configureRouter() {
	router := mux.NewRouter()

	router.HandleFunc("/health", s.healthHandler()).Methods("GET")

	router.HandleFunc("/api/auth/login", s.loginHandler()).Methods("POST")

	router.HandleFunc("/api/user/profile", s.authenticate(s.profileHandler())).Methods("GET")
	router.HandleFunc("/api/user/profile", s.authenticate(s.updateProfileHandler())).Methods("PUT")

	router.HandleFunc("/api/transactions", s.authenticate(s.transactionsHandler())).Methods("GET")
	router.HandleFunc("/api/transactions/deposit", s.authenticate(s.depositHandler())).Methods("POST")
	router.HandleFunc("/api/transactions/withdraw", s.authenticate(s.withdrawHandler())).Methods("POST")
	router.HandleFunc("/api/transactions/transfer", s.authenticate(s.transferHandler())).Methods("POST")

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeFailure(w, http.StatusNotFound, "Route not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeFailure(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	// Outside the router so unmatched routes and preflights pass through too.
	s.server.Handler = s.recoverer(s.logRequests(cors(router)))
}
